package loan

import "Gin_postgres_redis_loan_manager/models"

// policyRule states that a role may trigger the (From, To) edge. Anything not
// listed is denied; there is no fallthrough allow.
type policyRule struct {
	Role models.Role
	From models.LoanStatus
	To   models.LoanStatus
}

// Every transition away from PENDING, APPROVED or BORROWED is reserved to the
// manager roles. Creation is not an edge here: any authenticated role may file
// a request, which the engine handles before consulting this table.
var policyRules = []policyRule{
	{Role: models.RoleAdmin, From: models.StatusPending, To: models.StatusApproved},
	{Role: models.RoleAdmin, From: models.StatusPending, To: models.StatusRefused},
	{Role: models.RoleAdmin, From: models.StatusApproved, To: models.StatusBorrowed},
	{Role: models.RoleAdmin, From: models.StatusApproved, To: models.StatusRefused},
	{Role: models.RoleAdmin, From: models.StatusBorrowed, To: models.StatusReturned},

	{Role: models.RoleEnseignant, From: models.StatusPending, To: models.StatusApproved},
	{Role: models.RoleEnseignant, From: models.StatusPending, To: models.StatusRefused},
	{Role: models.RoleEnseignant, From: models.StatusApproved, To: models.StatusBorrowed},
	{Role: models.RoleEnseignant, From: models.StatusApproved, To: models.StatusRefused},
	{Role: models.RoleEnseignant, From: models.StatusBorrowed, To: models.StatusReturned},
}

// Allows reports whether role may trigger the (from, to) transition. Pure
// table lookup, no I/O; no matching rule means deny.
func Allows(role models.Role, from, to models.LoanStatus) bool {
	for _, r := range policyRules {
		if r.Role == role && r.From == from && r.To == to {
			return true
		}
	}
	return false
}
