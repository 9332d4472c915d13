package loan

import "Gin_postgres_redis_loan_manager/models"

// Transition is a single allowed edge in the loan lifecycle, together with the
// side effects committing it entails.
type Transition struct {
	From models.LoanStatus
	To   models.LoanStatus

	// RecheckCapacity marks edges that take a loan into an active status from
	// a non-active one. The store must re-evaluate equipment capacity inside
	// the same transaction as the status write.
	RecheckCapacity bool

	// SetReturnDate marks the edge that fixes ActualReturnDate forever.
	SetReturnDate bool
}

var transitionsTable = []Transition{
	{From: models.StatusPending, To: models.StatusApproved, RecheckCapacity: true},
	{From: models.StatusPending, To: models.StatusRefused},
	{From: models.StatusApproved, To: models.StatusBorrowed},
	{From: models.StatusApproved, To: models.StatusRefused},
	{From: models.StatusBorrowed, To: models.StatusReturned, SetReturnDate: true},
}

// TransitionFor returns the edge for a (from, to) pair, if the lifecycle graph
// contains it.
func TransitionFor(from, to models.LoanStatus) (Transition, bool) {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.To == to {
			return tr, true
		}
	}
	return Transition{}, false
}
