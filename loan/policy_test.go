package loan_test

import (
	"testing"

	"Gin_postgres_redis_loan_manager/loan"
	"Gin_postgres_redis_loan_manager/models"

	"github.com/stretchr/testify/assert"
)

func TestManagersMayDriveEveryLifecycleEdge(t *testing.T) {
	edges := [][2]models.LoanStatus{
		{models.StatusPending, models.StatusApproved},
		{models.StatusPending, models.StatusRefused},
		{models.StatusApproved, models.StatusBorrowed},
		{models.StatusApproved, models.StatusRefused},
		{models.StatusBorrowed, models.StatusReturned},
	}
	for _, role := range []models.Role{models.RoleAdmin, models.RoleEnseignant} {
		for _, e := range edges {
			assert.Truef(t, loan.Allows(role, e[0], e[1]),
				"%s should be allowed to move %s -> %s", role, e[0], e[1])
		}
	}
}

func TestStudentsMayDriveNoEdge(t *testing.T) {
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			assert.Falsef(t, loan.Allows(models.RoleEtudiant, from, to),
				"student must not move %s -> %s", from, to)
		}
	}
}

func TestPolicyDefaultsToDeny(t *testing.T) {
	// An edge outside the lifecycle graph is denied even for admins.
	assert.False(t, loan.Allows(models.RoleAdmin, models.StatusRefused, models.StatusApproved))
	assert.False(t, loan.Allows(models.RoleAdmin, models.StatusReturned, models.StatusBorrowed))
	assert.False(t, loan.Allows(models.RoleAdmin, models.StatusPending, models.StatusPending))

	// Unknown roles get nothing.
	assert.False(t, loan.Allows(models.Role("INTERN"), models.StatusPending, models.StatusApproved))
	assert.False(t, loan.Allows(models.Role(""), models.StatusPending, models.StatusApproved))
}
