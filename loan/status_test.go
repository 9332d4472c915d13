package loan_test

import (
	"testing"

	"Gin_postgres_redis_loan_manager/loan"
	"Gin_postgres_redis_loan_manager/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []models.LoanStatus{
	models.StatusPending,
	models.StatusApproved,
	models.StatusBorrowed,
	models.StatusReturned,
	models.StatusRefused,
}

func TestTransitionForCoversExactlyTheLifecycleGraph(t *testing.T) {
	allowed := map[[2]models.LoanStatus]bool{
		{models.StatusPending, models.StatusApproved}:  true,
		{models.StatusPending, models.StatusRefused}:   true,
		{models.StatusApproved, models.StatusBorrowed}: true,
		{models.StatusApproved, models.StatusRefused}:  true,
		{models.StatusBorrowed, models.StatusReturned}: true,
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			_, ok := loan.TransitionFor(from, to)
			assert.Equalf(t, allowed[[2]models.LoanStatus{from, to}], ok,
				"edge %s -> %s", from, to)
		}
	}
}

func TestTransitionSideEffectFlags(t *testing.T) {
	approve, ok := loan.TransitionFor(models.StatusPending, models.StatusApproved)
	require.True(t, ok)
	assert.True(t, approve.RecheckCapacity, "entering APPROVED must re-check capacity")
	assert.False(t, approve.SetReturnDate)

	borrow, ok := loan.TransitionFor(models.StatusApproved, models.StatusBorrowed)
	require.True(t, ok)
	assert.False(t, borrow.RecheckCapacity, "APPROVED already holds the unit")

	ret, ok := loan.TransitionFor(models.StatusBorrowed, models.StatusReturned)
	require.True(t, ok)
	assert.True(t, ret.SetReturnDate)
	assert.False(t, ret.RecheckCapacity)
}

func TestTerminalStatusesHaveNoOutgoingEdges(t *testing.T) {
	for _, from := range []models.LoanStatus{models.StatusReturned, models.StatusRefused} {
		require.True(t, from.Terminal())
		for _, to := range allStatuses {
			_, ok := loan.TransitionFor(from, to)
			assert.Falsef(t, ok, "terminal %s must not allow %s", from, to)
		}
	}
}

func TestStatusPredicates(t *testing.T) {
	assert.True(t, models.StatusApproved.Active())
	assert.True(t, models.StatusBorrowed.Active())
	assert.False(t, models.StatusPending.Active())
	assert.False(t, models.StatusReturned.Active())
	assert.False(t, models.StatusRefused.Active())

	for _, s := range allStatuses {
		assert.True(t, s.Valid())
	}
	assert.False(t, models.LoanStatus("CANCELLED").Valid())
	assert.False(t, models.LoanStatus("").Valid())
}
