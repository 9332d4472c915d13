package loan

import (
	"context"
	"time"

	"Gin_postgres_redis_loan_manager/models"
)

// Update is the field set CompareAndUpdate applies. Nil pointers leave the
// stored value untouched.
type Update struct {
	Status           models.LoanStatus
	AdminComment     *string
	ActualReturnDate *time.Time
	UpdatedAt        time.Time

	// RecheckCapacity makes the store re-evaluate the availability guard for
	// the loan's equipment inside the same transaction, failing the whole
	// update with ErrCapacityExceeded when no unit remains.
	RecheckCapacity bool
}

// Store is the sole mutation path for loan requests. Every write couples the
// loan row and exactly one history row in one atomic unit; implementations
// serialize writers racing on the same loan or the same equipment.
//
// Implemented by db.Repo (Postgres, row locks) and MemStore (tests).
type Store interface {
	// CreateLoanRequest persists a new PENDING request and its creation
	// history entry. The capacity check and the insert are one atomic unit;
	// returns ErrEquipmentNotFound or ErrCapacityExceeded.
	CreateLoanRequest(ctx context.Context, req *models.LoanRequest, entry *models.StatusHistoryEntry) error

	// GetLoanRequest returns the request or ErrNotFound.
	GetLoanRequest(ctx context.Context, id string) (*models.LoanRequest, error)

	// CompareAndUpdate applies upd and appends entry only if the stored status
	// still equals expected at the moment of update; otherwise ErrStaleState
	// and nothing is written.
	CompareAndUpdate(ctx context.Context, id string, expected models.LoanStatus, upd Update, entry *models.StatusHistoryEntry) (*models.LoanRequest, error)

	// ListHistory returns the request's history ascending by created_at,
	// insertion order breaking ties.
	ListHistory(ctx context.Context, loanID string) ([]models.StatusHistoryEntry, error)

	// HasCapacity reports whether one more active loan fits the equipment's
	// quantity right now. Advisory read for availability displays; enforcement
	// happens inside CreateLoanRequest / CompareAndUpdate transactions.
	HasCapacity(ctx context.Context, equipmentID string) (bool, error)
}
