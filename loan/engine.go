package loan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"Gin_postgres_redis_loan_manager/models"
	"Gin_postgres_redis_loan_manager/notify"

	"github.com/google/uuid"
)

// Actor is whoever triggers a lifecycle operation.
type Actor struct {
	Email string
	Role  models.Role
}

// CreateParams is the input for filing a new loan request.
type CreateParams struct {
	EquipmentID        string
	Requester          string // email of the borrower
	Manager            string // email of the responsible manager
	BorrowingDate      time.Time
	ExpectedReturnDate time.Time
}

// Engine owns the loan lifecycle: it is the only component that mutates loan
// requests, and every mutation commits together with its history entry and is
// followed by a fire-and-forget notification event.
type Engine struct {
	store  Store
	events notify.Dispatcher

	// Now and NewID exist so tests can pin time and ids.
	Now   func() time.Time
	NewID func() string
}

func NewEngine(store Store, events notify.Dispatcher) *Engine {
	return &Engine{
		store:  store,
		events: events,
		Now:    func() time.Time { return time.Now().UTC() },
		NewID:  uuid.NewString,
	}
}

// Create files a new PENDING request. The availability check and the insert
// run in one store transaction, so two racing creations cannot both squeeze
// into the last free slot.
func (e *Engine) Create(ctx context.Context, p CreateParams) (*models.LoanRequest, error) {
	if p.EquipmentID == "" {
		return nil, fmt.Errorf("%w: equipment id is required", ErrValidation)
	}
	if strings.TrimSpace(p.Requester) == "" || strings.TrimSpace(p.Manager) == "" {
		return nil, fmt.Errorf("%w: requester and manager are required", ErrValidation)
	}
	if p.BorrowingDate.IsZero() || p.ExpectedReturnDate.IsZero() {
		return nil, fmt.Errorf("%w: borrowing and expected return dates are required", ErrValidation)
	}
	if p.ExpectedReturnDate.Before(p.BorrowingDate) {
		return nil, fmt.Errorf("%w: expected return date before borrowing date", ErrValidation)
	}

	now := e.Now()
	req := &models.LoanRequest{
		ID:                 e.NewID(),
		EquipmentID:        p.EquipmentID,
		RequesterEmail:     p.Requester,
		ManagerEmail:       p.Manager,
		BorrowingDate:      p.BorrowingDate,
		ExpectedReturnDate: p.ExpectedReturnDate,
		Status:             models.StatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	entry := &models.StatusHistoryEntry{
		ID:            e.NewID(),
		LoanRequestID: req.ID,
		NewStatus:     models.StatusPending,
		ChangedBy:     p.Requester,
		CreatedAt:     now,
	}

	if err := e.store.CreateLoanRequest(ctx, req, entry); err != nil {
		return nil, err
	}

	e.emit(req, "", req.ManagerEmail, "")
	return req, nil
}

// Transition moves a request along one edge of the lifecycle graph.
//
// Order matters: graph membership decides ErrIllegalTransition before the role
// table decides ErrForbidden, so a manager replaying a stale screen sees
// "illegal transition" while a student on a legal edge sees "forbidden". A
// CAS failure in the store means someone else won the race between our read
// and our write; that surfaces as ErrConflict and is never retried here,
// because authorization and capacity would have to be re-judged against a
// state the caller has not seen.
func (e *Engine) Transition(ctx context.Context, loanID string, actor Actor, to models.LoanStatus, comment string) (*models.LoanRequest, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, string(to))
	}

	cur, err := e.store.GetLoanRequest(ctx, loanID)
	if err != nil {
		return nil, err
	}

	tr, ok := TransitionFor(cur.Status, to)
	if !ok {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, cur.Status, to)
	}
	if !Allows(actor.Role, cur.Status, to) {
		return nil, fmt.Errorf("%w: role %s may not move %s -> %s", ErrForbidden, actor.Role, cur.Status, to)
	}

	now := e.Now()
	upd := Update{
		Status:          to,
		UpdatedAt:       now,
		RecheckCapacity: tr.RecheckCapacity,
	}
	if comment != "" {
		upd.AdminComment = &comment
	}
	if tr.SetReturnDate {
		t := now
		upd.ActualReturnDate = &t
	}
	entry := &models.StatusHistoryEntry{
		ID:             e.NewID(),
		LoanRequestID:  loanID,
		PreviousStatus: cur.Status,
		NewStatus:      to,
		Comment:        comment,
		ChangedBy:      actor.Email,
		CreatedAt:      now,
	}

	updated, err := e.store.CompareAndUpdate(ctx, loanID, cur.Status, upd, entry)
	if err != nil {
		if errors.Is(err, ErrStaleState) {
			return nil, fmt.Errorf("%w: loan %s changed underneath us", ErrConflict, loanID)
		}
		return nil, err
	}

	e.emit(updated, cur.Status, updated.RequesterEmail, comment)
	return updated, nil
}

// Get returns a single loan request.
func (e *Engine) Get(ctx context.Context, loanID string) (*models.LoanRequest, error) {
	return e.store.GetLoanRequest(ctx, loanID)
}

// History returns the audit trail of a loan request in replay order.
func (e *Engine) History(ctx context.Context, loanID string) ([]models.StatusHistoryEntry, error) {
	return e.store.ListHistory(ctx, loanID)
}

func (e *Engine) emit(req *models.LoanRequest, prev models.LoanStatus, recipient, comment string) {
	if e.events == nil {
		return
	}
	e.events.Dispatch(notify.Event{
		LoanID:         req.ID,
		EquipmentID:    req.EquipmentID,
		PreviousStatus: string(prev),
		NewStatus:      string(req.Status),
		Recipient:      recipient,
		Comment:        comment,
	})
}
