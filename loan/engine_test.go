package loan_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"Gin_postgres_redis_loan_manager/loan"
	"Gin_postgres_redis_loan_manager/models"
	"Gin_postgres_redis_loan_manager/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	student = loan.Actor{Email: "alice@school.example", Role: models.RoleEtudiant}
	teacher = loan.Actor{Email: "prof@school.example", Role: models.RoleEnseignant}
	admin   = loan.Actor{Email: "admin@school.example", Role: models.RoleAdmin}
)

// recorder captures dispatched events so tests can assert on them.
type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Dispatch(ev notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) all() []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Event, len(r.events))
	copy(out, r.events)
	return out
}

// stepClock hands out strictly increasing timestamps so history ordering is
// deterministic even when several mutations land in the same wall-clock tick.
func stepClock() func() time.Time {
	var (
		mu   sync.Mutex
		n    int64
		base = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func newTestEngine(t *testing.T) (*loan.Engine, *loan.MemStore, *recorder) {
	t.Helper()
	store := loan.NewMemStore()
	rec := &recorder{}
	eng := loan.NewEngine(store, rec)
	eng.Now = stepClock()
	return eng, store, rec
}

func params(equipmentID string) loan.CreateParams {
	return loan.CreateParams{
		EquipmentID:        equipmentID,
		Requester:          student.Email,
		Manager:            teacher.Email,
		BorrowingDate:      time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		ExpectedReturnDate: time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	store.PutEquipment("eq-cam", 1)
	ctx := context.Background()

	cases := map[string]func(p *loan.CreateParams){
		"missing equipment id": func(p *loan.CreateParams) { p.EquipmentID = "" },
		"missing requester":    func(p *loan.CreateParams) { p.Requester = "  " },
		"missing manager":      func(p *loan.CreateParams) { p.Manager = "" },
		"zero borrowing date":  func(p *loan.CreateParams) { p.BorrowingDate = time.Time{} },
		"zero return date":     func(p *loan.CreateParams) { p.ExpectedReturnDate = time.Time{} },
		"return before borrow": func(p *loan.CreateParams) {
			p.ExpectedReturnDate = p.BorrowingDate.AddDate(0, 0, -1)
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := params("eq-cam")
			mutate(&p)
			_, err := eng.Create(ctx, p)
			assert.ErrorIs(t, err, loan.ErrValidation)
		})
	}
}

func TestCreateUnknownEquipment(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	_, err := eng.Create(context.Background(), params("eq-ghost"))
	assert.ErrorIs(t, err, loan.ErrEquipmentNotFound)
}

func TestCreateFilesPendingRequestAndNotifiesManager(t *testing.T) {
	eng, store, rec := newTestEngine(t)
	store.PutEquipment("eq-cam", 2)
	ctx := context.Background()

	req, err := eng.Create(ctx, params("eq-cam"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, req.Status)
	assert.Nil(t, req.ActualReturnDate)

	hist, err := eng.History(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Empty(t, hist[0].PreviousStatus)
	assert.Equal(t, models.StatusPending, hist[0].NewStatus)
	assert.Equal(t, student.Email, hist[0].ChangedBy)

	evs := rec.all()
	require.Len(t, evs, 1)
	assert.Equal(t, teacher.Email, evs[0].Recipient)
	assert.Equal(t, string(models.StatusPending), evs[0].NewStatus)
}

// Full borrow-and-return pass: PENDING -> APPROVED -> BORROWED -> RETURNED,
// with the audit trail growing one row per step.
func TestFullLifecycleLeavesCompleteAuditTrail(t *testing.T) {
	eng, store, rec := newTestEngine(t)
	store.PutEquipment("eq-cam", 1)
	ctx := context.Background()

	req, err := eng.Create(ctx, params("eq-cam"))
	require.NoError(t, err)

	req, err = eng.Transition(ctx, req.ID, teacher, models.StatusApproved, "ok for the field trip")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, req.Status)
	assert.Nil(t, req.ActualReturnDate)
	assert.Equal(t, 1, store.ActiveCount("eq-cam"))

	req, err = eng.Transition(ctx, req.ID, teacher, models.StatusBorrowed, "")
	require.NoError(t, err)
	assert.Nil(t, req.ActualReturnDate)

	req, err = eng.Transition(ctx, req.ID, admin, models.StatusReturned, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusReturned, req.Status)
	require.NotNil(t, req.ActualReturnDate)
	assert.Equal(t, 0, store.ActiveCount("eq-cam"))

	hist, err := eng.History(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, hist, 4)

	want := []models.LoanStatus{
		models.StatusPending,
		models.StatusApproved,
		models.StatusBorrowed,
		models.StatusReturned,
	}
	for i, e := range hist {
		assert.Equal(t, want[i], e.NewStatus)
		if i == 0 {
			assert.Empty(t, e.PreviousStatus)
		} else {
			assert.Equal(t, hist[i-1].NewStatus, e.PreviousStatus)
			assert.False(t, e.CreatedAt.Before(hist[i-1].CreatedAt))
		}
	}
	assert.Equal(t, "ok for the field trip", hist[1].Comment)
	assert.Equal(t, req.Status, hist[len(hist)-1].NewStatus)

	// One event per mutation, each transition addressed to the requester.
	evs := rec.all()
	require.Len(t, evs, 4)
	for _, ev := range evs[1:] {
		assert.Equal(t, student.Email, ev.Recipient)
	}
}

func TestStudentMayNotApproveOwnRequest(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	store.PutEquipment("eq-cam", 1)
	ctx := context.Background()

	req, err := eng.Create(ctx, params("eq-cam"))
	require.NoError(t, err)

	_, err = eng.Transition(ctx, req.ID, student, models.StatusApproved, "")
	assert.ErrorIs(t, err, loan.ErrForbidden)

	// Denied means untouched: still PENDING, still one history row.
	cur, err := eng.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, cur.Status)
	hist, _ := eng.History(ctx, req.ID)
	assert.Len(t, hist, 1)
}

func TestRefusedRequestCannotBeApprovedLater(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	store.PutEquipment("eq-cam", 1)
	ctx := context.Background()

	req, err := eng.Create(ctx, params("eq-cam"))
	require.NoError(t, err)
	_, err = eng.Transition(ctx, req.ID, teacher, models.StatusRefused, "out for repair")
	require.NoError(t, err)

	_, err = eng.Transition(ctx, req.ID, admin, models.StatusApproved, "")
	assert.ErrorIs(t, err, loan.ErrIllegalTransition)
	assert.NotErrorIs(t, err, loan.ErrForbidden)

	cur, err := eng.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRefused, cur.Status)
	require.NotNil(t, cur.AdminComment)
	assert.Equal(t, "out for repair", *cur.AdminComment)
	assert.Nil(t, cur.ActualReturnDate)
}

func TestTransitionUnknownLoan(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	_, err := eng.Transition(context.Background(), "no-such-loan", teacher, models.StatusApproved, "")
	assert.ErrorIs(t, err, loan.ErrNotFound)
}

func TestTransitionRejectsUnknownTargetStatus(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	store.PutEquipment("eq-cam", 1)
	req, err := eng.Create(context.Background(), params("eq-cam"))
	require.NoError(t, err)

	_, err = eng.Transition(context.Background(), req.ID, teacher, models.LoanStatus("LOST"), "")
	assert.ErrorIs(t, err, loan.ErrValidation)
}

// raceStore slips a competing mutation in between the engine's read and its
// compare-and-update, simulating a second manager winning the race.
type raceStore struct {
	*loan.MemStore
	once    sync.Once
	compete func()
}

func (r *raceStore) CompareAndUpdate(ctx context.Context, id string, expected models.LoanStatus, upd loan.Update, entry *models.StatusHistoryEntry) (*models.LoanRequest, error) {
	r.once.Do(r.compete)
	return r.MemStore.CompareAndUpdate(ctx, id, expected, upd, entry)
}

func TestLostWriteRaceSurfacesAsConflict(t *testing.T) {
	mem := loan.NewMemStore()
	mem.PutEquipment("eq-cam", 1)
	ctx := context.Background()

	rs := &raceStore{MemStore: mem}
	eng := loan.NewEngine(rs, nil)
	eng.Now = stepClock()

	// A second engine writing straight to the backing store plays the rival.
	rival := loan.NewEngine(mem, nil)
	rival.Now = stepClock()

	req, err := eng.Create(ctx, params("eq-cam"))
	require.NoError(t, err)

	rs.compete = func() {
		_, err := rival.Transition(ctx, req.ID, admin, models.StatusApproved, "")
		require.NoError(t, err)
	}

	_, err = eng.Transition(ctx, req.ID, teacher, models.StatusRefused, "")
	assert.ErrorIs(t, err, loan.ErrConflict)

	// The rival's approval stands, untouched by the losing refusal.
	cur, err := eng.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, cur.Status)
	hist, _ := eng.History(ctx, req.ID)
	assert.Len(t, hist, 2)
}

func TestApprovalBeyondQuantityIsRejected(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	store.PutEquipment("eq-proj", 1)
	ctx := context.Background()

	first, err := eng.Create(ctx, params("eq-proj"))
	require.NoError(t, err)
	second, err := eng.Create(ctx, params("eq-proj"))
	require.NoError(t, err, "pending requests do not hold a unit")

	_, err = eng.Transition(ctx, first.ID, teacher, models.StatusApproved, "")
	require.NoError(t, err)

	_, err = eng.Transition(ctx, second.ID, teacher, models.StatusApproved, "")
	assert.ErrorIs(t, err, loan.ErrCapacityExceeded)

	// The loser stays PENDING and can still be refused.
	cur, _ := eng.Get(ctx, second.ID)
	assert.Equal(t, models.StatusPending, cur.Status)
	_, err = eng.Transition(ctx, second.ID, teacher, models.StatusRefused, "none left")
	assert.NoError(t, err)
}

func TestReturnFreesTheUnitForTheNextApproval(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	store.PutEquipment("eq-proj", 1)
	ctx := context.Background()

	first, err := eng.Create(ctx, params("eq-proj"))
	require.NoError(t, err)
	second, err := eng.Create(ctx, params("eq-proj"))
	require.NoError(t, err)

	_, err = eng.Transition(ctx, first.ID, teacher, models.StatusApproved, "")
	require.NoError(t, err)
	_, err = eng.Transition(ctx, first.ID, teacher, models.StatusBorrowed, "")
	require.NoError(t, err)
	_, err = eng.Transition(ctx, second.ID, teacher, models.StatusApproved, "")
	require.ErrorIs(t, err, loan.ErrCapacityExceeded)

	_, err = eng.Transition(ctx, first.ID, teacher, models.StatusReturned, "")
	require.NoError(t, err)

	_, err = eng.Transition(ctx, second.ID, teacher, models.StatusApproved, "")
	assert.NoError(t, err, "a returned unit is loanable again")
}

func TestCreateRejectedWhenNoUnitFree(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	store.PutEquipment("eq-proj", 1)
	ctx := context.Background()

	req, err := eng.Create(ctx, params("eq-proj"))
	require.NoError(t, err)
	_, err = eng.Transition(ctx, req.ID, teacher, models.StatusApproved, "")
	require.NoError(t, err)

	_, err = eng.Create(ctx, params("eq-proj"))
	assert.ErrorIs(t, err, loan.ErrCapacityExceeded)
}

// Concurrent approvals across distinct loans must never oversubscribe the
// equipment: with quantity Q and 2Q pending requests, exactly Q approvals
// win and every loser sees the capacity error.
func TestConcurrentApprovalsRespectQuantity(t *testing.T) {
	for _, q := range []int{1, 2, 5} {
		t.Run(fmt.Sprintf("quantity_%d", q), func(t *testing.T) {
			eng, store, _ := newTestEngine(t)
			store.PutEquipment("eq-lab", q)
			ctx := context.Background()

			ids := make([]string, 2*q)
			for i := range ids {
				req, err := eng.Create(ctx, params("eq-lab"))
				require.NoError(t, err)
				ids[i] = req.ID
			}

			errs := make([]error, len(ids))
			var wg sync.WaitGroup
			for i, id := range ids {
				wg.Add(1)
				go func(i int, id string) {
					defer wg.Done()
					_, errs[i] = eng.Transition(ctx, id, teacher, models.StatusApproved, "")
				}(i, id)
			}
			wg.Wait()

			wins := 0
			for _, err := range errs {
				if err == nil {
					wins++
				} else {
					assert.ErrorIs(t, err, loan.ErrCapacityExceeded)
				}
			}
			assert.Equal(t, q, wins)
			assert.Equal(t, q, store.ActiveCount("eq-lab"))
		})
	}
}

// Concurrent refusals of the same loan: exactly one lands, the rest fail
// with either a conflict (lost the compare-and-update) or an illegal
// transition (re-read the already-terminal state).
func TestConcurrentRefusalsOfOneLoan(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	store.PutEquipment("eq-cam", 1)
	ctx := context.Background()

	req, err := eng.Create(ctx, params("eq-cam"))
	require.NoError(t, err)

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = eng.Transition(ctx, req.ID, teacher, models.StatusRefused, "")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		ok := errors.Is(err, loan.ErrConflict) || errors.Is(err, loan.ErrIllegalTransition)
		assert.Truef(t, ok, "unexpected error: %v", err)
	}
	assert.Equal(t, 1, wins)

	hist, err := eng.History(ctx, req.ID)
	require.NoError(t, err)
	assert.Len(t, hist, 2, "losers must not write history")
}
