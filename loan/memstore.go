package loan

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"Gin_postgres_redis_loan_manager/models"
)

// MemStore is an in-memory Store. One mutex stands in for the database
// transaction: every check-and-write runs under it, which gives the same
// serialization the Postgres store gets from row locks. Used by engine tests
// and local experiments; db.Repo is the production store.
type MemStore struct {
	mu        sync.Mutex
	equipment map[string]int // id -> quantity
	loans     map[string]models.LoanRequest
	history   []models.StatusHistoryEntry
	seq       int64
}

func NewMemStore() *MemStore {
	return &MemStore{
		equipment: make(map[string]int),
		loans:     make(map[string]models.LoanRequest),
	}
}

// PutEquipment registers an equipment id with its loanable quantity.
func (s *MemStore) PutEquipment(id string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.equipment[id] = quantity
}

func (s *MemStore) activeCountLocked(equipmentID string) int {
	n := 0
	for _, l := range s.loans {
		if l.EquipmentID == equipmentID && l.Status.Active() {
			n++
		}
	}
	return n
}

func (s *MemStore) appendHistoryLocked(entry *models.StatusHistoryEntry) {
	s.seq++
	e := *entry
	e.Seq = s.seq
	s.history = append(s.history, e)
}

func (s *MemStore) CreateLoanRequest(_ context.Context, req *models.LoanRequest, entry *models.StatusHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	quantity, ok := s.equipment[req.EquipmentID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrEquipmentNotFound, req.EquipmentID)
	}
	if s.activeCountLocked(req.EquipmentID) >= quantity {
		return ErrCapacityExceeded
	}

	s.loans[req.ID] = *req
	s.appendHistoryLocked(entry)
	return nil
}

func (s *MemStore) GetLoanRequest(_ context.Context, id string) (*models.LoanRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.loans[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	out := l
	return &out, nil
}

func (s *MemStore) CompareAndUpdate(_ context.Context, id string, expected models.LoanStatus, upd Update, entry *models.StatusHistoryEntry) (*models.LoanRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.loans[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if l.Status != expected {
		return nil, fmt.Errorf("%w: expected %s, stored %s", ErrStaleState, expected, l.Status)
	}

	if upd.RecheckCapacity {
		quantity, ok := s.equipment[l.EquipmentID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrEquipmentNotFound, l.EquipmentID)
		}
		// The loan itself is not active yet on a capacity-guarded edge, so the
		// plain active count is the occupancy it would join.
		if s.activeCountLocked(l.EquipmentID) >= quantity {
			return nil, ErrCapacityExceeded
		}
	}

	l.Status = upd.Status
	l.UpdatedAt = upd.UpdatedAt
	if upd.AdminComment != nil {
		c := *upd.AdminComment
		l.AdminComment = &c
	}
	if upd.ActualReturnDate != nil {
		t := *upd.ActualReturnDate
		l.ActualReturnDate = &t
	}
	s.loans[id] = l
	s.appendHistoryLocked(entry)

	out := l
	return &out, nil
}

func (s *MemStore) ListHistory(_ context.Context, loanID string) ([]models.StatusHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.StatusHistoryEntry
	for _, e := range s.history {
		if e.LoanRequestID == loanID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

func (s *MemStore) HasCapacity(_ context.Context, equipmentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quantity, ok := s.equipment[equipmentID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrEquipmentNotFound, equipmentID)
	}
	return s.activeCountLocked(equipmentID) < quantity, nil
}

// ActiveCount reports how many loans currently hold a unit of the equipment.
func (s *MemStore) ActiveCount(equipmentID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeCountLocked(equipmentID)
}
