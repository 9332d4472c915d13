package db

import (
	"context"
	"errors"
	"fmt"

	"Gin_postgres_redis_loan_manager/loan"
	"Gin_postgres_redis_loan_manager/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repo implements loan.Store on Postgres. The availability guard runs inside
// the same transaction as the write it protects: the equipment row is locked
// FOR UPDATE, so racing writers on one equipment serialize there, while the
// conditional UPDATE on status handles racing writers on one loan.

func (r *Repo) CreateLoanRequest(ctx context.Context, req *models.LoanRequest, entry *models.StatusHistoryEntry) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var eq models.Equipment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&eq, "id = ?", req.EquipmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", loan.ErrEquipmentNotFound, req.EquipmentID)
			}
			return err
		}

		var active int64
		if err := tx.Model(&models.LoanRequest{}).
			Where("equipment_id = ? AND status IN ?", eq.ID, statusStrings(models.ActiveStatuses)).
			Count(&active).Error; err != nil {
			return err
		}
		if active >= int64(eq.Quantity) {
			return loan.ErrCapacityExceeded
		}

		if err := tx.Create(req).Error; err != nil {
			return err
		}
		return tx.Create(entry).Error
	})
}

func (r *Repo) GetLoanRequest(ctx context.Context, id string) (*models.LoanRequest, error) {
	var l models.LoanRequest
	if err := r.DB.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", loan.ErrNotFound, id)
		}
		return nil, err
	}
	return &l, nil
}

func (r *Repo) CompareAndUpdate(ctx context.Context, id string, expected models.LoanStatus, upd loan.Update, entry *models.StatusHistoryEntry) (*models.LoanRequest, error) {
	var out models.LoanRequest
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur models.LoanRequest
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&cur, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", loan.ErrNotFound, id)
			}
			return err
		}
		if cur.Status != expected {
			return fmt.Errorf("%w: expected %s, stored %s", loan.ErrStaleState, expected, cur.Status)
		}

		if upd.RecheckCapacity {
			// Same lock order as CreateLoanRequest: equipment row first.
			var eq models.Equipment
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&eq, "id = ?", cur.EquipmentID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %s", loan.ErrEquipmentNotFound, cur.EquipmentID)
				}
				return err
			}
			var active int64
			if err := tx.Model(&models.LoanRequest{}).
				Where("equipment_id = ? AND status IN ?", eq.ID, statusStrings(models.ActiveStatuses)).
				Count(&active).Error; err != nil {
				return err
			}
			if active >= int64(eq.Quantity) {
				return loan.ErrCapacityExceeded
			}
		}

		updates := map[string]interface{}{
			"status":     string(upd.Status),
			"updated_at": upd.UpdatedAt,
		}
		if upd.AdminComment != nil {
			updates["admin_comment"] = *upd.AdminComment
		}
		if upd.ActualReturnDate != nil {
			updates["actual_return_date"] = *upd.ActualReturnDate
		}

		res := tx.Model(&models.LoanRequest{}).
			Where("id = ? AND status = ?", id, string(expected)).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: loan %s", loan.ErrStaleState, id)
		}

		if err := tx.Create(entry).Error; err != nil {
			return err
		}

		return tx.First(&out, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Repo) ListHistory(ctx context.Context, loanID string) ([]models.StatusHistoryEntry, error) {
	var entries []models.StatusHistoryEntry
	err := r.DB.WithContext(ctx).
		Where("loan_request_id = ?", loanID).
		Order("created_at ASC, seq ASC").
		Find(&entries).Error
	return entries, err
}

func (r *Repo) HasCapacity(ctx context.Context, equipmentID string) (bool, error) {
	eq, err := r.FindEquipmentByID(ctx, equipmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("%w: %s", loan.ErrEquipmentNotFound, equipmentID)
		}
		return false, err
	}
	active, err := r.ActiveLoanCount(ctx, equipmentID)
	if err != nil {
		return false, err
	}
	return active < int64(eq.Quantity), nil
}

// Loan browsing

type LoansQuery struct {
	Status      string // one of the five statuses, or ""
	EquipmentID string
	Requester   string // requester email
	Manager     string // manager email
	Page        int
	Size        int
}

type PagedLoans struct {
	Total int64                `json:"total"`
	Items []models.LoanRequest `json:"items"`
}

func (r *Repo) ListLoans(ctx context.Context, q LoansQuery) (*PagedLoans, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Size <= 0 || q.Size > 200 {
		q.Size = 20
	}

	tx := r.DB.WithContext(ctx).Model(&models.LoanRequest{})
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.EquipmentID != "" {
		tx = tx.Where("equipment_id = ?", q.EquipmentID)
	}
	if q.Requester != "" {
		tx = tx.Where("requester_email = ?", q.Requester)
	}
	if q.Manager != "" {
		tx = tx.Where("manager_email = ?", q.Manager)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.LoanRequest
	if err := tx.
		Order("created_at DESC").
		Offset((q.Page - 1) * q.Size).
		Limit(q.Size).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return &PagedLoans{Total: total, Items: items}, nil
}
