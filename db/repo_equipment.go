package db

import (
	"Gin_postgres_redis_loan_manager/models"
	"context"
	"strings"
)

func (r *Repo) CreateEquipment(ctx context.Context, eq *models.Equipment) error {
	return r.DB.WithContext(ctx).Create(eq).Error
}

func (r *Repo) FindEquipmentByID(ctx context.Context, id string) (*models.Equipment, error) {
	var eq models.Equipment
	if err := r.DB.WithContext(ctx).First(&eq, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &eq, nil
}

// EquipmentRow is the listing view: catalog fields plus current occupancy.
type EquipmentRow struct {
	ID          string `json:"id"`
	Serial      string `json:"serial"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	Location    string `json:"location,omitempty"`
	ActiveLoans int    `json:"activeLoans"`
	Available   bool   `json:"available"`
}

type EquipmentQuery struct {
	Q    string // matches serial/name
	Page int
	Size int
}

type PagedEquipment struct {
	Total int64          `json:"total"`
	Items []EquipmentRow `json:"items"`
}

// ListEquipmentWithActiveCounts joins each catalog entry with its count of
// APPROVED/BORROWED loans. The count is a snapshot for display; the engine's
// transactions are the only authority on admission.
func (r *Repo) ListEquipmentWithActiveCounts(ctx context.Context, q EquipmentQuery) (*PagedEquipment, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Size <= 0 || q.Size > 200 {
		q.Size = 20
	}

	db := r.DB.WithContext(ctx)

	qry := db.
		Table(models.EquipmentTable+" e").
		Select(`
			e.id, e.serial, e.name, e.quantity, e.location,
			COUNT(l.id) FILTER (WHERE l.status IN ('APPROVED','BORROWED')) AS active_loans
		`).
		Joins("LEFT JOIN "+models.LoanRequestTable+" l ON l.equipment_id = e.id").
		Group("e.id")

	if s := strings.TrimSpace(q.Q); s != "" {
		pat := "%" + strings.ToLower(s) + "%"
		qry = qry.Where("LOWER(e.serial) LIKE ? OR LOWER(e.name) LIKE ?", pat, pat)
	}

	var total int64
	cnt := db.Table(models.EquipmentTable + " e")
	if s := strings.TrimSpace(q.Q); s != "" {
		pat := "%" + strings.ToLower(s) + "%"
		cnt = cnt.Where("LOWER(e.serial) LIKE ? OR LOWER(e.name) LIKE ?", pat, pat)
	}
	if err := cnt.Count(&total).Error; err != nil {
		return nil, err
	}

	qry = qry.Order("e.created_at DESC").Offset((q.Page - 1) * q.Size).Limit(q.Size)

	var rows []EquipmentRow
	if err := qry.Scan(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Available = rows[i].ActiveLoans < rows[i].Quantity
	}

	return &PagedEquipment{Total: total, Items: rows}, nil
}

// ActiveLoanCount counts the loans holding a unit of the equipment right now.
func (r *Repo) ActiveLoanCount(ctx context.Context, equipmentID string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.LoanRequest{}).
		Where("equipment_id = ? AND status IN ?", equipmentID, statusStrings(models.ActiveStatuses)).
		Count(&n).Error
	return n, err
}

func statusStrings(ss []models.LoanStatus) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}
