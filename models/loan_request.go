package models

import "time"

const LoanRequestTable = "eqp_loan_requests"
const StatusHistoryTable = "eqp_loan_status_history"

// LoanStatus is the lifecycle status of a loan request. Only the five values
// below are ever stored; Valid gates every external input.
type LoanStatus string

const (
	StatusPending  LoanStatus = "PENDING"
	StatusApproved LoanStatus = "APPROVED"
	StatusBorrowed LoanStatus = "BORROWED"
	StatusReturned LoanStatus = "RETURNED"
	StatusRefused  LoanStatus = "REFUSED"
)

func (s LoanStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusBorrowed, StatusReturned, StatusRefused:
		return true
	}
	return false
}

// Terminal statuses accept no further transition.
func (s LoanStatus) Terminal() bool { return s == StatusReturned || s == StatusRefused }

// Active statuses count against the equipment quantity.
func (s LoanStatus) Active() bool { return s == StatusApproved || s == StatusBorrowed }

// ActiveStatuses is the SQL-side counterpart of LoanStatus.Active.
var ActiveStatuses = []LoanStatus{StatusApproved, StatusBorrowed}

// LoanRequest is one borrowing intent for one equipment entry. Rows are never
// deleted; the lifecycle ends at RETURNED or REFUSED. Status only moves through
// the engine's compare-and-update path.
type LoanRequest struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	EquipmentID    string `gorm:"type:uuid;index;not null" json:"equipmentId"`
	RequesterEmail string `gorm:"size:255;index;not null" json:"requesterEmail"`
	ManagerEmail   string `gorm:"size:255;index;not null" json:"managerEmail"`

	BorrowingDate      time.Time  `gorm:"type:date;not null" json:"borrowingDate"`
	ExpectedReturnDate time.Time  `gorm:"type:date;not null" json:"expectedReturnDate"`
	ActualReturnDate   *time.Time `gorm:"index" json:"actualReturnDate,omitempty"` // set once, on RETURNED

	Status       LoanStatus `gorm:"size:20;not null;index" json:"status"`
	AdminComment *string    `gorm:"size:500" json:"adminComment,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (LoanRequest) TableName() string { return LoanRequestTable }

// StatusHistoryEntry is the append-only audit row, one per status mutation
// including creation (PreviousStatus empty). Seq breaks created_at ties so the
// history replays in exact insertion order.
type StatusHistoryEntry struct {
	ID             string     `gorm:"primaryKey;type:uuid" json:"id"`
	Seq            int64      `gorm:"autoIncrement;uniqueIndex" json:"-"`
	LoanRequestID  string     `gorm:"type:uuid;index;not null" json:"loanRequestId"`
	PreviousStatus LoanStatus `gorm:"size:20" json:"previousStatus,omitempty"`
	NewStatus      LoanStatus `gorm:"size:20;not null" json:"newStatus"`
	Comment        string     `gorm:"size:500" json:"comment,omitempty"`
	ChangedBy      string     `gorm:"size:255;not null" json:"changedBy"`
	CreatedAt      time.Time  `gorm:"index" json:"createdAt"`
}

func (StatusHistoryEntry) TableName() string { return StatusHistoryTable }
