package models

import "time"

const EquipmentTable = "eqp_equipment"

// Equipment is a catalog entry with a pooled quantity. Quantity is the hard
// ceiling on simultaneously active loans for this entry; the loan engine never
// writes equipment rows.
type Equipment struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Serial   string `gorm:"size:120;uniqueIndex;not null" json:"serial"`
	Name     string `gorm:"size:200;not null" json:"name"`
	Quantity int    `gorm:"not null" json:"quantity"`
	Location string `gorm:"size:255" json:"location,omitempty"` // free-form pointer into the storage hierarchy

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Equipment) TableName() string { return EquipmentTable }
