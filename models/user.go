package models

import (
	"time"
)

const UserTable = "eqp_users"

// Role is the single place account roles are defined. Handlers and the loan
// policy consume this type instead of comparing raw strings.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleEnseignant Role = "ENSEIGNANT"
	RoleEtudiant   Role = "ETUDIANT"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEnseignant, RoleEtudiant:
		return true
	}
	return false
}

// IsManager reports whether the role may manage loan requests
// (approve/refuse/hand out/take back).
func (r Role) IsManager() bool { return r == RoleAdmin || r == RoleEnseignant }

type User struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Email       string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	DisplayName string `gorm:"size:255;not null" json:"displayName"`
	Role        Role   `gorm:"size:20;not null;default:'ETUDIANT'" json:"role"`

	LastLoginAt *time.Time `gorm:"index" json:"lastLoginAt,omitempty"`
	LastSeenAt  *time.Time `gorm:"index" json:"lastSeenAt,omitempty"`
	LoginCount  int64      `gorm:"not null;default:0" json:"loginCount"`
	LastLoginIP string     `gorm:"size:45" json:"-"`
	LastLoginUA string     `gorm:"size:255" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string { return UserTable }
