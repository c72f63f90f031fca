package models

import "time"

// User is the storefront view of the accounts table. Accounts are created by
// the auth service; the storefront reads contact details and lets admins
// block them.
type User struct {
	ID        string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(120)" json:"name"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Role      string    `gorm:"type:varchar(16);default:'user'" json:"role"`
	IsBlocked bool      `gorm:"not null;default:false" json:"isBlocked"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserPage is one page of the admin user listing.
type UserPage struct {
	Users []User `json:"users"`
	Total int64  `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}

// BlockResult reports a user's block state after a toggle.
type BlockResult struct {
	IsBlocked bool   `json:"isBlocked"`
	Message   string `json:"message"`
}

// Identity is the authenticated caller as resolved by the auth middleware.
type Identity struct {
	UserID string
	Role   string
	Email  string
	Name   string
}

func (i Identity) IsAdmin() bool {
	return i.Role == "admin"
}
