package models

import (
	"time"
)

// User is an account migrated from the source users table
type User struct {
	ID             string     `gorm:"primaryKey;type:text" json:"id"`
	Email          string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash   *string    `json:"-"`
	Phone          *string    `json:"phone,omitempty"`
	FullName       *string    `json:"full_name,omitempty"`
	CurrentCity    *string    `json:"current_city,omitempty"`
	CurrentCompany *string    `json:"current_company,omitempty"`
	CurrentTitle   *string    `json:"current_title,omitempty"`
	CreatedAt      *time.Time `gorm:"autoCreateTime:false" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`
}

// TableName ensures consistent table naming
func (User) TableName() string {
	return EntityUsers
}

func (u *User) EntityName() string { return EntityUsers }

func (u *User) RecordID() string { return u.ID }
