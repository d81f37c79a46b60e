package models

import (
	"time"
)

// Resume belongs to exactly one user. IsPrimary is carried over untouched;
// the one-primary-per-user rule belongs to the application, not the migration.
type Resume struct {
	ID        string     `gorm:"primaryKey;type:text" json:"id"`
	UserID    string     `gorm:"type:text;not null;index" json:"user_id"`
	Name      *string    `json:"name,omitempty"`
	IsPrimary *bool      `json:"is_primary,omitempty"`
	Summary   *string    `gorm:"type:text" json:"summary,omitempty"`
	ATSScore  *float64   `gorm:"column:ats_score" json:"ats_score,omitempty"`
	CreatedAt *time.Time `gorm:"autoCreateTime:false" json:"created_at,omitempty"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`

	// Associations
	User *User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// TableName ensures consistent table naming
func (Resume) TableName() string {
	return EntityResumes
}

func (r *Resume) EntityName() string { return EntityResumes }

func (r *Resume) RecordID() string { return r.ID }
