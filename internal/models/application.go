package models

import (
	"time"
)

// Application statuses seen in the source data. Status is not validated
// during migration; these exist for callers inspecting migrated rows.
const (
	StatusApplied   = "applied"
	StatusInterview = "interview"
	StatusOffer     = "offer"
	StatusRejected  = "rejected"
	StatusWithdrawn = "withdrawn"
)

// Application links a user to a job. The same (user, job) pair may appear
// more than once.
type Application struct {
	ID         string     `gorm:"primaryKey;type:text" json:"id"`
	UserID     string     `gorm:"type:text;not null;index" json:"user_id"`
	JobID      string     `gorm:"type:text;not null;index" json:"job_id"`
	Status     *string    `gorm:"index" json:"status,omitempty"`
	AppliedVia *string    `json:"applied_via,omitempty"`
	AppliedAt  *time.Time `json:"applied_at,omitempty"`
	CreatedAt  *time.Time `gorm:"autoCreateTime:false" json:"created_at,omitempty"`
	UpdatedAt  *time.Time `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`

	// Associations
	User *User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Job  *Job  `gorm:"foreignKey:JobID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// TableName ensures consistent table naming
func (Application) TableName() string {
	return EntityApplications
}

func (a *Application) EntityName() string { return EntityApplications }

func (a *Application) RecordID() string { return a.ID }
