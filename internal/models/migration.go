package models

import (
	"time"
)

// SchemaVersion records a versioned target schema step that has been applied
type SchemaVersion struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Version   string    `gorm:"uniqueIndex;not null" json:"version"`
	Name      string    `gorm:"not null" json:"name"`
	AppliedAt time.Time `json:"applied_at"`
}

// TableName ensures consistent table naming
func (SchemaVersion) TableName() string {
	return "schema_versions"
}
