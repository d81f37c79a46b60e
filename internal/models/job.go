package models

import (
	"time"
)

// Job is a posting migrated from the source jobs table
type Job struct {
	ID          string     `gorm:"primaryKey;type:text" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	CompanyName *string    `gorm:"index" json:"company_name,omitempty"`
	Location    *string    `json:"location,omitempty"`
	JobType     *string    `json:"job_type,omitempty"`
	WorkMode    *string    `json:"work_mode,omitempty"`
	Description *string    `gorm:"type:text" json:"description,omitempty"`
	SalaryMin   *int64     `json:"salary_min,omitempty"`
	SalaryMax   *int64     `json:"salary_max,omitempty"`
	PostedDate  *time.Time `json:"posted_date,omitempty"`
	CreatedAt   *time.Time `gorm:"autoCreateTime:false" json:"created_at,omitempty"`
}

// TableName ensures consistent table naming
func (Job) TableName() string {
	return EntityJobs
}

func (j *Job) EntityName() string { return EntityJobs }

func (j *Job) RecordID() string { return j.ID }
