// Package transform aligns source rows with the target schema. Every function
// here is pure: the same row always yields the same record and nothing touches
// a store.
package transform

import (
	"fmt"
	"strings"
	"time"

	"github.com/jobika/jobika-migrate/internal/models"
	"github.com/jobika/jobika-migrate/internal/utils"
)

// Func converts one source row of an entity into a target record
type Func func(entity string, row models.Row) (models.Record, error)

// Transform maps a source row onto the target model for entity. It fails with
// a SchemaMismatchError when a required column is absent or null, or when a
// value cannot be aligned with its target column type. Nullable columns that
// are absent stay nil.
func Transform(entity string, row models.Row) (models.Record, error) {
	r := &fieldReader{entity: entity, row: row}

	var rec models.Record
	switch entity {
	case models.EntityUsers:
		rec = &models.User{
			ID:             r.id(),
			Email:          r.requiredString("email"),
			PasswordHash:   r.optString("password_hash"),
			Phone:          r.optString("phone"),
			FullName:       r.optString("full_name"),
			CurrentCity:    r.optString("current_city"),
			CurrentCompany: r.optString("current_company"),
			CurrentTitle:   r.optString("current_title"),
			CreatedAt:      r.optTime("created_at"),
			UpdatedAt:      r.optTime("updated_at"),
		}
	case models.EntityJobs:
		rec = &models.Job{
			ID:          r.id(),
			Title:       r.requiredString("title"),
			CompanyName: r.optString("company_name"),
			Location:    r.optString("location"),
			JobType:     r.optString("job_type"),
			WorkMode:    r.optString("work_mode"),
			Description: r.optString("description"),
			SalaryMin:   r.optInt64("salary_min"),
			SalaryMax:   r.optInt64("salary_max"),
			PostedDate:  r.optTime("posted_date"),
			CreatedAt:   r.optTime("created_at"),
		}
	case models.EntityResumes:
		rec = &models.Resume{
			ID:        r.id(),
			UserID:    r.reference("user_id"),
			Name:      r.optString("name"),
			IsPrimary: r.optBool("is_primary"),
			Summary:   r.optString("summary"),
			ATSScore:  r.optFloat64("ats_score"),
			CreatedAt: r.optTime("created_at"),
			UpdatedAt: r.optTime("updated_at"),
		}
	case models.EntityApplications:
		rec = &models.Application{
			ID:         r.id(),
			UserID:     r.reference("user_id"),
			JobID:      r.reference("job_id"),
			Status:     r.optString("status"),
			AppliedVia: r.optString("applied_via"),
			AppliedAt:  r.optTime("applied_at"),
			CreatedAt:  r.optTime("created_at"),
			UpdatedAt:  r.optTime("updated_at"),
		}
	case models.EntityChatMessages:
		rec = &models.ChatMessage{
			ID:        r.id(),
			UserID:    r.reference("user_id"),
			SessionID: r.optString("session_id"),
			Role:      r.requiredString("role"),
			Content:   r.requiredString("content"),
			CreatedAt: r.optTime("created_at"),
		}
	default:
		return nil, utils.WrapSchemaMismatchError(entity, "", "unknown entity type")
	}

	if r.err != nil {
		return nil, r.err
	}
	return rec, nil
}

// RowID extracts the identifier of a raw row for failure reporting. It returns
// an empty string when the row has no usable id.
func RowID(row models.Row) string {
	s, ok, err := toString(row["id"])
	if !ok || err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// fieldReader pulls typed values out of a row and keeps the first failure
type fieldReader struct {
	entity string
	row    models.Row
	err    error
}

func (r *fieldReader) fail(column, format string, args ...interface{}) {
	if r.err == nil {
		r.err = utils.WrapSchemaMismatchError(r.entity, column, fmt.Sprintf(format, args...))
	}
}

func (r *fieldReader) value(column string, required bool) (interface{}, bool) {
	v, present := r.row[column]
	if !present || v == nil {
		if required && r.err == nil {
			r.err = utils.RequiredFieldError(r.entity, column)
		}
		return nil, false
	}
	return v, true
}

func (r *fieldReader) id() string {
	return r.reference("id")
}

// reference reads a key column. Keys must be non-blank text once aligned.
func (r *fieldReader) reference(column string) string {
	s := strings.TrimSpace(r.requiredString(column))
	if s == "" && r.err == nil {
		r.fail(column, "key is blank")
	}
	return s
}

func (r *fieldReader) requiredString(column string) string {
	v, ok := r.value(column, true)
	if !ok {
		return ""
	}
	s, _, err := toString(v)
	if err != nil {
		r.fail(column, "%v", err)
	}
	return s
}

func (r *fieldReader) optString(column string) *string {
	v, ok := r.value(column, false)
	if !ok {
		return nil
	}
	s, _, err := toString(v)
	if err != nil {
		r.fail(column, "%v", err)
		return nil
	}
	return &s
}

func (r *fieldReader) optInt64(column string) *int64 {
	v, ok := r.value(column, false)
	if !ok {
		return nil
	}
	n, present, err := toInt64(v)
	if err != nil {
		r.fail(column, "%v", err)
		return nil
	}
	if !present {
		return nil
	}
	return &n
}

func (r *fieldReader) optFloat64(column string) *float64 {
	v, ok := r.value(column, false)
	if !ok {
		return nil
	}
	f, present, err := toFloat64(v)
	if err != nil {
		r.fail(column, "%v", err)
		return nil
	}
	if !present {
		return nil
	}
	return &f
}

func (r *fieldReader) optBool(column string) *bool {
	v, ok := r.value(column, false)
	if !ok {
		return nil
	}
	b, present, err := toBool(v)
	if err != nil {
		r.fail(column, "%v", err)
		return nil
	}
	if !present {
		return nil
	}
	return &b
}

func (r *fieldReader) optTime(column string) *time.Time {
	v, ok := r.value(column, false)
	if !ok {
		return nil
	}
	t, present, err := toTime(v)
	if err != nil {
		r.fail(column, "%v", err)
		return nil
	}
	if !present {
		return nil
	}
	return &t
}
