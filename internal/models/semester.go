package models

import (
	"time"

	"github.com/noah-isme/edutrack-api/internal/policy"
)

// Semester is one of the numbered academic terms. At most one is current.
type Semester struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Number       int       `gorm:"not null;uniqueIndex" json:"number"`
	Name         string    `gorm:"size:128;not null" json:"name"`
	AcademicYear string    `gorm:"size:16;not null" json:"academic_year"`
	Active       bool      `gorm:"not null" json:"active"`
	IsCurrent    bool      `gorm:"not null;index" json:"is_current"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ScopeValue implements policy.Record.
func (s Semester) ScopeValue(field policy.Field) (interface{}, bool) {
	if field == policy.FieldActive {
		return s.Active, true
	}
	return nil, false
}
