package models

import (
	"time"

	"github.com/noah-isme/edutrack-api/internal/policy"
)

// Course is offered in a semester and optionally owned by a teacher.
type Course struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	Code          string    `gorm:"size:32;not null;uniqueIndex:idx_course_code_semester" json:"code"`
	Description   string    `gorm:"type:text" json:"description"`
	SemesterID    uint      `gorm:"not null;index;uniqueIndex:idx_course_code_semester" json:"semester_id"`
	TeacherID     *uint     `gorm:"index" json:"teacher_id"`
	Credits       int       `gorm:"not null" json:"credits"`
	MaxEnrollment int       `gorm:"not null" json:"max_enrollment"`
	Active        bool      `gorm:"not null;index" json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// OwnerID implements policy.Owned.
func (c Course) OwnerID() uint {
	if c.TeacherID == nil {
		return 0
	}
	return *c.TeacherID
}

// ScopeValue implements policy.Record.
func (c Course) ScopeValue(field policy.Field) (interface{}, bool) {
	switch field {
	case policy.FieldActive:
		return c.Active, true
	case policy.FieldSemesterID:
		return c.SemesterID, true
	case policy.FieldTeacherID:
		return c.TeacherID, true
	case policy.FieldCourseID:
		return c.ID, true
	}
	return nil, false
}
