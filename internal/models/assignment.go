package models

import (
	"time"

	"github.com/noah-isme/edutrack-api/internal/policy"
)

// Assignment is coursework set by a teacher for a course.
type Assignment struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Title       string       `gorm:"size:255;not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	CourseID    uint         `gorm:"not null;index" json:"course_id"`
	SemesterID  uint         `gorm:"not null;index" json:"semester_id"`
	TeacherID   uint         `gorm:"not null;index" json:"teacher_id"`
	DueDate     time.Time    `gorm:"not null" json:"due_date"`
	MaxPoints   int          `gorm:"not null" json:"max_points"`
	Active      bool         `gorm:"not null;index" json:"active"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Submissions []Submission `json:"-"`
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}

// OwnerID implements policy.Owned.
func (a Assignment) OwnerID() uint { return a.TeacherID }

// ScopeValue implements policy.Record.
func (a Assignment) ScopeValue(field policy.Field) (interface{}, bool) {
	switch field {
	case policy.FieldActive:
		return a.Active, true
	case policy.FieldCourseID:
		return a.CourseID, true
	case policy.FieldSemesterID:
		return a.SemesterID, true
	case policy.FieldTeacherID:
		return a.TeacherID, true
	}
	return nil, false
}
