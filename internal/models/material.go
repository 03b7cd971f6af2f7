package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/edutrack-api/internal/policy"
)

// Material is a teaching resource uploaded for a course.
type Material struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	Title         string                      `gorm:"size:255;not null" json:"title"`
	Description   string                      `gorm:"type:text" json:"description"`
	CourseID      uint                        `gorm:"not null;index" json:"course_id"`
	SemesterID    uint                        `gorm:"not null;index" json:"semester_id"`
	TeacherID     uint                        `gorm:"not null;index" json:"teacher_id"`
	File          FileRef                     `gorm:"embedded;embeddedPrefix:file_" json:"file"`
	Tags          datatypes.JSONSlice[string] `json:"tags"`
	DownloadCount int64                       `gorm:"not null" json:"download_count"`
	Active        bool                        `gorm:"not null;index" json:"active"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

// OwnerID implements policy.Owned.
func (m Material) OwnerID() uint { return m.TeacherID }

// ScopeValue implements policy.Record.
func (m Material) ScopeValue(field policy.Field) (interface{}, bool) {
	switch field {
	case policy.FieldActive:
		return m.Active, true
	case policy.FieldCourseID:
		return m.CourseID, true
	case policy.FieldSemesterID:
		return m.SemesterID, true
	case policy.FieldTeacherID:
		return m.TeacherID, true
	}
	return nil, false
}
