package models

import (
	"time"

	"github.com/noah-isme/edutrack-api/internal/policy"
	"github.com/noah-isme/edutrack-api/internal/rules"
)

// Timetable entry types.
const (
	SessionLecture  = "lecture"
	SessionLab      = "lab"
	SessionTutorial = "tutorial"
	SessionExam     = "exam"
)

// TimetableEntry is a weekly recurring session of a course.
type TimetableEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Day       string    `gorm:"size:16;not null;index" json:"day"`
	StartTime string    `gorm:"size:5;not null" json:"start_time"`
	EndTime   string    `gorm:"size:5;not null" json:"end_time"`
	CourseID  uint      `gorm:"not null;index" json:"course_id"`
	TeacherID uint      `gorm:"not null;index" json:"teacher_id"`
	Room      string    `gorm:"size:64;not null" json:"room"`
	Type      string    `gorm:"size:16;not null" json:"type"`
	Active    bool      `gorm:"not null;index" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnerID implements policy.Owned.
func (e TimetableEntry) OwnerID() uint { return e.TeacherID }

// ScopeValue implements policy.Record.
func (e TimetableEntry) ScopeValue(field policy.Field) (interface{}, bool) {
	switch field {
	case policy.FieldActive:
		return e.Active, true
	case policy.FieldCourseID:
		return e.CourseID, true
	case policy.FieldTeacherID:
		return e.TeacherID, true
	}
	return nil, false
}

// Slot converts the entry for the overlap rule.
func (e TimetableEntry) Slot() (rules.Slot, error) {
	return rules.NewSlot(e.ID, e.Day, e.StartTime, e.EndTime, e.CourseID, e.TeacherID, e.Room, e.Active)
}
