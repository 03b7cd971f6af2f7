package models

import (
	"time"

	"github.com/noah-isme/edutrack-api/internal/policy"
)

// Grade is a student's final result in a course.
type Grade struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	StudentID  uint      `gorm:"not null;uniqueIndex:idx_grade_student_course" json:"student_id"`
	CourseID   uint      `gorm:"not null;uniqueIndex:idx_grade_student_course;index" json:"course_id"`
	SemesterID uint      `gorm:"not null;index" json:"semester_id"`
	Score      float64   `gorm:"not null" json:"score"`
	Letter     string    `gorm:"size:2;not null" json:"letter"`
	Remarks    string    `gorm:"type:text" json:"remarks"`
	GradedBy   uint      `gorm:"not null" json:"graded_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ScopeValue implements policy.Record.
func (g Grade) ScopeValue(field policy.Field) (interface{}, bool) {
	switch field {
	case policy.FieldStudentID:
		return g.StudentID, true
	case policy.FieldCourseID:
		return g.CourseID, true
	case policy.FieldSemesterID:
		return g.SemesterID, true
	case policy.FieldGradedBy:
		return g.GradedBy, true
	}
	return nil, false
}
