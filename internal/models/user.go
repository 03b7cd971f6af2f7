package models

import (
	"time"

	"github.com/noah-isme/edutrack-api/internal/policy"
)

// User is an authenticated actor: student, teacher or admin.
type User struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Name              string    `gorm:"size:255;not null" json:"name"`
	Email             string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash      string    `gorm:"size:255;not null" json:"-"`
	Role              string    `gorm:"size:16;not null;index" json:"role"`
	Active            bool      `gorm:"not null" json:"active"`
	CurrentSemesterID *uint     `gorm:"index" json:"current_semester_id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// PolicyRole returns the role as understood by the policy engine.
func (u User) PolicyRole() policy.Role {
	role, _ := policy.ParseRole(u.Role)
	return role
}

// Enrollment links a student to a course.
type Enrollment struct {
	CourseID   uint      `gorm:"primaryKey" json:"course_id"`
	StudentID  uint      `gorm:"primaryKey;index" json:"student_id"`
	EnrolledAt time.Time `gorm:"not null" json:"enrolled_at"`
}

// TableName keeps the historical join table name.
func (Enrollment) TableName() string { return "course_enrollments" }

// TeachingAssignment links a teacher to a course it teaches.
type TeachingAssignment struct {
	CourseID   uint      `gorm:"primaryKey" json:"course_id"`
	TeacherID  uint      `gorm:"primaryKey;index" json:"teacher_id"`
	AssignedAt time.Time `gorm:"not null" json:"assigned_at"`
}

// TableName keeps the historical join table name.
func (TeachingAssignment) TableName() string { return "teaching_courses" }
