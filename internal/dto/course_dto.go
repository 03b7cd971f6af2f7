package dto

import (
	"time"

	"github.com/noah-isme/edutrack-api/internal/models"
)

// CourseCreateRequest describes a new course.
type CourseCreateRequest struct {
	Name          string `json:"name" validate:"required,min=2,max=255"`
	Code          string `json:"code" validate:"required,min=2,max=32"`
	Description   string `json:"description" validate:"omitempty,max=5000"`
	SemesterID    uint   `json:"semester_id" validate:"required,gt=0"`
	Credits       int    `json:"credits" validate:"required,min=1,max=6"`
	MaxEnrollment int    `json:"max_enrollment" validate:"required,min=1"`
}

// CourseUpdateRequest describes a partial course update.
type CourseUpdateRequest struct {
	Name          *string `json:"name" validate:"omitempty,min=2,max=255"`
	Code          *string `json:"code" validate:"omitempty,min=2,max=32"`
	Description   *string `json:"description" validate:"omitempty,max=5000"`
	SemesterID    *uint   `json:"semester_id" validate:"omitempty,gt=0"`
	Credits       *int    `json:"credits" validate:"omitempty,min=1,max=6"`
	MaxEnrollment *int    `json:"max_enrollment" validate:"omitempty,min=1"`
	Active        *bool   `json:"active"`
}

// CourseListRequest filters course listings.
type CourseListRequest struct {
	ListRequest
	SemesterID *uint
}

// CourseAssignTeacherRequest assigns a teacher to a course.
type CourseAssignTeacherRequest struct {
	TeacherID uint `json:"teacher_id" validate:"required,gt=0"`
}

// CourseResponse is the serialized course.
type CourseResponse struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	Code          string    `json:"code"`
	Description   string    `json:"description"`
	SemesterID    uint      `json:"semester_id"`
	TeacherID     *uint     `json:"teacher_id"`
	Credits       int       `json:"credits"`
	MaxEnrollment int       `json:"max_enrollment"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewCourseResponse converts a model into a DTO.
func NewCourseResponse(model models.Course) CourseResponse {
	return CourseResponse{
		ID:            model.ID,
		Name:          model.Name,
		Code:          model.Code,
		Description:   model.Description,
		SemesterID:    model.SemesterID,
		TeacherID:     model.TeacherID,
		Credits:       model.Credits,
		MaxEnrollment: model.MaxEnrollment,
		Active:        model.Active,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}
