package dto

import (
	"time"

	"github.com/noah-isme/edutrack-api/internal/models"
)

// SemesterCreateRequest describes a new semester.
type SemesterCreateRequest struct {
	Number       int    `json:"number" validate:"required,min=1,max=8"`
	Name         string `json:"name" validate:"required,min=2,max=128"`
	AcademicYear string `json:"academic_year" validate:"required,max=16"`
}

// SemesterUpdateRequest describes a partial semester update.
type SemesterUpdateRequest struct {
	Number       *int    `json:"number" validate:"omitempty,min=1,max=8"`
	Name         *string `json:"name" validate:"omitempty,min=2,max=128"`
	AcademicYear *string `json:"academic_year" validate:"omitempty,max=16"`
	Active       *bool   `json:"active"`
}

// SemesterSelectRequest is sent by a student choosing a semester.
type SemesterSelectRequest struct {
	SemesterID uint `json:"semester_id" validate:"required,gt=0"`
}

// SemesterResponse is the serialized semester.
type SemesterResponse struct {
	ID           uint      `json:"id"`
	Number       int       `json:"number"`
	Name         string    `json:"name"`
	AcademicYear string    `json:"academic_year"`
	Active       bool      `json:"active"`
	IsCurrent    bool      `json:"is_current"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewSemesterResponse converts a model into a DTO.
func NewSemesterResponse(model models.Semester) SemesterResponse {
	return SemesterResponse{
		ID:           model.ID,
		Number:       model.Number,
		Name:         model.Name,
		AcademicYear: model.AcademicYear,
		Active:       model.Active,
		IsCurrent:    model.IsCurrent,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}
