package dto

import (
	"time"

	"github.com/noah-isme/edutrack-api/internal/models"
)

// GradeUpsertRequest records a student's final course grade.
type GradeUpsertRequest struct {
	StudentID uint     `json:"student_id" validate:"required,gt=0"`
	CourseID  uint     `json:"course_id" validate:"required,gt=0"`
	Score     *float64 `json:"score" validate:"required"`
	Remarks   string   `json:"remarks" validate:"omitempty,max=2000"`
}

// GradeListRequest filters grade listings.
type GradeListRequest struct {
	ListRequest
	CourseID   *uint
	SemesterID *uint
}

// GradeResponse is the serialized grade.
type GradeResponse struct {
	ID         uint      `json:"id"`
	StudentID  uint      `json:"student_id"`
	CourseID   uint      `json:"course_id"`
	SemesterID uint      `json:"semester_id"`
	Score      float64   `json:"score"`
	Letter     string    `json:"letter"`
	Remarks    string    `json:"remarks"`
	GradedBy   uint      `json:"graded_by"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewGradeResponse converts a model into a DTO.
func NewGradeResponse(model models.Grade) GradeResponse {
	return GradeResponse{
		ID:         model.ID,
		StudentID:  model.StudentID,
		CourseID:   model.CourseID,
		SemesterID: model.SemesterID,
		Score:      model.Score,
		Letter:     model.Letter,
		Remarks:    model.Remarks,
		GradedBy:   model.GradedBy,
		UpdatedAt:  model.UpdatedAt,
	}
}
