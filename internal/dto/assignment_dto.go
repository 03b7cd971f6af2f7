package dto

import (
	"time"

	"github.com/noah-isme/edutrack-api/internal/models"
)

const isoLayout = time.RFC3339

// AssignmentCreateRequest describes the payload for creating a new assignment.
type AssignmentCreateRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=255"`
	Description string `json:"description" validate:"omitempty,max=10000"`
	CourseID    uint   `json:"course_id" validate:"required,gt=0"`
	DueDate     string `json:"due_date" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	MaxPoints   int    `json:"max_points" validate:"required,min=1"`
}

// AssignmentUpdateRequest describes the payload for updating an assignment.
type AssignmentUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=3,max=255"`
	Description *string `json:"description" validate:"omitempty,max=10000"`
	DueDate     *string `json:"due_date" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	MaxPoints   *int    `json:"max_points" validate:"omitempty,min=1"`
	Active      *bool   `json:"active"`
}

// AssignmentListRequest filters assignment listings.
type AssignmentListRequest struct {
	ListRequest
	Sort     string
	CourseID *uint
}

// AssignmentResponse is the serialized representation returned to API clients.
type AssignmentResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CourseID    uint      `json:"course_id"`
	SemesterID  uint      `json:"semester_id"`
	TeacherID   uint      `json:"teacher_id"`
	DueDate     time.Time `json:"due_date"`
	MaxPoints   int       `json:"max_points"`
	Active      bool      `json:"active"`
	PastDue     bool      `json:"past_due"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(model models.Assignment, now time.Time) AssignmentResponse {
	return AssignmentResponse{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		CourseID:    model.CourseID,
		SemesterID:  model.SemesterID,
		TeacherID:   model.TeacherID,
		DueDate:     model.DueDate,
		MaxPoints:   model.MaxPoints,
		Active:      model.Active,
		PastDue:     model.IsPastDue(now),
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// ParseDueDate parses an RFC3339 due date.
func ParseDueDate(value string) (time.Time, error) {
	return time.Parse(isoLayout, value)
}
