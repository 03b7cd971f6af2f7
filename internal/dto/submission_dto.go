package dto

import (
	"time"

	"github.com/noah-isme/edutrack-api/internal/models"
)

// SubmissionGradeRequest grades one student's submission.
type SubmissionGradeRequest struct {
	Grade    *float64 `json:"grade" validate:"required"`
	Feedback string   `json:"feedback" validate:"omitempty,max=5000"`
}

// FileResponse describes a stored file.
type FileResponse struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID           uint         `json:"id"`
	AssignmentID uint         `json:"assignment_id"`
	StudentID    uint         `json:"student_id"`
	File         FileResponse `json:"file"`
	SubmittedAt  time.Time    `json:"submitted_at"`
	Grade        *float64     `json:"grade"`
	Feedback     string       `json:"feedback"`
	GradedAt     *time.Time   `json:"graded_at"`
	GradedBy     *uint        `json:"graded_by"`
}

// NewFileResponse converts a stored file reference.
func NewFileResponse(file models.FileRef) FileResponse {
	return FileResponse{URL: file.URL, Name: file.Name, Size: file.Size, MimeType: file.MimeType}
}

// NewSubmissionResponse converts a model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:           model.ID,
		AssignmentID: model.AssignmentID,
		StudentID:    model.StudentID,
		File:         NewFileResponse(model.File),
		SubmittedAt:  model.SubmittedAt,
		Grade:        model.Grade,
		Feedback:     model.Feedback,
		GradedAt:     model.GradedAt,
		GradedBy:     model.GradedBy,
	}
}
