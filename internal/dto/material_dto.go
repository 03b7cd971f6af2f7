package dto

import (
	"time"

	"github.com/noah-isme/edutrack-api/internal/models"
)

// MaterialCreateRequest is the multipart form accompanying a material upload.
type MaterialCreateRequest struct {
	Title       string `form:"title" validate:"required,min=3,max=255"`
	Description string `form:"description" validate:"omitempty,max=5000"`
	CourseID    uint   `form:"course_id" validate:"required,gt=0"`
	Tags        string `form:"tags" validate:"omitempty,max=512"`
}

// MaterialUpdateRequest describes a partial material update.
type MaterialUpdateRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=3,max=255"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	Tags        []string `json:"tags" validate:"omitempty,max=20,dive,min=1,max=32"`
	Active      *bool    `json:"active"`
}

// MaterialListRequest filters material listings.
type MaterialListRequest struct {
	ListRequest
	CourseID *uint
	Tag      string
}

// MaterialResponse is the serialized material.
type MaterialResponse struct {
	ID            uint         `json:"id"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	CourseID      uint         `json:"course_id"`
	SemesterID    uint         `json:"semester_id"`
	TeacherID     uint         `json:"teacher_id"`
	File          FileResponse `json:"file"`
	Tags          []string     `json:"tags"`
	DownloadCount int64        `json:"download_count"`
	Active        bool         `json:"active"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// NewMaterialResponse converts a model into a DTO.
func NewMaterialResponse(model models.Material) MaterialResponse {
	tags := []string(model.Tags)
	if tags == nil {
		tags = []string{}
	}
	return MaterialResponse{
		ID:            model.ID,
		Title:         model.Title,
		Description:   model.Description,
		CourseID:      model.CourseID,
		SemesterID:    model.SemesterID,
		TeacherID:     model.TeacherID,
		File:          NewFileResponse(model.File),
		Tags:          tags,
		DownloadCount: model.DownloadCount,
		Active:        model.Active,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}
