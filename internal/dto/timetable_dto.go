package dto

import (
	"time"

	"github.com/noah-isme/edutrack-api/internal/models"
)

// TimetableCreateRequest describes a new weekly session.
type TimetableCreateRequest struct {
	Day       string `json:"day" validate:"required"`
	StartTime string `json:"start_time" validate:"required,len=5"`
	EndTime   string `json:"end_time" validate:"required,len=5"`
	CourseID  uint   `json:"course_id" validate:"required,gt=0"`
	TeacherID uint   `json:"teacher_id" validate:"omitempty,gt=0"`
	Room      string `json:"room" validate:"required,max=64"`
	Type      string `json:"type" validate:"omitempty,oneof=lecture lab tutorial exam"`
}

// TimetableUpdateRequest describes a partial timetable update.
type TimetableUpdateRequest struct {
	Day       *string `json:"day"`
	StartTime *string `json:"start_time" validate:"omitempty,len=5"`
	EndTime   *string `json:"end_time" validate:"omitempty,len=5"`
	TeacherID *uint   `json:"teacher_id" validate:"omitempty,gt=0"`
	Room      *string `json:"room" validate:"omitempty,min=1,max=64"`
	Type      *string `json:"type" validate:"omitempty,oneof=lecture lab tutorial exam"`
	Active    *bool   `json:"active"`
}

// TimetableListRequest filters timetable listings.
type TimetableListRequest struct {
	ListRequest
	Day      string
	CourseID *uint
}

// TimetableResponse is the serialized timetable entry.
type TimetableResponse struct {
	ID        uint      `json:"id"`
	Day       string    `json:"day"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	CourseID  uint      `json:"course_id"`
	TeacherID uint      `json:"teacher_id"`
	Room      string    `json:"room"`
	Type      string    `json:"type"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTimetableResponse converts a model into a DTO.
func NewTimetableResponse(model models.TimetableEntry) TimetableResponse {
	return TimetableResponse{
		ID:        model.ID,
		Day:       model.Day,
		StartTime: model.StartTime,
		EndTime:   model.EndTime,
		CourseID:  model.CourseID,
		TeacherID: model.TeacherID,
		Room:      model.Room,
		Type:      model.Type,
		Active:    model.Active,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}
