package dto

import (
	"time"

	"github.com/noah-isme/edutrack-api/internal/models"
)

// AnnouncementCreateRequest describes a new announcement.
type AnnouncementCreateRequest struct {
	Title       string     `json:"title" validate:"required,min=3,max=255"`
	Content     string     `json:"content" validate:"required"`
	SemesterID  uint       `json:"semester_id" validate:"required,gt=0"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Type        string     `json:"type" validate:"omitempty,oneof=general academic event exam assignment"`
	Published   *bool      `json:"published"`
	PublishDate *time.Time `json:"publish_date"`
	ExpiryDate  *time.Time `json:"expiry_date"`
}

// AnnouncementUpdateRequest describes a partial announcement update.
type AnnouncementUpdateRequest struct {
	Title      *string    `json:"title" validate:"omitempty,min=3,max=255"`
	Content    *string    `json:"content" validate:"omitempty,min=1"`
	Priority   *string    `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Type       *string    `json:"type" validate:"omitempty,oneof=general academic event exam assignment"`
	Published  *bool      `json:"published"`
	Active     *bool      `json:"active"`
	ExpiryDate *time.Time `json:"expiry_date"`
}

// AnnouncementListRequest filters announcement listings.
type AnnouncementListRequest struct {
	ListRequest
	Type     string
	Priority string
}

// AnnouncementResponse is the serialized announcement.
type AnnouncementResponse struct {
	ID          uint       `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	SemesterID  uint       `json:"semester_id"`
	AuthorID    uint       `json:"author_id"`
	Priority    string     `json:"priority"`
	Type        string     `json:"type"`
	Active      bool       `json:"active"`
	Published   bool       `json:"published"`
	PublishDate time.Time  `json:"publish_date"`
	ExpiryDate  *time.Time `json:"expiry_date"`
	Expired     bool       `json:"expired"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// UnreadCountResponse reports the unread announcement counter.
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}

// NewAnnouncementResponse converts a model into a DTO.
func NewAnnouncementResponse(model models.Announcement, now time.Time) AnnouncementResponse {
	return AnnouncementResponse{
		ID:          model.ID,
		Title:       model.Title,
		Content:     model.Content,
		SemesterID:  model.SemesterID,
		AuthorID:    model.AuthorID,
		Priority:    model.Priority,
		Type:        model.Type,
		Active:      model.Active,
		Published:   model.Published,
		PublishDate: model.PublishDate,
		ExpiryDate:  model.ExpiryDate,
		Expired:     model.IsExpired(now),
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}
