package models

import (
	"time"

	"github.com/noah-isme/edutrack-api/internal/policy"
)

// Announcement priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Announcement types.
const (
	AnnouncementGeneral    = "general"
	AnnouncementAcademic   = "academic"
	AnnouncementEvent      = "event"
	AnnouncementExam       = "exam"
	AnnouncementAssignment = "assignment"
)

// Announcement is a semester-wide notice written by a teacher or admin.
type Announcement struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	SemesterID  uint       `gorm:"not null;index" json:"semester_id"`
	AuthorID    uint       `gorm:"not null;index" json:"author_id"`
	Priority    string     `gorm:"size:16;not null" json:"priority"`
	Type        string     `gorm:"size:16;not null" json:"type"`
	Active      bool       `gorm:"not null;index" json:"active"`
	Published   bool       `gorm:"not null;index" json:"published"`
	PublishDate time.Time  `gorm:"not null" json:"publish_date"`
	ExpiryDate  *time.Time `gorm:"index" json:"expiry_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsExpired reports whether the expiry date lies before now.
func (a Announcement) IsExpired(now time.Time) bool {
	return a.ExpiryDate != nil && a.ExpiryDate.Before(now)
}

// OwnerID implements policy.Owned.
func (a Announcement) OwnerID() uint { return a.AuthorID }

// ScopeValue implements policy.Record.
func (a Announcement) ScopeValue(field policy.Field) (interface{}, bool) {
	switch field {
	case policy.FieldActive:
		return a.Active, true
	case policy.FieldPublished:
		return a.Published, true
	case policy.FieldSemesterID:
		return a.SemesterID, true
	case policy.FieldAuthorID:
		return a.AuthorID, true
	case policy.FieldExpiryDate:
		return a.ExpiryDate, true
	}
	return nil, false
}

// AnnouncementRead records that a student has read an announcement.
type AnnouncementRead struct {
	AnnouncementID uint      `gorm:"primaryKey" json:"announcement_id"`
	StudentID      uint      `gorm:"primaryKey;index" json:"student_id"`
	ReadAt         time.Time `gorm:"not null" json:"read_at"`
}
