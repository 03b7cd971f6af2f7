package models

import "time"

// FileRef describes a stored file. Content is never inspected.
type FileRef struct {
	URL      string `gorm:"size:512" json:"url"`
	Name     string `gorm:"size:255" json:"name"`
	Size     int64  `json:"size"`
	MimeType string `gorm:"size:128" json:"mime_type"`
}

// Submission is a student's single hand-in for an assignment.
type Submission struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	AssignmentID uint       `gorm:"not null;uniqueIndex:idx_submission_assignment_student" json:"assignment_id"`
	StudentID    uint       `gorm:"not null;uniqueIndex:idx_submission_assignment_student;index" json:"student_id"`
	File         FileRef    `gorm:"embedded;embeddedPrefix:file_" json:"file"`
	SubmittedAt  time.Time  `gorm:"not null" json:"submitted_at"`
	Grade        *float64   `json:"grade"`
	Feedback     string     `gorm:"type:text" json:"feedback"`
	GradedAt     *time.Time `json:"graded_at"`
	GradedBy     *uint      `json:"graded_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsGraded reports whether the submission has a grade.
func (s Submission) IsGraded() bool {
	return s.Grade != nil
}
