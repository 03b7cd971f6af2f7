package dto

import (
	"time"

	"github.com/noah-isme/edutrack-api/internal/models"
)

// SignupRequest registers a student or teacher account.
type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=student teacher"`
}

// LoginRequest exchanges credentials for an access token.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserAdminUpdateRequest changes a user's status or overrides a student's
// current semester. ClearSemester resets the selection so the student can pick again.
type UserAdminUpdateRequest struct {
	Active            *bool `json:"active"`
	CurrentSemesterID *uint `json:"current_semester_id" validate:"omitempty,min=1"`
	ClearSemester     bool  `json:"clear_semester"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID                uint      `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Role              string    `json:"role"`
	Active            bool      `json:"active"`
	CurrentSemesterID *uint     `json:"current_semester_id"`
	CreatedAt         time.Time `json:"created_at"`
}

// ProfileResponse adds the relational ids the caller is scoped by.
type ProfileResponse struct {
	UserResponse
	EnrolledCourseIDs []uint `json:"enrolled_course_ids"`
	TeachingCourseIDs []uint `json:"teaching_course_ids"`
}

// AuthResponse carries an issued token.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// NewUserResponse converts a model into a DTO.
func NewUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:                user.ID,
		Name:              user.Name,
		Email:             user.Email,
		Role:              user.Role,
		Active:            user.Active,
		CurrentSemesterID: user.CurrentSemesterID,
		CreatedAt:         user.CreatedAt,
	}
}
