package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/policy"
	"github.com/noah-isme/edutrack-api/internal/repository"
)

// IdentityResolver loads the policy identity for an authenticated user id.
type IdentityResolver interface {
	Resolve(ctx context.Context, userID uint) (policy.Identity, error)
}

type identityResolver struct {
	users repository.UserRepository
}

// NewIdentityResolver constructs the resolver backed by the user store.
func NewIdentityResolver(users repository.UserRepository) IdentityResolver {
	return &identityResolver{users: users}
}

// Resolve fails closed: unknown, inactive or role-less users are unauthenticated.
func (r *identityResolver) Resolve(ctx context.Context, userID uint) (policy.Identity, error) {
	if userID == 0 {
		return policy.Identity{}, policy.ErrUnauthenticated
	}

	user, err := r.users.GetByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return policy.Identity{}, policy.ErrUnauthenticated
	}
	if err != nil {
		return policy.Identity{}, fmt.Errorf("load user %d: %w", userID, err)
	}

	role, ok := policy.ParseRole(user.Role)
	if !ok || !user.Active {
		return policy.Identity{}, policy.ErrUnauthenticated
	}

	identity := policy.Identity{
		ID:                user.ID,
		Name:              user.Name,
		Email:             user.Email,
		Role:              role,
		Active:            user.Active,
		CurrentSemesterID: user.CurrentSemesterID,
	}
	if role == policy.RoleAdmin {
		return identity, nil
	}

	rel, err := r.users.Relations(ctx, user.ID)
	if err != nil {
		return policy.Identity{}, fmt.Errorf("load relations for user %d: %w", userID, err)
	}

	switch role {
	case policy.RoleStudent:
		identity.EnrolledCourseIDs = rel.EnrolledCourseIDs
		identity.EnrolledSemesterIDs = rel.EnrolledSemesterIDs
	case policy.RoleTeacher:
		identity.TeachingCourseIDs = rel.TeachingCourseIDs
		identity.TeachingSemesterIDs = rel.TeachingSemesterIDs
	}
	return identity, nil
}
