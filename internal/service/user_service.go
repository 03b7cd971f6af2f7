package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/policy"
	"github.com/noah-isme/edutrack-api/internal/repository"
	"github.com/noah-isme/edutrack-api/internal/rules"
)

// UserService covers admin account administration.
type UserService interface {
	Update(ctx context.Context, id policy.Identity, userID uint, req dto.UserAdminUpdateRequest) (dto.UserResponse, error)
}

type userService struct {
	users     repository.UserRepository
	semesters repository.SemesterRepository
	validator *validator.Validate
	hooks     Hooks
	logger    zerolog.Logger
}

// NewUserService constructs the admin user service.
func NewUserService(users repository.UserRepository, semesters repository.SemesterRepository, validate *validator.Validate, hooks Hooks, logger zerolog.Logger) UserService {
	return &userService{
		users:     users,
		semesters: semesters,
		validator: validate,
		hooks:     hooks,
		logger:    logger.With().Str("component", "user_service").Logger(),
	}
}

// Update applies status and semester changes. The semester override ignores
// the student's one-time selection.
func (s *userService) Update(ctx context.Context, id policy.Identity, userID uint, req dto.UserAdminUpdateRequest) (dto.UserResponse, error) {
	if err := policy.Authorize(id, policy.KindUser, policy.ActionUpdate, nil); err != nil {
		return dto.UserResponse{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.UserResponse{}, err
	}
	if req.ClearSemester && req.CurrentSemesterID != nil {
		return dto.UserResponse{}, rules.Invalid("current_semester_id", "cannot set and clear the current semester together")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return dto.UserResponse{}, lookupError(err, "user", userID)
	}

	metadata := map[string]interface{}{}
	if req.CurrentSemesterID != nil || req.ClearSemester {
		if user.PolicyRole() != policy.RoleStudent {
			return dto.UserResponse{}, rules.Invalid("current_semester_id", "only students carry a current semester")
		}
		if req.CurrentSemesterID != nil {
			semester, err := s.semesters.GetByID(ctx, *req.CurrentSemesterID)
			if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !semester.Active) {
				return dto.UserResponse{}, rules.Invalid("current_semester_id", "semester %d does not exist", *req.CurrentSemesterID)
			}
			if err != nil {
				return dto.UserResponse{}, err
			}
		}
	}
	if req.Active != nil && !*req.Active && user.ID == id.ID {
		return dto.UserResponse{}, rules.Invalid("active", "admins cannot deactivate their own account")
	}

	if req.CurrentSemesterID != nil || req.ClearSemester {
		if err := s.users.SetCurrentSemester(ctx, user.ID, req.CurrentSemesterID); err != nil {
			return dto.UserResponse{}, lookupError(err, "user", userID)
		}
		metadata["current_semester_id"] = req.CurrentSemesterID
	}
	if req.Active != nil && *req.Active != user.Active {
		if err := s.users.SetActive(ctx, user.ID, *req.Active); err != nil {
			return dto.UserResponse{}, lookupError(err, "user", userID)
		}
		metadata["active"] = *req.Active
		s.logger.Info().Uint("user_id", user.ID).Bool("active", *req.Active).Msg("account status changed")
	}

	updated, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return dto.UserResponse{}, lookupError(err, "user", userID)
	}

	if len(metadata) > 0 {
		s.hooks.record(ctx, s.logger, id, "user.updated", policy.KindUser, user.ID, metadata)
	}
	return dto.NewUserResponse(updated), nil
}
