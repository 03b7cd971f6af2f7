package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/auth"
	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/policy"
	"github.com/noah-isme/edutrack-api/internal/repository"
	"github.com/noah-isme/edutrack-api/internal/rules"
)

// AuthService registers users and exchanges credentials for tokens.
type AuthService interface {
	Signup(ctx context.Context, req dto.SignupRequest) (dto.AuthResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error)
	Me(ctx context.Context, id policy.Identity) (dto.ProfileResponse, error)
	CreateUser(ctx context.Context, name, email, password string, role policy.Role) (models.User, error)
}

type authService struct {
	users     repository.UserRepository
	issuer    *auth.Issuer
	validator *validator.Validate
	hooks     Hooks
	logger    zerolog.Logger
	cost      int
}

// NewAuthService constructs the auth service.
func NewAuthService(users repository.UserRepository, issuer *auth.Issuer, validate *validator.Validate, hooks Hooks, logger zerolog.Logger) AuthService {
	return &authService{
		users:     users,
		issuer:    issuer,
		validator: validate,
		hooks:     hooks,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		cost:      bcrypt.DefaultCost,
	}
}

func (s *authService) Signup(ctx context.Context, req dto.SignupRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}

	role, ok := policy.ParseRole(req.Role)
	if !ok || role == policy.RoleAdmin {
		return dto.AuthResponse{}, rules.Invalid("role", "role must be student or teacher")
	}

	user, err := s.CreateUser(ctx, req.Name, req.Email, req.Password, role)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.AuthResponse{}, ErrInvalidCredentials
	}
	if err != nil {
		return dto.AuthResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return dto.AuthResponse{}, ErrInvalidCredentials
	}
	if !user.Active {
		return dto.AuthResponse{}, ErrAccountInactive
	}

	return s.issue(user)
}

func (s *authService) Me(ctx context.Context, id policy.Identity) (dto.ProfileResponse, error) {
	if !id.Authenticated() {
		return dto.ProfileResponse{}, policy.ErrUnauthenticated
	}

	user, err := s.users.GetByID(ctx, id.ID)
	if err != nil {
		return dto.ProfileResponse{}, lookupError(err, "user", id.ID)
	}

	return dto.ProfileResponse{
		UserResponse:      dto.NewUserResponse(user),
		EnrolledCourseIDs: nonNilIDs(id.EnrolledCourseIDs),
		TeachingCourseIDs: nonNilIDs(id.TeachingCourseIDs),
	}, nil
}

// CreateUser hashes the password and stores an active account with the given role.
func (s *authService) CreateUser(ctx context.Context, name, email, password string, role policy.Role) (models.User, error) {
	if len(password) < 8 {
		return models.User{}, rules.Invalid("password", "password must be at least 8 characters")
	}
	if err := s.validator.Var(email, "required,email"); err != nil {
		return models.User{}, rules.Invalid("email", "email is invalid")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         string(role),
		Active:       true,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return models.User{}, duplicateError(err, rules.RuleDuplicate, "email is already registered")
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("user registered")
	s.hooks.record(ctx, s.logger, policy.Identity{ID: user.ID, Role: role}, "user.signup", "user", user.ID, map[string]interface{}{"role": user.Role})
	return user, nil
}

func (s *authService) issue(user models.User) (dto.AuthResponse, error) {
	token, expires, err := s.issuer.Issue(user.ID, user.PolicyRole())
	if err != nil {
		return dto.AuthResponse{}, err
	}
	return dto.AuthResponse{Token: token, ExpiresAt: expires, User: dto.NewUserResponse(user)}, nil
}

func nonNilIDs(ids []uint) []uint {
	if ids == nil {
		return []uint{}
	}
	return ids
}
