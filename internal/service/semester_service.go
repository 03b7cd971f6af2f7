package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/events"
	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/policy"
	"github.com/noah-isme/edutrack-api/internal/repository"
	"github.com/noah-isme/edutrack-api/internal/rules"
)

// SemesterService manages the numbered academic terms.
type SemesterService interface {
	List(ctx context.Context, id policy.Identity, req dto.ListRequest) (dto.ListResponse[dto.SemesterResponse], error)
	Get(ctx context.Context, id policy.Identity, semesterID uint) (dto.SemesterResponse, error)
	Current(ctx context.Context, id policy.Identity) (dto.SemesterResponse, error)
	Create(ctx context.Context, id policy.Identity, req dto.SemesterCreateRequest) (dto.SemesterResponse, error)
	Update(ctx context.Context, id policy.Identity, semesterID uint, req dto.SemesterUpdateRequest) (dto.SemesterResponse, error)
	Delete(ctx context.Context, id policy.Identity, semesterID uint) error
	SetCurrent(ctx context.Context, id policy.Identity, semesterID uint) (dto.SemesterResponse, error)
	Select(ctx context.Context, id policy.Identity, req dto.SemesterSelectRequest) (dto.UserResponse, error)
}

type semesterService struct {
	repo      repository.SemesterRepository
	users     repository.UserRepository
	validator *validator.Validate
	hooks     Hooks
	logger    zerolog.Logger
}

// NewSemesterService constructs the semester service.
func NewSemesterService(repo repository.SemesterRepository, users repository.UserRepository, validate *validator.Validate, hooks Hooks, logger zerolog.Logger) SemesterService {
	return &semesterService{
		repo:      repo,
		users:     users,
		validator: validate,
		hooks:     hooks,
		logger:    logger.With().Str("component", "semester_service").Logger(),
	}
}

func (s *semesterService) List(ctx context.Context, id policy.Identity, req dto.ListRequest) (dto.ListResponse[dto.SemesterResponse], error) {
	scope, err := policy.Visibility(policy.KindSemester, id, s.hooks.Clock.now())
	if err != nil {
		return dto.ListResponse[dto.SemesterResponse]{}, err
	}

	page := pageOf(req.Page, req.PageSize)
	items, total, err := s.repo.List(ctx, scope, page)
	if err != nil {
		return dto.ListResponse[dto.SemesterResponse]{}, err
	}

	responses := make([]dto.SemesterResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, dto.NewSemesterResponse(item))
	}
	return dto.ListResponse[dto.SemesterResponse]{
		Items:      responses,
		Pagination: dto.NewPaginationMeta(page.Page, page.PageSize, total),
	}, nil
}

func (s *semesterService) Get(ctx context.Context, id policy.Identity, semesterID uint) (dto.SemesterResponse, error) {
	semester, err := s.visible(ctx, id, semesterID)
	if err != nil {
		return dto.SemesterResponse{}, err
	}
	return dto.NewSemesterResponse(semester), nil
}

func (s *semesterService) Current(ctx context.Context, id policy.Identity) (dto.SemesterResponse, error) {
	if !id.Authenticated() {
		return dto.SemesterResponse{}, policy.ErrUnauthenticated
	}
	semester, err := s.repo.Current(ctx)
	if err != nil {
		return dto.SemesterResponse{}, lookupError(err, "current semester", 0)
	}
	return dto.NewSemesterResponse(semester), nil
}

func (s *semesterService) Create(ctx context.Context, id policy.Identity, req dto.SemesterCreateRequest) (dto.SemesterResponse, error) {
	if err := policy.Authorize(id, policy.KindSemester, policy.ActionCreate, nil); err != nil {
		return dto.SemesterResponse{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.SemesterResponse{}, err
	}

	taken, err := s.repo.NumbersTaken(ctx)
	if err != nil {
		return dto.SemesterResponse{}, err
	}
	if err := rules.CheckSemesterNumber(req.Number, 0, taken); err != nil {
		return dto.SemesterResponse{}, err
	}

	semester := models.Semester{
		Number:       req.Number,
		Name:         strings.TrimSpace(req.Name),
		AcademicYear: strings.TrimSpace(req.AcademicYear),
		Active:       true,
	}
	if err := s.repo.Create(ctx, &semester); err != nil {
		return dto.SemesterResponse{}, duplicateError(err, rules.RuleSemesterNumber, fmt.Sprintf("semester number %d already exists", req.Number))
	}

	s.hooks.record(ctx, s.logger, id, "semester.created", policy.KindSemester, semester.ID, map[string]interface{}{"number": semester.Number})
	return dto.NewSemesterResponse(semester), nil
}

func (s *semesterService) Update(ctx context.Context, id policy.Identity, semesterID uint, req dto.SemesterUpdateRequest) (dto.SemesterResponse, error) {
	if err := policy.Authorize(id, policy.KindSemester, policy.ActionUpdate, nil); err != nil {
		return dto.SemesterResponse{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.SemesterResponse{}, err
	}

	semester, err := s.repo.GetByID(ctx, semesterID)
	if err != nil {
		return dto.SemesterResponse{}, lookupError(err, "semester", semesterID)
	}

	if req.Number != nil && *req.Number != semester.Number {
		taken, err := s.repo.NumbersTaken(ctx)
		if err != nil {
			return dto.SemesterResponse{}, err
		}
		if err := rules.CheckSemesterNumber(*req.Number, semester.ID, taken); err != nil {
			return dto.SemesterResponse{}, err
		}
		semester.Number = *req.Number
	}
	if req.Name != nil {
		semester.Name = strings.TrimSpace(*req.Name)
	}
	if req.AcademicYear != nil {
		semester.AcademicYear = strings.TrimSpace(*req.AcademicYear)
	}
	if req.Active != nil {
		semester.Active = *req.Active
		if !semester.Active {
			semester.IsCurrent = false
		}
	}

	if err := s.repo.Update(ctx, &semester); err != nil {
		return dto.SemesterResponse{}, duplicateError(err, rules.RuleSemesterNumber, fmt.Sprintf("semester number %d already exists", semester.Number))
	}

	s.hooks.record(ctx, s.logger, id, "semester.updated", policy.KindSemester, semester.ID, nil)
	return dto.NewSemesterResponse(semester), nil
}

func (s *semesterService) Delete(ctx context.Context, id policy.Identity, semesterID uint) error {
	if err := policy.Authorize(id, policy.KindSemester, policy.ActionDelete, nil); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, semesterID); err != nil {
		return lookupError(err, "semester", semesterID)
	}
	s.hooks.record(ctx, s.logger, id, "semester.deactivated", policy.KindSemester, semesterID, nil)
	return nil
}

// SetCurrent makes the semester the only current one. Inactive semesters cannot become current.
func (s *semesterService) SetCurrent(ctx context.Context, id policy.Identity, semesterID uint) (dto.SemesterResponse, error) {
	if err := policy.Authorize(id, policy.KindSemester, policy.ActionSetCurrent, nil); err != nil {
		return dto.SemesterResponse{}, err
	}

	semester, err := s.repo.GetByID(ctx, semesterID)
	if err != nil {
		return dto.SemesterResponse{}, lookupError(err, "semester", semesterID)
	}
	if !semester.Active {
		return dto.SemesterResponse{}, rules.Invalid("semester_id", "inactive semester %d cannot become current", semesterID)
	}

	if err := s.repo.SetCurrent(ctx, semesterID); err != nil {
		return dto.SemesterResponse{}, lookupError(err, "semester", semesterID)
	}
	semester.IsCurrent = true

	s.logger.Info().Uint("semester_id", semesterID).Msg("current semester changed")
	s.hooks.record(ctx, s.logger, id, "semester.set_current", policy.KindSemester, semesterID, map[string]interface{}{"number": semester.Number})
	s.hooks.publish(ctx, s.logger, events.Event{
		Topic:    events.SemesterCurrent,
		ActorID:  id.ID,
		EntityID: semesterID,
		Payload:  map[string]interface{}{"number": semester.Number},
	})
	return dto.NewSemesterResponse(semester), nil
}

// Select records a student's semester choice. The choice is made once.
func (s *semesterService) Select(ctx context.Context, id policy.Identity, req dto.SemesterSelectRequest) (dto.UserResponse, error) {
	if err := policy.Authorize(id, policy.KindSemester, policy.ActionSelect, nil); err != nil {
		return dto.UserResponse{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.UserResponse{}, err
	}
	if id.CurrentSemesterID != nil {
		return dto.UserResponse{}, rules.Conflict(rules.RuleSemesterSelected, "semester %d is already selected", *id.CurrentSemesterID)
	}

	if _, err := s.visible(ctx, id, req.SemesterID); err != nil {
		return dto.UserResponse{}, err
	}

	updated, err := s.users.SelectSemester(ctx, id.ID, req.SemesterID)
	if err != nil {
		return dto.UserResponse{}, err
	}
	if !updated {
		return dto.UserResponse{}, rules.Conflict(rules.RuleSemesterSelected, "a semester is already selected")
	}

	user, err := s.users.GetByID(ctx, id.ID)
	if err != nil {
		return dto.UserResponse{}, lookupError(err, "user", id.ID)
	}

	s.hooks.record(ctx, s.logger, id, "semester.selected", policy.KindSemester, req.SemesterID, nil)
	return dto.NewUserResponse(user), nil
}

func (s *semesterService) visible(ctx context.Context, id policy.Identity, semesterID uint) (models.Semester, error) {
	scope, err := policy.Visibility(policy.KindSemester, id, s.hooks.Clock.now())
	if err != nil {
		return models.Semester{}, err
	}
	semester, err := s.repo.FindVisible(ctx, scope, semesterID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Semester{}, notFound("semester", semesterID)
	}
	return semester, err
}
