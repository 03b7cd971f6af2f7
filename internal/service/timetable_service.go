package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/events"
	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/policy"
	"github.com/noah-isme/edutrack-api/internal/repository"
	"github.com/noah-isme/edutrack-api/internal/rules"
)

// TimetableService manages the weekly timetable.
type TimetableService interface {
	List(ctx context.Context, id policy.Identity, req dto.TimetableListRequest) (dto.ListResponse[dto.TimetableResponse], error)
	Get(ctx context.Context, id policy.Identity, entryID uint) (dto.TimetableResponse, error)
	Create(ctx context.Context, id policy.Identity, req dto.TimetableCreateRequest) (dto.TimetableResponse, error)
	Update(ctx context.Context, id policy.Identity, entryID uint, req dto.TimetableUpdateRequest) (dto.TimetableResponse, error)
	Delete(ctx context.Context, id policy.Identity, entryID uint) error
}

type timetableService struct {
	repo      repository.TimetableRepository
	courses   repository.CourseRepository
	validator *validator.Validate
	hooks     Hooks
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewTimetableService constructs the timetable service.
func NewTimetableService(repo repository.TimetableRepository, courses repository.CourseRepository, validate *validator.Validate, hooks Hooks, logger zerolog.Logger) TimetableService {
	return &timetableService{
		repo:      repo,
		courses:   courses,
		validator: validate,
		hooks:     hooks,
		logger:    logger.With().Str("component", "timetable_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/edutrack-api/internal/service/timetable"),
	}
}

func (s *timetableService) List(ctx context.Context, id policy.Identity, req dto.TimetableListRequest) (dto.ListResponse[dto.TimetableResponse], error) {
	scope, err := policy.Visibility(policy.KindTimetable, id, s.hooks.Clock.now())
	if err != nil {
		return dto.ListResponse[dto.TimetableResponse]{}, err
	}

	filter := repository.TimetableFilter{
		Page:     pageOf(req.Page, req.PageSize),
		CourseID: req.CourseID,
	}
	if strings.TrimSpace(req.Day) != "" {
		day, ok := rules.NormalizeDay(req.Day)
		if !ok {
			return dto.ListResponse[dto.TimetableResponse]{}, rules.Invalid("day", "unknown day %q", req.Day)
		}
		filter.Day = day
	}

	items, total, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return dto.ListResponse[dto.TimetableResponse]{}, err
	}

	responses := make([]dto.TimetableResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, dto.NewTimetableResponse(item))
	}
	return dto.ListResponse[dto.TimetableResponse]{
		Items:      responses,
		Pagination: dto.NewPaginationMeta(filter.Page.Page, filter.PageSize, total),
	}, nil
}

func (s *timetableService) Get(ctx context.Context, id policy.Identity, entryID uint) (dto.TimetableResponse, error) {
	entry, err := s.visible(ctx, id, entryID)
	if err != nil {
		return dto.TimetableResponse{}, err
	}
	return dto.NewTimetableResponse(entry), nil
}

func (s *timetableService) Create(ctx context.Context, id policy.Identity, req dto.TimetableCreateRequest) (dto.TimetableResponse, error) {
	if err := policy.Authorize(id, policy.KindTimetable, policy.ActionCreate, nil); err != nil {
		return dto.TimetableResponse{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.TimetableResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TimetableResponse{}, rules.Invalid("course_id", "course %d does not exist", req.CourseID)
		}
		return dto.TimetableResponse{}, err
	}

	teacherID := req.TeacherID
	switch {
	case id.Is(policy.RoleTeacher):
		teacherID = id.ID
	case teacherID == 0:
		teacherID = course.OwnerID()
	}

	slot, err := rules.NewSlot(0, req.Day, req.StartTime, req.EndTime, course.ID, teacherID, req.Room, true)
	if err != nil {
		return dto.TimetableResponse{}, err
	}
	if err := s.checkOverlap(ctx, slot); err != nil {
		return dto.TimetableResponse{}, err
	}

	entry := models.TimetableEntry{
		Day:       slot.Day,
		StartTime: slot.Start.String(),
		EndTime:   slot.End.String(),
		CourseID:  slot.CourseID,
		TeacherID: slot.TeacherID,
		Room:      slot.Room,
		Type:      defaultString(req.Type, models.SessionLecture),
		Active:    true,
	}
	if err := s.repo.Create(ctx, &entry); err != nil {
		return dto.TimetableResponse{}, err
	}

	s.changed(ctx, id, "timetable.created", entry)
	return dto.NewTimetableResponse(entry), nil
}

func (s *timetableService) Update(ctx context.Context, id policy.Identity, entryID uint, req dto.TimetableUpdateRequest) (dto.TimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.TimetableResponse{}, err
	}

	entry, err := s.visible(ctx, id, entryID)
	if err != nil {
		return dto.TimetableResponse{}, err
	}
	if err := policy.Authorize(id, policy.KindTimetable, policy.ActionUpdate, entry); err != nil {
		return dto.TimetableResponse{}, err
	}

	if req.Day != nil {
		entry.Day = *req.Day
	}
	if req.StartTime != nil {
		entry.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		entry.EndTime = *req.EndTime
	}
	if req.TeacherID != nil {
		entry.TeacherID = *req.TeacherID
	}
	if req.Room != nil {
		entry.Room = *req.Room
	}
	if req.Type != nil {
		entry.Type = *req.Type
	}
	if req.Active != nil {
		entry.Active = *req.Active
	}

	slot, err := entry.Slot()
	if err != nil {
		return dto.TimetableResponse{}, err
	}
	if err := s.checkOverlap(ctx, slot); err != nil {
		return dto.TimetableResponse{}, err
	}
	entry.Day = slot.Day
	entry.StartTime = slot.Start.String()
	entry.EndTime = slot.End.String()
	entry.Room = slot.Room

	if err := s.repo.Update(ctx, &entry); err != nil {
		return dto.TimetableResponse{}, err
	}

	s.changed(ctx, id, "timetable.updated", entry)
	return dto.NewTimetableResponse(entry), nil
}

func (s *timetableService) Delete(ctx context.Context, id policy.Identity, entryID uint) error {
	if err := policy.Authorize(id, policy.KindTimetable, policy.ActionDelete, nil); err != nil {
		return err
	}
	entry, err := s.visible(ctx, id, entryID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, entry.ID); err != nil {
		return lookupError(err, "timetable entry", entryID)
	}
	entry.Active = false
	s.changed(ctx, id, "timetable.deleted", entry)
	return nil
}

// checkOverlap loads the active entries of the candidate's day and applies the
// overlap rule. The read and the later write are not atomic.
func (s *timetableService) checkOverlap(ctx context.Context, candidate rules.Slot) error {
	ctx, span := s.tracer.Start(ctx, "timetable.check_overlap")
	defer span.End()
	span.SetAttributes(
		attribute.String("timetable.day", candidate.Day),
		attribute.Int("timetable.entry_id", int(candidate.ID)),
	)

	existing, err := s.repo.ListActiveOnDay(ctx, candidate.Day)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return err
	}

	slots := make([]rules.Slot, 0, len(existing))
	for _, entry := range existing {
		slot, err := entry.Slot()
		if err != nil {
			s.logger.Warn().Err(err).Uint("entry_id", entry.ID).Msg("skipping malformed timetable entry")
			continue
		}
		slots = append(slots, slot)
	}

	if err := rules.CheckTimetableOverlap(candidate, slots); err != nil {
		span.SetStatus(codes.Error, "overlap")
		return err
	}
	span.SetStatus(codes.Ok, "clear")
	return nil
}

func (s *timetableService) changed(ctx context.Context, id policy.Identity, action string, entry models.TimetableEntry) {
	s.hooks.record(ctx, s.logger, id, action, policy.KindTimetable, entry.ID, map[string]interface{}{
		"day":       entry.Day,
		"course_id": entry.CourseID,
	})
	s.hooks.publish(ctx, s.logger, events.Event{
		Topic:    events.TimetableChanged,
		ActorID:  id.ID,
		EntityID: entry.ID,
		Payload: map[string]interface{}{
			"action":     action,
			"day":        entry.Day,
			"start_time": entry.StartTime,
			"end_time":   entry.EndTime,
			"course_id":  entry.CourseID,
			"room":       entry.Room,
		},
	})
}

func (s *timetableService) visible(ctx context.Context, id policy.Identity, entryID uint) (models.TimetableEntry, error) {
	scope, err := policy.Visibility(policy.KindTimetable, id, s.hooks.Clock.now())
	if err != nil {
		return models.TimetableEntry{}, err
	}
	entry, err := s.repo.FindVisible(ctx, scope, entryID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.TimetableEntry{}, notFound("timetable entry", entryID)
	}
	return entry, err
}
