package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
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

// AssignmentService handles coursework, submissions and grading.
type AssignmentService interface {
	List(ctx context.Context, id policy.Identity, req dto.AssignmentListRequest) (dto.ListResponse[dto.AssignmentResponse], error)
	Get(ctx context.Context, id policy.Identity, assignmentID uint) (dto.AssignmentResponse, error)
	Create(ctx context.Context, id policy.Identity, req dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	Update(ctx context.Context, id policy.Identity, assignmentID uint, req dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, id policy.Identity, assignmentID uint) error
	Submit(ctx context.Context, id policy.Identity, assignmentID uint, file *multipart.FileHeader) (dto.SubmissionResponse, error)
	ListSubmissions(ctx context.Context, id policy.Identity, assignmentID uint) ([]dto.SubmissionResponse, error)
	Grade(ctx context.Context, id policy.Identity, assignmentID, studentID uint, req dto.SubmissionGradeRequest) (dto.SubmissionResponse, error)
}

type assignmentService struct {
	repo        repository.AssignmentRepository
	submissions repository.SubmissionRepository
	courses     repository.CourseRepository
	uploader    FileUploader
	validator   *validator.Validate
	hooks       Hooks
	logger      zerolog.Logger
}

// NewAssignmentService constructs the assignment service.
func NewAssignmentService(
	repo repository.AssignmentRepository,
	submissions repository.SubmissionRepository,
	courses repository.CourseRepository,
	uploader FileUploader,
	validate *validator.Validate,
	hooks Hooks,
	logger zerolog.Logger,
) AssignmentService {
	return &assignmentService{
		repo:        repo,
		submissions: submissions,
		courses:     courses,
		uploader:    uploader,
		validator:   validate,
		hooks:       hooks,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
	}
}

func (s *assignmentService) List(ctx context.Context, id policy.Identity, req dto.AssignmentListRequest) (dto.ListResponse[dto.AssignmentResponse], error) {
	now := s.hooks.Clock.now()
	scope, err := policy.Visibility(policy.KindAssignment, id, now)
	if err != nil {
		return dto.ListResponse[dto.AssignmentResponse]{}, err
	}

	filter := repository.AssignmentFilter{
		Page:     pageOf(req.Page, req.PageSize),
		Search:   strings.TrimSpace(req.Search),
		Sort:     req.Sort,
		CourseID: req.CourseID,
	}
	items, total, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return dto.ListResponse[dto.AssignmentResponse]{}, err
	}

	responses := make([]dto.AssignmentResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, dto.NewAssignmentResponse(item, now))
	}
	return dto.ListResponse[dto.AssignmentResponse]{
		Items:      responses,
		Pagination: dto.NewPaginationMeta(filter.Page.Page, filter.PageSize, total),
	}, nil
}

func (s *assignmentService) Get(ctx context.Context, id policy.Identity, assignmentID uint) (dto.AssignmentResponse, error) {
	assignment, err := s.visible(ctx, id, assignmentID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}
	return dto.NewAssignmentResponse(assignment, s.hooks.Clock.now()), nil
}

func (s *assignmentService) Create(ctx context.Context, id policy.Identity, req dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	if err := policy.Authorize(id, policy.KindAssignment, policy.ActionCreate, nil); err != nil {
		return dto.AssignmentResponse{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.AssignmentResponse{}, err
	}

	dueDate, err := dto.ParseDueDate(req.DueDate)
	if err != nil {
		return dto.AssignmentResponse{}, rules.Invalid("due_date", "due date must be RFC3339")
	}

	course, err := s.courses.GetByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, rules.Invalid("course_id", "course %d does not exist", req.CourseID)
		}
		return dto.AssignmentResponse{}, err
	}

	teacherID := id.ID
	if id.Is(policy.RoleAdmin) && course.OwnerID() != 0 {
		teacherID = course.OwnerID()
	}

	assignment := models.Assignment{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		CourseID:    course.ID,
		SemesterID:  course.SemesterID,
		TeacherID:   teacherID,
		DueDate:     dueDate.UTC(),
		MaxPoints:   req.MaxPoints,
		Active:      true,
	}
	if err := s.repo.Create(ctx, &assignment); err != nil {
		s.logger.Error().Err(err).Msg("failed to create assignment")
		return dto.AssignmentResponse{}, err
	}

	s.hooks.record(ctx, s.logger, id, "assignment.created", policy.KindAssignment, assignment.ID, map[string]interface{}{"course_id": course.ID})
	return dto.NewAssignmentResponse(assignment, s.hooks.Clock.now()), nil
}

func (s *assignmentService) Update(ctx context.Context, id policy.Identity, assignmentID uint, req dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.visible(ctx, id, assignmentID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}
	if err := policy.Authorize(id, policy.KindAssignment, policy.ActionUpdate, assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	if req.Title != nil {
		assignment.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		assignment.Description = strings.TrimSpace(*req.Description)
	}
	if req.DueDate != nil {
		due, err := dto.ParseDueDate(*req.DueDate)
		if err != nil {
			return dto.AssignmentResponse{}, rules.Invalid("due_date", "due date must be RFC3339")
		}
		assignment.DueDate = due.UTC()
	}
	if req.MaxPoints != nil && *req.MaxPoints != assignment.MaxPoints {
		highest, err := s.submissions.MaxGrade(ctx, assignment.ID)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
		if err := rules.CheckMaxPoints(*req.MaxPoints, highest); err != nil {
			return dto.AssignmentResponse{}, err
		}
		assignment.MaxPoints = *req.MaxPoints
	}
	if req.Active != nil {
		assignment.Active = *req.Active
	}

	if err := s.repo.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.hooks.record(ctx, s.logger, id, "assignment.updated", policy.KindAssignment, assignment.ID, nil)
	return dto.NewAssignmentResponse(assignment, s.hooks.Clock.now()), nil
}

func (s *assignmentService) Delete(ctx context.Context, id policy.Identity, assignmentID uint) error {
	assignment, err := s.visible(ctx, id, assignmentID)
	if err != nil {
		return err
	}
	if err := policy.Authorize(id, policy.KindAssignment, policy.ActionDelete, assignment); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, assignment.ID); err != nil {
		return lookupError(err, "assignment", assignmentID)
	}
	s.hooks.record(ctx, s.logger, id, "assignment.deactivated", policy.KindAssignment, assignment.ID, nil)
	return nil
}

// Submit stores a student's single hand-in. Late submissions are accepted and flagged in the audit trail.
func (s *assignmentService) Submit(ctx context.Context, id policy.Identity, assignmentID uint, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	if err := policy.Authorize(id, policy.KindAssignment, policy.ActionSubmit, nil); err != nil {
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.visible(ctx, id, assignmentID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	submitted, err := s.submissions.SubmittedStudents(ctx, assignment.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if err := rules.CheckSingleSubmission(id.ID, submitted); err != nil {
		return dto.SubmissionResponse{}, err
	}

	ref, err := s.uploader.Store(ctx, FolderSubmissions, file)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	now := s.hooks.Clock.now()
	submission := models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    id.ID,
		File:         ref,
		SubmittedAt:  now,
	}
	if err := s.submissions.Create(ctx, &submission); err != nil {
		// The unique index caught a concurrent hand-in after the upload.
		var conflict *rules.ConflictError
		if errors.As(err, &conflict) {
			s.logger.Warn().
				Uint("assignment_id", assignment.ID).
				Uint("student_id", id.ID).
				Str("file_url", ref.URL).
				Msg("orphaned upload after duplicate submission")
		}
		return dto.SubmissionResponse{}, err
	}

	late := assignment.IsPastDue(now)
	s.logger.Info().Uint("assignment_id", assignment.ID).Uint("student_id", id.ID).Bool("late", late).Msg("submission received")
	s.hooks.record(ctx, s.logger, id, "submission.created", policy.KindAssignment, assignment.ID, map[string]interface{}{"late": late})
	return dto.NewSubmissionResponse(submission), nil
}

// ListSubmissions is open to every teacher and admin regardless of ownership.
func (s *assignmentService) ListSubmissions(ctx context.Context, id policy.Identity, assignmentID uint) ([]dto.SubmissionResponse, error) {
	if err := policy.Authorize(id, policy.KindAssignment, policy.ActionListSubmissions, nil); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(ctx, assignmentID); err != nil {
		return nil, lookupError(err, "assignment", assignmentID)
	}

	items, err := s.submissions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	responses := make([]dto.SubmissionResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, dto.NewSubmissionResponse(item))
	}
	return responses, nil
}

// Grade lets any teacher grade a submission; the score is bounded by the assignment's max points.
func (s *assignmentService) Grade(ctx context.Context, id policy.Identity, assignmentID, studentID uint, req dto.SubmissionGradeRequest) (dto.SubmissionResponse, error) {
	if err := policy.Authorize(id, policy.KindAssignment, policy.ActionGrade, nil); err != nil {
		return dto.SubmissionResponse{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.repo.GetByID(ctx, assignmentID)
	if err != nil {
		return dto.SubmissionResponse{}, lookupError(err, "assignment", assignmentID)
	}
	if err := rules.CheckGradeRange(*req.Grade, assignment.MaxPoints); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByAssignmentAndStudent(ctx, assignmentID, studentID)
	if err != nil {
		return dto.SubmissionResponse{}, lookupError(err, "submission", studentID)
	}

	now := s.hooks.Clock.now()
	feedback := strings.TrimSpace(req.Feedback)
	if err := s.submissions.Grade(ctx, submission.ID, *req.Grade, feedback, id.ID, now); err != nil {
		return dto.SubmissionResponse{}, lookupError(err, "submission", submission.ID)
	}

	grade := *req.Grade
	grader := id.ID
	submission.Grade = &grade
	submission.Feedback = feedback
	submission.GradedAt = &now
	submission.GradedBy = &grader

	s.hooks.record(ctx, s.logger, id, "submission.graded", policy.KindAssignment, assignmentID, map[string]interface{}{
		"student_id": studentID,
		"grade":      grade,
	})
	s.hooks.publish(ctx, s.logger, events.Event{
		Topic:    events.SubmissionGraded,
		ActorID:  id.ID,
		EntityID: submission.ID,
		Payload: map[string]interface{}{
			"assignment_id": assignmentID,
			"student_id":    studentID,
			"grade":         grade,
		},
	})
	return dto.NewSubmissionResponse(submission), nil
}

func (s *assignmentService) visible(ctx context.Context, id policy.Identity, assignmentID uint) (models.Assignment, error) {
	scope, err := policy.Visibility(policy.KindAssignment, id, s.hooks.Clock.now())
	if err != nil {
		return models.Assignment{}, err
	}
	assignment, err := s.repo.FindVisible(ctx, scope, assignmentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Assignment{}, notFound("assignment", assignmentID)
	}
	if err != nil {
		return models.Assignment{}, fmt.Errorf("load assignment %d: %w", assignmentID, err)
	}
	return assignment, nil
}
