package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/policy"
	"github.com/noah-isme/edutrack-api/internal/repository"
	"github.com/noah-isme/edutrack-api/internal/rules"
)

// CourseService manages courses, enrolments and teacher assignment.
type CourseService interface {
	List(ctx context.Context, id policy.Identity, req dto.CourseListRequest) (dto.ListResponse[dto.CourseResponse], error)
	Get(ctx context.Context, id policy.Identity, courseID uint) (dto.CourseResponse, error)
	Create(ctx context.Context, id policy.Identity, req dto.CourseCreateRequest) (dto.CourseResponse, error)
	Update(ctx context.Context, id policy.Identity, courseID uint, req dto.CourseUpdateRequest) (dto.CourseResponse, error)
	Delete(ctx context.Context, id policy.Identity, courseID uint) error
	Enroll(ctx context.Context, id policy.Identity, courseID uint) error
	AssignTeacher(ctx context.Context, id policy.Identity, courseID uint, req dto.CourseAssignTeacherRequest) (dto.CourseResponse, error)
}

type courseService struct {
	repo      repository.CourseRepository
	semesters repository.SemesterRepository
	users     repository.UserRepository
	validator *validator.Validate
	hooks     Hooks
	logger    zerolog.Logger
}

// NewCourseService constructs the course service.
func NewCourseService(repo repository.CourseRepository, semesters repository.SemesterRepository, users repository.UserRepository, validate *validator.Validate, hooks Hooks, logger zerolog.Logger) CourseService {
	return &courseService{
		repo:      repo,
		semesters: semesters,
		users:     users,
		validator: validate,
		hooks:     hooks,
		logger:    logger.With().Str("component", "course_service").Logger(),
	}
}

func (s *courseService) List(ctx context.Context, id policy.Identity, req dto.CourseListRequest) (dto.ListResponse[dto.CourseResponse], error) {
	scope, err := policy.Visibility(policy.KindCourse, id, s.hooks.Clock.now())
	if err != nil {
		return dto.ListResponse[dto.CourseResponse]{}, err
	}

	filter := repository.CourseFilter{
		Page:       pageOf(req.Page, req.PageSize),
		Search:     strings.TrimSpace(req.Search),
		SemesterID: req.SemesterID,
	}
	items, total, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return dto.ListResponse[dto.CourseResponse]{}, err
	}

	responses := make([]dto.CourseResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, dto.NewCourseResponse(item))
	}
	return dto.ListResponse[dto.CourseResponse]{
		Items:      responses,
		Pagination: dto.NewPaginationMeta(filter.Page.Page, filter.PageSize, total),
	}, nil
}

func (s *courseService) Get(ctx context.Context, id policy.Identity, courseID uint) (dto.CourseResponse, error) {
	course, err := s.visible(ctx, id, courseID)
	if err != nil {
		return dto.CourseResponse{}, err
	}
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Create(ctx context.Context, id policy.Identity, req dto.CourseCreateRequest) (dto.CourseResponse, error) {
	if err := policy.Authorize(id, policy.KindCourse, policy.ActionCreate, nil); err != nil {
		return dto.CourseResponse{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.CourseResponse{}, err
	}

	if _, err := s.semesters.GetByID(ctx, req.SemesterID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, rules.Invalid("semester_id", "semester %d does not exist", req.SemesterID)
		}
		return dto.CourseResponse{}, err
	}

	course := models.Course{
		Name:          strings.TrimSpace(req.Name),
		Code:          rules.NormalizeCourseCode(req.Code),
		Description:   strings.TrimSpace(req.Description),
		SemesterID:    req.SemesterID,
		Credits:       req.Credits,
		MaxEnrollment: req.MaxEnrollment,
		Active:        true,
	}
	if id.Is(policy.RoleTeacher) {
		teacherID := id.ID
		course.TeacherID = &teacherID
	}

	if err := s.checkCode(ctx, course); err != nil {
		return dto.CourseResponse{}, err
	}
	if err := s.repo.Create(ctx, &course); err != nil {
		return dto.CourseResponse{}, duplicateError(err, rules.RuleCourseCodeUnique, "course code already exists in this semester")
	}
	if course.TeacherID != nil {
		if err := s.repo.AssignTeacher(ctx, course.ID, *course.TeacherID); err != nil {
			return dto.CourseResponse{}, err
		}
	}

	s.hooks.record(ctx, s.logger, id, "course.created", policy.KindCourse, course.ID, map[string]interface{}{"code": course.Code})
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Update(ctx context.Context, id policy.Identity, courseID uint, req dto.CourseUpdateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.visible(ctx, id, courseID)
	if err != nil {
		return dto.CourseResponse{}, err
	}
	if err := policy.Authorize(id, policy.KindCourse, policy.ActionUpdate, course); err != nil {
		return dto.CourseResponse{}, err
	}

	keyChanged := false
	if req.Name != nil {
		course.Name = strings.TrimSpace(*req.Name)
	}
	if req.Code != nil {
		code := rules.NormalizeCourseCode(*req.Code)
		keyChanged = keyChanged || code != course.Code
		course.Code = code
	}
	if req.SemesterID != nil && *req.SemesterID != course.SemesterID {
		if _, err := s.semesters.GetByID(ctx, *req.SemesterID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.CourseResponse{}, rules.Invalid("semester_id", "semester %d does not exist", *req.SemesterID)
			}
			return dto.CourseResponse{}, err
		}
		course.SemesterID = *req.SemesterID
		keyChanged = true
	}
	if req.Description != nil {
		course.Description = strings.TrimSpace(*req.Description)
	}
	if req.Credits != nil {
		course.Credits = *req.Credits
	}
	if req.MaxEnrollment != nil {
		course.MaxEnrollment = *req.MaxEnrollment
	}
	if req.Active != nil {
		course.Active = *req.Active
	}

	if keyChanged {
		if err := s.checkCode(ctx, course); err != nil {
			return dto.CourseResponse{}, err
		}
	}
	if err := s.repo.Update(ctx, &course); err != nil {
		return dto.CourseResponse{}, duplicateError(err, rules.RuleCourseCodeUnique, "course code already exists in this semester")
	}

	s.hooks.record(ctx, s.logger, id, "course.updated", policy.KindCourse, course.ID, nil)
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Delete(ctx context.Context, id policy.Identity, courseID uint) error {
	course, err := s.visible(ctx, id, courseID)
	if err != nil {
		return err
	}
	if err := policy.Authorize(id, policy.KindCourse, policy.ActionDelete, course); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, course.ID); err != nil {
		return lookupError(err, "course", courseID)
	}
	s.hooks.record(ctx, s.logger, id, "course.deactivated", policy.KindCourse, course.ID, nil)
	return nil
}

func (s *courseService) Enroll(ctx context.Context, id policy.Identity, courseID uint) error {
	if err := policy.Authorize(id, policy.KindCourse, policy.ActionEnroll, nil); err != nil {
		return err
	}

	course, err := s.visible(ctx, id, courseID)
	if err != nil {
		return err
	}

	enrolled, err := s.repo.IsEnrolled(ctx, course.ID, id.ID)
	if err != nil {
		return err
	}
	count, err := s.repo.CountEnrolled(ctx, course.ID)
	if err != nil {
		return err
	}
	if err := rules.CheckEnrollment(enrolled, int(count), course.MaxEnrollment); err != nil {
		return err
	}

	if err := s.repo.Enroll(ctx, course.ID, id.ID); err != nil {
		return err
	}

	s.hooks.record(ctx, s.logger, id, "course.enrolled", policy.KindCourse, course.ID, nil)
	return nil
}

func (s *courseService) AssignTeacher(ctx context.Context, id policy.Identity, courseID uint, req dto.CourseAssignTeacherRequest) (dto.CourseResponse, error) {
	if err := policy.Authorize(id, policy.KindCourse, policy.ActionAssignTeacher, nil); err != nil {
		return dto.CourseResponse{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.CourseResponse{}, err
	}

	teacher, err := s.users.GetByID(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, rules.Invalid("teacher_id", "user %d does not exist", req.TeacherID)
		}
		return dto.CourseResponse{}, err
	}
	if teacher.PolicyRole() != policy.RoleTeacher || !teacher.Active {
		return dto.CourseResponse{}, rules.Invalid("teacher_id", "user %d is not an active teacher", req.TeacherID)
	}

	if err := s.repo.AssignTeacher(ctx, courseID, teacher.ID); err != nil {
		return dto.CourseResponse{}, lookupError(err, "course", courseID)
	}
	course, err := s.repo.GetByID(ctx, courseID)
	if err != nil {
		return dto.CourseResponse{}, lookupError(err, "course", courseID)
	}

	s.hooks.record(ctx, s.logger, id, "course.teacher_assigned", policy.KindCourse, course.ID, map[string]interface{}{"teacher_id": teacher.ID})
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) checkCode(ctx context.Context, course models.Course) error {
	existing, err := s.repo.KeysInSemester(ctx, course.SemesterID)
	if err != nil {
		return err
	}
	return rules.CheckCourseCodeUnique(rules.CourseKey{ID: course.ID, Code: course.Code, SemesterID: course.SemesterID}, existing)
}

func (s *courseService) visible(ctx context.Context, id policy.Identity, courseID uint) (models.Course, error) {
	scope, err := policy.Visibility(policy.KindCourse, id, s.hooks.Clock.now())
	if err != nil {
		return models.Course{}, err
	}
	course, err := s.repo.FindVisible(ctx, scope, courseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Course{}, notFound("course", courseID)
	}
	return course, err
}
