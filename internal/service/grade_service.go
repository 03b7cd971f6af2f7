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

const maxCourseScore = 100

// GradeService records final course grades.
type GradeService interface {
	List(ctx context.Context, id policy.Identity, req dto.GradeListRequest) (dto.ListResponse[dto.GradeResponse], error)
	Upsert(ctx context.Context, id policy.Identity, req dto.GradeUpsertRequest) (dto.GradeResponse, error)
}

type gradeService struct {
	repo      repository.GradeRepository
	courses   repository.CourseRepository
	validator *validator.Validate
	hooks     Hooks
	logger    zerolog.Logger
}

// NewGradeService constructs the grade service.
func NewGradeService(repo repository.GradeRepository, courses repository.CourseRepository, validate *validator.Validate, hooks Hooks, logger zerolog.Logger) GradeService {
	return &gradeService{
		repo:      repo,
		courses:   courses,
		validator: validate,
		hooks:     hooks,
		logger:    logger.With().Str("component", "grade_service").Logger(),
	}
}

// gradedCourse lets a teacher own the grades of every course it teaches.
type gradedCourse struct {
	course   models.Course
	identity policy.Identity
}

func (g gradedCourse) OwnerID() uint {
	if g.identity.Teaches(g.course.ID) {
		return g.identity.ID
	}
	return g.course.OwnerID()
}

func (s *gradeService) List(ctx context.Context, id policy.Identity, req dto.GradeListRequest) (dto.ListResponse[dto.GradeResponse], error) {
	scope, err := policy.Visibility(policy.KindGrade, id, s.hooks.Clock.now())
	if err != nil {
		return dto.ListResponse[dto.GradeResponse]{}, err
	}

	filter := repository.GradeFilter{
		Page:       pageOf(req.Page, req.PageSize),
		CourseID:   req.CourseID,
		SemesterID: req.SemesterID,
	}
	items, total, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return dto.ListResponse[dto.GradeResponse]{}, err
	}

	responses := make([]dto.GradeResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, dto.NewGradeResponse(item))
	}
	return dto.ListResponse[dto.GradeResponse]{
		Items:      responses,
		Pagination: dto.NewPaginationMeta(filter.Page.Page, filter.PageSize, total),
	}, nil
}

// Upsert creates or replaces the single grade a student holds for a course.
func (s *gradeService) Upsert(ctx context.Context, id policy.Identity, req dto.GradeUpsertRequest) (dto.GradeResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.GradeResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradeResponse{}, rules.Invalid("course_id", "course %d does not exist", req.CourseID)
		}
		return dto.GradeResponse{}, err
	}
	if err := policy.Authorize(id, policy.KindGrade, policy.ActionUpdate, gradedCourse{course: course, identity: id}); err != nil {
		return dto.GradeResponse{}, err
	}
	if err := rules.CheckGradeRange(*req.Score, maxCourseScore); err != nil {
		return dto.GradeResponse{}, rules.Invalid("score", "score must be between 0 and %d", maxCourseScore)
	}

	enrolled, err := s.courses.IsEnrolled(ctx, course.ID, req.StudentID)
	if err != nil {
		return dto.GradeResponse{}, err
	}
	if !enrolled {
		return dto.GradeResponse{}, rules.Invalid("student_id", "student %d is not enrolled in course %d", req.StudentID, course.ID)
	}

	grade := models.Grade{
		StudentID:  req.StudentID,
		CourseID:   course.ID,
		SemesterID: course.SemesterID,
		Score:      *req.Score,
		Letter:     rules.LetterGrade(*req.Score),
		Remarks:    strings.TrimSpace(req.Remarks),
		GradedBy:   id.ID,
	}
	if err := s.repo.Upsert(ctx, &grade); err != nil {
		return dto.GradeResponse{}, err
	}

	s.hooks.record(ctx, s.logger, id, "grade.recorded", policy.KindGrade, grade.ID, map[string]interface{}{
		"student_id": grade.StudentID,
		"course_id":  grade.CourseID,
		"letter":     grade.Letter,
	})
	return dto.NewGradeResponse(grade), nil
}
