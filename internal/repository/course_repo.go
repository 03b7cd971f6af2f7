package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/policy"
	"github.com/noah-isme/edutrack-api/internal/rules"
)

// CourseFilter narrows course list queries.
type CourseFilter struct {
	Page
	Search     string
	SemesterID *uint
}

// CourseRepository persists courses, enrolments and teaching assignments.
type CourseRepository interface {
	List(ctx context.Context, scope policy.Scope, filter CourseFilter) ([]models.Course, int64, error)
	FindVisible(ctx context.Context, scope policy.Scope, id uint) (models.Course, error)
	GetByID(ctx context.Context, id uint) (models.Course, error)
	KeysInSemester(ctx context.Context, semesterID uint) ([]rules.CourseKey, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Deactivate(ctx context.Context, id uint) error
	IsEnrolled(ctx context.Context, courseID, studentID uint) (bool, error)
	CountEnrolled(ctx context.Context, courseID uint) (int64, error)
	Enroll(ctx context.Context, courseID, studentID uint) error
	AssignTeacher(ctx context.Context, courseID, teacherID uint) error
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository constructs the course repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) List(ctx context.Context, scope policy.Scope, filter CourseFilter) ([]models.Course, int64, error) {
	query := applyScope(r.db.WithContext(ctx).Model(&models.Course{}), scope)
	if filter.SemesterID != nil {
		query = query.Where("semester_id = ?", *filter.SemesterID)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", pattern, pattern)
	}
	return countAndFind[models.Course](query, filter.Page, "code ASC")
}

func (r *courseRepository) FindVisible(ctx context.Context, scope policy.Scope, id uint) (models.Course, error) {
	var course models.Course
	if err := applyScope(r.db.WithContext(ctx), scope).First(&course, id).Error; err != nil {
		return models.Course{}, err
	}
	return course, nil
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	return r.FindVisible(ctx, policy.Scope{}, id)
}

func (r *courseRepository) KeysInSemester(ctx context.Context, semesterID uint) ([]rules.CourseKey, error) {
	var keys []rules.CourseKey
	err := r.db.WithContext(ctx).Model(&models.Course{}).
		Select("id, code, semester_id").
		Where("semester_id = ?", semesterID).
		Scan(&keys).Error
	return keys, err
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return translateError(r.db.WithContext(ctx).Create(course).Error)
}

func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	return translateError(r.db.WithContext(ctx).Save(course).Error)
}

func (r *courseRepository) Deactivate(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&models.Course{}).Where("id = ?", id).Update("active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *courseRepository) IsEnrolled(ctx context.Context, courseID, studentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		Count(&count).Error
	return count > 0, err
}

func (r *courseRepository) CountEnrolled(ctx context.Context, courseID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Enrollment{}).Where("course_id = ?", courseID).Count(&count).Error
	return count, err
}

func (r *courseRepository) Enroll(ctx context.Context, courseID, studentID uint) error {
	enrollment := models.Enrollment{CourseID: courseID, StudentID: studentID, EnrolledAt: time.Now().UTC()}
	err := translateError(r.db.WithContext(ctx).Create(&enrollment).Error)
	if errors.Is(err, ErrDuplicate) {
		return rules.Conflict(rules.RuleAlreadyEnrolled, "student is already enrolled in this course")
	}
	return err
}

// AssignTeacher sets the course owner and makes it the only teaching relation
// for the course, so a replaced teacher loses its read scope.
func (r *courseRepository) AssignTeacher(ctx context.Context, courseID, teacherID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Course{}).Where("id = ?", courseID).Update("teacher_id", teacherID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("course_id = ? AND teacher_id <> ?", courseID, teacherID).
			Delete(&models.TeachingAssignment{}).Error; err != nil {
			return err
		}
		link := models.TeachingAssignment{CourseID: courseID, TeacherID: teacherID, AssignedAt: time.Now().UTC()}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error
	})
}
