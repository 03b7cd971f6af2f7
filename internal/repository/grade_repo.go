package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/policy"
)

// GradeFilter narrows grade list queries.
type GradeFilter struct {
	Page
	CourseID   *uint
	SemesterID *uint
}

// GradeRepository persists final course grades.
type GradeRepository interface {
	List(ctx context.Context, scope policy.Scope, filter GradeFilter) ([]models.Grade, int64, error)
	Upsert(ctx context.Context, grade *models.Grade) error
}

type gradeRepository struct {
	db *gorm.DB
}

// NewGradeRepository constructs the grade repository.
func NewGradeRepository(db *gorm.DB) GradeRepository {
	return &gradeRepository{db: db}
}

func (r *gradeRepository) List(ctx context.Context, scope policy.Scope, filter GradeFilter) ([]models.Grade, int64, error) {
	query := applyScope(r.db.WithContext(ctx).Model(&models.Grade{}), scope)
	if filter.CourseID != nil {
		query = query.Where("course_id = ?", *filter.CourseID)
	}
	if filter.SemesterID != nil {
		query = query.Where("semester_id = ?", *filter.SemesterID)
	}
	return countAndFind[models.Grade](query, filter.Page, "course_id ASC, student_id ASC")
}

// Upsert writes the (student, course) grade, replacing any previous one.
func (r *gradeRepository) Upsert(ctx context.Context, grade *models.Grade) error {
	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}, {Name: "course_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "letter", "remarks", "graded_by", "semester_id", "updated_at"}),
	}).Create(grade).Error
	if err != nil {
		return err
	}
	var stored models.Grade
	if err := db.Where("student_id = ? AND course_id = ?", grade.StudentID, grade.CourseID).First(&stored).Error; err != nil {
		return err
	}
	*grade = stored
	return nil
}
