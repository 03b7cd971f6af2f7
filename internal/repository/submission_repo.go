package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/rules"
)

// SubmissionRepository defines data operations for submissions.
type SubmissionRepository interface {
	ListByAssignment(ctx context.Context, assignmentID uint) ([]models.Submission, error)
	GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (models.Submission, error)
	SubmittedStudents(ctx context.Context, assignmentID uint) ([]uint, error)
	Create(ctx context.Context, submission *models.Submission) error
	Grade(ctx context.Context, submissionID uint, grade float64, feedback string, graderID uint, at time.Time) error
	MaxGrade(ctx context.Context, assignmentID uint) (*float64, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) ListByAssignment(ctx context.Context, assignmentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("submitted_at ASC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *submissionRepository) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ? AND student_id = ?", assignmentID, studentID).
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

func (r *submissionRepository) SubmittedStudents(ctx context.Context, assignmentID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("assignment_id = ?", assignmentID).
		Pluck("student_id", &ids).Error
	return ids, err
}

// Create inserts a submission. A race past the pre-check still trips the
// unique index and is reported as the same conflict.
func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	err := translateError(r.db.WithContext(ctx).Create(submission).Error)
	if errors.Is(err, ErrDuplicate) {
		return rules.Conflict(rules.RuleSingleSubmission, "a submission for this assignment already exists")
	}
	return err
}

func (r *submissionRepository) Grade(ctx context.Context, submissionID uint, grade float64, feedback string, graderID uint, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ?", submissionID).
		Updates(map[string]interface{}{
			"grade":     grade,
			"feedback":  feedback,
			"graded_by": graderID,
			"graded_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MaxGrade returns the highest grade stored for the assignment, or nil when
// no submission has been graded.
func (r *submissionRepository) MaxGrade(ctx context.Context, assignmentID uint) (*float64, error) {
	var highest sql.NullFloat64
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Select("MAX(grade)").
		Where("assignment_id = ? AND grade IS NOT NULL", assignmentID).
		Row().Scan(&highest)
	if err != nil {
		return nil, err
	}
	if !highest.Valid {
		return nil, nil
	}
	return &highest.Float64, nil
}
