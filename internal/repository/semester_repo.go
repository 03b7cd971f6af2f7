package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/policy"
)

// SemesterRepository persists semesters and the current-semester flag.
type SemesterRepository interface {
	List(ctx context.Context, scope policy.Scope, page Page) ([]models.Semester, int64, error)
	FindVisible(ctx context.Context, scope policy.Scope, id uint) (models.Semester, error)
	GetByID(ctx context.Context, id uint) (models.Semester, error)
	Current(ctx context.Context) (models.Semester, error)
	NumbersTaken(ctx context.Context) (map[int]uint, error)
	Create(ctx context.Context, semester *models.Semester) error
	Update(ctx context.Context, semester *models.Semester) error
	Deactivate(ctx context.Context, id uint) error
	SetCurrent(ctx context.Context, id uint) error
}

type semesterRepository struct {
	db *gorm.DB
}

// NewSemesterRepository constructs the semester repository.
func NewSemesterRepository(db *gorm.DB) SemesterRepository {
	return &semesterRepository{db: db}
}

func (r *semesterRepository) List(ctx context.Context, scope policy.Scope, page Page) ([]models.Semester, int64, error) {
	query := applyScope(r.db.WithContext(ctx).Model(&models.Semester{}), scope)
	return countAndFind[models.Semester](query, page, "number ASC")
}

func (r *semesterRepository) FindVisible(ctx context.Context, scope policy.Scope, id uint) (models.Semester, error) {
	var semester models.Semester
	if err := applyScope(r.db.WithContext(ctx), scope).First(&semester, id).Error; err != nil {
		return models.Semester{}, err
	}
	return semester, nil
}

func (r *semesterRepository) GetByID(ctx context.Context, id uint) (models.Semester, error) {
	return r.FindVisible(ctx, policy.Scope{}, id)
}

func (r *semesterRepository) Current(ctx context.Context) (models.Semester, error) {
	var semester models.Semester
	if err := r.db.WithContext(ctx).Where("is_current = ?", true).First(&semester).Error; err != nil {
		return models.Semester{}, err
	}
	return semester, nil
}

func (r *semesterRepository) NumbersTaken(ctx context.Context) (map[int]uint, error) {
	var rows []struct {
		ID     uint
		Number int
	}
	if err := r.db.WithContext(ctx).Model(&models.Semester{}).Select("id, number").Scan(&rows).Error; err != nil {
		return nil, err
	}
	taken := make(map[int]uint, len(rows))
	for _, row := range rows {
		taken[row.Number] = row.ID
	}
	return taken, nil
}

func (r *semesterRepository) Create(ctx context.Context, semester *models.Semester) error {
	return translateError(r.db.WithContext(ctx).Create(semester).Error)
}

func (r *semesterRepository) Update(ctx context.Context, semester *models.Semester) error {
	return translateError(r.db.WithContext(ctx).Save(semester).Error)
}

// Deactivate soft-deletes a semester. A deactivated semester cannot stay current.
func (r *semesterRepository) Deactivate(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&models.Semester{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"active": false, "is_current": false})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetCurrent clears every other current flag and sets the target in one transaction.
func (r *semesterRepository) SetCurrent(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target models.Semester
		if err := tx.First(&target, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Semester{}).
			Where("is_current = ? AND id <> ?", true, id).
			Update("is_current", false).Error; err != nil {
			return err
		}
		return tx.Model(&target).Update("is_current", true).Error
	})
}
