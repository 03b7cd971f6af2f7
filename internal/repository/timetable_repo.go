package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/policy"
)

// TimetableFilter narrows timetable list queries.
type TimetableFilter struct {
	Page
	Day      string
	CourseID *uint
}

// TimetableRepository persists weekly timetable entries.
type TimetableRepository interface {
	List(ctx context.Context, scope policy.Scope, filter TimetableFilter) ([]models.TimetableEntry, int64, error)
	FindVisible(ctx context.Context, scope policy.Scope, id uint) (models.TimetableEntry, error)
	ListActiveOnDay(ctx context.Context, day string) ([]models.TimetableEntry, error)
	Create(ctx context.Context, entry *models.TimetableEntry) error
	Update(ctx context.Context, entry *models.TimetableEntry) error
	Delete(ctx context.Context, id uint) error
}

type timetableRepository struct {
	db *gorm.DB
}

// NewTimetableRepository constructs the timetable repository.
func NewTimetableRepository(db *gorm.DB) TimetableRepository {
	return &timetableRepository{db: db}
}

func (r *timetableRepository) List(ctx context.Context, scope policy.Scope, filter TimetableFilter) ([]models.TimetableEntry, int64, error) {
	query := applyScope(r.db.WithContext(ctx).Model(&models.TimetableEntry{}), scope)
	if filter.Day != "" {
		query = query.Where("day = ?", filter.Day)
	}
	if filter.CourseID != nil {
		query = query.Where("course_id = ?", *filter.CourseID)
	}
	return countAndFind[models.TimetableEntry](query, filter.Page, "day ASC, start_time ASC, id ASC")
}

func (r *timetableRepository) FindVisible(ctx context.Context, scope policy.Scope, id uint) (models.TimetableEntry, error) {
	var entry models.TimetableEntry
	if err := applyScope(r.db.WithContext(ctx), scope).First(&entry, id).Error; err != nil {
		return models.TimetableEntry{}, err
	}
	return entry, nil
}

// ListActiveOnDay returns the candidates an overlap check must consider.
func (r *timetableRepository) ListActiveOnDay(ctx context.Context, day string) ([]models.TimetableEntry, error) {
	var entries []models.TimetableEntry
	if err := r.db.WithContext(ctx).
		Where("day = ? AND active = ?", day, true).
		Order("start_time ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *timetableRepository) Create(ctx context.Context, entry *models.TimetableEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *timetableRepository) Update(ctx context.Context, entry *models.TimetableEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *timetableRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.TimetableEntry{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
