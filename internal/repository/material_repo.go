package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/policy"
)

// MaterialFilter narrows material list queries.
type MaterialFilter struct {
	Page
	Search   string
	CourseID *uint
	Tag      string
}

// MaterialRepository persists course materials.
type MaterialRepository interface {
	List(ctx context.Context, scope policy.Scope, filter MaterialFilter) ([]models.Material, int64, error)
	FindVisible(ctx context.Context, scope policy.Scope, id uint) (models.Material, error)
	Create(ctx context.Context, material *models.Material) error
	Update(ctx context.Context, material *models.Material) error
	Deactivate(ctx context.Context, id uint) error
	IncrementDownloads(ctx context.Context, id uint) (int64, error)
}

type materialRepository struct {
	db *gorm.DB
}

// NewMaterialRepository constructs the material repository.
func NewMaterialRepository(db *gorm.DB) MaterialRepository {
	return &materialRepository{db: db}
}

func (r *materialRepository) List(ctx context.Context, scope policy.Scope, filter MaterialFilter) ([]models.Material, int64, error) {
	query := applyScope(r.db.WithContext(ctx).Model(&models.Material{}), scope)

	if filter.CourseID != nil {
		query = query.Where("course_id = ?", *filter.CourseID)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if filter.Tag != "" {
		// Tags are stored as a JSON array; match the quoted element.
		tag := strings.ToLower(strings.TrimSpace(filter.Tag))
		query = query.Where("LOWER(CAST(tags AS TEXT)) LIKE ?", "%\""+tag+"\"%")
	}

	return countAndFind[models.Material](query, filter.Page, "created_at DESC, id DESC")
}

func (r *materialRepository) FindVisible(ctx context.Context, scope policy.Scope, id uint) (models.Material, error) {
	var material models.Material
	if err := applyScope(r.db.WithContext(ctx), scope).First(&material, id).Error; err != nil {
		return models.Material{}, err
	}
	return material, nil
}

func (r *materialRepository) Create(ctx context.Context, material *models.Material) error {
	return r.db.WithContext(ctx).Create(material).Error
}

func (r *materialRepository) Update(ctx context.Context, material *models.Material) error {
	return r.db.WithContext(ctx).Omit("download_count").Save(material).Error
}

func (r *materialRepository) Deactivate(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&models.Material{}).Where("id = ?", id).Update("active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IncrementDownloads bumps the counter in place and returns the new value.
func (r *materialRepository) IncrementDownloads(ctx context.Context, id uint) (int64, error) {
	db := r.db.WithContext(ctx)
	result := db.Model(&models.Material{}).
		Where("id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + ?", 1))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}

	var counts []int64
	if err := db.Model(&models.Material{}).Where("id = ?", id).Pluck("download_count", &counts).Error; err != nil {
		return 0, err
	}
	if len(counts) == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return counts[0], nil
}
