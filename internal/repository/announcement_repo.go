package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/policy"
)

// AnnouncementFilter filters announcement list queries.
type AnnouncementFilter struct {
	Page
	Search   string
	Type     string
	Priority string
}

// AnnouncementRepository exposes persistence helpers for announcements.
type AnnouncementRepository interface {
	List(ctx context.Context, scope policy.Scope, filter AnnouncementFilter) ([]models.Announcement, int64, error)
	FindVisible(ctx context.Context, scope policy.Scope, id uint) (models.Announcement, error)
	GetByID(ctx context.Context, id uint) (models.Announcement, error)
	Create(ctx context.Context, announcement *models.Announcement) error
	Update(ctx context.Context, announcement *models.Announcement) error
	Deactivate(ctx context.Context, id uint) error
	MarkRead(ctx context.Context, announcementID, studentID uint, at time.Time) error
	ReadAt(ctx context.Context, studentID uint, announcementIDs []uint) (map[uint]time.Time, error)
	CountUnread(ctx context.Context, scope policy.Scope, studentID uint) (int64, error)
}

type announcementRepository struct {
	db *gorm.DB
}

// NewAnnouncementRepository constructs the repository implementation.
func NewAnnouncementRepository(db *gorm.DB) AnnouncementRepository {
	return &announcementRepository{db: db}
}

func (r *announcementRepository) List(ctx context.Context, scope policy.Scope, filter AnnouncementFilter) ([]models.Announcement, int64, error) {
	query := applyScope(r.db.WithContext(ctx).Model(&models.Announcement{}), scope)

	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ?", pattern, pattern)
	}

	return countAndFind[models.Announcement](query, filter.Page, "publish_date DESC, id DESC")
}

func (r *announcementRepository) FindVisible(ctx context.Context, scope policy.Scope, id uint) (models.Announcement, error) {
	var announcement models.Announcement
	if err := applyScope(r.db.WithContext(ctx), scope).First(&announcement, id).Error; err != nil {
		return models.Announcement{}, err
	}
	return announcement, nil
}

func (r *announcementRepository) GetByID(ctx context.Context, id uint) (models.Announcement, error) {
	return r.FindVisible(ctx, policy.Scope{}, id)
}

func (r *announcementRepository) Create(ctx context.Context, announcement *models.Announcement) error {
	return r.db.WithContext(ctx).Create(announcement).Error
}

func (r *announcementRepository) Update(ctx context.Context, announcement *models.Announcement) error {
	return r.db.WithContext(ctx).Save(announcement).Error
}

func (r *announcementRepository) Deactivate(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&models.Announcement{}).Where("id = ?", id).Update("active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkRead records the first read only; repeated reads keep the original timestamp.
func (r *announcementRepository) MarkRead(ctx context.Context, announcementID, studentID uint, at time.Time) error {
	read := models.AnnouncementRead{AnnouncementID: announcementID, StudentID: studentID, ReadAt: at}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&read).Error
}

func (r *announcementRepository) ReadAt(ctx context.Context, studentID uint, announcementIDs []uint) (map[uint]time.Time, error) {
	out := make(map[uint]time.Time, len(announcementIDs))
	if len(announcementIDs) == 0 {
		return out, nil
	}
	var reads []models.AnnouncementRead
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND announcement_id IN ?", studentID, announcementIDs).
		Find(&reads).Error; err != nil {
		return nil, err
	}
	for _, read := range reads {
		out[read.AnnouncementID] = read.ReadAt
	}
	return out, nil
}

func (r *announcementRepository) CountUnread(ctx context.Context, scope policy.Scope, studentID uint) (int64, error) {
	db := r.db.WithContext(ctx)
	read := db.Model(&models.AnnouncementRead{}).Select("announcement_id").Where("student_id = ?", studentID)
	query := applyScope(db.Model(&models.Announcement{}), scope).
		Where("id NOT IN (?)", read)

	var count int64
	err := query.Count(&count).Error
	return count, err
}
