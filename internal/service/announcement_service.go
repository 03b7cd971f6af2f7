package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/events"
	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/observability"
	"github.com/noah-isme/edutrack-api/internal/policy"
	"github.com/noah-isme/edutrack-api/internal/repository"
	"github.com/noah-isme/edutrack-api/internal/rules"
)

const announcementVersionKey = "announcements:version"

// AnnouncementService manages semester announcements and per-student read state.
type AnnouncementService interface {
	List(ctx context.Context, id policy.Identity, req dto.AnnouncementListRequest) (dto.ListResponse[dto.AnnouncementResponse], error)
	Get(ctx context.Context, id policy.Identity, announcementID uint) (dto.AnnouncementResponse, error)
	Create(ctx context.Context, id policy.Identity, req dto.AnnouncementCreateRequest) (dto.AnnouncementResponse, error)
	Update(ctx context.Context, id policy.Identity, announcementID uint, req dto.AnnouncementUpdateRequest) (dto.AnnouncementResponse, error)
	Delete(ctx context.Context, id policy.Identity, announcementID uint) error
	MarkRead(ctx context.Context, id policy.Identity, announcementID uint) error
	UnreadCount(ctx context.Context, id policy.Identity) (dto.UnreadCountResponse, error)
}

// AnnouncementConfig carries the tunables of the announcement service.
type AnnouncementConfig struct {
	DefaultExpiry time.Duration
	UnreadTTL     time.Duration
}

type announcementService struct {
	repo      repository.AnnouncementRepository
	semesters repository.SemesterRepository
	cache     *redis.Client
	cfg       AnnouncementConfig
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	hooks     Hooks
	logger    zerolog.Logger
}

// NewAnnouncementService constructs the announcement service. cache may be nil.
func NewAnnouncementService(
	repo repository.AnnouncementRepository,
	semesters repository.SemesterRepository,
	cache *redis.Client,
	cfg AnnouncementConfig,
	validate *validator.Validate,
	hooks Hooks,
	logger zerolog.Logger,
) AnnouncementService {
	if cfg.DefaultExpiry <= 0 {
		cfg.DefaultExpiry = 30 * 24 * time.Hour
	}
	if cfg.UnreadTTL <= 0 {
		cfg.UnreadTTL = 30 * time.Second
	}
	sanitizer := bluemonday.UGCPolicy()
	sanitizer.AllowElements("p", "strong", "em", "a", "ul", "ol", "li", "br")
	sanitizer.AllowAttrs("href", "title", "target").OnElements("a")
	return &announcementService{
		repo:      repo,
		semesters: semesters,
		cache:     cache,
		cfg:       cfg,
		validator: validate,
		sanitizer: sanitizer,
		hooks:     hooks,
		logger:    logger.With().Str("component", "announcement_service").Logger(),
	}
}

func (s *announcementService) List(ctx context.Context, id policy.Identity, req dto.AnnouncementListRequest) (dto.ListResponse[dto.AnnouncementResponse], error) {
	now := s.hooks.Clock.now()
	scope, err := policy.Visibility(policy.KindAnnouncement, id, now)
	if err != nil {
		return dto.ListResponse[dto.AnnouncementResponse]{}, err
	}

	filter := repository.AnnouncementFilter{
		Page:     pageOf(req.Page, req.PageSize),
		Search:   strings.TrimSpace(req.Search),
		Type:     strings.ToLower(strings.TrimSpace(req.Type)),
		Priority: strings.ToLower(strings.TrimSpace(req.Priority)),
	}
	items, total, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return dto.ListResponse[dto.AnnouncementResponse]{}, err
	}

	var reads map[uint]time.Time
	if id.Is(policy.RoleStudent) && len(items) > 0 {
		ids := make([]uint, 0, len(items))
		for _, item := range items {
			ids = append(ids, item.ID)
		}
		if reads, err = s.repo.ReadAt(ctx, id.ID, ids); err != nil {
			return dto.ListResponse[dto.AnnouncementResponse]{}, err
		}
	}

	responses := make([]dto.AnnouncementResponse, 0, len(items))
	for _, item := range items {
		response := dto.NewAnnouncementResponse(item, now)
		if readAt, ok := reads[item.ID]; ok {
			readAt := readAt
			response.ReadAt = &readAt
		}
		responses = append(responses, response)
	}
	return dto.ListResponse[dto.AnnouncementResponse]{
		Items:      responses,
		Pagination: dto.NewPaginationMeta(filter.Page.Page, filter.PageSize, total),
	}, nil
}

func (s *announcementService) Get(ctx context.Context, id policy.Identity, announcementID uint) (dto.AnnouncementResponse, error) {
	announcement, err := s.visible(ctx, id, announcementID)
	if err != nil {
		return dto.AnnouncementResponse{}, err
	}

	response := dto.NewAnnouncementResponse(announcement, s.hooks.Clock.now())
	if id.Is(policy.RoleStudent) {
		reads, err := s.repo.ReadAt(ctx, id.ID, []uint{announcement.ID})
		if err != nil {
			return dto.AnnouncementResponse{}, err
		}
		if readAt, ok := reads[announcement.ID]; ok {
			response.ReadAt = &readAt
		}
	}
	return response, nil
}

func (s *announcementService) Create(ctx context.Context, id policy.Identity, req dto.AnnouncementCreateRequest) (dto.AnnouncementResponse, error) {
	if err := policy.Authorize(id, policy.KindAnnouncement, policy.ActionCreate, nil); err != nil {
		return dto.AnnouncementResponse{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.AnnouncementResponse{}, err
	}

	content, err := s.sanitize(req.Content)
	if err != nil {
		return dto.AnnouncementResponse{}, err
	}

	if _, err := s.semesters.GetByID(ctx, req.SemesterID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AnnouncementResponse{}, rules.Invalid("semester_id", "semester %d does not exist", req.SemesterID)
		}
		return dto.AnnouncementResponse{}, err
	}

	now := s.hooks.Clock.now()
	publishDate := now
	if req.PublishDate != nil {
		publishDate = req.PublishDate.UTC()
	}
	expiry := publishDate.Add(s.cfg.DefaultExpiry)
	if req.ExpiryDate != nil {
		expiry = req.ExpiryDate.UTC()
	}
	if !expiry.After(publishDate) {
		return dto.AnnouncementResponse{}, rules.Invalid("expiry_date", "expiry date must be after the publish date")
	}

	announcement := models.Announcement{
		Title:       strings.TrimSpace(req.Title),
		Content:     content,
		SemesterID:  req.SemesterID,
		AuthorID:    id.ID,
		Priority:    defaultString(req.Priority, models.PriorityMedium),
		Type:        defaultString(req.Type, models.AnnouncementGeneral),
		Active:      true,
		Published:   req.Published == nil || *req.Published,
		PublishDate: publishDate,
		ExpiryDate:  &expiry,
	}
	if err := s.repo.Create(ctx, &announcement); err != nil {
		return dto.AnnouncementResponse{}, err
	}

	s.bumpVersion(ctx)
	s.hooks.record(ctx, s.logger, id, "announcement.created", policy.KindAnnouncement, announcement.ID, map[string]interface{}{"semester_id": announcement.SemesterID})
	if announcement.Published {
		s.announce(ctx, id, announcement)
	}
	return dto.NewAnnouncementResponse(announcement, now), nil
}

func (s *announcementService) Update(ctx context.Context, id policy.Identity, announcementID uint, req dto.AnnouncementUpdateRequest) (dto.AnnouncementResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AnnouncementResponse{}, err
	}

	announcement, err := s.visible(ctx, id, announcementID)
	if err != nil {
		return dto.AnnouncementResponse{}, err
	}
	if err := policy.Authorize(id, policy.KindAnnouncement, policy.ActionUpdate, announcement); err != nil {
		return dto.AnnouncementResponse{}, err
	}

	wasPublished := announcement.Published
	if req.Title != nil {
		announcement.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		content, err := s.sanitize(*req.Content)
		if err != nil {
			return dto.AnnouncementResponse{}, err
		}
		announcement.Content = content
	}
	if req.Priority != nil {
		announcement.Priority = *req.Priority
	}
	if req.Type != nil {
		announcement.Type = *req.Type
	}
	if req.Published != nil {
		announcement.Published = *req.Published
	}
	if req.Active != nil {
		announcement.Active = *req.Active
	}
	if req.ExpiryDate != nil {
		expiry := req.ExpiryDate.UTC()
		if !expiry.After(announcement.PublishDate) {
			return dto.AnnouncementResponse{}, rules.Invalid("expiry_date", "expiry date must be after the publish date")
		}
		announcement.ExpiryDate = &expiry
	}

	if err := s.repo.Update(ctx, &announcement); err != nil {
		return dto.AnnouncementResponse{}, err
	}

	s.bumpVersion(ctx)
	s.hooks.record(ctx, s.logger, id, "announcement.updated", policy.KindAnnouncement, announcement.ID, nil)
	if announcement.Published && !wasPublished {
		s.announce(ctx, id, announcement)
	}
	return dto.NewAnnouncementResponse(announcement, s.hooks.Clock.now()), nil
}

func (s *announcementService) Delete(ctx context.Context, id policy.Identity, announcementID uint) error {
	announcement, err := s.visible(ctx, id, announcementID)
	if err != nil {
		return err
	}
	if err := policy.Authorize(id, policy.KindAnnouncement, policy.ActionDelete, announcement); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, announcement.ID); err != nil {
		return lookupError(err, "announcement", announcementID)
	}
	s.bumpVersion(ctx)
	s.hooks.record(ctx, s.logger, id, "announcement.deactivated", policy.KindAnnouncement, announcement.ID, nil)
	return nil
}

// MarkRead is idempotent; the first read time is kept.
func (s *announcementService) MarkRead(ctx context.Context, id policy.Identity, announcementID uint) error {
	if err := policy.Authorize(id, policy.KindAnnouncement, policy.ActionMarkRead, nil); err != nil {
		return err
	}
	announcement, err := s.visible(ctx, id, announcementID)
	if err != nil {
		return err
	}
	if err := s.repo.MarkRead(ctx, announcement.ID, id.ID, s.hooks.Clock.now()); err != nil {
		return err
	}
	s.invalidateUnread(ctx, id.ID)
	return nil
}

// UnreadCount counts visible announcements the student has not read yet. The
// result is cached per student under the current announcements version.
func (s *announcementService) UnreadCount(ctx context.Context, id policy.Identity) (dto.UnreadCountResponse, error) {
	if err := policy.Authorize(id, policy.KindAnnouncement, policy.ActionMarkRead, nil); err != nil {
		return dto.UnreadCountResponse{}, err
	}

	key := s.unreadKey(ctx, id.ID)
	if key != "" {
		count, err := s.cache.Get(ctx, key).Int64()
		switch {
		case err == nil:
			observability.UnreadCache().WithLabelValues("hit").Inc()
			return dto.UnreadCountResponse{Unread: count}, nil
		case !errors.Is(err, redis.Nil):
			s.logger.Warn().Err(err).Msg("failed to read unread count cache")
		}
	}

	scope, err := policy.Visibility(policy.KindAnnouncement, id, s.hooks.Clock.now())
	if err != nil {
		return dto.UnreadCountResponse{}, err
	}
	count, err := s.repo.CountUnread(ctx, scope, id.ID)
	if err != nil {
		return dto.UnreadCountResponse{}, err
	}
	observability.UnreadCache().WithLabelValues("miss").Inc()

	if key != "" {
		if err := s.cache.Set(ctx, key, count, s.cfg.UnreadTTL).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to cache unread count")
		}
	}
	return dto.UnreadCountResponse{Unread: count}, nil
}

func (s *announcementService) sanitize(content string) (string, error) {
	clean := strings.TrimSpace(s.sanitizer.Sanitize(content))
	if clean == "" {
		return "", rules.Invalid("content", "content is empty after sanitising")
	}
	return clean, nil
}

func (s *announcementService) announce(ctx context.Context, id policy.Identity, announcement models.Announcement) {
	s.hooks.publish(ctx, s.logger, events.Event{
		Topic:    events.AnnouncementPublished,
		ActorID:  id.ID,
		EntityID: announcement.ID,
		Payload: map[string]interface{}{
			"semester_id": announcement.SemesterID,
			"priority":    announcement.Priority,
			"title":       announcement.Title,
		},
	})
}

func (s *announcementService) unreadKey(ctx context.Context, studentID uint) string {
	if s.cache == nil {
		return ""
	}
	version, err := s.cache.Get(ctx, announcementVersionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Warn().Err(err).Msg("failed to read announcements version")
		return ""
	}
	return fmt.Sprintf("announcements:unread:v%d:%d", version, studentID)
}

func (s *announcementService) bumpVersion(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Incr(ctx, announcementVersionKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to bump announcements version")
	}
}

func (s *announcementService) invalidateUnread(ctx context.Context, studentID uint) {
	key := s.unreadKey(ctx, studentID)
	if key == "" {
		return
	}
	if err := s.cache.Del(ctx, key).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate unread count")
	}
}

func (s *announcementService) visible(ctx context.Context, id policy.Identity, announcementID uint) (models.Announcement, error) {
	scope, err := policy.Visibility(policy.KindAnnouncement, id, s.hooks.Clock.now())
	if err != nil {
		return models.Announcement{}, err
	}
	announcement, err := s.repo.FindVisible(ctx, scope, announcementID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Announcement{}, notFound("announcement", announcementID)
	}
	return announcement, err
}

func defaultString(value, fallback string) string {
	if value = strings.ToLower(strings.TrimSpace(value)); value == "" {
		return fallback
	}
	return value
}
