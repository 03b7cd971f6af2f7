package service

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/policy"
	"github.com/noah-isme/edutrack-api/internal/repository"
	"github.com/noah-isme/edutrack-api/internal/rules"
)

const maxMaterialTags = 20

// MaterialService manages course teaching materials.
type MaterialService interface {
	List(ctx context.Context, id policy.Identity, req dto.MaterialListRequest) (dto.ListResponse[dto.MaterialResponse], error)
	Get(ctx context.Context, id policy.Identity, materialID uint) (dto.MaterialResponse, error)
	Create(ctx context.Context, id policy.Identity, req dto.MaterialCreateRequest, file *multipart.FileHeader) (dto.MaterialResponse, error)
	Update(ctx context.Context, id policy.Identity, materialID uint, req dto.MaterialUpdateRequest) (dto.MaterialResponse, error)
	Delete(ctx context.Context, id policy.Identity, materialID uint) error
	Download(ctx context.Context, id policy.Identity, materialID uint) (dto.MaterialResponse, error)
}

type materialService struct {
	repo      repository.MaterialRepository
	courses   repository.CourseRepository
	uploader  FileUploader
	validator *validator.Validate
	hooks     Hooks
	logger    zerolog.Logger
}

// NewMaterialService constructs the material service.
func NewMaterialService(repo repository.MaterialRepository, courses repository.CourseRepository, uploader FileUploader, validate *validator.Validate, hooks Hooks, logger zerolog.Logger) MaterialService {
	return &materialService{
		repo:      repo,
		courses:   courses,
		uploader:  uploader,
		validator: validate,
		hooks:     hooks,
		logger:    logger.With().Str("component", "material_service").Logger(),
	}
}

func (s *materialService) List(ctx context.Context, id policy.Identity, req dto.MaterialListRequest) (dto.ListResponse[dto.MaterialResponse], error) {
	scope, err := policy.Visibility(policy.KindMaterial, id, s.hooks.Clock.now())
	if err != nil {
		return dto.ListResponse[dto.MaterialResponse]{}, err
	}

	filter := repository.MaterialFilter{
		Page:     pageOf(req.Page, req.PageSize),
		Search:   strings.TrimSpace(req.Search),
		CourseID: req.CourseID,
		Tag:      strings.ToLower(strings.TrimSpace(req.Tag)),
	}
	items, total, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return dto.ListResponse[dto.MaterialResponse]{}, err
	}

	responses := make([]dto.MaterialResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, dto.NewMaterialResponse(item))
	}
	return dto.ListResponse[dto.MaterialResponse]{
		Items:      responses,
		Pagination: dto.NewPaginationMeta(filter.Page.Page, filter.PageSize, total),
	}, nil
}

func (s *materialService) Get(ctx context.Context, id policy.Identity, materialID uint) (dto.MaterialResponse, error) {
	material, err := s.visible(ctx, id, materialID)
	if err != nil {
		return dto.MaterialResponse{}, err
	}
	return dto.NewMaterialResponse(material), nil
}

func (s *materialService) Create(ctx context.Context, id policy.Identity, req dto.MaterialCreateRequest, file *multipart.FileHeader) (dto.MaterialResponse, error) {
	if err := policy.Authorize(id, policy.KindMaterial, policy.ActionCreate, nil); err != nil {
		return dto.MaterialResponse{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.MaterialResponse{}, err
	}

	tags, err := normalizeTags(strings.Split(req.Tags, ","))
	if err != nil {
		return dto.MaterialResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MaterialResponse{}, rules.Invalid("course_id", "course %d does not exist", req.CourseID)
		}
		return dto.MaterialResponse{}, err
	}

	ref, err := s.uploader.Store(ctx, FolderMaterials, file)
	if err != nil {
		return dto.MaterialResponse{}, err
	}

	teacherID := id.ID
	if id.Is(policy.RoleAdmin) && course.OwnerID() != 0 {
		teacherID = course.OwnerID()
	}

	material := models.Material{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		CourseID:    course.ID,
		SemesterID:  course.SemesterID,
		TeacherID:   teacherID,
		File:        ref,
		Tags:        datatypes.JSONSlice[string](tags),
		Active:      true,
	}
	if err := s.repo.Create(ctx, &material); err != nil {
		return dto.MaterialResponse{}, err
	}

	s.hooks.record(ctx, s.logger, id, "material.created", policy.KindMaterial, material.ID, map[string]interface{}{"course_id": course.ID})
	return dto.NewMaterialResponse(material), nil
}

func (s *materialService) Update(ctx context.Context, id policy.Identity, materialID uint, req dto.MaterialUpdateRequest) (dto.MaterialResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.MaterialResponse{}, err
	}

	material, err := s.visible(ctx, id, materialID)
	if err != nil {
		return dto.MaterialResponse{}, err
	}
	if err := policy.Authorize(id, policy.KindMaterial, policy.ActionUpdate, material); err != nil {
		return dto.MaterialResponse{}, err
	}

	if req.Title != nil {
		material.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		material.Description = strings.TrimSpace(*req.Description)
	}
	if req.Tags != nil {
		tags, err := normalizeTags(req.Tags)
		if err != nil {
			return dto.MaterialResponse{}, err
		}
		material.Tags = datatypes.JSONSlice[string](tags)
	}
	if req.Active != nil {
		material.Active = *req.Active
	}

	if err := s.repo.Update(ctx, &material); err != nil {
		return dto.MaterialResponse{}, err
	}

	s.hooks.record(ctx, s.logger, id, "material.updated", policy.KindMaterial, material.ID, nil)
	return dto.NewMaterialResponse(material), nil
}

func (s *materialService) Delete(ctx context.Context, id policy.Identity, materialID uint) error {
	material, err := s.visible(ctx, id, materialID)
	if err != nil {
		return err
	}
	if err := policy.Authorize(id, policy.KindMaterial, policy.ActionDelete, material); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, material.ID); err != nil {
		return lookupError(err, "material", materialID)
	}
	s.hooks.record(ctx, s.logger, id, "material.deactivated", policy.KindMaterial, material.ID, nil)
	return nil
}

// Download bumps the counter of a visible material and returns its file reference.
func (s *materialService) Download(ctx context.Context, id policy.Identity, materialID uint) (dto.MaterialResponse, error) {
	material, err := s.visible(ctx, id, materialID)
	if err != nil {
		return dto.MaterialResponse{}, err
	}
	count, err := s.repo.IncrementDownloads(ctx, material.ID)
	if err != nil {
		return dto.MaterialResponse{}, lookupError(err, "material", materialID)
	}
	material.DownloadCount = count
	return dto.NewMaterialResponse(material), nil
}

func (s *materialService) visible(ctx context.Context, id policy.Identity, materialID uint) (models.Material, error) {
	scope, err := policy.Visibility(policy.KindMaterial, id, s.hooks.Clock.now())
	if err != nil {
		return models.Material{}, err
	}
	material, err := s.repo.FindVisible(ctx, scope, materialID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Material{}, notFound("material", materialID)
	}
	return material, err
}

// normalizeTags lower-cases, trims and de-duplicates tags, keeping first-seen order.
func normalizeTags(raw []string) ([]string, error) {
	seen := make(map[string]struct{}, len(raw))
	tags := make([]string, 0, len(raw))
	for _, tag := range raw {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		if len(tag) > 32 {
			return nil, rules.Invalid("tags", "tag %q is longer than 32 characters", tag)
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	if len(tags) > maxMaterialTags {
		return nil, rules.Invalid("tags", "at most %d tags are allowed", maxMaterialTags)
	}
	return tags, nil
}
