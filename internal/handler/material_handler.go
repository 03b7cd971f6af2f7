package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/middleware"
	"github.com/noah-isme/edutrack-api/internal/service"
	"github.com/noah-isme/edutrack-api/internal/utils"
)

// MaterialHandler wires course material routes.
type MaterialHandler struct {
	service service.MaterialService
	logger  zerolog.Logger
}

// NewMaterialHandler constructs the handler.
func NewMaterialHandler(service service.MaterialService, logger zerolog.Logger) *MaterialHandler {
	return &MaterialHandler{
		service: service,
		logger:  logger.With().Str("component", "material_handler").Logger(),
	}
}

// Register attaches material endpoints to the router group.
func (h *MaterialHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", h.create)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Post("/:id/download", h.download)
}

func (h *MaterialHandler) list(c *fiber.Ctx) error {
	base, err := parseListRequest(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	courseID, err := parseQueryUint(c, "course_id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	req := dto.MaterialListRequest{ListRequest: base, CourseID: courseID, Tag: c.Query("tag")}
	result, err := h.service.List(c.UserContext(), middleware.IdentityFrom(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list materials")
	}

	return utils.OK(c, result.Items, "materials retrieved", result.Pagination)
}

func (h *MaterialHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	material, err := h.service.Get(c.UserContext(), middleware.IdentityFrom(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load material")
	}

	return utils.SendSuccess(c, "material retrieved", material)
}

func (h *MaterialHandler) create(c *fiber.Ctx) error {
	var payload dto.MaterialCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid payload")
	}

	file, err := c.FormFile("file")
	if err != nil {
		file = nil
	}

	material, err := h.service.Create(c.UserContext(), middleware.IdentityFrom(c), payload, file)
	if err != nil {
		return respondError(c, h.logger, err, "failed to upload material")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "material uploaded", material)
}

func (h *MaterialHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var payload dto.MaterialUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid payload")
	}

	material, err := h.service.Update(c.UserContext(), middleware.IdentityFrom(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update material")
	}

	return utils.SendSuccess(c, "material updated", material)
}

func (h *MaterialHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.service.Delete(c.UserContext(), middleware.IdentityFrom(c), id); err != nil {
		return respondError(c, h.logger, err, "failed to delete material")
	}

	return utils.SendSuccess(c, "material deactivated", fiber.Map{"id": id})
}

func (h *MaterialHandler) download(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	material, err := h.service.Download(c.UserContext(), middleware.IdentityFrom(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to download material")
	}

	return utils.SendSuccess(c, "material download", fiber.Map{
		"file":           material.File,
		"download_count": material.DownloadCount,
	})
}
