package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/middleware"
	"github.com/noah-isme/edutrack-api/internal/service"
	"github.com/noah-isme/edutrack-api/internal/utils"
)

// SemesterHandler wires semester routes.
type SemesterHandler struct {
	service service.SemesterService
	logger  zerolog.Logger
}

// NewSemesterHandler constructs the handler.
func NewSemesterHandler(service service.SemesterService, logger zerolog.Logger) *SemesterHandler {
	return &SemesterHandler{
		service: service,
		logger:  logger.With().Str("component", "semester_handler").Logger(),
	}
}

// Register attaches semester endpoints to the router group.
func (h *SemesterHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/current", h.current)
	router.Post("/select", h.selectSemester)
	router.Get("/:id", h.get)
	router.Post("", h.create)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Post("/:id/current", h.setCurrent)
}

func (h *SemesterHandler) list(c *fiber.Ctx) error {
	req, err := parseListRequest(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.service.List(c.UserContext(), middleware.IdentityFrom(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list semesters")
	}

	return utils.OK(c, result.Items, "semesters retrieved", result.Pagination)
}

func (h *SemesterHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	semester, err := h.service.Get(c.UserContext(), middleware.IdentityFrom(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load semester")
	}

	return utils.SendSuccess(c, "semester retrieved", semester)
}

func (h *SemesterHandler) current(c *fiber.Ctx) error {
	semester, err := h.service.Current(c.UserContext(), middleware.IdentityFrom(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load current semester")
	}

	return utils.SendSuccess(c, "current semester retrieved", semester)
}

func (h *SemesterHandler) create(c *fiber.Ctx) error {
	var payload dto.SemesterCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid payload")
	}

	semester, err := h.service.Create(c.UserContext(), middleware.IdentityFrom(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create semester")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "semester created", semester)
}

func (h *SemesterHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var payload dto.SemesterUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid payload")
	}

	semester, err := h.service.Update(c.UserContext(), middleware.IdentityFrom(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update semester")
	}

	return utils.SendSuccess(c, "semester updated", semester)
}

func (h *SemesterHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.service.Delete(c.UserContext(), middleware.IdentityFrom(c), id); err != nil {
		return respondError(c, h.logger, err, "failed to delete semester")
	}

	return utils.SendSuccess(c, "semester deactivated", fiber.Map{"id": id})
}

func (h *SemesterHandler) setCurrent(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	semester, err := h.service.SetCurrent(c.UserContext(), middleware.IdentityFrom(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to set current semester")
	}

	return utils.SendSuccess(c, "current semester updated", semester)
}

func (h *SemesterHandler) selectSemester(c *fiber.Ctx) error {
	var payload dto.SemesterSelectRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid payload")
	}

	user, err := h.service.Select(c.UserContext(), middleware.IdentityFrom(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to select semester")
	}

	return utils.SendSuccess(c, "semester selected", user)
}
