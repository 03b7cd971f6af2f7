package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/middleware"
	"github.com/noah-isme/edutrack-api/internal/service"
	"github.com/noah-isme/edutrack-api/internal/utils"
)

// AnnouncementHandler wires announcement routes.
type AnnouncementHandler struct {
	service service.AnnouncementService
	logger  zerolog.Logger
}

// NewAnnouncementHandler constructs the handler.
func NewAnnouncementHandler(service service.AnnouncementService, logger zerolog.Logger) *AnnouncementHandler {
	return &AnnouncementHandler{
		service: service,
		logger:  logger.With().Str("component", "announcement_handler").Logger(),
	}
}

// Register wires routes for announcements.
func (h *AnnouncementHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/unread-count", h.unreadCount)
	router.Get("/:id", h.get)
	router.Post("", h.create)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Post("/:id/read", h.markRead)
}

func (h *AnnouncementHandler) list(c *fiber.Ctx) error {
	base, err := parseListRequest(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	req := dto.AnnouncementListRequest{
		ListRequest: base,
		Type:        c.Query("type"),
		Priority:    c.Query("priority"),
	}
	result, err := h.service.List(c.UserContext(), middleware.IdentityFrom(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list announcements")
	}

	return utils.OK(c, result.Items, "announcements retrieved", result.Pagination)
}

func (h *AnnouncementHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	announcement, err := h.service.Get(c.UserContext(), middleware.IdentityFrom(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load announcement")
	}

	return utils.SendSuccess(c, "announcement retrieved", announcement)
}

func (h *AnnouncementHandler) create(c *fiber.Ctx) error {
	var payload dto.AnnouncementCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid payload")
	}

	announcement, err := h.service.Create(c.UserContext(), middleware.IdentityFrom(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create announcement")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "announcement created", announcement)
}

func (h *AnnouncementHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var payload dto.AnnouncementUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid payload")
	}

	announcement, err := h.service.Update(c.UserContext(), middleware.IdentityFrom(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update announcement")
	}

	return utils.SendSuccess(c, "announcement updated", announcement)
}

func (h *AnnouncementHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.service.Delete(c.UserContext(), middleware.IdentityFrom(c), id); err != nil {
		return respondError(c, h.logger, err, "failed to delete announcement")
	}

	return utils.SendSuccess(c, "announcement deleted", fiber.Map{"id": id})
}

func (h *AnnouncementHandler) markRead(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.service.MarkRead(c.UserContext(), middleware.IdentityFrom(c), id); err != nil {
		return respondError(c, h.logger, err, "failed to mark announcement as read")
	}

	return utils.SendSuccess(c, "announcement marked as read", fiber.Map{"id": id})
}

func (h *AnnouncementHandler) unreadCount(c *fiber.Ctx) error {
	count, err := h.service.UnreadCount(c.UserContext(), middleware.IdentityFrom(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to count unread announcements")
	}

	return utils.SendSuccess(c, "unread announcements counted", count)
}
