package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/middleware"
	"github.com/noah-isme/edutrack-api/internal/service"
	"github.com/noah-isme/edutrack-api/internal/utils"
)

// CourseHandler wires course routes.
type CourseHandler struct {
	service service.CourseService
	logger  zerolog.Logger
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(service service.CourseService, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		service: service,
		logger:  logger.With().Str("component", "course_handler").Logger(),
	}
}

// Register attaches course endpoints to the router group.
func (h *CourseHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", h.create)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Post("/:id/enroll", h.enroll)
	router.Post("/:id/teacher", h.assignTeacher)
}

func (h *CourseHandler) list(c *fiber.Ctx) error {
	base, err := parseListRequest(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	semesterID, err := parseQueryUint(c, "semester_id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.service.List(c.UserContext(), middleware.IdentityFrom(c), dto.CourseListRequest{ListRequest: base, SemesterID: semesterID})
	if err != nil {
		return respondError(c, h.logger, err, "failed to list courses")
	}

	return utils.OK(c, result.Items, "courses retrieved", result.Pagination)
}

func (h *CourseHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	course, err := h.service.Get(c.UserContext(), middleware.IdentityFrom(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load course")
	}

	return utils.SendSuccess(c, "course retrieved", course)
}

func (h *CourseHandler) create(c *fiber.Ctx) error {
	var payload dto.CourseCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid payload")
	}

	course, err := h.service.Create(c.UserContext(), middleware.IdentityFrom(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create course")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course created", course)
}

func (h *CourseHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var payload dto.CourseUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid payload")
	}

	course, err := h.service.Update(c.UserContext(), middleware.IdentityFrom(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update course")
	}

	return utils.SendSuccess(c, "course updated", course)
}

func (h *CourseHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.service.Delete(c.UserContext(), middleware.IdentityFrom(c), id); err != nil {
		return respondError(c, h.logger, err, "failed to delete course")
	}

	return utils.SendSuccess(c, "course deactivated", fiber.Map{"id": id})
}

func (h *CourseHandler) enroll(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.service.Enroll(c.UserContext(), middleware.IdentityFrom(c), id); err != nil {
		return respondError(c, h.logger, err, "failed to enroll")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "enrolled", fiber.Map{"course_id": id})
}

func (h *CourseHandler) assignTeacher(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var payload dto.CourseAssignTeacherRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid payload")
	}

	course, err := h.service.AssignTeacher(c.UserContext(), middleware.IdentityFrom(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to assign teacher")
	}

	return utils.SendSuccess(c, "teacher assigned", course)
}
