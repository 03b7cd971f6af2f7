package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/middleware"
	"github.com/noah-isme/edutrack-api/internal/service"
	"github.com/noah-isme/edutrack-api/internal/utils"
)

// GradeHandler wires final course grade routes.
type GradeHandler struct {
	service service.GradeService
	logger  zerolog.Logger
}

// NewGradeHandler constructs the handler.
func NewGradeHandler(service service.GradeService, logger zerolog.Logger) *GradeHandler {
	return &GradeHandler{
		service: service,
		logger:  logger.With().Str("component", "grade_handler").Logger(),
	}
}

// Register attaches grade endpoints to the router group.
func (h *GradeHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.upsert)
	router.Put("", h.upsert)
}

func (h *GradeHandler) list(c *fiber.Ctx) error {
	base, err := parseListRequest(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	courseID, err := parseQueryUint(c, "course_id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	semesterID, err := parseQueryUint(c, "semester_id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	req := dto.GradeListRequest{ListRequest: base, CourseID: courseID, SemesterID: semesterID}
	result, err := h.service.List(c.UserContext(), middleware.IdentityFrom(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list grades")
	}

	return utils.OK(c, result.Items, "grades retrieved", result.Pagination)
}

func (h *GradeHandler) upsert(c *fiber.Ctx) error {
	var payload dto.GradeUpsertRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid payload")
	}

	grade, err := h.service.Upsert(c.UserContext(), middleware.IdentityFrom(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to record grade")
	}

	return utils.SendSuccess(c, "grade recorded", grade)
}
