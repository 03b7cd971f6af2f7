package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/middleware"
	"github.com/noah-isme/edutrack-api/internal/observability"
	"github.com/noah-isme/edutrack-api/internal/policy"
	"github.com/noah-isme/edutrack-api/internal/rules"
	"github.com/noah-isme/edutrack-api/internal/service"
	"github.com/noah-isme/edutrack-api/internal/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// FieldError is the detail entry for a rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseQueryUint(c *fiber.Ctx, key string) (*uint, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return nil, errors.New("invalid " + key)
	}
	id := uint(parsed)
	return &id, nil
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	parsed, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

func parseListRequest(c *fiber.Ctx) (dto.ListRequest, error) {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return dto.ListRequest{}, errors.New("invalid page")
	}
	if page <= 0 {
		page = 1
	}

	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return dto.ListRequest{}, errors.New("invalid page size")
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	} else if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return dto.ListRequest{
		Page:     page,
		PageSize: pageSize,
		Search:   strings.TrimSpace(c.Query("search")),
	}, nil
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) zerolog.Logger {
	builder := base.With()
	if correlation := middleware.GetCorrelationID(c); correlation != "" {
		builder = builder.Str("correlation_id", correlation)
	}
	if userID, ok := c.Locals("user_id").(uint); ok {
		builder = builder.Uint("user_id", userID)
	}
	return builder.Logger()
}

// respondError maps service, policy and rule errors onto HTTP statuses.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error, failure string) error {
	var (
		conflict       *rules.ConflictError
		invalid        *rules.ValidationError
		validationErrs validator.ValidationErrors
	)

	switch {
	case errors.Is(err, policy.ErrUnauthenticated):
		observability.PolicyDenials().WithLabelValues("unauthenticated").Inc()
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	case errors.Is(err, policy.ErrForbiddenRole):
		observability.PolicyDenials().WithLabelValues("forbidden_role").Inc()
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	case errors.Is(err, policy.ErrForbiddenOwnership):
		observability.PolicyDenials().WithLabelValues("forbidden_ownership").Inc()
		return utils.SendError(c, fiber.StatusForbidden, "you do not own this resource")
	case errors.Is(err, service.ErrNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.As(err, &conflict):
		observability.RuleConflicts().WithLabelValues(conflict.Rule).Inc()
		return utils.Fail(c, fiber.StatusConflict, conflict.Message, conflict)
	case errors.As(err, &invalid):
		return utils.Fail(c, fiber.StatusBadRequest, invalid.Error(), []FieldError{{Field: invalid.Field, Message: invalid.Message}})
	case errors.As(err, &validationErrs):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", fieldErrors(validationErrs))
	case errors.Is(err, service.ErrInvalidCredentials):
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrAccountInactive):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrUploadTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrUploadTypeNotAllowed):
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, service.ErrUploadUnavailable):
		return utils.SendError(c, fiber.StatusServiceUnavailable, err.Error())
	default:
		reqLogger := requestLogger(logger, c)
		reqLogger.Error().Err(err).Msg(failure)
		return utils.SendError(c, fiber.StatusInternalServerError, failure)
	}
}

func fieldErrors(errs validator.ValidationErrors) []FieldError {
	details := make([]FieldError, 0, len(errs))
	for _, fe := range errs {
		details = append(details, FieldError{
			Field:   toSnake(fe.Field()),
			Message: "failed on the '" + fe.Tag() + "' rule",
		})
	}
	return details
}

func toSnake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !(name[i-1] >= 'A' && name[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func badRequest(c *fiber.Ctx, message string) error {
	return utils.SendError(c, fiber.StatusBadRequest, message)
}
