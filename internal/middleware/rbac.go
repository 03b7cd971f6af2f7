package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/edutrack-api/internal/observability"
	"github.com/noah-isme/edutrack-api/internal/policy"
	"github.com/noah-isme/edutrack-api/internal/utils"
)

// RequireRole ensures that the authenticated user possesses one of the allowed roles.
// Route-level guards are coarse; the services still run the full policy check.
func RequireRole(roles ...policy.Role) fiber.Handler {
	allowed := make(map[policy.Role]struct{}, len(roles))
	for _, role := range roles {
		if parsed, ok := policy.ParseRole(string(role)); ok {
			allowed[parsed] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		role, _ := policy.ParseRole(normalizeRoleValue(c.Locals("user_role")))
		if _, ok := allowed[role]; !ok {
			observability.PolicyDenials().WithLabelValues("forbidden_role").Inc()
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}

func normalizeRoleValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.ToLower(strings.TrimSpace(v))
	case policy.Role:
		return strings.ToLower(strings.TrimSpace(string(v)))
	case fmt.Stringer:
		return strings.ToLower(strings.TrimSpace(v.String()))
	default:
		if value == nil {
			return ""
		}
		return strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", value)))
	}
}
