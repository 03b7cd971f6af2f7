package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/edutrack-api/internal/auth"
	"github.com/noah-isme/edutrack-api/internal/observability"
	"github.com/noah-isme/edutrack-api/internal/utils"
)

// JWTProtected returns a middleware that validates bearer tokens issued by issuer.
func JWTProtected(issuer *auth.Issuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get("Authorization")
		if authorization == "" {
			return unauthenticated(c, "authorization header missing")
		}

		const bearer = "Bearer "
		if len(authorization) < len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
			return unauthenticated(c, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return unauthenticated(c, "invalid token")
		}

		claims, err := issuer.Parse(tokenString)
		if err != nil {
			return unauthenticated(c, "invalid token")
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("user_role", strings.ToLower(claims.Role))

		return c.Next()
	}
}

func unauthenticated(c *fiber.Ctx, message string) error {
	observability.PolicyDenials().WithLabelValues("unauthenticated").Inc()
	return utils.SendError(c, fiber.StatusUnauthorized, message)
}
