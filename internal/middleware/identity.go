package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edutrack-api/internal/policy"
	"github.com/noah-isme/edutrack-api/internal/utils"
)

const identityKey = "identity"

// IdentityResolver loads the caller's relational data once per request.
type IdentityResolver interface {
	Resolve(ctx context.Context, userID uint) (policy.Identity, error)
}

// ResolveIdentity turns the authenticated user id into a policy identity and
// stores it on the request. It must run after JWTProtected.
func ResolveIdentity(resolver IdentityResolver, logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(uint)
		if userID == 0 {
			return unauthenticated(c, "authentication required")
		}

		identity, err := resolver.Resolve(c.UserContext(), userID)
		if err != nil {
			if errors.Is(err, policy.ErrUnauthenticated) {
				return unauthenticated(c, "account is not active")
			}
			logger.Error().Err(err).Uint("user_id", userID).Str("correlation_id", GetCorrelationID(c)).Msg("failed to resolve identity")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to resolve identity")
		}

		c.Locals(identityKey, identity)
		c.Locals("user_role", string(identity.Role))
		return c.Next()
	}
}

// IdentityFrom returns the identity stored by ResolveIdentity. Requests that
// never passed through it yield the zero identity, which the policy rejects.
func IdentityFrom(c *fiber.Ctx) policy.Identity {
	if identity, ok := c.Locals(identityKey).(policy.Identity); ok {
		return identity
	}
	return policy.Identity{}
}
