package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/appointment-service/pkg/util/errorutil"
)

// RequireAdmin rejects callers that did not present an operator token.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := ActorFromContext(c)
		if actor.IsAdmin() {
			return c.Next()
		}
		if c.Get(fiber.HeaderAuthorization) == "" {
			return apperrors.NewUnauthorized("missing authorization header")
		}
		return apperrors.NewForbidden("admin role required")
	}
}
