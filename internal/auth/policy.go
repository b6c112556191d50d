package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/coffee-service/pkg/util/errorutil"
)

// RequireAuthenticated lets a request through only when Gate established a
// principal. Preflight OPTIONS requests always pass.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodOptions {
			return c.Next()
		}
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
