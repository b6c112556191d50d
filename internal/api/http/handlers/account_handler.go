package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/coffee-service/internal/api/dto"
	"github.com/spec-kit/coffee-service/internal/auth"
	apperrors "github.com/spec-kit/coffee-service/pkg/util/errorutil"
)

// AccountHandler reports who the caller is.
type AccountHandler struct{}

// NewAccountHandler constructs handler.
func NewAccountHandler() *AccountHandler {
	return &AccountHandler{}
}

// Get handles GET /api/account.
func (h *AccountHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	authorities := principal.Authorities
	if authorities == nil {
		authorities = []string{}
	}
	return c.JSON(dto.AccountResponse{Login: principal.Login, Authorities: authorities})
}
