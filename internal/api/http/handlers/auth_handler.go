package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/coffee-service/internal/api/dto"
	"github.com/spec-kit/coffee-service/internal/service"
	apperrors "github.com/spec-kit/coffee-service/pkg/util/errorutil"
)

// AuthHandler exposes the login endpoint.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Authenticate handles POST /api/authenticate.
func (h *AuthHandler) Authenticate(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return apperrors.NewValidationError("username and password required", nil)
	}

	issued, err := h.auth.Authenticate(c.UserContext(), req.Username, req.Password, req.RememberMe)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderAuthorization, "Bearer "+issued.Value)
	return c.JSON(dto.TokenResponse{IDToken: issued.Value})
}
