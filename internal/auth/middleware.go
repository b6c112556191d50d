package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/coffee-service/internal/domain"
	"github.com/spec-kit/coffee-service/internal/events"
	"github.com/spec-kit/coffee-service/internal/observability"
)

const principalKey = "auth_principal"

// Gate reads a bearer token from the configured header and, when it verifies,
// establishes the principal for the rest of the request. It never rejects a
// request itself; RequireAuthenticated decides what anonymous callers may do.
type Gate struct {
	verifier   *TokenVerifier
	header     string
	logger     *zap.Logger
	dispatcher events.Dispatcher
}

// NewGate constructs middleware.
func NewGate(verifier *TokenVerifier, header string, logger *zap.Logger, dispatcher events.Dispatcher) *Gate {
	if header == "" {
		header = fiber.HeaderAuthorization
	}
	return &Gate{verifier: verifier, header: header, logger: logger, dispatcher: dispatcher}
}

// Handle is the fiber handler.
func (g *Gate) Handle(c *fiber.Ctx) error {
	token, ok := extractBearerToken(c.Get(g.header))
	if !ok {
		return c.Next()
	}

	principal, err := g.verifier.Verify(token)
	if err != nil {
		reason, _ := ReasonOf(err)
		g.logger.Debug("token rejected",
			zap.String("reason", reason.String()),
			zap.String("request_id", observability.RequestID(c)),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		if g.dispatcher != nil {
			event := events.NewEvent(events.EventTokenRejected, "", events.TokenRejectedPayload{
				Reason: reason.String(),
				Path:   c.Path(),
			})
			if pubErr := g.dispatcher.Publish(c.UserContext(), event); pubErr != nil {
				g.logger.Warn("publish token_rejected", zap.Error(pubErr))
			}
		}
		return c.Next()
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// extractBearerToken returns the token of a "Bearer <token>" header value.
// Any other shape counts as no token at all.
func extractBearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*domain.Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*domain.Principal)
	return principal, ok
}
