package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/coffee-service/internal/observability"
	apperrors "github.com/spec-kit/coffee-service/pkg/util/errorutil"
)

// RegisterMiddlewares attaches the request logger, the error envelope and the
// optional per-request deadline, in that order.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// errorHandlingMiddleware renders every error as {"error":{"code","message"}}.
// Authentication failures carry a bearer challenge and nothing else; the
// specific reason only ever reaches the logs.
func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err == nil {
				return
			}

			domainErr := apperrors.ToDomainError(err)
			metrics.RecordError(observability.RouteLabel(c, domainErr.HTTPStatus), c.Method(), domainErr.Code)

			switch {
			case domainErr.HTTPStatus >= fiber.StatusInternalServerError:
				logger.Error("request failed",
					zap.String("request_id", observability.RequestID(c)),
					zap.Error(domainErr))
			case domainErr.HTTPStatus == fiber.StatusUnauthorized:
				c.Set(fiber.HeaderWWWAuthenticate, `Bearer realm="api"`)
			}

			body := fiber.Map{
				"code":    domainErr.Code,
				"message": domainErr.Message,
			}
			if len(domainErr.Details) > 0 {
				body["details"] = domainErr.Details
			}
			c.Status(domainErr.HTTPStatus)
			_ = c.JSON(fiber.Map{"error": body})
			err = nil
		}()
		return c.Next()
	}
}
