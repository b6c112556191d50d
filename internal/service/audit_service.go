package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/coffee-service/internal/events"
	"github.com/spec-kit/coffee-service/internal/observability"
)

// AuditService records authentication events in the log and the counters.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventLoginSucceeded, a.handleLoginSucceeded)
	a.dispatcher.Subscribe(events.EventLoginFailed, a.handleLoginFailed)
	a.dispatcher.Subscribe(events.EventTokenRejected, a.handleTokenRejected)
}

func (a *AuditService) handleLoginSucceeded(_ context.Context, event events.Event) error {
	a.logger.Info("LoginSucceeded", zap.String("event_id", event.ID), zap.String("login", event.Login), zap.Any("payload", event.Payload))
	return nil
}

func (a *AuditService) handleLoginFailed(_ context.Context, event events.Event) error {
	reason := ""
	if p, ok := event.Payload.(events.LoginFailedPayload); ok {
		reason = p.Reason
	}
	a.metrics.RecordAuthFailure("login", reason)
	a.logger.Info("LoginFailed", zap.String("event_id", event.ID), zap.String("login", event.Login), zap.String("reason", reason))
	return nil
}

func (a *AuditService) handleTokenRejected(_ context.Context, event events.Event) error {
	reason := ""
	if p, ok := event.Payload.(events.TokenRejectedPayload); ok {
		reason = p.Reason
	}
	a.metrics.RecordAuthFailure("token", reason)
	a.logger.Debug("TokenRejected", zap.String("event_id", event.ID), zap.String("reason", reason))
	return nil
}
