package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/coffee-service/internal/auth"
	"github.com/spec-kit/coffee-service/internal/domain"
	"github.com/spec-kit/coffee-service/internal/events"
	"github.com/spec-kit/coffee-service/internal/repository"
)

// timingHash is compared against when the login is unknown so that both
// failure paths cost one bcrypt comparison.
const timingHash = repository.FixtureHash

const (
	failureUnknownIdentity = "unknown_identity"
	failureWrongCredential = "wrong_credential"
)

// AuthService coordinates the login flow: credential lookup, password check
// and token issuance.
type AuthService struct {
	credentials repository.CredentialRepository
	issuer      *auth.TokenIssuer
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	CredentialRepo repository.CredentialRepository
	Issuer         *auth.TokenIssuer
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		credentials: deps.CredentialRepo,
		issuer:      deps.Issuer,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
	}
}

// Authenticate checks login/password and issues a token. Unknown logins and
// wrong passwords both return domain.ErrAuthenticationFailed; the distinction
// only reaches logs and audit events.
func (s *AuthService) Authenticate(ctx context.Context, login, password string, rememberMe bool) (domain.IssuedToken, error) {
	cred, err := s.credentials.Lookup(ctx, login)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownIdentity) {
			auth.VerifyPassword(password, timingHash)
			return domain.IssuedToken{}, s.fail(ctx, login, failureUnknownIdentity, err)
		}
		return domain.IssuedToken{}, fmt.Errorf("lookup credential: %w", err)
	}

	if !auth.VerifyPassword(password, cred.PasswordHash) {
		return domain.IssuedToken{}, s.fail(ctx, login, failureWrongCredential, domain.ErrWrongCredential)
	}

	issued, err := s.issuer.Issue(cred.Login, cred.Authorities, rememberMe)
	if err != nil {
		return domain.IssuedToken{}, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Debug("login succeeded", zap.String("login", cred.Login), zap.Bool("remember_me", rememberMe))
	s.publish(ctx, events.NewEvent(events.EventLoginSucceeded, cred.Login, events.LoginSucceededPayload{
		RememberMe: rememberMe,
		ExpiresAt:  issued.ExpiresAt,
	}))
	return issued, nil
}

func (s *AuthService) fail(ctx context.Context, login, reason string, cause error) error {
	s.logger.Debug("login failed", zap.String("login", login), zap.String("reason", reason))
	s.publish(ctx, events.NewEvent(events.EventLoginFailed, login, events.LoginFailedPayload{Reason: reason}))
	return fmt.Errorf("%w: %w", domain.ErrAuthenticationFailed, cause)
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
