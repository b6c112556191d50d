package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/coffee-service/internal/domain"
)

const credentialKeyPrefix = "credential:"

type cachedCredential struct {
	Login        string   `json:"login"`
	PasswordHash string   `json:"password_hash"`
	Authorities  []string `json:"authorities"`
}

type cachedCredentialRepository struct {
	next   CredentialRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedCredentialRepository puts a Redis read-through cache in front of next.
// Unknown logins are never cached and Redis failures fall back to next.
func NewCachedCredentialRepository(next CredentialRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) CredentialRepository {
	return &cachedCredentialRepository{next: next, client: client, ttl: ttl, logger: logger}
}

func (r *cachedCredentialRepository) Lookup(ctx context.Context, login string) (*domain.Credential, error) {
	key := credentialKeyPrefix + login

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached cachedCredential
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			return &domain.Credential{
				Login:        cached.Login,
				PasswordHash: cached.PasswordHash,
				Authorities:  nonNil(cached.Authorities),
			}, nil
		}
		r.logger.Warn("discarding unreadable cached credential", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("credential cache read failed", zap.Error(err))
	}

	cred, err := r.next.Lookup(ctx, login)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(cachedCredential{
		Login:        cred.Login,
		PasswordHash: cred.PasswordHash,
		Authorities:  cred.Authorities,
	})
	if err == nil {
		if setErr := r.client.Set(ctx, key, payload, r.ttl).Err(); setErr != nil {
			r.logger.Warn("credential cache write failed", zap.Error(setErr))
		}
	}
	return cred, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
