package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/coffee-service/internal/domain"
)

// CredentialRepository looks up stored credentials by login.
// Implementations return domain.ErrUnknownIdentity for logins they do not hold.
type CredentialRepository interface {
	Lookup(ctx context.Context, login string) (*domain.Credential, error)
}

type postgresCredentialRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresCredentialRepository returns a Postgres-backed implementation.
func NewPostgresCredentialRepository(pool *pgxpool.Pool) CredentialRepository {
	return &postgresCredentialRepository{pool: pool}
}

func (r *postgresCredentialRepository) Lookup(ctx context.Context, login string) (*domain.Credential, error) {
	const query = `
        SELECT login, password_hash, authorities
        FROM credentials WHERE login=$1`

	var cred domain.Credential
	if err := r.pool.QueryRow(ctx, query, login).Scan(
		&cred.Login,
		&cred.PasswordHash,
		&cred.Authorities,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUnknownIdentity
		}
		return nil, err
	}
	if cred.Authorities == nil {
		cred.Authorities = []string{}
	}
	return &cred, nil
}
