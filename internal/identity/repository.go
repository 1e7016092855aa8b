package identity

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/SixtySecondsApp/use60-sub018/internal/config"
	"github.com/SixtySecondsApp/use60-sub018/pkg/repository"
)

type claims struct {
	Email string `json:"email"`
}

type repo struct {
	db       *sql.DB
	verifier *oidc.IDTokenVerifier
	logger   *slog.Logger
}

// New creates an identity system. When auth is enabled, it performs OIDC
// provider discovery against the configured issuer up front so that
// misconfiguration fails at startup rather than on the first request.
func New(ctx context.Context, cfg *config.AuthConfig, db *sql.DB, logger *slog.Logger) (System, error) {
	r := &repo{
		db:     db,
		logger: logger.With("system", "identity"),
	}

	if cfg.Enabled {
		provider, err := oidc.NewProvider(ctx, cfg.Issuer)
		if err != nil {
			return nil, fmt.Errorf("oidc discovery for %s: %w", cfg.Issuer, err)
		}
		r.verifier = provider.Verifier(&oidc.Config{ClientID: cfg.Audience})
	}

	return r, nil
}

func (r *repo) Resolve(ctx context.Context, rawToken string) (*Identity, error) {
	subject, email, err := r.verify(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	memberQ := `
		SELECT u.id, m.org_id
		FROM users u
		JOIN org_memberships m ON m.user_id = u.id
		WHERE u.subject = $1 AND m.status = 'active'
		ORDER BY m.created_at ASC
		LIMIT 1`

	id, err := repository.QueryOne(ctx, r.db, memberQ, []any{subject},
		func(s repository.Scanner) (Identity, error) {
			var id Identity
			err := s.Scan(&id.UserID, &id.OrgID)
			return id, err
		})
	if err != nil {
		return nil, repository.MapError(err, ErrNoMembership, ErrNoMembership)
	}

	id.Email = email
	return &id, nil
}

// verify checks the bearer token. Without a verifier (auth disabled for local
// development) the raw token is taken as the subject directly.
func (r *repo) verify(ctx context.Context, rawToken string) (string, string, error) {
	if rawToken == "" {
		return "", "", ErrUnauthorized
	}

	if r.verifier == nil {
		return rawToken, "", nil
	}

	token, err := r.verifier.Verify(ctx, rawToken)
	if err != nil {
		r.logger.Warn("token verification failed", "error", err)
		return "", "", ErrUnauthorized
	}

	var c claims
	if err := token.Claims(&c); err != nil {
		return "", "", fmt.Errorf("%w: claims: %s", ErrUnauthorized, err)
	}

	return token.Subject, c.Email, nil
}
