package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"studyhub/models"
)

// Resolver turns a verified session id into the owning user, refreshing the
// session's liveness metadata on the way.
type Resolver struct {
	db *sql.DB
}

func NewResolver(db *sql.DB) *Resolver {
	return &Resolver{db: db}
}

// Resolve refreshes last_seen/last_ip/last_user_agent and returns the owning
// user's public profile. The refresh and the user_id read are one statement,
// so a session revoked concurrently fails here rather than racing a separate
// lookup. The password hash is never loaded on this path.
func (r *Resolver) Resolve(ctx context.Context, sessionID int, ident Identity) (*models.User, error) {
	var userID int
	err := r.db.QueryRowContext(ctx, `
		UPDATE sessions
		SET last_seen = now(), last_ip = $2, last_user_agent = $3
		WHERE id = $1
		RETURNING user_id`,
		sessionID, ident.IP, ident.UserAgent).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("refreshing session: %w", err)
	}

	user := &models.User{}
	var accountType int
	err = r.db.QueryRowContext(ctx, `
		SELECT id, username, name, email, account_type, created_at, require_password_change
		FROM users
		WHERE id = $1`,
		userID).Scan(&user.ID, &user.Username, &user.Name, &user.Email,
		&accountType, &user.CreatedAt, &user.RequirePasswordChange)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session %d -> user %d", ErrIntegrity, sessionID, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	user.AccountType, err = models.AccountTypeFromInt(accountType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntegrity, err)
	}
	return user, nil
}
