package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/budget-calc-api/internal/models"
)

// TokenRepository is the durable store for issued refresh tokens, keyed by
// the opaque token string.
type TokenRepository struct {
	db *sqlx.DB
}

// NewTokenRepository creates a new instance of TokenRepository.
func NewTokenRepository(db *sqlx.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create inserts a refresh token row and backfills the generated id.
func (r *TokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	const query = `INSERT INTO refresh_tokens (user_id, token, jwt_id, used, revoked, added_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		token.UserID, token.Token, token.JwtID, token.Used, token.Revoked, token.AddedAt, token.ExpiresAt,
	).Scan(&token.ID); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindByToken returns the refresh token row matching the opaque token
// string exactly. Not-found surfaces as sql.ErrNoRows.
func (r *TokenRepository) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	const query = `SELECT id, user_id, token, jwt_id, used, revoked, added_at, expires_at
		FROM refresh_tokens WHERE token = $1 LIMIT 1`
	var rt models.RefreshToken
	if err := r.db.GetContext(ctx, &rt, query, token); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &rt, nil
}

// Consume flips the used flag for an unused token. The conditional update
// is the single-use guard: two concurrent refresh attempts race on the
// WHERE clause and exactly one sees an affected row.
func (r *TokenRepository) Consume(ctx context.Context, token string) (bool, error) {
	const query = `UPDATE refresh_tokens SET used = TRUE WHERE token = $1 AND used = FALSE`
	res, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return false, fmt.Errorf("consume refresh token: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("consume refresh token: rows affected: %w", err)
	}
	return affected == 1, nil
}

// Revoke marks a single token revoked. Rows are kept; revocation is the
// soft analogue of deletion.
func (r *TokenRepository) Revoke(ctx context.Context, token string) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1`
	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAllForUser revokes every live token a user holds.
func (r *TokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE WHERE user_id = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	return nil
}
