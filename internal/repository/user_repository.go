package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/budget-calc-api/internal/models"
)

// UserRepository provides database access for users and their direct
// claims.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = `SELECT id, email, username, password_hash, created_at FROM users WHERE email = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT id, email, username, password_hash, created_at FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO users (id, email, username, password_hash, created_at)
		VALUES (:id, :email, :username, :password_hash, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Delete removes a user permanently.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// List returns every user ordered by creation time.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	const query = `SELECT id, email, username, password_hash, created_at FROM users ORDER BY created_at`
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ClaimsForUser returns the user's direct claims in stored order.
func (r *UserRepository) ClaimsForUser(ctx context.Context, userID string) ([]models.UserClaim, error) {
	const query = `SELECT id, user_id, claim_type, claim_value, added_at
		FROM user_claims WHERE user_id = $1 ORDER BY id`
	var claims []models.UserClaim
	if err := r.db.SelectContext(ctx, &claims, query, userID); err != nil {
		return nil, fmt.Errorf("claims for user: %w", err)
	}
	return claims, nil
}

// AddClaim attaches a direct claim to a user.
func (r *UserRepository) AddClaim(ctx context.Context, claim *models.UserClaim) error {
	if claim.AddedAt.IsZero() {
		claim.AddedAt = time.Now().UTC()
	}
	const query = `INSERT INTO user_claims (user_id, claim_type, claim_value, added_at)
		VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		claim.UserID, claim.ClaimType, claim.Value, claim.AddedAt,
	).Scan(&claim.ID); err != nil {
		return fmt.Errorf("add user claim: %w", err)
	}
	return nil
}
