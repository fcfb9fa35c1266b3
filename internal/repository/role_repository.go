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

// RoleRepository provides database access for roles, role claims and
// role membership.
type RoleRepository struct {
	db *sqlx.DB
}

// NewRoleRepository creates a new instance of RoleRepository.
func NewRoleRepository(db *sqlx.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// FindByName returns a role by its unique name.
func (r *RoleRepository) FindByName(ctx context.Context, name string) (*models.Role, error) {
	const query = `SELECT id, name, created_at FROM roles WHERE name = $1 LIMIT 1`
	var role models.Role
	if err := r.db.GetContext(ctx, &role, query, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find role by name: %w", err)
	}
	return &role, nil
}

// Create inserts a new role.
func (r *RoleRepository) Create(ctx context.Context, role *models.Role) error {
	if role.ID == "" {
		role.ID = uuid.NewString()
	}
	if role.CreatedAt.IsZero() {
		role.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO roles (id, name, created_at) VALUES (:id, :name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, role); err != nil {
		return fmt.Errorf("create role: %w", err)
	}
	return nil
}

// List returns every role ordered by creation time.
func (r *RoleRepository) List(ctx context.Context) ([]models.Role, error) {
	const query = `SELECT id, name, created_at FROM roles ORDER BY created_at`
	var roles []models.Role
	if err := r.db.SelectContext(ctx, &roles, query); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// AssignUser adds a user to a role.
func (r *RoleRepository) AssignUser(ctx context.Context, userID, roleID string) error {
	const query = `INSERT INTO user_roles (user_id, role_id, assigned_at) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, userID, roleID, time.Now().UTC()); err != nil {
		return fmt.Errorf("assign user to role: %w", err)
	}
	return nil
}

// RemoveUser removes a user from a role.
func (r *RoleRepository) RemoveUser(ctx context.Context, userID, roleID string) error {
	const query = `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, roleID); err != nil {
		return fmt.Errorf("remove user from role: %w", err)
	}
	return nil
}

// RolesForUser returns the roles a user holds, in assignment order. The
// ordering feeds straight into claim assembly, which must be
// deterministic.
func (r *RoleRepository) RolesForUser(ctx context.Context, userID string) ([]models.Role, error) {
	const query = `SELECT r.id, r.name, r.created_at
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY ur.assigned_at`
	var roles []models.Role
	if err := r.db.SelectContext(ctx, &roles, query, userID); err != nil {
		return nil, fmt.Errorf("roles for user: %w", err)
	}
	return roles, nil
}

// AddClaim attaches a claim to a role.
func (r *RoleRepository) AddClaim(ctx context.Context, claim *models.RoleClaim) error {
	if claim.AddedAt.IsZero() {
		claim.AddedAt = time.Now().UTC()
	}
	const query = `INSERT INTO role_claims (role_id, claim_type, claim_value, added_at)
		VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, claim.RoleID, claim.ClaimType, claim.Value, claim.AddedAt).Scan(&claim.ID); err != nil {
		return fmt.Errorf("add role claim: %w", err)
	}
	return nil
}

// ClaimsForRole returns the claims attached to a role in stored order.
func (r *RoleRepository) ClaimsForRole(ctx context.Context, roleID string) ([]models.RoleClaim, error) {
	const query = `SELECT id, role_id, claim_type, claim_value, added_at
		FROM role_claims WHERE role_id = $1 ORDER BY id`
	var claims []models.RoleClaim
	if err := r.db.SelectContext(ctx, &claims, query, roleID); err != nil {
		return nil, fmt.Errorf("claims for role: %w", err)
	}
	return claims, nil
}
