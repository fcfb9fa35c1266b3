package models

import "time"

// Default role assigned to every registered user; "Immortal" members may
// administer roles and claims.
const (
	RoleMortal   = "Mortal"
	RoleImmortal = "Immortal"
)

// User represents an application user stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Role is a named group carrying its own claim set, inherited by members.
type Role struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// UserClaim is a claim attached directly to a user.
type UserClaim struct {
	ID        int64     `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	ClaimType string    `db:"claim_type" json:"claim_type"`
	Value     string    `db:"claim_value" json:"claim_value"`
	AddedAt   time.Time `db:"added_at" json:"added_at"`
}

// RoleClaim is a claim attached to a role and inherited by its members.
type RoleClaim struct {
	ID        int64     `db:"id" json:"id"`
	RoleID    string    `db:"role_id" json:"role_id"`
	ClaimType string    `db:"claim_type" json:"claim_type"`
	Value     string    `db:"claim_value" json:"claim_value"`
	AddedAt   time.Time `db:"added_at" json:"added_at"`
}

// UserOverview is the admin projection of a user with month summaries.
type UserOverview struct {
	ID       string         `json:"id"`
	Username string         `json:"username"`
	Email    string         `json:"email"`
	Role     string         `json:"role"`
	Months   []MonthSummary `json:"months"`
}
