package models

import "time"

// RefreshToken is the persisted half of an access/refresh pair. The JwtID
// field back-references the jti claim of the access token minted alongside
// it; the pair is validated against each other during a refresh exchange.
// Rows are never deleted by the application — revocation is the soft
// analogue of deletion.
type RefreshToken struct {
	ID        int64     `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Token     string    `db:"token" json:"token"`
	JwtID     string    `db:"jwt_id" json:"jwt_id"`
	Used      bool      `db:"used" json:"used"`
	Revoked   bool      `db:"revoked" json:"revoked"`
	AddedAt   time.Time `db:"added_at" json:"added_at"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
}
