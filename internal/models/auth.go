package models

// RegistrationRequest is the payload for POST /api/authManagement/Register.
type RegistrationRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest is the payload for POST /api/authManagement/Login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenRequest carries the expired access token together with the refresh
// token it was issued with.
type TokenRequest struct {
	Token        string `json:"token" validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// AuthResult is the wire shape shared by Register, Login and RefreshToken.
// Expected authentication failures are values, not Go errors: Success is
// false and Errors holds the human-readable reasons.
type AuthResult struct {
	Token        string   `json:"token,omitempty"`
	RefreshToken string   `json:"refreshToken,omitempty"`
	Success      bool     `json:"success"`
	Errors       []string `json:"errors,omitempty"`
}

// AuthFailure builds a failed AuthResult with the given reasons.
func AuthFailure(reasons ...string) *AuthResult {
	return &AuthResult{Success: false, Errors: reasons}
}
