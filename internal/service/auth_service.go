package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/budget-calc-api/internal/models"
	"github.com/noah-isme/budget-calc-api/pkg/config"
)

// Failure reasons returned to clients through AuthResult.Errors. These
// are values, not Go errors: an expected authentication failure is a
// normal outcome of the protocol.
const (
	ReasonInvalidPayload      = "Invalid payload"
	ReasonEmailInUse          = "Email already in use"
	ReasonInvalidLoginRequest = "Invalid login request"
	ReasonInvalidPassword     = "Invalid password"
	ReasonInvalidToken        = "Invalid token"
	ReasonTokenNotExpired     = "Token has not yet expired"
	ReasonTokenNotFound       = "Token does not exist"
	ReasonTokenUsed           = "Token has been used"
	ReasonTokenRevoked        = "Token has been revoked"
	ReasonTokenMismatch       = "Token doesn't match"
	ReasonRefreshExpired      = "Refresh token has expired"
	ReasonInvalidTokens       = "Invalid tokens"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	ClaimsForUser(ctx context.Context, userID string) ([]models.UserClaim, error)
}

type authRoleRepository interface {
	FindByName(ctx context.Context, name string) (*models.Role, error)
	AssignUser(ctx context.Context, userID, roleID string) error
	RolesForUser(ctx context.Context, userID string) ([]models.Role, error)
	ClaimsForRole(ctx context.Context, roleID string) ([]models.RoleClaim, error)
}

type authTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	Consume(ctx context.Context, token string) (bool, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

type auditRecorder interface {
	Record(entry *models.AuditLog)
}

// AuthService implements registration, login and the refresh token
// exchange.
type AuthService struct {
	users  authUserRepository
	roles  authRoleRepository
	tokens authTokenRepository
	codec  *Codec
	audit  auditRecorder

	validator     *validator.Validate
	logger        *zap.Logger
	refreshMonths int
	timeSource    func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserRepository, roles authRoleRepository, tokens authTokenRepository, codec *Codec, audit auditRecorder, cfg config.JWTConfig, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{
		users:         users,
		roles:         roles,
		tokens:        tokens,
		codec:         codec,
		audit:         audit,
		validator:     validate,
		logger:        logger,
		refreshMonths: cfg.RefreshTokenMonths,
		timeSource:    time.Now,
	}
}

// Register creates a new user, grants the default role and issues the
// first token pair.
func (s *AuthService) Register(ctx context.Context, req models.RegistrationRequest) (*models.AuthResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.AuthFailure(ReasonInvalidPayload), nil
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return models.AuthFailure(ReasonEmailInUse), nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.grantDefaultRole(ctx, user.ID); err != nil {
		return nil, err
	}

	result, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	s.recordAudit(user.ID, models.AuditActionRegister, `{"status":"registered"}`)
	return result, nil
}

// Login authenticates an existing user and issues a fresh token pair.
// Unknown emails and wrong passwords are reported with distinct
// reasons.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.AuthFailure(ReasonInvalidPayload), nil
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.AuthFailure(ReasonInvalidLoginRequest), nil
		}
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return models.AuthFailure(ReasonInvalidPassword), nil
	}

	result, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	s.recordAudit(user.ID, models.AuditActionLogin, `{"status":"success"}`)
	return result, nil
}

// Refresh exchanges an expired access token plus its refresh token for
// a brand new pair. Expected failures come back as AuthResult reasons;
// anything unexpected is logged and collapsed into a generic failure so
// that internal details never leak to the caller.
func (s *AuthService) Refresh(ctx context.Context, req models.TokenRequest) *models.AuthResult {
	if err := s.validator.Struct(req); err != nil {
		return models.AuthFailure(ReasonInvalidPayload)
	}

	result, err := s.verifyAndSwap(ctx, req)
	if err != nil {
		s.logger.Error("refresh token exchange failed", zap.Error(err))
		return models.AuthFailure(ReasonInvalidTokens)
	}
	return result
}

// verifyAndSwap runs the verification chain in order. Each check has a
// fixed failure reason; a failed check stops the chain immediately, so
// no later check (or its storage access) runs.
func (s *AuthService) verifyAndSwap(ctx context.Context, req models.TokenRequest) (*models.AuthResult, error) {
	now := s.timeSource().UTC()

	// 1 & 2: the access token must parse, carry a valid signature and
	// be signed with HS256. Expiry is deliberately not validated here.
	decoded, err := s.codec.Decode(req.Token, DecodeOptions{ValidateExpiry: false})
	if err != nil {
		switch {
		case errors.Is(err, ErrMalformedToken),
			errors.Is(err, ErrBadSignature),
			errors.Is(err, ErrUnsupportedAlgorithm):
			return models.AuthFailure(ReasonInvalidToken), nil
		default:
			return nil, err
		}
	}
	if !strings.EqualFold(decoded.Algorithm, "HS256") {
		return models.AuthFailure(ReasonInvalidToken), nil
	}

	// 3: only an already-expired access token may be refreshed.
	if decoded.Claims.ExpiresAt.IsZero() {
		return nil, errors.New("access token carries no expiry claim")
	}
	if decoded.Claims.ExpiresAt.After(now) {
		return models.AuthFailure(ReasonTokenNotExpired), nil
	}

	// 4: the refresh token must be on record.
	stored, err := s.tokens.FindByToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.AuthFailure(ReasonTokenNotFound), nil
		}
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}

	// 5 & 6: single use, and revocation wins over everything after it.
	if stored.Used {
		return models.AuthFailure(ReasonTokenUsed), nil
	}
	if stored.Revoked {
		return models.AuthFailure(ReasonTokenRevoked), nil
	}

	// 7: the refresh token is bound to exactly one access token via jti.
	if stored.JwtID != decoded.Claims.JTI() {
		return models.AuthFailure(ReasonTokenMismatch), nil
	}

	// 8: the refresh token itself must still be alive: its expiry has
	// to lie strictly in the future, an expiry of exactly now is dead.
	if !stored.ExpiresAt.After(now) {
		return models.AuthFailure(ReasonRefreshExpired), nil
	}

	// Consume is conditional on used = FALSE, so under concurrent
	// exchanges exactly one caller wins; the others see it as used.
	consumed, err := s.tokens.Consume(ctx, stored.Token)
	if err != nil {
		return nil, fmt.Errorf("consume refresh token: %w", err)
	}
	if !consumed {
		return models.AuthFailure(ReasonTokenUsed), nil
	}

	user, err := s.users.FindByID(ctx, stored.UserID)
	if err != nil {
		return nil, fmt.Errorf("load token owner: %w", err)
	}

	result, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	s.recordAudit(user.ID, models.AuditActionRefresh, `{"status":"rotated"}`)
	return result, nil
}

// DeleteUser removes the account and revokes every refresh token it
// still holds.
func (s *AuthService) DeleteUser(ctx context.Context, userID string) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sql.ErrNoRows
		}
		return fmt.Errorf("load user: %w", err)
	}

	if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.recordAudit(userID, models.AuditActionUserDelete, `{"status":"deleted"}`)
	return nil
}

// RevokeRefreshToken marks a single refresh token revoked. The row
// stays on record so a later exchange attempt surfaces the revocation
// instead of "does not exist".
func (s *AuthService) RevokeRefreshToken(ctx context.Context, token string) error {
	stored, err := s.tokens.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sql.ErrNoRows
		}
		return fmt.Errorf("lookup refresh token: %w", err)
	}

	if err := s.tokens.Revoke(ctx, stored.Token); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	s.recordAudit(stored.UserID, models.AuditActionTokenRevoke, `{"status":"revoked"}`)
	return nil
}

// issueTokenPair mints a signed access token and persists the matching
// refresh token.
func (s *AuthService) issueTokenPair(ctx context.Context, user *models.User) (*models.AuthResult, error) {
	claims, err := s.buildClaims(ctx, user)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.codec.Encode(claims)
	if err != nil {
		return nil, err
	}

	refreshValue, err := newRefreshTokenValue()
	if err != nil {
		return nil, err
	}

	now := s.timeSource().UTC()
	refresh := &models.RefreshToken{
		UserID:    user.ID,
		Token:     refreshValue,
		JwtID:     claims.JTI(),
		AddedAt:   now,
		ExpiresAt: now.AddDate(0, s.refreshMonths, 0),
	}
	if err := s.tokens.Create(ctx, refresh); err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}

	return &models.AuthResult{
		Token:        accessToken,
		RefreshToken: refresh.Token,
		Success:      true,
	}, nil
}

// buildClaims assembles the ordered claim set: the fixed identity
// claims first, then the user's own claims, then per role a "role"
// claim followed by that role's claims. Duplicates are kept as-is.
func (s *AuthService) buildClaims(ctx context.Context, user *models.User) (*models.ClaimSet, error) {
	claims := &models.ClaimSet{}
	claims.Add(models.ClaimID, user.ID)
	claims.Add(models.ClaimEmail, user.Email)
	claims.Add(models.ClaimSubject, user.Email)
	claims.Add(models.ClaimJTI, uuid.NewString())

	userClaims, err := s.users.ClaimsForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load user claims: %w", err)
	}
	for _, c := range userClaims {
		claims.Add(c.ClaimType, c.Value)
	}

	roles, err := s.roles.RolesForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	for _, role := range roles {
		claims.Add(models.ClaimRole, role.Name)

		roleClaims, err := s.roles.ClaimsForRole(ctx, role.ID)
		if err != nil {
			return nil, fmt.Errorf("load role claims: %w", err)
		}
		for _, c := range roleClaims {
			claims.Add(c.ClaimType, c.Value)
		}
	}

	return claims, nil
}

func (s *AuthService) grantDefaultRole(ctx context.Context, userID string) error {
	role, err := s.roles.FindByName(ctx, models.RoleMortal)
	if err != nil {
		return fmt.Errorf("find default role: %w", err)
	}
	if err := s.roles.AssignUser(ctx, userID, role.ID); err != nil {
		return fmt.Errorf("assign default role: %w", err)
	}
	return nil
}

func (s *AuthService) recordAudit(userID, action, detail string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(&models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "auth",
		ResourceID: &userID,
		Detail:     detail,
	})
}
