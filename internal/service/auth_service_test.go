package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/budget-calc-api/internal/models"
	"github.com/noah-isme/budget-calc-api/pkg/config"
)

type fakeUserRepo struct {
	users      map[string]*models.User
	userClaims map[string][]models.UserClaim
	deleted    []string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User), userClaims: make(map[string][]models.UserClaim)}
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id string) error {
	delete(f.users, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeUserRepo) ClaimsForUser(ctx context.Context, userID string) ([]models.UserClaim, error) {
	return f.userClaims[userID], nil
}

type fakeRoleRepo struct {
	roles      map[string]*models.Role
	members    map[string][]string
	roleClaims map[string][]models.RoleClaim
}

func newFakeRoleRepo() *fakeRoleRepo {
	repo := &fakeRoleRepo{
		roles:      make(map[string]*models.Role),
		members:    make(map[string][]string),
		roleClaims: make(map[string][]models.RoleClaim),
	}
	repo.roles[models.RoleMortal] = &models.Role{ID: "role-mortal", Name: models.RoleMortal}
	return repo
}

func (f *fakeRoleRepo) FindByName(ctx context.Context, name string) (*models.Role, error) {
	role, ok := f.roles[name]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return role, nil
}

func (f *fakeRoleRepo) AssignUser(ctx context.Context, userID, roleID string) error {
	f.members[userID] = append(f.members[userID], roleID)
	return nil
}

func (f *fakeRoleRepo) RolesForUser(ctx context.Context, userID string) ([]models.Role, error) {
	var roles []models.Role
	for _, roleID := range f.members[userID] {
		for _, role := range f.roles {
			if role.ID == roleID {
				roles = append(roles, *role)
			}
		}
	}
	return roles, nil
}

func (f *fakeRoleRepo) ClaimsForRole(ctx context.Context, roleID string) ([]models.RoleClaim, error) {
	return f.roleClaims[roleID], nil
}

type fakeTokenRepo struct {
	tokens     map[string]*models.RefreshToken
	findCalls  int
	revokedFor []string
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*models.RefreshToken)}
}

func (f *fakeTokenRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	token.ID = int64(len(f.tokens) + 1)
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeTokenRepo) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	f.findCalls++
	rt, ok := f.tokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *rt
	return &copy, nil
}

func (f *fakeTokenRepo) Consume(ctx context.Context, token string) (bool, error) {
	rt, ok := f.tokens[token]
	if !ok || rt.Used {
		return false, nil
	}
	rt.Used = true
	return true, nil
}

func (f *fakeTokenRepo) Revoke(ctx context.Context, token string) error {
	rt, ok := f.tokens[token]
	if !ok {
		return sql.ErrNoRows
	}
	rt.Revoked = true
	return nil
}

func (f *fakeTokenRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	f.revokedFor = append(f.revokedFor, userID)
	for _, rt := range f.tokens {
		if rt.UserID == userID {
			rt.Revoked = true
		}
	}
	return nil
}

type fakeAudit struct {
	entries []*models.AuditLog
}

func (f *fakeAudit) Record(entry *models.AuditLog) {
	f.entries = append(f.entries, entry)
}

type authFixture struct {
	svc    *AuthService
	codec  *Codec
	users  *fakeUserRepo
	roles  *fakeRoleRepo
	tokens *fakeTokenRepo
	audit  *fakeAudit
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	cfg := config.JWTConfig{Secret: "test-secret", AccessTokenExpiry: time.Hour, RefreshTokenMonths: 2}
	codec := NewCodec(cfg)

	f := &authFixture{
		codec:  codec,
		users:  newFakeUserRepo(),
		roles:  newFakeRoleRepo(),
		tokens: newFakeTokenRepo(),
		audit:  &fakeAudit{},
	}
	f.svc = NewAuthService(f.users, f.roles, f.tokens, codec, f.audit, cfg, validator.New(), zap.NewNop())
	return f
}

func (f *authFixture) register(t *testing.T) *models.AuthResult {
	t.Helper()
	result, err := f.svc.Register(context.Background(), models.RegistrationRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	return result
}

func TestRegisterIssuesValidPair(t *testing.T) {
	f := newAuthFixture(t)
	result := f.register(t)

	assert.NotEmpty(t, result.Token)
	assert.NotEmpty(t, result.RefreshToken)

	decoded, err := f.codec.Decode(result.Token, DecodeOptions{ValidateExpiry: true})
	require.NoError(t, err)

	stored, ok := f.tokens.tokens[result.RefreshToken]
	require.True(t, ok)
	assert.Equal(t, decoded.Claims.JTI(), stored.JwtID)
	assert.False(t, stored.Used)
	assert.False(t, stored.Revoked)

	email, _ := decoded.Claims.Get(models.ClaimEmail)
	sub, _ := decoded.Claims.Get(models.ClaimSubject)
	assert.Equal(t, "alice@example.com", email)
	assert.Equal(t, email, sub)
	assert.Equal(t, []string{models.RoleMortal}, decoded.Claims.All(models.ClaimRole))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t)

	result, err := f.svc.Register(context.Background(), models.RegistrationRequest{
		Username: "alice2",
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, []string{ReasonEmailInUse}, result.Errors)
}

func TestRegisterClaimOrder(t *testing.T) {
	f := newAuthFixture(t)
	f.roles.roleClaims["role-mortal"] = []models.RoleClaim{
		{RoleID: "role-mortal", ClaimType: "scope", Value: "read"},
		{RoleID: "role-mortal", ClaimType: "scope", Value: "write"},
	}

	result := f.register(t)
	decoded, err := f.codec.Decode(result.Token, DecodeOptions{})
	require.NoError(t, err)

	types := make([]string, 0, len(decoded.Claims.Claims))
	for _, c := range decoded.Claims.Claims {
		types = append(types, c.Type)
	}
	assert.Equal(t, []string{
		models.ClaimID, models.ClaimEmail, models.ClaimSubject, models.ClaimJTI,
		models.ClaimRole, "scope", "scope",
	}, types)
	assert.Equal(t, []string{"read", "write"}, decoded.Claims.All("scope"))
}

func TestLoginUnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	result, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, []string{ReasonInvalidLoginRequest}, result.Errors)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.DefaultCost)
	user := &models.User{ID: "u1", Email: "bob@example.com", PasswordHash: string(hash)}
	f.users.users[user.ID] = user

	result, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "bob@example.com", Password: "wrong-password"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, []string{ReasonInvalidPassword}, result.Errors)
}

func TestLoginSuccess(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t)

	result, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.Token)
	assert.Len(t, f.tokens.tokens, 2)
}

func TestRefreshRejectsUnexpiredAccessToken(t *testing.T) {
	f := newAuthFixture(t)
	pair := f.register(t)

	result := f.svc.Refresh(context.Background(), models.TokenRequest{Token: pair.Token, RefreshToken: pair.RefreshToken})
	assert.False(t, result.Success)
	assert.Equal(t, []string{ReasonTokenNotExpired}, result.Errors)
	// the chain stopped before any storage lookup
	assert.Zero(t, f.tokens.findCalls)
}

func TestRefreshHappyPathAndSingleUse(t *testing.T) {
	f := newAuthFixture(t)
	pair := f.register(t)

	// jump past the access token's lifetime
	f.svc.timeSource = func() time.Time { return time.Now().Add(2 * time.Hour) }

	result := f.svc.Refresh(context.Background(), models.TokenRequest{Token: pair.Token, RefreshToken: pair.RefreshToken})
	require.True(t, result.Success)
	assert.NotEmpty(t, result.Token)
	assert.NotEqual(t, pair.RefreshToken, result.RefreshToken)

	assert.True(t, f.tokens.tokens[pair.RefreshToken].Used)

	// replaying the consumed pair fails as used
	replay := f.svc.Refresh(context.Background(), models.TokenRequest{Token: pair.Token, RefreshToken: pair.RefreshToken})
	assert.False(t, replay.Success)
	assert.Equal(t, []string{ReasonTokenUsed}, replay.Errors)
}

func TestRefreshMalformedAccessToken(t *testing.T) {
	f := newAuthFixture(t)
	pair := f.register(t)

	result := f.svc.Refresh(context.Background(), models.TokenRequest{Token: "not.a.jwt", RefreshToken: pair.RefreshToken})
	assert.False(t, result.Success)
	assert.Equal(t, []string{ReasonInvalidToken}, result.Errors)
	assert.Zero(t, f.tokens.findCalls)
}

func TestRefreshUnknownRefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	pair := f.register(t)
	f.svc.timeSource = func() time.Time { return time.Now().Add(2 * time.Hour) }

	result := f.svc.Refresh(context.Background(), models.TokenRequest{Token: pair.Token, RefreshToken: "unknown-refresh-token"})
	assert.False(t, result.Success)
	assert.Equal(t, []string{ReasonTokenNotFound}, result.Errors)
}

func TestRefreshRevokedToken(t *testing.T) {
	f := newAuthFixture(t)
	pair := f.register(t)
	f.svc.timeSource = func() time.Time { return time.Now().Add(2 * time.Hour) }

	f.tokens.tokens[pair.RefreshToken].Revoked = true

	result := f.svc.Refresh(context.Background(), models.TokenRequest{Token: pair.Token, RefreshToken: pair.RefreshToken})
	assert.False(t, result.Success)
	assert.Equal(t, []string{ReasonTokenRevoked}, result.Errors)
}

func TestRefreshRejectsNonHS256Token(t *testing.T) {
	f := newAuthFixture(t)
	pair := f.register(t)

	decoded, err := f.codec.Decode(pair.Token, DecodeOptions{ValidateExpiry: false})
	require.NoError(t, err)

	// re-sign the same claims with another HMAC variant: the signature
	// verifies, the algorithm check must still refuse it before any
	// storage lookup happens
	resigned, err := jwt.NewWithClaims(jwt.SigningMethodHS384, decoded.Claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	result := f.svc.Refresh(context.Background(), models.TokenRequest{Token: resigned, RefreshToken: pair.RefreshToken})
	assert.False(t, result.Success)
	assert.Equal(t, []string{ReasonInvalidToken}, result.Errors)
	assert.Zero(t, f.tokens.findCalls)
}

func TestRevokeRefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	pair := f.register(t)

	require.NoError(t, f.svc.RevokeRefreshToken(context.Background(), pair.RefreshToken))
	assert.True(t, f.tokens.tokens[pair.RefreshToken].Revoked)

	f.svc.timeSource = func() time.Time { return time.Now().Add(2 * time.Hour) }
	result := f.svc.Refresh(context.Background(), models.TokenRequest{Token: pair.Token, RefreshToken: pair.RefreshToken})
	assert.False(t, result.Success)
	assert.Equal(t, []string{ReasonTokenRevoked}, result.Errors)
}

func TestRevokeUnknownRefreshToken(t *testing.T) {
	f := newAuthFixture(t)

	err := f.svc.RevokeRefreshToken(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestRefreshMismatchedPair(t *testing.T) {
	f := newAuthFixture(t)
	first := f.register(t)

	second, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)
	require.True(t, second.Success)

	f.svc.timeSource = func() time.Time { return time.Now().Add(2 * time.Hour) }

	// the first access token paired with the second refresh token
	result := f.svc.Refresh(context.Background(), models.TokenRequest{Token: first.Token, RefreshToken: second.RefreshToken})
	assert.False(t, result.Success)
	assert.Equal(t, []string{ReasonTokenMismatch}, result.Errors)
}

func TestRefreshExpiredRefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	pair := f.register(t)

	f.svc.timeSource = func() time.Time { return time.Now().Add(2 * time.Hour) }
	f.tokens.tokens[pair.RefreshToken].ExpiresAt = time.Now().Add(-time.Minute)

	result := f.svc.Refresh(context.Background(), models.TokenRequest{Token: pair.Token, RefreshToken: pair.RefreshToken})
	assert.False(t, result.Success)
	assert.Equal(t, []string{ReasonRefreshExpired}, result.Errors)
}

func TestRefreshExpiryExactlyNow(t *testing.T) {
	f := newAuthFixture(t)
	pair := f.register(t)

	// an expiry of exactly now is already dead, not still alive
	now := time.Now().Add(2 * time.Hour)
	f.svc.timeSource = func() time.Time { return now }
	f.tokens.tokens[pair.RefreshToken].ExpiresAt = now.UTC()

	result := f.svc.Refresh(context.Background(), models.TokenRequest{Token: pair.Token, RefreshToken: pair.RefreshToken})
	assert.False(t, result.Success)
	assert.Equal(t, []string{ReasonRefreshExpired}, result.Errors)
	assert.False(t, f.tokens.tokens[pair.RefreshToken].Used)
}

func TestRefreshCollapsesUnexpectedErrors(t *testing.T) {
	f := newAuthFixture(t)
	pair := f.register(t)

	f.svc.timeSource = func() time.Time { return time.Now().Add(2 * time.Hour) }
	// orphan the stored token so loading its owner blows up mid-exchange
	f.tokens.tokens[pair.RefreshToken].UserID = "gone"

	result := f.svc.Refresh(context.Background(), models.TokenRequest{Token: pair.Token, RefreshToken: pair.RefreshToken})
	assert.False(t, result.Success)
	assert.Equal(t, []string{ReasonInvalidTokens}, result.Errors)
}

func TestRefreshTokenLifetime(t *testing.T) {
	f := newAuthFixture(t)
	pair := f.register(t)

	stored := f.tokens.tokens[pair.RefreshToken]
	expected := stored.AddedAt.AddDate(0, 2, 0)
	assert.Equal(t, expected, stored.ExpiresAt)
}

func TestDeleteUser(t *testing.T) {
	f := newAuthFixture(t)
	pair := f.register(t)

	decoded, err := f.codec.Decode(pair.Token, DecodeOptions{})
	require.NoError(t, err)
	userID, _ := decoded.Claims.Get(models.ClaimID)

	require.NoError(t, f.svc.DeleteUser(context.Background(), userID))

	assert.Equal(t, []string{userID}, f.tokens.revokedFor)
	assert.Equal(t, []string{userID}, f.users.deleted)
	assert.True(t, f.tokens.tokens[pair.RefreshToken].Revoked)
}

func TestRegisterInvalidPayload(t *testing.T) {
	f := newAuthFixture(t)

	result, err := f.svc.Register(context.Background(), models.RegistrationRequest{
		Username: "alice",
		Email:    "not-an-email",
		Password: "short",
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, []string{ReasonInvalidPayload}, result.Errors)
}
