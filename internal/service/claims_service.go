package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/budget-calc-api/internal/models"
	appErrors "github.com/noah-isme/budget-calc-api/pkg/errors"
)

type claimsUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ClaimsForUser(ctx context.Context, userID string) ([]models.UserClaim, error)
	AddClaim(ctx context.Context, claim *models.UserClaim) error
}

type claimsRoleRepository interface {
	FindByName(ctx context.Context, name string) (*models.Role, error)
	ClaimsForRole(ctx context.Context, roleID string) ([]models.RoleClaim, error)
	AddClaim(ctx context.Context, claim *models.RoleClaim) error
}

// ClaimsService administers the user and role claims that feed token
// assembly. Claims attached here appear in every access token minted
// afterwards.
type ClaimsService struct {
	users  claimsUserRepository
	roles  claimsRoleRepository
	logger *zap.Logger
}

// NewClaimsService constructs a ClaimsService instance.
func NewClaimsService(users claimsUserRepository, roles claimsRoleRepository, logger *zap.Logger) *ClaimsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClaimsService{users: users, roles: roles, logger: logger}
}

// UserClaims returns the claims attached directly to the user with the
// given email.
func (s *ClaimsService) UserClaims(ctx context.Context, email string) ([]models.UserClaim, error) {
	user, err := s.findUser(ctx, email)
	if err != nil {
		return nil, err
	}

	claims, err := s.users.ClaimsForUser(ctx, user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user claims")
	}
	return claims, nil
}

// AddClaimToUser attaches a claim to the user with the given email.
func (s *ClaimsService) AddClaimToUser(ctx context.Context, email, claimType, value string) (*models.UserClaim, error) {
	if claimType == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "claim type is required")
	}

	user, err := s.findUser(ctx, email)
	if err != nil {
		return nil, err
	}

	// The admin surface rejects exact duplicates even though token
	// assembly happily carries repeated claims.
	existing, err := s.users.ClaimsForUser(ctx, user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user claims")
	}
	for _, c := range existing {
		if c.ClaimType == claimType && c.Value == value {
			return nil, appErrors.Clone(appErrors.ErrConflict, "user already has this claim")
		}
	}

	claim := &models.UserClaim{UserID: user.ID, ClaimType: claimType, Value: value}
	if err := s.users.AddClaim(ctx, claim); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add user claim")
	}

	s.logger.Info("user claim added", zap.String("email", email), zap.String("claim", claimType))
	return claim, nil
}

// RoleClaims returns the claims attached to the named role.
func (s *ClaimsService) RoleClaims(ctx context.Context, roleName string) ([]models.RoleClaim, error) {
	role, err := s.findRole(ctx, roleName)
	if err != nil {
		return nil, err
	}

	claims, err := s.roles.ClaimsForRole(ctx, role.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role claims")
	}
	return claims, nil
}

// AddClaimToRole attaches a claim to the named role. Every member
// inherits it.
func (s *ClaimsService) AddClaimToRole(ctx context.Context, roleName, claimType, value string) (*models.RoleClaim, error) {
	if claimType == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "claim type is required")
	}

	role, err := s.findRole(ctx, roleName)
	if err != nil {
		return nil, err
	}

	claim := &models.RoleClaim{RoleID: role.ID, ClaimType: claimType, Value: value}
	if err := s.roles.AddClaim(ctx, claim); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add role claim")
	}

	s.logger.Info("role claim added", zap.String("role", roleName), zap.String("claim", claimType))
	return claim, nil
}

func (s *ClaimsService) findUser(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

func (s *ClaimsService) findRole(ctx context.Context, roleName string) (*models.Role, error) {
	role, err := s.roles.FindByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "role not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role")
	}
	return role, nil
}
