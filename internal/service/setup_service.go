package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/budget-calc-api/internal/models"
	appErrors "github.com/noah-isme/budget-calc-api/pkg/errors"
)

type setupUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

type setupRoleRepository interface {
	FindByName(ctx context.Context, name string) (*models.Role, error)
	Create(ctx context.Context, role *models.Role) error
	List(ctx context.Context) ([]models.Role, error)
	AssignUser(ctx context.Context, userID, roleID string) error
	RemoveUser(ctx context.Context, userID, roleID string) error
	RolesForUser(ctx context.Context, userID string) ([]models.Role, error)
}

// SetupService implements role administration: creating roles and
// managing role membership by user email.
type SetupService struct {
	users  setupUserRepository
	roles  setupRoleRepository
	logger *zap.Logger
}

// NewSetupService constructs a SetupService instance.
func NewSetupService(users setupUserRepository, roles setupRoleRepository, logger *zap.Logger) *SetupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SetupService{users: users, roles: roles, logger: logger}
}

// CreateRole adds a new named role. Duplicate names are rejected.
func (s *SetupService) CreateRole(ctx context.Context, name string) (*models.Role, error) {
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "role name is required")
	}

	if _, err := s.roles.FindByName(ctx, name); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("role %s already exists", name))
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up role")
	}

	role := &models.Role{Name: name}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create role")
	}

	s.logger.Info("role created", zap.String("role", name))
	return role, nil
}

// ListRoles returns every role.
func (s *SetupService) ListRoles(ctx context.Context) ([]models.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list roles")
	}
	return roles, nil
}

// ListUsers returns every registered user.
func (s *SetupService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, nil
}

// AddUserToRole grants the named role to the user with the given email.
func (s *SetupService) AddUserToRole(ctx context.Context, email, roleName string) error {
	user, role, err := s.resolve(ctx, email, roleName)
	if err != nil {
		return err
	}

	if err := s.roles.AssignUser(ctx, user.ID, role.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign role")
	}

	s.logger.Info("role assigned", zap.String("email", email), zap.String("role", roleName))
	return nil
}

// RemoveUserFromRole revokes the named role from the user.
func (s *SetupService) RemoveUserFromRole(ctx context.Context, email, roleName string) error {
	user, role, err := s.resolve(ctx, email, roleName)
	if err != nil {
		return err
	}

	if err := s.roles.RemoveUser(ctx, user.ID, role.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove role")
	}

	s.logger.Info("role removed", zap.String("email", email), zap.String("role", roleName))
	return nil
}

// UserRoles returns the role names held by the user with the given
// email.
func (s *SetupService) UserRoles(ctx context.Context, email string) ([]string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	roles, err := s.roles.RolesForUser(ctx, user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roles")
	}

	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	return names, nil
}

func (s *SetupService) resolve(ctx context.Context, email, roleName string) (*models.User, *models.Role, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	role, err := s.roles.FindByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "role not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role")
	}

	return user, role, nil
}
