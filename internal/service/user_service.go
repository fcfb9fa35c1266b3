package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/budget-calc-api/internal/models"
	appErrors "github.com/noah-isme/budget-calc-api/pkg/errors"
)

type overviewUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

type overviewRoleRepository interface {
	RolesForUser(ctx context.Context, userID string) ([]models.Role, error)
}

type overviewMonthRepository interface {
	SummariesForUser(ctx context.Context, userID string) ([]models.MonthSummary, error)
}

// UserService builds the admin projections of users with their month
// summaries.
type UserService struct {
	users  overviewUserRepository
	roles  overviewRoleRepository
	months overviewMonthRepository
	logger *zap.Logger
}

// NewUserService constructs a UserService instance.
func NewUserService(users overviewUserRepository, roles overviewRoleRepository, months overviewMonthRepository, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, roles: roles, months: months, logger: logger}
}

// Overview returns a single user with their primary role and month
// summaries.
func (s *UserService) Overview(ctx context.Context, userID string) (*models.UserOverview, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	return s.buildOverview(ctx, user)
}

// ListOverviews returns the overview projection for every user.
func (s *UserService) ListOverviews(ctx context.Context) ([]models.UserOverview, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	overviews := make([]models.UserOverview, 0, len(users))
	for i := range users {
		overview, err := s.buildOverview(ctx, &users[i])
		if err != nil {
			return nil, err
		}
		overviews = append(overviews, *overview)
	}
	return overviews, nil
}

func (s *UserService) buildOverview(ctx context.Context, user *models.User) (*models.UserOverview, error) {
	roles, err := s.roles.RolesForUser(ctx, user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roles")
	}

	roleName := ""
	if len(roles) > 0 {
		roleName = roles[0].Name
	}

	summaries, err := s.months.SummariesForUser(ctx, user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load month summaries")
	}

	return &models.UserOverview{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     roleName,
		Months:   summaries,
	}, nil
}
