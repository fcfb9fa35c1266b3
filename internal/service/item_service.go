package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/budget-calc-api/internal/models"
	appErrors "github.com/noah-isme/budget-calc-api/pkg/errors"
)

type itemRepository interface {
	Create(ctx context.Context, item *models.Item) error
	FindByID(ctx context.Context, id int64) (*models.Item, error)
	List(ctx context.Context) ([]models.Item, error)
	ListForMonth(ctx context.Context, monthID int64, itemType models.ItemType) ([]models.Item, error)
	Update(ctx context.Context, item *models.Item) error
	Delete(ctx context.Context, id int64) error
}

type itemMonthRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Month, error)
}

type itemSummaryCache interface {
	Delete(ctx context.Context, keys ...string) error
}

// ItemService manages income and expense items. Every mutation
// invalidates the owning user's cached summaries.
type ItemService struct {
	items  itemRepository
	months itemMonthRepository
	cache  itemSummaryCache

	validator *validator.Validate
	logger    *zap.Logger
}

// NewItemService constructs an ItemService instance.
func NewItemService(items itemRepository, months itemMonthRepository, cache itemSummaryCache, validate *validator.Validate, logger *zap.Logger) *ItemService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ItemService{items: items, months: months, cache: cache, validator: validate, logger: logger}
}

// Create adds an item to a month.
func (s *ItemService) Create(ctx context.Context, req models.CreateItemRequest) (*models.Item, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid item payload")
	}

	month, err := s.months.FindByID(ctx, req.MonthID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "month not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load month")
	}

	item := &models.Item{
		MonthID:     req.MonthID,
		Type:        req.Type,
		Value:       *req.Value,
		Description: req.Description,
		CreatedBy:   req.CreatedBy,
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create item")
	}

	s.invalidate(ctx, month.UserID)
	return item, nil
}

// Get returns a single item.
func (s *ItemService) Get(ctx context.Context, id int64) (*models.Item, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load item")
	}
	return item, nil
}

// List returns every item. Admin view.
func (s *ItemService) List(ctx context.Context) ([]models.Item, error) {
	items, err := s.items.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list items")
	}
	return items, nil
}

// ListForMonth returns one month's items of the given type.
func (s *ItemService) ListForMonth(ctx context.Context, monthID int64, itemType models.ItemType) ([]models.Item, error) {
	items, err := s.items.ListForMonth(ctx, monthID, itemType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list month items")
	}
	return items, nil
}

// Update overwrites an item's value and description, recording who made
// the change.
func (s *ItemService) Update(ctx context.Context, id int64, req models.UpdateItemRequest) (*models.Item, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid item payload")
	}

	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	item.Value = *req.Value
	item.Description = req.Description
	item.CreatedBy = req.CreatedBy
	item.UpdatedAt = time.Now().UTC()

	if err := s.items.Update(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update item")
	}

	s.invalidateForMonth(ctx, item.MonthID)
	return item, nil
}

// Delete removes an item.
func (s *ItemService) Delete(ctx context.Context, id int64) error {
	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.items.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete item")
	}

	s.invalidateForMonth(ctx, item.MonthID)
	return nil
}

func (s *ItemService) invalidateForMonth(ctx context.Context, monthID int64) {
	month, err := s.months.FindByID(ctx, monthID)
	if err != nil {
		s.logger.Warn("cache invalidation lookup failed", zap.Int64("month_id", monthID), zap.Error(err))
		return
	}
	s.invalidate(ctx, month.UserID)
}

func (s *ItemService) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, summaryCacheKey(userID)); err != nil {
		s.logger.Warn("summary cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
}
