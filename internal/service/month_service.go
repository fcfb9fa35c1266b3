package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/budget-calc-api/internal/models"
	"github.com/noah-isme/budget-calc-api/pkg/config"
	appErrors "github.com/noah-isme/budget-calc-api/pkg/errors"
	"github.com/noah-isme/budget-calc-api/pkg/export"
)

type monthRepository interface {
	Create(ctx context.Context, month *models.Month) error
	FindByID(ctx context.Context, id int64) (*models.Month, error)
	FindWithItems(ctx context.Context, id int64) (*models.MonthWithItems, error)
	ListWithItems(ctx context.Context) ([]models.MonthWithItems, error)
	SummariesForUser(ctx context.Context, userID string) ([]models.MonthSummary, error)
	DetailsForUser(ctx context.Context, userID string) ([]models.MonthDetail, error)
	Delete(ctx context.Context, id int64) error
}

type summaryCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type cacheMetrics interface {
	RecordCacheLookup(hit bool)
}

// MonthService manages months, their cached per-user summaries and
// statement exports.
type MonthService struct {
	months    monthRepository
	cache     summaryCache
	metrics   cacheMetrics
	exporters map[string]export.Exporter

	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewMonthService constructs a MonthService instance.
func NewMonthService(months monthRepository, cache summaryCache, metrics cacheMetrics, cfg config.SummaryConfig, validate *validator.Validate, logger *zap.Logger) *MonthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &MonthService{
		months:  months,
		cache:   cache,
		metrics: metrics,
		exporters: map[string]export.Exporter{
			"csv": export.NewCSVExporter(),
			"pdf": export.NewPDFExporter(),
		},
		validator: validate,
		logger:    logger,
		cacheTTL:  cfg.CacheTTL,
	}
}

func summaryCacheKey(userID string) string {
	return "summary:user:" + userID
}

// Create adds a month for a user and invalidates that user's cached
// summaries.
func (s *MonthService) Create(ctx context.Context, req models.CreateMonthRequest, createdBy string) (*models.Month, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid month payload")
	}

	month := &models.Month{
		MonthNum:  req.MonthNum,
		Year:      req.Year,
		UserID:    req.UserID,
		CreatedBy: createdBy,
	}
	if err := s.months.Create(ctx, month); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create month")
	}

	s.invalidateSummaries(ctx, req.UserID)
	return month, nil
}

// Get returns a month with its items.
func (s *MonthService) Get(ctx context.Context, id int64) (*models.MonthWithItems, error) {
	month, err := s.months.FindWithItems(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "month not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load month")
	}
	return month, nil
}

// List returns every month with items. Admin view.
func (s *MonthService) List(ctx context.Context) ([]models.MonthWithItems, error) {
	months, err := s.months.ListWithItems(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list months")
	}
	return months, nil
}

// SummariesForUser returns the aggregated per-month income/expense view
// for a user, served from cache when possible.
func (s *MonthService) SummariesForUser(ctx context.Context, userID string) ([]models.MonthSummary, error) {
	key := summaryCacheKey(userID)

	var cached []models.MonthSummary
	if s.cache != nil {
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheLookup(true)
			}
			return cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("summary cache read failed", zap.String("user_id", userID), zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.RecordCacheLookup(false)
		}
	}

	summaries, err := s.months.SummariesForUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load summaries")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, summaries, s.cacheTTL); err != nil {
			s.logger.Warn("summary cache write failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	return summaries, nil
}

// DetailsForUser returns summaries with their item arrays attached.
func (s *MonthService) DetailsForUser(ctx context.Context, userID string) ([]models.MonthDetail, error) {
	details, err := s.months.DetailsForUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load month details")
	}
	return details, nil
}

// Delete removes a month with its items and invalidates the owner's
// summaries.
func (s *MonthService) Delete(ctx context.Context, id int64) error {
	month, err := s.months.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "month not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load month")
	}

	if err := s.months.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete month")
	}

	s.invalidateSummaries(ctx, month.UserID)
	return nil
}

// ExportedStatement is a rendered month statement ready for download.
type ExportedStatement struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportStatement renders the month's items as a downloadable
// statement. Supported formats are "csv" and "pdf".
func (s *MonthService) ExportStatement(ctx context.Context, monthID int64, format string) (*ExportedStatement, error) {
	exporter, ok := s.exporters[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	month, err := s.Get(ctx, monthID)
	if err != nil {
		return nil, err
	}

	st := statementFor(month)
	content, err := exporter.Render(st)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render statement")
	}

	return &ExportedStatement{
		Content:     content,
		ContentType: exporter.ContentType(),
		Filename:    fmt.Sprintf("statement-%d-%02d.%s", month.Year, month.MonthNum, exporter.Extension()),
	}, nil
}

func statementFor(month *models.MonthWithItems) export.Statement {
	var income, expense float64
	rows := make([][]string, 0, len(month.Items))
	for _, item := range month.Items {
		kind := "expense"
		if item.Type == models.ItemIncome {
			kind = "income"
			income += item.Value
		} else {
			expense += item.Value
		}
		rows = append(rows, []string{
			kind,
			item.Description,
			strconv.FormatFloat(item.Value, 'f', 2, 64),
			item.CreatedAt.Format("2006-01-02"),
		})
	}

	return export.Statement{
		Title:   fmt.Sprintf("Statement %d-%02d", month.Year, month.MonthNum),
		Headers: []string{"Type", "Description", "Value", "Date"},
		Rows:    rows,
		Summary: map[string]string{
			"Income":  strconv.FormatFloat(income, 'f', 2, 64),
			"Expense": strconv.FormatFloat(expense, 'f', 2, 64),
			"Balance": strconv.FormatFloat(income-expense, 'f', 2, 64),
		},
	}
}

func (s *MonthService) invalidateSummaries(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, summaryCacheKey(userID)); err != nil {
		s.logger.Warn("summary cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
}
