package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/budget-calc-api/internal/models"
	"github.com/noah-isme/budget-calc-api/pkg/config"
	appErrors "github.com/noah-isme/budget-calc-api/pkg/errors"
)

type fakeMonthRepo struct {
	months       map[int64]*models.MonthWithItems
	summaries    map[string][]models.MonthSummary
	summaryCalls int
	nextID       int64
}

func newFakeMonthRepo() *fakeMonthRepo {
	return &fakeMonthRepo{
		months:    make(map[int64]*models.MonthWithItems),
		summaries: make(map[string][]models.MonthSummary),
	}
}

func (f *fakeMonthRepo) Create(ctx context.Context, month *models.Month) error {
	f.nextID++
	month.ID = f.nextID
	f.months[month.ID] = &models.MonthWithItems{Month: *month, Items: []models.Item{}}
	return nil
}

func (f *fakeMonthRepo) FindByID(ctx context.Context, id int64) (*models.Month, error) {
	m, ok := f.months[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	month := m.Month
	return &month, nil
}

func (f *fakeMonthRepo) FindWithItems(ctx context.Context, id int64) (*models.MonthWithItems, error) {
	m, ok := f.months[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return m, nil
}

func (f *fakeMonthRepo) ListWithItems(ctx context.Context) ([]models.MonthWithItems, error) {
	var out []models.MonthWithItems
	for _, m := range f.months {
		out = append(out, *m)
	}
	return out, nil
}

func (f *fakeMonthRepo) SummariesForUser(ctx context.Context, userID string) ([]models.MonthSummary, error) {
	f.summaryCalls++
	return f.summaries[userID], nil
}

func (f *fakeMonthRepo) DetailsForUser(ctx context.Context, userID string) ([]models.MonthDetail, error) {
	return nil, nil
}

func (f *fakeMonthRepo) Delete(ctx context.Context, id int64) error {
	delete(f.months, id)
	return nil
}

type fakeSummaryCache struct {
	values  map[string][]models.MonthSummary
	deleted []string
}

func newFakeSummaryCache() *fakeSummaryCache {
	return &fakeSummaryCache{values: make(map[string][]models.MonthSummary)}
}

func (f *fakeSummaryCache) Get(ctx context.Context, key string, dest interface{}) error {
	v, ok := f.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*dest.(*[]models.MonthSummary) = v
	return nil
}

func (f *fakeSummaryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.values[key] = value.([]models.MonthSummary)
	return nil
}

func (f *fakeSummaryCache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
		f.deleted = append(f.deleted, key)
	}
	return nil
}

func newMonthService(repo *fakeMonthRepo, cache *fakeSummaryCache) *MonthService {
	return NewMonthService(repo, cache, nil, config.SummaryConfig{CacheTTL: time.Minute}, validator.New(), zap.NewNop())
}

func TestSummariesServedFromCache(t *testing.T) {
	repo := newFakeMonthRepo()
	repo.summaries["u1"] = []models.MonthSummary{{ID: 1, MonthNum: 1, Year: 2026, UserID: "u1", Income: 100}}
	cache := newFakeSummaryCache()
	svc := newMonthService(repo, cache)

	first, err := svc.SummariesForUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, repo.summaryCalls)

	second, err := svc.SummariesForUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	// second read never hit the repository
	assert.Equal(t, 1, repo.summaryCalls)
}

func TestCreateInvalidatesSummaries(t *testing.T) {
	repo := newFakeMonthRepo()
	cache := newFakeSummaryCache()
	cache.values[summaryCacheKey("u1")] = []models.MonthSummary{}
	svc := newMonthService(repo, cache)

	_, err := svc.Create(context.Background(), models.CreateMonthRequest{MonthNum: 3, Year: 2026, UserID: "u1"}, "admin")
	require.NoError(t, err)

	assert.Equal(t, []string{summaryCacheKey("u1")}, cache.deleted)
	_, ok := cache.values[summaryCacheKey("u1")]
	assert.False(t, ok)
}

func TestExportStatementCSV(t *testing.T) {
	repo := newFakeMonthRepo()
	svc := newMonthService(repo, newFakeSummaryCache())

	month := &models.Month{MonthNum: 5, Year: 2026, UserID: "u1", CreatedBy: "u1"}
	require.NoError(t, repo.Create(context.Background(), month))
	repo.months[month.ID].Items = []models.Item{
		{ID: 1, MonthID: month.ID, Type: models.ItemIncome, Value: 1500, Description: "salary", CreatedAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)},
		{ID: 2, MonthID: month.ID, Type: models.ItemExpense, Value: 300, Description: "rent", CreatedAt: time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)},
	}

	statement, err := svc.ExportStatement(context.Background(), month.ID, "csv")
	require.NoError(t, err)

	assert.Equal(t, "text/csv", statement.ContentType)
	assert.Equal(t, "statement-2026-05.csv", statement.Filename)

	body := string(statement.Content)
	assert.Contains(t, body, "salary")
	assert.Contains(t, body, "rent")
	assert.Contains(t, body, "1500.00")
	assert.True(t, strings.HasPrefix(body, "Type,Description,Value,Date"))
}

func TestExportStatementUnknownFormat(t *testing.T) {
	svc := newMonthService(newFakeMonthRepo(), newFakeSummaryCache())

	_, err := svc.ExportStatement(context.Background(), 1, "xlsx")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
