package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/budget-calc-api/internal/models"
)

// MonthRepository provides database access for budget months.
type MonthRepository struct {
	db *sqlx.DB
}

// NewMonthRepository creates a new instance of MonthRepository.
func NewMonthRepository(db *sqlx.DB) *MonthRepository {
	return &MonthRepository{db: db}
}

// Create inserts a month and backfills the generated id.
func (r *MonthRepository) Create(ctx context.Context, month *models.Month) error {
	now := time.Now().UTC()
	if month.CreatedAt.IsZero() {
		month.CreatedAt = now
	}
	month.UpdatedAt = now
	const query = `INSERT INTO months (month_num, year, user_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		month.MonthNum, month.Year, month.UserID, month.CreatedBy, month.CreatedAt, month.UpdatedAt,
	).Scan(&month.ID); err != nil {
		return fmt.Errorf("create month: %w", err)
	}
	return nil
}

// FindByID returns a month without its items.
func (r *MonthRepository) FindByID(ctx context.Context, id int64) (*models.Month, error) {
	const query = `SELECT id, month_num, year, user_id, created_by, created_at, updated_at
		FROM months WHERE id = $1 LIMIT 1`
	var month models.Month
	if err := r.db.GetContext(ctx, &month, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find month by id: %w", err)
	}
	return &month, nil
}

// FindWithItems returns a month and its items.
func (r *MonthRepository) FindWithItems(ctx context.Context, id int64) (*models.MonthWithItems, error) {
	month, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	const itemsQuery = `SELECT id, month_id, type, value, description, created_by, created_at, updated_at
		FROM items WHERE month_id = $1 ORDER BY id`
	items := []models.Item{}
	if err := r.db.SelectContext(ctx, &items, itemsQuery, id); err != nil {
		return nil, fmt.Errorf("items for month: %w", err)
	}

	return &models.MonthWithItems{Month: *month, Items: items}, nil
}

// ListWithItems returns every month with its items attached.
func (r *MonthRepository) ListWithItems(ctx context.Context) ([]models.MonthWithItems, error) {
	const monthsQuery = `SELECT id, month_num, year, user_id, created_by, created_at, updated_at
		FROM months ORDER BY year, month_num`
	var months []models.Month
	if err := r.db.SelectContext(ctx, &months, monthsQuery); err != nil {
		return nil, fmt.Errorf("list months: %w", err)
	}

	const itemsQuery = `SELECT id, month_id, type, value, description, created_by, created_at, updated_at
		FROM items ORDER BY id`
	var items []models.Item
	if err := r.db.SelectContext(ctx, &items, itemsQuery); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	byMonth := make(map[int64][]models.Item, len(months))
	for _, item := range items {
		byMonth[item.MonthID] = append(byMonth[item.MonthID], item)
	}

	result := make([]models.MonthWithItems, 0, len(months))
	for _, m := range months {
		withItems := models.MonthWithItems{Month: m, Items: byMonth[m.ID]}
		if withItems.Items == nil {
			withItems.Items = []models.Item{}
		}
		result = append(result, withItems)
	}
	return result, nil
}

// SummariesForUser aggregates income/expense sums per month for a user.
// The admin_changed flag is true when any item in the month was created
// by someone other than the owning user.
func (r *MonthRepository) SummariesForUser(ctx context.Context, userID string) ([]models.MonthSummary, error) {
	const query = `SELECT m.id, m.month_num, m.year, m.user_id,
			COALESCE(SUM(CASE WHEN i.type = 0 THEN i.value ELSE 0 END), 0) AS income,
			COALESCE(SUM(CASE WHEN i.type <> 0 THEN i.value ELSE 0 END), 0) AS expense,
			COALESCE(BOOL_OR(i.created_by <> m.user_id), FALSE) AS admin_changed
		FROM months m
		LEFT JOIN items i ON i.month_id = m.id
		WHERE m.user_id = $1
		GROUP BY m.id, m.month_num, m.year, m.user_id
		ORDER BY m.year, m.month_num`
	summaries := []models.MonthSummary{}
	if err := r.db.SelectContext(ctx, &summaries, query, userID); err != nil {
		return nil, fmt.Errorf("month summaries for user: %w", err)
	}
	return summaries, nil
}

// DetailsForUser returns per-month summaries with the income and expense
// item arrays attached.
func (r *MonthRepository) DetailsForUser(ctx context.Context, userID string) ([]models.MonthDetail, error) {
	summaries, err := r.SummariesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	const itemsQuery = `SELECT i.id, i.month_id, i.type, i.value, i.description, i.created_by, i.created_at, i.updated_at
		FROM items i
		JOIN months m ON m.id = i.month_id
		WHERE m.user_id = $1
		ORDER BY i.id`
	var items []models.Item
	if err := r.db.SelectContext(ctx, &items, itemsQuery, userID); err != nil {
		return nil, fmt.Errorf("items for user months: %w", err)
	}

	byMonth := make(map[int64][]models.Item)
	for _, item := range items {
		byMonth[item.MonthID] = append(byMonth[item.MonthID], item)
	}

	details := make([]models.MonthDetail, 0, len(summaries))
	for _, s := range summaries {
		detail := models.MonthDetail{MonthSummary: s, IncomeItems: []models.Item{}, ExpenseItems: []models.Item{}}
		for _, item := range byMonth[s.ID] {
			if item.Type == models.ItemIncome {
				detail.IncomeItems = append(detail.IncomeItems, item)
			} else {
				detail.ExpenseItems = append(detail.ExpenseItems, item)
			}
		}
		details = append(details, detail)
	}
	return details, nil
}

// Delete removes a month. Items cascade at the schema level.
func (r *MonthRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM months WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete month: %w", err)
	}
	return nil
}
