package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/budget-calc-api/internal/models"
)

// ItemRepository provides database access for income and expense items.
type ItemRepository struct {
	db *sqlx.DB
}

// NewItemRepository creates a new instance of ItemRepository.
func NewItemRepository(db *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Create inserts an item and backfills the generated id.
func (r *ItemRepository) Create(ctx context.Context, item *models.Item) error {
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	const query = `INSERT INTO items (month_id, type, value, description, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		item.MonthID, item.Type, item.Value, item.Description, item.CreatedBy, item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ID); err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

// FindByID returns an item by identifier.
func (r *ItemRepository) FindByID(ctx context.Context, id int64) (*models.Item, error) {
	const query = `SELECT id, month_id, type, value, description, created_by, created_at, updated_at
		FROM items WHERE id = $1 LIMIT 1`
	var item models.Item
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find item by id: %w", err)
	}
	return &item, nil
}

// List returns every item ordered by id.
func (r *ItemRepository) List(ctx context.Context) ([]models.Item, error) {
	const query = `SELECT id, month_id, type, value, description, created_by, created_at, updated_at
		FROM items ORDER BY id`
	var items []models.Item
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// ListForMonth returns a month's items filtered to incomes or expenses.
func (r *ItemRepository) ListForMonth(ctx context.Context, monthID int64, itemType models.ItemType) ([]models.Item, error) {
	var query string
	if itemType == models.ItemIncome {
		query = `SELECT id, month_id, type, value, description, created_by, created_at, updated_at
			FROM items WHERE month_id = $1 AND type = 0 ORDER BY id`
	} else {
		query = `SELECT id, month_id, type, value, description, created_by, created_at, updated_at
			FROM items WHERE month_id = $1 AND type <> 0 ORDER BY id`
	}
	items := []models.Item{}
	if err := r.db.SelectContext(ctx, &items, query, monthID); err != nil {
		return nil, fmt.Errorf("items for month: %w", err)
	}
	return items, nil
}

// Update modifies the mutable fields of an item.
func (r *ItemRepository) Update(ctx context.Context, item *models.Item) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE items SET value = :value, description = :description, created_by = :created_by, updated_at = :updated_at
		WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// Delete removes an item.
func (r *ItemRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM items WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}
