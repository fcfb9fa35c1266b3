package models

import "time"

// ItemType distinguishes incomes from expenses. Zero means income,
// anything else is treated as an expense.
type ItemType int

const (
	ItemIncome  ItemType = 0
	ItemExpense ItemType = 1
)

// Item is a single income or expense line inside a month.
type Item struct {
	ID          int64     `db:"id" json:"id"`
	MonthID     int64     `db:"month_id" json:"monthId"`
	Type        ItemType  `db:"type" json:"type"`
	Value       float64   `db:"value" json:"value"`
	Description string    `db:"description" json:"description"`
	CreatedBy   string    `db:"created_by" json:"createdBy"`
	CreatedAt   time.Time `db:"created_at" json:"createDate"`
	UpdatedAt   time.Time `db:"updated_at" json:"updateDate"`
}

// CreateItemRequest is the payload for creating an item. Value is a
// pointer so a legitimate zero amount still passes the required check.
type CreateItemRequest struct {
	MonthID     int64    `json:"monthId" validate:"required"`
	Type        ItemType `json:"type"`
	Value       *float64 `json:"value" validate:"required"`
	Description string   `json:"description" validate:"required"`
	CreatedBy   string   `json:"createdBy" validate:"required"`
}

// UpdateItemRequest is the payload for updating an item.
type UpdateItemRequest struct {
	Value       *float64 `json:"value" validate:"required"`
	Description string   `json:"description" validate:"required"`
	CreatedBy   string   `json:"createdBy" validate:"required"`
}
