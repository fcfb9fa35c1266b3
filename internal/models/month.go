package models

import "time"

// Month groups the income and expense items of one calendar month for a
// user.
type Month struct {
	ID        int64     `db:"id" json:"id"`
	MonthNum  int       `db:"month_num" json:"monthNum"`
	Year      int       `db:"year" json:"year"`
	UserID    string    `db:"user_id" json:"userId"`
	CreatedBy string    `db:"created_by" json:"createdBy"`
	CreatedAt time.Time `db:"created_at" json:"createDate"`
	UpdatedAt time.Time `db:"updated_at" json:"updateDate"`
}

// MonthWithItems is the DTO projection returned for single-month reads.
// Items are embedded as plain values, which breaks the Month↔Item cycle
// at the serialization boundary.
type MonthWithItems struct {
	Month
	Items []Item `json:"items"`
}

// MonthSummary is the per-user aggregate view: summed incomes and
// expenses plus a flag showing whether someone other than the owner
// touched the month.
type MonthSummary struct {
	ID           int64   `db:"id" json:"id"`
	MonthNum     int     `db:"month_num" json:"monthNum"`
	Year         int     `db:"year" json:"year"`
	UserID       string  `db:"user_id" json:"userId"`
	Income       float64 `db:"income" json:"income"`
	Expense      float64 `db:"expense" json:"expense"`
	AdminChanged bool    `db:"admin_changed" json:"adminChanged"`
}

// MonthDetail extends the summary with the item arrays, used by the admin
// GetUser endpoint.
type MonthDetail struct {
	MonthSummary
	IncomeItems  []Item `json:"incomeArr"`
	ExpenseItems []Item `json:"expenseArr"`
}

// CreateMonthRequest is the payload for creating a month.
type CreateMonthRequest struct {
	MonthNum int    `json:"monthNum" validate:"required,min=1,max=12"`
	Year     int    `json:"year" validate:"required,min=1970"`
	UserID   string `json:"userId" validate:"required"`
}
