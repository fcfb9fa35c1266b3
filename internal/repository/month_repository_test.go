package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/budget-calc-api/internal/models"
)

func TestCreateMonth(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMonthRepository(db)

	mock.ExpectQuery("INSERT INTO months").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

	month := &models.Month{MonthNum: 5, Year: 2026, UserID: "u1", CreatedBy: "u1"}
	require.NoError(t, repo.Create(context.Background(), month))
	assert.Equal(t, int64(3), month.ID)
	assert.False(t, month.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSummariesForUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMonthRepository(db)

	rows := sqlmock.NewRows([]string{"id", "month_num", "year", "user_id", "income", "expense", "admin_changed"}).
		AddRow(int64(1), 1, 2026, "u1", 1200.0, 340.5, false).
		AddRow(int64(2), 2, 2026, "u1", 900.0, 910.0, true)
	mock.ExpectQuery("SELECT m.id, m.month_num, m.year, m.user_id").
		WithArgs("u1").
		WillReturnRows(rows)

	summaries, err := repo.SummariesForUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, 1200.0, summaries[0].Income)
	assert.Equal(t, 340.5, summaries[0].Expense)
	assert.False(t, summaries[0].AdminChanged)
	assert.True(t, summaries[1].AdminChanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindWithItems(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMonthRepository(db)

	now := time.Now()
	monthRows := sqlmock.NewRows([]string{"id", "month_num", "year", "user_id", "created_by", "created_at", "updated_at"}).
		AddRow(int64(1), 5, 2026, "u1", "u1", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, month_num, year, user_id, created_by, created_at, updated_at")).
		WithArgs(int64(1)).
		WillReturnRows(monthRows)

	itemRows := sqlmock.NewRows([]string{"id", "month_id", "type", "value", "description", "created_by", "created_at", "updated_at"}).
		AddRow(int64(10), int64(1), 0, 1000.0, "salary", "u1", now, now).
		AddRow(int64(11), int64(1), 1, 50.0, "groceries", "u1", now, now)
	mock.ExpectQuery("SELECT id, month_id, type, value, description").
		WithArgs(int64(1)).
		WillReturnRows(itemRows)

	month, err := repo.FindWithItems(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, month.Items, 2)
	assert.Equal(t, models.ItemIncome, month.Items[0].Type)
	assert.Equal(t, "groceries", month.Items[1].Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMonth(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMonthRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM months WHERE id = $1")).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 4))
	assert.NoError(t, mock.ExpectationsWereMet())
}
