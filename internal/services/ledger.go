package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"moneta/internal/models"
)

// ledgerAccessor reads expense totals from the transactions table.
// Income transactions never count toward budget spend.
type ledgerAccessor struct {
	db *gorm.DB
}

// NewLedgerAccessor creates a new LedgerAccessor.
func NewLedgerAccessor(db *gorm.DB) LedgerAccessor {
	return &ledgerAccessor{db: db}
}

func (l *ledgerAccessor) expenseQuery(ctx context.Context, userID string, categoryScope []string, from, to time.Time) *gorm.DB {
	q := l.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("user_id = ? AND type = ? AND date >= ? AND date <= ?",
			userID, models.TransactionTypeExpense, from, to)
	if len(categoryScope) > 0 {
		q = q.Where("category_id IN ?", categoryScope)
	}
	return q
}

// SumExpenses returns the total expense amount for the user within the date
// range, restricted to the category scope when it is non-empty.
func (l *ledgerAccessor) SumExpenses(ctx context.Context, userID string, categoryScope []string, from, to time.Time) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := l.expenseQuery(ctx, userID, categoryScope, from, to).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// ListExpenses returns the individual expense transactions matching the same
// criteria as SumExpenses, newest first.
func (l *ledgerAccessor) ListExpenses(ctx context.Context, userID string, categoryScope []string, from, to time.Time) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := l.expenseQuery(ctx, userID, categoryScope, from, to).
		Order("date DESC").
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}
	return transactions, nil
}
