package services

import (
	"context"

	"github.com/shopspring/decimal"

	"moneta/internal/models"
)

var oneHundred = decimal.NewFromInt(100)

// spendCalculator derives a budget's spend snapshot from the ledger.
type spendCalculator struct {
	ledger LedgerAccessor
}

// NewSpendCalculator creates a new SpendCalculator over the given ledger.
func NewSpendCalculator(ledger LedgerAccessor) SpendCalculator {
	return &spendCalculator{ledger: ledger}
}

// Compute sums the budget's expenses and derives remaining, percentage used,
// status, and the needs-alert flag. Remaining never goes negative: overspend
// shows up as percentageUsed > 100. The percentage is unrounded; rounding is
// a presentation concern.
func (c *spendCalculator) Compute(ctx context.Context, budget *models.Budget) (*SpendBreakdown, error) {
	spent, err := c.ledger.SumExpenses(ctx, budget.UserID, budget.CategoryScope, budget.StartDate, budget.EndDate)
	if err != nil {
		return nil, err
	}

	remaining := budget.Amount.Sub(spent)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	var percentage float64
	if budget.Amount.IsPositive() {
		percentage, _ = spent.Div(budget.Amount).Mul(oneHundred).Float64()
	}

	status := models.BudgetStatusOK
	switch {
	case percentage >= 100:
		status = models.BudgetStatusExceeded
	case percentage >= budget.AlertThreshold:
		status = models.BudgetStatusWarning
	}

	return &SpendBreakdown{
		Spent:          spent,
		Remaining:      remaining,
		PercentageUsed: percentage,
		Status:         status,
		NeedsAlert:     budget.AlertEnabled && status != models.BudgetStatusOK,
	}, nil
}
