package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetPeriod represents the period type for a budget. The period is
// informational; the effective window is always [StartDate, EndDate].
type BudgetPeriod string

const (
	BudgetPeriodDaily   BudgetPeriod = "daily"
	BudgetPeriodWeekly  BudgetPeriod = "weekly"
	BudgetPeriodMonthly BudgetPeriod = "monthly"
	BudgetPeriodYearly  BudgetPeriod = "yearly"
	BudgetPeriodCustom  BudgetPeriod = "custom"
)

// ValidBudgetPeriod reports whether p is a known budget period.
func ValidBudgetPeriod(p BudgetPeriod) bool {
	switch p {
	case BudgetPeriodDaily, BudgetPeriodWeekly, BudgetPeriodMonthly, BudgetPeriodYearly, BudgetPeriodCustom:
		return true
	}
	return false
}

// BudgetStatus is the derived status band of a budget.
type BudgetStatus string

const (
	BudgetStatusOK       BudgetStatus = "ok"
	BudgetStatusWarning  BudgetStatus = "warning"
	BudgetStatusExceeded BudgetStatus = "exceeded"
)

// DefaultAlertThreshold is the percentage at which a budget starts warning
// when no explicit threshold is configured.
const DefaultAlertThreshold = 80.0

// Budget represents a spending cap over a date range and an optional
// category subset. The Spent/Remaining/PercentageUsed/Status/NeedsAlert
// fields are a cached snapshot recomputed from the transaction ledger;
// they are never edited directly.
type Budget struct {
	Base
	UserID              string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Name                string          `gorm:"not null" json:"name"`
	Amount              decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Period              BudgetPeriod    `gorm:"not null" json:"period"`
	StartDate           time.Time       `gorm:"not null" json:"start_date"`
	EndDate             time.Time       `gorm:"not null" json:"end_date"`
	CategoryScope       []string        `gorm:"serializer:json" json:"category_scope"`
	// No column defaults here: 0 and false are legal values and must
	// survive the insert as written by the service layer.
	AlertThreshold      float64 `json:"alert_threshold"`
	AlertEnabled        bool    `json:"alert_enabled"`
	IsActive            bool    `json:"is_active"`
	RepeatAutomatically bool    `json:"repeat_automatically"`

	// Snapshot fields, recomputed from the ledger.
	Spent            decimal.Decimal `gorm:"type:decimal(20,2)" json:"spent"`
	Remaining        decimal.Decimal `gorm:"type:decimal(20,2)" json:"remaining"`
	PercentageUsed   float64         `json:"percentage_used"`
	Status           BudgetStatus    `json:"status"`
	NeedsAlert       bool            `json:"needs_alert"`
	LastAlertStatus  BudgetStatus    `json:"-"`
	LastCalculatedAt *time.Time      `json:"last_calculated_at,omitempty"`
}

// AppliesToCategory reports whether the budget's scope covers the given
// category. An empty scope covers every category; a nil category (an
// uncategorized transaction) only matches the empty scope. Scope entries
// are opaque tokens: ids of deleted categories simply never match.
func (b *Budget) AppliesToCategory(categoryID *string) bool {
	if len(b.CategoryScope) == 0 {
		return true
	}
	if categoryID == nil {
		return false
	}
	for _, id := range b.CategoryScope {
		if id == *categoryID {
			return true
		}
	}
	return false
}
