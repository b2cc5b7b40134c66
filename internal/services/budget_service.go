package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
)

// budgetService is the budget store: validation, CRUD, and snapshot
// persistence. Recomputation and alerting live in the orchestrator.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// CreateBudget validates and persists a new budget. The spend snapshot
// starts at zero; the orchestrator recomputes it right after creation.
func (s *budgetService) CreateBudget(userID string, input CreateBudgetInput) (*models.Budget, error) {
	threshold := models.DefaultAlertThreshold
	if input.AlertThreshold != nil {
		threshold = *input.AlertThreshold
	}
	alertEnabled := true
	if input.AlertEnabled != nil {
		alertEnabled = *input.AlertEnabled
	}
	repeat := false
	if input.RepeatAutomatically != nil {
		repeat = *input.RepeatAutomatically
	}

	budget := &models.Budget{
		UserID:              userID,
		Name:                input.Name,
		Amount:              input.Amount,
		Period:              input.Period,
		StartDate:           input.StartDate,
		EndDate:             input.EndDate,
		CategoryScope:       input.CategoryScope,
		AlertThreshold:      threshold,
		AlertEnabled:        alertEnabled,
		IsActive:            true,
		RepeatAutomatically: repeat,
		Remaining:           input.Amount,
		Status:              models.BudgetStatusOK,
	}

	if err := validateBudget(budget); err != nil {
		return nil, err
	}

	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return budget, nil
}

// GetUserBudgets returns a paginated list of budgets for the user with optional filters.
func (s *budgetService) GetUserBudgets(
	userID string,
	page pagination.PageRequest,
	isActive *bool,
	period *models.BudgetPeriod,
) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)
	if isActive != nil {
		base = base.Where("is_active = ?", *isActive)
	}
	if period != nil {
		base = base.Where("period = ?", *period)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Scopes(pagination.Paginate(page)).Order("created_at DESC").Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateBudget applies the non-nil patch fields, re-validates the merged
// budget, and persists it. Omitted fields are left unchanged.
func (s *budgetService) UpdateBudget(userID, budgetID string, patch BudgetPatch) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if patch.Name != nil {
		budget.Name = *patch.Name
		updates["name"] = *patch.Name
	}
	if patch.Amount != nil {
		budget.Amount = *patch.Amount
		updates["amount"] = *patch.Amount
	}
	if patch.Period != nil {
		budget.Period = *patch.Period
		updates["period"] = *patch.Period
	}
	if patch.StartDate != nil {
		budget.StartDate = *patch.StartDate
		updates["start_date"] = *patch.StartDate
	}
	if patch.EndDate != nil {
		budget.EndDate = *patch.EndDate
		updates["end_date"] = *patch.EndDate
	}
	if patch.CategoryScope != nil {
		budget.CategoryScope = *patch.CategoryScope
		updates["category_scope"] = budget.CategoryScope
	}
	if patch.AlertThreshold != nil {
		budget.AlertThreshold = *patch.AlertThreshold
		updates["alert_threshold"] = *patch.AlertThreshold
	}
	if patch.AlertEnabled != nil {
		budget.AlertEnabled = *patch.AlertEnabled
		updates["alert_enabled"] = *patch.AlertEnabled
	}
	if patch.IsActive != nil {
		budget.IsActive = *patch.IsActive
		updates["is_active"] = *patch.IsActive
	}
	if patch.RepeatAutomatically != nil {
		budget.RepeatAutomatically = *patch.RepeatAutomatically
		updates["repeat_automatically"] = *patch.RepeatAutomatically
	}

	if err := validateBudget(budget); err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		if err := s.db.Model(budget).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return budget, nil
}

// DeleteBudget soft-deletes a budget by default: the row stays in storage
// with is_active = false and drops out of the orchestrator's fan-out.
// A hard delete removes the row entirely. Neither triggers alerting.
func (s *budgetService) DeleteBudget(userID, budgetID string, hard bool) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}

	if hard {
		if err := s.db.Unscoped().Delete(budget).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	}

	if err := s.db.Model(budget).Update("is_active", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetActiveBudgets returns all of the user's active budgets.
func (s *budgetService) GetActiveBudgets(userID string) ([]models.Budget, error) {
	var budgets []models.Budget
	if err := s.db.Where("user_id = ? AND is_active = ?", userID, true).Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}

// SaveSnapshot applies a freshly computed breakdown to the budget and
// persists the derived columns.
func (s *budgetService) SaveSnapshot(budget *models.Budget, breakdown *SpendBreakdown) error {
	now := time.Now()
	budget.Spent = breakdown.Spent
	budget.Remaining = breakdown.Remaining
	budget.PercentageUsed = breakdown.PercentageUsed
	budget.Status = breakdown.Status
	budget.NeedsAlert = breakdown.NeedsAlert
	budget.LastCalculatedAt = &now

	err := s.db.Model(budget).Updates(map[string]interface{}{
		"spent":              breakdown.Spent,
		"remaining":          breakdown.Remaining,
		"percentage_used":    breakdown.PercentageUsed,
		"status":             breakdown.Status,
		"needs_alert":        breakdown.NeedsAlert,
		"last_calculated_at": now,
	}).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// MarkAlerted records the status band an alert was last emitted for, so the
// orchestrator emits once per status entry.
func (s *budgetService) MarkAlerted(budget *models.Budget, status models.BudgetStatus) error {
	budget.LastAlertStatus = status
	if err := s.db.Model(budget).Update("last_alert_status", status).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetStatusSummary groups the user's active budgets by status band.
func (s *budgetService) GetStatusSummary(userID string) (*BudgetStatusSummary, error) {
	budgets, err := s.GetActiveBudgets(userID)
	if err != nil {
		return nil, err
	}

	summary := &BudgetStatusSummary{
		OK:       []models.Budget{},
		Warning:  []models.Budget{},
		Exceeded: []models.Budget{},
	}
	for _, b := range budgets {
		switch b.Status {
		case models.BudgetStatusExceeded:
			summary.Exceeded = append(summary.Exceeded, b)
		case models.BudgetStatusWarning:
			summary.Warning = append(summary.Warning, b)
		default:
			summary.OK = append(summary.OK, b)
		}
	}
	return summary, nil
}

// validateBudget enforces the budget entity invariants.
func validateBudget(b *models.Budget) error {
	if b.Name == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "budget name is required")
	}
	if !b.Amount.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "budget amount must be greater than zero")
	}
	if !models.ValidBudgetPeriod(b.Period) {
		return apperrors.ErrInvalidBudgetPeriod
	}
	if b.StartDate.IsZero() || b.EndDate.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "start and end dates are required")
	}
	if !b.EndDate.After(b.StartDate) {
		return apperrors.ErrInvalidDateRange
	}
	if b.AlertThreshold < 0 || b.AlertThreshold > 100 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "alert threshold must be between 0 and 100")
	}
	return nil
}
