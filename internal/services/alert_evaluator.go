package services

import (
	"fmt"
	"math"

	"moneta/internal/models"
)

// onTrackCeiling is the percentage below which a budget still reports
// "on track". Between this and the alert threshold nothing is emitted.
const onTrackCeiling = 50.0

// alertEvaluator maps a budget snapshot to at most one notification draft.
type alertEvaluator struct{}

// NewAlertEvaluator creates a new AlertEvaluator.
func NewAlertEvaluator() AlertEvaluator {
	return &alertEvaluator{}
}

// Evaluate applies the threshold decision table in strict precedence order:
// exceeded, then warning, then on-track below 50%. Snapshots between 50%
// and the alert threshold produce nothing. A budget with alerts disabled
// never produces a draft.
func (e *alertEvaluator) Evaluate(budget *models.Budget) *NotificationDraft {
	if !budget.AlertEnabled {
		return nil
	}

	rounded := math.Round(budget.PercentageUsed)

	switch {
	case budget.PercentageUsed >= 100:
		over := budget.Spent.Sub(budget.Amount)
		return e.draft(budget, models.NotificationBudgetExceeded, models.PriorityHigh,
			"Budget exceeded",
			fmt.Sprintf("You have exceeded your %q budget by %s. Spent %s of %s.",
				budget.Name, over.StringFixed(2), budget.Spent.StringFixed(2), budget.Amount.StringFixed(2)),
			map[string]interface{}{"overAmount": over.String()})

	case budget.PercentageUsed >= budget.AlertThreshold:
		return e.draft(budget, models.NotificationBudgetWarning, models.PriorityMedium,
			"Budget warning",
			fmt.Sprintf("Your %q budget is at %.0f%%: spent %s of %s.",
				budget.Name, rounded, budget.Spent.StringFixed(2), budget.Amount.StringFixed(2)),
			map[string]interface{}{"alertThreshold": budget.AlertThreshold})

	case budget.PercentageUsed < onTrackCeiling:
		return e.draft(budget, models.NotificationBudgetOnTrack, models.PriorityLow,
			"Budget on track",
			fmt.Sprintf("Your %q budget is on track at %.0f%% used.", budget.Name, rounded),
			nil)
	}

	return nil
}

func (e *alertEvaluator) draft(
	budget *models.Budget,
	notificationType models.NotificationType,
	priority models.NotificationPriority,
	title, message string,
	extra map[string]interface{},
) *NotificationDraft {
	metadata := map[string]interface{}{
		"budgetName":     budget.Name,
		"budgetAmount":   budget.Amount.String(),
		"spent":          budget.Spent.String(),
		"percentageUsed": budget.PercentageUsed,
	}
	for k, v := range extra {
		metadata[k] = v
	}

	return &NotificationDraft{
		Type:          notificationType,
		Title:         title,
		Message:       message,
		Priority:      priority,
		ReferenceType: models.ReferenceBudget,
		ReferenceID:   budget.ID,
		Metadata:      metadata,
	}
}
