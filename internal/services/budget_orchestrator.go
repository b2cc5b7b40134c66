package services

import (
	"context"
	"sync"
	"time"

	apperrors "moneta/internal/errors"
	"moneta/internal/logger"
	"moneta/internal/models"
)

// budgetLocks serializes recomputation per budget ID. Two concurrent
// expense writes hitting the same budget would otherwise race on the
// read-ledger → persist-snapshot sequence and double-emit alerts.
type budgetLocks struct {
	mu    sync.Mutex
	locks map[string]*entryLock
}

type entryLock struct {
	sync.Mutex
	refs int
}

func newBudgetLocks() *budgetLocks {
	return &budgetLocks{locks: make(map[string]*entryLock)}
}

// acquire locks the given budget ID and returns the release function.
// Entries are refcounted so the map does not grow without bound.
func (l *budgetLocks) acquire(budgetID string) func() {
	l.mu.Lock()
	e, ok := l.locks[budgetID]
	if !ok {
		e = &entryLock{}
		l.locks[budgetID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.Lock()
	return func() {
		e.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, budgetID)
		}
		l.mu.Unlock()
	}
}

// budgetOrchestrator keeps budget snapshots consistent with the ledger and
// drives threshold alerting.
type budgetOrchestrator struct {
	budgets       BudgetServicer
	calculator    SpendCalculator
	evaluator     AlertEvaluator
	preferences   PreferenceServicer
	notifications NotificationServicer
	ledgerTimeout time.Duration
	locks         *budgetLocks
}

// NewBudgetOrchestrator creates a new BudgetOrchestrator.
func NewBudgetOrchestrator(
	budgets BudgetServicer,
	calculator SpendCalculator,
	evaluator AlertEvaluator,
	preferences PreferenceServicer,
	notifications NotificationServicer,
	ledgerTimeout time.Duration,
) BudgetOrchestrator {
	if ledgerTimeout <= 0 {
		ledgerTimeout = 5 * time.Second
	}
	return &budgetOrchestrator{
		budgets:       budgets,
		calculator:    calculator,
		evaluator:     evaluator,
		preferences:   preferences,
		notifications: notifications,
		ledgerTimeout: ledgerTimeout,
		locks:         newBudgetLocks(),
	}
}

// OnBudgetWritten recomputes a budget that was just created or updated and
// runs the alerting tail. The budget row is already persisted; a ledger
// failure here leaves the stale snapshot in place and is only logged.
func (o *budgetOrchestrator) OnBudgetWritten(budget *models.Budget) *models.Budget {
	if err := o.recomputeAndAlert(budget); err != nil {
		logger.Get().Warnw("budget recompute skipped after write",
			"budget_id", budget.ID,
			"user_id", budget.UserID,
			"error", err,
		)
	}
	return budget
}

// OnExpenseWritten recomputes every active budget of the owner whose scope
// covers the written transaction's category. Failures are logged per budget
// and never propagate: a notification must not fail a transaction write.
func (o *budgetOrchestrator) OnExpenseWritten(userID string, categoryID *string) {
	budgets, err := o.budgets.GetActiveBudgets(userID)
	if err != nil {
		logger.Get().Errorw("budget fan-out skipped: listing active budgets failed",
			"user_id", userID,
			"error", err,
		)
		return
	}

	for i := range budgets {
		budget := &budgets[i]
		if !budget.AppliesToCategory(categoryID) {
			continue
		}
		if err := o.recomputeAndAlert(budget); err != nil {
			logger.Get().Warnw("budget recompute failed during fan-out",
				"budget_id", budget.ID,
				"user_id", userID,
				"error", err,
			)
		}
	}
}

// RefreshBudget is the explicit recompute entry point. Unlike the write
// hooks, a ledger failure here surfaces to the caller.
func (o *budgetOrchestrator) RefreshBudget(userID, budgetID string) (*models.Budget, error) {
	budget, err := o.budgets.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}
	if err := o.recomputeAndAlert(budget); err != nil {
		return nil, err
	}
	return budget, nil
}

// RefreshAllBudgets recomputes all of the user's active budgets and returns
// how many were refreshed. Per-budget failures are logged and skipped.
func (o *budgetOrchestrator) RefreshAllBudgets(userID string) (int, error) {
	budgets, err := o.budgets.GetActiveBudgets(userID)
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for i := range budgets {
		budget := &budgets[i]
		if err := o.recomputeAndAlert(budget); err != nil {
			logger.Get().Warnw("budget refresh failed",
				"budget_id", budget.ID,
				"user_id", userID,
				"error", err,
			)
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

// recomputeAndAlert is the single recompute → persist → evaluate → gate →
// emit sequence, serialized per budget ID. Only the recompute/persist part
// can return an error; the alerting tail is always best-effort.
func (o *budgetOrchestrator) recomputeAndAlert(budget *models.Budget) error {
	release := o.locks.acquire(budget.ID)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), o.ledgerTimeout)
	defer cancel()

	breakdown, err := o.calculator.Compute(ctx, budget)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDependencyUnavailable, err)
	}

	if err := o.budgets.SaveSnapshot(budget, breakdown); err != nil {
		return err
	}

	o.maybeAlert(budget)
	return nil
}

// maybeAlert evaluates the fresh snapshot, deduplicates per status entry,
// checks the owner's preference gate, and emits. Every failure in here is
// logged and swallowed.
func (o *budgetOrchestrator) maybeAlert(budget *models.Budget) {
	draft := o.evaluator.Evaluate(budget)
	if draft == nil {
		// Landing in a band that produces nothing re-arms the marker:
		// a later re-entry into the alerted band alerts again.
		if budget.LastAlertStatus != "" && budget.LastAlertStatus != budget.Status {
			if err := o.budgets.MarkAlerted(budget, ""); err != nil {
				logger.Get().Warnw("failed to clear alerted status",
					"budget_id", budget.ID,
					"error", err,
				)
			}
		}
		return
	}

	// One emission per status entry: re-crossing into a band the user was
	// already alerted about stays silent until the status changes.
	if budget.LastAlertStatus == budget.Status {
		return
	}

	enabled, err := o.preferences.IsEnabled(budget.UserID, draft.Type)
	if err != nil {
		logger.Get().Warnw("preference check failed, alert skipped",
			"budget_id", budget.ID,
			"type", draft.Type,
			"error", err,
		)
		return
	}
	if !enabled {
		return
	}

	if _, err := o.notifications.Emit(budget.UserID, draft); err != nil {
		logger.Get().Warnw("alert emission failed",
			"budget_id", budget.ID,
			"type", draft.Type,
			"error", err,
		)
		return
	}

	if err := o.budgets.MarkAlerted(budget, budget.Status); err != nil {
		logger.Get().Warnw("failed to record alerted status",
			"budget_id", budget.ID,
			"error", err,
		)
	}
}
