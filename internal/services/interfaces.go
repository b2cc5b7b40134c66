package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/models"
	"moneta/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID, name string, categoryType models.CategoryType, description, icon, color string, parentID *string) (*models.Category, error)
	GetUserCategories(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetUserCategoriesByType(userID string, categoryType models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	UpdateCategory(userID, categoryID, name, description, icon, color string, parentID *string) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *string
	MinAmount  *decimal.Decimal
	MaxAmount  *decimal.Decimal
}

// TransactionServicer defines the contract for transaction-related business
// logic. Expense writes feed the budget engine: create, update, and delete
// all trigger a recompute of the budgets whose scope covers the category.
type TransactionServicer interface {
	CreateTransaction(userID string, categoryID *string, transactionType models.TransactionType, amount decimal.Decimal, description string, date time.Time) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, categoryID *string, amount *decimal.Decimal, description *string, date *time.Time) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
}

// LedgerAccessor exposes read access to the expense side of the transaction
// ledger. An empty category scope means all of the owner's categories.
type LedgerAccessor interface {
	SumExpenses(ctx context.Context, userID string, categoryScope []string, from, to time.Time) (decimal.Decimal, error)
	ListExpenses(ctx context.Context, userID string, categoryScope []string, from, to time.Time) ([]models.Transaction, error)
}

// SpendBreakdown is the result of recomputing a budget against the ledger.
type SpendBreakdown struct {
	Spent          decimal.Decimal     `json:"spent"`
	Remaining      decimal.Decimal     `json:"remaining"`
	PercentageUsed float64             `json:"percentage_used"`
	Status         models.BudgetStatus `json:"status"`
	NeedsAlert     bool                `json:"needs_alert"`
}

// SpendCalculator recomputes a budget's derived fields from the ledger.
// It has no side effects; persisting the result is the orchestrator's job.
type SpendCalculator interface {
	Compute(ctx context.Context, budget *models.Budget) (*SpendBreakdown, error)
}

// NotificationDraft is an in-memory notification payload produced by the
// alert evaluator before preference gating and persistence.
type NotificationDraft struct {
	Type          models.NotificationType
	Title         string
	Message       string
	Priority      models.NotificationPriority
	ReferenceType models.ReferenceType
	ReferenceID   string
	Metadata      map[string]interface{}
}

// AlertEvaluator decides which notification, if any, a budget's current
// snapshot warrants. It is stateless: the same snapshot always yields the
// same draft. Deduplication lives in the orchestrator.
type AlertEvaluator interface {
	Evaluate(budget *models.Budget) *NotificationDraft
}

// CreateBudgetInput carries the caller-supplied fields for a new budget.
type CreateBudgetInput struct {
	Name                string
	Amount              decimal.Decimal
	Period              models.BudgetPeriod
	StartDate           time.Time
	EndDate             time.Time
	CategoryScope       []string
	AlertThreshold      *float64
	AlertEnabled        *bool
	RepeatAutomatically *bool
}

// BudgetPatch carries partial-update fields; nil means "leave unchanged".
type BudgetPatch struct {
	Name                *string
	Amount              *decimal.Decimal
	Period              *models.BudgetPeriod
	StartDate           *time.Time
	EndDate             *time.Time
	CategoryScope       *[]string
	AlertThreshold      *float64
	AlertEnabled        *bool
	IsActive            *bool
	RepeatAutomatically *bool
}

// BudgetStatusSummary groups a user's active budgets by status band.
type BudgetStatusSummary struct {
	OK       []models.Budget `json:"ok"`
	Warning  []models.Budget `json:"warning"`
	Exceeded []models.Budget `json:"exceeded"`
}

// BudgetServicer is the budget store: validation, CRUD, snapshot
// persistence, and the queries the orchestrator fans out over.
type BudgetServicer interface {
	CreateBudget(userID string, input CreateBudgetInput) (*models.Budget, error)
	GetUserBudgets(userID string, page pagination.PageRequest, isActive *bool, period *models.BudgetPeriod) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID string) (*models.Budget, error)
	UpdateBudget(userID, budgetID string, patch BudgetPatch) (*models.Budget, error)
	DeleteBudget(userID, budgetID string, hard bool) error
	GetActiveBudgets(userID string) ([]models.Budget, error)
	SaveSnapshot(budget *models.Budget, breakdown *SpendBreakdown) error
	MarkAlerted(budget *models.Budget, status models.BudgetStatus) error
	GetStatusSummary(userID string) (*BudgetStatusSummary, error)
}

// BudgetOrchestrator keeps budget snapshots consistent with the ledger and
// drives alerting. It is the only component that runs the
// recompute → persist → evaluate → gate → emit sequence.
type BudgetOrchestrator interface {
	// OnBudgetWritten recomputes and alerts after a budget create or
	// update. The budget row already exists; failures in the tail are
	// logged and never propagated.
	OnBudgetWritten(budget *models.Budget) *models.Budget
	// OnExpenseWritten fans out over the owner's active budgets whose
	// scope covers the written transaction's category. Best-effort: it
	// must never fail the triggering transaction write.
	OnExpenseWritten(userID string, categoryID *string)
	RefreshBudget(userID, budgetID string) (*models.Budget, error)
	RefreshAllBudgets(userID string) (int, error)
}

// PreferenceServicer is the per-user notification preference gate.
// Absent rows read as enabled; rows are written only on explicit update.
type PreferenceServicer interface {
	IsEnabled(userID string, notificationType models.NotificationType) (bool, error)
	GetPreferences(userID string) (map[models.NotificationType]bool, error)
	SetPreferences(userID string, prefs map[models.NotificationType]bool) error
}

// NotificationServicer is the notification sink and the user-facing
// notification surface.
type NotificationServicer interface {
	Emit(userID string, draft *NotificationDraft) (*models.Notification, error)
	GetUserNotifications(userID string, page pagination.PageRequest, unreadOnly bool) (*pagination.PageResponse[models.Notification], error)
	GetUnreadCount(userID string) (int64, error)
	MarkRead(userID, notificationID string) (*models.Notification, error)
	MarkAllRead(userID string) (int64, error)
	DeleteNotification(userID, notificationID string) error
	DeleteRead(userID string) (int64, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
