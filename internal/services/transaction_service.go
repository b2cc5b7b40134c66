package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/logger"
	"moneta/internal/models"
	"moneta/internal/pagination"
)

// largeTransactionAmount is the threshold (in the ledger's base currency
// unit) at or above which a newly created transaction raises a
// LARGE_TRANSACTION notification.
var largeTransactionAmount = decimal.NewFromInt(1000)

// transactionService handles the transaction ledger. Expense writes feed
// the budget orchestrator; large transactions raise their own alert.
type transactionService struct {
	db            *gorm.DB
	orchestrator  BudgetOrchestrator
	preferences   PreferenceServicer
	notifications NotificationServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(
	db *gorm.DB,
	orchestrator BudgetOrchestrator,
	preferences PreferenceServicer,
	notifications NotificationServicer,
) TransactionServicer {
	return &transactionService{
		db:            db,
		orchestrator:  orchestrator,
		preferences:   preferences,
		notifications: notifications,
	}
}

// CreateTransaction records a new transaction. After the write succeeds,
// the large-transaction rule and, for expenses, the budget fan-out run as
// a best-effort tail that never fails the write itself.
func (s *transactionService) CreateTransaction(
	userID string,
	categoryID *string,
	transactionType models.TransactionType,
	amount decimal.Decimal,
	description string,
	date time.Time,
) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if transactionType != models.TransactionTypeIncome && transactionType != models.TransactionTypeExpense {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if date.IsZero() {
		date = time.Now()
	}

	var category *models.Category
	if categoryID != nil {
		found, err := s.findCategory(userID, *categoryID)
		if err != nil {
			return nil, err
		}
		category = found
	}

	transaction := &models.Transaction{
		UserID:      userID,
		CategoryID:  categoryID,
		Type:        transactionType,
		Amount:      amount,
		Description: description,
		Date:        date,
	}

	if err := s.db.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.checkLargeTransaction(transaction, category)

	if transactionType == models.TransactionTypeExpense {
		s.orchestrator.OnExpenseWritten(userID, categoryID)
	}

	return transaction, nil
}

// GetUserTransactions retrieves a paginated, filtered list of the user's transactions.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("date DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetTransactionByID returns a transaction by ID if it belongs to the user.
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := s.db.Preload("Category").
		Where("id = ? AND user_id = ?", transactionID, userID).
		First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction applies partial updates. Changing the type is not
// allowed. Expense edits re-trigger the budget fan-out for both the old
// and the new category, since either side's budgets may be affected.
func (s *transactionService) UpdateTransaction(
	userID, transactionID string,
	categoryID *string,
	amount *decimal.Decimal,
	description *string,
	date *time.Time,
) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}

	previousCategoryID := transaction.CategoryID

	updates := make(map[string]interface{})
	if categoryID != nil {
		if _, err := s.findCategory(userID, *categoryID); err != nil {
			return nil, err
		}
		transaction.CategoryID = categoryID
		updates["category_id"] = *categoryID
	}
	if amount != nil {
		if !amount.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		transaction.Amount = *amount
		updates["amount"] = *amount
	}
	if description != nil {
		transaction.Description = *description
		updates["description"] = *description
	}
	if date != nil {
		transaction.Date = *date
		updates["date"] = *date
	}

	if len(updates) > 0 {
		if err := s.db.Model(transaction).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	if transaction.Type == models.TransactionTypeExpense && len(updates) > 0 {
		s.orchestrator.OnExpenseWritten(userID, previousCategoryID)
		if categoryChanged(previousCategoryID, transaction.CategoryID) {
			s.orchestrator.OnExpenseWritten(userID, transaction.CategoryID)
		}
	}

	return transaction, nil
}

// DeleteTransaction removes a transaction and re-triggers the budget
// fan-out for expenses, since totals shrink.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(transaction).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if transaction.Type == models.TransactionTypeExpense {
		s.orchestrator.OnExpenseWritten(userID, transaction.CategoryID)
	}
	return nil
}

func (s *transactionService) findCategory(userID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// checkLargeTransaction emits a LARGE_TRANSACTION notification for amounts
// at or above the threshold. Fires on creation only, gated by the owner's
// preference; failures are logged, never propagated.
func (s *transactionService) checkLargeTransaction(transaction *models.Transaction, category *models.Category) {
	if transaction.Amount.LessThan(largeTransactionAmount) {
		return
	}

	enabled, err := s.preferences.IsEnabled(transaction.UserID, models.NotificationLargeTransaction)
	if err != nil {
		logger.Get().Warnw("large-transaction preference check failed",
			"transaction_id", transaction.ID,
			"error", err,
		)
		return
	}
	if !enabled {
		return
	}

	categoryName := ""
	if category != nil {
		categoryName = category.Name
	}

	draft := &NotificationDraft{
		Type:     models.NotificationLargeTransaction,
		Title:    "Large transaction recorded",
		Message:  fmt.Sprintf("A %s of %s was recorded.", transaction.Type, transaction.Amount.StringFixed(2)),
		Priority: models.PriorityMedium,

		ReferenceType: models.ReferenceTransaction,
		ReferenceID:   transaction.ID,
		Metadata: map[string]interface{}{
			"amount":       transaction.Amount.String(),
			"type":         string(transaction.Type),
			"categoryName": categoryName,
			"description":  transaction.Description,
		},
	}

	if _, err := s.notifications.Emit(transaction.UserID, draft); err != nil {
		logger.Get().Warnw("large-transaction notification failed",
			"transaction_id", transaction.ID,
			"error", err,
		)
	}
}

func categoryChanged(previous, current *string) bool {
	if previous == nil || current == nil {
		return previous != current
	}
	return *previous != *current
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", *f.ToDate)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.MinAmount != nil {
		q = q.Where("amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("amount <= ?", *f.MaxAmount)
	}
	return q
}
