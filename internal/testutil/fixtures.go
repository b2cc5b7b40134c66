package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"moneta/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCategory creates a category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: userID,
		Name:   fmt.Sprintf("Test Category %d", nextID()),
		Type:   categoryType,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestExpense creates an expense transaction dated now.
func CreateTestExpense(t *testing.T, db *gorm.DB, userID string, categoryID *string, amount string) *models.Transaction {
	t.Helper()
	return CreateTestTransaction(t, db, userID, categoryID, models.TransactionTypeExpense, amount, time.Now())
}

// CreateTestTransaction creates a transaction of the given type, amount, and date.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID string, categoryID *string, txType models.TransactionType, amount string, date time.Time) *models.Transaction {
	t.Helper()

	amt, err := decimal.NewFromString(amount)
	if err != nil {
		t.Fatalf("invalid test amount %q: %v", amount, err)
	}

	tx := &models.Transaction{
		UserID:     userID,
		CategoryID: categoryID,
		Type:       txType,
		Amount:     amt,
		Date:       date,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestBudget creates an active monthly budget covering the current
// month with the default alert threshold and alerting enabled. The scope
// covers all categories unless categoryIDs are given.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID string, amount string, categoryIDs ...string) *models.Budget {
	t.Helper()

	amt, err := decimal.NewFromString(amount)
	if err != nil {
		t.Fatalf("invalid test amount %q: %v", amount, err)
	}

	now := time.Now()
	budget := &models.Budget{
		UserID:         userID,
		Name:           fmt.Sprintf("Test Budget %d", nextID()),
		Amount:         amt,
		Period:         models.BudgetPeriodMonthly,
		StartDate:      now.AddDate(0, 0, -7),
		EndDate:        now.AddDate(0, 0, 21),
		CategoryScope:  categoryIDs,
		AlertThreshold: models.DefaultAlertThreshold,
		AlertEnabled:   true,
		IsActive:       true,
		Remaining:      amt,
		Status:         models.BudgetStatusOK,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestNotification creates a read or unread notification of the given type.
func CreateTestNotification(t *testing.T, db *gorm.DB, userID string, notifType models.NotificationType, isRead bool) *models.Notification {
	t.Helper()

	n := &models.Notification{
		UserID:        userID,
		Type:          notifType,
		Title:         fmt.Sprintf("Test Notification %d", nextID()),
		Message:       "test message",
		Priority:      models.PriorityLow,
		ReferenceType: models.ReferenceNone,
		IsRead:        isRead,
	}
	if isRead {
		now := time.Now()
		n.ReadAt = &now
	}
	if err := db.Create(n).Error; err != nil {
		t.Fatalf("failed to create test notification: %v", err)
	}
	return n
}
