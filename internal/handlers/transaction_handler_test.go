package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/services"
)

const (
	testTransactionID = "0193e5c2-1b2c-7d3e-8f4a-6b7c8d9e0f1a"
	testCategoryID    = "0193e5c2-2c3d-7e4f-9a5b-7c8d9e0f1a2b"
)

// --- mock transaction service ---

type mockTransactionService struct {
	createTransactionFn   func(userID string, categoryID *string, transactionType models.TransactionType, amount decimal.Decimal, description string, date time.Time) (*models.Transaction, error)
	getUserTransactionsFn func(userID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	getTransactionByIDFn  func(userID, transactionID string) (*models.Transaction, error)
	updateTransactionFn   func(userID, transactionID string, categoryID *string, amount *decimal.Decimal, description *string, date *time.Time) (*models.Transaction, error)
	deleteTransactionFn   func(userID, transactionID string) error
}

func (m *mockTransactionService) CreateTransaction(userID string, categoryID *string, transactionType models.TransactionType, amount decimal.Decimal, description string, date time.Time) (*models.Transaction, error) {
	if m.createTransactionFn != nil {
		return m.createTransactionFn(userID, categoryID, transactionType, amount, description, date)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.getUserTransactionsFn != nil {
		return m.getUserTransactionsFn(userID, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockTransactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	if m.getTransactionByIDFn != nil {
		return m.getTransactionByIDFn(userID, transactionID)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) UpdateTransaction(userID, transactionID string, categoryID *string, amount *decimal.Decimal, description *string, date *time.Time) (*models.Transaction, error) {
	if m.updateTransactionFn != nil {
		return m.updateTransactionFn(userID, transactionID, categoryID, amount, description, date)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) DeleteTransaction(userID, transactionID string) error {
	if m.deleteTransactionFn != nil {
		return m.deleteTransactionFn(userID, transactionID)
	}
	return nil
}

var _ services.TransactionServicer = (*mockTransactionService)(nil)

func setupTransactionRouter(handler *TransactionHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/transactions", handler.CreateTransaction)
	auth.GET("/transactions", handler.GetTransactions)
	auth.GET("/transactions/:id", handler.GetTransaction)
	auth.PUT("/transactions/:id", handler.UpdateTransaction)
	auth.DELETE("/transactions/:id", handler.DeleteTransaction)
	return r
}

func TestTransactionHandler_CreateTransaction(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		svc := &mockTransactionService{
			createTransactionFn: func(_ string, categoryID *string, transactionType models.TransactionType, amount decimal.Decimal, description string, date time.Time) (*models.Transaction, error) {
				return &models.Transaction{
					Base:        models.Base{ID: testTransactionID},
					CategoryID:  categoryID,
					Type:        transactionType,
					Amount:      amount,
					Description: description,
					Date:        date,
				}, nil
			},
		}
		handler := NewTransactionHandler(svc, &mockAuditService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "POST", "/transactions",
			`{"type":"expense","amount":42.50,"description":"Lunch","date":"2025-01-15"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		transaction := result["transaction"].(map[string]interface{})
		if transaction["type"] != "expense" {
			t.Errorf("expected expense, got %v", transaction["type"])
		}
		if transaction["description"] != "Lunch" {
			t.Errorf("expected Lunch, got %v", transaction["description"])
		}
	})

	t.Run("defaults date to now when omitted", func(t *testing.T) {
		var capturedDate time.Time
		svc := &mockTransactionService{
			createTransactionFn: func(_ string, _ *string, _ models.TransactionType, _ decimal.Decimal, _ string, date time.Time) (*models.Transaction, error) {
				capturedDate = date
				return &models.Transaction{}, nil
			},
		}
		handler := NewTransactionHandler(svc, &mockAuditService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "POST", "/transactions", `{"type":"expense","amount":10}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if time.Since(capturedDate) > time.Minute {
			t.Errorf("expected date to default to now, got %v", capturedDate)
		}
	})

	t.Run("returns 400 on unknown type", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{}, &mockAuditService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "POST", "/transactions", `{"type":"transfer","amount":10}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on missing amount", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{}, &mockAuditService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "POST", "/transactions", `{"type":"expense"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on unparseable date", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{}, &mockAuditService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "POST", "/transactions", `{"type":"expense","amount":10,"date":"15/01/2025"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 404 on unknown category", func(t *testing.T) {
		svc := &mockTransactionService{
			createTransactionFn: func(_ string, _ *string, _ models.TransactionType, _ decimal.Decimal, _ string, _ time.Time) (*models.Transaction, error) {
				return nil, apperrors.ErrCategoryNotFound
			},
		}
		handler := NewTransactionHandler(svc, &mockAuditService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "POST", "/transactions",
			`{"type":"expense","amount":10,"category_id":"`+testCategoryID+`"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "CATEGORY_NOT_FOUND")
	})

	t.Run("returns 401 without auth", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{}, &mockAuditService{})
		r := gin.New()
		r.POST("/transactions", handler.CreateTransaction)

		rec := doRequest(r, "POST", "/transactions", `{"type":"expense","amount":10}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_GetTransactions(t *testing.T) {
	t.Run("returns 200 with paginated transactions", func(t *testing.T) {
		svc := &mockTransactionService{
			getUserTransactionsFn: func(_ string, _ pagination.PageRequest, _ services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
				resp := pagination.NewPageResponse([]models.Transaction{
					{Type: models.TransactionTypeExpense, Description: "Coffee"},
					{Type: models.TransactionTypeIncome, Description: "Salary"},
				}, 1, 20, 2)
				return &resp, nil
			},
		}
		handler := NewTransactionHandler(svc, &mockAuditService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "GET", "/transactions", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		data := result["data"].([]interface{})
		if len(data) != 2 {
			t.Errorf("expected 2 transactions, got %d", len(data))
		}
	})

	t.Run("passes filters to service", func(t *testing.T) {
		var captured services.TransactionFilter
		svc := &mockTransactionService{
			getUserTransactionsFn: func(_ string, _ pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
				captured = filter
				resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
				return &resp, nil
			},
		}
		handler := NewTransactionHandler(svc, &mockAuditService{})
		r := setupTransactionRouter(handler)

		doRequest(r, "GET", "/transactions?type=expense&category_id="+testCategoryID+"&min_amount=10.50&from_date=2025-01-01", "")

		if captured.Type == nil || *captured.Type != models.TransactionTypeExpense {
			t.Error("expected type=expense to be passed")
		}
		if captured.CategoryID == nil || *captured.CategoryID != testCategoryID {
			t.Error("expected category_id to be passed")
		}
		if captured.MinAmount == nil || !captured.MinAmount.Equal(decimal.RequireFromString("10.50")) {
			t.Error("expected min_amount=10.50 to be passed")
		}
		if captured.FromDate == nil {
			t.Error("expected from_date to be passed")
		}
	})

	t.Run("returns 400 on invalid type filter", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{}, &mockAuditService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "GET", "/transactions?type=transfer", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on invalid category_id filter", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{}, &mockAuditService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "GET", "/transactions?category_id=not-a-uuid", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on invalid min_amount filter", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{}, &mockAuditService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "GET", "/transactions?min_amount=abc", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_GetTransaction(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		svc := &mockTransactionService{
			getTransactionByIDFn: func(_, transactionID string) (*models.Transaction, error) {
				return &models.Transaction{
					Base:        models.Base{ID: transactionID},
					Type:        models.TransactionTypeExpense,
					Description: "Coffee",
				}, nil
			},
		}
		handler := NewTransactionHandler(svc, &mockAuditService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "GET", "/transactions/"+testTransactionID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		transaction := result["transaction"].(map[string]interface{})
		if transaction["description"] != "Coffee" {
			t.Errorf("expected Coffee, got %v", transaction["description"])
		}
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		svc := &mockTransactionService{
			getTransactionByIDFn: func(_, _ string) (*models.Transaction, error) {
				return nil, apperrors.ErrTransactionNotFound
			},
		}
		handler := NewTransactionHandler(svc, &mockAuditService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "GET", "/transactions/"+testTransactionID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "TRANSACTION_NOT_FOUND")
	})

	t.Run("returns 400 on invalid ID", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{}, &mockAuditService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "GET", "/transactions/abc", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_UpdateTransaction(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		svc := &mockTransactionService{
			updateTransactionFn: func(_, transactionID string, _ *string, amount *decimal.Decimal, description *string, _ *time.Time) (*models.Transaction, error) {
				tx := &models.Transaction{Base: models.Base{ID: transactionID}}
				if amount != nil {
					tx.Amount = *amount
				}
				if description != nil {
					tx.Description = *description
				}
				return tx, nil
			},
		}
		handler := NewTransactionHandler(svc, &mockAuditService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "PUT", "/transactions/"+testTransactionID,
			`{"amount":99.99,"description":"Updated"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		transaction := result["transaction"].(map[string]interface{})
		if transaction["description"] != "Updated" {
			t.Errorf("expected Updated, got %v", transaction["description"])
		}
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		svc := &mockTransactionService{
			updateTransactionFn: func(_, _ string, _ *string, _ *decimal.Decimal, _ *string, _ *time.Time) (*models.Transaction, error) {
				return nil, apperrors.ErrTransactionNotFound
			},
		}
		handler := NewTransactionHandler(svc, &mockAuditService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "PUT", "/transactions/"+testTransactionID, `{"description":"Updated"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "TRANSACTION_NOT_FOUND")
	})
}

func TestTransactionHandler_DeleteTransaction(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{}, &mockAuditService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "DELETE", "/transactions/"+testTransactionID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["message"] != "Transaction deleted" {
			t.Errorf("unexpected message: %v", result["message"])
		}
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		svc := &mockTransactionService{
			deleteTransactionFn: func(_, _ string) error {
				return apperrors.ErrTransactionNotFound
			},
		}
		handler := NewTransactionHandler(svc, &mockAuditService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "DELETE", "/transactions/"+testTransactionID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "TRANSACTION_NOT_FOUND")
	})
}
