package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/services"
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	orchestrator  services.BudgetOrchestrator
	auditService  services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, orchestrator services.BudgetOrchestrator, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, orchestrator: orchestrator, auditService: auditService}
}

// CreateBudgetRequest represents the request payload for creating a budget.
type CreateBudgetRequest struct {
	Name                string              `json:"name" binding:"required,min=1,max=100"`
	Amount              decimal.Decimal     `json:"amount" binding:"required"`
	Period              models.BudgetPeriod `json:"period" binding:"required,budget_period"`
	StartDate           time.Time           `json:"start_date" binding:"required"`
	EndDate             time.Time           `json:"end_date" binding:"required"`
	CategoryScope       []string            `json:"category_scope"`
	AlertThreshold      *float64            `json:"alert_threshold" binding:"omitempty,min=0,max=100"`
	AlertEnabled        *bool               `json:"alert_enabled"`
	RepeatAutomatically *bool               `json:"repeat_automatically"`
}

// UpdateBudgetRequest represents the request payload for updating a budget.
// All fields are optional; omitted fields are left unchanged.
type UpdateBudgetRequest struct {
	Name                *string              `json:"name" binding:"omitempty,min=1,max=100"`
	Amount              *decimal.Decimal     `json:"amount"`
	Period              *models.BudgetPeriod `json:"period" binding:"omitempty,budget_period"`
	StartDate           *time.Time           `json:"start_date"`
	EndDate             *time.Time           `json:"end_date"`
	CategoryScope       *[]string            `json:"category_scope"`
	AlertThreshold      *float64             `json:"alert_threshold" binding:"omitempty,min=0,max=100"`
	AlertEnabled        *bool                `json:"alert_enabled"`
	IsActive            *bool                `json:"is_active"`
	RepeatAutomatically *bool                `json:"repeat_automatically"`
}

// CreateBudget handles the creation of a new budget.
// @Summary     Create a budget
// @Description Create a new budget with an optional category scope
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateBudgetRequest true "Budget details"
// @Success     201 {object} models.Budget "Budget created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.budgetService.CreateBudget(userID, services.CreateBudgetInput{
		Name:                req.Name,
		Amount:              req.Amount,
		Period:              req.Period,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		CategoryScope:       req.CategoryScope,
		AlertThreshold:      req.AlertThreshold,
		AlertEnabled:        req.AlertEnabled,
		RepeatAutomatically: req.RepeatAutomatically,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	// The row is committed; recompute and alert in-band so the response
	// carries a fresh snapshot.
	budget = h.orchestrator.OnBudgetWritten(budget)

	h.auditService.Log(userID, "CREATE_BUDGET", "budget", budget.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name, "amount": req.Amount, "period": req.Period})

	c.JSON(http.StatusCreated, gin.H{"budget": budget})
}

// GetBudgets handles listing budgets with pagination and optional filters.
// @Summary     List budgets
// @Description Get the authenticated user's budgets with optional is_active and period filters
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Page size (default 20, max 100)"
// @Param       is_active query bool   false "Filter by active state"
// @Param       period    query string false "Filter by period (daily, weekly, monthly, yearly, custom)"
// @Success     200 {object} pagination.PageResponse[models.Budget] "Paginated budgets"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [get]
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var isActive *bool
	if v := c.Query("is_active"); v != "" {
		switch v {
		case "true":
			b := true
			isActive = &b
		case "false":
			b := false
			isActive = &b
		default:
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "is_active must be 'true' or 'false'"))
			return
		}
	}

	var period *models.BudgetPeriod
	if v := c.Query("period"); v != "" {
		p := models.BudgetPeriod(v)
		if !models.ValidBudgetPeriod(p) {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "period must be daily, weekly, monthly, yearly, or custom"))
			return
		}
		period = &p
	}

	result, err := h.budgetService.GetUserBudgets(userID, page, isActive, period)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetBudget handles retrieving a specific budget.
// @Summary     Get budget by ID
// @Description Get a specific budget with its latest spend snapshot
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} models.Budget "Budget details"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudgetByID(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// UpdateBudget handles updating an existing budget.
// @Summary     Update budget
// @Description Update an existing budget; the spend snapshot is recomputed afterwards
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Budget ID"
// @Param       request body UpdateBudgetRequest true "Updated budget details"
// @Success     200 {object} models.Budget "Updated budget"
// @Failure     400 {object} ErrorResponse "Invalid input or budget ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [put]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.budgetService.UpdateBudget(userID, budgetID, services.BudgetPatch{
		Name:                req.Name,
		Amount:              req.Amount,
		Period:              req.Period,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		CategoryScope:       req.CategoryScope,
		AlertThreshold:      req.AlertThreshold,
		AlertEnabled:        req.AlertEnabled,
		IsActive:            req.IsActive,
		RepeatAutomatically: req.RepeatAutomatically,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget = h.orchestrator.OnBudgetWritten(budget)

	h.auditService.Log(userID, "UPDATE_BUDGET", "budget", budget.ID, c.ClientIP(),
		map[string]interface{}{"name": budget.Name, "amount": budget.Amount})

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// DeleteBudget handles deactivating or permanently deleting a budget.
// @Summary     Delete budget
// @Description Deactivate a budget, or permanently remove it with ?hard=true
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id   path  string true  "Budget ID"
// @Param       hard query bool   false "Permanently delete instead of deactivating"
// @Success     200 {object} map[string]string "Budget deleted"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	hard := c.Query("hard") == "true"

	if err := h.budgetService.DeleteBudget(userID, budgetID, hard); err != nil {
		respondWithError(c, err)
		return
	}

	action := "DEACTIVATE_BUDGET"
	message := "Budget deactivated"
	if hard {
		action = "DELETE_BUDGET"
		message = "Budget deleted"
	}
	h.auditService.Log(userID, action, "budget", budgetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": message})
}

// RefreshBudget handles an on-demand recompute of a single budget.
// @Summary     Refresh budget
// @Description Recompute a budget's spend snapshot against the transaction ledger
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} models.Budget "Refreshed budget"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     503 {object} ErrorResponse "Ledger unavailable"
// @Router      /budgets/{id}/refresh [post]
func (h *BudgetHandler) RefreshBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.orchestrator.RefreshBudget(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// RefreshAllBudgets handles an on-demand recompute of all active budgets.
// @Summary     Refresh all budgets
// @Description Recompute the spend snapshot of every active budget
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]int "Count of refreshed budgets"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/refresh [post]
func (h *BudgetHandler) RefreshAllBudgets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	refreshed, err := h.orchestrator.RefreshAllBudgets(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"refreshed": refreshed})
}

// GetStatusSummary handles the budget status roll-up.
// @Summary     Budget status summary
// @Description Group the user's active budgets by status (ok, warning, exceeded)
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.BudgetStatusSummary "Budgets grouped by status"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/summary [get]
func (h *BudgetHandler) GetStatusSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.budgetService.GetStatusSummary(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
