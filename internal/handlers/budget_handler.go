package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"finly/internal/dates"
	apperrors "finly/internal/errors"
	"finly/internal/models"
	"finly/internal/services"
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, auditService: auditService}
}

// BudgetRequest represents the payload for creating or replacing a budget.
// Dates use DD/MM/YYYY and both ends of the window are inclusive.
type BudgetRequest struct {
	Amount       int64  `json:"amount" binding:"required,gt=0"`
	StartDate    string `json:"start_date" binding:"required,wire_date"`
	EndDate      string `json:"end_date" binding:"required,wire_date"`
	CategoryName string `json:"category_name" binding:"required,max=100"`
}

// BudgetResponse represents a budget in the response.
type BudgetResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	CategoryID   string    `json:"category_id"`
	CategoryName string    `json:"category_name"`
	Amount       int64     `json:"amount"`
	LeftAmount   int64     `json:"left_amount"`
	StartDate    string    `json:"start_date"`
	EndDate      string    `json:"end_date"`
	CreatedAt    time.Time `json:"created_at"`
}

func newBudgetResponse(b *models.Budget) BudgetResponse {
	return BudgetResponse{
		ID:           b.ID,
		UserID:       b.UserID,
		CategoryID:   b.CategoryID,
		CategoryName: b.Category.Name,
		Amount:       b.Amount,
		LeftAmount:   b.LeftAmount,
		StartDate:    dates.FormatWire(b.StartDate),
		EndDate:      dates.FormatWire(b.EndDate),
		CreatedAt:    b.CreatedAt,
	}
}

func newBudgetResponses(budgets []models.Budget) []BudgetResponse {
	out := make([]BudgetResponse, len(budgets))
	for i := range budgets {
		out[i] = newBudgetResponse(&budgets[i])
	}
	return out
}

// toInput converts the validated request into service input.
func (r BudgetRequest) toInput() (services.BudgetInput, error) {
	start, err := dates.ParseWire(r.StartDate)
	if err != nil {
		return services.BudgetInput{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	end, err := dates.ParseWire(r.EndDate)
	if err != nil {
		return services.BudgetInput{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return services.BudgetInput{
		Amount:       r.Amount,
		StartDate:    start,
		EndDate:      end,
		CategoryName: r.CategoryName,
	}, nil
}

// CreateBudget handles the creation of a new budget.
// @Summary     Create a budget
// @Description Create a budget for a category, creating the category on first use
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       userId  path string        true "User ID (must match the token)"
// @Param       request body BudgetRequest true "Budget details"
// @Success     201 {object} BudgetResponse "Budget created"
// @Failure     400 {object} ErrorResponse "Invalid input, date range or duplicate budget"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/createBudget/{userId} [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BudgetRequest
	if !bindJSON(c, &req) {
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.CreateBudget(userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditCreateBudget, "budget", budget.ID, c.ClientIP(),
		map[string]interface{}{"amount": req.Amount, "category": budget.Category.Name, "start_date": req.StartDate, "end_date": req.EndDate})

	c.JSON(http.StatusCreated, gin.H{"budget": newBudgetResponse(budget)})
}

// GetBudgetsForUser lists every budget of the caller.
// @Summary     List budgets
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       userId path string true "User ID (must match the token)"
// @Success     200 {array} BudgetResponse "Budgets"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /budgets/getBudgetsForUser/{userId} [get]
func (h *BudgetHandler) GetBudgetsForUser(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgets, err := h.budgetService.GetUserBudgets(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budgets": newBudgetResponses(budgets)})
}

// TrackBudget lists the budgets of a category looked up by name.
// @Summary     Track a category's budgets
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       categoryName query string true  "Category name"
// @Param       userId       query string false "User ID (must match the token)"
// @Success     200 {array} BudgetResponse "Budgets"
// @Failure     400 {object} ErrorResponse "Missing category name"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /budgets/trackBudget [get]
func (h *BudgetHandler) TrackBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryName := c.Query("categoryName")
	if categoryName == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "categoryName is required"))
		return
	}

	budgets, err := h.budgetService.TrackBudget(userID, categoryName)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budgets": newBudgetResponses(budgets)})
}

// GetBudgetsForCategory lists the caller's budgets for a category ID.
// @Summary     List budgets for a category
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       categoryId path string true "Category ID"
// @Success     200 {array} BudgetResponse "Budgets"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budgets/getBudgetsForCategory/{categoryId} [get]
func (h *BudgetHandler) GetBudgetsForCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgets, err := h.budgetService.GetBudgetsForCategory(userID, c.Param("categoryId"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budgets": newBudgetResponses(budgets)})
}

// GetBudget returns a single budget.
// @Summary     Get budget
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} BudgetResponse "Budget"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/getBudget/{id} [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudgetByID(userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": newBudgetResponse(budget)})
}

// EditBudget replaces a budget's amount, window and category.
// @Summary     Edit budget
// @Description left_amount moves by the change in amount; recorded spending is kept
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string        true "Budget ID"
// @Param       userId  path string        true "User ID (must match the token)"
// @Param       request body BudgetRequest true "Budget details"
// @Success     200 {object} BudgetResponse "Budget updated"
// @Failure     400 {object} ErrorResponse "Invalid input, date range or duplicate budget"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/editBudget/{id}/{userId} [put]
func (h *BudgetHandler) EditBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BudgetRequest
	if !bindJSON(c, &req) {
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.UpdateBudget(userID, c.Param("id"), input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditUpdateBudget, "budget", budget.ID, c.ClientIP(),
		map[string]interface{}{"amount": req.Amount, "category": budget.Category.Name, "start_date": req.StartDate, "end_date": req.EndDate})

	c.JSON(http.StatusOK, gin.H{"budget": newBudgetResponse(budget)})
}

// DeleteBudget deletes a budget and its category once no budget uses it.
// @Summary     Delete budget
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id     path string true "Budget ID"
// @Param       userId path string true "User ID (must match the token)"
// @Success     200 {object} services.BudgetDeletion "Budget deleted"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/deleteBudget/{id}/{userId} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.budgetService.DeleteBudget(userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditDeleteBudget, "budget", result.BudgetID, c.ClientIP(),
		map[string]interface{}{"category_id": result.CategoryID, "category_deleted": result.CategoryDeleted})

	c.JSON(http.StatusOK, gin.H{
		"message":          "Budget deleted successfully",
		"budget_id":        result.BudgetID,
		"category_id":      result.CategoryID,
		"category_deleted": result.CategoryDeleted,
	})
}

// ResetBudgetSpending restores every budget of the caller to its full amount.
// @Summary     Reset budget spending
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       userId path string true "User ID (must match the token)"
// @Success     200 {object} map[string]interface{} "Budgets reset"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /budgets/resetBudgetSpending/{userId} [post]
func (h *BudgetHandler) ResetBudgetSpending(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	reset, err := h.budgetService.ResetBudgetSpending(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditResetBudgets, "budget", "", c.ClientIP(),
		map[string]interface{}{"budgets": reset})

	c.JSON(http.StatusOK, gin.H{"message": "Budget spending reset successfully", "budgets_reset": reset})
}
