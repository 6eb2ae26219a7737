package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"finly/internal/dates"
	apperrors "finly/internal/errors"
	"finly/internal/models"
	"finly/internal/pagination"
	"finly/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// TransactionRequest represents the payload for creating or editing a transaction.
// Expenses need category_id; income needs income_source_name.
type TransactionRequest struct {
	Type             models.TransactionType `json:"type" binding:"required,transaction_type"`
	Amount           int64                  `json:"amount" binding:"required,gt=0"`
	CategoryID       *string                `json:"category_id"`
	IncomeSourceName string                 `json:"income_source_name" binding:"max=100"`
}

func (r TransactionRequest) toInput() services.TransactionInput {
	return services.TransactionInput{
		Type:             r.Type,
		Amount:           r.Amount,
		CategoryID:       r.CategoryID,
		IncomeSourceName: r.IncomeSourceName,
	}
}

// TransactionResponse represents a transaction in the response
type TransactionResponse struct {
	ID           string                 `json:"id"`
	UserID       string                 `json:"user_id"`
	CategoryID   *string                `json:"category_id"`
	CategoryName string                 `json:"category_name,omitempty"`
	Type         models.TransactionType `json:"type"`
	Amount       int64                  `json:"amount"`
	Name         string                 `json:"name"`
	Date         string                 `json:"date"`
	CreatedAt    time.Time              `json:"created_at"`
}

// TransactionResultResponse is returned by create and edit.
type TransactionResultResponse struct {
	Transaction      TransactionResponse `json:"transaction"`
	ConsumedBudgetID *string             `json:"consumed_budget_id"`
}

func newTransactionResponse(t models.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:         t.ID,
		UserID:     t.UserID,
		CategoryID: t.CategoryID,
		Type:       t.Type,
		Amount:     t.Amount,
		Name:       t.Name,
		Date:       dates.FormatWire(t.Date),
		CreatedAt:  t.CreatedAt,
	}
	if t.Category != nil {
		resp.CategoryName = t.Category.Name
	}
	return resp
}

func newTransactionResultResponse(r *services.TransactionResult) TransactionResultResponse {
	return TransactionResultResponse{
		Transaction:      newTransactionResponse(*r.Transaction),
		ConsumedBudgetID: r.ConsumedBudgetID,
	}
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Create a transaction
// @Description Record an income or expense dated today. An expense draws down at most one matching budget.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body TransactionRequest true "Transaction details"
// @Success     201 {object} TransactionResultResponse "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input or category"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/createTransaction [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransactionRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.transactionService.CreateTransaction(userID, req.toInput())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditCreateTransaction, "transaction", result.Transaction.ID, c.ClientIP(),
		map[string]interface{}{"type": req.Type, "amount": req.Amount, "consumed_budget_id": result.ConsumedBudgetID})

	c.JSON(http.StatusCreated, newTransactionResultResponse(result))
}

// list writes one page of the caller's transactions.
func (h *TransactionHandler) list(c *gin.Context, filter services.TransactionFilter) {
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

	result, err := h.transactionService.GetUserTransactions(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, pagination.MapPage(result, newTransactionResponse))
}

// GetTransactionsForUser lists the caller's transactions.
// @Summary     List transactions
// @Description Paginated transactions of the caller, newest first
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       userId      path  string true  "User ID (must match the token)"
// @Param       type        query string false "Filter by type (income/expense)"
// @Param       category_id query string false "Filter by category ID"
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[TransactionResponse] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /transactions/getTransactionsForUser/{userId} [get]
func (h *TransactionHandler) GetTransactionsForUser(c *gin.Context) {
	var filter services.TransactionFilter
	if v := c.Query("type"); v != "" {
		t := models.TransactionType(v)
		filter.Type = &t
	}
	if v := c.Query("category_id"); v != "" {
		filter.CategoryID = &v
	}
	h.list(c, filter)
}

// GetExpenses lists the caller's expenses.
// @Summary     List expenses
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[TransactionResponse] "Paginated expenses"
// @Router      /transactions/getExpenses [get]
// @Router      /transactions/getExpenseTransactionsForUser/{userId} [get]
func (h *TransactionHandler) GetExpenses(c *gin.Context) {
	expense := models.TransactionTypeExpense
	h.list(c, services.TransactionFilter{Type: &expense})
}

// GetIncome lists the caller's income.
// @Summary     List income
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[TransactionResponse] "Paginated income"
// @Router      /transactions/getIncome [get]
// @Router      /transactions/getIncomeTransactionsForUser/{userId} [get]
func (h *TransactionHandler) GetIncome(c *gin.Context) {
	income := models.TransactionTypeIncome
	h.list(c, services.TransactionFilter{Type: &income})
}

// GetExpensesForCategory lists the caller's expenses for a category name.
// @Summary     List expenses for a category
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       categoryName path  string true  "Category name"
// @Param       userId       path  string true  "User ID (must match the token)"
// @Param       page         query int    false "Page number (default 1)"
// @Param       page_size    query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[TransactionResponse] "Paginated expenses"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /transactions/getExpensesForCategory/{categoryName}/{userId} [get]
func (h *TransactionHandler) GetExpensesForCategory(c *gin.Context) {
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

	result, err := h.transactionService.GetExpensesForCategory(userID, c.Param("categoryName"), page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, pagination.MapPage(result, newTransactionResponse))
}

// GetTransaction returns a single transaction.
// @Summary     Get transaction
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} TransactionResponse "Transaction"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/getTransaction/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": newTransactionResponse(*transaction)})
}

// EditTransaction edits a transaction's amount, category or income source.
// @Summary     Edit transaction
// @Description The type cannot change. Expense edits refund the old amount and consume the new one.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string             true "Transaction ID"
// @Param       request body TransactionRequest true "Transaction details"
// @Success     200 {object} TransactionResultResponse "Transaction updated"
// @Failure     400 {object} ErrorResponse "Invalid input or type change"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/editTransaction/{id} [put]
func (h *TransactionHandler) EditTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransactionRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.transactionService.UpdateTransaction(userID, c.Param("id"), req.toInput())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditUpdateTransaction, "transaction", result.Transaction.ID, c.ClientIP(),
		map[string]interface{}{"amount": req.Amount, "category_id": req.CategoryID, "income_source_name": req.IncomeSourceName})

	c.JSON(http.StatusOK, newTransactionResultResponse(result))
}

// DeleteTransaction deletes a transaction, refunding expenses to their budgets.
// @Summary     Delete transaction
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} MessageResponse "Transaction deleted"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/deleteTransaction/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID := c.Param("id")
	if err := h.transactionService.DeleteTransaction(userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditDeleteTransaction, "transaction", transactionID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Transaction deleted successfully"})
}

// ResetTransactions deletes every transaction of the caller.
// @Summary     Reset transactions
// @Description Budgets are not touched; use resetBudgetSpending to restore them.
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       userId path string true "User ID (must match the token)"
// @Success     200 {object} map[string]interface{} "Transactions deleted"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /transactions/resetTransactions/{userId} [delete]
func (h *TransactionHandler) ResetTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	deleted, err := h.transactionService.ResetTransactions(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditResetTransactions, "transaction", "", c.ClientIP(),
		map[string]interface{}{"transactions": deleted})

	c.JSON(http.StatusOK, gin.H{"message": "All transactions deleted successfully", "deleted": deleted})
}
