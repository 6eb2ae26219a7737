package services

import (
	"time"

	"gorm.io/gorm"

	"finly/internal/models"
	"finly/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID, name string) (*models.Category, error)
	GetUserCategories(userID string) ([]models.Category, error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	GetCategoryByName(userID, name string) (*models.Category, error)
	UpdateCategory(userID, categoryID, name string) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
}

// BudgetLedger adjusts budget left amounts as expenses come and go.
type BudgetLedger interface {
	Consume(tx *gorm.DB, userID, categoryID string, amount int64, date time.Time) (*models.Budget, error)
	Refund(tx *gorm.DB, userID, categoryID string, amount int64, date time.Time) (int64, error)
	Reallocate(tx *gorm.DB, budgetID string, newAmount int64) error
	Reset(tx *gorm.DB, userID string) (int64, error)
}

// BudgetInput carries the fields needed to create or replace a budget.
// Dates are calendar dates (UTC midnight).
type BudgetInput struct {
	Amount       int64
	StartDate    time.Time
	EndDate      time.Time
	CategoryName string
}

// BudgetDeletion reports what DeleteBudget removed.
type BudgetDeletion struct {
	BudgetID        string `json:"budget_id"`
	CategoryID      string `json:"category_id"`
	CategoryDeleted bool   `json:"category_deleted"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID string, input BudgetInput) (*models.Budget, error)
	GetUserBudgets(userID string) ([]models.Budget, error)
	TrackBudget(userID, categoryName string) ([]models.Budget, error)
	GetBudgetsForCategory(userID, categoryID string) ([]models.Budget, error)
	GetBudgetByID(userID, budgetID string) (*models.Budget, error)
	UpdateBudget(userID, budgetID string, input BudgetInput) (*models.Budget, error)
	DeleteBudget(userID, budgetID string) (*BudgetDeletion, error)
	ResetBudgetSpending(userID string) (int64, error)
}

// TransactionInput carries the client-editable fields of a transaction.
type TransactionInput struct {
	Type             models.TransactionType
	Amount           int64
	CategoryID       *string
	IncomeSourceName string
}

// TransactionResult is a stored transaction plus the budget it consumed, if any.
type TransactionResult struct {
	Transaction      *models.Transaction `json:"transaction"`
	ConsumedBudgetID *string             `json:"consumed_budget_id"`
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	Type       *models.TransactionType
	CategoryID *string
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID string, input TransactionInput) (*TransactionResult, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetExpensesForCategory(userID, categoryName string, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, input TransactionInput) (*TransactionResult, error)
	DeleteTransaction(userID, transactionID string) error
	ResetTransactions(userID string) (int64, error)
}

// MonthlyReport is the net income/expense summary for one calendar month.
type MonthlyReport struct {
	Year         int                  `json:"year"`
	Month        int                  `json:"month"`
	Transactions []models.Transaction `json:"transactions"`
	TotalIncome  int64                `json:"total_income"`
	TotalExpense int64                `json:"total_expense"`
	NetAmount    int64                `json:"net_amount"`
	Message      string               `json:"message,omitempty"`
}

// ReportServicer defines the contract for financial reports.
type ReportServicer interface {
	GetMonthlyReport(userID string, year int, month time.Month) (*MonthlyReport, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
