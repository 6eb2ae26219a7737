package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"finly/internal/dates"
	apperrors "finly/internal/errors"
	"finly/internal/events"
	"finly/internal/models"
	"finly/internal/pagination"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db        *gorm.DB
	ledger    BudgetLedger
	publisher events.Publisher
	now       func() time.Time
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, ledger BudgetLedger, publisher events.Publisher) TransactionServicer {
	return &transactionService{
		db:        db,
		ledger:    ledger,
		publisher: publisher,
		now:       time.Now,
	}
}

// resolvedTransaction holds the stored fields derived from a TransactionInput.
type resolvedTransaction struct {
	categoryID *string
	name       string
}

// resolveInput validates the input and derives the category reference and name.
func resolveInput(tx *gorm.DB, userID string, input TransactionInput) (*resolvedTransaction, error) {
	if !input.Type.Valid() {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if input.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}

	if input.Type == models.TransactionTypeIncome {
		source := strings.ToLower(strings.TrimSpace(input.IncomeSourceName))
		if source == "" {
			return nil, apperrors.ErrIncomeSourceRequired
		}
		return &resolvedTransaction{name: source}, nil
	}

	if input.CategoryID == nil || *input.CategoryID == "" {
		return nil, apperrors.ErrCategoryRequired
	}
	var category models.Category
	if err := tx.Where("id = ? AND user_id = ?", *input.CategoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCategory
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &resolvedTransaction{categoryID: &category.ID, name: category.Name}, nil
}

func findTransaction(tx *gorm.DB, userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := tx.Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// withHistoricCategory preloads the category even when it was deleted after
// the transaction was recorded.
func withHistoricCategory(db *gorm.DB) *gorm.DB {
	return db.Preload("Category", func(q *gorm.DB) *gorm.DB { return q.Unscoped() })
}

// CreateTransaction records an income or expense dated today. An expense
// draws down at most one matching budget in the same database transaction.
func (s *transactionService) CreateTransaction(userID string, input TransactionInput) (*TransactionResult, error) {
	result := &TransactionResult{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		resolved, err := resolveInput(tx, userID, input)
		if err != nil {
			return err
		}

		transaction := &models.Transaction{
			UserID:     userID,
			CategoryID: resolved.categoryID,
			Type:       input.Type,
			Amount:     input.Amount,
			Name:       resolved.name,
			Date:       dates.Day(s.now()),
		}
		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		result.Transaction = transaction

		if transaction.Type != models.TransactionTypeExpense {
			return nil
		}
		consumed, err := s.ledger.Consume(tx, userID, *transaction.CategoryID, transaction.Amount, transaction.Date)
		if err != nil {
			return err
		}
		if consumed != nil {
			result.ConsumedBudgetID = &consumed.ID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(events.TransactionCreated, result.Transaction, nil)
	if result.ConsumedBudgetID != nil {
		s.emitBudget(events.BudgetConsumed, userID, *result.ConsumedBudgetID, result.Transaction)
	}
	return result, nil
}

// listTransactions returns one page of the user's transactions matching the
// given conditions, newest first.
func (s *transactionService) listTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	if filter.Type != nil {
		base = base.Where("type = ?", *filter.Type)
	}
	if filter.CategoryID != nil {
		base = base.Where("category_id = ?", *filter.CategoryID)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := withHistoricCategory(base).
		Order("date DESC, id DESC").
		Scopes(pagination.Paginate(page)).
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetUserTransactions retrieves a paginated, filtered list of the user's transactions.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if filter.Type != nil && !filter.Type.Valid() {
		return nil, apperrors.ErrInvalidTransactionType
	}
	return s.listTransactions(userID, page, filter)
}

// GetExpensesForCategory lists the user's expenses for a category looked up by name.
func (s *transactionService) GetExpensesForCategory(userID, categoryName string, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	var category models.Category
	err := s.db.Where("user_id = ? AND name = ?", userID, models.NormalizeCategoryName(categoryName)).
		First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	expense := models.TransactionTypeExpense
	return s.listTransactions(userID, page, TransactionFilter{Type: &expense, CategoryID: &category.ID})
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	return findTransaction(withHistoricCategory(s.db), userID, transactionID)
}

// UpdateTransaction edits amount, category or income source. The type and
// date never change. Expense edits refund the old figures and consume the new
// ones atomically.
func (s *transactionService) UpdateTransaction(userID, transactionID string, input TransactionInput) (*TransactionResult, error) {
	result := &TransactionResult{}
	var previous models.Transaction
	var refunded int64

	err := s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := findTransaction(tx, userID, transactionID)
		if err != nil {
			return err
		}
		previous = *existing

		if input.Type != existing.Type {
			if !input.Type.Valid() {
				return apperrors.ErrInvalidTransactionType
			}
			return apperrors.ErrInvalidTypeChange
		}

		resolved, err := resolveInput(tx, userID, input)
		if err != nil {
			return err
		}

		if existing.Type == models.TransactionTypeExpense && existing.CategoryID != nil {
			refunded, err = s.ledger.Refund(tx, userID, *existing.CategoryID, existing.Amount, existing.Date)
			if err != nil {
				return err
			}
		}

		if err := tx.Model(&models.Transaction{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"amount":      input.Amount,
				"name":        resolved.name,
				"category_id": resolved.categoryID,
			}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if existing.Type == models.TransactionTypeExpense {
			consumed, err := s.ledger.Consume(tx, userID, *resolved.categoryID, input.Amount, existing.Date)
			if err != nil {
				return err
			}
			if consumed != nil {
				result.ConsumedBudgetID = &consumed.ID
			}
		}

		result.Transaction, err = findTransaction(tx, userID, existing.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.emit(events.TransactionUpdated, result.Transaction, map[string]any{
		"previous_amount":      previous.Amount,
		"previous_category_id": previous.CategoryID,
	})
	if refunded > 0 {
		s.emitRefund(userID, &previous, refunded)
	}
	if result.ConsumedBudgetID != nil {
		s.emitBudget(events.BudgetConsumed, userID, *result.ConsumedBudgetID, result.Transaction)
	}
	return result, nil
}

// DeleteTransaction removes a transaction. Deleting an expense credits the
// amount back to every budget that covers it.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	var deleted *models.Transaction
	var refunded int64

	err := s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := findTransaction(tx, userID, transactionID)
		if err != nil {
			return err
		}
		deleted = existing

		if existing.Type == models.TransactionTypeExpense && existing.CategoryID != nil {
			refunded, err = s.ledger.Refund(tx, userID, *existing.CategoryID, existing.Amount, existing.Date)
			if err != nil {
				return err
			}
		}

		if err := tx.Delete(&models.Transaction{}, "id = ?", existing.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.emit(events.TransactionDeleted, deleted, nil)
	if refunded > 0 {
		s.emitRefund(userID, deleted, refunded)
	}
	return nil
}

// ResetTransactions deletes every transaction of the user. Budgets are left
// untouched; use the budget reset to restore their left amounts.
func (s *transactionService) ResetTransactions(userID string) (int64, error) {
	result := s.db.Where("user_id = ?", userID).Delete(&models.Transaction{})
	if result.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}

	events.Emit(s.publisher, events.New(events.TransactionsReset, userID, "", map[string]any{
		"transactions": result.RowsAffected,
	}))
	return result.RowsAffected, nil
}

func (s *transactionService) emit(eventType string, t *models.Transaction, extra map[string]any) {
	payload := map[string]any{
		"type":        t.Type,
		"amount":      t.Amount,
		"name":        t.Name,
		"category_id": t.CategoryID,
		"date":        dates.FormatWire(t.Date),
	}
	for k, v := range extra {
		payload[k] = v
	}
	events.Emit(s.publisher, events.New(eventType, t.UserID, t.ID, payload))
}

func (s *transactionService) emitBudget(eventType, userID, budgetID string, t *models.Transaction) {
	events.Emit(s.publisher, events.New(eventType, userID, budgetID, map[string]any{
		"transaction_id": t.ID,
		"amount":         t.Amount,
	}))
}

func (s *transactionService) emitRefund(userID string, t *models.Transaction, budgets int64) {
	events.Emit(s.publisher, events.New(events.BudgetRefunded, userID, "", map[string]any{
		"transaction_id": t.ID,
		"category_id":    t.CategoryID,
		"amount":         t.Amount,
		"budgets":        budgets,
	}))
}
