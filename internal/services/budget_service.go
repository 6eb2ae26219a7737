package services

import (
	"errors"

	"gorm.io/gorm"

	"finly/internal/dates"
	apperrors "finly/internal/errors"
	"finly/internal/events"
	"finly/internal/models"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db        *gorm.DB
	ledger    BudgetLedger
	publisher events.Publisher
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, ledger BudgetLedger, publisher events.Publisher) BudgetServicer {
	return &budgetService{db: db, ledger: ledger, publisher: publisher}
}

// validateBudgetInput normalizes the input dates and checks the window.
func validateBudgetInput(input *BudgetInput) error {
	if input.Amount <= 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if models.NormalizeCategoryName(input.CategoryName) == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	input.StartDate = dates.Day(input.StartDate)
	input.EndDate = dates.Day(input.EndDate)
	if input.StartDate.After(input.EndDate) {
		return apperrors.ErrInvalidDateRange
	}
	return nil
}

// ensureUniqueWindow rejects a second live budget for the same category and window.
func ensureUniqueWindow(tx *gorm.DB, userID, categoryID string, input BudgetInput, excludeID string) error {
	query := tx.Model(&models.Budget{}).
		Where("user_id = ? AND category_id = ? AND start_date = ? AND end_date = ?",
			userID, categoryID, input.StartDate, input.EndDate)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateBudget
	}
	return nil
}

func findBudget(tx *gorm.DB, userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := tx.Preload("Category").Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// CreateBudget creates a budget, creating its category on first use.
func (s *budgetService) CreateBudget(userID string, input BudgetInput) (*models.Budget, error) {
	if err := validateBudgetInput(&input); err != nil {
		return nil, err
	}

	var budget *models.Budget
	err := s.db.Transaction(func(tx *gorm.DB) error {
		category, err := findOrCreateCategory(tx, userID, input.CategoryName)
		if err != nil {
			return err
		}
		if err := ensureUniqueWindow(tx, userID, category.ID, input, ""); err != nil {
			return err
		}

		created := &models.Budget{
			UserID:     userID,
			CategoryID: category.ID,
			Amount:     input.Amount,
			LeftAmount: input.Amount,
			StartDate:  input.StartDate,
			EndDate:    input.EndDate,
		}
		if err := tx.Omit("Category").Create(created).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		created.Category = *category
		budget = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	return budget, nil
}

// GetUserBudgets returns every budget of the user, newest window first.
func (s *budgetService) GetUserBudgets(userID string) ([]models.Budget, error) {
	budgets := []models.Budget{}
	if err := s.db.Preload("Category").
		Where("user_id = ?", userID).
		Order("start_date DESC, id ASC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}

// TrackBudget returns the budgets of the named category.
func (s *budgetService) TrackBudget(userID, categoryName string) ([]models.Budget, error) {
	var category models.Category
	err := s.db.Where("user_id = ? AND name = ?", userID, models.NormalizeCategoryName(categoryName)).
		First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetBudgetsForCategory(userID, category.ID)
}

// GetBudgetsForCategory returns the user's budgets for one category.
func (s *budgetService) GetBudgetsForCategory(userID, categoryID string) ([]models.Budget, error) {
	budgets := []models.Budget{}
	if err := s.db.Preload("Category").
		Where("user_id = ? AND category_id = ?", userID, categoryID).
		Order("start_date DESC, id ASC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}

// GetBudgetByID returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	return findBudget(s.db, userID, budgetID)
}

// UpdateBudget replaces a budget's amount, window and category. left_amount
// shifts by the change in amount; spending already recorded is kept.
func (s *budgetService) UpdateBudget(userID, budgetID string, input BudgetInput) (*models.Budget, error) {
	if err := validateBudgetInput(&input); err != nil {
		return nil, err
	}

	var budget *models.Budget
	err := s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := findBudget(tx, userID, budgetID)
		if err != nil {
			return err
		}

		category, err := findOrCreateCategory(tx, userID, input.CategoryName)
		if err != nil {
			return err
		}
		if err := ensureUniqueWindow(tx, userID, category.ID, input, existing.ID); err != nil {
			return err
		}

		if err := s.ledger.Reallocate(tx, existing.ID, input.Amount); err != nil {
			return err
		}
		if err := tx.Model(&models.Budget{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"category_id": category.ID,
				"start_date":  input.StartDate,
				"end_date":    input.EndDate,
			}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		budget, err = findBudget(tx, userID, existing.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return budget, nil
}

// DeleteBudget deletes a budget and then its category when no other live
// budget of the user still references it. Transactions keep pointing at the
// soft-deleted category.
func (s *budgetService) DeleteBudget(userID, budgetID string) (*BudgetDeletion, error) {
	var result *BudgetDeletion
	err := s.db.Transaction(func(tx *gorm.DB) error {
		budget, err := findBudget(tx, userID, budgetID)
		if err != nil {
			return err
		}

		if err := tx.Delete(&models.Budget{}, "id = ?", budget.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var remaining int64
		if err := tx.Model(&models.Budget{}).
			Where("user_id = ? AND category_id = ?", userID, budget.CategoryID).
			Count(&remaining).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		result = &BudgetDeletion{BudgetID: budget.ID, CategoryID: budget.CategoryID}
		if remaining > 0 {
			return nil
		}

		if err := tx.Delete(&models.Category{}, "id = ? AND user_id = ?", budget.CategoryID, userID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		result.CategoryDeleted = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ResetBudgetSpending restores every budget of the user to its full amount.
func (s *budgetService) ResetBudgetSpending(userID string) (int64, error) {
	var reset int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		n, err := s.ledger.Reset(tx, userID)
		reset = n
		return err
	})
	if err != nil {
		return 0, err
	}

	events.Emit(s.publisher, events.New(events.BudgetsReset, userID, "", map[string]any{"budgets": reset}))
	return reset, nil
}
