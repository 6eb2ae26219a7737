package services

import (
	"time"

	"gorm.io/gorm"

	"finly/internal/dates"
	apperrors "finly/internal/errors"
	"finly/internal/models"
)

// budgetLedger keeps each budget's left_amount in step with the expenses
// posted against it.
//
// Policy is single-consumer, multi-refund: an expense draws down at most one
// matching budget (the oldest with enough left), while removing an expense
// credits every matching budget. The asymmetry is intentional and callers
// must not try to even it out.
//
// Every adjustment is a single conditional UPDATE so concurrent requests
// cannot lose each other's writes. Methods take the caller's *gorm.DB so they
// join the caller's database transaction.
type budgetLedger struct{}

// NewBudgetLedger creates a new BudgetLedger.
func NewBudgetLedger() BudgetLedger {
	return &budgetLedger{}
}

// matchingBudgets scopes a query to budgets of the user and category whose
// inclusive window contains day.
func matchingBudgets(tx *gorm.DB, userID, categoryID string, day time.Time) *gorm.DB {
	return tx.Model(&models.Budget{}).
		Where("user_id = ? AND category_id = ? AND start_date <= ? AND end_date >= ?",
			userID, categoryID, day, day)
}

// Consume decrements the first matching budget that still has at least amount
// left. It returns the consumed budget, or nil when no budget could absorb the
// expense; over-budget spending is not an error.
func (l *budgetLedger) Consume(tx *gorm.DB, userID, categoryID string, amount int64, date time.Time) (*models.Budget, error) {
	day := dates.Day(date)

	var candidates []models.Budget
	if err := matchingBudgets(tx, userID, categoryID, day).
		Order("id ASC").
		Find(&candidates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range candidates {
		result := tx.Model(&models.Budget{}).
			Where("id = ? AND left_amount >= ?", candidates[i].ID, amount).
			Updates(map[string]interface{}{
				"left_amount": gorm.Expr("left_amount - ?", amount),
			})
		if result.Error != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		if result.RowsAffected == 0 {
			continue
		}

		var consumed models.Budget
		if err := tx.First(&consumed, "id = ?", candidates[i].ID).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return &consumed, nil
	}

	return nil, nil
}

// Refund credits amount back to every budget matching the expense's user,
// category and date. It returns how many budgets were credited.
func (l *budgetLedger) Refund(tx *gorm.DB, userID, categoryID string, amount int64, date time.Time) (int64, error) {
	result := matchingBudgets(tx, userID, categoryID, dates.Day(date)).
		Updates(map[string]interface{}{
			"left_amount": gorm.Expr("left_amount + ?", amount),
		})
	if result.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	return result.RowsAffected, nil
}

// Reallocate sets a budget's amount and shifts left_amount by the difference
// between the new and the currently stored amount. Spending already recorded
// against the budget is preserved; transaction history is not re-derived.
func (l *budgetLedger) Reallocate(tx *gorm.DB, budgetID string, newAmount int64) error {
	result := tx.Model(&models.Budget{}).
		Where("id = ?", budgetID).
		Updates(map[string]interface{}{
			"left_amount": gorm.Expr("left_amount + (? - amount)", newAmount),
			"amount":      newAmount,
		})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrBudgetNotFound
	}
	return nil
}

// Reset restores left_amount to amount on every budget of the user.
func (l *budgetLedger) Reset(tx *gorm.DB, userID string) (int64, error) {
	result := tx.Model(&models.Budget{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"left_amount": gorm.Expr("amount"),
		})
	if result.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	return result.RowsAffected, nil
}
