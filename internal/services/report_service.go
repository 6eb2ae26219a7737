package services

import (
	"time"

	"gorm.io/gorm"

	"finly/internal/dates"
	apperrors "finly/internal/errors"
	"finly/internal/models"
)

// NoTransactionsMessage is returned with an empty monthly report.
const NoTransactionsMessage = "No transactions found for the month!"

// reportService builds financial summaries from stored transactions.
type reportService struct {
	db *gorm.DB
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB) ReportServicer {
	return &reportService{db: db}
}

// GetMonthlyReport sums the user's income and expenses dated inside the
// calendar month.
func (s *reportService) GetMonthlyReport(userID string, year int, month time.Month) (*MonthlyReport, error) {
	if month < time.January || month > time.December {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be between 1 and 12")
	}
	if year < 1 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid year")
	}

	first, last := dates.MonthRange(year, month)

	transactions := []models.Transaction{}
	if err := s.db.Where("user_id = ? AND date >= ? AND date <= ?", userID, first, last).
		Order("date ASC, id ASC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	report := &MonthlyReport{
		Year:         year,
		Month:        int(month),
		Transactions: transactions,
	}
	if len(transactions) == 0 {
		report.Message = NoTransactionsMessage
		return report, nil
	}

	for i := range transactions {
		if transactions[i].Type == models.TransactionTypeIncome {
			report.TotalIncome += transactions[i].Amount
		} else {
			report.TotalExpense += transactions[i].Amount
		}
		report.NetAmount += transactions[i].SignedAmount()
	}
	return report, nil
}
