package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "finly/internal/errors"
	"finly/internal/services"
)

// ReportHandler serves financial reports.
type ReportHandler struct {
	reportService services.ReportServicer
	now           func() time.Time
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService, now: time.Now}
}

// MonthlyReportResponse is the JSON form of a monthly report.
type MonthlyReportResponse struct {
	Year         int                   `json:"year"`
	Month        int                   `json:"month"`
	Transactions []TransactionResponse `json:"transactions"`
	TotalIncome  int64                 `json:"total_income"`
	TotalExpense int64                 `json:"total_expense"`
	NetAmount    int64                 `json:"net_amount"`
	Message      string                `json:"message,omitempty"`
}

// GetReportForAMonth returns the caller's net amount for a calendar month.
// @Summary     Monthly report
// @Description Sums income minus expenses dated inside the month. The year defaults to the current one.
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       month  path  int    true  "Month (1-12, leading zero allowed)"
// @Param       userId path  string true  "User ID (must match the token)"
// @Param       year   query int    false "Year (defaults to the current year)"
// @Success     200 {object} MonthlyReportResponse "Report"
// @Failure     400 {object} ErrorResponse "Invalid month or year"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /financialReports/getReportForAMonth/{month}/{userId} [get]
func (h *ReportHandler) GetReportForAMonth(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be between 1 and 12"))
		return
	}

	year := h.now().Year()
	if v := c.Query("year"); v != "" {
		year, err = strconv.Atoi(v)
		if err != nil || year < 1 {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid year"))
			return
		}
	}

	report, err := h.reportService.GetMonthlyReport(userID, year, time.Month(month))
	if err != nil {
		respondWithError(c, err)
		return
	}

	resp := MonthlyReportResponse{
		Year:         report.Year,
		Month:        report.Month,
		Transactions: make([]TransactionResponse, len(report.Transactions)),
		TotalIncome:  report.TotalIncome,
		TotalExpense: report.TotalExpense,
		NetAmount:    report.NetAmount,
		Message:      report.Message,
	}
	for i, t := range report.Transactions {
		resp.Transactions[i] = newTransactionResponse(t)
	}

	c.JSON(http.StatusOK, resp)
}
