package services

import (
	"testing"
	"time"

	"finly/internal/testutil"
)

func TestGetMonthlyReport(t *testing.T) {
	t.Run("net_amount_for_month", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewReportService(db)
		user := testutil.CreateTestUser(t, db)
		food := testutil.CreateTestCategory(t, db, user.ID)

		testutil.CreateTestIncome(t, db, user.ID, "salary", 1000, testutil.Date(t, "01/03/2024"))
		testutil.CreateTestExpense(t, db, user.ID, food, 300, testutil.Date(t, "31/03/2024"))
		testutil.CreateTestExpense(t, db, user.ID, food, 50, testutil.Date(t, "15/03/2024"))
		// Outside the month or owned by someone else.
		testutil.CreateTestExpense(t, db, user.ID, food, 999, testutil.Date(t, "01/04/2024"))
		testutil.CreateTestExpense(t, db, user.ID, food, 999, testutil.Date(t, "29/02/2024"))
		testutil.CreateTestExpense(t, db, user.ID, food, 999, testutil.Date(t, "15/03/2023"))
		other := testutil.CreateTestUser(t, db)
		testutil.CreateTestIncome(t, db, other.ID, "salary", 999, testutil.Date(t, "10/03/2024"))

		report, err := svc.GetMonthlyReport(user.ID, 2024, time.March)
		testutil.AssertNoError(t, err)

		if len(report.Transactions) != 3 {
			t.Fatalf("expected 3 transactions, got %d", len(report.Transactions))
		}
		if report.NetAmount != 650 {
			t.Errorf("expected net 650, got %d", report.NetAmount)
		}
		if report.TotalIncome != 1000 || report.TotalExpense != 350 {
			t.Errorf("expected totals 1000/350, got %d/%d", report.TotalIncome, report.TotalExpense)
		}
		if report.Message != "" {
			t.Errorf("expected no message, got %q", report.Message)
		}
	})

	t.Run("empty_month", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewReportService(db)
		user := testutil.CreateTestUser(t, db)

		report, err := svc.GetMonthlyReport(user.ID, 2024, time.July)
		testutil.AssertNoError(t, err)

		if report.Transactions == nil || len(report.Transactions) != 0 {
			t.Errorf("expected empty transaction list, got %v", report.Transactions)
		}
		if report.NetAmount != 0 || report.Message != NoTransactionsMessage {
			t.Errorf("unexpected empty report %+v", report)
		}
	})

	t.Run("leap_february", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewReportService(db)
		user := testutil.CreateTestUser(t, db)

		testutil.CreateTestIncome(t, db, user.ID, "gift", 25, testutil.Date(t, "29/02/2024"))

		report, err := svc.GetMonthlyReport(user.ID, 2024, time.February)
		testutil.AssertNoError(t, err)
		if report.NetAmount != 25 {
			t.Errorf("expected 29 February to be included, got net %d", report.NetAmount)
		}
	})

	t.Run("invalid_month", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewReportService(db)

		_, err := svc.GetMonthlyReport("someone", 2024, time.Month(13))
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}
