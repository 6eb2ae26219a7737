package services

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"finly/internal/events"
	"finly/internal/models"
	"finly/internal/pagination"
	"finly/internal/testutil"
)

// fixedNow is the clock used by transaction tests: 15 March 2024, late evening.
var fixedNow = time.Date(2024, time.March, 15, 22, 30, 0, 0, time.UTC)

type txFixture struct {
	db        *gorm.DB
	svc       *transactionService
	publisher *testutil.RecordingPublisher
	user      *models.User
	food      *models.Category
}

func newTxFixture(t *testing.T) *txFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	pub := &testutil.RecordingPublisher{}
	svc := NewTransactionService(db, NewBudgetLedger(), pub).(*transactionService)
	svc.now = func() time.Time { return fixedNow }

	user := testutil.CreateTestUser(t, db)
	return &txFixture{
		db:        db,
		svc:       svc,
		publisher: pub,
		user:      user,
		food:      testutil.CreateTestCategoryWithName(t, db, user.ID, "food"),
	}
}

func (f *txFixture) marchBudget(t *testing.T, amount int64) *models.Budget {
	t.Helper()
	return testutil.CreateTestBudget(t, f.db, f.user.ID, f.food.ID, amount,
		testutil.Date(t, "01/03/2024"), testutil.Date(t, "31/03/2024"))
}

func (f *txFixture) expense(amount int64) TransactionInput {
	return TransactionInput{Type: models.TransactionTypeExpense, Amount: amount, CategoryID: &f.food.ID}
}

func income(amount int64, source string) TransactionInput {
	return TransactionInput{Type: models.TransactionTypeIncome, Amount: amount, IncomeSourceName: source}
}

func TestCreateTransaction(t *testing.T) {
	t.Run("expense_consumes_budget", func(t *testing.T) {
		f := newTxFixture(t)
		budget := f.marchBudget(t, 100)

		result, err := f.svc.CreateTransaction(f.user.ID, f.expense(40))
		testutil.AssertNoError(t, err)

		if result.ConsumedBudgetID == nil || *result.ConsumedBudgetID != budget.ID {
			t.Fatalf("expected budget %s to be consumed, got %v", budget.ID, result.ConsumedBudgetID)
		}
		testutil.AssertLeftAmount(t, testutil.ReloadBudget(t, f.db, budget.ID).LeftAmount, 60)

		tx := result.Transaction
		if tx.Name != "food" {
			t.Errorf("expected name food, got %s", tx.Name)
		}
		if !tx.Date.Equal(time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("expected calendar date 15/03/2024, got %s", tx.Date)
		}

		types := f.publisher.Types()
		if len(types) != 2 || types[0] != events.TransactionCreated || types[1] != events.BudgetConsumed {
			t.Errorf("unexpected events %v", types)
		}
	})

	t.Run("over_budget_expense_is_recorded", func(t *testing.T) {
		f := newTxFixture(t)
		budget := f.marchBudget(t, 100)

		result, err := f.svc.CreateTransaction(f.user.ID, f.expense(150))
		testutil.AssertNoError(t, err)

		if result.ConsumedBudgetID != nil {
			t.Error("no budget should be consumed")
		}
		testutil.AssertLeftAmount(t, testutil.ReloadBudget(t, f.db, budget.ID).LeftAmount, 100)
	})

	t.Run("income", func(t *testing.T) {
		f := newTxFixture(t)
		budget := f.marchBudget(t, 100)

		result, err := f.svc.CreateTransaction(f.user.ID, income(5000, " Salary "))
		testutil.AssertNoError(t, err)

		if result.Transaction.Name != "salary" || result.Transaction.CategoryID != nil {
			t.Errorf("unexpected income transaction %+v", result.Transaction)
		}
		testutil.AssertLeftAmount(t, testutil.ReloadBudget(t, f.db, budget.ID).LeftAmount, 100)
	})

	t.Run("validation", func(t *testing.T) {
		f := newTxFixture(t)
		other := testutil.CreateTestUser(t, f.db)
		foreign := testutil.CreateTestCategory(t, f.db, other.ID)
		empty := ""

		cases := []struct {
			name  string
			input TransactionInput
			code  string
		}{
			{"bad_type", TransactionInput{Type: "transfer", Amount: 10}, "INVALID_TRANSACTION_TYPE"},
			{"zero_amount", f.expense(0), "INVALID_INPUT"},
			{"missing_category", TransactionInput{Type: models.TransactionTypeExpense, Amount: 10}, "CATEGORY_REQUIRED"},
			{"empty_category", TransactionInput{Type: models.TransactionTypeExpense, Amount: 10, CategoryID: &empty}, "CATEGORY_REQUIRED"},
			{"foreign_category", TransactionInput{Type: models.TransactionTypeExpense, Amount: 10, CategoryID: &foreign.ID}, "INVALID_CATEGORY"},
			{"missing_source", income(10, "  "), "INCOME_SOURCE_REQUIRED"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := f.svc.CreateTransaction(f.user.ID, tc.input)
				testutil.AssertAppError(t, err, tc.code)
			})
		}

		var count int64
		f.db.Model(&models.Transaction{}).Count(&count)
		if count != 0 {
			t.Errorf("rejected input must not be stored, found %d rows", count)
		}
	})
}

func TestUpdateTransaction(t *testing.T) {
	t.Run("expense_amount_reconciles_budget", func(t *testing.T) {
		f := newTxFixture(t)
		budget := f.marchBudget(t, 100)

		created, err := f.svc.CreateTransaction(f.user.ID, f.expense(40))
		testutil.AssertNoError(t, err)

		updated, err := f.svc.UpdateTransaction(f.user.ID, created.Transaction.ID, f.expense(70))
		testutil.AssertNoError(t, err)

		if updated.Transaction.Amount != 70 {
			t.Errorf("expected amount 70, got %d", updated.Transaction.Amount)
		}
		testutil.AssertLeftAmount(t, testutil.ReloadBudget(t, f.db, budget.ID).LeftAmount, 30)
	})

	t.Run("moves_expense_to_other_category", func(t *testing.T) {
		f := newTxFixture(t)
		foodBudget := f.marchBudget(t, 100)
		travel := testutil.CreateTestCategoryWithName(t, f.db, f.user.ID, "travel")
		travelBudget := testutil.CreateTestBudget(t, f.db, f.user.ID, travel.ID, 200,
			testutil.Date(t, "01/03/2024"), testutil.Date(t, "31/03/2024"))

		created, err := f.svc.CreateTransaction(f.user.ID, f.expense(40))
		testutil.AssertNoError(t, err)

		input := f.expense(40)
		input.CategoryID = &travel.ID
		updated, err := f.svc.UpdateTransaction(f.user.ID, created.Transaction.ID, input)
		testutil.AssertNoError(t, err)

		if updated.Transaction.Name != "travel" {
			t.Errorf("expected name travel, got %s", updated.Transaction.Name)
		}
		testutil.AssertLeftAmount(t, testutil.ReloadBudget(t, f.db, foodBudget.ID).LeftAmount, 100)
		testutil.AssertLeftAmount(t, testutil.ReloadBudget(t, f.db, travelBudget.ID).LeftAmount, 160)
	})

	t.Run("type_change_rejected", func(t *testing.T) {
		f := newTxFixture(t)
		budget := f.marchBudget(t, 100)

		created, err := f.svc.CreateTransaction(f.user.ID, f.expense(40))
		testutil.AssertNoError(t, err)

		_, err = f.svc.UpdateTransaction(f.user.ID, created.Transaction.ID, income(40, "salary"))
		testutil.AssertAppError(t, err, "INVALID_TYPE_CHANGE")
		testutil.AssertLeftAmount(t, testutil.ReloadBudget(t, f.db, budget.ID).LeftAmount, 60)
	})

	t.Run("failed_edit_rolls_back_refund", func(t *testing.T) {
		f := newTxFixture(t)
		budget := f.marchBudget(t, 100)

		created, err := f.svc.CreateTransaction(f.user.ID, f.expense(40))
		testutil.AssertNoError(t, err)

		_, err = f.svc.UpdateTransaction(f.user.ID, created.Transaction.ID, f.expense(-5))
		testutil.AssertAppError(t, err, "INVALID_INPUT")
		testutil.AssertLeftAmount(t, testutil.ReloadBudget(t, f.db, budget.ID).LeftAmount, 60)
	})

	t.Run("income_source", func(t *testing.T) {
		f := newTxFixture(t)

		created, err := f.svc.CreateTransaction(f.user.ID, income(1000, "salary"))
		testutil.AssertNoError(t, err)

		updated, err := f.svc.UpdateTransaction(f.user.ID, created.Transaction.ID, income(1200, "Bonus"))
		testutil.AssertNoError(t, err)
		if updated.Transaction.Name != "bonus" || updated.Transaction.Amount != 1200 {
			t.Errorf("unexpected income after edit %+v", updated.Transaction)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		f := newTxFixture(t)
		_, err := f.svc.UpdateTransaction(f.user.ID, "018f2a3c-0000-7000-8000-000000000000", f.expense(10))
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}

func TestDeleteTransaction(t *testing.T) {
	t.Run("refunds_every_matching_budget", func(t *testing.T) {
		f := newTxFixture(t)
		march := f.marchBudget(t, 100)
		quarter := testutil.CreateTestBudget(t, f.db, f.user.ID, f.food.ID, 500,
			testutil.Date(t, "01/01/2024"), testutil.Date(t, "31/03/2024"))

		created, err := f.svc.CreateTransaction(f.user.ID, f.expense(40))
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, f.svc.DeleteTransaction(f.user.ID, created.Transaction.ID))

		testutil.AssertLeftAmount(t, testutil.ReloadBudget(t, f.db, march.ID).LeftAmount, 100)
		testutil.AssertLeftAmount(t, testutil.ReloadBudget(t, f.db, quarter.ID).LeftAmount, 540)

		_, err = f.svc.GetTransactionByID(f.user.ID, created.Transaction.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})

	t.Run("other_users_transaction", func(t *testing.T) {
		f := newTxFixture(t)
		created, err := f.svc.CreateTransaction(f.user.ID, f.expense(40))
		testutil.AssertNoError(t, err)

		other := testutil.CreateTestUser(t, f.db)
		err = f.svc.DeleteTransaction(other.ID, created.Transaction.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}

func TestResetTransactions(t *testing.T) {
	f := newTxFixture(t)
	budget := f.marchBudget(t, 100)
	other := testutil.CreateTestUser(t, f.db)
	testutil.CreateTestIncome(t, f.db, other.ID, "salary", 100, fixedNow)

	_, err := f.svc.CreateTransaction(f.user.ID, f.expense(40))
	testutil.AssertNoError(t, err)
	_, err = f.svc.CreateTransaction(f.user.ID, income(900, "salary"))
	testutil.AssertNoError(t, err)

	n, err := f.svc.ResetTransactions(f.user.ID)
	testutil.AssertNoError(t, err)
	if n != 2 {
		t.Errorf("expected 2 deleted transactions, got %d", n)
	}

	var remaining int64
	f.db.Model(&models.Transaction{}).Count(&remaining)
	if remaining != 1 {
		t.Errorf("other users' transactions must survive, found %d", remaining)
	}
	testutil.AssertLeftAmount(t, testutil.ReloadBudget(t, f.db, budget.ID).LeftAmount, 60)
}

func TestListTransactions(t *testing.T) {
	f := newTxFixture(t)
	other := testutil.CreateTestUser(t, f.db)
	testutil.CreateTestIncome(t, f.db, other.ID, "salary", 100, fixedNow)

	early := testutil.CreateTestExpense(t, f.db, f.user.ID, f.food, 10, testutil.Date(t, "01/03/2024"))
	testutil.CreateTestExpense(t, f.db, f.user.ID, f.food, 20, testutil.Date(t, "10/03/2024"))
	testutil.CreateTestIncome(t, f.db, f.user.ID, "salary", 500, testutil.Date(t, "05/03/2024"))
	rent := testutil.CreateTestCategoryWithName(t, f.db, f.user.ID, "rent")
	testutil.CreateTestExpense(t, f.db, f.user.ID, rent, 700, testutil.Date(t, "02/03/2024"))

	t.Run("all_newest_first", func(t *testing.T) {
		page, err := f.svc.GetUserTransactions(f.user.ID, pagination.PageRequest{}, TransactionFilter{})
		testutil.AssertNoError(t, err)

		if page.TotalItems != 4 || len(page.Data) != 4 {
			t.Fatalf("expected 4 transactions, got %d", page.TotalItems)
		}
		if page.Data[3].ID != early.ID {
			t.Errorf("expected oldest transaction last, got %s", page.Data[3].Name)
		}
	})

	t.Run("by_type", func(t *testing.T) {
		incomeType := models.TransactionTypeIncome
		page, err := f.svc.GetUserTransactions(f.user.ID, pagination.PageRequest{}, TransactionFilter{Type: &incomeType})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 1 || page.Data[0].Amount != 500 {
			t.Errorf("expected only the user's income, got %+v", page.Data)
		}
	})

	t.Run("paginated", func(t *testing.T) {
		page, err := f.svc.GetUserTransactions(f.user.ID, pagination.PageRequest{Page: 2, PageSize: 3}, TransactionFilter{})
		testutil.AssertNoError(t, err)
		if len(page.Data) != 1 || page.TotalPages != 2 {
			t.Errorf("expected 1 item on page 2 of 2, got %d items / %d pages", len(page.Data), page.TotalPages)
		}
	})

	t.Run("expenses_for_category", func(t *testing.T) {
		page, err := f.svc.GetExpensesForCategory(f.user.ID, "FOOD", pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 2 {
			t.Errorf("expected 2 food expenses, got %d", page.TotalItems)
		}
		if page.Data[0].Category == nil || page.Data[0].Category.Name != "food" {
			t.Error("expected category to be preloaded")
		}

		_, err = f.svc.GetExpensesForCategory(f.user.ID, "unknown", pagination.PageRequest{})
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("deleted_category_still_preloaded", func(t *testing.T) {
		testutil.AssertNoError(t, f.db.Delete(rent).Error)

		page, err := f.svc.GetUserTransactions(f.user.ID, pagination.PageRequest{}, TransactionFilter{CategoryID: &rent.ID})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 1 || page.Data[0].Category == nil {
			t.Errorf("expected rent expense with its historic category, got %+v", page.Data)
		}
	})
}
