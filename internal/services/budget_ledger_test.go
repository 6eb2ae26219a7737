package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "finly/internal/errors"
	"finly/internal/models"
	"finly/internal/testutil"
)

type ledgerFixture struct {
	db       *gorm.DB
	ledger   BudgetLedger
	user     *models.User
	category *models.Category
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })
	user := testutil.CreateTestUser(t, db)
	return &ledgerFixture{
		db:       db,
		ledger:   NewBudgetLedger(),
		user:     user,
		category: testutil.CreateTestCategoryWithName(t, db, user.ID, "food"),
	}
}

func (f *ledgerFixture) budget(t *testing.T, amount int64, start, end string) *models.Budget {
	t.Helper()
	return testutil.CreateTestBudget(t, f.db, f.user.ID, f.category.ID, amount,
		testutil.Date(t, start), testutil.Date(t, end))
}

func TestLedgerConsume(t *testing.T) {
	t.Run("decrements_first_budget_with_room", func(t *testing.T) {
		f := newLedgerFixture(t)
		first := f.budget(t, 100, "01/03/2024", "31/03/2024")
		second := f.budget(t, 500, "01/03/2024", "30/04/2024")

		consumed, err := f.ledger.Consume(f.db, f.user.ID, f.category.ID, 40, testutil.Date(t, "15/03/2024"))
		require.NoError(t, err)
		require.NotNil(t, consumed)

		assert.Equal(t, first.ID, consumed.ID)
		assert.EqualValues(t, 60, consumed.LeftAmount)
		assert.EqualValues(t, 60, testutil.ReloadBudget(t, f.db, first.ID).LeftAmount)
		assert.EqualValues(t, 500, testutil.ReloadBudget(t, f.db, second.ID).LeftAmount)
	})

	t.Run("skips_budget_without_enough_left", func(t *testing.T) {
		f := newLedgerFixture(t)
		small := f.budget(t, 30, "01/03/2024", "31/03/2024")
		large := f.budget(t, 500, "01/03/2024", "30/04/2024")

		consumed, err := f.ledger.Consume(f.db, f.user.ID, f.category.ID, 40, testutil.Date(t, "15/03/2024"))
		require.NoError(t, err)
		require.NotNil(t, consumed)

		assert.Equal(t, large.ID, consumed.ID)
		assert.EqualValues(t, 30, testutil.ReloadBudget(t, f.db, small.ID).LeftAmount)
		assert.EqualValues(t, 460, testutil.ReloadBudget(t, f.db, large.ID).LeftAmount)
	})

	t.Run("exact_remaining_is_consumed", func(t *testing.T) {
		f := newLedgerFixture(t)
		b := f.budget(t, 40, "01/03/2024", "31/03/2024")

		consumed, err := f.ledger.Consume(f.db, f.user.ID, f.category.ID, 40, testutil.Date(t, "15/03/2024"))
		require.NoError(t, err)
		require.NotNil(t, consumed)
		assert.EqualValues(t, 0, testutil.ReloadBudget(t, f.db, b.ID).LeftAmount)
	})

	t.Run("over_budget_touches_nothing", func(t *testing.T) {
		f := newLedgerFixture(t)
		b := f.budget(t, 100, "01/03/2024", "31/03/2024")

		consumed, err := f.ledger.Consume(f.db, f.user.ID, f.category.ID, 150, testutil.Date(t, "15/03/2024"))
		require.NoError(t, err)
		assert.Nil(t, consumed)
		assert.EqualValues(t, 100, testutil.ReloadBudget(t, f.db, b.ID).LeftAmount)
	})

	t.Run("window_bounds_are_inclusive", func(t *testing.T) {
		f := newLedgerFixture(t)
		b := f.budget(t, 100, "01/03/2024", "31/03/2024")

		for _, day := range []string{"01/03/2024", "31/03/2024"} {
			consumed, err := f.ledger.Consume(f.db, f.user.ID, f.category.ID, 10, testutil.Date(t, day))
			require.NoError(t, err)
			require.NotNil(t, consumed, "expected %s to fall inside the window", day)
		}
		assert.EqualValues(t, 80, testutil.ReloadBudget(t, f.db, b.ID).LeftAmount)
	})

	t.Run("outside_window_and_other_category", func(t *testing.T) {
		f := newLedgerFixture(t)
		b := f.budget(t, 100, "01/03/2024", "31/03/2024")
		other := testutil.CreateTestCategory(t, f.db, f.user.ID)

		consumed, err := f.ledger.Consume(f.db, f.user.ID, f.category.ID, 10, testutil.Date(t, "01/04/2024"))
		require.NoError(t, err)
		assert.Nil(t, consumed)

		consumed, err = f.ledger.Consume(f.db, f.user.ID, other.ID, 10, testutil.Date(t, "15/03/2024"))
		require.NoError(t, err)
		assert.Nil(t, consumed)

		assert.EqualValues(t, 100, testutil.ReloadBudget(t, f.db, b.ID).LeftAmount)
	})

	t.Run("chronological_not_lexical", func(t *testing.T) {
		f := newLedgerFixture(t)
		// "05/02/2024" sorts after "01/03/2024" as text but is a month earlier.
		b := f.budget(t, 100, "28/01/2024", "10/02/2024")

		consumed, err := f.ledger.Consume(f.db, f.user.ID, f.category.ID, 10, testutil.Date(t, "05/02/2024"))
		require.NoError(t, err)
		require.NotNil(t, consumed)
		assert.Equal(t, b.ID, consumed.ID)
	})
}

func TestLedgerRefund(t *testing.T) {
	f := newLedgerFixture(t)
	first := f.budget(t, 100, "01/03/2024", "31/03/2024")
	second := f.budget(t, 500, "01/03/2024", "30/04/2024")
	outside := f.budget(t, 200, "01/05/2024", "31/05/2024")

	_, err := f.ledger.Consume(f.db, f.user.ID, f.category.ID, 40, testutil.Date(t, "15/03/2024"))
	require.NoError(t, err)

	refunded, err := f.ledger.Refund(f.db, f.user.ID, f.category.ID, 40, testutil.Date(t, "15/03/2024"))
	require.NoError(t, err)

	assert.EqualValues(t, 2, refunded)
	assert.EqualValues(t, 100, testutil.ReloadBudget(t, f.db, first.ID).LeftAmount)
	assert.EqualValues(t, 540, testutil.ReloadBudget(t, f.db, second.ID).LeftAmount)
	assert.EqualValues(t, 200, testutil.ReloadBudget(t, f.db, outside.ID).LeftAmount)
}

func TestLedgerReallocate(t *testing.T) {
	f := newLedgerFixture(t)
	b := f.budget(t, 100, "01/03/2024", "31/03/2024")
	_, err := f.ledger.Consume(f.db, f.user.ID, f.category.ID, 40, testutil.Date(t, "15/03/2024"))
	require.NoError(t, err)

	require.NoError(t, f.ledger.Reallocate(f.db, b.ID, 150))
	reloaded := testutil.ReloadBudget(t, f.db, b.ID)
	assert.EqualValues(t, 150, reloaded.Amount)
	assert.EqualValues(t, 110, reloaded.LeftAmount)

	require.NoError(t, f.ledger.Reallocate(f.db, b.ID, 50))
	reloaded = testutil.ReloadBudget(t, f.db, b.ID)
	assert.EqualValues(t, 50, reloaded.Amount)
	assert.EqualValues(t, 10, reloaded.LeftAmount)

	err = f.ledger.Reallocate(f.db, "018f2a3c-0000-7000-8000-000000000000", 10)
	assert.ErrorIs(t, err, apperrors.ErrBudgetNotFound)
}

func TestLedgerReset(t *testing.T) {
	f := newLedgerFixture(t)
	a := f.budget(t, 100, "01/03/2024", "31/03/2024")
	b := f.budget(t, 300, "01/04/2024", "30/04/2024")
	otherUser := testutil.CreateTestUser(t, f.db)
	otherCat := testutil.CreateTestCategory(t, f.db, otherUser.ID)
	untouched := testutil.CreateTestBudget(t, f.db, otherUser.ID, otherCat.ID, 70,
		testutil.Date(t, "01/03/2024"), testutil.Date(t, "31/03/2024"))

	require.NoError(t, f.db.Model(&models.Budget{}).Where("1 = 1").Update("left_amount", 5).Error)

	n, err := f.ledger.Reset(f.db, f.user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.EqualValues(t, 100, testutil.ReloadBudget(t, f.db, a.ID).LeftAmount)
	assert.EqualValues(t, 300, testutil.ReloadBudget(t, f.db, b.ID).LeftAmount)
	assert.EqualValues(t, 5, testutil.ReloadBudget(t, f.db, untouched.ID).LeftAmount)
}
