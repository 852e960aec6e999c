package service

import (
	"strings"
	"sync"
	"testing"
	"time"

	"spendwise/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// ExpenseServiceSuite covers the claim workflow and the budget debit.
type ExpenseServiceSuite struct {
	suite.Suite
	db       *gorm.DB
	svc      *ExpenseService
	budgets  *BudgetService
	employee domain.User
	other    domain.User
	admin    domain.User
}

// SetupTest runs before each test
func (s *ExpenseServiceSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.svc = NewExpenseService(s.db)
	s.budgets = NewBudgetService(s.db)
	s.employee = createUser(s.T(), s.db, "Eve", "eve@example.com", domain.RoleEmployee)
	s.other = createUser(s.T(), s.db, "Oscar", "oscar@example.com", domain.RoleEmployee)
	s.admin = createUser(s.T(), s.db, "Ada", "ada@example.com", domain.RoleAdmin)
}

func (s *ExpenseServiceSuite) submit(amount float64, category domain.Category) *domain.Expense {
	expense, err := s.svc.Submit(s.employee.ID, SubmitExpenseInput{
		Amount:      amount,
		Category:    category,
		Description: "test claim",
	})
	require.NoError(s.T(), err)
	return expense
}

func (s *ExpenseServiceSuite) TestSubmitDefaults() {
	before := time.Now()
	expense := s.submit(42.50, domain.CategoryMeals)

	assert.Equal(s.T(), domain.StatusPending, expense.Status)
	assert.Nil(s.T(), expense.ReviewedByID)
	assert.Nil(s.T(), expense.ReviewedAt)
	assert.Equal(s.T(), s.employee.ID, expense.EmployeeID)
	// Date defaults to submission time when omitted
	assert.False(s.T(), expense.Date.Before(before.Add(-time.Second)))
	require.NotNil(s.T(), expense.Employee, "owner should be preloaded")
	assert.Equal(s.T(), "Eve", expense.Employee.Name)
}

func (s *ExpenseServiceSuite) TestSubmitValidation() {
	cases := []struct {
		name string
		in   SubmitExpenseInput
	}{
		{"zero amount", SubmitExpenseInput{Amount: 0, Category: domain.CategoryMeals, Description: "d"}},
		{"negative amount", SubmitExpenseInput{Amount: -5, Category: domain.CategoryMeals, Description: "d"}},
		{"unknown category", SubmitExpenseInput{Amount: 10, Category: "Groceries", Description: "d"}},
		{"empty description", SubmitExpenseInput{Amount: 10, Category: domain.CategoryMeals, Description: "  "}},
		{"long description", SubmitExpenseInput{Amount: 10, Category: domain.CategoryMeals, Description: strings.Repeat("x", 501)}},
	}
	for _, tc := range cases {
		_, err := s.svc.Submit(s.employee.ID, tc.in)
		require.Error(s.T(), err, tc.name)
		assert.Equal(s.T(), KindValidation, KindOf(err), tc.name)
	}

	var count int64
	require.NoError(s.T(), s.db.Model(&domain.Expense{}).Count(&count).Error)
	assert.Zero(s.T(), count, "no expense should have been created")
}

func (s *ExpenseServiceSuite) TestSubmitWithoutBudgetAllowed() {
	// No budget exists for Hardware; submission still succeeds
	expense, err := s.svc.Submit(s.employee.ID, SubmitExpenseInput{
		Amount:      999,
		Category:    domain.CategoryHardware,
		Description: "new laptop",
	})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.StatusPending, expense.Status)
}

func (s *ExpenseServiceSuite) TestUpdateOwnerPending() {
	expense := s.submit(10, domain.CategoryMeals)

	amount := 25.0
	category := domain.CategoryTravel
	updated, err := s.svc.Update(expense.ID, s.employee.ID, UpdateExpenseInput{
		Amount:   &amount,
		Category: &category,
	})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 25.0, updated.Amount)
	assert.Equal(s.T(), domain.CategoryTravel, updated.Category)
	assert.Equal(s.T(), domain.StatusPending, updated.Status)
}

func (s *ExpenseServiceSuite) TestUpdateChecksOwnershipBeforeState() {
	expense := s.submit(10, domain.CategoryMeals)

	amount := 25.0
	// A non-owner gets an authorization failure even on a pending claim
	_, err := s.svc.Update(expense.ID, s.other.ID, UpdateExpenseInput{Amount: &amount})
	require.Error(s.T(), err)
	assert.Equal(s.T(), KindAuthorization, KindOf(err))
}

func (s *ExpenseServiceSuite) TestUpdateRevalidatesPatch() {
	expense := s.submit(10, domain.CategoryMeals)

	bad := domain.Category("Snacks")
	_, err := s.svc.Update(expense.ID, s.employee.ID, UpdateExpenseInput{Category: &bad})
	require.Error(s.T(), err)
	assert.Equal(s.T(), KindValidation, KindOf(err))
}

func (s *ExpenseServiceSuite) TestUpdateAfterReviewFails() {
	expense := s.submit(10, domain.CategoryMeals)
	_, err := s.svc.Review(expense.ID, s.admin.ID, domain.StatusApproved, "")
	require.NoError(s.T(), err)

	amount := 99.0
	_, err = s.svc.Update(expense.ID, s.employee.ID, UpdateExpenseInput{Amount: &amount})
	require.Error(s.T(), err)
	assert.Equal(s.T(), KindConflict, KindOf(err))
	assert.Equal(s.T(), "Cannot update expense with status: approved", err.Error())

	// Claim is unchanged
	var reloaded domain.Expense
	require.NoError(s.T(), s.db.First(&reloaded, expense.ID).Error)
	assert.Equal(s.T(), 10.0, reloaded.Amount)
	assert.Equal(s.T(), domain.StatusApproved, reloaded.Status)
}

func (s *ExpenseServiceSuite) TestWithdrawPending() {
	expense := s.submit(10, domain.CategoryMeals)
	require.NoError(s.T(), s.svc.Withdraw(expense.ID, s.employee.ID))

	var count int64
	require.NoError(s.T(), s.db.Model(&domain.Expense{}).Count(&count).Error)
	assert.Zero(s.T(), count)
}

func (s *ExpenseServiceSuite) TestWithdrawNonOwner() {
	expense := s.submit(10, domain.CategoryMeals)
	err := s.svc.Withdraw(expense.ID, s.other.ID)
	require.Error(s.T(), err)
	assert.Equal(s.T(), KindAuthorization, KindOf(err))
}

func (s *ExpenseServiceSuite) TestWithdrawAfterReviewFails() {
	expense := s.submit(10, domain.CategoryMeals)
	_, err := s.svc.Review(expense.ID, s.admin.ID, domain.StatusRejected, "")
	require.NoError(s.T(), err)

	err = s.svc.Withdraw(expense.ID, s.employee.ID)
	require.Error(s.T(), err)
	assert.Equal(s.T(), KindConflict, KindOf(err))
	assert.Equal(s.T(), "Cannot delete expense with status: rejected", err.Error())
}

func (s *ExpenseServiceSuite) TestReviewApprovedDebitsBudget() {
	_, err := s.budgets.Create(s.admin.ID, CreateBudgetInput{
		Category:    domain.CategoryTravel,
		TotalAmount: 1000,
		Period:      "Q1 2026",
	})
	require.NoError(s.T(), err)
	expense := s.submit(300, domain.CategoryTravel)

	reviewed, err := s.svc.Review(expense.ID, s.admin.ID, domain.StatusApproved, "looks fine")
	require.NoError(s.T(), err)

	assert.Equal(s.T(), domain.StatusApproved, reviewed.Status)
	require.NotNil(s.T(), reviewed.ReviewedByID)
	assert.Equal(s.T(), s.admin.ID, *reviewed.ReviewedByID)
	assert.NotNil(s.T(), reviewed.ReviewedAt)
	assert.Equal(s.T(), "looks fine", reviewed.ReviewNotes)

	var budget domain.Budget
	require.NoError(s.T(), s.db.Where("category = ?", domain.CategoryTravel).First(&budget).Error)
	assert.Equal(s.T(), 300.0, budget.SpentAmount)
	assert.Equal(s.T(), 700.0, budget.RemainingAmount)
}

func (s *ExpenseServiceSuite) TestReviewApprovedWithoutBudgetNoops() {
	_, err := s.budgets.Create(s.admin.ID, CreateBudgetInput{
		Category:    domain.CategoryTravel,
		TotalAmount: 1000,
		Period:      "Q1 2026",
	})
	require.NoError(s.T(), err)
	// Claim is in a category with no budget
	expense := s.submit(300, domain.CategorySoftware)

	reviewed, err := s.svc.Review(expense.ID, s.admin.ID, domain.StatusApproved, "")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.StatusApproved, reviewed.Status)

	// Every budget is untouched
	var budgets []domain.Budget
	require.NoError(s.T(), s.db.Find(&budgets).Error)
	for _, b := range budgets {
		assert.Zero(s.T(), b.SpentAmount)
	}
}

func (s *ExpenseServiceSuite) TestReviewRejectedDoesNotDebit() {
	_, err := s.budgets.Create(s.admin.ID, CreateBudgetInput{
		Category:    domain.CategoryTravel,
		TotalAmount: 1000,
		Period:      "Q1 2026",
	})
	require.NoError(s.T(), err)
	expense := s.submit(300, domain.CategoryTravel)

	reviewed, err := s.svc.Review(expense.ID, s.admin.ID, domain.StatusRejected, "no receipt")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.StatusRejected, reviewed.Status)

	var budget domain.Budget
	require.NoError(s.T(), s.db.Where("category = ?", domain.CategoryTravel).First(&budget).Error)
	assert.Zero(s.T(), budget.SpentAmount)
}

// A second review of a terminal claim must fail and must not debit again.
func (s *ExpenseServiceSuite) TestReviewIsOneShot() {
	_, err := s.budgets.Create(s.admin.ID, CreateBudgetInput{
		Category:    domain.CategoryTravel,
		TotalAmount: 1000,
		Period:      "Q1 2026",
	})
	require.NoError(s.T(), err)
	expense := s.submit(300, domain.CategoryTravel)

	_, err = s.svc.Review(expense.ID, s.admin.ID, domain.StatusApproved, "")
	require.NoError(s.T(), err)

	_, err = s.svc.Review(expense.ID, s.admin.ID, domain.StatusApproved, "")
	require.Error(s.T(), err)
	assert.Equal(s.T(), KindConflict, KindOf(err))
	assert.Equal(s.T(), "Cannot review expense with status: approved", err.Error())

	// Exactly one debit happened
	var budget domain.Budget
	require.NoError(s.T(), s.db.Where("category = ?", domain.CategoryTravel).First(&budget).Error)
	assert.Equal(s.T(), 300.0, budget.SpentAmount)

	// No transition back to pending or across terminal states either
	_, err = s.svc.Review(expense.ID, s.admin.ID, domain.StatusRejected, "")
	require.Error(s.T(), err)
	assert.Equal(s.T(), KindConflict, KindOf(err))
}

// An owner edit landing just before the status transition must be the
// amount the budget is debited with, not a value read earlier.
func (s *ExpenseServiceSuite) TestReviewDebitsEditedAmount() {
	_, err := s.budgets.Create(s.admin.ID, CreateBudgetInput{
		Category:    domain.CategoryTravel,
		TotalAmount: 1000,
		Period:      "Q1 2026",
	})
	require.NoError(s.T(), err)
	expense := s.submit(300, domain.CategoryTravel)

	// Interleave an owner edit (300 -> 50) right before the transition
	// statement executes, on the same connection
	edited := false
	err = s.db.Callback().Update().Before("gorm:update").Register("owner_edit", func(tx *gorm.DB) {
		if edited {
			return
		}
		if _, ok := tx.Statement.Model.(*domain.Expense); !ok {
			return
		}
		edited = true
		require.NoError(s.T(), tx.Session(&gorm.Session{NewDB: true}).
			Model(&domain.Expense{}).
			Where("id = ?", expense.ID).
			Update("amount", 50.0).Error)
	})
	require.NoError(s.T(), err)
	defer s.db.Callback().Update().Remove("owner_edit")

	reviewed, err := s.svc.Review(expense.ID, s.admin.ID, domain.StatusApproved, "")
	require.NoError(s.T(), err)
	require.True(s.T(), edited, "the interleaved edit should have fired")
	assert.Equal(s.T(), 50.0, reviewed.Amount)

	// The debit matches the amount that was approved
	var budget domain.Budget
	require.NoError(s.T(), s.db.Where("category = ?", domain.CategoryTravel).First(&budget).Error)
	assert.Equal(s.T(), 50.0, budget.SpentAmount)
	assert.Equal(s.T(), 950.0, budget.RemainingAmount)
}

// Two concurrent approvals of one pending claim: exactly one succeeds,
// the other conflicts, and the budget is debited once.
func (s *ExpenseServiceSuite) TestConcurrentReviewDebitsOnce() {
	_, err := s.budgets.Create(s.admin.ID, CreateBudgetInput{
		Category:    domain.CategoryTravel,
		TotalAmount: 1000,
		Period:      "Q1 2026",
	})
	require.NoError(s.T(), err)
	expense := s.submit(300, domain.CategoryTravel)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = s.svc.Review(expense.ID, s.admin.ID, domain.StatusApproved, "")
		}(i)
	}
	wg.Wait()

	var approved, conflicted int
	for _, err := range results {
		if err == nil {
			approved++
			continue
		}
		assert.Equal(s.T(), KindConflict, KindOf(err))
		conflicted++
	}
	assert.Equal(s.T(), 1, approved, "exactly one review should win")
	assert.Equal(s.T(), 1, conflicted, "the loser should get a conflict")

	var budget domain.Budget
	require.NoError(s.T(), s.db.Where("category = ?", domain.CategoryTravel).First(&budget).Error)
	assert.Equal(s.T(), 300.0, budget.SpentAmount)
	assert.Equal(s.T(), 700.0, budget.RemainingAmount)
}

func (s *ExpenseServiceSuite) TestReviewInvalidDecision() {
	expense := s.submit(10, domain.CategoryMeals)
	_, err := s.svc.Review(expense.ID, s.admin.ID, domain.StatusPending, "")
	require.Error(s.T(), err)
	assert.Equal(s.T(), KindValidation, KindOf(err))
	assert.Equal(s.T(), "Please provide valid status (approved or rejected)", err.Error())
}

func (s *ExpenseServiceSuite) TestReviewUnknownExpense() {
	_, err := s.svc.Review(9999, s.admin.ID, domain.StatusApproved, "")
	require.Error(s.T(), err)
	assert.Equal(s.T(), KindNotFound, KindOf(err))
}

func (s *ExpenseServiceSuite) TestOverspendGoesNegative() {
	_, err := s.budgets.Create(s.admin.ID, CreateBudgetInput{
		Category:    domain.CategoryMeals,
		TotalAmount: 100,
		Period:      "Q1 2026",
	})
	require.NoError(s.T(), err)
	expense := s.submit(250, domain.CategoryMeals)

	// Approval is not clamped by the allocation
	_, err = s.svc.Review(expense.ID, s.admin.ID, domain.StatusApproved, "")
	require.NoError(s.T(), err)

	var budget domain.Budget
	require.NoError(s.T(), s.db.Where("category = ?", domain.CategoryMeals).First(&budget).Error)
	assert.Equal(s.T(), 250.0, budget.SpentAmount)
	assert.Equal(s.T(), -150.0, budget.RemainingAmount)
}

func (s *ExpenseServiceSuite) TestListScoping() {
	s.submit(10, domain.CategoryMeals)
	s.submit(20, domain.CategoryTravel)
	otherExpense, err := s.svc.Submit(s.other.ID, SubmitExpenseInput{
		Amount:      30,
		Category:    domain.CategoryOther,
		Description: "misc",
	})
	require.NoError(s.T(), err)
	_, err = s.svc.Review(otherExpense.ID, s.admin.ID, domain.StatusRejected, "")
	require.NoError(s.T(), err)

	// Employees see only their own claims
	own, err := s.svc.List(Actor{ID: s.employee.ID, Role: domain.RoleEmployee}, "")
	require.NoError(s.T(), err)
	assert.Len(s.T(), own, 2)
	for _, e := range own {
		assert.Equal(s.T(), s.employee.ID, e.EmployeeID)
	}

	// Admins see all claims
	all, err := s.svc.List(Actor{ID: s.admin.ID, Role: domain.RoleAdmin}, "")
	require.NoError(s.T(), err)
	assert.Len(s.T(), all, 3)

	// Status filter applies on top of the role scope
	rejected, err := s.svc.List(Actor{ID: s.admin.ID, Role: domain.RoleAdmin}, "rejected")
	require.NoError(s.T(), err)
	require.Len(s.T(), rejected, 1)
	assert.Equal(s.T(), otherExpense.ID, rejected[0].ID)
}

func (s *ExpenseServiceSuite) TestGetOwnership() {
	expense := s.submit(10, domain.CategoryMeals)

	// The owner can read
	got, err := s.svc.Get(Actor{ID: s.employee.ID, Role: domain.RoleEmployee}, expense.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), expense.ID, got.ID)

	// Another employee cannot
	_, err = s.svc.Get(Actor{ID: s.other.ID, Role: domain.RoleEmployee}, expense.ID)
	require.Error(s.T(), err)
	assert.Equal(s.T(), KindAuthorization, KindOf(err))
	assert.Equal(s.T(), "Not authorized to access this expense", err.Error())

	// An admin can read anything
	_, err = s.svc.Get(Actor{ID: s.admin.ID, Role: domain.RoleAdmin}, expense.ID)
	require.NoError(s.T(), err)
}

func TestExpenseServiceSuite(t *testing.T) {
	suite.Run(t, new(ExpenseServiceSuite))
}
