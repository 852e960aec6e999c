package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"spendwise/internal/domain"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Actor identifies the authenticated caller of a service operation, as
// supplied by the access-control middleware. The service trusts it.
type Actor struct {
	ID   uint        // User ID
	Role domain.Role // Role at authentication time
}

// ExpenseService owns the legal state transitions of an expense and the
// budget debit that accompanies an approval.
type ExpenseService struct {
	db *gorm.DB
}

// NewExpenseService builds an ExpenseService over the given database.
func NewExpenseService(db *gorm.DB) *ExpenseService {
	return &ExpenseService{db: db}
}

// SubmitExpenseInput carries the fields of a new claim.
type SubmitExpenseInput struct {
	Amount      float64         // Claimed amount, must be > 0
	Category    domain.Category // One of the fixed categories
	Description string          // Non-empty, max 500 chars
	Date        time.Time       // Defaults to now when zero
	ReceiptURL  *string         // Optional receipt link
}

// validateClaim enforces the creation constraints shared by submit and update.
func validateClaim(amount float64, category domain.Category, description string) error {
	if amount <= 0 {
		return Validation("Amount must be greater than 0")
	}
	if !category.Valid() {
		return Validation(fmt.Sprintf("%s is not a valid category", category))
	}
	if strings.TrimSpace(description) == "" {
		return Validation("Please add a description")
	}
	if len(description) > 500 {
		return Validation("Description cannot be more than 500 characters")
	}
	return nil
}

// Submit creates a pending expense for the given employee. No budget check
// is performed: claims may be submitted against a missing or exhausted
// budget.
func (s *ExpenseService) Submit(employeeID uint, in SubmitExpenseInput) (*domain.Expense, error) {
	if err := validateClaim(in.Amount, in.Category, in.Description); err != nil {
		return nil, err
	}
	date := in.Date
	if date.IsZero() {
		date = time.Now() // Default to submission time
	}
	expense := domain.Expense{
		EmployeeID:  employeeID,
		Amount:      in.Amount,
		Category:    in.Category,
		Description: strings.TrimSpace(in.Description),
		Date:        date,
		Status:      domain.StatusPending,
		ReceiptURL:  in.ReceiptURL,
	}
	if err := s.db.Create(&expense).Error; err != nil {
		return nil, Unexpected(err)
	}
	return s.load(expense.ID)
}

// List returns expenses visible to the actor, newest first. Employees see
// only their own claims; admins see all. An optional status filters the
// result.
func (s *ExpenseService) List(actor Actor, status string) ([]domain.Expense, error) {
	query := s.db.Preload("Employee").Preload("ReviewedBy").Order("created_at desc")
	if actor.Role != domain.RoleAdmin {
		query = query.Where("employee_id = ?", actor.ID) // Employees see only their own
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var expenses []domain.Expense
	if err := query.Find(&expenses).Error; err != nil {
		return nil, Unexpected(err)
	}
	return expenses, nil
}

// Get returns a single expense. Employees may only read their own claims.
func (s *ExpenseService) Get(actor Actor, id uint) (*domain.Expense, error) {
	expense, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleAdmin && expense.EmployeeID != actor.ID {
		return nil, NotAuthorized("Not authorized to access this expense")
	}
	return expense, nil
}

// UpdateExpenseInput carries the patchable fields of a pending claim.
// Nil fields are left unchanged.
type UpdateExpenseInput struct {
	Amount      *float64
	Category    *domain.Category
	Description *string
	Date        *time.Time
	ReceiptURL  *string
}

// Update patches an expense. Only the owning employee may update, and only
// while the claim is still pending; ownership is checked before state.
// Patched fields are re-validated against the creation constraints.
func (s *ExpenseService) Update(id, callerID uint, in UpdateExpenseInput) (*domain.Expense, error) {
	var expense domain.Expense
	if err := s.db.First(&expense, id).Error; err != nil {
		return nil, s.lookupErr(err, "Expense not found")
	}
	if expense.EmployeeID != callerID {
		return nil, NotAuthorized("Not authorized to update this expense")
	}
	if expense.Status != domain.StatusPending {
		return nil, Conflict(fmt.Sprintf("Cannot update expense with status: %s", expense.Status))
	}
	// Apply the patch, then re-run the creation constraints
	if in.Amount != nil {
		expense.Amount = *in.Amount
	}
	if in.Category != nil {
		expense.Category = *in.Category
	}
	if in.Description != nil {
		expense.Description = strings.TrimSpace(*in.Description)
	}
	if in.Date != nil {
		expense.Date = *in.Date
	}
	if in.ReceiptURL != nil {
		expense.ReceiptURL = in.ReceiptURL
	}
	if err := validateClaim(expense.Amount, expense.Category, expense.Description); err != nil {
		return nil, err
	}
	if err := s.db.Save(&expense).Error; err != nil {
		return nil, Unexpected(err)
	}
	return s.load(expense.ID)
}

// Withdraw deletes an expense under the same ownership/pending
// preconditions as Update. Admins have no delete path.
func (s *ExpenseService) Withdraw(id, callerID uint) error {
	var expense domain.Expense
	if err := s.db.First(&expense, id).Error; err != nil {
		return s.lookupErr(err, "Expense not found")
	}
	if expense.EmployeeID != callerID {
		return NotAuthorized("Not authorized to delete this expense")
	}
	if expense.Status != domain.StatusPending {
		return Conflict(fmt.Sprintf("Cannot delete expense with status: %s", expense.Status))
	}
	if err := s.db.Delete(&expense).Error; err != nil {
		return Unexpected(err)
	}
	return nil
}

// Review moves a pending expense to a terminal status and, on approval,
// debits the matching category budget. The status write and the debit run
// in one transaction; the status write is conditional on the claim still
// being pending, and a claim that already left pending yields a conflict.
// The amount and category for the debit are read inside the transaction,
// after the status write, so the debit always matches the approved record.
func (s *ExpenseService) Review(id, reviewerID uint, decision domain.Status, notes string) (*domain.Expense, error) {
	if decision != domain.StatusApproved && decision != domain.StatusRejected {
		return nil, Validation("Please provide valid status (approved or rejected)")
	}
	var expense domain.Expense
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Conditional transition: only a still-pending claim moves
		res := tx.Model(&domain.Expense{}).
			Where("id = ? AND status = ?", id, domain.StatusPending).
			Updates(map[string]any{
				"status":         decision,
				"reviewed_by_id": reviewerID,
				"reviewed_at":    time.Now(),
				"review_notes":   notes,
			})
		if res.Error != nil {
			return Unexpected(res.Error)
		}
		if res.RowsAffected == 0 {
			// Unknown id or already terminal; read to tell the two apart
			if err := tx.First(&expense, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return NotFound("Expense not found")
				}
				return Unexpected(err)
			}
			return Conflict(fmt.Sprintf("Cannot review expense with status: %s", expense.Status))
		}
		// Read the claim as transitioned; the debit uses these values
		if err := tx.First(&expense, id).Error; err != nil {
			return Unexpected(err)
		}
		if decision != domain.StatusApproved {
			return nil // Rejection has no accounting effect
		}
		// Best-effort budget match by category; approval succeeds either way
		var budget domain.Budget
		if err := tx.Where("category = ?", expense.Category).First(&budget).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil // No budget for this category, nothing to debit
			}
			return Unexpected(err)
		}
		if err := tx.Model(&budget).
			Update("spent_amount", gorm.Expr("spent_amount + ?", expense.Amount)).Error; err != nil {
			return Unexpected(err)
		}
		logrus.WithFields(logrus.Fields{
			"expense_id":  expense.ID,
			"budget_id":   budget.ID,
			"category":    expense.Category,
			"amount":      expense.Amount,
			"reviewer_id": reviewerID,
		}).Info("Budget debited")
		return nil
	})
	if err != nil {
		var se *Error
		if errors.As(err, &se) {
			return nil, se
		}
		return nil, Unexpected(err)
	}
	logrus.WithFields(logrus.Fields{
		"expense_id":  id,
		"decision":    decision,
		"reviewer_id": reviewerID,
	}).Info("Expense reviewed")
	return s.load(id)
}

// load fetches an expense with its owner and reviewer preloaded.
func (s *ExpenseService) load(id uint) (*domain.Expense, error) {
	var expense domain.Expense
	if err := s.db.Preload("Employee").Preload("ReviewedBy").First(&expense, id).Error; err != nil {
		return nil, s.lookupErr(err, "Expense not found")
	}
	return &expense, nil
}

// lookupErr maps a gorm read error to the service taxonomy.
func (s *ExpenseService) lookupErr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(msg)
	}
	return Unexpected(err)
}
