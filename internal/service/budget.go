package service

import (
	"errors"
	"fmt"
	"strings"

	"spendwise/internal/domain"

	"gorm.io/gorm"
)

// BudgetService maintains per-category allocations and exposes the derived
// remaining amount.
type BudgetService struct {
	db *gorm.DB
}

// NewBudgetService builds a BudgetService over the given database.
func NewBudgetService(db *gorm.DB) *BudgetService {
	return &BudgetService{db: db}
}

// CreateBudgetInput carries the fields of a new budget.
type CreateBudgetInput struct {
	Category    domain.Category // Uniqueness key: one budget per category
	TotalAmount float64         // Allocated amount, must be >= 0
	Period      string          // Free-text label, e.g. "Q1 2026"
}

// Create adds a budget for a category. Fails with a conflict if a budget
// for that category already exists.
func (s *BudgetService) Create(creatorID uint, in CreateBudgetInput) (*domain.Budget, error) {
	if !in.Category.Valid() {
		return nil, Validation(fmt.Sprintf("%s is not a valid category", in.Category))
	}
	if in.TotalAmount < 0 {
		return nil, Validation("Budget amount must be positive")
	}
	if strings.TrimSpace(in.Period) == "" {
		return nil, Validation("Please add budget period")
	}
	// Category is the uniqueness key
	var existing domain.Budget
	if err := s.db.Where("category = ?", in.Category).First(&existing).Error; err == nil {
		return nil, Conflict(fmt.Sprintf("Budget already exists for category: %s", in.Category))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, Unexpected(err)
	}
	budget := domain.Budget{
		Category:    in.Category,
		TotalAmount: in.TotalAmount,
		Period:      strings.TrimSpace(in.Period),
		CreatedByID: creatorID,
	}
	if err := s.db.Create(&budget).Error; err != nil {
		// A concurrent create for the same category can slip past the
		// check above and land on the unique index instead
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, Conflict(fmt.Sprintf("Budget already exists for category: %s", in.Category))
		}
		return nil, Unexpected(err)
	}
	return s.load(budget.ID)
}

// List returns all budgets ordered by category, with their owning admins.
func (s *BudgetService) List() ([]domain.Budget, error) {
	var budgets []domain.Budget
	if err := s.db.Preload("CreatedBy").Order("category").Find(&budgets).Error; err != nil {
		return nil, Unexpected(err)
	}
	return budgets, nil
}

// Get returns a single budget by id.
func (s *BudgetService) Get(id uint) (*domain.Budget, error) {
	return s.load(id)
}

// UpdateBudgetInput carries the patchable fields of a budget. Nil fields
// are left unchanged. SpentAmount may be overwritten directly by an admin.
type UpdateBudgetInput struct {
	Category    *domain.Category
	TotalAmount *float64
	SpentAmount *float64
	Period      *string
}

// Update patches a budget. There is no referential check against existing
// expenses of the category; a category change is still validated against
// the enum and the one-budget-per-category rule.
func (s *BudgetService) Update(id uint, in UpdateBudgetInput) (*domain.Budget, error) {
	var budget domain.Budget
	if err := s.db.First(&budget, id).Error; err != nil {
		return nil, s.lookupErr(err)
	}
	if in.Category != nil && *in.Category != budget.Category {
		if !in.Category.Valid() {
			return nil, Validation(fmt.Sprintf("%s is not a valid category", *in.Category))
		}
		var existing domain.Budget
		if err := s.db.Where("category = ?", *in.Category).First(&existing).Error; err == nil {
			return nil, Conflict(fmt.Sprintf("Budget already exists for category: %s", *in.Category))
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Unexpected(err)
		}
		budget.Category = *in.Category
	}
	if in.TotalAmount != nil {
		if *in.TotalAmount < 0 {
			return nil, Validation("Budget amount must be positive")
		}
		budget.TotalAmount = *in.TotalAmount
	}
	if in.SpentAmount != nil {
		if *in.SpentAmount < 0 {
			return nil, Validation("Spent amount cannot be negative")
		}
		budget.SpentAmount = *in.SpentAmount
	}
	if in.Period != nil {
		if strings.TrimSpace(*in.Period) == "" {
			return nil, Validation("Please add budget period")
		}
		budget.Period = strings.TrimSpace(*in.Period)
	}
	if err := s.db.Save(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, Conflict(fmt.Sprintf("Budget already exists for category: %s", budget.Category))
		}
		return nil, Unexpected(err)
	}
	return s.load(budget.ID)
}

// Delete removes a budget. Expenses of the category are untouched; later
// approvals in that category simply stop debiting.
func (s *BudgetService) Delete(id uint) error {
	var budget domain.Budget
	if err := s.db.First(&budget, id).Error; err != nil {
		return s.lookupErr(err)
	}
	if err := s.db.Delete(&budget).Error; err != nil {
		return Unexpected(err)
	}
	return nil
}

// load fetches a budget with its owning admin preloaded.
func (s *BudgetService) load(id uint) (*domain.Budget, error) {
	var budget domain.Budget
	if err := s.db.Preload("CreatedBy").First(&budget, id).Error; err != nil {
		return nil, s.lookupErr(err)
	}
	return &budget, nil
}

func (s *BudgetService) lookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound("Budget not found")
	}
	return Unexpected(err)
}
