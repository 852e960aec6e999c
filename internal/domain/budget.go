package domain

import (
	"time"

	"gorm.io/gorm"
)

// Budget Model
// One budget per category system-wide; spending accumulates as expenses
// in that category are approved.
type Budget struct {
	ID              uint      `gorm:"primaryKey" json:"id"`                  // Primary key
	Category        Category  `gorm:"type:varchar(32);uniqueIndex;not null" json:"category"`
	TotalAmount     float64   `gorm:"not null" json:"totalAmount"`           // Allocated amount
	SpentAmount     float64   `gorm:"not null;default:0" json:"spentAmount"` // Accumulated from approved expenses
	Period          string    `gorm:"not null" json:"period"`                // Free-text label, e.g. "Q1 2026"
	CreatedByID     uint      `json:"createdById"`                           // Owning admin
	CreatedBy       *User     `json:"createdBy,omitempty"`                   // Preloaded admin details
	RemainingAmount float64   `gorm:"-" json:"remainingAmount"`              // Derived; may be negative
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// AfterFind recomputes the derived remaining amount on every read.
func (b *Budget) AfterFind(*gorm.DB) error {
	b.RemainingAmount = b.TotalAmount - b.SpentAmount
	return nil
}

// AfterSave keeps the derived field consistent on create and update paths.
func (b *Budget) AfterSave(*gorm.DB) error {
	b.RemainingAmount = b.TotalAmount - b.SpentAmount
	return nil
}
