package domain

import "time"

// Status of an expense claim
type Status string

// Expense lifecycle states; approved and rejected are terminal
const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Terminal reports whether no further transition is defined out of s.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Expense Model
// EmployeeID is set from the authenticated caller at creation and never
// changes; review metadata is set once, on the transition out of pending.
type Expense struct {
	ID           uint       `gorm:"primaryKey" json:"id"`                            // Primary key
	EmployeeID   uint       `gorm:"index:idx_emp_status;not null" json:"employeeId"` // Owning employee
	Employee     *User      `json:"employee,omitempty"`                              // Preloaded owner details
	Amount       float64    `gorm:"not null" json:"amount"`                          // Claimed amount, must be > 0
	Category     Category   `gorm:"type:varchar(32);not null" json:"category"`       // One of the fixed categories
	Description  string     `gorm:"size:500;not null" json:"description"`            // Free text, max 500 chars
	Date         time.Time  `gorm:"not null" json:"date"`                            // Defaults to submission time
	Status       Status     `gorm:"type:varchar(16);default:pending;index:idx_emp_status;index" json:"status"`
	ReceiptURL   *string    `json:"receiptUrl"`                                      // Optional receipt link
	ReviewedByID *uint      `json:"reviewedById,omitempty"`                          // Reviewing admin
	ReviewedBy   *User      `json:"reviewedBy,omitempty"`                            // Preloaded reviewer details
	ReviewedAt   *time.Time `json:"reviewedAt"`                                      // Review timestamp
	ReviewNotes  string     `gorm:"size:500" json:"reviewNotes"`                     // Max 500 chars
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}
