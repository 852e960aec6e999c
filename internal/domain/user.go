package domain

import "time"

// Role of a user account
type Role string

// Supported roles; there is no endpoint to change a role after registration
const (
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

// User Model
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                          // Primary key
	Name      string    `gorm:"not null" json:"name"`                          // Display name
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`             // Unique email, stored lowercase
	Password  string    `gorm:"not null" json:"-"`                             // Bcrypt hash, never serialized
	Role      Role      `gorm:"type:varchar(16);default:employee" json:"role"` // Role: employee or admin
	CreatedAt time.Time `json:"createdAt"`                                     // Registration timestamp
}
