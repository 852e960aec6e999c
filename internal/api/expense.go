package api

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Time durations

	"spendwise/internal/domain"  // Importing domain models
	"spendwise/internal/service" // Workflow and accounting services
	"spendwise/internal/utils"   // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// CreateExpenseRequest is the payload for submitting a claim
type CreateExpenseRequest struct {
	Amount      float64    `json:"amount" binding:"required"`      // Claimed amount
	Category    string     `json:"category" binding:"required"`    // Expense category
	Description string     `json:"description" binding:"required"` // What the claim is for
	Date        *time.Time `json:"date"`                           // Optional, defaults to now
	ReceiptURL  *string    `json:"receiptUrl"`                     // Optional receipt link
}

// UpdateExpenseRequest is the patch payload for a pending claim
type UpdateExpenseRequest struct {
	Amount      *float64   `json:"amount"`
	Category    *string    `json:"category"`
	Description *string    `json:"description"`
	Date        *time.Time `json:"date"`
	ReceiptURL  *string    `json:"receiptUrl"`
}

// ReviewExpenseRequest is the admin decision payload
type ReviewExpenseRequest struct {
	Status      string `json:"status" binding:"required"` // approved or rejected
	ReviewNotes string `json:"reviewNotes"`               // Optional notes
}

// expenseListPayload is the cacheable body of a list response
type expenseListPayload struct {
	Expenses []domain.Expense `json:"expenses"` // Matching claims
	Count    int              `json:"count"`    // Number of claims
}

// expenseListKey builds the cache key for a caller's list view
func expenseListKey(actor service.Actor, status string) string {
	if actor.Role == domain.RoleAdmin {
		return "expenses:all:status:" + status // Admins share one view per filter
	}
	return "expenses:employee:" + strconv.Itoa(int(actor.ID)) + ":status:" + status
}

// invalidateExpenseCache drops every cached list view that could contain
// the given employee's claims (the statuses are a small fixed set, so the
// keys are enumerable)
func invalidateExpenseCache(ctx context.Context, rdb *redis.Client, employeeID uint) {
	keys := make([]string, 0, 8)
	for _, s := range []string{"", string(domain.StatusPending), string(domain.StatusApproved), string(domain.StatusRejected)} {
		keys = append(keys,
			"expenses:all:status:"+s,
			"expenses:employee:"+strconv.Itoa(int(employeeID))+":status:"+s)
	}
	_ = utils.DeleteCache(ctx, rdb, keys...) // Best effort
}

// CreateExpenseHandler submits a new claim for the authenticated employee
func CreateExpenseHandler(svc *service.ExpenseService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFromContext(c) // Authenticated caller
		if !ok {
			return
		}
		var req CreateExpenseRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please provide amount, category and description"})
			return
		}
		in := service.SubmitExpenseInput{
			Amount:      req.Amount,
			Category:    domain.Category(req.Category),
			Description: req.Description,
			ReceiptURL:  req.ReceiptURL,
		}
		if req.Date != nil {
			in.Date = *req.Date
		}
		expense, err := svc.Submit(actor.ID, in) // Create the pending claim
		if err != nil {
			respondError(c, err)
			return
		}
		invalidateExpenseCache(context.Background(), rdb, actor.ID) // Drop stale list views
		logrus.WithFields(logrus.Fields{
			"expense_id":  expense.ID,
			"employee_id": actor.ID,
			"category":    expense.Category,
			"amount":      expense.Amount,
		}).Info("Expense submitted") // Log submission
		c.JSON(http.StatusCreated, gin.H{"success": true, "expense": expense})
	}
}

// ListExpensesHandler returns the claims visible to the caller, with an
// optional status filter. Employees see their own, admins see all.
func ListExpensesHandler(svc *service.ExpenseService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFromContext(c) // Authenticated caller
		if !ok {
			return
		}
		status := c.Query("status")               // Optional status filter
		ctx := context.Background()               // Context for Redis operations
		cacheKey := expenseListKey(actor, status) // Per-caller, per-filter key
		var cached expenseListPayload
		// Try the cache first
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{
				"success":  true,
				"count":    cached.Count,
				"expenses": cached.Expenses,
				"cached":   true, // Indicate response is from cache
			})
			return
		}
		expenses, err := svc.List(actor, status) // Fetch from the database
		if err != nil {
			respondError(c, err)
			return
		}
		payload := expenseListPayload{Expenses: expenses, Count: len(expenses)}
		_ = utils.SetCache(ctx, rdb, cacheKey, payload, 60*time.Second) // Cache for 60 seconds
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"count":    payload.Count,
			"expenses": payload.Expenses,
			"cached":   false,
		})
	}
}

// GetExpenseHandler returns a single claim; employees may only read their own
func GetExpenseHandler(svc *service.ExpenseService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFromContext(c)
		if !ok {
			return
		}
		id, ok := idParam(c) // Parse :id
		if !ok {
			return
		}
		expense, err := svc.Get(actor, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "expense": expense})
	}
}

// UpdateExpenseHandler patches a claim; owner-only, pending-only
func UpdateExpenseHandler(svc *service.ExpenseService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFromContext(c)
		if !ok {
			return
		}
		id, ok := idParam(c)
		if !ok {
			return
		}
		var req UpdateExpenseRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request"})
			return
		}
		in := service.UpdateExpenseInput{
			Amount:      req.Amount,
			Description: req.Description,
			Date:        req.Date,
			ReceiptURL:  req.ReceiptURL,
		}
		if req.Category != nil {
			category := domain.Category(*req.Category)
			in.Category = &category
		}
		expense, err := svc.Update(id, actor.ID, in)
		if err != nil {
			respondError(c, err)
			return
		}
		invalidateExpenseCache(context.Background(), rdb, actor.ID) // Drop stale list views
		c.JSON(http.StatusOK, gin.H{"success": true, "expense": expense})
	}
}

// DeleteExpenseHandler withdraws a claim; owner-only, pending-only
func DeleteExpenseHandler(svc *service.ExpenseService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFromContext(c)
		if !ok {
			return
		}
		id, ok := idParam(c)
		if !ok {
			return
		}
		if err := svc.Withdraw(id, actor.ID); err != nil {
			respondError(c, err)
			return
		}
		invalidateExpenseCache(context.Background(), rdb, actor.ID)
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Expense deleted successfully"})
	}
}

// ReviewExpenseHandler applies an admin decision to a pending claim and,
// on approval, debits the matching category budget
func ReviewExpenseHandler(svc *service.ExpenseService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFromContext(c)
		if !ok {
			return
		}
		id, ok := idParam(c)
		if !ok {
			return
		}
		var req ReviewExpenseRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please provide valid status (approved or rejected)"})
			return
		}
		expense, err := svc.Review(id, actor.ID, domain.Status(req.Status), req.ReviewNotes)
		if err != nil {
			respondError(c, err)
			return
		}
		ctx := context.Background()
		invalidateExpenseCache(ctx, rdb, expense.EmployeeID) // The owner's views changed
		if expense.Status == domain.StatusApproved {
			_ = utils.DeleteCache(ctx, rdb, "budgets:all") // The debit changed the budget list
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "expense": expense})
	}
}
