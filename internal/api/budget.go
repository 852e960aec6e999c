package api

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes
	"time"     // Time durations

	"spendwise/internal/domain"  // Importing domain models
	"spendwise/internal/service" // Workflow and accounting services
	"spendwise/internal/utils"   // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// budgetListCacheKey is the single cached view of all budgets
const budgetListCacheKey = "budgets:all"

// CreateBudgetRequest is the payload for allocating a category budget
type CreateBudgetRequest struct {
	Category    string  `json:"category" binding:"required"`    // One of the fixed categories
	TotalAmount float64 `json:"totalAmount" binding:"required"` // Allocated amount
	Period      string  `json:"period" binding:"required"`      // Free-text label
}

// UpdateBudgetRequest is the patch payload for a budget
type UpdateBudgetRequest struct {
	Category    *string  `json:"category"`
	TotalAmount *float64 `json:"totalAmount"`
	SpentAmount *float64 `json:"spentAmount"`
	Period      *string  `json:"period"`
}

// budgetListPayload is the cacheable body of the list response
type budgetListPayload struct {
	Budgets []domain.Budget `json:"budgets"` // All budgets
	Count   int             `json:"count"`   // Number of budgets
}

// CreateBudgetHandler allocates a budget for a category (admin only)
func CreateBudgetHandler(svc *service.BudgetService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFromContext(c) // Authenticated caller
		if !ok {
			return
		}
		var req CreateBudgetRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please provide category, totalAmount and period"})
			return
		}
		budget, err := svc.Create(actor.ID, service.CreateBudgetInput{
			Category:    domain.Category(req.Category),
			TotalAmount: req.TotalAmount,
			Period:      req.Period,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		_ = utils.DeleteCache(context.Background(), rdb, budgetListCacheKey) // Drop stale list view
		logrus.WithFields(logrus.Fields{
			"budget_id":    budget.ID,
			"category":     budget.Category,
			"total_amount": budget.TotalAmount,
			"created_by":   actor.ID,
		}).Info("Budget created") // Log allocation
		c.JSON(http.StatusCreated, gin.H{"success": true, "budget": budget})
	}
}

// ListBudgetsHandler returns all budgets; readable by every role
func ListBudgetsHandler(svc *service.BudgetService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background() // Context for Redis operations
		var cached budgetListPayload
		// Try the cache first
		found, err := utils.GetCache(ctx, rdb, budgetListCacheKey, &cached)
		if err == nil && found {
			// Remaining amounts are derived, so recompute on the way out of the cache
			for i := range cached.Budgets {
				cached.Budgets[i].RemainingAmount = cached.Budgets[i].TotalAmount - cached.Budgets[i].SpentAmount
			}
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"count":   cached.Count,
				"budgets": cached.Budgets,
				"cached":  true, // Indicate response is from cache
			})
			return
		}
		budgets, err := svc.List() // Fetch from the database
		if err != nil {
			respondError(c, err)
			return
		}
		payload := budgetListPayload{Budgets: budgets, Count: len(budgets)}
		_ = utils.SetCache(ctx, rdb, budgetListCacheKey, payload, 60*time.Second) // Cache for 60 seconds
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"count":   payload.Count,
			"budgets": payload.Budgets,
			"cached":  false,
		})
	}
}

// GetBudgetHandler returns a single budget; readable by every role
func GetBudgetHandler(svc *service.BudgetService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c) // Parse :id
		if !ok {
			return
		}
		budget, err := svc.Get(id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "budget": budget})
	}
}

// UpdateBudgetHandler overwrites budget fields (admin only)
func UpdateBudgetHandler(svc *service.BudgetService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var req UpdateBudgetRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request"})
			return
		}
		in := service.UpdateBudgetInput{
			TotalAmount: req.TotalAmount,
			SpentAmount: req.SpentAmount,
			Period:      req.Period,
		}
		if req.Category != nil {
			category := domain.Category(*req.Category)
			in.Category = &category
		}
		budget, err := svc.Update(id, in)
		if err != nil {
			respondError(c, err)
			return
		}
		_ = utils.DeleteCache(context.Background(), rdb, budgetListCacheKey) // Drop stale list view
		c.JSON(http.StatusOK, gin.H{"success": true, "budget": budget})
	}
}

// DeleteBudgetHandler removes a budget (admin only)
func DeleteBudgetHandler(svc *service.BudgetService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		if err := svc.Delete(id); err != nil {
			respondError(c, err)
			return
		}
		_ = utils.DeleteCache(context.Background(), rdb, budgetListCacheKey)
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Budget deleted successfully"})
	}
}
