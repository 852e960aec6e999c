package main

import (
	"context"                       // context package is needed for Redis operations
	"log"                           // log package is needed for logging
	"spendwise/internal/api"        // Custom package for API handlers
	"spendwise/internal/config"     // Custom package for configuration
	"spendwise/internal/domain"     // Custom package for domain models
	"spendwise/internal/middleware" // Custom package for middleware
	"spendwise/internal/service"    // Custom package for workflow services

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Connect to the database; TranslateError surfaces duplicate-key
	// violations as gorm.ErrDuplicatedKey
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Workflow services over the shared database handle
	expenseSvc := service.NewExpenseService(db)
	budgetSvc := service.NewBudgetService(db)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	// Health check route
	r.GET("/api/health", api.HealthHandler())

	// Auth routes
	auth := r.Group("/api/auth")
	auth.POST("/register", api.RegisterHandler(db, cfg.JWTSecret)) // Registration endpoint
	auth.POST("/login", api.LoginHandler(db, cfg.JWTSecret))       // Login endpoint
	auth.GET("/me", middleware.JWTAuthMiddleware(cfg.JWTSecret), api.MeHandler(db))

	adminOnly := middleware.RequireRole(db, domain.RoleAdmin) // Capability gate for admin routes

	// Expense routes (protected by JWT)
	expenses := r.Group("/api/expenses")
	expenses.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	expenses.POST("", api.CreateExpenseHandler(expenseSvc, redisClient))   // Submit a claim
	expenses.GET("", api.ListExpensesHandler(expenseSvc, redisClient))     // Employee sees own, admin sees all
	expenses.GET("/:id", api.GetExpenseHandler(expenseSvc))                // Single claim
	expenses.PUT("/:id", api.UpdateExpenseHandler(expenseSvc, redisClient))    // Owner updates pending claim
	expenses.DELETE("/:id", api.DeleteExpenseHandler(expenseSvc, redisClient)) // Owner withdraws pending claim
	expenses.PUT("/:id/status", adminOnly, api.ReviewExpenseHandler(expenseSvc, redisClient)) // Admin approves/rejects

	// Budget routes (protected by JWT; mutations admin only)
	budgets := r.Group("/api/budgets")
	budgets.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	budgets.GET("", api.ListBudgetsHandler(budgetSvc, redisClient)) // All roles can view budgets
	budgets.GET("/:id", api.GetBudgetHandler(budgetSvc))            // Single budget
	budgets.POST("", adminOnly, api.CreateBudgetHandler(budgetSvc, redisClient))       // Admin creates budget
	budgets.PUT("/:id", adminOnly, api.UpdateBudgetHandler(budgetSvc, redisClient))    // Admin updates budget
	budgets.DELETE("/:id", adminOnly, api.DeleteBudgetHandler(budgetSvc, redisClient)) // Admin deletes budget

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
