package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/saham-app/saham-backend/internal/middleware"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, dualAuth *middleware.DualAuthMiddleware, authHandler *AuthHandler, profileHandler *ProfileHandler, investorHandler *InvestorHandler, transactionHandler *TransactionHandler, yearHandler *FinancialYearHandler, dashboardHandler *DashboardHandler, apiTokenHandler *APITokenHandler) {
	// API version 1
	api := e.Group("/api/v1")

	// Auth routes (JWT only; tokens have no Auth0 identity to look up)
	auth := api.Group("/auth")
	auth.Use(dualAuth.JWTOnly())
	auth.POST("/callback", authHandler.Callback)
	auth.GET("/me", authHandler.Me)
	auth.POST("/logout", authHandler.Logout)

	// Profile routes (JWT only)
	profile := api.Group("/profile")
	profile.Use(dualAuth.JWTOnly())
	profile.GET("", profileHandler.GetProfile)
	profile.PUT("", profileHandler.UpdateProfile)

	// Investor routes (JWT or API token)
	investors := api.Group("/investors")
	investors.Use(dualAuth.Authenticate())
	investors.POST("", investorHandler.CreateInvestor)
	investors.GET("", investorHandler.GetInvestors)
	investors.GET("/:id", investorHandler.GetInvestor)
	investors.PUT("/:id", investorHandler.UpdateInvestor)
	investors.DELETE("/:id", investorHandler.DeleteInvestor)

	// Transaction routes (JWT or API token)
	transactions := api.Group("/transactions")
	transactions.Use(dualAuth.Authenticate())
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	// Financial year routes (JWT or API token)
	years := api.Group("/financial-years")
	years.Use(dualAuth.Authenticate())
	years.POST("", yearHandler.CreateFinancialYear)
	years.GET("", yearHandler.GetFinancialYears)
	years.GET("/:id", yearHandler.GetFinancialYear)
	years.PUT("/:id", yearHandler.UpdateFinancialYear)
	years.DELETE("/:id", yearHandler.DeleteFinancialYear)
	years.POST("/:id/calculate-distributions", yearHandler.CalculateDistributions)
	years.GET("/:id/distributions", yearHandler.GetDistributions)
	years.PUT("/:id/approve-distributions", yearHandler.ApproveDistributions)
	years.POST("/:id/rollover-profits", yearHandler.RolloverProfits)
	years.PUT("/:id/distribute", yearHandler.DistributeProfits)
	years.PUT("/:id/close", yearHandler.CloseFinancialYear)

	// Dashboard routes (JWT or API token)
	dashboard := api.Group("/dashboard")
	dashboard.Use(dualAuth.Authenticate())
	dashboard.GET("/summary", dashboardHandler.GetSummary)

	// API token management (JWT only; tokens cannot mint tokens)
	apiTokens := api.Group("/api-tokens")
	apiTokens.Use(dualAuth.JWTOnly())
	apiTokens.POST("", apiTokenHandler.CreateAPIToken)
	apiTokens.GET("", apiTokenHandler.GetAPITokens)
	apiTokens.DELETE("/:id", apiTokenHandler.RevokeAPIToken)
}
