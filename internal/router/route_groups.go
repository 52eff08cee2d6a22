package router

import (
	"plate_depot_backend/internal/config"
	"plate_depot_backend/internal/handlers"
	"plate_depot_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes sets up the authentication routes.
func SetupAuthRoutes(apiGroup *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	authRoutes := apiGroup.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.RegisterUser)
		authRoutes.POST("/login", authHandler.LoginUser)
		authRoutes.POST("/refresh-token", authHandler.RefreshToken)

		authRequiredRoutes := authRoutes.Group("")
		authRequiredRoutes.Use(middleware.AuthMiddleware())
		{
			authRequiredRoutes.POST("/logout", authHandler.LogoutUser)
			authRequiredRoutes.GET("/me", authHandler.GetCurrentUser)
		}
	}
}

// SetupClientRoutes sets up the client routes. Mutations are admin-only;
// reads are open to any authenticated role.
func SetupClientRoutes(apiGroup *gin.RouterGroup, clientHandler *handlers.ClientHandler) {
	clientWriteRoutes := apiGroup.Group("/clients")
	clientWriteRoutes.Use(middleware.AuthMiddleware(), middleware.RoleAuthMiddleware(config.RoleAdmin))
	{
		clientWriteRoutes.POST("", clientHandler.CreateClient)
		clientWriteRoutes.PUT("/:id", clientHandler.UpdateClient)
		clientWriteRoutes.DELETE("/:id", clientHandler.DeleteClient)
	}

	clientReadRoutes := apiGroup.Group("/clients")
	clientReadRoutes.Use(middleware.AuthMiddleware(), middleware.RoleAuthMiddleware(config.RoleAdmin, config.RoleViewer))
	{
		clientReadRoutes.GET("", clientHandler.GetClients)
		clientReadRoutes.GET("/:id", clientHandler.GetClientByID)
	}
}

// SetupStockRoutes sets up the stock routes.
func SetupStockRoutes(apiGroup *gin.RouterGroup, stockHandler *handlers.StockHandler) {
	stockRoutes := apiGroup.Group("/stock")
	stockRoutes.Use(middleware.AuthMiddleware())
	{
		stockRoutes.GET("", middleware.RoleAuthMiddleware(config.RoleAdmin, config.RoleViewer), stockHandler.GetStock)
		stockRoutes.PUT("", middleware.RoleAuthMiddleware(config.RoleAdmin), stockHandler.UpsertStock)
	}
}

// SetupChallanRoutes sets up the issue challan routes.
func SetupChallanRoutes(apiGroup *gin.RouterGroup, challanHandler *handlers.ChallanHandler) {
	challanWriteRoutes := apiGroup.Group("/challans")
	challanWriteRoutes.Use(middleware.AuthMiddleware(), middleware.RoleAuthMiddleware(config.RoleAdmin))
	{
		challanWriteRoutes.POST("", challanHandler.CreateChallan)
		challanWriteRoutes.DELETE("/:id", challanHandler.DeleteChallan)
	}

	challanReadRoutes := apiGroup.Group("/challans")
	challanReadRoutes.Use(middleware.AuthMiddleware(), middleware.RoleAuthMiddleware(config.RoleAdmin, config.RoleViewer))
	{
		challanReadRoutes.GET("", challanHandler.GetChallans)
		challanReadRoutes.GET("/next-number", challanHandler.GetNextChallanNumber)
		challanReadRoutes.GET("/:id", challanHandler.GetChallanByID)
		challanReadRoutes.GET("/:id/receipt", challanHandler.GetChallanReceipt)
	}
}

// SetupReturnRoutes sets up the return challan routes.
func SetupReturnRoutes(apiGroup *gin.RouterGroup, returnHandler *handlers.ReturnHandler) {
	returnWriteRoutes := apiGroup.Group("/returns")
	returnWriteRoutes.Use(middleware.AuthMiddleware(), middleware.RoleAuthMiddleware(config.RoleAdmin))
	{
		returnWriteRoutes.POST("", returnHandler.CreateReturn)
		returnWriteRoutes.DELETE("/:id", returnHandler.DeleteReturn)
	}

	returnReadRoutes := apiGroup.Group("/returns")
	returnReadRoutes.Use(middleware.AuthMiddleware(), middleware.RoleAuthMiddleware(config.RoleAdmin, config.RoleViewer))
	{
		returnReadRoutes.GET("", returnHandler.GetReturns)
		returnReadRoutes.GET("/next-number", returnHandler.GetNextReturnNumber)
		returnReadRoutes.GET("/:id", returnHandler.GetReturnByID)
		returnReadRoutes.GET("/:id/receipt", returnHandler.GetReturnReceipt)
	}
}

// SetupLedgerRoutes sets up the ledger routes.
func SetupLedgerRoutes(apiGroup *gin.RouterGroup, ledgerHandler *handlers.LedgerHandler) {
	ledgerRoutes := apiGroup.Group("/ledger")
	ledgerRoutes.Use(middleware.AuthMiddleware(), middleware.RoleAuthMiddleware(config.RoleAdmin, config.RoleViewer))
	{
		ledgerRoutes.GET("", ledgerHandler.GetLedgers)
		ledgerRoutes.GET("/export", ledgerHandler.ExportLedgerCSV)
		ledgerRoutes.GET("/:client_id", ledgerHandler.GetLedgerByClient)
	}
}

// SetupBillingRoutes sets up the billing calculator and bill routes.
func SetupBillingRoutes(apiGroup *gin.RouterGroup, billingHandler *handlers.BillingHandler) {
	billingRoutes := apiGroup.Group("/billing")
	billingRoutes.Use(middleware.AuthMiddleware(), middleware.RoleAuthMiddleware(config.RoleAdmin, config.RoleViewer))
	{
		billingRoutes.POST("/calculate", billingHandler.CalculateBilling)
	}

	billWriteRoutes := apiGroup.Group("/bills")
	billWriteRoutes.Use(middleware.AuthMiddleware(), middleware.RoleAuthMiddleware(config.RoleAdmin))
	{
		billWriteRoutes.POST("", billingHandler.CreateBill)
		billWriteRoutes.PATCH("/:id/status", billingHandler.UpdateBillStatus)
		billWriteRoutes.DELETE("/:id", billingHandler.DeleteBill)
	}

	billReadRoutes := apiGroup.Group("/bills")
	billReadRoutes.Use(middleware.AuthMiddleware(), middleware.RoleAuthMiddleware(config.RoleAdmin, config.RoleViewer))
	{
		billReadRoutes.GET("", billingHandler.GetBills)
		billReadRoutes.GET("/:id", billingHandler.GetBillByID)
		billReadRoutes.GET("/:id/document", billingHandler.GetBillDocument)
	}
}

// SetupDashboardRoutes sets up the dashboard routes.
func SetupDashboardRoutes(apiGroup *gin.RouterGroup, dashboardHandler *handlers.DashboardHandler) {
	dashboardRoutes := apiGroup.Group("/dashboard")
	dashboardRoutes.Use(middleware.AuthMiddleware(), middleware.RoleAuthMiddleware(config.RoleAdmin, config.RoleViewer))
	{
		dashboardRoutes.GET("/summary", dashboardHandler.GetSummary)
	}
}
