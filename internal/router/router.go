package router

import (
	"database/sql"

	"plate_depot_backend/internal/config"
	"plate_depot_backend/internal/handlers"
	"plate_depot_backend/internal/repositories"
	"plate_depot_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Setup wires repositories, services and handlers and registers all routes.
func Setup(engine *gin.Engine, db *sql.DB, cfg *config.Config) {
	// Repositories
	authRepo := repositories.NewAuthRepository(db)
	clientRepo := repositories.NewClientRepository(db)
	stockRepo := repositories.NewStockRepository(db)
	challanRepo := repositories.NewChallanRepository(db)
	returnRepo := repositories.NewReturnRepository(db)
	billRepo := repositories.NewBillRepository(db)

	// Services
	authService := services.NewAuthService(authRepo, db, cfg)
	clientService := services.NewClientService(clientRepo, db)
	stockService := services.NewStockService(stockRepo, db, cfg)
	challanService := services.NewChallanService(challanRepo, clientRepo, stockRepo, db, cfg)
	returnService := services.NewReturnService(returnRepo, challanRepo, clientRepo, stockRepo, db, cfg)
	ledgerService := services.NewLedgerService(clientRepo, challanRepo, returnRepo, cfg)
	receiptService := services.NewReceiptService(challanRepo, returnRepo, clientRepo, cfg)
	billingService := services.NewBillingService(billRepo, clientRepo, challanRepo, returnRepo, stockRepo, db, cfg)
	dashboardService := services.NewDashboardService(clientRepo, challanRepo, stockRepo, billRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	clientHandler := handlers.NewClientHandler(clientService)
	stockHandler := handlers.NewStockHandler(stockService)
	challanHandler := handlers.NewChallanHandler(challanService, receiptService)
	returnHandler := handlers.NewReturnHandler(returnService, receiptService)
	ledgerHandler := handlers.NewLedgerHandler(ledgerService)
	billingHandler := handlers.NewBillingHandler(billingService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	apiV1 := engine.Group("/api/v1")

	SetupAuthRoutes(apiV1, authHandler)
	SetupClientRoutes(apiV1, clientHandler)
	SetupStockRoutes(apiV1, stockHandler)
	SetupChallanRoutes(apiV1, challanHandler)
	SetupReturnRoutes(apiV1, returnHandler)
	SetupLedgerRoutes(apiV1, ledgerHandler)
	SetupBillingRoutes(apiV1, billingHandler)
	SetupDashboardRoutes(apiV1, dashboardHandler)
}
