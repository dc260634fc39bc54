// Package v1 provides HTTP API version 1.
package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"stockyard/internal/core/numerator"
	"stockyard/internal/domain/directory"
	"stockyard/internal/domain/documents/issue"
	"stockyard/internal/domain/documents/purchase"
	"stockyard/internal/domain/documents/receipt"
	"stockyard/internal/domain/documents/sales"
	"stockyard/internal/domain/documents/stocktake"
	"stockyard/internal/domain/documents/transfer"
	"stockyard/internal/domain/ledger"
	"stockyard/internal/infrastructure/http/v1/handlers"
	"stockyard/internal/infrastructure/http/v1/middleware"
	"stockyard/internal/infrastructure/storage/postgres"
	"stockyard/internal/infrastructure/storage/postgres/catalog_repo"
	"stockyard/internal/infrastructure/storage/postgres/document_repo"
	"stockyard/internal/infrastructure/storage/postgres/ledger_repo"
	"stockyard/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks)
	Pool *postgres.Pool

	// TxManager drives unit-of-work transactions for all repositories
	TxManager *postgres.TxManager

	// Cache holds warehouse lock flags; may be nil
	Cache directory.Cache

	// CacheTTL bounds staleness of cached lock flags
	CacheTTL time.Duration

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Numerator for document number generation
	Numerator numerator.Generator

	// Version is reported by /health/info
	Version string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// Repositories share one transaction manager so that a workflow step
	// and its ledger entries commit or roll back together.
	ledgerRepo := ledger_repo.NewRepo(cfg.TxManager)
	warehouseRepo := catalog_repo.NewWarehouseRepo(cfg.TxManager)
	locationRepo := catalog_repo.NewLocationRepo(cfg.TxManager)
	productRepo := catalog_repo.NewProductRepo(cfg.TxManager)
	purchaseRepo := document_repo.NewPurchaseOrderRepo(cfg.TxManager)
	receiptRepo := document_repo.NewGoodsReceiptRepo(cfg.TxManager)
	salesRepo := document_repo.NewSalesOrderRepo(cfg.TxManager)
	issueRepo := document_repo.NewGoodsIssueRepo(cfg.TxManager)
	transferRepo := document_repo.NewTransferOrderRepo(cfg.TxManager)
	stockTakeRepo := document_repo.NewStockTakeRepo(cfg.TxManager)

	ledgerSvc := ledger.NewService(ledgerRepo, cfg.TxManager)
	directorySvc := directory.NewService(
		warehouseRepo, locationRepo, productRepo,
		cfg.Cache, cfg.CacheTTL,
		cfg.TxManager, cfg.Numerator,
	)
	purchaseSvc := purchase.NewService(purchaseRepo, cfg.Numerator, cfg.TxManager)
	receiptSvc := receipt.NewService(receiptRepo, purchaseRepo, ledgerSvc, directorySvc, cfg.Numerator, cfg.TxManager)
	salesSvc := sales.NewService(salesRepo, ledgerSvc, cfg.Numerator, cfg.TxManager)
	issueSvc := issue.NewService(issueRepo, salesRepo, ledgerSvc, directorySvc, cfg.Numerator, cfg.TxManager)
	transferSvc := transfer.NewService(transferRepo, ledgerSvc, directorySvc, cfg.Numerator, cfg.TxManager)
	stockTakeSvc := stocktake.NewService(stockTakeRepo, ledgerSvc, directorySvc, cfg.Numerator, cfg.TxManager)

	// API v1, all routes require authentication
	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTValidator))
	{
		registerDirectoryRoutes(api, directorySvc)
		registerStockRoutes(api, ledgerSvc)
		registerWorkflowRoutes(api, purchaseSvc, receiptSvc, salesSvc, issueSvc, transferSvc, stockTakeSvc)
	}

	return router
}

// registerDirectoryRoutes registers warehouse, location and product endpoints.
func registerDirectoryRoutes(rg *gin.RouterGroup, svc *directory.Service) {
	dir := rg.Group("/directory")

	warehouseHandler := handlers.NewWarehouseHandler(svc)
	warehouses := dir.Group("/warehouses")
	{
		warehouses.GET("", warehouseHandler.List)
		warehouses.POST("", warehouseHandler.Create)
		warehouses.GET("/:id", warehouseHandler.Get)
		warehouses.POST("/:id/lock", warehouseHandler.Lock)
		warehouses.POST("/:id/unlock", warehouseHandler.Unlock)
		warehouses.GET("/:id/locations", warehouseHandler.ListLocations)
		warehouses.POST("/:id/locations", warehouseHandler.CreateLocation)
	}

	productHandler := handlers.NewProductHandler(svc)
	products := dir.Group("/products")
	{
		products.GET("", productHandler.List)
		products.POST("", productHandler.Create)
		products.GET("/:id", productHandler.Get)
	}
}

// registerStockRoutes registers inventory ledger read endpoints.
func registerStockRoutes(rg *gin.RouterGroup, svc *ledger.Service) {
	stockHandler := handlers.NewStockHandler(svc)
	stock := rg.Group("/stock")
	{
		stock.GET("/record", stockHandler.GetRecord)
		stock.GET("/verify", stockHandler.VerifyBalance)
		stock.GET("/turnover", stockHandler.Turnover)
		stock.GET("/warehouses/:id", stockHandler.ListByWarehouse)
		stock.GET("/warehouses/:id/products/:productId/available", stockHandler.Available)
		stock.GET("/products/:id/history", stockHandler.History)
	}
}

// registerWorkflowRoutes registers the document workflow endpoints.
func registerWorkflowRoutes(
	rg *gin.RouterGroup,
	purchaseSvc *purchase.Service,
	receiptSvc *receipt.Service,
	salesSvc *sales.Service,
	issueSvc *issue.Service,
	transferSvc *transfer.Service,
	stockTakeSvc *stocktake.Service,
) {
	docs := rg.Group("/documents")

	purchaseHandler := handlers.NewPurchaseOrderHandler(purchaseSvc)
	purchaseOrders := docs.Group("/purchase-orders")
	RegisterDocumentRoutes(purchaseOrders, purchaseHandler)
	purchaseOrders.POST("/:id/approve", purchaseHandler.Approve)
	purchaseOrders.POST("/:id/reject", purchaseHandler.Reject)

	receiptHandler := handlers.NewGoodsReceiptHandler(receiptSvc)
	receipts := docs.Group("/goods-receipts")
	RegisterDocumentRoutes(receipts, receiptHandler)
	receipts.POST("/:id/cancel", receiptHandler.Cancel)

	salesHandler := handlers.NewSalesOrderHandler(salesSvc)
	salesOrders := docs.Group("/sales-orders")
	RegisterDocumentRoutes(salesOrders, salesHandler)
	salesOrders.POST("/:id/approve", salesHandler.Approve)
	salesOrders.POST("/:id/reject", salesHandler.Reject)

	issueHandler := handlers.NewGoodsIssueHandler(issueSvc)
	issues := docs.Group("/goods-issues")
	RegisterDocumentRoutes(issues, issueHandler)
	issues.POST("/:id/start-picking", issueHandler.StartPicking)
	issues.POST("/:id/complete", issueHandler.Complete)
	issues.POST("/:id/cancel", issueHandler.Cancel)

	transferHandler := handlers.NewTransferOrderHandler(transferSvc)
	transfers := docs.Group("/transfer-orders")
	RegisterDocumentRoutes(transfers, transferHandler)
	transfers.POST("/:id/approve", transferHandler.Approve)
	transfers.POST("/:id/cancel", transferHandler.Cancel)

	stockTakeHandler := handlers.NewStockTakeHandler(stockTakeSvc)
	stockTakes := docs.Group("/stock-takes")
	RegisterDocumentRoutes(stockTakes, stockTakeHandler)
	stockTakes.POST("/:id/start", stockTakeHandler.Start)
	stockTakes.PUT("/:id/counts", stockTakeHandler.UpdateCounts)
	stockTakes.POST("/:id/complete", stockTakeHandler.Complete)
	stockTakes.POST("/:id/cancel", stockTakeHandler.Cancel)
}
