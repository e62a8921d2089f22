package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"insights-service/internal/handler"
	appmiddleware "insights-service/internal/middleware"
	"insights-service/internal/repository"
	"insights-service/internal/scheduler"
	"insights-service/internal/service"
	"insights-service/internal/shopify"
	"insights-service/pkg/config"
	"insights-service/pkg/database"
	"insights-service/pkg/jwtutil"
	"insights-service/pkg/logger"
	"insights-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logger.InitLogger(cfg)
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting insights service", cfg.LogFields()...)

	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	jwtutil.Initialize(&cfg.JWT)

	// Repositories
	tenantRepo := repository.NewTenantRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	eventRepo := repository.NewEventRepository(db)

	// Services
	ingestService := service.NewIngestService(db, log)
	reportService := service.NewReportService(tenantRepo, customerRepo, orderRepo, eventRepo)
	shopifyClient := shopify.NewClient(&cfg.Shopify)

	// Handlers
	authHandler := handler.NewAuthHandler(tenantRepo)
	ingestHandler := handler.NewIngestHandler(ingestService)
	syncHandler := handler.NewSyncHandler(tenantRepo, shopifyClient, ingestService)
	dashboardHandler := handler.NewDashboardHandler(reportService)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(appmiddleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))
	e.POST("/api/auth/signup", authHandler.Signup)
	e.POST("/api/auth/login", authHandler.Login)

	// Tenant-scoped routes
	api := e.Group("/api", appmiddleware.TenantAuth)

	api.POST("/ingest/products", ingestHandler.Products)
	api.POST("/ingest/customers", ingestHandler.Customers)
	api.POST("/ingest/orders", ingestHandler.Orders)
	api.POST("/ingest/events", ingestHandler.Events)
	api.DELETE("/ingest/tenant/all-data", ingestHandler.ClearData)
	api.POST("/events", ingestHandler.TrackEvent)

	sync := api.Group("/shopify/sync", syncHandler.RequireShopifyConfig)
	sync.GET("/products", syncHandler.Products)
	sync.GET("/customers", syncHandler.Customers)
	sync.GET("/orders", syncHandler.Orders)

	api.GET("/dashboard/overview", dashboardHandler.Overview)
	api.GET("/dashboard/orders", dashboardHandler.Orders)
	api.GET("/dashboard/top-customers-chart", dashboardHandler.TopCustomers)
	api.GET("/dashboard/events-summary", dashboardHandler.EventsSummary)
	api.GET("/dashboard/sales-trend", dashboardHandler.SalesTrend)
	api.GET("/dashboard/customer-products", dashboardHandler.CustomerProducts)
	api.GET("/dashboard/customer-history", dashboardHandler.CustomerHistory)
	api.GET("/dashboard/tenant-info", dashboardHandler.TenantInfo)

	sched := scheduler.New(&cfg.Scheduler, tenantRepo, log)
	sched.Start()

	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil {
			log.Info("Server shutting down", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}

	sched.Stop()

	if err := database.Close(db); err != nil {
		log.Error("Failed to close database connection", zap.Error(err))
	}

	log.Info("Server stopped")
}
