package main

import (
	"context"
	"os"

	"github.com/Dljdd/AgentHack25/internal/config"
	"github.com/Dljdd/AgentHack25/internal/handlers"
	"github.com/Dljdd/AgentHack25/internal/middleware"
	"github.com/Dljdd/AgentHack25/internal/models"
	"github.com/Dljdd/AgentHack25/internal/services"
	"github.com/Dljdd/AgentHack25/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration once; everything downstream takes it by reference.
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.LogLevel)

	// Database
	db, err := models.Open(&cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Services
	pricing := services.NewPricing(&cfg.Pricing)
	usageService := services.NewUsageService(db, pricing)
	stripeGateway := services.NewStripeGateway(cfg.Stripe.APIKey)
	customerService := services.NewCustomerService(db, stripeGateway)
	billingService := services.NewBillingService(db, stripeGateway)

	// Run execution: queue + executor + processor wiring
	queue := services.NewTaskQueue(&cfg.Redis)
	defer queue.Close()

	executor := services.NewAgentExecutor(&cfg.Agent, pricing)
	runService := services.NewRunService(db, queue, executor)

	processRun := func(ctx context.Context, task *services.RunTask) error {
		return runService.ExecuteRun(ctx, task.RunID)
	}

	if syncQueue, ok := queue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(processRun)
	} else {
		worker := services.NewWorker(&cfg.Redis)
		worker.SetProcessor(processRun)
		if err := worker.Start(); err != nil {
			logger.Fatalf("Failed to start worker: %v", err)
		}
		defer worker.Stop()
	}

	// Periodic spend-threshold alerts
	alertScheduler := services.NewAlertScheduler(usageService, &cfg.Alerts)
	alertScheduler.Start()
	defer alertScheduler.Stop()

	// HTTP
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(logger.GinRecovery())
	r.Use(middleware.CORS())

	healthHandler := handlers.NewHealthHandler(db, queue)
	r.GET("/health", healthHandler.Check)

	api := r.Group("/api")
	api.Use(middleware.RequestID())
	api.Use(logger.GinLogger())
	api.Use(middleware.RateLimit(20, 40))
	{
		usageHandler := handlers.NewUsageHandler(usageService)
		api.POST("/track/groq", usageHandler.Track("groq"))
		api.POST("/track/gemini", usageHandler.Track("gemini"))
		api.GET("/recent", usageHandler.Recent)
		api.GET("/summary", usageHandler.Summary)
		api.GET("/timeseries", usageHandler.Timeseries)
		api.GET("/alerts", usageHandler.Alerts)

		customerHandler := handlers.NewCustomerHandler(customerService)
		api.POST("/customers", customerHandler.Create)
		api.GET("/customers", customerHandler.List)

		runHandler := handlers.NewRunHandler(runService)
		api.POST("/runs/start", runHandler.Start)
		api.GET("/runs/by_customer/:customer_id", runHandler.ListByCustomer)
		api.GET("/runs/summary/:customer_id", runHandler.SummaryByCustomer)

		billingHandler := handlers.NewBillingHandler(customerService, billingService)
		api.POST("/billing/stripe/create_customer", billingHandler.LinkBillingAccount)
		api.POST("/billing/invoice/create", billingHandler.CreateInvoice)
	}

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	logger.Infof("Server listening on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("Server error: %v", err)
	}
}
