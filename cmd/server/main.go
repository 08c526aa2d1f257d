package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	procurementapp "github.com/erp/procurement/internal/application/procurement"
	"github.com/erp/procurement/internal/infrastructure/audit"
	"github.com/erp/procurement/internal/infrastructure/budget"
	"github.com/erp/procurement/internal/infrastructure/config"
	"github.com/erp/procurement/internal/infrastructure/event"
	"github.com/erp/procurement/internal/infrastructure/logger"
	"github.com/erp/procurement/internal/infrastructure/persistence"
	"github.com/erp/procurement/internal/infrastructure/rules"
	"github.com/erp/procurement/internal/infrastructure/workflow"
	"github.com/erp/procurement/internal/interfaces/http/handler"
	"github.com/erp/procurement/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting procurement service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := db.AutoMigrate(); err != nil {
		log.Fatal("Failed to migrate database schema", zap.Error(err))
	}
	log.Info("Database connected")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing redis client", zap.Error(err))
		}
	}()

	// Persistence and collaborators
	auditRecorder := audit.NewGormAuditRecorder(db.DB)
	requisitionRepo := persistence.NewGormRequisitionRepository(db.DB)
	requisitionRepo.SetAuditSaver(auditRecorder)

	ruleProvider := rules.NewConfigRuleProvider(cfg.Approval, log)
	budgetProvider := budget.NewCachedBudgetProvider(
		budget.NewConfigBudgetProvider(cfg.Budget, log),
		redisClient,
		cfg.Budget.CacheTTL,
		log,
	)
	workflowEngine := workflow.NewFromConfig(cfg.Workflow, log)

	// Application services
	validator := procurementapp.NewRequisitionValidator(requisitionRepo, budgetProvider, log)
	requisitionService := procurementapp.NewRequisitionService(
		requisitionRepo,
		ruleProvider,
		validator,
		workflowEngine,
		log,
	)

	// Event bus with post-commit fire-and-forget publishing
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewRequisitionLifecycleLogger(log))
	requisitionService.SetEventPublisher(eventBus)
	requisitionService.SetAuditRecorder(auditRecorder)

	engine := router.New(router.Config{
		Logger:      log,
		Database:    db,
		Requisition: handler.NewRequisitionHandler(requisitionService),
		Production:  cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
