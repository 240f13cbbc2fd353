package app

import (
	"context"
	"fmt"

	"github.com/psops/provisioning-dashboard/config"
	"github.com/psops/provisioning-dashboard/handlers"
	"github.com/psops/provisioning-dashboard/repositories"
	"github.com/psops/provisioning-dashboard/repositories/postgres"
	"github.com/psops/provisioning-dashboard/services/audit"
	"github.com/psops/provisioning-dashboard/services/records"
	"github.com/psops/provisioning-dashboard/services/settings"
	"github.com/psops/provisioning-dashboard/services/validation"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Records        repositories.RecordRepository
	RuleSettings   repositories.RuleSettingRepository
	ValidationRuns repositories.ValidationRunRepository
	AuditLogs      repositories.AuditRepository
	TxManager      repositories.TransactionManager

	// Services
	Engine          *validation.Service
	AuditService    *audit.AuditService
	SettingsService *settings.Service
	RecordsService  *records.Service

	// Handlers
	RecordHandler *handlers.RecordHandler
	RulesHandler  *handlers.RulesHandler
	AuditHandler  *handlers.AuditHandler
	HealthHandler *handlers.HealthHandler
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	// Initialize PostgreSQL
	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize repositories
	deps.initRepositories()

	// Initialize services
	if err := deps.initServices(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Initialize handlers
	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the PostgreSQL database connection and factory
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()

	// Test the connection
	if err := d.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if err := d.DB.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.Logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))

	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Records = repos.Records
	d.RuleSettings = repos.RuleSettings
	d.ValidationRuns = repos.ValidationRuns
	d.AuditLogs = repos.AuditLogs
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

// initServices initializes the validation engine and its surrounding services
func (d *Dependencies) initServices(cfg *config.Config) error {
	d.AuditService = audit.NewAuditService(d.AuditLogs, d.Logger, audit.Config{
		BufferSize:  cfg.Audit.BufferSize,
		WorkerCount: cfg.Audit.WorkerCount,
	})
	if err := d.AuditService.Start(); err != nil {
		return fmt.Errorf("failed to start audit service: %w", err)
	}

	d.Engine = validation.NewService(d.Logger)

	d.SettingsService = settings.NewService(
		d.RuleSettings,
		d.TxManager,
		d.AuditService,
		cfg.Validation.SettingsCacheTTL,
		d.Logger,
	)

	d.RecordsService = records.NewService(
		d.Records,
		d.ValidationRuns,
		d.TxManager,
		d.SettingsService,
		d.Engine,
		d.AuditService,
		cfg.Validation.BatchWorkers,
		cfg.Validation.PageSize,
		d.Logger,
	)

	d.Logger.Info("services initialized")
	return nil
}

// initHandlers initializes the HTTP handlers
func (d *Dependencies) initHandlers() {
	d.RecordHandler = handlers.NewRecordHandler(d.RecordsService, d.Logger)
	d.RulesHandler = handlers.NewRulesHandler(d.SettingsService, d.Logger)
	d.AuditHandler = handlers.NewAuditHandler(d.AuditService, d.Logger)
	d.HealthHandler = handlers.NewHealthHandler(d.DB.DB, d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Drain the audit queue before the database goes away
	if d.AuditService != nil {
		if err := d.AuditService.Stop(d.Config.Audit.StopTimeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit service: %w", err))
		} else {
			d.Logger.Info("audit service stopped")
		}
	}

	// Close database connection
	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
