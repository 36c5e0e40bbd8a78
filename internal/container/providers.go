package container

import (
	"database/sql"
	"fmt"

	"github.com/garyjia/school-payroll/internal/application/dispatcher"
	"github.com/garyjia/school-payroll/internal/application/port"
	"github.com/garyjia/school-payroll/internal/application/service"
	"github.com/garyjia/school-payroll/internal/domain/payroll"
	infraLark "github.com/garyjia/school-payroll/internal/infrastructure/external/lark"
	"github.com/garyjia/school-payroll/internal/infrastructure/persistence/repository"
	"github.com/garyjia/school-payroll/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/school-payroll/migrations"
	"github.com/garyjia/school-payroll/pkg/database"
	"github.com/garyjia/school-payroll/pkg/utils"
	"go.uber.org/zap"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// ProvideDatabase opens the database and applies pending migrations,
// from MigrationsDir when set and the embedded set otherwise.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	migrator := database.NewMigrator(db, logger)
	if cfg.MigrationsDir != "" {
		err = migrator.RunMigrationsFromDir(cfg.MigrationsDir)
	} else {
		err = migrator.RunMigrations(migrations.FS)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Component:  repository.NewComponentRepository(sqlDB, logger),
		Assignment: repository.NewAssignmentRepository(sqlDB, logger),
		Run:        repository.NewRunRepository(sqlDB, logger),
		Item:       repository.NewSalaryItemRepository(sqlDB, logger),
		History:    repository.NewHistoryRepository(sqlDB, logger),
		AuditLog:   repository.NewAuditLogRepository(sqlDB, logger),
		Staff:      repository.NewStaffRepository(sqlDB, logger),
		Expense:    repository.NewExpenseRepository(sqlDB, logger),
	}, nil
}

// ProvideNotifier returns the Lark notifier, or nil when it is disabled.
func ProvideNotifier(cfg *LarkConfig, logger *zap.Logger) port.Notifier {
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	return infraLark.NewNotifier(infraLark.Config{
		AppID:     cfg.AppID,
		AppSecret: cfg.AppSecret,
		ChatID:    cfg.ChatID,
	}, logger)
}

// ProvideDispatcher creates the event dispatcher and subscribes the audit
// log, event log and (optional) chat sinks.
func ProvideDispatcher(repos *RepositoryBundle, notifier port.Notifier, logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}

	kv := utils.NewKVLogger(logger)
	d := dispatcher.NewDispatcher(dispatcher.WithLogger(kv))
	dispatcher.Register(d, dispatcher.Sinks{
		AuditLog: repos.AuditLog,
		Logger:   kv,
		Notifier: notifier,
	})
	return d, nil
}

// ServiceDeps holds dependencies for creating services.
type ServiceDeps struct {
	Repos     *RepositoryBundle
	TxManager port.TransactionManager
	Events    port.EventPublisher
	Payroll   *PayrollConfig
	Logger    *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}

	repos := deps.Repos
	logger := utils.NewKVLogger(deps.Logger)
	formulas, err := payroll.NewFormulaEvaluator()
	if err != nil {
		return nil, fmt.Errorf("failed to create formula evaluator: %w", err)
	}

	var runCfg service.RunServiceConfig
	if deps.Payroll != nil {
		runCfg = service.RunServiceConfig{
			ExpenseCategory: deps.Payroll.ExpenseCategory,
			Currency:        deps.Payroll.Currency,
		}
	}

	resolver := service.NewResolverService(
		repos.Component, repos.Assignment, repos.Staff,
		payroll.NewResolver(), payroll.NewCalculator(formulas), logger,
	)
	history := service.NewHistoryService(repos.History, repos.AuditLog, repos.Run, logger)

	return &ServiceBundle{
		Catalog:    service.NewCatalogService(repos.Component, formulas, deps.Events, logger),
		Assignment: service.NewAssignmentService(repos.Assignment, repos.Component, repos.Staff, deps.Events, logger),
		Resolver:   resolver,
		History:    history,
		Run: service.NewRunService(
			repos.Run, repos.Item, resolver, history, repos.Expense,
			deps.TxManager, deps.Events, runCfg, logger,
		),
	}, nil
}
