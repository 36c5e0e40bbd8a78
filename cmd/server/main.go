package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/garyjia/school-payroll/internal/config"
	"github.com/garyjia/school-payroll/internal/container"
	httpapi "github.com/garyjia/school-payroll/internal/interfaces/http"
	"github.com/garyjia/school-payroll/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting school payroll service",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("database", cfg.Database.Path),
		zap.Bool("lark_enabled", cfg.Lark.Enabled))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.NewContainer(containerConfig(cfg), logger)
	if err != nil {
		logger.Fatal("Failed to create container", zap.Error(err))
	}
	if err := c.Start(ctx); err != nil {
		logger.Fatal("Failed to start container", zap.Error(err))
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("Failed to close container", zap.Error(err))
		}
	}()

	svc := c.Services()
	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Mode:            cfg.Server.Mode,
	}, httpapi.Services{
		Catalog:    svc.Catalog,
		Assignment: svc.Assignment,
		Resolver:   svc.Resolver,
		History:    svc.History,
		Run:        svc.Run,
	}, func(ctx context.Context) (bool, interface{}) {
		h := c.Health(ctx)
		return h.Overall, h.Components
	}, utils.NewKVLogger(logger))

	if err := server.Start(ctx); err != nil {
		logger.Error("HTTP server stopped with error", zap.Error(err))
		return
	}

	logger.Info("Server exited successfully")
}

func containerConfig(cfg *config.Config) *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            cfg.Database.Path,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			MigrationsDir:   cfg.Database.MigrationsDir,
		},
		Payroll: container.PayrollConfig{
			ExpenseCategory: cfg.Payroll.ExpenseCategory,
			Currency:        cfg.Payroll.Currency,
		},
		Lark: container.LarkConfig{
			Enabled:   cfg.Lark.Enabled,
			AppID:     cfg.Lark.AppID,
			AppSecret: cfg.Lark.AppSecret,
			ChatID:    cfg.Lark.ChatID,
		},
	}
}
