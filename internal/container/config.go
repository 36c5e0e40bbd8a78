// Package container provides dependency injection and lifecycle management
// for the payroll engine.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
type Config struct {
	Database DatabaseConfig
	Payroll  PayrollConfig
	Lark     LarkConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// MigrationsDir overrides the embedded migrations when set
	MigrationsDir string
}

// PayrollConfig holds the expense posting settings.
type PayrollConfig struct {
	ExpenseCategory string
	Currency        string
}

// LarkConfig holds the optional chat notifier settings.
type LarkConfig struct {
	Enabled   bool
	AppID     string
	AppSecret string
	ChatID    string
}

// Validate checks the container configuration.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Lark.Enabled && (c.Lark.AppID == "" || c.Lark.AppSecret == "" || c.Lark.ChatID == "") {
		return fmt.Errorf("lark app id, app secret and chat id are required when lark is enabled")
	}
	return nil
}
