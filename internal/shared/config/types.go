package config

import "time"

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type DatabaseConfig struct {
	Path         string `mapstructure:"path" validate:"required"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=0"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format     string `mapstructure:"format" validate:"omitempty,oneof=console json"`
	OutputPath string `mapstructure:"output_path"`
}

type SyncConfig struct {
	// Interval between background syncAll runs.
	Interval time.Duration `mapstructure:"interval" validate:"gte=1m"`
	// PageLimit is the page size requested from the list endpoints.
	PageLimit int `mapstructure:"page_limit" validate:"gt=0,lte=500"`
}

type KeychainConfig struct {
	// Service is the logical service name under which credentials are
	// stored in the OS keyring.
	Service string `mapstructure:"service" validate:"required"`
}
