// Package config provides configuration management for the boatrace predictor.
package config

import (
	"fmt"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Model      ModelConfig      `mapstructure:"model" validate:"required"`
	Training   TrainingConfig   `mapstructure:"training" validate:"required"`
	DataSource DataSourceConfig `mapstructure:"data_source" validate:"required"`
	Prediction PredictionConfig `mapstructure:"prediction" validate:"required"`
	Metrics    MetricsConfig    `mapstructure:"metrics" validate:"required"`
	Health     HealthConfig     `mapstructure:"health"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// ModelConfig represents model artifact configuration
type ModelConfig struct {
	Dir       string `mapstructure:"dir" validate:"required"`
	FieldSize int    `mapstructure:"field_size" validate:"required,min=3,max=8"`
}

// TrainingConfig represents classifier training configuration
type TrainingConfig struct {
	StartDate     string  `mapstructure:"start_date" validate:"required,trainingdate"`
	EndDate       string  `mapstructure:"end_date" validate:"required,trainingdate"`
	LearningRate  float64 `mapstructure:"learning_rate" validate:"required,gt=0,lte=1"`
	MaxIterations int     `mapstructure:"max_iterations" validate:"required,gt=0"`
	Tolerance     float64 `mapstructure:"tolerance" validate:"required,gt=0"`
	L2Penalty     float64 `mapstructure:"l2_penalty" validate:"gte=0"`
}

// DataSourceConfig represents the race-card data source configuration
type DataSourceConfig struct {
	BaseURL           string  `mapstructure:"base_url" validate:"required,url"`
	APIKey            string  `mapstructure:"api_key"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries        int     `mapstructure:"max_retries" validate:"gte=0"`
	RateLimit         float64 `mapstructure:"rate_limit" validate:"required,gt=0"`
	CircuitBreakerMax int     `mapstructure:"circuit_breaker_max" validate:"required,gt=0"`
}

// PredictionConfig represents prediction service configuration
type PredictionConfig struct {
	CacheTTLSeconds int  `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
	CacheMaxSize    int  `mapstructure:"cache_max_size" validate:"required,gt=0"`
	StoreResults    bool `mapstructure:"store_results"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// HealthConfig represents the health check server configuration
type HealthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    string `mapstructure:"port"`
}

// SchedulerConfig represents the retraining scheduler configuration
type SchedulerConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	RetrainSchedule string `mapstructure:"retrain_schedule"`
	LookbackDays    int    `mapstructure:"lookback_days"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
