package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Zoho     ZohoConfig
	Pipeline PipelineConfig
	Log      LogConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// DatabaseConfig holds target database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// ZohoConfig holds remote API credentials and client tunables
type ZohoConfig struct {
	ClientID          string
	ClientSecret      string
	RefreshToken      string
	OrganizationID    string
	AuthBaseURL       string
	APIBaseURL        string
	RequestsPerMinute int
	MaxRetries        int
	TimeoutSeconds    int
}

// PipelineConfig holds run-level pipeline tunables
type PipelineConfig struct {
	// ID namespaces checkpoints, so distinct pipelines never clobber each
	// other's progress.
	ID string
	// CheckpointDir is where per-collection checkpoint files live.
	CheckpointDir string
	// BatchSize bounds how many records are written between checkpoints.
	BatchSize int
	// Collections restricts a run to the named collections; empty runs all.
	Collections []string
	// MatchWindowDays is the ± day window for invoice→order date matching.
	MatchWindowDays int
	// AmountTolerance is the maximum total delta for invoice→order matching.
	AmountTolerance float64
	// TieBreak selects how equally plausible date/amount matches are broken:
	// "closest_date" or "lowest_id".
	TieBreak string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with SYNC_ prefix (e.g., SYNC_ZOHO_REFRESH_TOKEN)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("SYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Zoho: ZohoConfig{
			ClientID:          v.GetString("zoho.client_id"),
			ClientSecret:      v.GetString("zoho.client_secret"),
			RefreshToken:      v.GetString("zoho.refresh_token"),
			OrganizationID:    v.GetString("zoho.organization_id"),
			AuthBaseURL:       v.GetString("zoho.auth_base_url"),
			APIBaseURL:        v.GetString("zoho.api_base_url"),
			RequestsPerMinute: v.GetInt("zoho.requests_per_minute"),
			MaxRetries:        v.GetInt("zoho.max_retries"),
			TimeoutSeconds:    v.GetInt("zoho.timeout_seconds"),
		},
		Pipeline: PipelineConfig{
			ID:              v.GetString("pipeline.id"),
			CheckpointDir:   v.GetString("pipeline.checkpoint_dir"),
			BatchSize:       v.GetInt("pipeline.batch_size"),
			Collections:     v.GetStringSlice("pipeline.collections"),
			MatchWindowDays: v.GetInt("pipeline.match_window_days"),
			AmountTolerance: v.GetFloat64("pipeline.amount_tolerance"),
			TieBreak:        v.GetString("pipeline.tie_break"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "syncpipe"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "syncpipe"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Zoho.RequestsPerMinute == 0 {
		cfg.Zoho.RequestsPerMinute = 80
	}
	if cfg.Zoho.MaxRetries == 0 {
		cfg.Zoho.MaxRetries = 5
	}
	if cfg.Zoho.TimeoutSeconds == 0 {
		cfg.Zoho.TimeoutSeconds = 30
	}
	if cfg.Pipeline.ID == "" {
		cfg.Pipeline.ID = "default"
	}
	if cfg.Pipeline.CheckpointDir == "" {
		cfg.Pipeline.CheckpointDir = "./checkpoints"
	}
	if cfg.Pipeline.BatchSize == 0 {
		cfg.Pipeline.BatchSize = 100
	}
	if cfg.Pipeline.MatchWindowDays == 0 {
		cfg.Pipeline.MatchWindowDays = 7
	}
	if cfg.Pipeline.AmountTolerance == 0 {
		cfg.Pipeline.AmountTolerance = 0.01
	}
	if cfg.Pipeline.TieBreak == "" {
		cfg.Pipeline.TieBreak = "closest_date"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Pipeline.BatchSize <= 0 {
		return fmt.Errorf("pipeline.batch_size must be positive")
	}
	if c.Pipeline.MatchWindowDays < 0 {
		return fmt.Errorf("pipeline.match_window_days cannot be negative")
	}
	if c.Pipeline.AmountTolerance < 0 {
		return fmt.Errorf("pipeline.amount_tolerance cannot be negative")
	}
	switch c.Pipeline.TieBreak {
	case "closest_date", "lowest_id":
	default:
		return fmt.Errorf("pipeline.tie_break must be 'closest_date' or 'lowest_id', got %q", c.Pipeline.TieBreak)
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
