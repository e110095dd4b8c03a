package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Analytics AnalyticsConfig `yaml:"analytics"`
	Weekly    WeeklyConfig    `yaml:"weekly"`
	Daily     DailyConfig     `yaml:"daily"`
	Publish   PublishConfig   `yaml:"publish"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// AnalyticsConfig holds Reporting API configuration
type AnalyticsConfig struct {
	ViewID          string `yaml:"view_id"`
	CredentialsFile string `yaml:"credentials_file"`
	BaseURL         string `yaml:"base_url"`
	ApplicationName string `yaml:"application_name"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	MaxRetries      int    `yaml:"max_retries"` // 0 = single attempt, fail fast
}

// Timeout returns the configured per-call timeout as a duration
func (c AnalyticsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// WeeklyConfig holds the weekly current-vs-previous report settings
type WeeklyConfig struct {
	WeeksBack           int `yaml:"weeks_back"`
	WindowCount         int `yaml:"window_count"`
	PreviousPeriodShift int `yaml:"previous_period_shift"` // weeks between current and previous anchor
}

// DailyConfig holds the daily report settings
type DailyConfig struct {
	DaysBack     int `yaml:"days_back"` // number of single-day cohorts
	AnchorOffset int `yaml:"anchor_offset"`
}

// PublishConfig holds optional payload destinations besides stdout
type PublishConfig struct {
	Geckoboard GeckoboardConfig `yaml:"geckoboard"`
	S3         S3Config         `yaml:"s3"`
}

// GeckoboardConfig holds Geckoboard push API settings
type GeckoboardConfig struct {
	Enabled   bool   `yaml:"enabled"`
	APIKey    string `yaml:"api_key"`
	WidgetKey string `yaml:"widget_key"`
	BaseURL   string `yaml:"base_url"`
}

// S3Config holds the payload bucket settings
type S3Config struct {
	Enabled bool   `yaml:"enabled"`
	Bucket  string `yaml:"bucket"`
	Region  string `yaml:"region"`
	Prefix  string `yaml:"prefix"`
}

// ServerConfig holds HTTP server configuration for polled widgets
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Analytics.ViewID == "" {
		cfg.Analytics.ViewID = "227751717"
	}
	if cfg.Analytics.CredentialsFile == "" {
		cfg.Analytics.CredentialsFile = "credentials.json"
	}
	if cfg.Analytics.BaseURL == "" {
		cfg.Analytics.BaseURL = "https://analyticsreporting.googleapis.com"
	}
	if cfg.Analytics.ApplicationName == "" {
		cfg.Analytics.ApplicationName = "cohort-retention"
	}
	if cfg.Analytics.TimeoutSeconds == 0 {
		cfg.Analytics.TimeoutSeconds = 30
	}
	if cfg.Weekly.WindowCount == 0 {
		cfg.Weekly.WindowCount = 3
	}
	if cfg.Weekly.PreviousPeriodShift == 0 {
		cfg.Weekly.PreviousPeriodShift = 4
	}
	if cfg.Daily.DaysBack == 0 {
		cfg.Daily.DaysBack = 12
	}
	if cfg.Publish.Geckoboard.BaseURL == "" {
		cfg.Publish.Geckoboard.BaseURL = "https://push.geckoboard.com"
	}
	if cfg.Publish.S3.Region == "" {
		cfg.Publish.S3.Region = "us-east-1"
	}
	if cfg.Publish.S3.Prefix == "" {
		cfg.Publish.S3.Prefix = "retention"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It loads a .env file (if present) before reading env vars. A missing
// config file is not an error: defaults plus environment are enough to run.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if os.IsNotExist(err) {
		cfg, err = Default(), nil
	}
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("GA_VIEW_ID"); v != "" {
		cfg.Analytics.ViewID = v
	}
	if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" {
		cfg.Analytics.CredentialsFile = v
	}
	if v := os.Getenv("GA_BASE_URL"); v != "" {
		cfg.Analytics.BaseURL = v
	}
	if v := os.Getenv("GA_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Analytics.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("GECKOBOARD_API_KEY"); v != "" {
		cfg.Publish.Geckoboard.APIKey = v
	}
	if v := os.Getenv("GECKOBOARD_WIDGET_KEY"); v != "" {
		cfg.Publish.Geckoboard.WidgetKey = v
	}
	if v := os.Getenv("RETENTION_S3_BUCKET"); v != "" {
		cfg.Publish.S3.Bucket = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	return cfg, nil
}
