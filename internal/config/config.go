package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"barberbridge/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig                    `yaml:"app"`
	HTTP       HTTPConfig                   `yaml:"http"`
	Database   DatabaseConfig               `yaml:"database"`
	Redis      RedisConfig                  `yaml:"redis"`
	Backup     BackupConfig                 `yaml:"backup"`
	Monitoring MonitoringConfig             `yaml:"monitoring"`
	Logging    LoggingConfig                `yaml:"logging"`
	API        APIConfig                    `yaml:"api"`
	Messaging  MessagingConfig              `yaml:"messaging"`
	Shop       ShopConfig                   `yaml:"shop"`
	Telegram   TelegramConfig               `yaml:"telegram"`
	Kafka      KafkaConfig                  `yaml:"kafka"`
	Sentry     SentryConfig                 `yaml:"sentry"`
	Google     GoogleConfig                 `yaml:"google"`
	Inbound    InboundConfig                `yaml:"inbound"`
	Services   []models.ServiceCatalogEntry `yaml:"services"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type HTTPConfig struct {
	Port            int           `yaml:"port"`
	StaticDir       string        `yaml:"static_dir"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// MessagingConfig настройки шлюза BIA для исходящих сообщений.
type MessagingConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

type ShopConfig struct {
	Name     string `yaml:"name"`
	Address  string `yaml:"address"`
	Hours    string `yaml:"hours"`
	Timezone string `yaml:"timezone"`
}

type TelegramConfig struct {
	BotToken string        `yaml:"bot_token"`
	Managers []int64       `yaml:"managers"`
	Debug    bool          `yaml:"debug"`
	Timeout  time.Duration `yaml:"timeout"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type SentryConfig struct {
	DSN              string  `yaml:"dsn"`
	TracesSampleRate float64 `yaml:"traces_sample_rate"`
}

type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	SheetName       string `yaml:"sheet_name"`
}

// InboundConfig ограничение частоты входящих сообщений с одного номера.
type InboundConfig struct {
	RateLimitMessages int `yaml:"rate_limit_messages"`
	RateLimitWindow   int `yaml:"rate_limit_window"`
}

func Load(configPath string) (*Config, error) {
	// .env необязателен
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.Messaging.BaseURL != "" && !strings.HasPrefix(c.Messaging.BaseURL, "http") {
		return fmt.Errorf("messaging base_url must be an http(s) url: %q", c.Messaging.BaseURL)
	}

	if _, err := time.LoadLocation(c.Shop.Timezone); err != nil {
		return fmt.Errorf("invalid shop timezone %q: %w", c.Shop.Timezone, err)
	}

	if c.Sentry.TracesSampleRate < 0 || c.Sentry.TracesSampleRate > 1 {
		return errors.New("sentry traces_sample_rate must be within [0, 1]")
	}

	return ValidateServices(c.Services)
}

// ValidateServices checks a catalog override for empty and duplicate names.
func ValidateServices(services []models.ServiceCatalogEntry) error {
	names := make(map[string]bool)
	for _, svc := range services {
		name := strings.TrimSpace(svc.Name)
		if name == "" {
			return errors.New("service with empty name")
		}
		if names[name] {
			return fmt.Errorf("duplicate service name found: %s", name)
		}
		if svc.Price < 0 || svc.DurationMinutes < 0 {
			return fmt.Errorf("service '%s' has negative price or duration", name)
		}
		names[name] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "barberbridge"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 15 * time.Second
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = 5 * time.Second
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}
	if c.Messaging.Timeout == 0 {
		c.Messaging.Timeout = 10 * time.Second
	}
	if c.Shop.Name == "" {
		c.Shop.Name = "Barbershop"
	}
	if c.Shop.Hours == "" {
		c.Shop.Hours = "Mon-Sat 08:00-18:00"
	}
	if c.Shop.Timezone == "" {
		c.Shop.Timezone = "UTC"
	}
	if c.Telegram.Timeout == 0 {
		c.Telegram.Timeout = 10 * time.Second
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "appointment-events"
	}
	if c.Google.SheetName == "" {
		c.Google.SheetName = "Appointments"
	}
	if c.Inbound.RateLimitMessages == 0 {
		c.Inbound.RateLimitMessages = models.RateLimitMessages
	}
	if c.Inbound.RateLimitWindow == 0 {
		c.Inbound.RateLimitWindow = models.RateLimitWindow
	}
	if len(c.Services) == 0 {
		c.Services = models.DefaultServices()
	}
}

// Location returns the shop timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Shop.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
