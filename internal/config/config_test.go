package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"barberbridge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("BIA_TOKEN", "secret-token")

	yamlContent := `
database:
  path: "test.db"
messaging:
  base_url: "https://bia.example.com/api"
  token: "${BIA_TOKEN}"
  timeout: 3s
shop:
  address: "Rua Augusta 100"
services:
  - name: "Haircut"
    duration_minutes: 30
    price: 55
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "secret-token", cfg.Messaging.Token)
	assert.Equal(t, 3*time.Second, cfg.Messaging.Timeout)
	assert.Equal(t, "Rua Augusta 100", cfg.Shop.Address)
	require.Len(t, cfg.Services, 1)
	assert.InDelta(t, 55.0, cfg.Services[0].Price, 0.001)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "valid config",
			cfg:     Config{Database: DatabaseConfig{Path: "path"}},
			wantErr: false,
		},
		{
			name:    "missing database path",
			cfg:     Config{},
			wantErr: true,
		},
		{
			name: "bad messaging url",
			cfg: Config{
				Database:  DatabaseConfig{Path: "path"},
				Messaging: MessagingConfig{BaseURL: "bia.example.com"},
			},
			wantErr: true,
		},
		{
			name: "unknown timezone",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Shop:     ShopConfig{Timezone: "Mars/Olympus"},
			},
			wantErr: true,
		},
		{
			name: "sample rate out of range",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Sentry:   SentryConfig{TracesSampleRate: 1.5},
			},
			wantErr: true,
		},
		{
			name: "duplicate service",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Services: []models.ServiceCatalogEntry{{Name: "Beard"}, {Name: "Beard"}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "x-api-key", cfg.API.Auth.HeaderAPIKey)
	assert.Equal(t, "x-api-extra", cfg.API.Auth.HeaderExtra)
	assert.Equal(t, 10*time.Second, cfg.Messaging.Timeout)
	assert.Equal(t, 10*time.Second, cfg.Telegram.Timeout)
	assert.Equal(t, "UTC", cfg.Shop.Timezone)
	assert.Equal(t, models.RateLimitMessages, cfg.Inbound.RateLimitMessages)
	assert.Equal(t, models.RateLimitWindow, cfg.Inbound.RateLimitWindow)
	assert.Len(t, cfg.Services, len(models.DefaultServices()))
	assert.Equal(t, 0, cfg.Monitoring.PrometheusPort)

	cfg = &Config{Monitoring: MonitoringConfig{PrometheusEnabled: true}}
	cfg.applyDefaults()
	assert.Equal(t, 9090, cfg.Monitoring.PrometheusPort)
}

func TestValidateServices(t *testing.T) {
	tests := []struct {
		name     string
		services []models.ServiceCatalogEntry
		wantErr  bool
	}{
		{"empty catalog", nil, false},
		{"defaults", models.DefaultServices(), false},
		{"blank name", []models.ServiceCatalogEntry{{Name: "  "}}, true},
		{"negative price", []models.ServiceCatalogEntry{{Name: "Shave", Price: -1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateServices(tt.services)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestLocation(t *testing.T) {
	cfg := &Config{Shop: ShopConfig{Timezone: "America/Sao_Paulo"}}
	assert.Equal(t, "America/Sao_Paulo", cfg.Location().String())

	cfg.Shop.Timezone = "nope"
	assert.Equal(t, time.UTC, cfg.Location())
}
