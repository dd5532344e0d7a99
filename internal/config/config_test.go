package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_Defaults はデフォルト設定のテスト
func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, "Asia/Tokyo", cfg.Stock.ReportTimezone)
	assert.Equal(t, 6, cfg.Stock.DefaultTrailingMonths)
	assert.Equal(t, 100, cfg.Stock.HistoryLimit)
	assert.Equal(t, 3, cfg.Stock.ConflictRetries)
	assert.Equal(t, "info", cfg.Logging.Level)
}

// TestLoad_EnvOverride は環境変数による上書きのテスト
func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("DB_HOST", "db.example.com")
	t.Setenv("STOCK_HISTORY_LIMIT", "50")
	t.Setenv("STOCK_REPORT_TIMEZONE", "UTC")
	t.Setenv("STOCK_RETRY_BACKOFF", "25ms")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "db.example.com", cfg.Database.Host)
	assert.Equal(t, 50, cfg.Stock.HistoryLimit)
	assert.Equal(t, "UTC", cfg.Stock.ReportTimezone)
	assert.Equal(t, 25*time.Millisecond, cfg.Stock.RetryBackoff)
}

// TestLoadFile はYAMLファイルによる上書きのテスト
func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
database:
  host: yaml-host
  dbname: yaml_db
stock:
  history_limit: 200
  report_timezone: UTC
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := LoadFile(path)

	require.NoError(t, err)
	assert.Equal(t, "yaml-host", cfg.Database.Host)
	assert.Equal(t, "yaml_db", cfg.Database.DBName)
	assert.Equal(t, 200, cfg.Stock.HistoryLimit)
	assert.Equal(t, "UTC", cfg.Stock.ReportTimezone)
	// ファイルにないキーは環境由来の値を保持
	assert.Equal(t, 8080, cfg.API.Port)
}

// TestLoadFile_Missing は存在しないファイルのテスト
func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

// TestValidate は設定バリデーションのテスト
func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"空のDBホスト", func(c *Config) { c.Database.Host = "" }},
		{"不正なDBポート", func(c *Config) { c.Database.Port = 70000 }},
		{"不正なAPIポート", func(c *Config) { c.API.Port = 0 }},
		{"不正なタイムゾーン", func(c *Config) { c.Stock.ReportTimezone = "Mars/Olympus" }},
		{"ゼロの集計期間", func(c *Config) { c.Stock.DefaultTrailingMonths = 0 }},
		{"ゼロの履歴上限", func(c *Config) { c.Stock.HistoryLimit = 0 }},
		{"負のリトライ回数", func(c *Config) { c.Stock.ConflictRetries = -1 }},
		{"不正なログレベル", func(c *Config) { c.Logging.Level = "verbose" }},
		{"不正なログ形式", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		cfg := base()
		tt.mutate(cfg)
		assert.Error(t, cfg.Validate(), tt.name)
	}
}

// TestDSN はDSN生成のテスト
func TestDSN(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "zaiko",
			Password: "secret",
			DBName:   "zaiko_db",
			SSLMode:  "disable",
		},
	}

	assert.Equal(t,
		"host=localhost port=5432 user=zaiko password=secret dbname=zaiko_db sslmode=disable",
		cfg.DSN())
}

// TestReportLocation はタイムゾーン解決のテスト
func TestReportLocation(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	loc := cfg.ReportLocation()
	assert.Equal(t, "Asia/Tokyo", loc.String())
}
