package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BUCKET_NAME", "spend-data")

	cfg := Load()

	assert.Equal(t, "spend-data", cfg.OutputBucket)
	assert.Equal(t, "default", cfg.QueryDataset)
	assert.Equal(t, DefaultAmountMerchantPattern, cfg.AmountMerchantPattern)
	assert.Equal(t, "US/Pacific", cfg.ReportingTimezone)
	assert.True(t, cfg.HighValueThreshold.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 2*time.Second, cfg.FlushInterval)

	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BUCKET_NAME", "spend-data")
	t.Setenv("HIGH_VALUE_THRESHOLD", "99.95")
	t.Setenv("REPORTING_TIMEZONE", "Europe/London")
	t.Setenv("INGEST_BATCH_SIZE", "25")

	cfg := Load()

	assert.True(t, cfg.HighValueThreshold.Equal(decimal.RequireFromString("99.95")))
	assert.Equal(t, "Europe/London", cfg.ReportingTimezone)
	assert.Equal(t, 25, cfg.BatchSize)
	require.NoError(t, cfg.Validate())
}

func TestLoad_BadThresholdFallsBack(t *testing.T) {
	t.Setenv("BUCKET_NAME", "spend-data")
	t.Setenv("HIGH_VALUE_THRESHOLD", "not-a-number")

	cfg := Load()
	assert.True(t, cfg.HighValueThreshold.Equal(decimal.NewFromInt(150)))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing bucket",
			mutate:  func(c *Config) { c.OutputBucket = "" },
			wantErr: "BUCKET_NAME is required",
		},
		{
			name:    "bad pattern",
			mutate:  func(c *Config) { c.AmountMerchantPattern = `(` },
			wantErr: "AMOUNT_MERCHANT_PATTERN",
		},
		{
			name:    "bad timezone",
			mutate:  func(c *Config) { c.ReportingTimezone = "Mars/Olympus" },
			wantErr: "REPORTING_TIMEZONE",
		},
		{
			name:    "negative threshold",
			mutate:  func(c *Config) { c.HighValueThreshold = decimal.NewFromInt(-1) },
			wantErr: "HIGH_VALUE_THRESHOLD",
		},
		{
			name:    "bad amqp scheme",
			mutate:  func(c *Config) { c.AMQPURL = "http://localhost:5672" },
			wantErr: "AMQP URL scheme",
		},
		{
			name:    "zero batch size",
			mutate:  func(c *Config) { c.BatchSize = 0 },
			wantErr: "INGEST_BATCH_SIZE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BUCKET_NAME", "spend-data")
			cfg := Load()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReportingLocation_FallsBackToUTC(t *testing.T) {
	cfg := &Config{ReportingTimezone: "Mars/Olympus"}
	assert.Equal(t, time.UTC, cfg.ReportingLocation())
}
