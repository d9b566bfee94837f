package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerniceZTT/territory_end/models"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "analytics.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAnalyticsConfigMissingFile(t *testing.T) {
	cfg, err := LoadAnalyticsConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultAnalyticsConfig(), cfg)

	cfg, err = LoadAnalyticsConfig("")
	require.NoError(t, err)
	assert.Equal(t, 2.0, cfg.Anomaly.Threshold)
}

func TestLoadAnalyticsConfigOverrides(t *testing.T) {
	path := writeFile(t, `
anomaly:
  threshold: 2.5
churn:
  window_days: 180
planning:
  base_rate: 12
  risk_level: high
match:
  volume: 0.6
growth_months: 6
`)

	cfg, err := LoadAnalyticsConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 2.5, cfg.Anomaly.Threshold)
	assert.Equal(t, 3.0, cfg.Anomaly.ExtremeThreshold)
	assert.Equal(t, 180, cfg.Churn.WindowDays)
	assert.Equal(t, 50.0, cfg.Churn.RecencyWeight)
	assert.Equal(t, 12.0, cfg.Planning.BaseRate)
	assert.Equal(t, models.RiskLevelHigh, cfg.Planning.RiskLevel)
	assert.Equal(t, 0.6, cfg.Match.Volume)
	assert.Equal(t, 0.3, cfg.Match.Potential)
	assert.Equal(t, 6, cfg.GrowthMonths)
	assert.Equal(t, 1.0, cfg.Actions.TierWeights[models.ABCCategoryA])
}

func TestLoadAnalyticsConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "broken yaml", content: "anomaly: [1, 2"},
		{name: "extreme below threshold", content: "anomaly:\n  threshold: 3\n  extreme_threshold: 2\n"},
		{name: "unknown risk level", content: "planning:\n  risk_level: reckless\n"},
		{name: "unordered churn levels", content: "churn:\n  high_threshold: 90\n"},
		{name: "negative weight", content: "match:\n  growth: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadAnalyticsConfig(writeFile(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MONGO_DB", "territory_test")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("GIN_MODE", "release")
	t.Setenv("RECOMPUTE_CRON", "*/5 * * * *")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")

	cfg := LoadConfig()

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "territory_test", cfg.MongoDB)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.False(t, cfg.Debug)
	assert.Equal(t, "*/5 * * * *", cfg.RecomputeCron)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoadConfigFallbacks(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	t.Setenv("CACHE_TTL", "soon")

	cfg := LoadConfig()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
}
