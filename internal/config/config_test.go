package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
data:
  path: data/media.csv
  channels: [tv, search, social]
  sales: weekly_sales
model:
  max_lag: 2
  alpha: 0.01
bootstrap:
  replications: 250
  seed: 99
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "data/media.csv", cfg.Data.Path)
	assert.Equal(t, []string{"tv", "search", "social"}, cfg.Data.Channels)
	assert.Equal(t, "weekly_sales", cfg.Data.Sales)
	assert.Equal(t, 2, cfg.Model.MaxLag)
	assert.Equal(t, 0.01, cfg.Model.Alpha)
	assert.Equal(t, 250, cfg.Bootstrap.Replications)
	assert.Equal(t, int64(99), cfg.Bootstrap.Seed)

	// Untouched keys keep their defaults.
	assert.Equal(t, 52, cfg.Model.SeasonalPeriod)
	assert.Equal(t, 12, cfg.Bootstrap.Horizon)
	assert.Equal(t, 0.95, cfg.Bootstrap.Confidence)
	assert.Equal(t, "output", cfg.Output.Dir)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"no channels", `
data:
  sales: sales
`},
		{"bad max lag", `
data:
  channels: [tv]
model:
  max_lag: 0
`},
		{"bad confidence", `
data:
  channels: [tv]
bootstrap:
  confidence: 1.5
`},
		{"bad replications", `
data:
  channels: [tv]
bootstrap:
  replications: -5
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestDefaultValidatesOnceChannelsSet(t *testing.T) {
	cfg := Default()
	// Defaults alone cannot pass validation: the channel list is data-specific.
	assert.Error(t, cfg.Validate())

	cfg.Data.Channels = []string{"tv"}
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "sales", cfg.Data.Sales)
	assert.Equal(t, 500, cfg.Bootstrap.Replications)
	assert.Equal(t, 1, cfg.Model.MaxLag)
	assert.InDelta(t, 0.05, cfg.Model.Alpha, 1e-12)
}
