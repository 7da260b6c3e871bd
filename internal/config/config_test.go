package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Screener.TargetCount)
	assert.Equal(t, 0.25, cfg.Diversification.MaxSectorExposureNormal)
	assert.Equal(t, 200, cfg.Validator.MinSampleSize)
	assert.Equal(t, 30, cfg.Monitor.UpdateFrequencyMinutes)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairscreen.yaml")
	body := `
screener:
  target_count: 40
  min_correlation: 0.35
validator:
  bootstrap_iters: 500
store:
  query_timeout_secs: 3
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 40, cfg.Screener.TargetCount)
	assert.Equal(t, 0.35, cfg.Screener.MinCorrelation)
	assert.Equal(t, 0.8, cfg.Screener.MaxCorrelation) // untouched default
	assert.Equal(t, 500, cfg.Validator.BootstrapIters)
	assert.Equal(t, 3*time.Second, cfg.Store.QueryTimeout())
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("screener: ["), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
