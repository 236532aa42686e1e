package common

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beam-cloud/hazardkit/pkg/types"
)

func TestNewConfigManager_Defaults(t *testing.T) {
	t.Setenv(ConfigPathEnv, "")

	cm, err := NewConfigManager[types.AppConfig]()
	require.NoError(t, err)

	config := cm.GetConfig()
	assert.Equal(t, types.SourceLocal, config.Source.Kind)
	assert.True(t, config.Source.IsLocal())
	assert.Equal(t, 256, config.Source.S3.CacheEntries)
	assert.Equal(t, 5*time.Minute, config.Source.S3.CacheTTL)
	assert.Equal(t, 1994, config.Server.Port)
	assert.Equal(t, 10*time.Second, config.Server.ShutdownTimeout)
	assert.Equal(t, []string{"GET", "POST"}, config.Server.CORS.AllowedMethods)
	assert.Equal(t, 4, config.Plots.Concurrency)
}

func TestNewConfigManager_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hazardkit.yaml")
	err := os.WriteFile(path, []byte(`
source:
  kind: s3
  s3:
    bucket: psha-outputs
    prefix: run-14/
    cacheTTL: 30s
plots:
  outputDir: /tmp/figures
`), 0644)
	require.NoError(t, err)

	cm, err := NewConfigManager[types.AppConfig](WithConfigPath(path))
	require.NoError(t, err)

	config := cm.GetConfig()
	assert.False(t, config.Source.IsLocal())
	assert.Equal(t, "psha-outputs", config.Source.S3.Bucket)
	assert.Equal(t, "run-14/", config.Source.S3.Prefix)
	assert.Equal(t, 30*time.Second, config.Source.S3.CacheTTL)
	assert.Equal(t, "us-east-1", config.Source.S3.Region, "defaults survive partial overrides")
	assert.Equal(t, "/tmp/figures", config.Plots.OutputDir)
}

func TestNewConfigManager_EnvPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hazardkit.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"source": {"dir": "/data/outputs"}}`), 0644))
	t.Setenv(ConfigPathEnv, path)

	cm, err := NewConfigManager[types.AppConfig]()
	require.NoError(t, err)
	assert.Equal(t, "/data/outputs", cm.GetConfig().Source.Dir)
}

func TestNewConfigManager_BadFile(t *testing.T) {
	_, err := NewConfigManager[types.AppConfig](WithConfigPath("/nonexistent/hazardkit.yaml"))
	assert.Error(t, err)

	_, err = NewConfigManager[types.AppConfig](WithConfigPath("hazardkit.toml"))
	assert.Error(t, err)
}

func TestConfigManager_Set(t *testing.T) {
	t.Setenv(ConfigPathEnv, "")

	cm, err := NewConfigManager[types.AppConfig]()
	require.NoError(t, err)

	require.NoError(t, cm.Set("source.dir", "/scratch/oq"))
	assert.Equal(t, "/scratch/oq", cm.GetConfig().Source.Dir)
}

func TestSetupLogging(t *testing.T) {
	var buf bytes.Buffer
	setupLogging(&buf, false, false)
	log.Debug().Msg("hidden")
	log.Info().Str("component", "test").Msg("visible")

	output := buf.String()
	assert.NotContains(t, output, "hidden")
	assert.Contains(t, output, `"component":"test"`)

	buf.Reset()
	setupLogging(&buf, false, true)
	log.Debug().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}
