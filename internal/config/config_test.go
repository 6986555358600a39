package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "data/trees_combined.json", cfg.DatasetPath)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("DATASET_PATH", "/srv/trees.json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "/srv/trees.json", cfg.DatasetPath)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}

func TestDefaultColumns(t *testing.T) {
	m := DefaultColumns()
	assert.Equal(t, "Essence_en", m.Species)
	assert.Equal(t, "Date_Plantation", m.Year)
	assert.Equal(t, "Latitude", m.Latitude)
	assert.Equal(t, "Longitude", m.Longitude)
	assert.Empty(t, m.ID)
	require.NoError(t, m.Validate())
}

func TestLoadColumns(t *testing.T) {
	t.Run("partial mapping keeps defaults", func(t *testing.T) {
		path := writeMapping(t, "id: EMP_NO\nspecies: Essence_fr\n")

		m, err := LoadColumns(path)
		require.NoError(t, err)
		assert.Equal(t, "EMP_NO", m.ID)
		assert.Equal(t, "Essence_fr", m.Species)
		assert.Equal(t, "Date_Plantation", m.Year)
		assert.Equal(t, "Latitude", m.Latitude)
	})

	t.Run("blanked required column", func(t *testing.T) {
		path := writeMapping(t, `year: ""`)

		_, err := LoadColumns(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "year column")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadColumns(filepath.Join(t.TempDir(), "nope.yml"))
		require.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeMapping(t, "species: [unterminated")
		_, err := LoadColumns(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse column mapping")
	})
}

func writeMapping(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "columns.yml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}
