package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(LoaderOptions{ConfigDir: dir, Environment: "test"})
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, ":7700", cfg.Transport.ListenAddr)
}

func TestLoadEnvironmentOverride(t *testing.T) {
	os.Setenv("TOM_LOG_LEVEL", "debug")
	defer os.Unsetenv("TOM_LOG_LEVEL")

	dir := t.TempDir()
	cfg, err := Load(LoaderOptions{ConfigDir: dir, Environment: "test"})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfigFileFound(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "staging.yaml"), []byte("environment: staging\n"), 0644))

	cfg, err := Load(LoaderOptions{ConfigDir: dir, Environment: "staging"})
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Environment)
}

func TestMustLoadPanicsOnValidationFailure(t *testing.T) {
	dir := t.TempDir()
	content := "presence:\n  send_interval: 10s\n  offline_threshold: 5s\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.yaml"), []byte(content), 0644))

	assert.Panics(t, func() {
		MustLoad(LoaderOptions{ConfigDir: dir, Environment: "test"})
	})
}
