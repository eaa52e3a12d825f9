package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstituteEnvVars(t *testing.T) {
	os.Setenv("TOM_TEST_VAR", "hello")
	defer os.Unsetenv("TOM_TEST_VAR")

	assert.Equal(t, "hello world", SubstituteEnvVars("${TOM_TEST_VAR} world"))
	assert.Equal(t, "fallback", SubstituteEnvVars("${TOM_MISSING_VAR:fallback}"))
	assert.Equal(t, "", SubstituteEnvVars("${TOM_MISSING_VAR}"))
}

func TestSubstituteEnvVarsInConfig(t *testing.T) {
	os.Setenv("TOM_TEST_DIR", "/var/tomnet")
	defer os.Unsetenv("TOM_TEST_DIR")

	cfg := &Config{Identity: &IdentityConfig{KeystoreDir: "${TOM_TEST_DIR}/keys"}}
	SubstituteEnvVarsInConfig(cfg)
	assert.Equal(t, "/var/tomnet/keys", cfg.Identity.KeystoreDir)
}

func TestGetEnvironment(t *testing.T) {
	os.Unsetenv("TOM_ENV")
	os.Unsetenv("ENVIRONMENT")
	assert.Equal(t, "development", GetEnvironment())

	os.Setenv("TOM_ENV", "Production")
	defer os.Unsetenv("TOM_ENV")
	assert.Equal(t, "production", GetEnvironment())
	assert.True(t, IsProduction())
	assert.False(t, IsDevelopment())
}
