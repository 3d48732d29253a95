package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port       int           `env:"R8M8_TEST_PORT" envDefault:"8080"`
	LogLevel   string        `env:"R8M8_TEST_LOG_LEVEL" envDefault:"info"`
	AccessTTL  time.Duration `env:"R8M8_TEST_ACCESS_TTL" envDefault:"10m"`
	Registered bool          `env:"R8M8_TEST_REGISTRATION" envDefault:"true"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Minute, cfg.AccessTTL)
	assert.True(t, cfg.Registered)
}

func TestLoad_FromEnvVars(t *testing.T) {
	t.Setenv("R8M8_TEST_PORT", "9090")
	t.Setenv("R8M8_TEST_LOG_LEVEL", "debug")
	t.Setenv("R8M8_TEST_ACCESS_TTL", "30s")
	t.Setenv("R8M8_TEST_REGISTRATION", "false")

	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.AccessTTL)
	assert.False(t, cfg.Registered)
}

func TestLoad_InvalidType(t *testing.T) {
	t.Setenv("R8M8_TEST_PORT", "not-a-number")

	var cfg testConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

type secretConfig struct {
	Secret string `env:"R8M8_TEST_SECRET,required"`
}

func (c *secretConfig) Validate() error {
	if len(c.Secret) < 8 {
		return errors.New("secret too short")
	}
	return nil
}

func TestLoad_RequiredFieldMissing(t *testing.T) {
	var cfg secretConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_RunsValidate(t *testing.T) {
	t.Setenv("R8M8_TEST_SECRET", "short")

	var cfg secretConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate config: secret too short")
}

func TestLoad_ValidatePasses(t *testing.T) {
	t.Setenv("R8M8_TEST_SECRET", "long-enough-secret")

	var cfg secretConfig
	require.NoError(t, Load(&cfg))
	assert.Equal(t, "long-enough-secret", cfg.Secret)
}
