package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/airlock-labs/airlock/pkg/airlock"
	"github.com/airlock-labs/airlock/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminHex  = "0x00000000000000000000000000000000000000ad"
	avatarHex = "0x00000000000000000000000000000000000000a7"
	targetHex = "0x000000000000000000000000000000000000007a"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"AIRLOCK_ADMIN", "AIRLOCK_AVATAR", "AIRLOCK_TARGET",
		"AIRLOCK_COOLDOWN", "AIRLOCK_EXPIRATION", "AIRLOCK_DB_PATH",
		"AIRLOCK_TELEMETRY", "AIRLOCK_OTLP_ENDPOINT", "AIRLOCK_OTLP_INSECURE",
	} {
		t.Setenv(k, "")
	}
}

// TestLoad_Defaults verifies Load returns safe defaults with no
// environment set.
func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := config.Load()

	assert.Equal(t, "0s", cfg.Cooldown)
	assert.Equal(t, "0s", cfg.Expiration)
	assert.Equal(t, "localhost:4317", cfg.Telemetry.Endpoint)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("AIRLOCK_ADMIN", adminHex)
	t.Setenv("AIRLOCK_AVATAR", avatarHex)
	t.Setenv("AIRLOCK_TARGET", targetHex)
	t.Setenv("AIRLOCK_COOLDOWN", "24h")
	t.Setenv("AIRLOCK_EXPIRATION", "72h")
	t.Setenv("AIRLOCK_TELEMETRY", "true")

	cfg := config.Load()
	engine, err := cfg.Engine()
	require.NoError(t, err)

	assert.Equal(t, adminHex, engine.Admin.Hex())
	assert.Equal(t, 24*time.Hour, engine.Cooldown)
	assert.Equal(t, 72*time.Hour, engine.Expiration)
	assert.True(t, cfg.Telemetry.Enabled)

	_, err = airlock.New(engine)
	assert.NoError(t, err)
}

func TestLoadFile_OverridesEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("AIRLOCK_COOLDOWN", "1h")

	path := filepath.Join(t.TempDir(), "airlock.yaml")
	body := `
admin: ` + adminHex + `
avatar: ` + avatarHex + `
target: ` + targetHex + `
cooldown: 30m
telemetry:
  enabled: true
  endpoint: collector:4317
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)

	engine, err := cfg.Engine()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, engine.Cooldown, "the file wins over the environment")
	assert.Equal(t, "collector:4317", cfg.Telemetry.Endpoint)

	_, err = config.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEngine_ParseErrors(t *testing.T) {
	clearEnv(t)

	cfg := config.Load()
	_, err := cfg.Engine()
	assert.Error(t, err, "empty identities cannot parse")

	t.Setenv("AIRLOCK_ADMIN", adminHex)
	t.Setenv("AIRLOCK_AVATAR", avatarHex)
	t.Setenv("AIRLOCK_TARGET", targetHex)
	t.Setenv("AIRLOCK_COOLDOWN", "not-a-duration")
	_, err = config.Load().Engine()
	assert.ErrorContains(t, err, "cooldown")
}
