package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"surety-node/modules"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)

	params, err := cfg.Params.Params()
	require.NoError(t, err)
	require.Equal(t, modules.DefaultParams(), params)

	codes, err := cfg.Oracles.StatusCodes()
	require.NoError(t, err)
	require.Equal(t, []modules.StatusCode{
		modules.StatusUnknown, modules.StatusOnTime, modules.StatusLateAirline,
		modules.StatusLateWeather, modules.StatusLateTechnical, modules.StatusLateOther,
	}, codes)
}

func TestSaveAndLoad(t *testing.T) {
	home := t.TempDir()
	cfg := DefaultConfig()
	cfg.API.Address = "0.0.0.0:8080"
	cfg.API.AllowedOrigins = []string{"http://localhost:8000"}
	cfg.Oracles.Count = 7
	cfg.Oracles.Statuses = []string{"OnTime", "LateWeather"}
	cfg.Params.MinResponses = 5
	cfg.Store.Retain = 10
	require.NoError(t, cfg.Save(home))

	loaded, err := Load(home)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

func TestEnvOverrides(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, DefaultConfig().Save(home))
	t.Setenv("SURETY_API_ADDRESS", "127.0.0.1:9000")
	t.Setenv("SURETY_PARAMS_MIN_RESPONSES", "2")

	cfg, err := Load(home)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", cfg.API.Address)
	require.Equal(t, 2, cfg.Params.MinResponses)
}

func TestDotEnv(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, ".env"), []byte("SURETY_ORACLES_COUNT=3\n"), 0600))
	t.Cleanup(func() { _ = os.Unsetenv("SURETY_ORACLES_COUNT") })

	cfg, err := Load(home)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Oracles.Count)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Oracles.Statuses = []string{"Delayed"}
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Params.OracleFee = "one ether"
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Params.PayoutDenominator = 0
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Store.Backend = "cleveldb"
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Oracles.Simulate = false
	cfg.Oracles.Count = 0
	require.NoError(t, cfg.Validate())
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	home := t.TempDir()
	cfg := DefaultConfig()
	cfg.Params.IndexSpace = 2
	require.NoError(t, cfg.Save(home))
	_, err := Load(home)
	require.Error(t, err)
}
