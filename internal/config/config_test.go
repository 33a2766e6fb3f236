package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"teepee-scraper/internal/scraper"
	"teepee-scraper/internal/teepee"
	"teepee-scraper/internal/traverse"

	"github.com/stretchr/testify/require"
)

func TestLoadMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")

	cfg, err := Load(path, false)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	_, err = Load(path, true)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	err := os.WriteFile(path, []byte(`{
		base_url: "http://localhost:8080",
		username: "jozko",
		selectors: {
			persons: { row: "div.member" },
		},
		traverse: {
			max_depth: 2,
			persons_for: ["Rysi"],
		},
	}`), 0600)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{timeout_seconds: 5}`), 0600)
	require.NoError(t, err)

	cfg, err := Load(path, true)
	require.NoError(t, err)

	require.Equal(t, "http://localhost:8080", cfg.BaseUrl)
	require.Equal(t, "jozko", cfg.Username)
	require.Equal(t, 5, cfg.TimeoutSeconds)
	require.Equal(t, teepee.DefaultUserAgent, cfg.UserAgent)

	defaults := scraper.DefaultSelectors()
	require.Equal(t, "div.member", cfg.Selectors.Persons.RowSelector)
	require.Equal(t, defaults.Persons.TabSelector, cfg.Selectors.Persons.TabSelector)
	require.Equal(t, defaults.ChildUnits, cfg.Selectors.ChildUnits)

	require.Equal(t, 2, cfg.Traverse.MaxDepth)
	require.Equal(t, []string{"Rysi"}, cfg.Traverse.PersonsFor)
	require.Equal(t, traverse.DefaultMatchThreshold, cfg.Traverse.MatchThreshold)

	opts, err := cfg.ClientOptions()
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, opts.Timeout)
	require.Nil(t, opts.DumpOutput)
}

func TestLoadDisablesRateLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")
	err := os.WriteFile(path, []byte(`{requests_per_second: 0}`), 0600)
	require.NoError(t, err)

	cfg, err := Load(path, true)
	require.NoError(t, err)
	require.Equal(t, Default().RequestsPerSecond, cfg.RequestsPerSecond)

	err = os.WriteFile(path, []byte(`{requests_per_second: -1}`), 0600)
	require.NoError(t, err)

	cfg, err = Load(path, true)
	require.NoError(t, err)
	require.Equal(t, float64(NoRateLimit), cfg.RequestsPerSecond)

	opts, err := cfg.ClientOptions()
	require.NoError(t, err)
	require.Zero(t, opts.RequestsPerSecond)
}

func TestClientOptionsDumpDir(t *testing.T) {
	cfg := Default()
	cfg.DebugDumpDir = filepath.Join(t.TempDir(), "dump")

	opts, err := cfg.ClientOptions()
	require.NoError(t, err)
	require.NotNil(t, opts.DumpOutput)
	require.DirExists(t, cfg.DebugDumpDir)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("TEEPEE_USERNAME", "jozko")
	t.Setenv("TEEPEE_PASSWORD", "hunter2")

	env, err := LoadEnv()
	require.NoError(t, err)
	require.Equal(t, Env{Username: "jozko", Password: "hunter2"}, env)
	require.True(t, env.Complete())
	require.False(t, Env{Username: "jozko"}.Complete())
}
