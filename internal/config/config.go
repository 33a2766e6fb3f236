// Package config loads the scraper's settings from a json5 file in the
// user's configuration directory and credentials from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"teepee-scraper/internal/credentials"
	"teepee-scraper/internal/scraper"
	"teepee-scraper/internal/teepee"
	"teepee-scraper/internal/traverse"
	"teepee-scraper/lib/configutil"
	"teepee-scraper/lib/restyutil"

	"github.com/adrg/xdg"
	"github.com/kelseyhightower/envconfig"
)

// NoRateLimit as requests_per_second turns the rate limit off. Zero values in
// the file never replace a default, so 0 keeps the default rate.
const NoRateLimit = -1

type Config struct {
	BaseUrl           string  `json:"base_url"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	CloudflareBypass  bool    `json:"cloudflare_bypass"`
	UserAgent         string  `json:"user_agent"`
	// DebugDumpDir receives a file per request/response pair when set.
	DebugDumpDir string `json:"debug_dump_dir"`
	// Username skips the username prompt when set.
	Username string `json:"username"`
	// KeyringService is the service passwords are stored under.
	KeyringService string `json:"keyring_service"`

	Selectors scraper.Selectors `json:"selectors"`
	Traverse  traverse.Policy   `json:"traverse"`
}

func Default() Config {
	return Config{
		BaseUrl:           teepee.DefaultBaseUrl,
		TimeoutSeconds:    int(teepee.DefaultTimeout / time.Second),
		RequestsPerSecond: 2,
		UserAgent:         teepee.DefaultUserAgent,
		KeyringService:    credentials.DefaultService,
		Selectors:         scraper.DefaultSelectors(),
		Traverse:          traverse.DefaultPolicy(),
	}
}

// DefaultPath is $XDG_CONFIG_HOME/teepee-scraper/config.json5.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "teepee-scraper", "config.json5")
}

// Load reads the file at path (and its .local. sibling) over the defaults.
// A missing file is only an error when required is set.
func Load(path string, required bool) (Config, error) {
	cfg := Default()
	err := configutil.ReadConfig(path, &cfg)
	if errors.Is(err, os.ErrNotExist) && !required {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return cfg, nil
}

// ClientOptions turns the http related settings into teepee client options,
// preparing the dump directory when one is configured.
func (c Config) ClientOptions() (teepee.ClientOptions, error) {
	opts := teepee.ClientOptions{
		BaseUrl:           c.BaseUrl,
		UserAgent:         c.UserAgent,
		Timeout:           time.Duration(c.TimeoutSeconds) * time.Second,
		RequestsPerSecond: c.RequestsPerSecond,
		CloudflareBypass:  c.CloudflareBypass,
	}
	if opts.RequestsPerSecond < 0 {
		opts.RequestsPerSecond = 0
	}
	if c.DebugDumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(c.DebugDumpDir)
		if err != nil {
			return teepee.ClientOptions{}, fmt.Errorf("prepare debug dump dir: %w", err)
		}
		opts.DumpOutput = output
	}
	return opts, nil
}

// Env holds credentials given through TEEPEE_USERNAME and TEEPEE_PASSWORD.
type Env struct {
	Username string `envconfig:"USERNAME"`
	Password string `envconfig:"PASSWORD"`
}

func (e Env) Complete() bool {
	return e.Username != "" && e.Password != ""
}

func LoadEnv() (Env, error) {
	var env Env
	err := envconfig.Process("teepee", &env)
	if err != nil {
		return Env{}, fmt.Errorf("read environment: %w", err)
	}
	return env, nil
}
