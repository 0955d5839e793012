package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	// DefaultAliases seeds a fresh config so the user sees the expected format.
	DefaultAliases       = "my name; nickname; other name; phase to alert me; etc..."
	defaultCooldown      = 0.0
	defaultStatusTail    = 10
	defaultDebounceMS    = 250
	defaultStateDirLinux = ".local/state/aka"
	defaultConfigDir     = ".config/aka"
)

// Config holds user configuration loaded from TOML.
type Config struct {
	Aliases struct {
		Raw string `toml:"raw"`
	} `toml:"aliases"`

	Source struct {
		Path   string `toml:"path"`   // "-" or empty reads stdin
		Format string `toml:"format"` // json, text
	} `toml:"source"`

	Annotate struct {
		Output string `toml:"output"` // "-" or empty writes stdout
	} `toml:"annotate"`

	Hook HookConfig `toml:"hook"`

	Watch struct {
		Enabled    bool `toml:"enabled"`
		DebounceMS int  `toml:"debounce_ms"`
	} `toml:"watch"`

	Logging struct {
		Level  string `toml:"level"`  // debug, info, warn, error
		Format string `toml:"format"` // text, json
		Stdout bool   `toml:"stdout"`
	} `toml:"logging"`

	Paths struct {
		StateDir    string `toml:"state_dir"`
		LogPath     string `toml:"log_path"`
		FlaggedPath string `toml:"flagged_path"`
		SocketPath  string `toml:"socket_path"`
		PidPath     string `toml:"pid_path"`
		ConfigPath  string `toml:"-"`
	} `toml:"paths"`

	UI struct {
		StatusTail int `toml:"status_tail"`
	} `toml:"ui"`

	Metrics struct {
		Enabled bool   `toml:"enabled"`
		Addr    string `toml:"addr"`
	} `toml:"metrics"`
}

// Default returns Config populated with defaults.
func Default() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	stateDir := filepath.Join(home, defaultStateDirLinux)
	// macOS prefers ~/Library/Application Support/aka for state/logs
	if isMac() {
		stateDir = filepath.Join(home, "Library", "Application Support", "aka")
	}

	cfg := &Config{}

	cfg.Aliases.Raw = DefaultAliases

	cfg.Source.Path = "-"
	cfg.Source.Format = "json"

	cfg.Annotate.Output = "-"

	cfg.Hook.Command = ""
	cfg.Hook.Args = []string{}
	cfg.Hook.Prefix = "${sender} in ${conversation}: "
	cfg.Hook.CooldownSec = defaultCooldown
	cfg.Hook.QueueSize = 16
	cfg.Hook.TimeoutSec = 5
	cfg.Hook.Env = map[string]string{}
	cfg.Hook.RedactPII = false

	cfg.Watch.Enabled = true
	cfg.Watch.DebounceMS = defaultDebounceMS

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"

	cfg.Paths.StateDir = stateDir
	cfg.Paths.LogPath = filepath.Join(stateDir, "aka.log")
	cfg.Paths.FlaggedPath = filepath.Join(stateDir, "flagged.log")
	cfg.Paths.SocketPath = filepath.Join(stateDir, "aka.sock")
	cfg.Paths.PidPath = filepath.Join(stateDir, "aka.pid")

	cfg.UI.StatusTail = defaultStatusTail

	cfg.Metrics.Enabled = false
	cfg.Metrics.Addr = "127.0.0.1:9318"

	return cfg, nil
}

// DefaultPath returns ~/.config/aka/config.toml.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, defaultConfigDir, "config.toml")
}

// Load loads config from file, applying defaults.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultPath()
	}

	// Read if exists; otherwise write template.
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := Save(cfg, path); err != nil {
				return nil, err
			}
			cfg.Paths.ConfigPath = path
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Paths.ConfigPath = path
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Save writes cfg to path.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	// Write then rename so a watcher never reads a half-written file.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// SetAliases stores raw as the alias preference in the config at path.
// Env overrides are not persisted.
func SetAliases(path, raw string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}
	cfg.Aliases.Raw = raw
	if err := Save(cfg, path); err != nil {
		return nil, err
	}
	cfg.Paths.ConfigPath = path
	return cfg, nil
}

func isMac() bool {
	return runtime.GOOS == "darwin"
}

// MustStatePaths ensures state dirs exist.
func MustStatePaths(cfg *Config) error {
	for _, p := range []string{cfg.Paths.StateDir, filepath.Dir(cfg.Paths.LogPath), filepath.Dir(cfg.Paths.FlaggedPath)} {
		if p == "" {
			continue
		}
		if err := os.MkdirAll(p, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// DebounceInterval returns the watch debounce as a duration.
func (c *Config) DebounceInterval() time.Duration {
	if c.Watch.DebounceMS <= 0 {
		return 0
	}
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("AKA_ALIASES"); ok {
		cfg.Aliases.Raw = v
	}
	if v := os.Getenv("AKA_SOURCE"); v != "" {
		cfg.Source.Path = v
	}
	if v := os.Getenv("AKA_WATCH_ENABLED"); v != "" {
		cfg.Watch.Enabled = envBool(v)
	}
	if v := os.Getenv("AKA_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
		cfg.Metrics.Enabled = true
	}
	if v := os.Getenv("AKA_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("AKA_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("AKA_REDACT_PII"); v != "" {
		cfg.Hook.RedactPII = envBool(v)
	}
}

func envBool(v string) bool {
	return v != "0" && strings.ToLower(v) != "false"
}
