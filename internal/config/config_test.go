package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnvOverrides(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	cfg.Paths.ConfigPath = "/tmp/config" // avoid creation

	t.Setenv("AKA_ALIASES", "jo; joey")
	t.Setenv("AKA_WATCH_ENABLED", "false")
	t.Setenv("AKA_METRICS_ADDR", "1.2.3.4:9999")
	t.Setenv("AKA_LOG_LEVEL", "debug")
	t.Setenv("AKA_LOG_FORMAT", "json")
	t.Setenv("AKA_SOURCE", "/tmp/chat.fifo")

	applyEnvOverrides(cfg)

	if cfg.Aliases.Raw != "jo; joey" {
		t.Fatalf("alias override failed: %q", cfg.Aliases.Raw)
	}
	if cfg.Watch.Enabled {
		t.Fatalf("watch should be disabled via env")
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Addr != "1.2.3.4:9999" {
		t.Fatalf("metrics override failed: %+v", cfg.Metrics)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("logging overrides failed: %+v", cfg.Logging)
	}
	if cfg.Source.Path != "/tmp/chat.fifo" {
		t.Fatalf("source override failed: %q", cfg.Source.Path)
	}
}

func TestEmptyAliasEnvClearsList(t *testing.T) {
	cfg, _ := Default()
	t.Setenv("AKA_ALIASES", "")
	applyEnvOverrides(cfg)
	if cfg.Aliases.Raw != "" {
		t.Fatalf("expected empty alias override, got %q", cfg.Aliases.Raw)
	}
}

func TestLoadWritesTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Aliases.Raw != DefaultAliases {
		t.Fatalf("expected default aliases, got %q", cfg.Aliases.Raw)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("template not written: %v", err)
	}
	if cfg.Paths.ConfigPath != path {
		t.Fatalf("config path not recorded")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.toml"

	cfg, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	cfg.Paths.ConfigPath = path
	cfg.Hook.Command = "/bin/echo"
	cfg.Aliases.Raw = "Bob; Robert"

	if err := Save(cfg, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Hook.Command != "/bin/echo" {
		t.Fatalf("expected hook command to persist")
	}
	if loaded.Aliases.Raw != "Bob; Robert" {
		t.Fatalf("expected aliases to persist, got %q", loaded.Aliases.Raw)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}

func TestLoadRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[aliases\nraw ="), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestSetAliasesKeepsOtherSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, _ := Default()
	cfg.Hook.Command = "/usr/bin/notify-send"
	if err := Save(cfg, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := SetAliases(path, "new; names"); err != nil {
		t.Fatalf("set aliases: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Aliases.Raw != "new; names" {
		t.Fatalf("aliases not stored: %q", loaded.Aliases.Raw)
	}
	if loaded.Hook.Command != "/usr/bin/notify-send" {
		t.Fatalf("hook command lost: %q", loaded.Hook.Command)
	}
}

func TestDebounceInterval(t *testing.T) {
	cfg, _ := Default()
	if cfg.DebounceInterval() <= 0 {
		t.Fatalf("default debounce should be positive")
	}
	cfg.Watch.DebounceMS = -1
	if cfg.DebounceInterval() != 0 {
		t.Fatalf("negative debounce should clamp to zero")
	}
}
