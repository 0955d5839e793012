package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"aka/internal/config"

	"github.com/sirupsen/logrus"
)

func TestConfigureWritesRotatedFile(t *testing.T) {
	dir := t.TempDir()
	cfg, _ := config.Default()
	cfg.Paths.StateDir = dir
	cfg.Paths.LogPath = filepath.Join(dir, "logs", "aka.log")
	cfg.Paths.FlaggedPath = filepath.Join(dir, "flagged.log")
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"

	logger, err := Configure(cfg)
	if err != nil {
		t.Fatalf("configure: %v", err)
	}
	if logger.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level not applied: %v", logger.GetLevel())
	}
	logger.WithField("alias", "bob").Info("hello")

	data, err := os.ReadFile(cfg.Paths.LogPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"alias":"bob"`) {
		t.Fatalf("expected json log line, got %s", data)
	}
}

func TestConfigureIgnoresUnknownLevel(t *testing.T) {
	dir := t.TempDir()
	cfg, _ := config.Default()
	cfg.Paths.StateDir = dir
	cfg.Paths.LogPath = filepath.Join(dir, "aka.log")
	cfg.Paths.FlaggedPath = filepath.Join(dir, "flagged.log")
	cfg.Logging.Level = "loud"

	logger, err := Configure(cfg)
	if err != nil {
		t.Fatalf("configure: %v", err)
	}
	if logger.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected default info level, got %v", logger.GetLevel())
	}
}
