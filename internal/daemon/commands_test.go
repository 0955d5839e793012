package daemon

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"aka/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg, _ := config.Default()
	cfg.Paths.ConfigPath = filepath.Join(dir, "config.toml")
	cfg.Paths.PidPath = filepath.Join(dir, "aka.pid")
	if err := config.Save(cfg, cfg.Paths.ConfigPath); err != nil {
		t.Fatalf("save cfg: %v", err)
	}
	return cfg
}

func TestWaitForShutdownSucceedsWhenPidFileRemoved(t *testing.T) {
	cfg := testConfig(t)
	if err := os.WriteFile(cfg.Paths.PidPath, []byte("12345"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = os.Remove(cfg.Paths.PidPath)
	}()
	if err := waitForShutdown(cfg.Paths.PidPath, 2*time.Second); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestWaitForShutdownTimesOutOnAlivePid(t *testing.T) {
	cfg := testConfig(t)
	if err := os.WriteFile(cfg.Paths.PidPath, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	if err := waitForShutdown(cfg.Paths.PidPath, 300*time.Millisecond); err == nil {
		t.Fatalf("expected timeout error")
	}
}

func TestEnsureNotRunning(t *testing.T) {
	cfg := testConfig(t)
	if err := ensureNotRunning(cfg); err != nil {
		t.Fatalf("no pid file should mean not running: %v", err)
	}
	if err := os.WriteFile(cfg.Paths.PidPath, []byte(fmt.Sprintf("%d", os.Getpid())), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	if err := ensureNotRunning(cfg); err == nil {
		t.Fatalf("expected already-running error for live pid")
	}
}

func TestReadPIDRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aka.pid")
	if err := os.WriteFile(path, []byte("not a pid"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	if _, err := readPID(path); err == nil {
		t.Fatalf("expected error for garbage pid file")
	}
}

func TestWaitForPID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aka.pid")
	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = os.WriteFile(path, []byte("4321\n"), 0o644)
	}()
	pid, err := waitForPID(path, 2*time.Second)
	if err != nil || pid != 4321 {
		t.Fatalf("waitForPID=%d,%v", pid, err)
	}
	if _, err := waitForPID(filepath.Join(t.TempDir(), "none.pid"), 200*time.Millisecond); err == nil {
		t.Fatalf("expected timeout")
	}
}

func TestCheckBackgroundSource(t *testing.T) {
	cfg := testConfig(t)
	for _, p := range []string{"", "-"} {
		cfg.Source.Path = p
		if err := checkBackgroundSource(cfg); err == nil || !strings.Contains(err.Error(), "stdin") {
			t.Fatalf("source %q: expected stdin error, got %v", p, err)
		}
	}
	cfg.Source.Path = filepath.Join(t.TempDir(), "missing.fifo")
	if err := checkBackgroundSource(cfg); err == nil {
		t.Fatalf("expected error for missing source")
	}
	feed := filepath.Join(t.TempDir(), "feed.jsonl")
	if err := os.WriteFile(feed, nil, 0o644); err != nil {
		t.Fatalf("write feed: %v", err)
	}
	cfg.Source.Path = feed
	if err := checkBackgroundSource(cfg); err != nil {
		t.Fatalf("file source rejected: %v", err)
	}
	cfg.Source.Format = "xml"
	if err := checkBackgroundSource(cfg); err == nil {
		t.Fatalf("expected format error")
	}
}

func TestStartRefusesStdinSource(t *testing.T) {
	cfg := testConfig(t)
	path := cfg.Paths.ConfigPath
	cmd := NewStartCmd(&path)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(nil)
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "stdin") {
		t.Fatalf("expected stdin refusal, got %v", err)
	}
	if _, statErr := os.Stat(cfg.Paths.PidPath); !os.IsNotExist(statErr) {
		t.Fatalf("no daemon should have been started")
	}
}

func TestRunFlagsEnv(t *testing.T) {
	f := &runFlags{noWatch: true, metricsAddr: "127.0.0.1:1", source: "/tmp/feed"}
	got := strings.Join(f.env(), " ")
	want := "AKA_WATCH_ENABLED=0 AKA_METRICS_ADDR=127.0.0.1:1 AKA_SOURCE=/tmp/feed"
	if got != want {
		t.Fatalf("env=%q want %q", got, want)
	}
	if len((&runFlags{}).env()) != 0 {
		t.Fatalf("empty flags should add no env")
	}
}
