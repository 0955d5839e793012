package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWritePlist(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	params := LaunchdParams{
		Label:  DefaultLabel,
		Binary: "/usr/local/bin/aka",
		Config: filepath.Join(home, ".config", "aka", "config.toml"),
		Log:    filepath.Join(home, "aka.log"),
		Env:    map[string]string{"AKA_LOG_LEVEL": "debug"},
	}
	path, err := WritePlist(params)
	if err != nil {
		t.Fatalf("write plist: %v", err)
	}
	if path != LaunchdPath(DefaultLabel) {
		t.Fatalf("unexpected path %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read plist: %v", err)
	}
	for _, want := range []string{"<string>serve</string>", "<key>AKA_LOG_LEVEL</key><string>debug</string>", params.Config} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("plist missing %q:\n%s", want, data)
		}
	}
	if p, ok := Status(DefaultLabel); !ok || p != path {
		t.Fatalf("status: %s %v", p, ok)
	}
}

func TestStatusMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if _, ok := Status(DefaultLabel); ok {
		t.Fatalf("expected missing plist")
	}
}
