package prefs

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"aka/internal/config"
	"aka/internal/logging"
)

type recorder struct {
	mu   sync.Mutex
	seen []string
	ch   chan string
}

func newRecorder() *recorder { return &recorder{ch: make(chan string, 16)} }

func (r *recorder) cb(raw string) {
	r.mu.Lock()
	r.seen = append(r.seen, raw)
	r.mu.Unlock()
	r.ch <- raw
}

func TestCurrentWritesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	s := NewStore(path, 0, logging.NewTestLogger())
	raw, err := s.Current()
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if raw != config.DefaultAliases {
		t.Fatalf("expected default aliases, got %q", raw)
	}
}

func TestSetNotifiesSubscribers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	s := NewStore(path, 0, logging.NewTestLogger())
	rec := newRecorder()
	s.Connect(rec.cb)

	if err := s.Set("alpha; beta"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := <-rec.ch; got != "alpha; beta" {
		t.Fatalf("notified with %q", got)
	}
	raw, _ := s.Current()
	if raw != "alpha; beta" {
		t.Fatalf("not persisted: %q", raw)
	}
}

func TestDisconnectStopsCallbacks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	s := NewStore(path, 0, logging.NewTestLogger())
	rec := newRecorder()
	id := s.Connect(rec.cb)
	s.Disconnect(id)
	if err := s.Notify(); err != nil {
		t.Fatalf("notify: %v", err)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.seen) != 0 {
		t.Fatalf("disconnected callback fired: %v", rec.seen)
	}
}

func TestWatchPicksUpFileChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	s := NewStore(path, 20*time.Millisecond, logging.NewTestLogger())
	if _, err := s.Current(); err != nil {
		t.Fatalf("current: %v", err)
	}
	rec := newRecorder()
	s.Connect(rec.cb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx) }()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)
	if _, err := config.SetAliases(path, "from disk"); err != nil {
		t.Fatalf("set aliases: %v", err)
	}

	select {
	case got := <-rec.ch:
		if got != "from disk" {
			t.Fatalf("got %q", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("no notification after file change")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("watch did not stop")
	}
}
