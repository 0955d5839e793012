// Package prefs is the alias preference store: it reads the raw alias string
// from the config file and tells subscribers whenever it changes.
package prefs

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"aka/internal/config"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Callback receives the full raw alias string after every change.
type Callback func(raw string)

// Store watches one config file.
type Store struct {
	path     string
	debounce time.Duration
	logger   *logrus.Logger

	mu     sync.Mutex
	nextID int
	subs   map[int]Callback
	timer  *time.Timer
	closed bool

	watcher *fsnotify.Watcher
}

// NewStore returns a store for the config at path ("" means the default path).
func NewStore(path string, debounce time.Duration, logger *logrus.Logger) *Store {
	if path == "" {
		path = config.DefaultPath()
	}
	return &Store{
		path:     filepath.Clean(path),
		debounce: debounce,
		logger:   logger,
		subs:     map[int]Callback{},
	}
}

// Path returns the watched config path.
func (s *Store) Path() string { return s.path }

// Current loads the stored alias string, writing the default config first if
// none exists.
func (s *Store) Current() (string, error) {
	cfg, err := config.Load(s.path)
	if err != nil {
		return "", err
	}
	return cfg.Aliases.Raw, nil
}

// Connect registers cb and returns an id for Disconnect.
func (s *Store) Connect(cb Callback) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.subs[s.nextID] = cb
	return s.nextID
}

// Disconnect removes a callback registered with Connect.
func (s *Store) Disconnect(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

// Set stores raw in the config file and notifies subscribers.
func (s *Store) Set(raw string) error {
	if _, err := config.SetAliases(s.path, raw); err != nil {
		return fmt.Errorf("store aliases: %w", err)
	}
	return s.Notify()
}

// Notify reloads the config and hands the alias string to every subscriber.
// A config that fails to load leaves subscribers untouched.
func (s *Store) Notify() error {
	raw, err := s.Current()
	if err != nil {
		return err
	}
	s.mu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	cbs := make([]Callback, 0, len(ids))
	for _, id := range ids {
		cbs = append(cbs, s.subs[id])
	}
	s.mu.Unlock()
	for _, cb := range cbs {
		cb(raw)
	}
	return nil
}

// Watch notifies subscribers whenever the config file is written, until ctx
// is done or Close is called. Events inside the debounce window collapse into
// one notification.
func (s *Store) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	// Editors and config.Save replace the file, so watch the directory.
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = w.Close()
		return nil
	}
	s.watcher = w
	s.mu.Unlock()
	s.logger.Infof("watching %s for alias changes", s.path)

	for {
		select {
		case <-ctx.Done():
			_ = s.Close()
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != s.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			s.schedule()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warnf("config watcher: %v", err)
		}
	}
}

func (s *Store) schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		if err := s.Notify(); err != nil {
			s.logger.Warnf("reload aliases: %v", err)
			return
		}
		s.logger.Debug("alias preference reloaded from disk")
	})
}

// Close stops watching. Pending notifications are dropped.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
