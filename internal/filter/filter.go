// Package filter owns the active alias list and answers whether an incoming
// chat message is directed at the user.
//
// A Filter is built once at startup and shared by the configuration watcher
// (the only writer) and the message loop (any number of readers). Every
// configuration change publishes a freshly parsed list; readers always see
// either the old list or the new one, never a mix.
package filter

import (
	"sync/atomic"

	"aka/internal/alias"

	"github.com/sirupsen/logrus"
)

// Filter holds the current alias list.
type Filter struct {
	logger  *logrus.Logger
	aliases atomic.Pointer[alias.List]
	fromCfg atomic.Bool
}

// New parses raw (the stored preference, or the default) into the initial list.
func New(raw string, logger *logrus.Logger) *Filter {
	f := &Filter{logger: logger}
	f.install(raw)
	return f
}

// OnConfigurationChanged replaces the alias list with one parsed from raw.
// Each call fully determines the new list; nothing carries over.
func (f *Filter) OnConfigurationChanged(raw string) alias.List {
	l := f.install(raw)
	f.fromCfg.Store(true)
	return l
}

// OnMessageReceived reports whether text mentions any alias. The caller sets
// any annotation; the message itself is never suppressed.
func (f *Filter) OnMessageReceived(text string) bool {
	_, ok := f.Check(text)
	return ok
}

// Check is OnMessageReceived that also returns the alias that matched.
func (f *Filter) Check(text string) (alias.Alias, bool) {
	l := f.Aliases()
	f.logger.Debugf("checking message %q against %d aliases", text, l.Len())
	a, ok := l.Match(text)
	if ok {
		f.logger.WithField("alias", string(a)).Debug("alias matched")
	}
	return a, ok
}

// Aliases returns the current list.
func (f *Filter) Aliases() alias.List {
	if l := f.aliases.Load(); l != nil {
		return *l
	}
	return alias.List{}
}

// Configured reports whether the list came from a change notification
// rather than the startup value.
func (f *Filter) Configured() bool {
	return f.fromCfg.Load()
}

func (f *Filter) install(raw string) alias.List {
	l := alias.Parse(raw)
	for _, a := range l.Strings() {
		f.logger.Debugf("found %d byte alias %q", len(a), a)
	}
	f.aliases.Store(&l)
	f.logger.Infof("alias list rebuilt: %d aliases", l.Len())
	return l
}
