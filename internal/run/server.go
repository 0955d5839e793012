package run

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"aka/internal/config"
	"aka/internal/control"
	"aka/internal/filter"
	"aka/internal/hook"
	"aka/internal/prefs"
	"aka/internal/source"

	"github.com/sirupsen/logrus"
)

// Server annotates the message feed and serves hook dispatch, metrics and
// control endpoints.
type Server struct {
	cfg       *config.Config
	logger    *logrus.Logger
	filter    *filter.Filter
	prefs     *prefs.Store
	hook      *hook.Runner
	startedAt time.Time

	flaggedMu sync.Mutex
	flagged   []control.Flagged

	outMu sync.Mutex
	out   *json.Encoder

	metrics *metrics
	hookCh  chan hook.Job

	wg sync.WaitGroup
}

// New builds a server whose alias list starts from the stored preference and
// follows every change the store reports. Annotated messages go to out.
func New(cfg *config.Config, logger *logrus.Logger, store *prefs.Store, out io.Writer) *Server {
	s := &Server{
		cfg:       cfg,
		logger:    logger,
		prefs:     store,
		hook:      hook.NewRunner(&cfg.Hook, logger),
		startedAt: time.Now(),
		flagged:   make([]control.Flagged, 0, cfg.UI.StatusTail),
		out:       json.NewEncoder(out),
		metrics:   newMetrics(),
		hookCh:    make(chan hook.Job, max(1, cfg.Hook.QueueSize)),
	}
	s.filter = filter.New(cfg.Aliases.Raw, logger)
	s.metrics.setAliases(s.filter.Aliases().Len())
	store.Connect(s.onConfigurationChanged)
	return s
}

func (s *Server) onConfigurationChanged(raw string) {
	l := s.filter.OnConfigurationChanged(raw)
	s.metrics.incReload()
	s.metrics.setAliases(l.Len())
}

// Serve runs the daemon until interrupted or the message source ends.
func Serve(cfg *config.Config, logger *logrus.Logger) error {
	if err := config.MustStatePaths(cfg); err != nil {
		return err
	}
	format, err := source.ParseFormat(cfg.Source.Format)
	if err != nil {
		return err
	}
	// Write pid file.
	if err := os.WriteFile(cfg.Paths.PidPath, []byte(fmt.Sprintf("%d", os.Getpid())), 0o644); err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(cfg.Paths.PidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warnf("remove pid file: %v", err)
		}
	}()
	// Ensure socket removed
	if err := os.Remove(cfg.Paths.SocketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Debugf("remove stale socket: %v", err)
	}

	out, closeOut, err := openOutput(cfg.Annotate.Output)
	if err != nil {
		return err
	}
	defer closeOut()

	store := prefs.NewStore(cfg.Paths.ConfigPath, cfg.DebounceInterval(), logger)
	defer store.Close()
	srv := New(cfg, logger, store, out)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Control socket
	go srv.controlLoop(ctx)

	// Hook worker
	srv.wg.Add(1)
	go srv.hookWorker(ctx)

	// Metrics server
	if cfg.Metrics.Enabled {
		go srv.metricsServe(ctx.Done(), cfg.Metrics.Addr, logger)
	}

	// Preference watcher
	if cfg.Watch.Enabled && cfg.Paths.ConfigPath != "" {
		go func() {
			if err := store.Watch(ctx); err != nil {
				logger.Warnf("alias watch disabled: %v", err)
			}
		}()
	}

	// Message loop
	reader, closeSrc, err := source.Open(cfg.Source.Path, format, logger)
	if err != nil {
		return err
	}
	defer closeSrc.Close()
	feedDone := make(chan struct{})
	go func() {
		defer close(feedDone)
		srv.messageLoop(ctx, reader)
	}()

	// Handle signals
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)
	select {
	case sig := <-sigCh:
		logger.Infof("received signal %s, shutting down", sig)
	case <-feedDone:
		logger.Info("message source closed, shutting down")
	}
	cancel()
	// Wait for hook worker to drain
	srv.wg.Wait()
	return nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open annotate output: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func (s *Server) messageLoop(ctx context.Context, reader *source.Reader) {
	msgCh := make(chan source.Message, 8)
	errCh := make(chan error, 1)
	go func() {
		errCh <- reader.Run(ctx, msgCh)
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-msgCh:
			s.HandleMessage(ctx, msg)
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Errorf("message source: %v", err)
			}
			// Drain anything decoded before the reader stopped.
			for {
				select {
				case msg := <-msgCh:
					s.HandleMessage(ctx, msg)
				default:
					return
				}
			}
		}
	}
}

// HandleMessage checks msg against the alias list, sets FlagNick on a match
// and passes the message on. Messages are never dropped, matched or not.
// Once ctx is done the hook worker is gone, so no hook job is queued.
func (s *Server) HandleMessage(ctx context.Context, msg source.Message) source.Message {
	s.metrics.incHeard()
	a, ok := s.filter.Check(msg.Text)
	if ok {
		msg.Flags |= source.FlagNick
		s.metrics.incFlagged()
		s.logger.WithFields(logrus.Fields{
			"alias":        string(a),
			"sender":       msg.Sender,
			"conversation": msg.Conversation,
		}).Info("message mentions alias")
		s.recordFlagged(msg, string(a))
		if ctx.Err() != nil {
			s.metrics.incSkipped()
			s.logger.Debug("hook skipped (shutting down)")
		} else {
			s.dispatch(msg, string(a))
		}
	}
	s.emit(msg)
	return msg
}

func (s *Server) emit(msg source.Message) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	if err := s.out.Encode(msg); err != nil {
		s.logger.Warnf("write annotated message: %v", err)
	}
}

func (s *Server) dispatch(msg source.Message, a string) {
	if !s.hook.Enabled() {
		return
	}
	if !s.hook.ShouldRun() {
		s.logger.Debug("hook skipped (cooldown)")
		s.metrics.incSkipped()
		return
	}
	job := hook.Job{
		Text:         msg.Text,
		Sender:       msg.Sender,
		Conversation: msg.Conversation,
		Alias:        a,
		Timestamp:    msg.Timestamp,
	}
	select {
	case s.hookCh <- job:
	default:
		s.metrics.incDropped()
		s.logger.Warn("hook queue full, dropping job")
	}
}

func (s *Server) recordFlagged(msg source.Message, a string) {
	entry := control.Flagged{
		Sender:       msg.Sender,
		Conversation: msg.Conversation,
		Text:         msg.Text,
		Alias:        a,
		Timestamp:    msg.Timestamp,
	}
	s.flaggedMu.Lock()
	defer s.flaggedMu.Unlock()
	s.flagged = append(s.flagged, entry)
	if len(s.flagged) > s.cfg.UI.StatusTail {
		s.flagged = s.flagged[len(s.flagged)-s.cfg.UI.StatusTail:]
	}
	if s.cfg.Paths.FlaggedPath == "" {
		return
	}
	// append to file
	f, err := os.OpenFile(s.cfg.Paths.FlaggedPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err == nil {
		if _, err := fmt.Fprintf(f, "%s\t%s\t%s\t%s\n", entry.Timestamp.Format(time.RFC3339), entry.Conversation, entry.Sender, entry.Text); err != nil {
			s.logger.Warnf("write flagged log: %v", err)
		}
		_ = f.Close()
	}
}

func (s *Server) controlLoop(ctx context.Context) {
	ln, err := net.Listen("unix", s.cfg.Paths.SocketPath)
	if err != nil {
		s.logger.Errorf("control listen: %v", err)
		return
	}
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Errorf("control accept: %v", err)
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer func() {
		if err := conn.Close(); err != nil && ctx.Err() == nil {
			s.logger.Warnf("control connection close: %v", err)
		}
	}()
	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		_ = json.NewEncoder(conn).Encode(control.SimpleResponse{OK: false, Message: fmt.Sprintf("read request: %v", err)})
		return
	}
	if len(bytes.TrimSpace(line)) == 0 {
		return
	}
	var req control.Request
	if err := json.Unmarshal(line, &req); err != nil {
		_ = json.NewEncoder(conn).Encode(control.SimpleResponse{OK: false, Message: "bad request"})
		return
	}
	_ = json.NewEncoder(conn).Encode(s.respond(req))
}

func (s *Server) respond(req control.Request) any {
	switch strings.ToLower(req.Op) {
	case "status":
		return s.status()
	case "health":
		return control.SimpleResponse{OK: true, Message: "ok"}
	case "reload":
		if err := s.prefs.Notify(); err != nil {
			return control.SimpleResponse{OK: false, Message: err.Error()}
		}
		return control.SimpleResponse{OK: true, Message: fmt.Sprintf("%d aliases", s.filter.Aliases().Len())}
	case "aliases":
		return control.AliasesResponse{Aliases: s.filter.Aliases().Strings()}
	case "check":
		a, ok := s.filter.Check(req.Text)
		return control.CheckResponse{Match: ok, Alias: string(a)}
	default:
		return control.SimpleResponse{OK: false, Message: fmt.Sprintf("unknown op %q", req.Op)}
	}
}

func (s *Server) status() control.Status {
	return control.Status{
		Running:    true,
		UptimeSec:  time.Since(s.startedAt).Seconds(),
		Aliases:    s.filter.Aliases().Strings(),
		Configured: s.filter.Configured(),
		Messages:   counterValue(s.metrics.messages),
		FlaggedN:   counterValue(s.metrics.flagged),
		Flagged:    s.copyFlagged(),
	}
}

func (s *Server) copyFlagged() []control.Flagged {
	s.flaggedMu.Lock()
	defer s.flaggedMu.Unlock()
	out := make([]control.Flagged, len(s.flagged))
	copy(out, s.flagged)
	return out
}
