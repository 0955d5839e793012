package daemon

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"aka/internal/alias"
	"aka/internal/config"
	"aka/internal/logging"
	"aka/internal/run"
	"aka/internal/source"

	"github.com/spf13/cobra"
)

// runFlags are the per-run overrides shared by start and serve. They reach
// the daemon as AKA_* env vars so a background child sees the same values.
type runFlags struct {
	noWatch     bool
	metricsAddr string
	source      string
}

func addRunFlags(cmd *cobra.Command) *runFlags {
	f := &runFlags{}
	cmd.Flags().BoolVar(&f.noWatch, "no-watch", false, "do not watch the config file for alias changes this run")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", "", "enable metrics at address (e.g., 127.0.0.1:9318) for this run")
	cmd.Flags().StringVar(&f.source, "source", "", "read messages from this file or FIFO instead of source.path")
	return f
}

func (f *runFlags) env() []string {
	var env []string
	if f.noWatch {
		env = append(env, "AKA_WATCH_ENABLED=0")
	}
	if f.metricsAddr != "" {
		env = append(env, "AKA_METRICS_ADDR="+f.metricsAddr)
	}
	if f.source != "" {
		env = append(env, "AKA_SOURCE="+f.source)
	}
	return env
}

// NewStartCmd starts the daemon in the background.
func NewStartCmd(cfgPath *string) *cobra.Command {
	var flags *runFlags
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the aka daemon in the background",
		Long: `Start forks "aka serve" into the background. The child has no stdin, so
source.path (or --source) must name a file or FIFO carrying the message feed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if flags.source != "" {
				cfg.Source.Path = flags.source
			}
			if err := checkBackgroundSource(cfg); err != nil {
				return err
			}
			if err := ensureNotRunning(cfg); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(cfg.Paths.PidPath), 0o755); err != nil {
				return err
			}
			self, err := os.Executable()
			if err != nil {
				return err
			}
			child := exec.Command(self, "serve", "--config", cfg.Paths.ConfigPath)
			child.Env = append(os.Environ(), flags.env()...)
			child.Stdout = os.Stdout
			child.Stderr = os.Stderr
			if err := child.Start(); err != nil {
				return err
			}
			pid, err := waitForPID(cfg.Paths.PidPath, 2*time.Second)
			if err != nil {
				return fmt.Errorf("start: %w (child pid %d)", err, child.Process.Pid)
			}
			n := alias.Parse(cfg.Aliases.Raw).Len()
			cmd.Printf("aka started (pid %d, %d aliases, source %s)\n", pid, n, cfg.Source.Path)
			return nil
		},
	}
	flags = addRunFlags(cmd)
	return cmd
}

// checkBackgroundSource rejects feeds a detached child cannot read.
func checkBackgroundSource(cfg *config.Config) error {
	if _, err := source.ParseFormat(cfg.Source.Format); err != nil {
		return err
	}
	path := cfg.Source.Path
	if path == "" || path == "-" {
		return errors.New(`source.path is stdin, which a background daemon does not have; set source.path, pass --source, or pipe into "aka serve"`)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("source %s: %w", path, err)
	}
	return nil
}

// NewServeCmd runs the daemon in the foreground.
func NewServeCmd(cfgPath *string) *cobra.Command {
	var flags *runFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the filter in the foreground (reads stdin unless source.path is set)",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, kv := range flags.env() {
				k, v, _ := strings.Cut(kv, "=")
				if err := os.Setenv(k, v); err != nil {
					return fmt.Errorf("set %s: %w", k, err)
				}
			}
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			logger, err := logging.Configure(cfg)
			if err != nil {
				return err
			}
			return run.Serve(cfg, logger)
		},
	}
	flags = addRunFlags(cmd)
	return cmd
}

// NewStopCmd stops the daemon.
func NewStopCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the aka daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			pid, err := stop(cfg)
			if err != nil {
				return err
			}
			if wait, _ := cmd.Flags().GetBool("wait"); wait {
				if err := waitForShutdown(cfg.Paths.PidPath, 5*time.Second); err != nil {
					return err
				}
				cmd.Printf("aka stopped (pid %d)\n", pid)
				return nil
			}
			cmd.Printf("stop signal sent to pid %d\n", pid)
			return nil
		},
	}
	cmd.Flags().Bool("wait", false, "wait until the daemon has exited")
	return cmd
}

// NewRestartCmd stops the daemon if it runs, then starts it again with the
// same run flags start accepts.
func NewRestartCmd(cfgPath *string) *cobra.Command {
	start := NewStartCmd(cfgPath)
	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the aka daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if _, err := stop(cfg); err == nil {
				if err := waitForShutdown(cfg.Paths.PidPath, 5*time.Second); err != nil {
					return fmt.Errorf("restart: %w", err)
				}
			}
			start.SetOut(cmd.OutOrStdout())
			return start.RunE(start, args)
		},
	}
	cmd.Flags().AddFlagSet(start.Flags())
	return cmd
}

func stop(cfg *config.Config) (int, error) {
	pid, err := readPID(cfg.Paths.PidPath)
	if err != nil {
		return 0, fmt.Errorf("aka is not running: %w", err)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, err
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return 0, fmt.Errorf("signal pid %d: %w", pid, err)
	}
	return pid, nil
}

func ensureNotRunning(cfg *config.Config) error {
	pid, err := readPID(cfg.Paths.PidPath)
	if err != nil {
		return nil
	}
	if alive(pid) {
		return fmt.Errorf("already running with pid %d", pid)
	}
	return nil
}

func alive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("bad pid file %s: %w", path, err)
	}
	return pid, nil
}

// waitForPID polls until serve has written its pid file.
func waitForPID(path string, timeout time.Duration) (int, error) {
	deadline := time.Now().Add(timeout)
	for {
		if pid, err := readPID(path); err == nil {
			return pid, nil
		}
		if time.Now().After(deadline) {
			return 0, fmt.Errorf("no pid file at %s after %s", path, timeout)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// waitForShutdown returns once the pid file is gone or names a dead process.
func waitForShutdown(pidPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		pid, err := readPID(pidPath)
		if err != nil {
			return nil
		}
		if !alive(pid) {
			_ = os.Remove(pidPath)
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("daemon did not stop within %s", timeout)
}
