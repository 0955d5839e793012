package hook

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	"aka/internal/config"

	"github.com/google/shlex"
	"github.com/sirupsen/logrus"
)

// Job represents a hook invocation request for one flagged message.
type Job struct {
	Text         string
	Sender       string
	Conversation string
	Alias        string
	Timestamp    time.Time
}

// Runner executes the hook with cooldown and prefix handling.
type Runner struct {
	cfg      *config.HookConfig
	logger   *logrus.Logger
	lastRun  time.Time
	mu       sync.Mutex
	hostname string
}

func NewRunner(cfg *config.HookConfig, logger *logrus.Logger) *Runner {
	host, _ := os.Hostname()
	return &Runner{
		cfg:      cfg,
		logger:   logger,
		hostname: host,
	}
}

// Enabled reports whether a hook command is configured.
func (r *Runner) Enabled() bool {
	return strings.TrimSpace(r.cfg.Command) != ""
}

// ShouldRun returns whether cooldown allows a new hook.
func (r *Runner) ShouldRun() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cfg.CooldownSec <= 0 {
		return true
	}
	return time.Since(r.lastRun).Seconds() >= r.cfg.CooldownSec
}

// Run executes the configured command with the message payload as the last argument.
func (r *Runner) Run(ctx context.Context, job Job) error {
	r.mu.Lock()
	r.lastRun = time.Now()
	r.mu.Unlock()

	cmdStr := r.cfg.Command
	if cmdStr == "" {
		return fmt.Errorf("no hook.command configured")
	}
	args, err := r.args()
	if err != nil {
		return err
	}

	text := job.Text
	if r.cfg.RedactPII {
		text = redactPII(text)
	}
	prefix := r.expand(r.cfg.Prefix, job)
	payload := strings.TrimSpace(prefix + text)
	args = append(args, payload)

	runCtx := ctx
	var cancel context.CancelFunc
	if r.cfg.TimeoutSec > 0 {
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(float64(time.Second)*r.cfg.TimeoutSec))
		defer cancel()
	}
	cmd := exec.CommandContext(runCtx, cmdStr, args...)
	cmd.Env = os.Environ()
	for k, v := range r.cfg.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}
	cmd.Env = append(cmd.Env,
		fmt.Sprintf("AKA_TEXT=%s", text),
		fmt.Sprintf("AKA_SENDER=%s", job.Sender),
		fmt.Sprintf("AKA_CONVERSATION=%s", job.Conversation),
		fmt.Sprintf("AKA_ALIAS=%s", job.Alias),
		fmt.Sprintf("AKA_PREFIX=%s", prefix),
	)

	out, err := cmd.CombinedOutput()
	if len(out) > 0 {
		r.logger.Infof("hook output: %s", strings.TrimSpace(string(out)))
	}
	if err != nil {
		return fmt.Errorf("hook failed: %w", err)
	}
	return nil
}

func (r *Runner) args() ([]string, error) {
	args := append([]string{}, r.cfg.Args...)
	extra, err := ParseArgs(r.cfg.ArgsLine)
	if err != nil {
		return nil, fmt.Errorf("parse hook.args_line: %w", err)
	}
	return append(args, extra...), nil
}

func (r *Runner) expand(s string, job Job) string {
	return strings.NewReplacer(
		"${hostname}", r.hostname,
		"${sender}", job.Sender,
		"${conversation}", job.Conversation,
		"${alias}", job.Alias,
	).Replace(s)
}

// ParseArgs allows hook args to be configured as a single string.
func ParseArgs(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return []string{}, nil
	}
	return shlex.Split(raw)
}

var (
	emailRE = regexp.MustCompile(`[\w.+-]+@[\w.-]+\.[A-Za-z]{2,}`)
	phoneRE = regexp.MustCompile(`\+?\d[\d\s\-\(\)]{6,}\d`)
)

func redactPII(s string) string {
	s = emailRE.ReplaceAllString(s, "[redacted-email]")
	s = phoneRE.ReplaceAllString(s, "[redacted-phone]")
	return s
}
