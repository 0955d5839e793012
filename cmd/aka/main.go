package main

import (
	"fmt"
	"os"

	"aka/internal/control"
	"aka/internal/daemon"

	"github.com/spf13/cobra"
)

const version = "0.2.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	root := &cobra.Command{
		Use:   "aka",
		Short: "aka — flag chat messages that mention any of your aliases",
		Long: `aka reads chat messages (one JSON object or plain line per message), checks each
against your semicolon-separated alias list case-insensitively, and marks the ones
that mention you with the "nick" flag. Every message is passed on; nothing is dropped.
A hook command can be run for each flagged message.

Key commands:
  start|stop|restart        Daemon lifecycle
  status [--json]           Uptime, aliases, last flagged messages
  aliases list|set          Show or change your aliases
  check "text"              Test a message against the alias list
  reload                    Re-read aliases in the running daemon
  doctor                    Check config, aliases, source and hook
  service install|uninstall|status   launchd helper (macOS)
  health|tail-log|test-hook Liveness, log tail, manual hook

Env overrides: AKA_ALIASES, AKA_WATCH_ENABLED, AKA_METRICS_ADDR,
               AKA_LOG_LEVEL/FORMAT, AKA_REDACT_PII, AKA_SOURCE`,
		Example: `  aka aliases set "Johnson; JME; darkfox"
  aka check "hey darkfox, got a minute?"
  tail -f chat.jsonl | aka serve
  aka start --metrics-addr 127.0.0.1:9318
  aka status
  aka test-hook "jme: build is green"`,
		DisableFlagsInUseLine: true,
	}

	root.Version = version
	root.SetVersionTemplate("aka v{{.Version}}\n")

	cfgPath := root.PersistentFlags().StringP("config", "c", "", "Path to config file (TOML). Defaults to ~/.config/aka/config.toml")
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(daemon.NewStartCmd(cfgPath))
	root.AddCommand(daemon.NewStopCmd(cfgPath))
	root.AddCommand(daemon.NewRestartCmd(cfgPath))
	root.AddCommand(control.NewStatusCmd(cfgPath))
	root.AddCommand(control.NewHealthCmd(cfgPath))
	root.AddCommand(control.NewReloadCmd(cfgPath))
	root.AddCommand(control.NewAliasesCmd(cfgPath))
	root.AddCommand(control.NewCheckCmd(cfgPath))
	root.AddCommand(control.NewTailLogCmd(cfgPath))
	root.AddCommand(control.NewTestHookCmd(cfgPath))
	root.AddCommand(control.NewDoctorCmd(cfgPath))
	root.AddCommand(control.NewServiceRootCmd(cfgPath))
	root.AddCommand(control.NewAboutCmd(version))

	// Foreground serve; start uses it for the background child.
	root.AddCommand(daemon.NewServeCmd(cfgPath))

	if err := root.Execute(); err != nil {
		return err
	}
	return nil
}
