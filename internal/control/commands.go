package control

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"aka/internal/alias"
	"aka/internal/config"
	"aka/internal/doctor"
	"aka/internal/hook"
	"aka/internal/logging"

	"github.com/spf13/cobra"
)

// NewTailLogCmd tails the main log file (simple last N lines).
func NewTailLogCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tail-log",
		Short: "Show last log lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			n, _ := cmd.Flags().GetInt("lines")
			path := cfg.Paths.LogPath
			if flagged, _ := cmd.Flags().GetBool("flagged"); flagged {
				path = cfg.Paths.FlaggedPath
			}
			return tailFile(cmd.OutOrStdout(), path, n)
		},
	}
	cmd.Flags().IntP("lines", "n", 50, "number of lines")
	cmd.Flags().Bool("flagged", false, "show the flagged-message log instead")
	return cmd
}

func tailFile(w io.Writer, path string, n int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	lines := strings.Split(string(data), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			fmt.Fprintln(w, l)
		}
	}
	return nil
}

// NewCheckCmd tests a message against the alias list. It asks the running
// daemon when one answers and falls back to the config file otherwise.
func NewCheckCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check \"message text\"",
		Short: "Report whether a message mentions one of your aliases",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			resp, where := checkLocal(cfg, args[0]), "config"
			if useDaemon, _ := cmd.Flags().GetBool("daemon"); useDaemon {
				var remote CheckResponse
				if err := call(cfg, Request{Op: "check", Text: args[0]}, &remote); err != nil {
					return err
				}
				resp, where = remote, "daemon"
			}
			if !resp.Match {
				cmd.Printf("no match (%s)\n", where)
				return nil
			}
			cmd.Printf("match: %q (%s)\n", resp.Alias, where)
			return nil
		},
	}
	cmd.Flags().Bool("daemon", false, "ask the running daemon instead of reading the config")
	return cmd
}

func checkLocal(cfg *config.Config, text string) CheckResponse {
	a, ok := alias.Parse(cfg.Aliases.Raw).Match(text)
	return CheckResponse{Match: ok, Alias: string(a)}
}

// NewTestHookCmd triggers hook manually.
func NewTestHookCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test-hook \"some text\"",
		Short: "Send sample text through hook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			logger, err := logging.Configure(cfg)
			if err != nil {
				return err
			}
			sender, _ := cmd.Flags().GetString("sender")
			conv, _ := cmd.Flags().GetString("conversation")
			r := hook.NewRunner(&cfg.Hook, logger)
			job := hook.Job{Text: args[0], Sender: sender, Conversation: conv, Timestamp: time.Now()}
			if a, ok := alias.Parse(cfg.Aliases.Raw).Match(args[0]); ok {
				job.Alias = string(a)
			}
			return r.Run(cmd.Context(), job)
		},
	}
	cmd.Flags().String("sender", "test", "sender name passed to the hook")
	cmd.Flags().String("conversation", "test", "conversation name passed to the hook")
	return cmd
}

// NewDoctorCmd runs environment checks.
func NewDoctorCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check config, aliases and hook",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			results := doctor.Run(cfg)
			exitCode := 0
			for _, r := range results {
				status := "ok"
				switch {
				case !r.Pass:
					status = "fail"
					exitCode = 1
				case r.Warn:
					status = "warn"
				}
				cmd.Printf("%-14s %-4s %s\n", r.Name, status, r.Detail)
			}
			if exitCode != 0 {
				return fmt.Errorf("doctor found issues")
			}
			return nil
		},
	}
}
