package control

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"aka/internal/config"

	"github.com/spf13/cobra"
)

// call sends req to the daemon and decodes one JSON reply into resp.
func call(cfg *config.Config, req Request, resp any) error {
	conn, err := net.DialTimeout("unix", cfg.Paths.SocketPath, 2*time.Second)
	if err != nil {
		return fmt.Errorf("cannot connect to daemon: %w", err)
	}
	defer conn.Close()
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return err
	}
	return json.NewDecoder(conn).Decode(resp)
}

// NewStatusCmd queries daemon status.
func NewStatusCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			var status Status
			if err := call(cfg, Request{Op: "status"}, &status); err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(status)
			}
			source := "default"
			if status.Configured {
				source = "config change"
			}
			cmd.Printf("running: %v\nuptime: %.1fs\n", status.Running, status.UptimeSec)
			cmd.Printf("aliases (%s): %q\n", source, status.Aliases)
			cmd.Printf("messages: %d  flagged: %d\n", status.Messages, status.FlaggedN)
			for _, f := range status.Flagged {
				cmd.Printf("%s  %s <%s> %s\n", f.Timestamp.Format("15:04:05"), f.Conversation, f.Sender, f.Text)
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "output JSON")
	return cmd
}

// NewHealthCmd pings the control socket.
func NewHealthCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Ping the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			var resp SimpleResponse
			if err := call(cfg, Request{Op: "health"}, &resp); err != nil {
				return err
			}
			if !resp.OK {
				return fmt.Errorf("unhealthy: %s", resp.Message)
			}
			cmd.Println(resp.Message)
			return nil
		},
	}
}
