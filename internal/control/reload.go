package control

import (
	"fmt"

	"aka/internal/config"

	"github.com/spf13/cobra"
)

// NewReloadCmd asks the daemon to re-read the alias preference.
func NewReloadCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Reload aliases in the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			var resp SimpleResponse
			if err := call(cfg, Request{Op: "reload"}, &resp); err != nil {
				return err
			}
			if !resp.OK {
				return fmt.Errorf("reload failed: %s", resp.Message)
			}
			cmd.Println("reload ok:", resp.Message)
			return nil
		},
	}
}
