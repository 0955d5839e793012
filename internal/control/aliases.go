package control

import (
	"strings"

	"aka/internal/alias"
	"aka/internal/config"

	"github.com/spf13/cobra"
)

// NewAliasesCmd groups alias subcommands.
func NewAliasesCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "aliases",
		Aliases: []string{"alias", "aka"},
		Short:   "Show or change the names you answer to",
	}
	cmd.AddCommand(newAliasesListCmd(cfgPath))
	cmd.AddCommand(newAliasesSetCmd(cfgPath))
	return cmd
}

func newAliasesListCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List parsed aliases",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			names := alias.Parse(cfg.Aliases.Raw).Strings()
			if useDaemon, _ := cmd.Flags().GetBool("daemon"); useDaemon {
				var resp AliasesResponse
				if err := call(cfg, Request{Op: "aliases"}, &resp); err != nil {
					return err
				}
				names = resp.Aliases
			}
			if len(names) == 0 {
				cmd.Println("no aliases configured")
				return nil
			}
			for _, n := range names {
				cmd.Println(n)
			}
			return nil
		},
	}
	cmd.Flags().Bool("daemon", false, "show the list the running daemon is using")
	return cmd
}

func newAliasesSetCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set \"name; nickname; ...\"",
		Short: "Store a semicolon-separated alias list",
		Long: `Enter your aliases separated by semicolons (;).
Any chat message that contains one of the words or phrases
will be treated as if it was addressed to your username.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := strings.Join(args, " ")
			cfg, err := config.SetAliases(*cfgPath, raw)
			if err != nil {
				return err
			}
			l := alias.Parse(raw)
			cmd.Printf("stored %d aliases in %s\n", l.Len(), cfg.Paths.ConfigPath)
			if reload, _ := cmd.Flags().GetBool("reload"); reload {
				var resp SimpleResponse
				if err := call(cfg, Request{Op: "reload"}, &resp); err != nil {
					cmd.Printf("daemon not reloaded: %v\n", err)
					return nil
				}
				cmd.Println("daemon reloaded:", resp.Message)
			}
			return nil
		},
	}
	cmd.Flags().Bool("reload", false, "ask a running daemon to reload right away")
	return cmd
}
