package control

import (
	"fmt"
	"os"
	"strings"

	"aka/internal/config"
	"aka/internal/service"

	"github.com/spf13/cobra"
)

// NewServiceRootCmd groups the launchd helpers.
func NewServiceRootCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage launchd service (macOS)",
	}
	cmd.AddCommand(newServiceInstallCmd(cfgPath))
	cmd.AddCommand(newServiceUninstallCmd())
	cmd.AddCommand(newServiceStatusCmd())
	return cmd
}

func newServiceInstallCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install user launchd service (macOS)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			exe, err := os.Executable()
			if err != nil {
				return err
			}
			envPairs, _ := cmd.Flags().GetStringArray("env")
			env, err := parseEnvPairs(envPairs)
			if err != nil {
				return err
			}
			params := service.LaunchdParams{
				Label:  service.DefaultLabel,
				Binary: exe,
				Config: cfg.Paths.ConfigPath,
				Log:    cfg.Paths.LogPath,
				Env:    env,
			}
			path, err := service.WritePlist(params)
			if err != nil {
				return err
			}
			cmd.Printf("launchd plist written: %s\n", path)
			cmd.Println("Load:   launchctl load -w", path)
			cmd.Printf("Start:  launchctl kickstart gui/$(id -u)/%s\n", params.Label)
			cmd.Printf("Stop:   launchctl bootout gui/$(id -u)/%s\n", params.Label)
			return nil
		},
	}
	cmd.Flags().StringArray("env", nil, "Env to set in launchd plist (KEY=VAL)")
	return cmd
}

func parseEnvPairs(pairs []string) (map[string]string, error) {
	env := make(map[string]string, len(pairs))
	for _, p := range pairs {
		parts := strings.SplitN(p, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("bad env %q, want KEY=VAL", p)
		}
		env[parts[0]] = parts[1]
	}
	return env, nil
}

func newServiceUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Remove user launchd plist (macOS)",
		RunE: func(cmd *cobra.Command, args []string) error {
			plist := service.LaunchdPath(service.DefaultLabel)
			_ = os.Remove(plist)
			cmd.Printf("removed %s (if present); unload manually with: launchctl bootout gui/$(id -u) %s\n", plist, plist)
			return nil
		},
	}
}

func newServiceStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show launchd plist path and whether it exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, ok := service.Status(service.DefaultLabel)
			cmd.Printf("plist: %s\n", path)
			if ok {
				cmd.Println("status: present (load with: launchctl load -w", path, ")")
			} else {
				cmd.Println("status: missing (install via: aka service install)")
			}
			return nil
		},
	}
}
