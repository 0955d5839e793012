package control

import (
	"encoding/json"

	"aka/internal/config"

	"github.com/spf13/cobra"
)

// Info identifies the filter the way a chat client plugin list would.
type Info struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	PrefKey     string `json:"pref_key"`
	Default     string `json:"default_aliases"`
}

// NewInfo fills Info for the given version.
func NewInfo(version string) Info {
	const id = "core-aka"
	return Info{
		ID:      id,
		Name:    "AKA",
		Version: version,
		Summary: "Recognize aliases said in chats as also being you.",
		Description: "Listens for chat messages and, when a message contains any of the " +
			"configured aliases, marks the message as being said to you.",
		PrefKey: "/plugins/core/" + id + "/aliases",
		Default: config.DefaultAliases,
	}
}

// NewAboutCmd prints filter identity.
func NewAboutCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "about",
		Short: "Show filter id, version and description",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := NewInfo(version)
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(info)
			}
			cmd.Printf("%s v%s (%s)\n%s\n%s\npreference: %s\ndefault:    %q\n",
				info.Name, info.Version, info.ID, info.Summary, info.Description, info.PrefKey, info.Default)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "output JSON")
	return cmd
}
