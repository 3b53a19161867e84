package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"hsound.dev/internal/audio"
)

func (c *CLI) newFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported audio formats and backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()

			fmt.Fprintln(w, "Formats:")
			for _, name := range audio.NewDefaultRegistry().GetSupportedFormats() {
				fmt.Fprintf(w, "  %s\n", name)
			}

			fmt.Fprintln(w, "Backends:")
			for _, name := range c.configManager.GetSupportedAudioBackends() {
				marker := ""
				if name == c.cfg.Backend {
					marker = " (configured)"
				}
				fmt.Fprintf(w, "  %s%s\n", name, marker)
			}
			return nil
		},
	}
}
