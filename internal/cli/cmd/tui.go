package cmd

import (
	"github.com/spf13/cobra"
)

func newTuiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tui <url>",
		Short:         "Force the progress TUI for one download",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// if stdout is not a terminal, ui.Run will error appropriately
			return runDownload(cmd, args, true)
		},
	}
	bindDownloadFlags(cmd.Flags())
	// In TUI mode, '--no-ui' and '--dry-run' make no sense.
	for _, name := range []string{"no-ui", "dry-run"} {
		if f := cmd.Flags().Lookup(name); f != nil {
			f.Hidden = true
		}
	}
	return cmd
}
