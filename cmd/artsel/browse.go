package main

import (
	"github.com/Sternrassler/artsel/internal/tui"
	"github.com/spf13/cobra"
)

func newBrowseCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the collection in the terminal",
		Long: `Opens a terminal table of the collection, one page at a time.

Toggle rows with space, the whole page with a, and press s to select the
first N records from the current page onwards. Logs go to logging.file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg

			logger, closeLog, err := setupLogging(cfg.Logging, cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			defer closeLog()

			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			return tui.Run(cmd.Context(), a.ctrl)
		},
	}
}
