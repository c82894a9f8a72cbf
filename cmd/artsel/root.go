package main

import (
	"github.com/Sternrassler/artsel/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootOptions is shared by every subcommand.
type rootOptions struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "artsel",
		Short: "Browse the artwork collection and select records across pages",
		Long: `artsel browses a server-paginated artwork collection and keeps a selection
that survives pagination. Records can be selected one by one or in bulk: the
first N records from the current page onwards, fetched page by page.

Configuration is read from --config, ./artsel.yaml or
~/.config/artsel/config.yaml, and ARTSEL_* environment variables
(e.g. ARTSEL_SELECTION_BACKEND=redis). A .env file is loaded first.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ./artsel.yaml or ~/.config/artsel/config.yaml)")

	cmd.AddCommand(newBrowseCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newSelectCmd(opts))

	return cmd
}
