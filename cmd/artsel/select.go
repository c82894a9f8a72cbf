package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Sternrassler/artsel/pkg/artwork"
	"github.com/Sternrassler/artsel/pkg/pagination"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// selectResult is printed by the select command.
type selectResult struct {
	Outcome  pagination.Outcome `json:"outcome" yaml:"outcome"`
	Selected []artwork.ID       `json:"selected" yaml:"selected"`
	Count    int                `json:"count" yaml:"count"`
}

func newSelectCmd(opts *rootOptions) *cobra.Command {
	var (
		count  int
		page   int
		rows   int
		output string
	)

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Select the first N records from a page onwards without a UI",
		Example: `  # Select 30 records starting at page 3 with 12 rows per page
  artsel select --count 30 --page 3

  # Persist into a bolt file and print JSON
  ARTSEL_SELECTION_BACKEND=bolt artsel select --count 100 --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "yaml" && output != "json" {
				return fmt.Errorf("unsupported output format %q (want yaml or json)", output)
			}

			cfg := opts.cfg
			if cmd.Flags().Changed("page") {
				cfg.Pagination.Page = page
			}
			if cmd.Flags().Changed("rows") {
				cfg.Pagination.Rows = rows
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, closeLog, err := setupLogging(cfg.Logging, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			defer closeLog()

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			outcome, err := a.ctrl.SelectCount(ctx, count)
			if err != nil {
				return err
			}
			set, err := a.ctrl.Selection(ctx)
			if err != nil {
				return err
			}

			result := selectResult{
				Outcome:  outcome,
				Selected: set.Sorted(),
				Count:    set.Len(),
			}
			if err := writeResult(cmd.OutOrStdout(), output, result); err != nil {
				return err
			}

			if outcome.Err != nil {
				return fmt.Errorf("bulk selection stopped after %d of %d records: %w", outcome.Selected, outcome.Requested, outcome.Err)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 0, "number of records to select")
	cmd.Flags().IntVar(&page, "page", 1, "1-based page to start from (overrides pagination.page)")
	cmd.Flags().IntVar(&rows, "rows", 12, "rows per page (overrides pagination.rows)")
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format: yaml or json")

	return cmd
}

func writeResult(w io.Writer, format string, result selectResult) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return err
		}
		return enc.Close()
	}
}
