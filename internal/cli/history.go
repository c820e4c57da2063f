package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mad-liquid/internal/store"
	"mad-liquid/internal/world"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Scenario string
	Limit    int
	RunID    string
}

// HistoryOutput is the JSON payload of the history command.
type HistoryOutput struct {
	Runs   []store.RunSummary `json:"runs,omitempty"`
	Census []world.Census     `json:"census,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded scenario runs",
		Long: `List runs recorded with "liquidsim run --db", newest first.
With --run the stored census of that run is printed instead.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run history (required)")
	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "only list runs of this scenario")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list (0 for all)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show the census of one run")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(ctx context.Context, opts *HistoryOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	// Opening creates the file; a typo should not leave an empty history behind.
	if _, err := os.Stat(opts.Database); err != nil {
		return fail(formatter, ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), nil)
	}
	db, err := store.Open(opts.Database)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeStore, "failed to open run history", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	if opts.RunID != "" {
		census, err := db.Census(ctx, opts.RunID)
		if err != nil {
			return fail(formatter, ExitCommandError, ErrCodeStore, "failed to read census", err)
		}
		if opts.Format == "json" {
			return formatter.Success(HistoryOutput{Census: census})
		}
		if len(census) == 0 {
			fmt.Fprintf(formatter.Writer, "No liquid recorded for run %s.\n", opts.RunID)
			return nil
		}
		for _, c := range census {
			fmt.Fprintf(formatter.Writer, "%-12s sources %3d flowing %4d top %3d centroid (%.2f, %.2f, %.2f)\n",
				c.Liquid, c.Sources, c.Flowing, c.Top, c.Centroid.X(), c.Centroid.Y(), c.Centroid.Z())
		}
		return nil
	}

	runs, err := db.Runs(ctx, opts.Scenario, opts.Limit)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeStore, "failed to list runs", err)
	}
	if opts.Format == "json" {
		return formatter.Success(HistoryOutput{Runs: runs})
	}
	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		mark := "✓"
		if !r.Passed() {
			mark = "✗"
		}
		fmt.Fprintf(formatter.Writer, "%s %s %-16s %5d steps\n", mark, r.RunID, r.Scenario, r.Steps)
		for _, f := range r.Failures {
			fmt.Fprintf(formatter.Writer, "    %s\n", f)
		}
	}
	return nil
}
