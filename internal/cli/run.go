package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mad-liquid/internal/scenario"
	"mad-liquid/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Render   bool
	Filter   string

	// RunID overrides the run identifier generator (for testing). If nil,
	// runs get a UUIDv7.
	RunID func() string
}

// RunResult holds the overall result of a run command.
type RunResult struct {
	Reports []scenario.Report `json:"reports"`
	Errors  []ScenarioError   `json:"errors,omitempty"`
	Passed  int               `json:"passed"`
	Failed  int               `json:"failed"`
	Total   int               `json:"total"`
}

// ScenarioError records a scenario file that could not be loaded or run.
type ScenarioError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario>...",
		Short: "Run scenarios and check their expectations",
		Long: `Run scenario files and check their expectations.

Arguments may be files or directories; directories are searched for
.yaml and .yml files. With --db every report is appended to the run
history.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (missing files, unusable database, etc.)

Examples:
  liquidsim run scenarios/
  liquidsim run scenarios/shaft.yaml --render
  liquidsim run scenarios/ --filter "shaft*" --db runs.db --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run history")
	cmd.Flags().BoolVar(&opts.Render, "render", false, "print the final slice of each scenario")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern on the file name")

	return cmd
}

func runScenarios(ctx context.Context, opts *RunOptions, args []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	files, err := findScenarioFiles(args, opts.Filter)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeNotFound, "failed to find scenarios", err)
	}

	var db *store.Store
	if opts.Database != "" {
		db, err = store.Open(opts.Database)
		if err != nil {
			return fail(formatter, ExitCommandError, ErrCodeStore, "failed to open run history", err)
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
	}

	result := RunResult{Reports: []scenario.Report{}, Total: len(files)}
	w := cmd.OutOrStdout()
	for _, path := range files {
		formatter.VerboseLog("Running %s", path)
		sc, err := scenario.Load(path)
		if err == nil {
			var res *scenario.Result
			res, err = scenario.Run(sc, scenario.Options{RunID: opts.RunID})
			if err == nil {
				result.Reports = append(result.Reports, res.Report)
				if res.Report.Passed() {
					result.Passed++
				} else {
					result.Failed++
				}
				if db != nil {
					if err := db.RecordRun(ctx, res.Report); err != nil {
						return fail(formatter, ExitCommandError, ErrCodeStore, "failed to record run", err)
					}
				}
				if opts.Format != "json" {
					writeReport(w, &res.Report)
					if opts.Render {
						fmt.Fprint(w, scenario.RenderSlice(res.Sim.World(), sc.Slice))
					}
				}
				continue
			}
		}
		result.Failed++
		result.Errors = append(result.Errors, ScenarioError{Path: path, Error: err.Error()})
		if opts.Format != "json" {
			fmt.Fprintf(w, "✗ %s\n  %v\n", filepath.Base(path), err)
		}
	}

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(w, "\n%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenario(s) failed", result.Failed, result.Total))
	}
	return nil
}

func writeReport(w io.Writer, rep *scenario.Report) {
	mark := "✓"
	if !rep.Passed() {
		mark = "✗"
	}
	state := "idle"
	if !rep.Idle {
		state = fmt.Sprintf("%d pending", rep.Pending)
	}
	fmt.Fprintf(w, "%s %s (%d steps, %s, %d cells)\n", mark, rep.Scenario, rep.Steps, state, rep.Cells())
	for _, f := range rep.Failures {
		fmt.Fprintf(w, "  %s\n", f)
	}
}

// findScenarioFiles expands args into YAML scenario files. Explicit files
// are kept as given; directories are walked.
func findScenarioFiles(args []string, filter string) ([]string, error) {
	var files []string
	keep := func(path string) (bool, error) {
		if filter == "" {
			return true, nil
		}
		base := filepath.Base(path)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		matched, err := filepath.Match(filter, name)
		if err != nil {
			return false, fmt.Errorf("invalid filter pattern: %w", err)
		}
		return matched, nil
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			ok, err := keep(arg)
			if err != nil {
				return nil, err
			}
			if ok {
				files = append(files, arg)
			}
			continue
		}
		err = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			ext := filepath.Ext(path)
			if ext != ".yaml" && ext != ".yml" {
				return nil
			}
			ok, err := keep(path)
			if err != nil {
				return err
			}
			if ok {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no scenario files in %s", strings.Join(args, ", "))
	}
	return files, nil
}
