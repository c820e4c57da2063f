package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"mad-liquid/internal/liquid"
	"mad-liquid/internal/sims/upflow"
)

// ProfileOptions holds flags for the profile and sweep commands.
type ProfileOptions struct {
	*RootOptions
	Liquid string
	Steps  int
	Set    map[string]string
}

// ProfileOutput is the JSON payload of the profile command.
type ProfileOutput struct {
	Config upflow.Config        `json:"config"`
	Result upflow.ProfileResult `json:"result"`
}

// NewProfileCommand creates the profile command.
func NewProfileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProfileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Measure how a single source settles and drains",
		Long: `Place one source at the bottom of a box, run until nothing is pending,
then remove it and run until the box drains. Box and liquid tunables use
the same keys as the viewer.

Examples:
  liquidsim profile --liquid experience
  liquidsim profile --set layout=ledge --set connectivity=flood`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfile(opts, cmd)
		},
	}
	bindProfileFlags(cmd, opts)
	return cmd
}

func bindProfileFlags(cmd *cobra.Command, opts *ProfileOptions) {
	cmd.Flags().StringVar(&opts.Liquid, "liquid", liquid.MagicWater.Name(), "liquid to profile")
	cmd.Flags().IntVar(&opts.Steps, "steps", 2000, "step limit for each phase")
	cmd.Flags().StringToStringVar(&opts.Set, "set", nil, "box or liquid tunable (w, h, d, slice, layout, connectivity, tick_delay, search_radius, random_ticks, seed)")
}

func (o *ProfileOptions) config(f *OutputFormatter) (upflow.Config, error) {
	if _, ok := liquid.Lookup(o.Liquid); !ok {
		return upflow.Config{}, fail(f, ExitCommandError, ErrCodeInvalid, fmt.Sprintf("unknown liquid %q", o.Liquid), nil)
	}
	if o.Steps <= 0 {
		return upflow.Config{}, fail(f, ExitCommandError, ErrCodeInvalid, fmt.Sprintf("steps must be positive, got %d", o.Steps), nil)
	}
	return upflow.FromMap(o.Liquid, o.Set), nil
}

func runProfile(opts *ProfileOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	cfg, err := opts.config(formatter)
	if err != nil {
		return err
	}
	formatter.VerboseLog("Profiling %s in a %dx%dx%d %s box", cfg.Liquid, cfg.Width, cfg.Height, cfg.Depth, cfg.Layout)

	res := upflow.ProfileRun(cfg, opts.Steps)
	if opts.Format == "json" {
		return formatter.Success(ProfileOutput{Config: cfg, Result: res})
	}
	writeProfile(formatter, cfg, res)
	return nil
}

func writeProfile(f *OutputFormatter, cfg upflow.Config, res upflow.ProfileResult) {
	settled := "settled"
	if !res.Idle {
		settled = "did not settle"
	}
	fmt.Fprintf(f.Writer, "%s (%s, %s, tick delay %d, radius %d)\n", cfg.Liquid, cfg.Layout, cfg.Connectivity, cfg.TickDelay, cfg.SearchRadius)
	fmt.Fprintf(f.Writer, "  %s after %d ticks\n", settled, res.SettleTicks)
	fmt.Fprintf(f.Writer, "  column height %d, %d cells\n", res.ColumnHeight, res.Cells)
	fmt.Fprintf(f.Writer, "  drained in %d ticks, %d cells left\n", res.DissipateTicks, res.Residual)
}

// SweepOptions holds flags for the sweep command.
type SweepOptions struct {
	ProfileOptions
	Target  int
	Passes  int
	Workers int
}

// SweepOutput is the JSON payload of the sweep command.
type SweepOutput struct {
	Best    upflow.Config        `json:"best"`
	Result  upflow.ProfileResult `json:"result"`
	Records []upflow.SweepRecord `json:"records"`
}

// NewSweepCommand creates the sweep command.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SweepOptions{ProfileOptions: ProfileOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Search tick delay and search radius for a target column height",
		Long: `Run a coordinate-descent search over tick delay and search radius,
profiling every candidate in parallel. Runs that settle win, then columns
closer to --target, then faster settle and drain.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(opts, cmd)
		},
	}
	bindProfileFlags(cmd, &opts.ProfileOptions)
	cmd.Flags().IntVar(&opts.Target, "target", 0, "target column height (defaults to the box height)")
	cmd.Flags().IntVar(&opts.Passes, "passes", 3, "maximum descent passes")
	cmd.Flags().IntVar(&opts.Workers, "workers", runtime.NumCPU(), "parallel profile runs")
	return cmd
}

func runSweep(opts *SweepOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	cfg, err := opts.config(formatter)
	if err != nil {
		return err
	}
	formatter.VerboseLog("Sweeping %s with %d worker(s)", cfg.Liquid, opts.Workers)

	best, res, records := upflow.ParameterSweep(cfg, opts.Target, opts.Steps, opts.Passes, opts.Workers)
	if opts.Format == "json" {
		return formatter.Success(SweepOutput{Best: best, Result: res, Records: records})
	}
	for _, rec := range records {
		label := rec.Parameter
		if rec.Value != "" {
			label = fmt.Sprintf("%s=%s", rec.Parameter, rec.Value)
		}
		fmt.Fprintf(formatter.Writer, "pass %d %-18s height %2d settle %4d drain %3d\n",
			rec.Pass, label, rec.Result.ColumnHeight, rec.Result.SettleTicks, rec.Result.DissipateTicks)
	}
	fmt.Fprintln(formatter.Writer)
	writeProfile(formatter, best, res)
	return nil
}
