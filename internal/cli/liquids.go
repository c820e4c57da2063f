package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"mad-liquid/internal/core"
	"mad-liquid/internal/liquid"
)

// LiquidInfo describes a built-in liquid.
type LiquidInfo struct {
	Name        string        `json:"name"`
	DisplayName string        `json:"display_name"`
	Params      liquid.Params `json:"params"`
}

// NewLiquidsCommand creates the liquids command.
func NewLiquidsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "liquids",
		Short:         "List the built-in liquids and their tunables",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			infos := make([]LiquidInfo, 0, len(liquid.Names()))
			for _, name := range liquid.Names() {
				l, _ := liquid.Lookup(name)
				infos = append(infos, LiquidInfo{Name: name, DisplayName: core.DisplayName(name), Params: l.Params()})
			}
			if rootOpts.Format == "json" {
				return formatter.Success(infos)
			}
			for _, info := range infos {
				p := info.Params
				fmt.Fprintf(formatter.Writer, "%s (%s)\n", info.DisplayName, info.Name)
				fmt.Fprintf(formatter.Writer, "  tick delay %d, slowdown x%d, %s guard, radius %d\n",
					p.TickDelay, p.DissipationSlowdown, p.Connectivity, p.SearchRadius)
				fmt.Fprintf(formatter.Writer, "  upward +%d, horizontal -%d, wake radius %d\n",
					p.UpwardBoost, p.HorizontalDecay, p.WakeRadius)
			}
			return nil
		},
	}
}
