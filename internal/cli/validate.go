package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mad-liquid/internal/scenario"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Files  int               `json:"files"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidationError describes one rejected scenario file.
type ValidationError struct {
	Path    string `json:"path"`
	Kind    string `json:"kind"` // "schema" | "invalid" | "io"
	Message string `json:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario>...",
		Short: "Validate scenarios without running them",
		Long: `Validate scenario files against the scenario schema and the
consistency checks applied before a run (bounds, events, liquids).`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	files, err := findScenarioFiles(args, "")
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeNotFound, "failed to find scenarios", err)
	}

	result := ValidationResult{Files: len(files)}
	for _, path := range files {
		formatter.VerboseLog("Validating %s", path)
		if _, err := scenario.Load(path); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Path:    path,
				Kind:    validationKind(err),
				Message: err.Error(),
			})
		}
	}
	result.Valid = len(result.Errors) == 0

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else if result.Valid {
		fmt.Fprintf(formatter.Writer, "✓ %d scenario(s) valid\n", result.Files)
	} else {
		fmt.Fprintln(formatter.Writer, "✗ Validation failed")
		for _, e := range result.Errors {
			fmt.Fprintf(formatter.Writer, "  %s [%s]: %s\n", e.Path, e.Kind, e.Message)
		}
	}
	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}
	return nil
}

func validationKind(err error) string {
	switch {
	case errors.Is(err, scenario.ErrSchema):
		return "schema"
	case errors.Is(err, scenario.ErrInvalid):
		return "invalid"
	default:
		return "io"
	}
}
