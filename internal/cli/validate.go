package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/scalargrad/internal/compiler"
	"github.com/roach88/scalargrad/internal/ir"
)

// ValidationIssue is a single compile or validation problem.
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool              `json:"valid"`
	FileCount int               `json:"file_count"`
	Graphs    []string          `json:"graphs"`
	Errors    []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <specs>",
		Short: "Validate graph definitions without evaluating them",
		Long: `Compile every graph under graph.<name> and report problems:
unknown operands, wrong arity, duplicate names, invalid leaves,
missing roots and definition cycles.

Exit codes:
  0 - All graphs valid
  1 - One or more graphs invalid
  2 - Command error (invalid path, CUE syntax error, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, specs string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	logger := opts.logger()

	loaded, errs := compiler.Load(specs)
	if loaded == nil {
		return failLoad(formatter, errs)
	}
	logger.Debug("specs loaded", "path", specs, "files", loaded.FileCount, "graphs", len(loaded.Graphs))

	result := ValidationResult{
		Valid:     len(errs) == 0,
		FileCount: loaded.FileCount,
		Graphs:    loaded.Names(),
	}
	for _, err := range errs {
		result.Errors = append(result.Errors, ValidationIssue{
			Code:    compiler.ErrorCode(err),
			Message: err.Error(),
		})
	}

	if formatter.JSON() {
		if result.Valid {
			return formatter.Success(result)
		}
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    result.Errors[0].Code,
				Message: fmt.Sprintf("%d validation error(s)", len(result.Errors)),
			},
		}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d validation error(s)", len(result.Errors)))
	}

	return writeValidation(cmd.OutOrStdout(), result, loaded.Graphs)
}

// writeValidation prints each compiled graph as one expression per node,
// followed by any errors.
func writeValidation(w io.Writer, result ValidationResult, graphs []ir.GraphSpec) error {
	for _, g := range graphs {
		fmt.Fprintf(w, "%s (root %s)\n", g.Name, g.Root)
		for _, n := range g.Nodes {
			fmt.Fprintf(w, "  %s\n", n)
		}
	}

	if result.Valid {
		fmt.Fprintf(w, "✓ %d graph(s) valid: %s\n", len(result.Graphs), strings.Join(result.Graphs, ", "))
		return nil
	}

	for _, issue := range result.Errors {
		fmt.Fprintf(w, "✗ [%s] %s\n", issue.Code, issue.Message)
	}
	fmt.Fprintf(w, "\n%d validation error(s), %d graph(s) valid\n", len(result.Errors), len(result.Graphs))
	return NewExitError(ExitFailure, fmt.Sprintf("%d validation error(s)", len(result.Errors)))
}
