package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/scalargrad/internal/compiler"
	"github.com/roach88/scalargrad/internal/engine"
	"github.com/roach88/scalargrad/internal/graph"
	"github.com/roach88/scalargrad/internal/ir"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Graph       string // graph name (optional when the specs define one graph)
	Root        string // root override
	Passes      int
	ZeroBetween bool
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <specs>",
		Short: "Evaluate a graph and print its gradients",
		Long: `Compile a CUE graph definition, run backward passes from its root
and print every node's data and gradient.

<specs> is a CUE file or a directory of CUE files.

Exit codes:
  0 - Evaluation succeeded
  1 - The graph failed to compile or evaluate
  2 - Command error (invalid path, unknown graph, etc.)

Examples:
  scalargrad eval ./specs --graph chain
  scalargrad eval ./specs/poly.cue --passes 2 --zero-between
  scalargrad eval ./specs --graph sum --root a --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Graph, "graph", "g", "", "graph to evaluate (required when specs define several)")
	cmd.Flags().StringVar(&opts.Root, "root", "", "override the graph's root node")
	cmd.Flags().IntVar(&opts.Passes, "passes", 1, "number of backward passes")
	cmd.Flags().BoolVar(&opts.ZeroBetween, "zero-between", false, "reset gradients before each pass after the first")

	return cmd
}

func runEval(opts *EvalOptions, specs string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	if opts.Passes < 0 {
		return fail(formatter, ExitCommandError, compiler.ErrCodeGeneric,
			fmt.Sprintf("--passes must be non-negative, got %d", opts.Passes), nil)
	}

	loaded, errs := compiler.Load(specs)
	if loaded == nil {
		return failLoad(formatter, errs)
	}

	spec, err := selectGraph(loaded, opts.Graph, errs)
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return fail(formatter, exitErr.Code, compiler.ErrCodeNoGraphs, exitErr.Message, loaded.Names())
		}
		return fail(formatter, ExitFailure, compiler.ErrorCode(err), err.Error(), nil)
	}

	ev := engine.New(engine.WithLogger(opts.logger()))
	res, err := ev.Evaluate(spec, engine.Request{
		Root:        opts.Root,
		Passes:      opts.Passes,
		ZeroBetween: opts.ZeroBetween,
	})
	if err != nil {
		return fail(formatter, ExitFailure, evalErrorCode(err), err.Error(), nil)
	}

	if formatter.JSON() {
		return formatter.Success(res.Report)
	}
	return writeReport(cmd.OutOrStdout(), &res.Report)
}

// selectGraph picks the graph named by name, or the only graph when name is
// empty. Compile errors for the requested graph are returned wrapped.
func selectGraph(loaded *compiler.LoadResult, name string, errs []error) (*ir.GraphSpec, error) {
	if name == "" {
		if len(loaded.Graphs) == 1 && len(errs) == 0 {
			return &loaded.Graphs[0], nil
		}
		if len(loaded.Graphs) == 0 && len(errs) > 0 {
			return nil, fmt.Errorf("specs did not compile: %w", errs[0])
		}
		return nil, NewExitError(ExitCommandError,
			fmt.Sprintf("--graph is required: specs define %d graph(s)", len(loaded.Graphs)+len(errs)))
	}

	if spec, ok := loaded.Graph(name); ok {
		return spec, nil
	}
	prefix := "graph." + name + ":"
	for _, e := range errs {
		if strings.HasPrefix(e.Error(), prefix) {
			return nil, fmt.Errorf("graph %q did not compile: %w", name, e)
		}
	}
	return nil, NewExitError(ExitCommandError, fmt.Sprintf("graph %q not found", name))
}

// writeReport prints a report as an aligned text table.
func writeReport(w io.Writer, r *ir.Report) error {
	passes := "passes"
	if r.Passes == 1 {
		passes = "pass"
	}
	if _, err := fmt.Fprintf(w, "Graph %s (root %s, %d %s)\n", r.Graph, r.Root, r.Passes, passes); err != nil {
		return err
	}

	width := 0
	exprs := make([]string, len(r.Nodes))
	for i, n := range r.Nodes {
		exprs[i] = nodeExpr(n)
		width = max(width, len(exprs[i]))
	}
	for i, n := range r.Nodes {
		if _, err := fmt.Fprintf(w, "  %3d  %-*s  data=%-10g grad=%g\n", n.ID, width, exprs[i], n.Data, n.Grad); err != nil {
			return err
		}
	}
	return nil
}

func nodeExpr(n ir.NodeReport) string {
	if len(n.Operands) == 0 {
		return n.Name
	}
	return fmt.Sprintf("%s = %s(%s)", n.Name, n.Op, strings.Join(n.Operands, ", "))
}

// evalErrorCode prefers graph and engine codes over compiler codes.
func evalErrorCode(err error) string {
	var gerr *graph.Error
	if errors.As(err, &gerr) {
		return string(gerr.Code)
	}
	if engine.IsNonFinite(err) {
		return engine.ErrCodeNonFinite
	}
	return compiler.ErrorCode(err)
}

// failLoad reports a fatal load error.
func failLoad(formatter *OutputFormatter, errs []error) error {
	err := errors.Join(errs...)
	if len(errs) == 1 {
		err = errs[0]
	}
	code := compiler.ErrorCode(err)
	msg := err.Error()
	var le *compiler.LoadError
	if errors.As(err, &le) {
		msg = le.Message
	}
	return fail(formatter, ExitCommandError, code, msg, nil)
}

// fail writes an error response and returns the matching ExitError.
func fail(formatter *OutputFormatter, exitCode int, code, message string, details any) error {
	if err := formatter.Error(code, message, details); err != nil {
		return err
	}
	return NewExitError(exitCode, message)
}
