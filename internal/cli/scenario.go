package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/polydb/internal/harness"
)

// ScenarioResult is the outcome of one scenario run as reported by the CLI.
type ScenarioResult struct {
	Name   string               `json:"name"`
	Pass   bool                 `json:"pass"`
	Errors []string             `json:"errors,omitempty"`
	Trace  []harness.TraceEvent `json:"trace,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario against the database",
		Long: `Run a YAML scenario of insert, update, lookup and list steps.

Each step runs in its own transaction against the configured database.
The polygons table is created first if it is missing.

Exit codes:
  0 - All expectations matched
  1 - One or more expectations failed
  2 - Command error (unreadable scenario, database error, etc.)

Example:
  polydb run ./scenarios/roundtrip.yaml --db /tmp/scratch.sqlite`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, err := harness.LoadScenario(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load scenario", err)
			}
			return runScenario(rootOpts, scenario, cmd)
		},
	}
	return cmd
}

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the built-in demonstration",
		Long: `Insert triangle and square, update square, then look both up.

The demo writes to the configured database; point --db at a scratch file
to keep it away from real data.

Example:
  polydb demo --db /tmp/demo.sqlite -v`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(rootOpts, harness.DemoScenario(), cmd)
		},
	}
	return cmd
}

func runScenario(opts *RootOptions, scenario *harness.Scenario, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)
	return withSession(opts, cmd, func(ctx context.Context, s *session) error {
		if err := s.store.CreateTable(ctx); err != nil {
			return WrapExitError(ExitCommandError, "failed to create table", err)
		}

		result, err := harness.New(s.store, s.logger).Run(ctx, scenario)
		if err != nil {
			return WrapExitError(ExitCommandError, "scenario execution failed", err)
		}

		out := ScenarioResult{
			Name:   scenario.Name,
			Pass:   result.Pass,
			Errors: result.Errors,
		}
		if opts.Verbose || f.Format == "json" {
			out.Trace = result.Trace
		}

		if f.Format == "json" {
			if err := f.Success(out); err != nil {
				return err
			}
		} else {
			outputScenarioText(f, out)
		}

		if !result.Pass {
			return reportedExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
		}
		return nil
	})
}

func outputScenarioText(f *OutputFormatter, r ScenarioResult) {
	w := f.Writer
	if r.Pass {
		fmt.Fprintf(w, "✓ %s\n", r.Name)
	} else {
		fmt.Fprintf(w, "✗ %s\n", r.Name)
	}

	for _, ev := range r.Trace {
		line := fmt.Sprintf("  %d. %s", ev.Step, ev.Op)
		if ev.Name != "" {
			line += " " + ev.Name
		}
		switch {
		case ev.Polygon != nil:
			line += fmt.Sprintf(" -> %s", ev.Polygon)
		case ev.Found != nil && !*ev.Found:
			line += " -> not found"
		case ev.Rows != nil:
			line += fmt.Sprintf(" -> %d rows", *ev.Rows)
		case ev.Op == harness.OpList:
			line += fmt.Sprintf(" -> %d polygons", len(ev.Polygons))
		}
		fmt.Fprintln(w, line)
	}

	for _, e := range r.Errors {
		fmt.Fprintf(w, "  - %s\n", e)
	}
}
