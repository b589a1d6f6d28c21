package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/reactor/internal/scenario"
)

var kindColors = map[scenario.EventKind]*color.Color{
	scenario.EventEffect:   color.New(color.FgGreen),
	scenario.EventComputed: color.New(color.FgMagenta),
	scenario.EventWatch:    color.New(color.FgCyan),
	scenario.EventRead:     color.New(color.FgWhite, color.Bold),
	scenario.EventTick:     color.New(color.FgHiBlack),
}

func runCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Play a scenario file",
		Long: `Load a YAML scenario, play its steps against a fresh runtime and print
every effect run, recompute, watch callback and read.

Examples:
  reactor run cart.yaml
  reactor run cart.yaml --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			// Scenario metrics are not served; a private registry avoids
			// clashing with anything on the default one.
			observers := a.cfg.Observers(prometheus.NewRegistry())
			report, err := scenario.Run(s, a.cfg.RuntimeOptions(a.logger, observers...)...)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")

	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printReport(w io.Writer, r *scenario.Report) {
	title := r.Name
	if title == "" {
		title = "scenario"
	}
	section(w, fmt.Sprintf("%s (%d steps)", title, r.Steps))

	step := -1
	for _, e := range r.Events {
		if e.Step != step {
			step = e.Step
			if step == 0 {
				_, _ = dimColor.Fprintln(w, "  setup")
			} else {
				_, _ = dimColor.Fprintf(w, "  step %d\n", step)
			}
		}
		c := kindColors[e.Kind]
		_, _ = c.Fprintf(w, "    %-9s", e.Kind)
		fmt.Fprintf(w, " %-12s %s\n", e.Name, formatValue(e))
	}

	section(w, "Runs")
	names := make([]string, 0, len(r.Runs))
	for name := range r.Runs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		labelValue(w, name, r.Runs[name])
	}
	fmt.Fprintln(w)
	success(w, "%d events", len(r.Events))
}

func formatValue(e scenario.Event) string {
	if e.Kind == scenario.EventWatch {
		return fmt.Sprintf("%v (was %v)", e.Value, e.Old)
	}
	if e.Kind == scenario.EventTick {
		return fmt.Sprintf("%v tasks", e.Value)
	}
	return fmt.Sprintf("%v", e.Value)
}
