package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/clarete/combi"
	"github.com/clarete/combi/metrics"
)

func newStatsCommand(a *app) *cobra.Command {
	var exposition bool
	cmd := &cobra.Command{
		Use:   "stats [input]",
		Short: "Print what the engine did to match the input",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.selected()
			if err != nil {
				return err
			}
			input, err := a.input(cmd, args)
			if err != nil {
				return err
			}
			m := metrics.PrometheusMetrics(a.settings.Metrics.Namespace)
			e := a.engine()
			_, matchErr := m.Match(e, g.start, input)

			out := cmd.OutOrStdout()
			if exposition {
				if err := m.WriteText(out); err != nil {
					return err
				}
			} else {
				renderStats(cmd, e.Stats(), len([]rune(input)))
			}
			if matchErr != nil {
				a.logger.Warn("match failed", "error", matchErr)
			}
			return matchErr
		},
	}
	cmd.Flags().BoolVar(&exposition, "metrics", false, "print Prometheus metrics instead of a table")
	return cmd
}

func renderStats(cmd *cobra.Command, s combi.Stats, size int) {
	count := func(n int) string { return humanize.Comma(int64(n)) }
	tbl := table.NewWriter()
	tbl.SetOutputMirror(cmd.OutOrStdout())
	tbl.SetStyle(table.StyleLight)
	tbl.AppendRows([]table.Row{
		{"input", fmt.Sprintf("%s runes", count(size))},
		{"captures", count(s.Captures)},
		{"cache hits", count(s.CacheHits)},
		{"cache misses", count(s.CacheMisses)},
		{"cache stores", count(s.CacheStores)},
		{"hit ratio", humanize.FtoaWithDigits(s.HitRatio()*100, 1) + "%"},
		{"deferrals", count(s.Deferrals)},
		{"growths", count(s.Growths)},
		{"failures", count(s.Failures)},
		{"records", count(s.Records)},
		{"max depth", count(s.MaxDepth)},
	})
	tbl.Render()
}
