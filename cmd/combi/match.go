package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/clarete/combi"
)

// recordView is how records are printed.
type recordView struct {
	Matcher    string `yaml:"matcher"`
	Depth      int    `yaml:"depth"`
	Begin      int    `yaml:"begin"`
	End        int    `yaml:"end"`
	Choice     int    `yaml:"choice"`
	Persistent bool   `yaml:"persistent"`
	Text       string `yaml:"text"`
}

func viewRecords(input string, records []combi.Record) []recordView {
	runes := []rune(input)
	views := make([]recordView, len(records))
	for i, r := range records {
		label := "yield"
		if r.Matcher != nil {
			label = r.Matcher.String()
		}
		views[i] = recordView{
			Matcher:    label,
			Depth:      r.Depth,
			Begin:      r.Begin,
			End:        r.End,
			Choice:     r.Choice,
			Persistent: r.Persistent,
			Text:       string(runes[r.Begin:r.End]),
		}
	}
	return views
}

func newMatchCommand(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "match [input]",
		Short: "Print the records produced by matching the input",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.selected()
			if err != nil {
				return err
			}
			input, err := a.input(cmd, args)
			if err != nil {
				return err
			}
			records, err := a.engine().Match(g.start, input)
			if err != nil {
				return err
			}
			views := viewRecords(input, records)

			out := cmd.OutOrStdout()
			switch format {
			case "yaml":
				enc := yaml.NewEncoder(out)
				if err := enc.Encode(views); err != nil {
					return errors.Wrap(err, "encoding records")
				}
				return errors.Wrap(enc.Close(), "encoding records")
			case "table":
				tbl := table.NewWriter()
				tbl.SetOutputMirror(out)
				tbl.SetStyle(table.StyleLight)
				tbl.AppendHeader(table.Row{"#", "Matcher", "Depth", "Range", "Choice", "Text"})
				for i, v := range views {
					tbl.AppendRow(table.Row{i, v.Matcher, v.Depth, combi.NewRange(v.Begin, v.End), v.Choice, strconv.Quote(v.Text)})
				}
				tbl.AppendFooter(table.Row{"", "Total", len(views)})
				tbl.Render()
				return nil
			default:
				return errors.Errorf("unknown format `%s`, expected table or yaml", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", "output format, table or yaml")
	return cmd
}
