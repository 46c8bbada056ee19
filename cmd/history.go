package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/price-tracker/internal/analytics"
	"github.com/sells-group/price-tracker/internal/catalog"
	"github.com/sells-group/price-tracker/internal/model"
)

var historyCmd = &cobra.Command{
	Use:   "history [product]",
	Short: "Show recorded prices for one or all products",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("catalog"); err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")

		c, err := catalog.Load(cfg.Catalog.Path)
		if err != nil {
			return eris.Wrap(err, "history")
		}

		names := c.Names()
		if len(args) == 1 {
			if _, ok := c[args[0]]; !ok {
				return eris.Errorf("history: product %q not found", args[0])
			}
			names = []string{args[0]}
		}

		return writeHistory(cmd.OutOrStdout(), c, names, format)
	},
}

func init() {
	historyCmd.Flags().String("format", "table", "output format: table, json or yaml")
	rootCmd.AddCommand(historyCmd)
}

// writeHistory renders the named products in the requested format.
func writeHistory(out io.Writer, c model.Catalog, names []string, format string) error {
	switch format {
	case "table":
		formatHistoryTable(out, c, names)
		return nil
	case "json", "yaml":
		summaries := make([]historyDoc, 0, len(names))
		for _, name := range names {
			summaries = append(summaries, historyDoc{
				Summary: analytics.Summarize(name, c[name]),
				Entries: analytics.Flatten(c[name]),
			})
		}
		if format == "json" {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(summaries)
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(summaries); err != nil {
			return eris.Wrap(err, "history: encode yaml")
		}
		return enc.Close()
	default:
		return eris.Errorf("history: unknown format %q (want table, json or yaml)", format)
	}
}

type historyDoc struct {
	analytics.Summary `yaml:",inline"`
	Entries           []analytics.Entry `json:"entries" yaml:"entries"`
}

func formatHistoryTable(out io.Writer, c model.Catalog, names []string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PRODUCT\tSOURCE\tTIMESTAMP\tPRICE\tCURRENCY")
	_, _ = fmt.Fprintln(w, "-------\t------\t---------\t-----\t--------")
	for _, name := range names {
		for _, e := range analytics.Flatten(c[name]) {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\n",
				name, e.Source, e.Observation.Timestamp, e.Observation.Price, valueOr(e.Observation.Currency, "-"))
		}
	}
	_ = w.Flush()

	for _, name := range names {
		if pct, ok := analytics.PercentChange(c[name]); ok {
			_, _ = fmt.Fprintf(out, "%s: best price changed %+.2f%%\n", name, pct)
		}
	}
}
