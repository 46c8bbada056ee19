package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/price-tracker/internal/scrape"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "Scrape one product page and print what was extracted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("scrape"); err != nil {
			return err
		}

		d := scrape.NewDefaultDispatcher(cfg.Scrape.DispatcherOptions())
		out := d.Scrape(cmd.Context(), args[0])
		switch out.Status {
		case scrape.StatusOK:
			formatListing(cmd.OutOrStdout(), out)
			return nil
		case scrape.StatusUnsupported:
			return eris.Errorf("scrape: unsupported site %s (supported: %s)", args[0], strings.Join(d.Domains(), ", "))
		default:
			return eris.Wrap(out.Err, "scrape")
		}
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
}

func formatListing(out io.Writer, o scrape.Outcome) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Site:\t%s\n", o.Site)
	_, _ = fmt.Fprintf(w, "Price:\t%.2f\n", o.Listing.Price)
	_, _ = fmt.Fprintf(w, "Currency:\t%s\n", o.Listing.Currency)
	_, _ = fmt.Fprintf(w, "Brand:\t%s\n", valueOr(o.Listing.Brand, "-"))
	_, _ = fmt.Fprintf(w, "Model:\t%s\n", valueOr(o.Listing.Model, "-"))
	_ = w.Flush()
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
