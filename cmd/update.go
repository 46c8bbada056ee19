package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/price-tracker/internal/scrape"
	"github.com/sells-group/price-tracker/internal/updater"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Capture the current price of every tracked source",
	Long:  "Loads the catalog, scrapes every source once, appends one observation per successful scrape with a shared timestamp, and writes the catalog back.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("update"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		d := scrape.NewDefaultDispatcher(cfg.Scrape.DispatcherOptions())
		report, err := updater.New(d).UpdateAll(ctx, cfg.Catalog.Path)
		if err != nil {
			return eris.Wrap(err, "update")
		}

		formatReport(cmd.OutOrStdout(), report)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}

// formatReport writes a run summary followed by one line per failure.
func formatReport(out io.Writer, r *updater.Report) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Run:\t%s\n", r.RunID)
	_, _ = fmt.Fprintf(w, "Timestamp:\t%s\n", r.Timestamp)
	_, _ = fmt.Fprintf(w, "Updated:\t%d\n", r.Updated)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", r.Failed)
	_, _ = fmt.Fprintf(w, "Unsupported:\t%d\n", r.Unsupported)
	_, _ = fmt.Fprintf(w, "Skipped:\t%d\n", r.Skipped)
	_ = w.Flush()

	if len(r.Failures) == 0 {
		return
	}

	_, _ = fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PRODUCT\tSOURCE\tSTATUS\tREASON")
	_, _ = fmt.Fprintln(w, "-------\t------\t------\t------")
	for _, f := range r.Failures {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.Product, f.Source, f.Status, f.Reason)
	}
	_ = w.Flush()
}
