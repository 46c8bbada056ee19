package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/price-tracker/internal/catalog"
	"github.com/sells-group/price-tracker/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the price history to an XLSX workbook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("catalog"); err != nil {
			return err
		}
		outPath, _ := cmd.Flags().GetString("out")

		c, err := catalog.Load(cfg.Catalog.Path)
		if err != nil {
			return eris.Wrap(err, "export")
		}
		if err := export.WriteXLSX(outPath, c); err != nil {
			return eris.Wrap(err, "export")
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d product(s) to %s\n", len(c), outPath)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("out", "price_history.xlsx", "output workbook path")
	rootCmd.AddCommand(exportCmd)
}
