// Package export writes the price history to spreadsheet files.
package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/price-tracker/internal/analytics"
	"github.com/sells-group/price-tracker/internal/model"
)

// Sheet names written by WriteXLSX.
const (
	HistorySheet = "History"
	SummarySheet = "Summary"
)

var (
	historyHeader = []string{"Product", "Category", "Source", "Index", "Timestamp", "Price", "Currency"}
	summaryHeader = []string{"Product", "Model", "Category", "Observations", "Best Price", "Best Source", "Last Capture", "Change %"}
)

// WriteXLSX writes c to path as a workbook with a History sheet holding
// every observation and a Summary sheet with one row per product.
func WriteXLSX(path string, c model.Catalog) error {
	f := xlsx.NewFile()

	history, err := f.AddSheet(HistorySheet)
	if err != nil {
		return eris.Wrap(err, "xlsx: add history sheet")
	}
	summary, err := f.AddSheet(SummarySheet)
	if err != nil {
		return eris.Wrap(err, "xlsx: add summary sheet")
	}

	addStringRow(history, historyHeader)
	addStringRow(summary, summaryHeader)

	for _, name := range c.Names() {
		p := c[name]
		if p == nil {
			continue
		}

		for _, e := range analytics.Flatten(p) {
			row := history.AddRow()
			row.AddCell().SetString(name)
			row.AddCell().SetString(p.Category)
			row.AddCell().SetString(e.Source)
			row.AddCell().SetInt(e.Index)
			row.AddCell().SetString(e.Observation.Timestamp)
			row.AddCell().SetFloat(e.Observation.Price)
			row.AddCell().SetString(e.Observation.Currency)
		}

		s := analytics.Summarize(name, p)
		row := summary.AddRow()
		row.AddCell().SetString(name)
		row.AddCell().SetString(s.Model)
		row.AddCell().SetString(s.Category)
		row.AddCell().SetInt(s.Observations)
		if s.Best != nil {
			row.AddCell().SetFloat(s.Best.Price)
			row.AddCell().SetString(s.Best.Source)
			row.AddCell().SetString(s.Best.Timestamp)
		} else {
			row.AddCell()
			row.AddCell()
			row.AddCell()
		}
		if s.PercentChange != nil {
			row.AddCell().SetFloat(*s.PercentChange)
		} else {
			row.AddCell()
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

// ReadSheet returns the named sheet of the workbook at path as strings.
func ReadSheet(path, name string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	sheet, ok := f.Sheet[name]
	if !ok {
		return nil, eris.Errorf("xlsx: sheet %q not found", name)
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func addStringRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
