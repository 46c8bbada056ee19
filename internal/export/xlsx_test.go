package export

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/price-tracker/internal/model"
)

func testCatalog() model.Catalog {
	return model.Catalog{
		"Widget": {Model: "W-1", Category: "Gadgets", Sources: map[string]*model.Source{
			"shopblt": {URL: "https://www.shopblt.com/item/w.html", Prices: []model.Observation{
				{Price: 21.5, Timestamp: "2024-03-01T09:00:00.000000", Currency: "USD"},
				{Price: 19.99, Timestamp: "2024-03-08T09:00:00.000000", Currency: "USD"},
			}},
		}},
		"Blank": {Model: "B-0", Category: "Misc", Sources: map[string]*model.Source{
			"newegg": {URL: "https://www.newegg.com/p/b", Prices: []model.Observation{}},
		}},
	}
}

func TestWriteXLSX_History(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.xlsx")
	require.NoError(t, WriteXLSX(path, testCatalog()))

	rows, err := ReadSheet(path, HistorySheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, historyHeader, rows[0])
	assert.Equal(t, []string{"Widget", "Gadgets", "shopblt"}, rows[1][:3])
	assert.Equal(t, "2024-03-08T09:00:00.000000", rows[2][4])
	assert.Equal(t, "USD", rows[2][6])

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	price, err := f.Sheet[HistorySheet].Rows[2].Cells[5].Float()
	require.NoError(t, err)
	assert.InDelta(t, 19.99, price, 1e-9)
}

func TestWriteXLSX_Summary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.xlsx")
	require.NoError(t, WriteXLSX(path, testCatalog()))

	rows, err := ReadSheet(path, SummarySheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, summaryHeader, rows[0])

	// Products are sorted by name.
	assert.Equal(t, "Blank", rows[1][0])
	assert.Equal(t, "Widget", rows[2][0])
	assert.Equal(t, "shopblt", rows[2][5])
	assert.Equal(t, "2024-03-08T09:00:00.000000", rows[2][6])

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	pct, err := f.Sheet[SummarySheet].Rows[2].Cells[7].Float()
	require.NoError(t, err)
	assert.InDelta(t, -7.02, pct, 1e-9)
}

func TestWriteXLSX_BadPath(t *testing.T) {
	err := WriteXLSX(filepath.Join(t.TempDir(), "missing", "out.xlsx"), testCatalog())
	assert.Error(t, err)
}

func TestReadSheet_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.xlsx")
	require.NoError(t, WriteXLSX(path, model.Catalog{}))

	_, err := ReadSheet(path, "Nope")
	assert.Error(t, err)
}
