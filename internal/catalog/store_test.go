package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/price-tracker/internal/model"
)

const sampleCatalog = `{
    "Widget": {
        "model": "W-1",
        "category": "Gadgets",
        "sources": {
            "shopblt": {
                "url": "https://www.shopblt.com/item/w1.html?a=1&b=2",
                "prices": [
                    {
                        "price": 21.5,
                        "timestamp": "2024-03-01T09:00:00.000000"
                    }
                ]
            }
        }
    }
}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "product_data.json", sampleCatalog)

	c, err := Load(path)
	require.NoError(t, err)
	require.Contains(t, c, "Widget")

	p := c["Widget"]
	assert.Equal(t, "W-1", p.Model)
	assert.Equal(t, "Gadgets", p.Category)
	require.Contains(t, p.Sources, "shopblt")
	require.Len(t, p.Sources["shopblt"].Prices, 1)
	assert.InDelta(t, 21.5, p.Sources["shopblt"].Prices[0].Price, 1e-9)
	assert.Empty(t, p.Sources["shopblt"].Prices[0].Currency)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoad_Malformed(t *testing.T) {
	path := writeFile(t, "bad.json", `{"Widget": {"model": `)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestLoad_NullProduct(t *testing.T) {
	path := writeFile(t, "null.json", `{"Widget": null}`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadOrEmpty(t *testing.T) {
	c, err := LoadOrEmpty(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Empty(t, c)

	bad := writeFile(t, "bad.json", `[]`)
	_, err = LoadOrEmpty(bad)
	assert.Error(t, err)
}

func TestSave_RoundTripBytes(t *testing.T) {
	path := writeFile(t, "product_data.json", sampleCatalog)

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, Save(path, c))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleCatalog, string(data))
}

func TestSave_PreservesMode(t *testing.T) {
	path := writeFile(t, "product_data.json", sampleCatalog)
	require.NoError(t, os.Chmod(path, 0o640))

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, Save(path, c))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), fi.Mode().Perm())

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSave_FailureLeavesFileIntact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing-dir", "product_data.json")

	err := Save(path, model.Catalog{})
	assert.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestEncode_NilSlicesAsEmpty(t *testing.T) {
	c := model.Catalog{
		"Thing": {Model: "T", Category: "C", Sources: map[string]*model.Source{
			"newegg": {URL: "https://www.newegg.com/p/1"},
		}},
	}
	data, err := Encode(c)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"prices": []`)
	assert.NotContains(t, string(data), "null")
}

func newProduct(urls map[string]string) *model.Product {
	p := &model.Product{Model: "CMH32GX5M2M6000Z36", Category: "Memory", Sources: map[string]*model.Source{}}
	for name, u := range urls {
		p.Sources[name] = &model.Source{URL: u}
	}
	return p
}

func TestAddProduct(t *testing.T) {
	path := filepath.Join(t.TempDir(), "product_data.json")

	added, err := AddProduct(path, "Corsair 32GB", newProduct(map[string]string{
		"microcenter": "https://www.microcenter.com/product/688526",
		"newegg":      "https://www.newegg.com/p/N82E16820236947",
	}), false)
	require.NoError(t, err)
	assert.True(t, added)

	c, err := Load(path)
	require.NoError(t, err)
	require.Contains(t, c, "Corsair 32GB")
	assert.Len(t, c["Corsair 32GB"].Sources, 2)
	assert.NotNil(t, c["Corsair 32GB"].Sources["newegg"].Prices)
}

func TestAddProduct_ExistingNotOverwritten(t *testing.T) {
	path := writeFile(t, "product_data.json", sampleCatalog)

	added, err := AddProduct(path, "Widget", newProduct(map[string]string{
		"newegg": "https://www.newegg.com/p/1",
	}), false)
	require.NoError(t, err)
	assert.False(t, added)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleCatalog, string(data))

	added, err = AddProduct(path, "Widget", newProduct(map[string]string{
		"newegg": "https://www.newegg.com/p/1",
	}), true)
	require.NoError(t, err)
	assert.True(t, added)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Contains(t, c["Widget"].Sources, "newegg")
	assert.NotContains(t, c["Widget"].Sources, "shopblt")
}

func TestAddProduct_Validation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "product_data.json")

	tests := []struct {
		name    string
		product *model.Product
	}{
		{"no sources", newProduct(nil)},
		{"too many sources", newProduct(map[string]string{
			"a": "https://a.example", "b": "https://b.example",
			"c": "https://c.example", "d": "https://d.example",
		})},
		{"bad url", newProduct(map[string]string{"newegg": "www.newegg.com/p/1"})},
		{"nil product", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			added, err := AddProduct(path, "Thing", tt.product, false)
			assert.Error(t, err)
			assert.False(t, added)
		})
	}

	_, err := AddProduct(path, "  ", newProduct(map[string]string{"a": "https://a.example"}), false)
	assert.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "validation failures must not write")
}
