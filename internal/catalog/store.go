// Package catalog reads and writes the JSON product catalog.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/price-tracker/internal/model"
)

// Source count bounds enforced by AddProduct.
const (
	MinSources = 1
	MaxSources = 3
)

// Load reads and decodes the catalog at path. A missing, unreadable or
// malformed file is an error.
func Load(path string) (model.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: read %s", path)
	}

	var c model.Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, eris.Wrapf(err, "catalog: decode %s", path)
	}
	if c == nil {
		// A literal null decodes to a nil map.
		c = model.Catalog{}
	}
	for name, p := range c {
		if p == nil {
			return nil, eris.Errorf("catalog: product %q is null in %s", name, path)
		}
		if p.Sources == nil {
			p.Sources = map[string]*model.Source{}
		}
		for src, s := range p.Sources {
			if s == nil {
				return nil, eris.Errorf("catalog: source %q of %q is null in %s", src, name, path)
			}
		}
	}
	return c, nil
}

// LoadOrEmpty is Load, except a missing file yields an empty catalog.
func LoadOrEmpty(path string) (model.Catalog, error) {
	c, err := Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.Catalog{}, nil
		}
		return nil, err
	}
	return c, nil
}

// Encode renders the catalog the way Save writes it: four-space indent,
// no HTML escaping, trailing newline.
func Encode(c model.Catalog) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized(c)); err != nil {
		return nil, eris.Wrap(err, "catalog: encode")
	}
	return buf.Bytes(), nil
}

// Save writes the catalog to path in one shot. The data goes to a temp
// file in the same directory which is then renamed over path, so a failed
// write leaves the previous file intact.
func Save(path string, c model.Catalog) error {
	data, err := Encode(c)
	if err != nil {
		return err
	}

	mode := fs.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return eris.Wrapf(err, "catalog: create temp for %s", path)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return eris.Wrapf(err, "catalog: write %s", tmpPath)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return eris.Wrapf(err, "catalog: sync %s", tmpPath)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "catalog: close %s", tmpPath)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return eris.Wrapf(err, "catalog: chmod %s", tmpPath)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return eris.Wrapf(err, "catalog: replace %s", path)
	}
	return nil
}

// AddProduct inserts product under name and saves the catalog. It returns
// false without writing when name already exists and overwrite is off.
// Every source needs an http(s) URL and the number of sources must be
// within MinSources..MaxSources.
func AddProduct(path, name string, product *model.Product, overwrite bool) (bool, error) {
	if err := validateProduct(name, product); err != nil {
		return false, err
	}

	c, err := LoadOrEmpty(path)
	if err != nil {
		return false, err
	}
	if _, exists := c[name]; exists && !overwrite {
		return false, nil
	}

	for _, s := range product.Sources {
		if s.Prices == nil {
			s.Prices = []model.Observation{}
		}
	}
	c[name] = product

	if err := Save(path, c); err != nil {
		return false, err
	}
	return true, nil
}

func validateProduct(name string, p *model.Product) error {
	if strings.TrimSpace(name) == "" {
		return eris.New("catalog: product name is required")
	}
	if p == nil {
		return eris.Errorf("catalog: product %q is nil", name)
	}
	if n := len(p.Sources); n < MinSources || n > MaxSources {
		return eris.Errorf("catalog: product %q has %d sources, want %d to %d", name, n, MinSources, MaxSources)
	}
	for src, s := range p.Sources {
		if strings.TrimSpace(src) == "" {
			return eris.Errorf("catalog: product %q has a source with no name", name)
		}
		if s == nil || !strings.HasPrefix(s.URL, "http") {
			return eris.Errorf("catalog: source %q of %q needs a URL starting with http", src, name)
		}
	}
	return nil
}

// normalized returns c with nil slices and maps replaced by empty ones so
// they encode as [] and {} rather than null.
func normalized(c model.Catalog) model.Catalog {
	if c == nil {
		return model.Catalog{}
	}
	for _, p := range c {
		if p == nil {
			continue
		}
		if p.Sources == nil {
			p.Sources = map[string]*model.Source{}
		}
		for _, s := range p.Sources {
			if s != nil && s.Prices == nil {
				s.Prices = []model.Observation{}
			}
		}
	}
	return c
}
