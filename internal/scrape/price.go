package scrape

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
)

// ParsePrice parses a US-formatted price such as "1,234.56" or "$37.05".
// Thousands separators are dropped; negative values are rejected.
func ParsePrice(s string) (float64, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, "$")
	clean = strings.ReplaceAll(clean, ",", "")
	if clean == "" {
		return 0, eris.Errorf("price: empty value %q", s)
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, eris.Wrapf(err, "price: parse %q", s)
	}
	if d.IsNegative() {
		return 0, eris.Errorf("price: negative value %q", s)
	}

	return d.InexactFloat64(), nil
}
