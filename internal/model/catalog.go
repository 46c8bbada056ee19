package model

import (
	"sort"
	"time"
)

// TimestampLayout is the ISO-8601 local-time layout used for observation
// timestamps. It carries microseconds and no zone offset.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// DefaultCurrency is recorded when a retailer does not state one.
const DefaultCurrency = "USD"

// Catalog maps a product display name to its tracked record.
type Catalog map[string]*Product

// Product is a tracked hardware component and its retailer sources.
type Product struct {
	Model    string             `json:"model" yaml:"model"`
	Category string             `json:"category" yaml:"category"`
	Sources  map[string]*Source `json:"sources" yaml:"sources"`
}

// Source is one retailer listing of a product along with its price history.
// Prices are kept in insertion order, which is capture order.
type Source struct {
	URL    string        `json:"url" yaml:"url"`
	Prices []Observation `json:"prices" yaml:"prices"`
}

// Observation is a single captured price.
type Observation struct {
	Price     float64 `json:"price" yaml:"price"`
	Timestamp string  `json:"timestamp" yaml:"timestamp"`
	Currency  string  `json:"currency,omitempty" yaml:"currency,omitempty"`
}

// Time parses the observation timestamp. Timestamps written with a zone
// offset or without fractional seconds are accepted too.
func (o Observation) Time() (time.Time, error) {
	return ParseTimestamp(o.Timestamp)
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseTimestamp parses a stored observation timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.Local)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// Names returns the product names in sorted order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SourceNames returns the product's source names in sorted order.
func (p *Product) SourceNames() []string {
	names := make([]string, 0, len(p.Sources))
	for name := range p.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SourceCount returns the total number of sources across all products.
func (c Catalog) SourceCount() int {
	n := 0
	for _, p := range c {
		if p != nil {
			n += len(p.Sources)
		}
	}
	return n
}
