// Package analytics derives read-only views over a product's price history.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/sells-group/price-tracker/internal/model"
)

// SourcePrice is the most recent observation of one source.
type SourcePrice struct {
	Source      string            `json:"source" yaml:"source"`
	URL         string            `json:"url" yaml:"url"`
	Observation model.Observation `json:"observation" yaml:"observation"`
}

// BestPoint is the cheapest price across sources at one capture time.
type BestPoint struct {
	Timestamp string    `json:"timestamp" yaml:"timestamp"`
	Time      time.Time `json:"-" yaml:"-"`
	Price     float64   `json:"price" yaml:"price"`
	Currency  string    `json:"currency,omitempty" yaml:"currency,omitempty"`
	Source    string    `json:"source" yaml:"source"`
}

// Entry is one observation in flattened iteration order.
type Entry struct {
	Source      string            `json:"source" yaml:"source"`
	Index       int               `json:"index" yaml:"index"`
	Observation model.Observation `json:"observation" yaml:"observation"`
}

// Summary combines the analytics for one product.
type Summary struct {
	Name          string                 `json:"name" yaml:"name"`
	Model         string                 `json:"model" yaml:"model"`
	Category      string                 `json:"category" yaml:"category"`
	Observations  int                    `json:"observations" yaml:"observations"`
	Latest        map[string]SourcePrice `json:"latest" yaml:"latest"`
	Best          *BestPoint             `json:"best,omitempty" yaml:"best,omitempty"`
	PercentChange *float64               `json:"percent_change,omitempty" yaml:"percent_change,omitempty"`
	Series        []BestPoint            `json:"series" yaml:"series"`
}

// Latest returns the last appended observation of every source that has
// one.
func Latest(p *model.Product) map[string]SourcePrice {
	out := make(map[string]SourcePrice)
	if p == nil {
		return out
	}
	for name, src := range p.Sources {
		if src == nil || len(src.Prices) == 0 {
			continue
		}
		out[name] = SourcePrice{
			Source:      name,
			URL:         src.URL,
			Observation: src.Prices[len(src.Prices)-1],
		}
	}
	return out
}

// BestSeries groups observations by timestamp and keeps the minimum price
// of each group, ordered by capture time. Observations whose timestamp
// does not parse are ignored. Ties go to the source that sorts first.
func BestSeries(p *model.Product) []BestPoint {
	if p == nil {
		return nil
	}

	best := make(map[string]*BestPoint)
	for _, name := range p.SourceNames() {
		src := p.Sources[name]
		if src == nil {
			continue
		}
		for _, obs := range src.Prices {
			t, err := obs.Time()
			if err != nil {
				continue
			}
			cur, ok := best[obs.Timestamp]
			if ok && cur.Price <= obs.Price {
				continue
			}
			best[obs.Timestamp] = &BestPoint{
				Timestamp: obs.Timestamp,
				Time:      t,
				Price:     obs.Price,
				Currency:  obs.Currency,
				Source:    name,
			}
		}
	}

	series := make([]BestPoint, 0, len(best))
	for _, bp := range best {
		series = append(series, *bp)
	}
	sort.Slice(series, func(i, j int) bool {
		if series[i].Time.Equal(series[j].Time) {
			return series[i].Timestamp < series[j].Timestamp
		}
		return series[i].Time.Before(series[j].Time)
	})
	return series
}

// PercentChange is the change of the best price from the first to the
// last capture, in percent. It reports false with fewer than two captures
// or a zero starting price.
func PercentChange(p *model.Product) (float64, bool) {
	series := BestSeries(p)
	if len(series) < 2 {
		return 0, false
	}
	first, last := series[0].Price, series[len(series)-1].Price
	if first == 0 {
		return 0, false
	}
	pct := (last - first) / first * 100
	return math.Round(pct*100) / 100, true
}

// Flatten lists every observation in source-name order, then capture order.
func Flatten(p *model.Product) []Entry {
	if p == nil {
		return nil
	}
	var out []Entry
	for _, name := range p.SourceNames() {
		src := p.Sources[name]
		if src == nil {
			continue
		}
		for i, obs := range src.Prices {
			out = append(out, Entry{Source: name, Index: i, Observation: obs})
		}
	}
	return out
}

// Summarize builds the Summary for the product stored under name.
func Summarize(name string, p *model.Product) Summary {
	s := Summary{Name: name, Latest: Latest(p), Series: BestSeries(p)}
	if p == nil {
		return s
	}
	s.Model = p.Model
	s.Category = p.Category
	s.Observations = len(Flatten(p))
	if n := len(s.Series); n > 0 {
		last := s.Series[n-1]
		s.Best = &last
	}
	if pct, ok := PercentChange(p); ok {
		s.PercentChange = &pct
	}
	return s
}
