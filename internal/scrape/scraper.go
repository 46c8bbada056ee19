// Package scrape extracts product listings from retailer pages and routes
// URLs to the extractor for their retailer.
package scrape

import (
	"context"
	"fmt"
	"strings"

	"github.com/sells-group/price-tracker/internal/model"
)

// Extractor fetches one retailer's product pages and pulls a listing out of
// the raw text.
type Extractor interface {
	// Name is the short retailer name used in logs and errors.
	Name() string
	// Domain is the hostname substring routed to this extractor.
	Domain() string

	Fetch(ctx context.Context, url string) (string, error)
	ExtractPriceCurrency(page string) (price float64, currency string, ok bool)
	ExtractBrand(page string) (string, bool)
	ExtractModel(page string) (string, bool)
	// Extract applies the retailer's required-field policy to page.
	Extract(url, page string) (*model.Listing, error)
	// Scrape fetches url and extracts from it. A page that fails
	// extraction and looks like an anti-bot interstitial is reported as a
	// blocked fetch.
	Scrape(ctx context.Context, url string) (*model.Listing, error)
}

// SiteError is returned by an extractor for any failure. Err is either a
// *fetcher.Error or an *ExtractError.
type SiteError struct {
	Site string
	URL  string
	Err  error
}

func (e *SiteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Site, e.Err)
}

func (e *SiteError) Unwrap() error {
	return e.Err
}

// ExtractError reports required fields that no pattern matched, usually a
// sign the retailer changed its page template.
type ExtractError struct {
	Site    string
	URL     string
	Missing []string
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("could not find %s on %s page %s", strings.Join(e.Missing, ", "), e.Site, e.URL)
}
