package scrape

import (
	"regexp"

	"github.com/sells-group/price-tracker/internal/fetcher"
)

const (
	NeweggDomain = "newegg.com"
	neweggHome   = "https://www.newegg.com/"
)

// Newegg embeds a JSON-LD offer and a serialized state blob whose product
// properties appear as escaped markup (Key=\"Brand\" Value=\"...\").
var (
	neweggPrices = []*regexp.Regexp{
		regexp.MustCompile(`"price"\s*:\s*"(?P<price>[0-9,]+(?:\.[0-9]+)?)"\s*,\s*"priceCurrency"\s*:\s*"(?P<currency>[A-Z]{3})"`),
		regexp.MustCompile(`"priceCurrency"\s*:\s*"(?P<currency>[A-Z]{3})"\s*,\s*"price"\s*:\s*"?(?P<price>[0-9,]+(?:\.[0-9]+)?)`),
	}
	neweggBrands = []*regexp.Regexp{
		regexp.MustCompile(`Key=\\"Brand\\"\s+Value=\\"(?P<value>[^\\"]+)\\"`),
		regexp.MustCompile(`"brand"\s*:\s*\{[^}]*?"name"\s*:\s*"(?P<value>[^"]+)"`),
	}
	neweggModels = []*regexp.Regexp{
		regexp.MustCompile(`"brand"\s*:\s*"[^"]+"[\s\S]*?"(?:model|Model|mpn)"\s*:\s*"(?P<value>[^"]+)"`),
		regexp.MustCompile(`Key=\\"Model\\"\s+Value=\\"(?P<value>[^\\"]+)\\"`),
		regexp.MustCompile(`"mpn"\s*:\s*"(?P<value>[^"]+)"`),
	}
)

// Newegg extracts listings from newegg.com product pages. Price, currency,
// brand and model are all required.
type Newegg struct {
	site
}

// NewNewegg returns a Newegg extractor fetching through f.
func NewNewegg(f fetcher.Fetcher) *Newegg {
	return &Newegg{site{
		name:              "newegg",
		domain:            NeweggDomain,
		fetcher:           f,
		prices:            neweggPrices,
		brands:            neweggBrands,
		models:            neweggModels,
		requireBrandModel: true,
	}}
}

// NeweggSessionOptions adapts base for newegg.com.
func NeweggSessionOptions(base fetcher.SessionOptions) fetcher.SessionOptions {
	base.Referer = neweggHome
	base.Decompress = true
	return base
}
