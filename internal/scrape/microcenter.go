package scrape

import (
	"regexp"

	"github.com/sells-group/price-tracker/internal/fetcher"
)

const (
	MicrocenterDomain = "microcenter.com"
	microcenterHome   = "https://www.microcenter.com/"
)

// Micro Center renders product data into an analytics dataLayer push with
// single-quoted keys, and a JSON-LD block carries the offer currency.
var (
	microcenterPrices = []*regexp.Regexp{
		regexp.MustCompile(`'productPrice'\s*:\s*'(?P<price>[\d,]+(?:\.\d+)?)'`),
		regexp.MustCompile(`"price"\s*:\s*"?(?P<price>[\d,]+(?:\.\d+)?)`),
	}
	microcenterCurrencies = []*regexp.Regexp{
		regexp.MustCompile(`"priceCurrency"\s*:\s*"(?P<value>[A-Z]{3})"`),
		regexp.MustCompile(`'currencyCode'\s*:\s*'(?P<value>[A-Z]{3})'`),
	}
	microcenterBrands = []*regexp.Regexp{
		regexp.MustCompile(`'brand'\s*:\s*'(?P<value>[^']+)'`),
		regexp.MustCompile(`"brand"\s*:\s*\{[^}]*?"name"\s*:\s*"(?P<value>[^"]+)"`),
	}
	microcenterModels = []*regexp.Regexp{
		regexp.MustCompile(`'mpn'\s*:\s*'(?P<value>[^']+)'`),
		regexp.MustCompile(`"mpn"\s*:\s*"(?P<value>[^"]+)"`),
	}
)

// Microcenter extracts listings from microcenter.com product pages. Price,
// currency, brand and model are all required.
type Microcenter struct {
	site
}

// NewMicrocenter returns a Micro Center extractor fetching through f.
func NewMicrocenter(f fetcher.Fetcher) *Microcenter {
	return &Microcenter{site{
		name:              "microcenter",
		domain:            MicrocenterDomain,
		fetcher:           f,
		prices:            microcenterPrices,
		currencies:        microcenterCurrencies,
		brands:            microcenterBrands,
		models:            microcenterModels,
		requireBrandModel: true,
	}}
}

// MicrocenterSessionOptions adapts base for microcenter.com. The transport
// negotiates compression itself for this site.
func MicrocenterSessionOptions(base fetcher.SessionOptions) fetcher.SessionOptions {
	base.Referer = microcenterHome
	base.Decompress = false
	return base
}
