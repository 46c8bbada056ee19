package scrape

import (
	"regexp"

	"github.com/sells-group/price-tracker/internal/fetcher"
	"github.com/sells-group/price-tracker/internal/model"
)

const (
	ShopBLTDomain = "shopblt.com"
	shopBLTHome   = "https://www.shopblt.com/"
)

// ShopBLT pages are server-rendered tables; labels and values are separated
// by an arbitrary run of tags.
const tagRun = `(?:</?\w+[^>]*>\s*)*`

var (
	shopBLTPrices = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Your(?:\s|&nbsp;)*Price\s*:\s*` + tagRun + `\$(?P<price>[0-9,]+\.\d{2})`),
		regexp.MustCompile(`(?i)Your(?:\s|&nbsp;)*Price[^$]*\$(?P<price>[0-9,]+\.\d{2})`),
	}
	shopBLTBrands = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Manufacturer\s*:\s*` + tagRun + `Mfg\.\s*:\s*` + tagRun + `(?P<value>[^<\n\r]+)`),
		regexp.MustCompile(`(?i)Manufacturer\s*:\s*` + tagRun + `(?P<value>[^<\n\r]+)`),
		regexp.MustCompile(`(?i)\bMfg\.\s*:\s*` + tagRun + `(?P<value>[^<\n\r]+)`),
	}
	shopBLTModels = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Mfg\.\s*Part\s*#\s*:\s*` + tagRun + `(?P<value>[A-Za-z0-9._/-]+)`),
		regexp.MustCompile(`(?i)Mfg\s*Part\s*#\s*:\s*` + tagRun + `(?P<value>[A-Za-z0-9._/-]+)`),
		regexp.MustCompile(`(?i)\bPart\s*#\s*:\s*` + tagRun + `(?P<value>[A-Za-z0-9._/-]+)`),
	}
)

// ShopBLT extracts listings from shopblt.com product pages. Only price is
// required; prices are always quoted in US dollars and brand and model are
// best effort.
type ShopBLT struct {
	site
}

// NewShopBLT returns a ShopBLT extractor fetching through f.
func NewShopBLT(f fetcher.Fetcher) *ShopBLT {
	return &ShopBLT{site{
		name:          "shopblt",
		domain:        ShopBLTDomain,
		fetcher:       f,
		prices:        shopBLTPrices,
		fixedCurrency: model.DefaultCurrency,
		brands:        shopBLTBrands,
		models:        shopBLTModels,
	}}
}

// ShopBLTSessionOptions adapts base for shopblt.com. The shop sets a
// session cookie on first contact and expects it back.
func ShopBLTSessionOptions(base fetcher.SessionOptions) fetcher.SessionOptions {
	base.Referer = shopBLTHome
	base.Decompress = true
	return base
}
