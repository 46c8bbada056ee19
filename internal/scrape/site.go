package scrape

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/price-tracker/internal/fetcher"
	"github.com/sells-group/price-tracker/internal/model"
)

// site is the pattern-driven extractor shared by every retailer variant.
// Each field has an ordered list of patterns; the first one that matches
// wins. Price patterns capture a "price" group and may capture "currency";
// field patterns capture a "value" group.
type site struct {
	name    string
	domain  string
	fetcher fetcher.Fetcher

	prices     []*regexp.Regexp
	currencies []*regexp.Regexp
	// fixedCurrency is used when no pattern yields a currency.
	fixedCurrency string
	brands        []*regexp.Regexp
	models        []*regexp.Regexp

	// requireBrandModel makes brand and model mandatory for success.
	requireBrandModel bool
}

func (s *site) Name() string   { return s.name }
func (s *site) Domain() string { return s.domain }

// Fetch returns the decoded text of the page at url.
func (s *site) Fetch(ctx context.Context, url string) (string, error) {
	page, err := s.fetcher.Get(ctx, url)
	if err != nil {
		return "", err
	}
	return page.Text, nil
}

// ExtractPriceCurrency returns the price and currency, ok only when both
// were found.
func (s *site) ExtractPriceCurrency(page string) (float64, string, bool) {
	price, found, currency := s.matchPrice(page)
	return price, currency, found && currency != ""
}

func (s *site) matchPrice(page string) (float64, bool, string) {
	for _, re := range s.prices {
		m := re.FindStringSubmatch(page)
		if m == nil {
			continue
		}
		price, err := ParsePrice(group(re, m, "price"))
		if err != nil {
			continue
		}

		currency := group(re, m, "currency")
		if currency == "" {
			currency, _ = firstMatch(s.currencies, page)
		}
		if currency == "" {
			currency = s.fixedCurrency
		}
		return price, true, currency
	}
	return 0, false, ""
}

func (s *site) ExtractBrand(page string) (string, bool) {
	return firstMatch(s.brands, page)
}

func (s *site) ExtractModel(page string) (string, bool) {
	return firstMatch(s.models, page)
}

func (s *site) Extract(url, page string) (*model.Listing, error) {
	price, priceOK, currency := s.matchPrice(page)
	if !priceOK {
		currency, _ = firstMatch(s.currencies, page)
		if currency == "" {
			currency = s.fixedCurrency
		}
	}
	brand, brandOK := s.ExtractBrand(page)
	mdl, modelOK := s.ExtractModel(page)

	var missing []string
	if !priceOK {
		missing = append(missing, "price")
	}
	if currency == "" {
		missing = append(missing, "currency")
	}
	if s.requireBrandModel {
		if !brandOK {
			missing = append(missing, "brand")
		}
		if !modelOK {
			missing = append(missing, "model")
		}
	}
	if len(missing) > 0 {
		return nil, &ExtractError{Site: s.name, URL: url, Missing: missing}
	}

	return &model.Listing{
		Price:    price,
		Currency: currency,
		Brand:    brand,
		Model:    mdl,
	}, nil
}

func (s *site) Scrape(ctx context.Context, url string) (*model.Listing, error) {
	page, err := s.fetcher.Get(ctx, url)
	if err != nil {
		return nil, &SiteError{Site: s.name, URL: url, Err: err}
	}

	listing, err := s.Extract(url, page.Text)
	if err != nil {
		// A 2xx page only counts as an interstitial once extraction fails.
		if blocked, bt := fetcher.DetectBlock(page.StatusCode, page.Header, page.Body); blocked {
			err = &fetcher.Error{Kind: fetcher.KindBlocked, URL: url, StatusCode: page.StatusCode, Block: bt}
		}
		return nil, &SiteError{Site: s.name, URL: url, Err: err}
	}

	zap.L().Debug("scrape: extracted listing",
		zap.String("site", s.name),
		zap.String("url", url),
		zap.Float64("price", listing.Price),
		zap.String("currency", listing.Currency),
		zap.String("brand", listing.Brand),
		zap.String("model", listing.Model),
	)
	return listing, nil
}

// firstMatch returns the normalized "value" group of the first pattern that
// matches with a non-empty value.
func firstMatch(patterns []*regexp.Regexp, page string) (string, bool) {
	for _, re := range patterns {
		m := re.FindStringSubmatch(page)
		if m == nil {
			continue
		}
		if v := normalize(group(re, m, "value")); v != "" {
			return v, true
		}
	}
	return "", false
}

func group(re *regexp.Regexp, m []string, name string) string {
	idx := re.SubexpIndex(name)
	if idx < 0 || idx >= len(m) {
		return ""
	}
	return m[idx]
}

var (
	spaceEntities = strings.NewReplacer("&nbsp;", " ", "&#160;", " ", "&#xa0;", " ", "\u00a0", " ")
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// normalize decodes non-breaking space markers, collapses whitespace and
// trims.
func normalize(s string) string {
	s = spaceEntities.Replace(s)
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
