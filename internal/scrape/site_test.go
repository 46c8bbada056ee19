package scrape

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/price-tracker/internal/fetcher"
)

// stubFetcher serves canned text per URL.
type stubFetcher struct {
	pages map[string]string
	err   error
	calls []string
}

func (f *stubFetcher) Get(_ context.Context, url string) (*fetcher.Page, error) {
	f.calls = append(f.calls, url)
	if f.err != nil {
		return nil, f.err
	}
	text, ok := f.pages[url]
	if !ok {
		return nil, &fetcher.Error{Kind: fetcher.KindStatus, URL: url, StatusCode: 404}
	}
	return &fetcher.Page{URL: url, StatusCode: 200, Body: []byte(text), Text: text, Charset: "utf-8"}, nil
}

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func TestMicrocenter_Extract(t *testing.T) {
	ex := NewMicrocenter(&stubFetcher{})
	page := readFixture(t, "microcenter.html")

	listing, err := ex.Extract("https://www.microcenter.com/product/688526", page)
	require.NoError(t, err)
	assert.InDelta(t, 409.99, listing.Price, 1e-9)
	assert.Equal(t, "USD", listing.Currency)
	assert.Equal(t, "Corsair", listing.Brand)
	assert.Equal(t, "CMH32GX5M2M6000Z36", listing.Model)
}

func TestMicrocenter_MissingBrandFails(t *testing.T) {
	ex := NewMicrocenter(&stubFetcher{})
	page := `<script>{'productPrice':'19.99','mpn':'ABC-1'}</script>{"priceCurrency":"USD"}`

	_, err := ex.Extract("https://www.microcenter.com/product/1", page)
	require.Error(t, err)

	var ee *ExtractError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, []string{"brand"}, ee.Missing)
}

func TestMicrocenter_MissingPrice(t *testing.T) {
	ex := NewMicrocenter(&stubFetcher{})
	page := `<script>{'brand':'Corsair','mpn':'CMH32GX5M2M6000Z36'}</script>{"priceCurrency":"USD"}`

	_, err := ex.Extract("https://www.microcenter.com/product/688526", page)

	var ee *ExtractError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "microcenter", ee.Site)
	assert.Equal(t, []string{"price"}, ee.Missing)
}

func TestNewegg_Extract(t *testing.T) {
	ex := NewNewegg(&stubFetcher{})
	page := readFixture(t, "newegg.html")

	listing, err := ex.Extract("https://www.newegg.com/p/N82E16820374642", page)
	require.NoError(t, err)
	assert.InDelta(t, 359.99, listing.Price, 1e-9)
	assert.Equal(t, "USD", listing.Currency)
	assert.Equal(t, "G.SKILL", listing.Brand)
	assert.Equal(t, "F5-6000J3636F16GX2-RM5NRK", listing.Model)
}

func TestNewegg_ReversedKeyOrderAndThousands(t *testing.T) {
	ex := NewNewegg(&stubFetcher{})
	page := `{"priceCurrency":"USD","price":"1,299.00"} {"brand":"ASUS","model":"ROG-X"} Key=\"Brand\" Value=\"ASUS\"`

	price, currency, ok := ex.ExtractPriceCurrency(page)
	require.True(t, ok)
	assert.InDelta(t, 1299.0, price, 1e-9)
	assert.Equal(t, "USD", currency)

	mdl, ok := ex.ExtractModel(page)
	require.True(t, ok)
	assert.Equal(t, "ROG-X", mdl)
}

func TestNewegg_MissingPrice(t *testing.T) {
	ex := NewNewegg(&stubFetcher{})
	_, err := ex.Extract("https://www.newegg.com/p/1", "<html>redesigned</html>")

	var ee *ExtractError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "newegg", ee.Site)
	assert.Equal(t, []string{"price", "currency", "brand", "model"}, ee.Missing)
	assert.Contains(t, err.Error(), "could not find price, currency, brand, model on newegg page")
}

func TestShopBLT_Extract(t *testing.T) {
	ex := NewShopBLT(&stubFetcher{})
	page := readFixture(t, "shopblt.html")

	listing, err := ex.Extract("https://www.shopblt.com/item/4xem-4xusbcusbc3ft/4xem_4xusbcus.html", page)
	require.NoError(t, err)
	assert.InDelta(t, 37.05, listing.Price, 1e-9)
	assert.Equal(t, "USD", listing.Currency)
	assert.Equal(t, "4XEM", listing.Brand)
	assert.Equal(t, "4XUSBCUSBC3FT", listing.Model)
}

func TestShopBLT_PriceOnly(t *testing.T) {
	ex := NewShopBLT(&stubFetcher{})
	listing, err := ex.Extract("https://www.shopblt.com/item/x.html", "<td>YOUR PRICE:</td><td><b>$1,037.50</b></td>")
	require.NoError(t, err)
	assert.InDelta(t, 1037.5, listing.Price, 1e-9)
	assert.Equal(t, "USD", listing.Currency)
	assert.Empty(t, listing.Brand)
	assert.Empty(t, listing.Model)
}

func TestShopBLT_NoPrice(t *testing.T) {
	ex := NewShopBLT(&stubFetcher{})
	_, err := ex.Extract("https://www.shopblt.com/item/x.html", "<td>Call for price</td>")

	var ee *ExtractError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, []string{"price"}, ee.Missing)
}

func TestSite_ScrapeWrapsFetchError(t *testing.T) {
	f := &stubFetcher{err: &fetcher.Error{Kind: fetcher.KindNetwork, URL: "u", Err: context.DeadlineExceeded}}
	ex := NewShopBLT(f)

	_, err := ex.Scrape(context.Background(), "https://www.shopblt.com/item/x.html")
	require.Error(t, err)

	var se *SiteError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "shopblt", se.Site)

	var fe *fetcher.Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, fetcher.KindNetwork, fe.Kind)
}

func TestSite_Scrape(t *testing.T) {
	url := "https://www.microcenter.com/product/688526"
	f := &stubFetcher{pages: map[string]string{url: readFixture(t, "microcenter.html")}}
	ex := NewMicrocenter(f)

	listing, err := ex.Scrape(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, "Corsair", listing.Brand)
	assert.Equal(t, []string{url}, f.calls)
}

func TestSite_Fetch(t *testing.T) {
	url := "https://www.shopblt.com/item/x.html"
	ex := NewShopBLT(&stubFetcher{pages: map[string]string{url: "<td>Your Price:</td>"}})

	text, err := ex.Fetch(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, "<td>Your Price:</td>", text)

	_, err = ex.Fetch(context.Background(), "https://www.shopblt.com/missing.html")
	assert.Error(t, err)
}

func TestSite_ScrapeSmallPageWithCaptchaScript(t *testing.T) {
	url := "https://www.shopblt.com/item/x.html"
	page := `<html><head><script src="https://www.google.com/recaptcha/api.js"></script></head>` +
		`<body><table><tr><td>Your Price:</td><td><b>$37.05</b></td></tr></table></body></html>`
	ex := NewShopBLT(&stubFetcher{pages: map[string]string{url: page}})

	listing, err := ex.Scrape(context.Background(), url)
	require.NoError(t, err)
	assert.InDelta(t, 37.05, listing.Price, 1e-9)
}

func TestSite_ScrapeInterstitialIsBlocked(t *testing.T) {
	url := "https://www.newegg.com/p/1"
	page := `<html><body><div id="px-captcha"></div>Are you a human?</body></html>`
	ex := NewNewegg(&stubFetcher{pages: map[string]string{url: page}})

	_, err := ex.Scrape(context.Background(), url)
	require.Error(t, err)
	assert.True(t, IsBlocked(err))

	var fe *fetcher.Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, fetcher.BlockCaptcha, fe.Block)
	assert.Equal(t, 200, fe.StatusCode)
}

func TestSite_ScrapeExtractFailureNotBlocked(t *testing.T) {
	url := "https://www.newegg.com/p/1"
	ex := NewNewegg(&stubFetcher{pages: map[string]string{url: "<html>redesigned</html>"}})

	_, err := ex.Scrape(context.Background(), url)
	require.Error(t, err)
	assert.False(t, IsBlocked(err))

	var ee *ExtractError
	assert.True(t, errors.As(err, &ee))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "4XEM", normalize("&nbsp;4XEM&nbsp;"))
	assert.Equal(t, "G. Skill", normalize(" G.  Skill\t"))
	assert.Equal(t, "", normalize("&#160;"))
}
