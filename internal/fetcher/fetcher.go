// Package fetcher retrieves retailer product pages over HTTP and turns the
// response bytes into text the extractors can pattern-match.
package fetcher

import (
	"context"
	"net/http"
)

// Fetcher retrieves a single page.
type Fetcher interface {
	// Get issues a GET for url and returns the decoded page. Any failure is
	// returned as an *Error.
	Get(ctx context.Context, url string) (*Page, error)
}

// Page is a fetched and decoded response.
type Page struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte // decompressed bytes
	Text       string // Body decoded to UTF-8
	Charset    string // charset used to decode Body
}
