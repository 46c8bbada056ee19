package fetcher

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultUserAgent is a current desktop Chrome user agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/120.0.0.0 Safari/537.36"

const (
	defaultAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	defaultAcceptLanguage = "en-US,en;q=0.9"
	defaultTimeout        = 20 * time.Second
	defaultMaxBodyBytes   = 8 << 20
)

// SessionOptions configures a Session.
type SessionOptions struct {
	UserAgent      string
	AcceptLanguage string
	// Referer is sent on every request, normally the retailer's home page.
	Referer string
	Timeout time.Duration
	// Decompress asks for gzip/deflate explicitly and decodes the body
	// in-process, keeping the raw bytes when decompression fails.
	Decompress     bool
	DefaultCharset string
	MaxBodyBytes   int64
	// Limiter spaces consecutive requests. Nil means no limit.
	Limiter *rate.Limiter
}

// Session is a browser-like HTTP client with its own cookie jar. One
// Session belongs to one retailer; it is not shared.
type Session struct {
	client *http.Client
	opts   SessionOptions
}

// NewSession creates a Session, filling unset options with defaults.
func NewSession(opts SessionOptions) *Session {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.AcceptLanguage == "" {
		opts.AcceptLanguage = defaultAcceptLanguage
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.DefaultCharset == "" {
		opts.DefaultCharset = "utf-8"
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}

	// cookiejar.New only fails on a broken PublicSuffixList.
	jar, _ := cookiejar.New(nil)

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout: 10 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableKeepAlives:   true,
	}

	return &Session{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
			Jar:       jar,
		},
		opts: opts,
	}
}

// Options returns the effective options.
func (s *Session) Options() SessionOptions {
	return s.opts
}

// Get fetches rawURL and decodes the body to text.
func (s *Session) Get(ctx context.Context, rawURL string) (*Page, error) {
	if s.opts.Limiter != nil {
		if err := s.opts.Limiter.Wait(ctx); err != nil {
			return nil, classify(rawURL, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{Kind: KindUnexpected, URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", s.opts.UserAgent)
	req.Header.Set("Accept", defaultAccept)
	req.Header.Set("Accept-Language", s.opts.AcceptLanguage)
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	if s.opts.Referer != "" {
		req.Header.Set("Referer", s.opts.Referer)
	}
	if s.opts.Decompress {
		// Setting this by hand turns off the transport's transparent gzip.
		req.Header.Set("Accept-Encoding", "gzip, deflate")
	}
	req.Close = true

	zap.L().Debug("fetch: GET", zap.String("url", rawURL))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, classify(rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, s.opts.MaxBodyBytes+1))
	if err != nil {
		return nil, classify(rawURL, err)
	}
	overLimit := int64(len(raw)) > s.opts.MaxBodyBytes
	if overLimit {
		raw = raw[:s.opts.MaxBodyBytes]
	}

	body := raw
	if s.opts.Decompress && !overLimit {
		body, overLimit = decompress(raw, resp.Header.Get("Content-Encoding"), s.opts.MaxBodyBytes)
	}

	// Body markers on a 2xx page are left to the extractor, which only
	// treats them as a block when the listing cannot be read.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if blocked, bt := DetectBlock(resp.StatusCode, resp.Header, body); blocked {
			return nil, &Error{Kind: KindBlocked, URL: rawURL, StatusCode: resp.StatusCode, Block: bt}
		}
		return nil, statusError(rawURL, resp.StatusCode)
	}
	if overLimit {
		zap.L().Warn("fetch: body exceeds size limit",
			zap.String("url", rawURL),
			zap.Int64("max_body_bytes", s.opts.MaxBodyBytes),
		)
		return nil, tooLargeError(rawURL, resp.StatusCode, s.opts.MaxBodyBytes)
	}

	text, charset := decodeText(body, resp.Header.Get("Content-Type"), s.opts.DefaultCharset)

	return &Page{
		URL:        rawURL,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		Text:       text,
		Charset:    charset,
	}, nil
}
