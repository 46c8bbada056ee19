package scrape

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/price-tracker/internal/fetcher"
	"github.com/sells-group/price-tracker/internal/model"
)

// Status is the kind of outcome a dispatch produced.
type Status string

const (
	StatusOK          Status = "ok"
	StatusUnsupported Status = "unsupported"
	StatusFailed      Status = "failed"
)

// Outcome is the uniform result of scraping one URL. Listing is set only
// for StatusOK; Err only for StatusFailed.
type Outcome struct {
	Status  Status
	Site    string
	URL     string
	Listing *model.Listing
	Err     error
}

// OK reports whether a listing was extracted.
func (o Outcome) OK() bool {
	return o.Status == StatusOK
}

// Reason describes a non-success outcome for reports.
func (o Outcome) Reason() string {
	switch o.Status {
	case StatusOK:
		return ""
	case StatusUnsupported:
		return "unsupported site"
	}
	if o.Err == nil {
		return "failed"
	}
	return o.Err.Error()
}

// Dispatcher routes URLs to extractors in a fixed priority order.
type Dispatcher struct {
	extractors []Extractor
	// breakers is nil when retailer breakers are disabled.
	breakers *Breakers
}

// NewDispatcher creates a Dispatcher. Extractors are consulted in the order
// given; the first whose domain appears in the URL wins.
func NewDispatcher(extractors ...Extractor) *Dispatcher {
	return &Dispatcher{extractors: extractors}
}

// Options configures the sessions built by NewDefaultDispatcher.
type Options struct {
	Session fetcher.SessionOptions
	// RatePerSec spaces requests to the same retailer. Zero disables it.
	RatePerSec float64
	Burst      int
	// BreakerThreshold is the number of consecutive anti-bot blocks after
	// which a retailer is skipped for BreakerReset. Zero disables it.
	BreakerThreshold int
	BreakerReset     time.Duration
}

// NewDefaultDispatcher wires the supported retailers, each with its own
// session and limiter.
func NewDefaultDispatcher(opts Options) *Dispatcher {
	session := func(o fetcher.SessionOptions) *fetcher.Session {
		if opts.RatePerSec > 0 {
			burst := opts.Burst
			if burst < 1 {
				burst = 1
			}
			o.Limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), burst)
		}
		return fetcher.NewSession(o)
	}

	d := NewDispatcher(
		NewMicrocenter(session(MicrocenterSessionOptions(opts.Session))),
		NewNewegg(session(NeweggSessionOptions(opts.Session))),
		NewShopBLT(session(ShopBLTSessionOptions(opts.Session))),
	)
	if opts.BreakerThreshold > 0 {
		d.WithBreakers(NewBreakers(BreakerConfig{
			Threshold:    opts.BreakerThreshold,
			ResetTimeout: opts.BreakerReset,
		}))
	}
	return d
}

// WithBreakers enables per-retailer breakers and returns d.
func (d *Dispatcher) WithBreakers(bs *Breakers) *Dispatcher {
	d.breakers = bs
	return d
}

// Domains lists the supported domains in routing order.
func (d *Dispatcher) Domains() []string {
	out := make([]string, 0, len(d.extractors))
	for _, ex := range d.extractors {
		out = append(out, ex.Domain())
	}
	return out
}

// Route returns the extractor for url, or nil when no supported domain
// appears in it.
func (d *Dispatcher) Route(url string) Extractor {
	lower := strings.ToLower(url)
	for _, ex := range d.extractors {
		if strings.Contains(lower, ex.Domain()) {
			return ex
		}
	}
	return nil
}

// Scrape routes url and runs its extractor. It never returns an error or
// panics: every failure is folded into the Outcome.
func (d *Dispatcher) Scrape(ctx context.Context, url string) (out Outcome) {
	ex := d.Route(url)
	if ex == nil {
		zap.L().Debug("scrape: unsupported site", zap.String("url", url))
		return Outcome{Status: StatusUnsupported, URL: url}
	}

	out = Outcome{Site: ex.Name(), URL: url}
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("scrape: extractor panicked",
				zap.String("site", out.Site),
				zap.String("url", url),
				zap.Any("panic", r),
			)
			out.Status = StatusFailed
			out.Listing = nil
			out.Err = eris.Errorf("%s: extractor panicked: %v", out.Site, r)
		}
	}()

	var breaker *Breaker
	if d.breakers != nil {
		breaker = d.breakers.Get(ex.Name())
		if err := breaker.Allow(); err != nil {
			out.Status = StatusFailed
			out.Err = &SiteError{Site: out.Site, URL: url, Err: err}
			return out
		}
	}

	listing, err := ex.Scrape(ctx, url)
	if breaker != nil {
		breaker.Record(err)
	}
	if err != nil {
		out.Status = StatusFailed
		out.Err = err
		return out
	}
	if listing == nil {
		out.Status = StatusFailed
		out.Err = eris.Errorf("%s: no listing returned for %s", out.Site, url)
		return out
	}

	out.Status = StatusOK
	out.Listing = listing
	return out
}
