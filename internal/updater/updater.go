// Package updater runs a batch price capture across the whole catalog.
package updater

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/price-tracker/internal/catalog"
	"github.com/sells-group/price-tracker/internal/model"
	"github.com/sells-group/price-tracker/internal/scrape"
)

// Scraper dispatches a single URL. *scrape.Dispatcher implements it.
type Scraper interface {
	Scrape(ctx context.Context, url string) scrape.Outcome
}

// Failure records a source that produced no observation.
type Failure struct {
	Product string        `json:"product"`
	Source  string        `json:"source"`
	URL     string        `json:"url"`
	Status  scrape.Status `json:"status"`
	Reason  string        `json:"reason"`
}

// Report summarizes one UpdateAll run.
type Report struct {
	RunID       string    `json:"run_id"`
	Timestamp   string    `json:"timestamp"`
	Updated     int       `json:"updated"`
	Failed      int       `json:"failed"`
	Unsupported int       `json:"unsupported"`
	Skipped     int       `json:"skipped"`
	Failures    []Failure `json:"failures,omitempty"`
}

// Option configures an Updater.
type Option func(*Updater)

// WithClock overrides the capture clock.
func WithClock(now func() time.Time) Option {
	return func(u *Updater) { u.now = now }
}

// WithRunID overrides run ID generation.
func WithRunID(newID func() string) Option {
	return func(u *Updater) { u.newID = newID }
}

// Updater appends one observation per scrapable source per run.
type Updater struct {
	scraper Scraper
	now     func() time.Time
	newID   func() string
}

// New creates an Updater that scrapes through s.
func New(s Scraper, opts ...Option) *Updater {
	u := &Updater{
		scraper: s,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// UpdateAll loads the catalog at path, scrapes every source and writes the
// catalog back. All observations from the run share one timestamp. A
// missing or malformed catalog aborts before any fetch and nothing is
// written. If ctx is cancelled mid-run the remaining sources are skipped and
// the observations already captured are still saved.
func (u *Updater) UpdateAll(ctx context.Context, path string) (*Report, error) {
	c, err := catalog.Load(path)
	if err != nil {
		return nil, err
	}

	report := u.Run(ctx, c)

	if err := catalog.Save(path, c); err != nil {
		return report, eris.Wrapf(err, "updater: save run %s", report.RunID)
	}
	return report, nil
}

// Run captures prices into c in place and returns the report. It performs
// no file I/O.
func (u *Updater) Run(ctx context.Context, c model.Catalog) *Report {
	report := &Report{
		RunID:     u.newID(),
		Timestamp: model.FormatTimestamp(u.now()),
	}

	log := zap.L().With(
		zap.String("component", "updater"),
		zap.String("run_id", report.RunID),
	)
	log.Info("starting price update",
		zap.Int("products", len(c)),
		zap.Int("sources", c.SourceCount()),
		zap.String("timestamp", report.Timestamp),
	)

	for _, name := range c.Names() {
		product := c[name]
		if product == nil {
			continue
		}
		for _, srcName := range product.SourceNames() {
			src := product.Sources[srcName]
			flog := log.With(zap.String("product", name), zap.String("source", srcName))

			if ctx.Err() != nil {
				report.Skipped++
				continue
			}
			if src.URL == "" {
				flog.Warn("source has no url, skipping")
				report.Skipped++
				continue
			}

			out := u.scraper.Scrape(ctx, src.URL)
			switch out.Status {
			case scrape.StatusOK:
				src.Prices = append(src.Prices, out.Listing.Observation(report.Timestamp))
				report.Updated++
				flog.Info("captured price",
					zap.Float64("price", out.Listing.Price),
					zap.String("currency", out.Listing.Currency),
				)
			case scrape.StatusUnsupported:
				report.Unsupported++
				report.Failures = append(report.Failures, failure(name, srcName, src.URL, out))
				flog.Debug("unsupported site", zap.String("url", src.URL))
			default:
				report.Failed++
				report.Failures = append(report.Failures, failure(name, srcName, src.URL, out))
				flog.Warn("price capture failed",
					zap.String("url", src.URL),
					zap.String("site", out.Site),
					zap.Error(out.Err),
				)
			}
		}
	}

	if ctx.Err() != nil {
		log.Warn("price update interrupted", zap.Int("skipped", report.Skipped))
	}
	log.Info("price update complete",
		zap.Int("updated", report.Updated),
		zap.Int("failed", report.Failed),
		zap.Int("unsupported", report.Unsupported),
		zap.Int("skipped", report.Skipped),
	)
	return report
}

func failure(product, source, url string, out scrape.Outcome) Failure {
	return Failure{
		Product: product,
		Source:  source,
		URL:     url,
		Status:  out.Status,
		Reason:  out.Reason(),
	}
}
