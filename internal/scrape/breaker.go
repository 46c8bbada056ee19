package scrape

import (
	"errors"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/price-tracker/internal/fetcher"
)

// BreakerState is the state of a retailer breaker.
type BreakerState int

const (
	// BreakerClosed lets requests through.
	BreakerClosed BreakerState = iota
	// BreakerOpen rejects requests without touching the network.
	BreakerOpen
	// BreakerHalfOpen lets one probe request through.
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrBreakerOpen is the cause recorded for URLs skipped while a retailer's
// breaker is open.
var ErrBreakerOpen = eris.New("retailer breaker is open")

// BreakerConfig controls when a retailer stops being contacted.
type BreakerConfig struct {
	// Threshold is the number of consecutive tripping failures that opens
	// the breaker.
	Threshold int
	// ResetTimeout is how long the breaker stays open before a probe.
	// Default: 10m.
	ResetTimeout time.Duration
	// ShouldTrip decides which errors count. Default: IsBlocked.
	ShouldTrip func(err error) bool
}

// IsBlocked reports whether err carries an anti-bot block from the fetcher.
func IsBlocked(err error) bool {
	var fe *fetcher.Error
	return errors.As(err, &fe) && fe.Kind == fetcher.KindBlocked
}

// Breaker stops requests to one retailer after it keeps blocking us.
type Breaker struct {
	cfg  BreakerConfig
	site string

	mu       sync.Mutex
	state    BreakerState
	failures int
	openedAt time.Time

	now func() time.Time
}

// NewBreaker creates a closed breaker for site.
func NewBreaker(site string, cfg BreakerConfig) *Breaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 3
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 10 * time.Minute
	}
	if cfg.ShouldTrip == nil {
		cfg.ShouldTrip = IsBlocked
	}
	return &Breaker{cfg: cfg, site: site, now: time.Now}
}

// Allow returns ErrBreakerOpen while the breaker is open.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != BreakerOpen {
		return nil
	}
	if b.now().Sub(b.openedAt) >= b.cfg.ResetTimeout {
		b.transition(BreakerHalfOpen)
		return nil
	}
	return ErrBreakerOpen
}

// Record feeds the result of one request into the breaker.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil || !b.cfg.ShouldTrip(err) {
		b.failures = 0
		if b.state == BreakerHalfOpen {
			b.transition(BreakerClosed)
		}
		return
	}

	b.failures++
	if b.state == BreakerHalfOpen || b.failures >= b.cfg.Threshold {
		b.openedAt = b.now()
		if b.state != BreakerOpen {
			b.transition(BreakerOpen)
		}
	}
}

// State returns the current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) transition(to BreakerState) {
	zap.L().Info("scrape: retailer breaker state change",
		zap.String("site", b.site),
		zap.Stringer("from", b.state),
		zap.Stringer("to", to),
		zap.Int("consecutive_failures", b.failures),
	)
	b.state = to
}

// Breakers holds one breaker per retailer.
type Breakers struct {
	cfg BreakerConfig

	mu sync.Mutex
	m  map[string]*Breaker
}

// NewBreakers creates an empty registry.
func NewBreakers(cfg BreakerConfig) *Breakers {
	return &Breakers{cfg: cfg, m: make(map[string]*Breaker)}
}

// Get returns the breaker for site, creating it on first use.
func (bs *Breakers) Get(site string) *Breaker {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	b, ok := bs.m[site]
	if !ok {
		b = NewBreaker(site, bs.cfg)
		bs.m[site] = b
	}
	return b
}

// States returns a snapshot of every breaker's state.
func (bs *Breakers) States() map[string]BreakerState {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	out := make(map[string]BreakerState, len(bs.m))
	for site, b := range bs.m {
		out[site] = b.State()
	}
	return out
}
