// Package price implements the spot-price oracle. It layers a single-slot
// TTL cache and an upstream rate limiter over a pricefeed.Feed and never
// returns an error: the monitor and the dialog both need a price on every
// tick and turn.
package price

import (
	"context"
	"sync"
	"time"

	"github.com/shashwatraajsingh/TRADEETH/internal/logger"
	"github.com/shashwatraajsingh/TRADEETH/internal/pricefeed"
)

// Oracle caches the last fetched price for TTL and refuses to hit the
// upstream more often than MinInterval. When a refresh is rate-limited and
// a cached value exists, the stale value is returned immediately; only a
// cold-start caller with no cached value blocks until the limiter allows
// a fetch. On upstream failure the last known value is returned, or the
// configured fallback when nothing was ever fetched.
type Oracle struct {
	feed        pricefeed.Feed
	ttl         time.Duration
	minInterval time.Duration
	fallback    float64

	// injectable for tests
	now   func() time.Time
	sleep func(time.Duration)

	mu          sync.Mutex
	cached      float64
	fetchedAt   time.Time
	lastAttempt time.Time
}

// Options configures the oracle.
type Options struct {
	TTL         time.Duration
	MinInterval time.Duration
	FallbackUSD float64
}

// NewOracle creates an oracle over feed.
func NewOracle(feed pricefeed.Feed, opts Options) *Oracle {
	if opts.TTL <= 0 {
		opts.TTL = 60 * time.Second
	}
	if opts.MinInterval <= 0 {
		opts.MinInterval = 10 * time.Second
	}
	if opts.FallbackUSD <= 0 {
		opts.FallbackUSD = 2000
	}
	return &Oracle{
		feed:        feed,
		ttl:         opts.TTL,
		minInterval: opts.MinInterval,
		fallback:    opts.FallbackUSD,
		now:         time.Now,
		sleep:       time.Sleep,
	}
}

// CurrentPrice returns a positive spot price. Callers serialize on the
// oracle mutex, so at most one upstream fetch is in flight at a time and
// the cache slot is written exactly once per successful fetch.
func (o *Oracle) CurrentPrice(ctx context.Context) float64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.now()
	if !o.fetchedAt.IsZero() && now.Sub(o.fetchedAt) < o.ttl {
		return o.cached
	}

	if !o.lastAttempt.IsZero() {
		if wait := o.minInterval - now.Sub(o.lastAttempt); wait > 0 {
			if o.cached > 0 {
				logger.Debug(ctx, "Price refresh rate-limited, serving stale value",
					"cached_usd", o.cached, "stale_for", now.Sub(o.fetchedAt).String())
				return o.cached
			}
			// Cold start with no cached value: wait out the limiter.
			o.sleep(wait)
		}
	}

	o.lastAttempt = o.now()
	price, err := o.feed.FetchSpotPrice(ctx)
	if err != nil {
		if o.cached > 0 {
			logger.Warn(ctx, "Upstream price fetch failed, serving last known value",
				"error", err, "cached_usd", o.cached)
			return o.cached
		}
		logger.Warn(ctx, "Upstream price fetch failed with empty cache, serving fallback",
			"error", err, "fallback_usd", o.fallback)
		return o.fallback
	}

	o.cached = price
	o.fetchedAt = o.now()
	logger.Debug(ctx, "Price cache refreshed", "price_usd", price)
	return price
}
