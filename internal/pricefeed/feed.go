// Package pricefeed provides upstream spot-price sources. The oracle in
// internal/price is the only consumer; it layers caching and rate limiting
// on top, so feeds here are free to fail loudly.
package pricefeed

import "context"

// Feed fetches the current ETH spot price in USD.
type Feed interface {
	FetchSpotPrice(ctx context.Context) (float64, error)
}

// Chain tries each feed in order and returns the first successful price.
type Chain struct {
	feeds []Feed
}

func NewChain(feeds ...Feed) *Chain {
	return &Chain{feeds: feeds}
}

func (c *Chain) FetchSpotPrice(ctx context.Context) (float64, error) {
	var lastErr error
	for _, f := range c.feeds {
		price, err := f.FetchSpotPrice(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		return price, nil
	}
	if lastErr == nil {
		lastErr = ErrNoSources
	}
	return 0, lastErr
}
