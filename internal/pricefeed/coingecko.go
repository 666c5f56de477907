package pricefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shashwatraajsingh/TRADEETH/internal/api"
	"github.com/shashwatraajsingh/TRADEETH/internal/logger"
)

var ErrNoSources = errors.New("pricefeed: no sources available")

// CoinGecko fetches the spot price from the CoinGecko simple-price API.
type CoinGecko struct {
	client *api.Client
}

// NewCoinGecko creates a CoinGecko feed rooted at baseURL
// (normally https://api.coingecko.com/api/v3).
func NewCoinGecko(baseURL string, timeout time.Duration) *CoinGecko {
	return &CoinGecko{
		client: api.NewClient(
			api.WithBaseURL(baseURL),
			api.WithTimeout(timeout),
			api.WithHeader("Accept", "application/json"),
			api.WithLogging(true),
		),
	}
}

type simplePriceResponse struct {
	Ethereum struct {
		USD float64 `json:"usd"`
	} `json:"ethereum"`
}

func (g *CoinGecko) FetchSpotPrice(ctx context.Context) (float64, error) {
	resp, err := g.client.GET(ctx, "/simple/price?ids=ethereum&vs_currencies=usd")
	if err != nil {
		return 0, fmt.Errorf("pricefeed: coingecko request: %w", err)
	}

	var body simplePriceResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return 0, fmt.Errorf("pricefeed: coingecko decode: %w", err)
	}
	if body.Ethereum.USD <= 0 {
		return 0, fmt.Errorf("pricefeed: coingecko returned non-positive price %.4f", body.Ethereum.USD)
	}

	logger.Debug(ctx, "Spot price fetched", "source", "coingecko", "price_usd", body.Ethereum.USD)
	return body.Ethereum.USD, nil
}
