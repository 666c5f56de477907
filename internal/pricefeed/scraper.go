package pricefeed

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/shashwatraajsingh/TRADEETH/internal/logger"
)

// Scraper extracts the ETH spot price from public quote pages. It is the
// fallback when the JSON API is unavailable.
type Scraper struct {
	sources []ScrapeSource
	timeout time.Duration
}

// ScrapeSource defines a quote-page source configuration
type ScrapeSource struct {
	Name          string
	URL           string
	PriceSelector string
	RateLimit     time.Duration
}

// NewScraper creates a price scraper with default sources
func NewScraper(timeout time.Duration) *Scraper {
	return &Scraper{
		sources: getDefaultSources(),
		timeout: timeout,
	}
}

// getDefaultSources returns the quote pages to scrape, in preference order
func getDefaultSources() []ScrapeSource {
	return []ScrapeSource{
		{
			Name:          "CoinMarketCap",
			URL:           "https://coinmarketcap.com/currencies/ethereum/",
			PriceSelector: "span[data-test='text-cdp-price-display']",
			RateLimit:     2 * time.Second,
		},
		{
			Name:          "CoinGeckoWeb",
			URL:           "https://www.coingecko.com/en/coins/ethereum",
			PriceSelector: "span[data-converter-target='price']",
			RateLimit:     2 * time.Second,
		},
	}
}

// FetchSpotPrice tries each source in order and returns the first price
// that parses as a positive number.
func (s *Scraper) FetchSpotPrice(ctx context.Context) (float64, error) {
	var lastErr error
	for _, source := range s.sources {
		price, err := s.scrapeSource(ctx, source)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to scrape price source", err, "source", source.Name)
			lastErr = err
			time.Sleep(source.RateLimit)
			continue
		}
		logger.Info(ctx, "Spot price scraped", "source", source.Name, "price_usd", price)
		return price, nil
	}
	if lastErr == nil {
		lastErr = ErrNoSources
	}
	return 0, lastErr
}

// scrapeSource visits a single quote page and extracts the price element
func (s *Scraper) scrapeSource(ctx context.Context, source ScrapeSource) (float64, error) {
	c := colly.NewCollector(
		colly.AllowedDomains(getDomain(source.URL)),
		colly.MaxDepth(1),
		colly.Async(false),
	)
	c.SetRequestTimeout(s.timeout)

	// Set user agent to avoid being blocked
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	})

	var (
		price float64
		found bool
	)
	c.OnHTML("body", func(e *colly.HTMLElement) {
		if found {
			return
		}
		p, err := extractPrice(e.DOM, source.PriceSelector)
		if err != nil {
			return
		}
		price = p
		found = true
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.ErrorWithErr(ctx, "Scraping error", err, "source", source.Name, "url", r.Request.URL.String())
	})

	if err := c.Visit(source.URL); err != nil {
		return 0, fmt.Errorf("failed to visit %s: %w", source.URL, err)
	}
	c.Wait()

	if !found {
		return 0, fmt.Errorf("no price element matched %q at %s", source.PriceSelector, source.URL)
	}
	return price, nil
}

// extractPrice pulls the first element matching selector out of the page
// and parses it as a USD amount.
func extractPrice(doc *goquery.Selection, selector string) (float64, error) {
	text := strings.TrimSpace(doc.Find(selector).First().Text())
	if text == "" {
		return 0, fmt.Errorf("empty price element for selector %q", selector)
	}
	return parsePriceText(text)
}

// parsePriceText parses displayed prices like "$2,431.07" or "2431.07 USD"
func parsePriceText(text string) (float64, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", "USD", "", "\u00a0", " ").Replace(text)
	cleaned = strings.TrimSpace(cleaned)
	if i := strings.IndexByte(cleaned, ' '); i >= 0 {
		cleaned = cleaned[:i]
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable price text %q: %w", text, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("non-positive price %q", text)
	}
	return v, nil
}

// getDomain extracts the host from a URL for the collector allowlist
func getDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
