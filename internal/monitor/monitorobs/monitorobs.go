package monitorobs

import (
	"context"
	"time"

	"github.com/shashwatraajsingh/TRADEETH/internal/logger"
	"github.com/shashwatraajsingh/TRADEETH/internal/monitor"
	"github.com/shashwatraajsingh/TRADEETH/internal/trace"
)

type observableScanner struct {
	scanner monitor.Scanner
}

var _ monitor.Scanner = (*observableScanner)(nil)

func Wrap(s monitor.Scanner) monitor.Scanner {
	return &observableScanner{
		scanner: s,
	}
}

func (os *observableScanner) Tick(ctx context.Context) (*monitor.TickResult, error) {
	ctx, span := trace.StartSpan(ctx, "monitor.Tick")
	defer span.End()

	start := time.Now()

	result, err := os.scanner.Tick(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Order pass failed", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	if result.Buys > 0 || result.Sells > 0 {
		logger.InfoSkip(ctx, 1, "Order pass completed",
			"price_usd", result.PriceUSD,
			"scanned", result.Scanned,
			"buys", result.Buys,
			"sells", result.Sells,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	} else {
		logger.Debug(ctx, "Order pass completed",
			"price_usd", result.PriceUSD,
			"scanned", result.Scanned,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}

	return result, nil
}
