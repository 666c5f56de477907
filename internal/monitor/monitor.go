// Package monitor evaluates armed conditional orders against the spot
// price. Each pass takes one price snapshot, applies every triggered leg
// through a single batched store write, and announces fills only after
// that write committed.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shashwatraajsingh/TRADEETH/internal/ledger"
	"github.com/shashwatraajsingh/TRADEETH/internal/logger"
	"github.com/shashwatraajsingh/TRADEETH/internal/store"
	"github.com/shashwatraajsingh/TRADEETH/internal/types"
)

// Notifier delivers a fill announcement to one user.
type Notifier interface {
	Notify(ctx context.Context, userID, message string) error
}

// PriceSource supplies the spot price for a pass.
type PriceSource interface {
	CurrentPrice(ctx context.Context) float64
}

// Scanner runs one evaluation pass over all armed orders.
type Scanner interface {
	Tick(ctx context.Context) (*TickResult, error)
}

// TickResult summarizes one pass.
type TickResult struct {
	PriceUSD float64
	Scanned  int
	Buys     int
	Sells    int
}

type Monitor struct {
	store    *store.Store
	prices   PriceSource
	notifier Notifier

	notifyWG sync.WaitGroup
}

var _ Scanner = (*Monitor)(nil)

func New(st *store.Store, prices PriceSource, notifier Notifier) *Monitor {
	return &Monitor{store: st, prices: prices, notifier: notifier}
}

// fill is one executed leg, held back until the batch write commits.
type fill struct {
	userID  string
	message string
	journal ledger.JournalEntry
}

// Tick evaluates every order once against a single price snapshot. A buy
// leg fires when the price is at or below the order's buy price; the
// sell leg of the same order is only eligible on a later pass. All
// mutations of the pass land in one snapshot write, so a crash can never
// persist half a pass.
func (m *Monitor) Tick(ctx context.Context) (*TickResult, error) {
	price := m.prices.CurrentPrice(ctx)
	if price <= 0 {
		logger.Warn(ctx, "No usable price, skipping pass")
		return &TickResult{}, nil
	}

	res := &TickResult{PriceUSD: price}
	var fills []fill

	err := m.store.MutateAll(ctx, func(accounts map[string]*types.Account) (bool, error) {
		now := time.Now()
		for userID, a := range accounts {
			for i := range a.Orders {
				o := &a.Orders[i]
				if !o.Active {
					continue
				}
				res.Scanned++

				switch {
				case o.Pending() && price <= o.BuyPrice:
					fills = append(fills, m.executeBuyLeg(ctx, userID, a, o, price, now))
					res.Buys++
				case o.Holding() && price >= o.SellPrice:
					fills = append(fills, m.executeSellLeg(ctx, userID, a, o, price, now))
					res.Sells++
				}
			}
		}
		return len(fills) > 0, nil
	})
	if err != nil {
		logger.ErrorWithErr(ctx, "Order pass could not be persisted", err, "price_usd", price)
		return nil, err
	}

	for _, f := range fills {
		if err := ledger.Journal(f.journal); err != nil {
			logger.Warn(ctx, "Journal write failed", "error", err, "reference", f.journal.Reference)
		}
	}

	// Fills are durable at this point, so announcements go out off the
	// tick goroutine: a slow transport must not delay the next pass's
	// store write. A failed send is logged and the rest still go out.
	m.notifyWG.Add(len(fills))
	for _, f := range fills {
		go func(f fill) {
			defer m.notifyWG.Done()
			if err := m.notifier.Notify(ctx, f.userID, f.message); err != nil {
				logger.Warn(ctx, "Fill notification failed", "error", err, "user_id", f.userID)
			}
		}(f)
	}
	return res, nil
}

func (m *Monitor) executeBuyLeg(ctx context.Context, userID string, a *types.Account, o *types.ConditionalOrder, price float64, now time.Time) fill {
	ref := uuid.NewString()
	o.Bought = true
	o.BuyExecutedAt = now
	o.BuyReference = ref
	o.BuyFillPrice = price

	a.Balance += o.Amount
	ledger.Append(a, types.Transaction{
		Kind:      types.TxBuy,
		Amount:    o.Amount,
		Price:     price,
		USDValue:  o.Amount * price,
		Timestamp: now,
		Reference: ref,
	})

	logger.Fill(ctx, userID, "buy", o.Amount, price, ref, "trigger_usd", o.BuyPrice)
	return fill{
		userID: userID,
		message: fmt.Sprintf(
			"🤖 Auto-trade executed!\n\nBought %.6f ETH at $%.2f (target was $%.2f).\nNow waiting to sell at $%.2f.",
			o.Amount, price, o.BuyPrice, o.SellPrice),
		journal: ledger.JournalEntry{
			UserID: userID, Kind: types.TxBuy, Amount: o.Amount,
			Price: price, USDValue: o.Amount * price, Reference: ref,
			Extra: map[string]any{"trigger_usd": o.BuyPrice},
		},
	}
}

func (m *Monitor) executeSellLeg(ctx context.Context, userID string, a *types.Account, o *types.ConditionalOrder, price float64, now time.Time) fill {
	ref := uuid.NewString()
	o.Sold = true
	o.Active = false
	o.SellExecutedAt = now
	o.SellReference = ref
	o.SellFillPrice = price
	o.RealizedProfit = o.Amount * (price - o.BuyFillPrice)
	if o.BuyFillPrice > 0 {
		o.RealizedProfitPct = (price - o.BuyFillPrice) / o.BuyFillPrice * 100
	}

	a.Balance -= o.Amount
	ledger.Append(a, types.Transaction{
		Kind:      types.TxSell,
		Amount:    o.Amount,
		Price:     price,
		USDValue:  o.Amount * price,
		Timestamp: now,
		Reference: ref,
	})

	logger.Fill(ctx, userID, "sell", o.Amount, price, ref,
		"trigger_usd", o.SellPrice, "profit_usd", o.RealizedProfit)
	return fill{
		userID: userID,
		message: fmt.Sprintf(
			"🤖 Auto-trade completed!\n\nSold %.6f ETH at $%.2f (target was $%.2f).\nProfit: $%.2f (%.2f%%).",
			o.Amount, price, o.SellPrice, o.RealizedProfit, o.RealizedProfitPct),
		journal: ledger.JournalEntry{
			UserID: userID, Kind: types.TxSell, Amount: o.Amount,
			Price: price, USDValue: o.Amount * price, Reference: ref,
			Extra: map[string]any{
				"trigger_usd": o.SellPrice,
				"profit_usd":  o.RealizedProfit,
			},
		},
	}
}
