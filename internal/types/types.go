package types

import (
	"time"

	"github.com/google/uuid"
)

// TxKind tags a ledger transaction. Only send transactions carry a
// counterparty address.
type TxKind string

const (
	TxBuy  TxKind = "buy"
	TxSell TxKind = "sell"
	TxSend TxKind = "send"
)

// Transaction is an immutable ledger entry. Entries are append-only and
// ordered by append time.
type Transaction struct {
	Kind         TxKind    `json:"kind"`
	Amount       float64   `json:"amount"`
	Counterparty string    `json:"counterparty,omitempty"`
	Price        float64   `json:"price"`
	USDValue     float64   `json:"usd_value"`
	Timestamp    time.Time `json:"timestamp"`
	Reference    string    `json:"reference"`
}

// ConditionalOrder is a buy-then-sell pair bound to a fixed amount.
// Lifecycle: pending (active, not bought) -> bought -> sold (inactive).
// Fill fields are written exactly once, at the tick that transitions the
// order.
type ConditionalOrder struct {
	ID        string  `json:"id"`
	BuyPrice  float64 `json:"buy_price"`
	SellPrice float64 `json:"sell_price"`
	Amount    float64 `json:"amount"`
	Active    bool    `json:"active"`

	Bought        bool      `json:"bought"`
	BuyExecutedAt time.Time `json:"buy_executed_at"`
	BuyReference  string    `json:"buy_reference,omitempty"`
	BuyFillPrice  float64   `json:"buy_fill_price,omitempty"`

	Sold           bool      `json:"sold"`
	SellExecutedAt time.Time `json:"sell_executed_at"`
	SellReference  string    `json:"sell_reference,omitempty"`
	SellFillPrice  float64   `json:"sell_fill_price,omitempty"`

	RealizedProfit    float64 `json:"realized_profit,omitempty"`
	RealizedProfitPct float64 `json:"realized_profit_pct,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewConditionalOrder returns an armed order awaiting its buy trigger.
func NewConditionalOrder(buyPrice, sellPrice, amount float64, now time.Time) ConditionalOrder {
	return ConditionalOrder{
		ID:        uuid.NewString(),
		BuyPrice:  buyPrice,
		SellPrice: sellPrice,
		Amount:    amount,
		Active:    true,
		CreatedAt: now,
	}
}

// Pending reports whether the order is still waiting for its buy leg.
func (o *ConditionalOrder) Pending() bool { return o.Active && !o.Bought }

// Holding reports whether the buy leg filled and the sell leg is armed.
func (o *ConditionalOrder) Holding() bool { return o.Active && o.Bought && !o.Sold }

// Account is the durable per-user record. Address and CustodyKey are
// assigned at creation and never reassigned. Balance mirrors the on-chain
// balance and is advisory only.
type Account struct {
	Address    string             `json:"address"`
	CustodyKey string             `json:"custody_key"`
	Balance    float64            `json:"balance"`
	Ledger     []Transaction      `json:"ledger"`
	Orders     []ConditionalOrder `json:"orders"`
}
