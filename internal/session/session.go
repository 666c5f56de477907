// Package session tracks the per-user conversation state. Sessions are
// process-lifetime only: a restart drops every in-flight draft, and idle
// sessions are swept after a TTL so the registry cannot grow without
// bound.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/shashwatraajsingh/TRADEETH/internal/logger"
)

// State is the current position in the conversation state machine.
type State int

const (
	MainMenu State = iota
	Deposit
	AutoTradeMenu
	SetBuyPrice
	SetSellPrice
	SetAmount
	ConfirmAutoTrade
	EnterBuyAmount
	EnterSellAmount
	EnterSendAddress
	EnterSendAmount
)

var stateNames = map[State]string{
	MainMenu:         "MAIN_MENU",
	Deposit:          "DEPOSIT",
	AutoTradeMenu:    "AUTO_TRADE_MENU",
	SetBuyPrice:      "SET_BUY_PRICE",
	SetSellPrice:     "SET_SELL_PRICE",
	SetAmount:        "SET_AMOUNT",
	ConfirmAutoTrade: "CONFIRM_AUTO_TRADE",
	EnterBuyAmount:   "ENTER_BUY_AMOUNT",
	EnterSellAmount:  "ENTER_SELL_AMOUNT",
	EnterSendAddress: "ENTER_SEND_ADDRESS",
	EnterSendAmount:  "ENTER_SEND_AMOUNT",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// OrderDraft holds the partially collected conditional-order fields.
type OrderDraft struct {
	BuyPrice  float64
	SellPrice float64
	Amount    float64
}

// Session is one user's transient conversation state.
type Session struct {
	State      State
	Draft      OrderDraft
	SendTarget string
}

// Reset returns the session to the main menu and discards all drafts.
func (s *Session) Reset() {
	s.State = MainMenu
	s.Draft = OrderDraft{}
	s.SendTarget = ""
}

type entry struct {
	mu         sync.Mutex
	session    Session
	lastActive time.Time
}

// Manager owns every live session. Turns for the same user serialize on
// the entry mutex, so a flaky transport retrying a turn cannot interleave
// two transitions of one session.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time
}

// NewManager creates a registry sweeping sessions idle longer than ttl.
func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// With runs fn against the user's session, creating a fresh main-menu
// session on first contact. fn runs with the per-user lock held.
func (m *Manager) With(userID string, fn func(*Session)) {
	m.mu.Lock()
	e, ok := m.sessions[userID]
	if !ok {
		e = &entry{}
		m.sessions[userID] = e
	}
	m.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastActive = m.now()
	fn(&e.session)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops sessions idle longer than the TTL and reports how many.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.ttl)
	removed := 0
	for id, e := range m.sessions {
		if e.lastActive.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// SweepLoop sweeps on a fixed interval until ctx is cancelled.
func (m *Manager) SweepLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				logger.Info(ctx, "Idle sessions swept", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
