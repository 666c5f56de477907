// Package dialog drives the turn-based conversation. Each user event is
// one of three kinds: a command, a menu selection, or free text. The
// engine resolves the event against the user's session state, applies
// any durable change through the store, and sends the rendered reply.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shashwatraajsingh/TRADEETH/internal/config"
	"github.com/shashwatraajsingh/TRADEETH/internal/logger"
	"github.com/shashwatraajsingh/TRADEETH/internal/price"
	"github.com/shashwatraajsingh/TRADEETH/internal/session"
	"github.com/shashwatraajsingh/TRADEETH/internal/store"
	"github.com/shashwatraajsingh/TRADEETH/internal/types"
	"github.com/shashwatraajsingh/TRADEETH/internal/wallet"
)

// Menu-selection tokens. The transport echoes these back verbatim when
// the user taps the matching button.
const (
	tokDeposit          = "deposit"
	tokTrade            = "trade"
	tokAutoTrade        = "auto_trade"
	tokPortfolio        = "portfolio"
	tokBackToMenu       = "back_to_menu"
	tokSetupAutoTrade   = "setup_auto_trade"
	tokViewAutoTrades   = "view_auto_trades"
	tokBackToAutoTrade  = "back_to_auto_trade"
	tokBuyETH           = "buy_eth"
	tokSellETH          = "sell_eth"
	tokSendETH          = "send_eth"
	tokConfirmAutoTrade = "confirm_auto_trade"
	tokCancelAutoTrade  = "cancel_auto_trade"

	cancelOrderPrefix = "cancel_trade_"
)

// Sender delivers a rendered reply back to the user. A nil keyboard
// means a plain message.
type Sender interface {
	SendMessage(ctx context.Context, userID, text string, keyboard [][]Button) error
}

// Engine is the conversation core. It holds no per-user state of its
// own; all of that lives in the session manager and the store.
type Engine struct {
	cfg      *config.Config
	store    *store.Store
	oracle   *price.Oracle
	sessions *session.Manager
	sender   Sender
}

func New(cfg *config.Config, st *store.Store, oracle *price.Oracle, sessions *session.Manager, sender Sender) *Engine {
	return &Engine{
		cfg:      cfg,
		store:    st,
		oracle:   oracle,
		sessions: sessions,
		sender:   sender,
	}
}

func (e *Engine) send(ctx context.Context, userID, text string, keyboard [][]Button) {
	if err := e.sender.SendMessage(ctx, userID, text, keyboard); err != nil {
		logger.ErrorWithErr(ctx, "Reply delivery failed", err, "user_id", userID)
	}
}

// HandleCommand processes a slash command. Commands work from any state.
func (e *Engine) HandleCommand(ctx context.Context, userID, command string) {
	cmd := strings.ToLower(strings.TrimSpace(command))
	if i := strings.IndexAny(cmd, " @"); i > 0 {
		cmd = cmd[:i]
	}

	switch cmd {
	case "/start":
		e.handleStart(ctx, userID)
	case "/cancel":
		e.sessions.With(userID, func(s *session.Session) {
			s.Reset()
		})
		e.send(ctx, userID, "Operation cancelled. What would you like to do?", mainMenuKeyboard())
	case "/faucet":
		e.send(ctx, userID, e.faucetText(), backToMenuKeyboard())
	default:
		e.send(ctx, userID, "Unknown command. Use /start, /faucet or /cancel.", mainMenuKeyboard())
	}
}

// handleStart provisions a wallet on first contact and greets returning
// users with their existing address. Address assignment happens exactly
// once per user.
func (e *Engine) handleStart(ctx context.Context, userID string) {
	e.sessions.With(userID, func(s *session.Session) {
		s.Reset()
	})

	if a, err := e.store.Get(userID); err == nil {
		e.send(ctx, userID, e.welcomeText(a.Address, true), mainMenuKeyboard())
		return
	}

	address, custodyKey, err := wallet.NewKeypair()
	if err != nil {
		logger.ErrorWithErr(ctx, "Wallet generation failed", err, "user_id", userID)
		e.send(ctx, userID, "Sorry, something went wrong creating your wallet. Please try /start again.", nil)
		return
	}

	a, err := e.store.Create(ctx, userID, address, custodyKey)
	if errors.Is(err, store.ErrAlreadyExists) {
		// Lost the race against another turn of the same user; the
		// recorded address wins.
		a, err = e.store.Get(userID)
	}
	if err != nil {
		logger.ErrorWithErr(ctx, "Account provisioning failed", err, "user_id", userID)
		e.send(ctx, userID, "Sorry, something went wrong creating your wallet. Please try /start again.", nil)
		return
	}

	e.send(ctx, userID, e.welcomeText(a.Address, false), mainMenuKeyboard())
}

// requireAccount fetches the caller's account, prompting for /start when
// none exists yet.
func (e *Engine) requireAccount(ctx context.Context, userID string) (types.Account, bool) {
	a, err := e.store.Get(userID)
	if errors.Is(err, store.ErrNotFound) {
		e.send(ctx, userID, "You don't have a wallet yet. Send /start to create one.", nil)
		return types.Account{}, false
	}
	if err != nil {
		logger.ErrorWithErr(ctx, "Account lookup failed", err, "user_id", userID)
		e.send(ctx, userID, "Sorry, something went wrong. Please try again.", nil)
		return types.Account{}, false
	}
	return a, true
}

// HandleSelection processes a menu-selection event.
func (e *Engine) HandleSelection(ctx context.Context, userID, token string) {
	if rest, ok := strings.CutPrefix(token, cancelOrderPrefix); ok {
		e.handleCancelOrder(ctx, userID, rest)
		return
	}

	switch token {
	case tokBackToMenu:
		e.sessions.With(userID, func(s *session.Session) { s.Reset() })
		e.send(ctx, userID, "What would you like to do?", mainMenuKeyboard())

	case tokDeposit:
		a, ok := e.requireAccount(ctx, userID)
		if !ok {
			return
		}
		e.sessions.With(userID, func(s *session.Session) { s.State = session.Deposit })
		e.send(ctx, userID, e.depositText(a.Address), backToMenuKeyboard())

	case tokTrade:
		a, ok := e.requireAccount(ctx, userID)
		if !ok {
			return
		}
		current := e.oracle.CurrentPrice(ctx)
		e.send(ctx, userID,
			fmt.Sprintf("Current ETH Price: $%.2f\nYour balance: %.6f ETH ($%.2f)\n\nWhat would you like to do?",
				current, a.Balance, a.Balance*current),
			tradeMenuKeyboard())

	case tokAutoTrade:
		if _, ok := e.requireAccount(ctx, userID); !ok {
			return
		}
		e.sessions.With(userID, func(s *session.Session) { s.State = session.AutoTradeMenu })
		e.send(ctx, userID, "🤖 Auto-Trading Menu\n\nSet up automatic buy-low/sell-high trades.", autoTradeMenuKeyboard())

	case tokPortfolio:
		a, ok := e.requireAccount(ctx, userID)
		if !ok {
			return
		}
		current := e.oracle.CurrentPrice(ctx)
		e.send(ctx, userID, e.portfolioText(a, current), backToMenuKeyboard())

	case tokSetupAutoTrade:
		if _, ok := e.requireAccount(ctx, userID); !ok {
			return
		}
		e.sessions.With(userID, func(s *session.Session) {
			s.Draft = session.OrderDraft{}
			s.State = session.SetBuyPrice
		})
		current := e.oracle.CurrentPrice(ctx)
		e.send(ctx, userID,
			fmt.Sprintf("Current ETH Price: $%.2f\n\nEnter the price at which you want to BUY ETH (in USD):", current),
			nil)

	case tokViewAutoTrades:
		e.handleViewOrders(ctx, userID)

	case tokBackToAutoTrade:
		e.sessions.With(userID, func(s *session.Session) { s.State = session.AutoTradeMenu })
		e.send(ctx, userID, "🤖 Auto-Trading Menu", autoTradeMenuKeyboard())

	case tokBuyETH:
		if _, ok := e.requireAccount(ctx, userID); !ok {
			return
		}
		e.sessions.With(userID, func(s *session.Session) { s.State = session.EnterBuyAmount })
		current := e.oracle.CurrentPrice(ctx)
		e.send(ctx, userID,
			fmt.Sprintf("Current ETH Price: $%.2f\n\nEnter the amount of ETH to buy:", current),
			nil)

	case tokSellETH:
		a, ok := e.requireAccount(ctx, userID)
		if !ok {
			return
		}
		e.sessions.With(userID, func(s *session.Session) { s.State = session.EnterSellAmount })
		current := e.oracle.CurrentPrice(ctx)
		e.send(ctx, userID,
			fmt.Sprintf("Current ETH Price: $%.2f\nYour balance: %.6f ETH\n\nEnter the amount of ETH to sell:",
				current, a.Balance),
			nil)

	case tokSendETH:
		if _, ok := e.requireAccount(ctx, userID); !ok {
			return
		}
		e.sessions.With(userID, func(s *session.Session) {
			s.SendTarget = ""
			s.State = session.EnterSendAddress
		})
		e.send(ctx, userID, "Enter the destination address (0x...):", nil)

	case tokConfirmAutoTrade:
		e.handleConfirmOrder(ctx, userID)

	case tokCancelAutoTrade:
		e.sessions.With(userID, func(s *session.Session) {
			s.Draft = session.OrderDraft{}
			s.State = session.AutoTradeMenu
		})
		e.send(ctx, userID, "Auto-trade setup cancelled.", autoTradeMenuKeyboard())

	default:
		logger.Warn(ctx, "Unknown menu token", "user_id", userID, "token", token)
		e.send(ctx, userID, "What would you like to do?", mainMenuKeyboard())
	}
}

// handleConfirmOrder turns the collected draft into a durable armed
// order. The session only resets after the store write succeeds, so a
// failed save leaves the user free to confirm again.
func (e *Engine) handleConfirmOrder(ctx context.Context, userID string) {
	e.sessions.With(userID, func(s *session.Session) {
		if s.State != session.ConfirmAutoTrade {
			e.send(ctx, userID, "There is no auto-trade setup in progress.", mainMenuKeyboard())
			return
		}
		draft := s.Draft

		_, err := e.store.Mutate(ctx, userID, func(a *types.Account) error {
			a.Orders = append(a.Orders, types.NewConditionalOrder(draft.BuyPrice, draft.SellPrice, draft.Amount, time.Now()))
			return nil
		})
		if err != nil {
			logger.ErrorWithErr(ctx, "Auto-trade creation failed", err, "user_id", userID)
			e.send(ctx, userID, "Saving your auto-trade failed. Please confirm again.", confirmKeyboard())
			return
		}

		logger.Info(ctx, "Auto-trade armed", "user_id", userID,
			"buy_price", draft.BuyPrice, "sell_price", draft.SellPrice, "amount", draft.Amount)
		s.Draft = session.OrderDraft{}
		s.State = session.AutoTradeMenu
		e.send(ctx, userID, fmt.Sprintf(
			"✅ Auto-trade set up successfully!\n\n"+
				"I'll buy %.6f ETH when the price drops to $%.2f and sell when it reaches $%.2f.",
			draft.Amount, draft.BuyPrice, draft.SellPrice), autoTradeMenuKeyboard())
	})
}

// handleViewOrders lists the user's live orders, each with a cancel
// button for the ones still waiting on their buy leg.
func (e *Engine) handleViewOrders(ctx context.Context, userID string) {
	a, ok := e.requireAccount(ctx, userID)
	if !ok {
		return
	}

	var b strings.Builder
	b.WriteString("🤖 Your Auto-Trades:\n\n")
	keyboard := [][]Button{}
	live := 0
	for i, o := range a.Orders {
		if !o.Active {
			continue
		}
		live++
		fmt.Fprintf(&b, "#%d: Buy at $%.2f, Sell at $%.2f, Amount %.6f ETH (%s)\n",
			i+1, o.BuyPrice, o.SellPrice, o.Amount, orderPhase(o))
		if o.Pending() {
			keyboard = append(keyboard, row(
				fmt.Sprintf("❌ Cancel #%d", i+1),
				cancelOrderPrefix+o.ID))
		}
	}
	if live == 0 {
		b.Reset()
		b.WriteString("You have no active auto-trades.")
	}
	keyboard = append(keyboard, row("⬅️ Back", tokBackToAutoTrade))
	e.send(ctx, userID, b.String(), keyboard)
}

// handleCancelOrder removes a pending order by its id. Ids rather than
// slice positions keep a stale keyboard from cancelling the wrong order
// after an earlier cancellation reshuffled the slice. Orders whose buy
// leg has executed are holding funds and cannot be cancelled here.
func (e *Engine) handleCancelOrder(ctx context.Context, userID, orderID string) {
	_, err := e.store.Mutate(ctx, userID, func(a *types.Account) error {
		for i := range a.Orders {
			o := &a.Orders[i]
			if o.ID != orderID {
				continue
			}
			if !o.Active {
				return fmt.Errorf("order %s already completed", orderID)
			}
			if o.Bought {
				return errOrderHolding
			}
			a.Orders = append(a.Orders[:i], a.Orders[i+1:]...)
			return nil
		}
		return fmt.Errorf("order %s not found", orderID)
	})
	switch {
	case errors.Is(err, errOrderHolding):
		e.send(ctx, userID,
			"This auto-trade already bought ETH and is waiting to sell. It can't be cancelled.",
			backToAutoTradeKeyboard())
	case err != nil:
		logger.Warn(ctx, "Auto-trade cancel rejected", "user_id", userID, "order_id", orderID, "error", err)
		e.send(ctx, userID, "That auto-trade no longer exists.", backToAutoTradeKeyboard())
	default:
		logger.Info(ctx, "Auto-trade cancelled", "user_id", userID, "order_id", orderID)
		e.send(ctx, userID, "Auto-trade cancelled.", backToAutoTradeKeyboard())
	}
}

var errOrderHolding = errors.New("order holds a filled buy leg")

// reference returns a fresh execution reference id.
func reference() string {
	return uuid.NewString()
}
