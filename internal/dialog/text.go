package dialog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shashwatraajsingh/TRADEETH/internal/ledger"
	"github.com/shashwatraajsingh/TRADEETH/internal/logger"
	"github.com/shashwatraajsingh/TRADEETH/internal/session"
	"github.com/shashwatraajsingh/TRADEETH/internal/types"
	"github.com/shashwatraajsingh/TRADEETH/internal/wallet"
)

var errInsufficientFunds = errors.New("insufficient balance")

// parseAmount accepts a positive finite real number, with an optional
// leading "$" for the price prompts. ParseFloat accepts "NaN" and
// "Inf", and NaN slips past a <= 0 check, so non-finite values are
// rejected explicitly.
func parseAmount(text string) (float64, error) {
	cleaned := strings.TrimPrefix(strings.TrimSpace(text), "$")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a positive number: %q", text)
	}
	return v, nil
}

// HandleText processes free-form input. Outside an input-collecting
// state the text is ignored and the main menu is re-shown; inside one,
// invalid input re-prompts without leaving the state.
func (e *Engine) HandleText(ctx context.Context, userID, text string) {
	e.sessions.With(userID, func(s *session.Session) {
		switch s.State {
		case session.SetBuyPrice:
			v, err := parseAmount(text)
			if err != nil {
				e.send(ctx, userID, "Please enter a valid positive number for the buy price:", nil)
				return
			}
			s.Draft.BuyPrice = v
			s.State = session.SetSellPrice
			e.send(ctx, userID,
				fmt.Sprintf("Buy price set to $%.2f.\n\nEnter the price at which you want to SELL ETH (in USD):", v),
				nil)

		case session.SetSellPrice:
			v, err := parseAmount(text)
			if err != nil {
				e.send(ctx, userID, "Please enter a valid positive number for the sell price:", nil)
				return
			}
			s.Draft.SellPrice = v
			s.State = session.SetAmount
			e.send(ctx, userID,
				fmt.Sprintf("Sell price set to $%.2f.\n\nEnter the amount of ETH to trade:", v),
				nil)

		case session.SetAmount:
			v, err := parseAmount(text)
			if err != nil {
				e.send(ctx, userID, "Please enter a valid positive amount of ETH:", nil)
				return
			}
			s.Draft.Amount = v
			s.State = session.ConfirmAutoTrade
			current := e.oracle.CurrentPrice(ctx)
			e.send(ctx, userID,
				draftSummaryText(s.Draft.BuyPrice, s.Draft.SellPrice, s.Draft.Amount, current),
				confirmKeyboard())

		case session.ConfirmAutoTrade:
			e.send(ctx, userID, "Please use the buttons to confirm or cancel the auto-trade.", confirmKeyboard())

		case session.EnterBuyAmount:
			v, err := parseAmount(text)
			if err != nil {
				e.send(ctx, userID, "Please enter a valid positive amount of ETH to buy:", nil)
				return
			}
			e.executeBuy(ctx, userID, s, v)

		case session.EnterSellAmount:
			v, err := parseAmount(text)
			if err != nil {
				e.send(ctx, userID, "Please enter a valid positive amount of ETH to sell:", nil)
				return
			}
			e.executeSell(ctx, userID, s, v)

		case session.EnterSendAddress:
			addr := strings.TrimSpace(text)
			if err := wallet.ValidateAddress(addr); err != nil {
				e.send(ctx, userID, "That doesn't look like a valid address. Enter a 0x-prefixed address:", nil)
				return
			}
			s.SendTarget = addr
			s.State = session.EnterSendAmount
			e.send(ctx, userID, "Enter the amount of ETH to send:", nil)

		case session.EnterSendAmount:
			v, err := parseAmount(text)
			if err != nil {
				e.send(ctx, userID, "Please enter a valid positive amount of ETH to send:", nil)
				return
			}
			e.executeSend(ctx, userID, s, v)

		default:
			e.send(ctx, userID, "What would you like to do?", mainMenuKeyboard())
		}
	})
}

// executeBuy records an immediate market buy at the current spot price.
func (e *Engine) executeBuy(ctx context.Context, userID string, s *session.Session, amount float64) {
	current := e.oracle.CurrentPrice(ctx)
	ref := reference()
	now := time.Now()

	_, err := e.store.Mutate(ctx, userID, func(a *types.Account) error {
		a.Balance += amount
		ledger.Append(a, types.Transaction{
			Kind:      types.TxBuy,
			Amount:    amount,
			Price:     current,
			USDValue:  amount * current,
			Timestamp: now,
			Reference: ref,
		})
		return nil
	})
	if err != nil {
		logger.ErrorWithErr(ctx, "Buy execution failed", err, "user_id", userID, "amount", amount)
		e.send(ctx, userID, "The buy could not be recorded. Please try again.", nil)
		return
	}

	logger.Trade(ctx, userID, string(types.TxBuy), amount, current, ref)
	if err := ledger.Journal(ledger.JournalEntry{
		UserID: userID, Kind: types.TxBuy, Amount: amount,
		Price: current, USDValue: amount * current, Reference: ref,
	}); err != nil {
		logger.Warn(ctx, "Journal write failed", "error", err, "reference", ref)
	}

	s.Reset()
	e.send(ctx, userID, fmt.Sprintf(
		"✅ Bought %.6f ETH at $%.2f (total $%.2f).", amount, current, amount*current),
		mainMenuKeyboard())
}

// executeSell records an immediate market sell at the current spot
// price. The balance check runs inside the store write that debits, so
// two racing sells cannot both pass it.
func (e *Engine) executeSell(ctx context.Context, userID string, s *session.Session, amount float64) {
	current := e.oracle.CurrentPrice(ctx)
	ref := reference()
	now := time.Now()

	_, err := e.store.Mutate(ctx, userID, func(a *types.Account) error {
		if amount > a.Balance {
			return fmt.Errorf("%w: have %.6f, want %.6f", errInsufficientFunds, a.Balance, amount)
		}
		a.Balance -= amount
		ledger.Append(a, types.Transaction{
			Kind:      types.TxSell,
			Amount:    amount,
			Price:     current,
			USDValue:  amount * current,
			Timestamp: now,
			Reference: ref,
		})
		return nil
	})
	if errors.Is(err, errInsufficientFunds) {
		e.send(ctx, userID, "You don't have enough ETH for that. Enter a smaller amount:", nil)
		return
	}
	if err != nil {
		logger.ErrorWithErr(ctx, "Sell execution failed", err, "user_id", userID, "amount", amount)
		e.send(ctx, userID, "The sell could not be recorded. Please try again.", nil)
		return
	}

	logger.Trade(ctx, userID, string(types.TxSell), amount, current, ref)
	if err := ledger.Journal(ledger.JournalEntry{
		UserID: userID, Kind: types.TxSell, Amount: amount,
		Price: current, USDValue: amount * current, Reference: ref,
	}); err != nil {
		logger.Warn(ctx, "Journal write failed", "error", err, "reference", ref)
	}

	s.Reset()
	e.send(ctx, userID, fmt.Sprintf(
		"✅ Sold %.6f ETH at $%.2f (total $%.2f).", amount, current, amount*current),
		mainMenuKeyboard())
}

// executeSend debits the balance and records the transfer. The balance
// check runs inside the same store write that debits, so two racing
// sends cannot both pass it.
func (e *Engine) executeSend(ctx context.Context, userID string, s *session.Session, amount float64) {
	target := s.SendTarget
	current := e.oracle.CurrentPrice(ctx)
	ref := reference()
	now := time.Now()

	_, err := e.store.Mutate(ctx, userID, func(a *types.Account) error {
		if amount > a.Balance {
			return fmt.Errorf("%w: have %.6f, want %.6f", errInsufficientFunds, a.Balance, amount)
		}
		a.Balance -= amount
		ledger.Append(a, types.Transaction{
			Kind:         types.TxSend,
			Amount:       amount,
			Counterparty: target,
			Price:        current,
			USDValue:     amount * current,
			Timestamp:    now,
			Reference:    ref,
		})
		return nil
	})
	if errors.Is(err, errInsufficientFunds) {
		e.send(ctx, userID, "You don't have enough ETH for that. Enter a smaller amount:", nil)
		return
	}
	if err != nil {
		logger.ErrorWithErr(ctx, "Send execution failed", err, "user_id", userID, "amount", amount)
		e.send(ctx, userID, "The transfer could not be recorded. Please try again.", nil)
		return
	}

	logger.Trade(ctx, userID, string(types.TxSend), amount, current, ref, "counterparty", target)
	if err := ledger.Journal(ledger.JournalEntry{
		UserID: userID, Kind: types.TxSend, Amount: amount,
		Price: current, USDValue: amount * current, Reference: ref,
		Extra: map[string]any{"counterparty": target},
	}); err != nil {
		logger.Warn(ctx, "Journal write failed", "error", err, "reference", ref)
	}

	s.Reset()
	e.send(ctx, userID, fmt.Sprintf(
		"✅ Sent %.6f ETH to %s.", amount, target), mainMenuKeyboard())
}
