package dialog

import (
	"fmt"
	"strings"

	"github.com/shashwatraajsingh/TRADEETH/internal/ledger"
	"github.com/shashwatraajsingh/TRADEETH/internal/types"
)

// Button is one inline menu option: Label is shown to the user, Token
// comes back as a menu-selection event.
type Button struct {
	Label string
	Token string
}

func row(label, token string) []Button {
	return []Button{{Label: label, Token: token}}
}

func mainMenuKeyboard() [][]Button {
	return [][]Button{
		row("💰 Deposit", tokDeposit),
		row("📊 Trade", tokTrade),
		row("🤖 Auto-Trade", tokAutoTrade),
		row("💼 Portfolio", tokPortfolio),
	}
}

func backToMenuKeyboard() [][]Button {
	return [][]Button{row("⬅️ Back to Menu", tokBackToMenu)}
}

func backToAutoTradeKeyboard() [][]Button {
	return [][]Button{row("⬅️ Back", tokBackToAutoTrade)}
}

func tradeMenuKeyboard() [][]Button {
	return [][]Button{
		row("Buy ETH", tokBuyETH),
		row("Sell ETH", tokSellETH),
		row("Send ETH", tokSendETH),
		row("⬅️ Back to Menu", tokBackToMenu),
	}
}

func autoTradeMenuKeyboard() [][]Button {
	return [][]Button{
		row("Set Up Auto-Trade", tokSetupAutoTrade),
		row("View Active Auto-Trades", tokViewAutoTrades),
		row("⬅️ Back to Menu", tokBackToMenu),
	}
}

func confirmKeyboard() [][]Button {
	return [][]Button{{
		{Label: "Confirm", Token: tokConfirmAutoTrade},
		{Label: "Cancel", Token: tokCancelAutoTrade},
	}}
}

func (e *Engine) welcomeText(address string, returning bool) string {
	if returning {
		return fmt.Sprintf(
			"Welcome back to ETH Trading Bot (%s)! 🚀\n\n"+
				"Your wallet address:\n%s\n\n"+
				"Need more test ETH? Visit: %s",
			e.networkLabel(), address, e.cfg.FaucetURL)
	}
	return fmt.Sprintf(
		"Welcome to ETH Trading Bot (%s)! 🚀\n\n"+
			"Your unique wallet address for deposits:\n%s\n\n"+
			"Get free test ETH from faucets like:\n%s\n\n"+
			"After getting test ETH, deposit to this address to start trading.",
		e.networkLabel(), address, e.cfg.FaucetURL)
}

func (e *Engine) depositText(address string) string {
	return fmt.Sprintf(
		"Deposit ETH to your unique wallet address:\n\n%s\n\n"+
			"Get free test ETH from:\n%s\n\n"+
			"After sending funds, it may take a few minutes for your balance to update.",
		address, e.cfg.FaucetURL)
}

func (e *Engine) faucetText() string {
	return fmt.Sprintf(
		"🚰 Testnet ETH Faucets 🚰\n\n"+
			"Get free %s ETH from these faucets:\n\n"+
			"1. %s\n"+
			"2. https://www.infura.io/faucet/sepolia\n"+
			"3. https://faucet.quicknode.com/ethereum/sepolia\n\n"+
			"You'll need some test ETH to use the trading features.",
		e.cfg.Network, e.cfg.FaucetURL)
}

func (e *Engine) portfolioText(a types.Account, price float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💼 Your Portfolio (%s):\n\n", e.networkLabel())
	fmt.Fprintf(&b, "ETH Balance: %.6f ETH\n", a.Balance)
	fmt.Fprintf(&b, "Value: $%.2f\n", a.Balance*price)
	fmt.Fprintf(&b, "Current ETH Price: $%.2f\n", price)

	b.WriteString("\n🤖 Auto-Trades:\n")
	if len(a.Orders) == 0 {
		b.WriteString("No active auto-trades.\n")
	}
	for i, o := range a.Orders {
		fmt.Fprintf(&b, "#%d: Buy at $%.2f, Sell at $%.2f, Amount %.6f ETH (%s)\n",
			i+1, o.BuyPrice, o.SellPrice, o.Amount, orderPhase(o))
	}

	recent := false
	for tx := range ledger.Recent(&a, 5) {
		if !recent {
			b.WriteString("\n🧾 Recent Transactions:\n")
			recent = true
		}
		fmt.Fprintf(&b, "%s %.6f ETH @ $%.2f ($%.2f)\n", tx.Kind, tx.Amount, tx.Price, tx.USDValue)
	}
	return b.String()
}

func orderPhase(o types.ConditionalOrder) string {
	switch {
	case o.Sold:
		return "completed"
	case o.Bought:
		return "holding"
	default:
		return "waiting for buy"
	}
}

func draftSummaryText(buyPrice, sellPrice, amount, current float64) string {
	return fmt.Sprintf(
		"Auto-Trade Setup:\n\n"+
			"Buy ETH at: $%.2f\n"+
			"Sell ETH at: $%.2f\n"+
			"Amount: %.6f ETH\n"+
			"Current ETH Price: $%.2f\n\n"+
			"Confirm this auto-trade setup?",
		buyPrice, sellPrice, amount, current)
}

func (e *Engine) networkLabel() string {
	// "sepolia" -> "Sepolia Testnet"
	if e.cfg.Network == "" {
		return "Testnet"
	}
	return strings.ToUpper(e.cfg.Network[:1]) + e.cfg.Network[1:] + " Testnet"
}
