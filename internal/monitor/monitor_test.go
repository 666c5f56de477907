package monitor

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shashwatraajsingh/TRADEETH/internal/ledger"
	"github.com/shashwatraajsingh/TRADEETH/internal/store"
	"github.com/shashwatraajsingh/TRADEETH/internal/types"
)

type stubPrice struct{ usd float64 }

func (s *stubPrice) CurrentPrice(context.Context) float64 { return s.usd }

type recordingNotifier struct {
	mu      sync.Mutex
	failFor map[string]bool
	sent    []string // "userID:message"
	calls   int
}

func (n *recordingNotifier) Notify(_ context.Context, userID, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	if n.failFor[userID] {
		return errors.New("delivery refused")
	}
	n.sent = append(n.sent, userID+":"+message)
	return nil
}

func (n *recordingNotifier) snapshot() (calls int, sent []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls, append([]string(nil), n.sent...)
}

func newTestMonitor(t *testing.T, usd float64) (*Monitor, *stubPrice, *recordingNotifier, *store.Store) {
	t.Helper()
	ledger.SetJournalDir(t.TempDir())

	st, err := store.Open(filepath.Join(t.TempDir(), "user_data.json"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	price := &stubPrice{usd: usd}
	notifier := &recordingNotifier{failFor: map[string]bool{}}
	return New(st, price, notifier), price, notifier, st
}

func seedOrder(t *testing.T, st *store.Store, userID string, o types.ConditionalOrder) {
	t.Helper()
	ctx := context.Background()
	if _, err := st.Create(ctx, userID, "0xabc", "key"); err != nil && !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("Failed to create account: %v", err)
	}
	if _, err := st.Mutate(ctx, userID, func(a *types.Account) error {
		a.Orders = append(a.Orders, o)
		return nil
	}); err != nil {
		t.Fatalf("Failed to seed order: %v", err)
	}
}

func TestBuyLegExecutesOnce(t *testing.T) {
	m, _, notifier, st := newTestMonitor(t, 2400)
	seedOrder(t, st, "u1", types.NewConditionalOrder(2500, 3000, 1.5, time.Now()))
	ctx := context.Background()

	res, err := m.Tick(ctx)
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if res.Buys != 1 || res.Sells != 0 {
		t.Fatalf("Expected 1 buy, got %+v", res)
	}

	a, _ := st.Get("u1")
	o := a.Orders[0]
	if !o.Bought || o.BuyFillPrice != 2400 || o.BuyReference == "" || o.BuyExecutedAt.IsZero() {
		t.Errorf("Buy leg not recorded: %+v", o)
	}
	if !o.Holding() {
		t.Errorf("Order should be holding after the buy leg")
	}
	if a.Balance != 1.5 {
		t.Errorf("Expected balance 1.5, got %.6f", a.Balance)
	}
	if len(a.Ledger) != 1 || a.Ledger[0].Kind != types.TxBuy {
		t.Fatalf("Expected one buy transaction, got %+v", a.Ledger)
	}
	m.notifyWG.Wait()
	if _, sent := notifier.snapshot(); len(sent) != 1 {
		t.Errorf("Expected one notification, got %d", len(sent))
	}

	// Same conditions again: the buy leg must not fire twice.
	firstRef := o.BuyReference
	if _, err := m.Tick(ctx); err != nil {
		t.Fatalf("Second tick failed: %v", err)
	}
	a, _ = st.Get("u1")
	if len(a.Ledger) != 1 {
		t.Errorf("Buy leg executed twice: %d transactions", len(a.Ledger))
	}
	if a.Orders[0].BuyReference != firstRef {
		t.Errorf("Buy reference rewritten on second pass")
	}
}

func TestSellRequiresLaterPassThanBuy(t *testing.T) {
	// Sell target below the buy target: the moment the buy fills, the
	// sell condition already holds. It must still wait for the next pass.
	m, _, _, st := newTestMonitor(t, 2400)
	seedOrder(t, st, "u1", types.NewConditionalOrder(2500, 2300, 1, time.Now()))
	ctx := context.Background()

	res, _ := m.Tick(ctx)
	if res.Buys != 1 || res.Sells != 0 {
		t.Fatalf("First pass must only buy, got %+v", res)
	}
	a, _ := st.Get("u1")
	if a.Orders[0].Sold {
		t.Fatal("Buy and sell legs executed in the same pass")
	}

	res, _ = m.Tick(ctx)
	if res.Sells != 1 {
		t.Fatalf("Second pass should sell, got %+v", res)
	}
}

func TestSellLegRealizesProfit(t *testing.T) {
	m, price, _, st := newTestMonitor(t, 2400)
	seedOrder(t, st, "u1", types.NewConditionalOrder(2500, 3000, 2, time.Now()))
	ctx := context.Background()

	if _, err := m.Tick(ctx); err != nil {
		t.Fatalf("Buy tick failed: %v", err)
	}
	price.usd = 3100
	res, err := m.Tick(ctx)
	if err != nil {
		t.Fatalf("Sell tick failed: %v", err)
	}
	if res.Sells != 1 {
		t.Fatalf("Expected 1 sell, got %+v", res)
	}

	a, _ := st.Get("u1")
	o := a.Orders[0]
	if !o.Sold || o.Active {
		t.Errorf("Order should be completed: %+v", o)
	}
	if o.SellFillPrice != 3100 || o.SellReference == "" {
		t.Errorf("Sell fill not recorded: %+v", o)
	}
	wantProfit := 2 * (3100.0 - 2400.0)
	if o.RealizedProfit != wantProfit {
		t.Errorf("Expected profit %.2f, got %.2f", wantProfit, o.RealizedProfit)
	}
	wantPct := (3100.0 - 2400.0) / 2400.0 * 100
	if math.Abs(o.RealizedProfitPct-wantPct) > 1e-9 {
		t.Errorf("Expected profit pct %.4f, got %.4f", wantPct, o.RealizedProfitPct)
	}
	if a.Balance != 0 {
		t.Errorf("Expected flat balance after round trip, got %.6f", a.Balance)
	}
	if len(a.Ledger) != 2 || a.Ledger[1].Kind != types.TxSell {
		t.Errorf("Expected buy+sell transactions, got %+v", a.Ledger)
	}

	// Completed orders are out of scope for later passes.
	res, _ = m.Tick(ctx)
	if res.Scanned != 0 || res.Buys != 0 || res.Sells != 0 {
		t.Errorf("Completed order still scanned: %+v", res)
	}
}

func TestNoTriggerBetweenTargets(t *testing.T) {
	m, _, notifier, st := newTestMonitor(t, 2700)
	seedOrder(t, st, "u1", types.NewConditionalOrder(2500, 3000, 1, time.Now()))

	res, err := m.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if res.Scanned != 1 || res.Buys != 0 || res.Sells != 0 {
		t.Errorf("Expected a quiet pass, got %+v", res)
	}
	a, _ := st.Get("u1")
	if len(a.Ledger) != 0 || !a.Orders[0].Pending() {
		t.Errorf("Quiet pass mutated the account: %+v", a)
	}
	m.notifyWG.Wait()
	if calls, _ := notifier.snapshot(); calls != 0 {
		t.Errorf("Quiet pass sent %d notifications", calls)
	}
}

func TestNotificationFailureDoesNotLoseFills(t *testing.T) {
	m, _, notifier, st := newTestMonitor(t, 2400)
	notifier.failFor["u1"] = true
	seedOrder(t, st, "u1", types.NewConditionalOrder(2500, 3000, 1, time.Now()))
	seedOrder(t, st, "u2", types.NewConditionalOrder(2450, 3000, 1, time.Now()))

	res, err := m.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if res.Buys != 2 {
		t.Fatalf("Expected both buys, got %+v", res)
	}

	for _, id := range []string{"u1", "u2"} {
		a, _ := st.Get(id)
		if !a.Orders[0].Bought {
			t.Errorf("Fill for %s lost after notification failure", id)
		}
	}
	m.notifyWG.Wait()
	calls, sent := notifier.snapshot()
	if calls != 2 {
		t.Errorf("Expected both notifications attempted, got %d", calls)
	}
	if len(sent) != 1 {
		t.Errorf("Expected exactly the u2 notification delivered, got %v", sent)
	}
}

type blockingNotifier struct {
	started chan struct{}
	release chan struct{}
}

func (n *blockingNotifier) Notify(context.Context, string, string) error {
	n.started <- struct{}{}
	<-n.release
	return nil
}

func TestSlowNotificationDoesNotBlockPass(t *testing.T) {
	ledger.SetJournalDir(t.TempDir())
	st, err := store.Open(filepath.Join(t.TempDir(), "user_data.json"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	notifier := &blockingNotifier{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	m := New(st, &stubPrice{usd: 2400}, notifier)
	seedOrder(t, st, "u1", types.NewConditionalOrder(2500, 3000, 1, time.Now()))
	ctx := context.Background()

	tickDone := make(chan struct{})
	go func() {
		defer close(tickDone)
		if _, err := m.Tick(ctx); err != nil {
			t.Errorf("Tick failed: %v", err)
		}
	}()
	select {
	case <-tickDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Pass blocked behind notification delivery")
	}

	select {
	case <-notifier.started:
	case <-time.After(time.Second):
		t.Fatal("Notification never dispatched")
	}

	// The fill is durable while its announcement is still in flight,
	// and the next pass runs without waiting for it.
	a, _ := st.Get("u1")
	if !a.Orders[0].Bought {
		t.Error("Fill not committed before notification delivery")
	}
	if _, err := m.Tick(ctx); err != nil {
		t.Errorf("Next pass failed while notification pending: %v", err)
	}

	close(notifier.release)
	m.notifyWG.Wait()
}

func TestZeroPriceSkipsPass(t *testing.T) {
	m, price, notifier, st := newTestMonitor(t, 2400)
	price.usd = 0
	seedOrder(t, st, "u1", types.NewConditionalOrder(2500, 3000, 1, time.Now()))

	res, err := m.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	m.notifyWG.Wait()
	if calls, _ := notifier.snapshot(); res.Scanned != 0 || calls != 0 {
		t.Errorf("Zero price must skip the pass: %+v", res)
	}
	a, _ := st.Get("u1")
	if !a.Orders[0].Pending() {
		t.Errorf("Order mutated on a skipped pass")
	}
}
