package ledger

import (
	"fmt"
	"testing"
	"time"

	"github.com/shashwatraajsingh/TRADEETH/internal/types"
)

func makeTx(i int) types.Transaction {
	return types.Transaction{
		Kind:      types.TxBuy,
		Amount:    1,
		Price:     float64(1000 + i),
		USDValue:  float64(1000 + i),
		Timestamp: time.Unix(int64(1_700_000_000+i), 0),
		Reference: fmt.Sprintf("ref-%d", i),
	}
}

func TestRecentReverseOrder(t *testing.T) {
	a := &types.Account{}
	for i := 0; i < 5; i++ {
		Append(a, makeTx(i))
	}

	var refs []string
	for tx := range Recent(a, 3) {
		refs = append(refs, tx.Reference)
	}

	want := []string{"ref-4", "ref-3", "ref-2"}
	if len(refs) != len(want) {
		t.Fatalf("Expected %d entries, got %d", len(want), len(refs))
	}
	for i := range want {
		if refs[i] != want[i] {
			t.Errorf("Position %d: expected %s, got %s", i, want[i], refs[i])
		}
	}
}

func TestRecentFewerThanN(t *testing.T) {
	a := &types.Account{}
	Append(a, makeTx(0))
	Append(a, makeTx(1))

	count := 0
	for range Recent(a, 10) {
		count++
	}
	if count != 2 {
		t.Errorf("Expected 2 entries when ledger shorter than n, got %d", count)
	}
}

func TestRecentRestartable(t *testing.T) {
	a := &types.Account{}
	for i := 0; i < 4; i++ {
		Append(a, makeTx(i))
	}

	seq := Recent(a, 2)
	first := collect(seq)
	second := collect(seq)
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("Expected both passes to yield 2 entries, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Reference != second[i].Reference {
			t.Errorf("Sequence not restartable at position %d", i)
		}
	}
}

func TestRecentEarlyBreak(t *testing.T) {
	a := &types.Account{}
	for i := 0; i < 4; i++ {
		Append(a, makeTx(i))
	}

	count := 0
	for range Recent(a, 4) {
		count++
		if count == 1 {
			break
		}
	}
	if count != 1 {
		t.Errorf("Expected early break after 1 entry, got %d", count)
	}
}

func TestAppendOrderingStable(t *testing.T) {
	a := &types.Account{}
	for k := 1; k <= 6; k++ {
		Append(a, makeTx(k))
		latest := collect(Recent(a, 1))
		if len(latest) != 1 || latest[0].Reference != fmt.Sprintf("ref-%d", k) {
			t.Fatalf("After %d appends, Recent(1) should yield ref-%d", k, k)
		}
	}
	if len(a.Ledger) != 6 {
		t.Errorf("Expected 6 entries, got %d", len(a.Ledger))
	}
}

func collect(seq func(func(types.Transaction) bool)) []types.Transaction {
	var out []types.Transaction
	seq(func(tx types.Transaction) bool {
		out = append(out, tx)
		return true
	})
	return out
}
