package session

import (
	"sync"
	"testing"
	"time"
)

func TestWithCreatesMainMenuSession(t *testing.T) {
	m := NewManager(time.Hour)

	m.With("u1", func(s *Session) {
		if s.State != MainMenu {
			t.Errorf("Expected new session in MAIN_MENU, got %s", s.State)
		}
		s.State = SetBuyPrice
		s.Draft.BuyPrice = 100
	})

	m.With("u1", func(s *Session) {
		if s.State != SetBuyPrice || s.Draft.BuyPrice != 100 {
			t.Errorf("Session state not retained: %s draft %+v", s.State, s.Draft)
		}
	})

	if m.Len() != 1 {
		t.Errorf("Expected 1 session, got %d", m.Len())
	}
}

func TestReset(t *testing.T) {
	s := Session{
		State:      ConfirmAutoTrade,
		Draft:      OrderDraft{BuyPrice: 100, SellPrice: 120, Amount: 1},
		SendTarget: "0xabc",
	}
	s.Reset()
	if s.State != MainMenu || s.Draft != (OrderDraft{}) || s.SendTarget != "" {
		t.Errorf("Reset left residue: %+v", s)
	}
}

func TestSweep(t *testing.T) {
	m := NewManager(time.Hour)
	base := time.Unix(1_700_000_000, 0)
	m.now = func() time.Time { return base }

	m.With("old", func(s *Session) {})
	base = base.Add(2 * time.Hour)
	m.With("fresh", func(s *Session) {})

	if removed := m.Sweep(); removed != 1 {
		t.Fatalf("Expected 1 session swept, got %d", removed)
	}
	if m.Len() != 1 {
		t.Errorf("Expected 1 session left, got %d", m.Len())
	}

	// Swept user starts over at the main menu.
	m.With("old", func(s *Session) {
		if s.State != MainMenu {
			t.Errorf("Expected swept user to restart at MAIN_MENU, got %s", s.State)
		}
	})
}

func TestSameUserTurnsSerialize(t *testing.T) {
	m := NewManager(time.Hour)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.With("u1", func(s *Session) {
				s.Draft.Amount++
			})
		}()
	}
	wg.Wait()

	m.With("u1", func(s *Session) {
		if s.Draft.Amount != n {
			t.Errorf("Expected %d serialized increments, got %v", n, s.Draft.Amount)
		}
	})
}
