package timeutil

import (
	"testing"
	"time"
)

func TestMockClockAdvance(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMockClock(start)

	if !c.Now().Equal(start) {
		t.Fatalf("Now() = %v, want %v", c.Now(), start)
	}

	c.Advance(5 * time.Second)
	if got := c.Since(start); got != 5*time.Second {
		t.Errorf("Since(start) = %v, want 5s", got)
	}
}

func TestMockTickerFires(t *testing.T) {
	c := NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	tk := c.NewTicker(100 * time.Millisecond)
	defer tk.Stop()

	c.Advance(100 * time.Millisecond)
	select {
	case <-tk.C():
	default:
		t.Fatal("expected a tick after one period")
	}

	// Advancing by less than a period produces no tick.
	c.Advance(50 * time.Millisecond)
	select {
	case <-tk.C():
		t.Fatal("unexpected tick after half a period")
	default:
	}
}

func TestMockTickerDropsWhenFull(t *testing.T) {
	c := NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	tk := c.NewTicker(10 * time.Millisecond)
	defer tk.Stop()

	// Three periods with nobody draining: buffered channel holds one tick.
	c.Advance(30 * time.Millisecond)

	got := 0
	for {
		select {
		case <-tk.C():
			got++
			continue
		default:
		}
		break
	}
	if got != 1 {
		t.Errorf("drained %d ticks, want 1 (later ticks dropped)", got)
	}
}

func TestMockTickerStop(t *testing.T) {
	c := NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	tk := c.NewTicker(10 * time.Millisecond)
	tk.Stop()

	c.Advance(50 * time.Millisecond)
	select {
	case <-tk.C():
		t.Fatal("stopped ticker fired")
	default:
	}
}
