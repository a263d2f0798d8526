package merge

import (
	"errors"
	"testing"
	"time"

	"github.com/xtding233/junkroom/internal/catalog"
	"github.com/xtding233/junkroom/internal/clock"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(catalog.File{
		Items: []catalog.Item{
			{ID: "a", Tier: 1, Rarity: catalog.Common, MergeTo: "b"},
			{ID: "b", Tier: 2, Rarity: catalog.Rare, MergeTo: "c"},
			{ID: "c", Tier: 3, Rarity: catalog.Legendary},
			{ID: "x", Tier: 1, Rarity: catalog.Common, MergeTo: "b"},
		},
		Rooms: []catalog.Room{{ID: "r", ItemPool: []string{"a"}, ClearTarget: 3}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestSlots(t *testing.T) {
	var s Slots
	if s.FirstEmpty() != 0 || s.Full() {
		t.Fatalf("empty slots misreported")
	}
	s = Slots{"a", "", "a"}
	if s.FirstEmpty() != 1 {
		t.Fatalf("expected first empty 1, got %d", s.FirstEmpty())
	}
	if _, ok := s.Triple(); ok {
		t.Fatalf("partial slots are not a triple")
	}
	if id, ok := (Slots{"a", "a", "a"}).Triple(); !ok || id != "a" {
		t.Fatalf("expected triple of a")
	}
	if _, ok := (Slots{"a", "x", "a"}).Triple(); ok {
		t.Fatalf("mixed slots are not a triple")
	}
}

func TestCheck(t *testing.T) {
	cat := testCatalog(t)
	out, ok, err := Check(cat, Slots{"a", "a", "a"})
	if err != nil || !ok || out != (Outcome{From: "a", To: "b"}) {
		t.Fatalf("a triple should merge to b; out=%+v ok=%v err=%v", out, ok, err)
	}
	if _, ok, _ := Check(cat, Slots{"c", "c", "c"}); ok {
		t.Fatalf("terminal triple must not trigger")
	}
	if _, _, err := Check(cat, Slots{"zz", "zz", "zz"}); !errors.Is(err, catalog.ErrItemNotFound) {
		t.Fatalf("unknown id should be a data integrity error, got %v", err)
	}
}

func TestMergeFiresAfterDelay(t *testing.T) {
	clk := clock.NewManual()
	var got []Outcome
	r := NewResolver(testCatalog(t), clk, nil, 500*time.Millisecond, func(o Outcome) { got = append(got, o) })

	if err := r.Evaluate(Slots{"a", "a", "a"}); err != nil {
		t.Fatal(err)
	}
	if _, ok := r.Pending(); !ok {
		t.Fatalf("merge should be pending")
	}
	clk.Advance(499 * time.Millisecond)
	if len(got) != 0 {
		t.Fatalf("merge fired early")
	}
	clk.Advance(time.Millisecond)
	if len(got) != 1 || got[0].To != "b" {
		t.Fatalf("expected one merge to b, got %+v", got)
	}
	if _, ok := r.Pending(); ok {
		t.Fatalf("nothing should be pending after fire")
	}
}

func TestReevaluateSameSlotsKeepsSingleTimer(t *testing.T) {
	clk := clock.NewManual()
	n := 0
	r := NewResolver(testCatalog(t), clk, nil, 500*time.Millisecond, func(Outcome) { n++ })
	_ = r.Evaluate(Slots{"a", "a", "a"})
	clk.Advance(200 * time.Millisecond)
	_ = r.Evaluate(Slots{"a", "a", "a"})
	clk.Advance(300 * time.Millisecond)
	if n != 1 {
		t.Fatalf("expected exactly one merge, got %d", n)
	}
	if clk.Pending() != 0 {
		t.Fatalf("no timers should remain")
	}
}

func TestClearCancelsPendingMerge(t *testing.T) {
	clk := clock.NewManual()
	n := 0
	r := NewResolver(testCatalog(t), clk, nil, 500*time.Millisecond, func(Outcome) { n++ })
	_ = r.Evaluate(Slots{"a", "a", "a"})
	clk.Advance(100 * time.Millisecond)
	_ = r.Evaluate(Slots{"a", "", "a"}) // player cleared slot 1
	clk.Advance(time.Second)
	if n != 0 {
		t.Fatalf("cancelled merge fired")
	}

	// refilling restarts the full delay
	_ = r.Evaluate(Slots{"a", "a", "a"})
	clk.Advance(400 * time.Millisecond)
	if n != 0 {
		t.Fatalf("refilled merge fired early")
	}
	clk.Advance(100 * time.Millisecond)
	if n != 1 {
		t.Fatalf("refilled merge should fire once, got %d", n)
	}
}

func TestStaleFireIsIgnored(t *testing.T) {
	// A scheduler whose Stop never succeeds models a timer that already
	// started firing when it was cancelled.
	var fire func()
	sched := stubbornScheduler(func(f func()) { fire = f })
	n := 0
	r := NewResolver(testCatalog(t), sched, nil, time.Millisecond, func(Outcome) { n++ })
	_ = r.Evaluate(Slots{"a", "a", "a"})
	r.Cancel()
	fire()
	if n != 0 {
		t.Fatalf("stale fire must not merge")
	}
}

func TestTerminalTripleNeverSchedules(t *testing.T) {
	clk := clock.NewManual()
	r := NewResolver(testCatalog(t), clk, nil, 500*time.Millisecond, func(Outcome) { t.Fatalf("terminal merged") })
	_ = r.Evaluate(Slots{"c", "c", "c"})
	clk.Advance(time.Hour)
	if clk.Pending() != 0 {
		t.Fatalf("terminal triple scheduled a timer")
	}
}

type stubbornScheduler func(f func())

func (s stubbornScheduler) AfterFunc(_ time.Duration, f func()) clock.Timer {
	s(f)
	return stubbornTimer{}
}

type stubbornTimer struct{}

func (stubbornTimer) Stop() bool { return false }
