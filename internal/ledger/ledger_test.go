package ledger

import (
	"errors"
	"sync"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/xtding233/junkroom/internal/catalog"
)

var epoch = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newLedger(onChange func(PlayerData)) *Ledger {
	return New(Default(epoch), onChange, WithClock(func() time.Time { return epoch.Add(time.Minute) }))
}

func TestClockOption(t *testing.T) {
	var ticks int64
	clk := func() time.Time {
		ticks++
		return epoch.Add(time.Duration(ticks) * time.Second)
	}
	l := New(Default(epoch), nil, WithClock(clk))
	p1, _ := l.AddCoins(1)
	p2, _ := l.AddCoins(1)
	if p1.LastPlayTime != epoch.Add(time.Second).UnixMilli() || p2.LastPlayTime != epoch.Add(2*time.Second).UnixMilli() {
		t.Fatalf("injected clock not used: %d %d", p1.LastPlayTime, p2.LastPlayTime)
	}

	// nil keeps the wall clock
	before := time.Now().UnixMilli()
	p, _ := New(Default(epoch), nil, WithClock(nil)).AddCoins(1)
	if p.LastPlayTime < before {
		t.Fatalf("nil clock should fall back to time.Now, got %d < %d", p.LastPlayTime, before)
	}
}

func TestDefaultProfile(t *testing.T) {
	p := Default(epoch)
	if p.Coins != 100 || !p.RoomUnlocked("starter-room") || !p.Settings.SoundEnabled || !p.Settings.MusicEnabled {
		t.Fatalf("unexpected default profile: %+v", p)
	}
	if p.LastPlayTime != epoch.UnixMilli() {
		t.Fatalf("last play time not stamped")
	}
}

func TestRecordCollected(t *testing.T) {
	l := newLedger(nil)
	if _, err := l.RecordCollected("a"); err != nil {
		t.Fatal(err)
	}
	p, err := l.RecordCollected("a")
	if err != nil {
		t.Fatal(err)
	}
	if p.CollectedItems["a"] != 2 || p.Stats.TotalItemsCollected != 2 {
		t.Fatalf("unexpected counts: %+v", p)
	}
	if p.LastPlayTime != epoch.Add(time.Minute).UnixMilli() {
		t.Fatalf("last play time not refreshed")
	}
	if _, err := l.RecordCollected(""); !errors.Is(err, ErrEmptyItemID) {
		t.Fatalf("empty id should be rejected, got %v", err)
	}
}

func TestCoinsAndCompletion(t *testing.T) {
	l := newLedger(nil)
	if _, err := l.AddCoins(-1); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("negative amount should be rejected, got %v", err)
	}
	if _, err := l.AddCoins(10); err != nil {
		t.Fatal(err)
	}
	p, err := l.CompleteRoom(50)
	if err != nil {
		t.Fatal(err)
	}
	if p.Coins != 160 || p.Stats.TotalCoinsEarned != 60 || p.Stats.TotalGamesPlayed != 1 {
		t.Fatalf("unexpected totals: %+v", p)
	}
}

func TestSnapshotsDoNotAlias(t *testing.T) {
	l := newLedger(nil)
	before, _ := l.RecordCollected("a")
	before.CollectedItems["a"] = 999
	before.UnlockedRooms[0] = "hacked"
	now := l.Snapshot()
	if now.CollectedItems["a"] != 1 || now.UnlockedRooms[0] != "starter-room" {
		t.Fatalf("caller mutation leaked into ledger: %+v", now)
	}
}

func TestOnChangeSeesEveryUpdateInOrder(t *testing.T) {
	var seen []int
	l := newLedger(func(p PlayerData) { seen = append(seen, p.Stats.TotalItemsCollected) })
	for i := 0; i < 5; i++ {
		if _, err := l.RecordCollected("a"); err != nil {
			t.Fatal(err)
		}
	}
	for i, v := range seen {
		if v != i+1 {
			t.Fatalf("change %d reported %d", i, v)
		}
	}
	// rejected operations publish nothing
	_, _ = l.AddCoins(-5)
	if len(seen) != 5 {
		t.Fatalf("failed op should not publish; got %d changes", len(seen))
	}
}

func TestUnlockRoom(t *testing.T) {
	l := newLedger(nil)
	lib := catalog.Room{ID: "vampire-library", UnlockCost: 100}
	ws := catalog.Room{ID: "mechanical-workshop", UnlockCost: 200}

	if _, err := l.UnlockRoom(ws); !errors.Is(err, ErrInsufficientCoins) {
		t.Fatalf("expected insufficient coins, got %v", err)
	}
	p, err := l.UnlockRoom(lib)
	if err != nil {
		t.Fatal(err)
	}
	if p.Coins != 0 || !l.IsRoomUnlocked("vampire-library") {
		t.Fatalf("unlock did not apply: %+v", p)
	}
	// already unlocked: no charge
	if p, err = l.UnlockRoom(lib); err != nil || p.Coins != 0 {
		t.Fatalf("re-unlock should be a free no-op: coins=%d err=%v", p.Coins, err)
	}
	if p.Stats.TotalCoinsEarned != 0 {
		t.Fatalf("spending must not touch earned stats")
	}
}

func TestCompletionRate(t *testing.T) {
	l := newLedger(nil)
	if got := l.CompletionRate(0); got != 0 {
		t.Fatalf("empty catalog should give 0, got %d", got)
	}
	_, _ = l.RecordCollected("a")
	if got := l.CompletionRate(12); got != 8 { // 8.33
		t.Fatalf("1/12 should round to 8, got %d", got)
	}
	_, _ = l.RecordCollected("b")
	if got := l.CompletionRate(8); got != 25 {
		t.Fatalf("2/8 should be 25, got %d", got)
	}
	if got := l.CompletionRate(3); got != 67 { // 66.67
		t.Fatalf("2/3 should round to 67, got %d", got)
	}
	if got := l.CompletionRate(4); got != 50 {
		t.Fatalf("2/4 should be 50, got %d", got)
	}
	if got := l.CompletionRate(1); got != 100 {
		t.Fatalf("rate must cap at 100, got %d", got)
	}
}

func TestConcurrentCreditsAreNotLost(t *testing.T) {
	l := newLedger(nil)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_, _ = l.RecordCollected("a")
				_, _ = l.AddCoins(1)
			}
		}()
	}
	wg.Wait()
	p := l.Snapshot()
	if p.CollectedItems["a"] != 800 || p.Coins != 900 || p.Stats.TotalCoinsEarned != 800 {
		t.Fatalf("lost increments: %+v", p)
	}
}

func TestCollectionView(t *testing.T) {
	cat, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}
	l := newLedger(nil)
	_, _ = l.RecordCollected("glowing-bottle")
	_, _ = l.RecordCollected("glowing-bottle")
	_, _ = l.RecordCollected("magic-potion")
	v := Collection(l.Snapshot(), cat)
	if v.Total != 12 || v.Distinct != 2 || v.CompletionRate != 17 {
		t.Fatalf("unexpected view totals: %+v", v)
	}
	if len(v.Tiers) != 3 || v.Tiers[0].Tier != 1 {
		t.Fatalf("expected 3 tier groups")
	}
	for _, e := range v.Tiers[0].Entries {
		if e.Item.ID == "glowing-bottle" && (e.Count != 2 || !e.Collected) {
			t.Fatalf("glowing-bottle entry wrong: %+v", e)
		}
		if e.Item.ID == "eye-book" && e.Collected {
			t.Fatalf("eye-book should not be collected")
		}
	}
}

// Collection progress never regresses, whatever the player does.
func TestLedgerMonotonicProperty(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	rapid.Check(t, func(t *rapid.T) {
		l := New(Default(epoch), nil)
		prev := l.Snapshot()
		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				_, _ = l.RecordCollected(rapid.SampledFrom(ids).Draw(t, "id"))
			case 1:
				_, _ = l.AddCoins(rapid.IntRange(-5, 50).Draw(t, "coins"))
			case 2:
				_, _ = l.CompleteRoom(rapid.IntRange(0, 150).Draw(t, "reward"))
			}
			cur := l.Snapshot()
			if cur.Distinct() < prev.Distinct() {
				t.Fatalf("distinct regressed %d -> %d", prev.Distinct(), cur.Distinct())
			}
			if CompletionRate(cur, len(ids)) < CompletionRate(prev, len(ids)) {
				t.Fatalf("completion rate regressed")
			}
			for id, n := range prev.CollectedItems {
				if cur.CollectedItems[id] < n {
					t.Fatalf("count for %s regressed", id)
				}
			}
			if cur.Stats.TotalItemsCollected < prev.Stats.TotalItemsCollected ||
				cur.Stats.TotalGamesPlayed < prev.Stats.TotalGamesPlayed ||
				cur.Stats.TotalCoinsEarned < prev.Stats.TotalCoinsEarned {
				t.Fatalf("stats regressed: %+v -> %+v", prev.Stats, cur.Stats)
			}
			prev = cur
		}
	})
}
