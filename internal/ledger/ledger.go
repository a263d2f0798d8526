// Package ledger keeps the player's collection, coins and lifetime stats.
package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xtding233/junkroom/internal/catalog"
)

var (
	ErrNegativeAmount    = errors.New("amount must be >= 0")
	ErrEmptyItemID       = errors.New("empty item id")
	ErrInsufficientCoins = errors.New("insufficient coins")
)

// Ledger serializes every credit operation in invocation order. Each
// operation builds a new PlayerData from a copy of the current one and swaps
// it in; readers only ever see complete snapshots.
type Ledger struct {
	mu       sync.Mutex
	data     PlayerData
	onChange func(PlayerData)
	now      func() time.Time // stamps LastPlayTime
}

// Option configures a Ledger at construction.
type Option func(*Ledger)

// WithClock sets the time source used for LastPlayTime. nil keeps time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// New wraps initial. onChange, if non-nil, receives every new snapshot in
// order, while the ledger lock is held; it must not call back into the ledger.
func New(initial PlayerData, onChange func(PlayerData), opts ...Option) *Ledger {
	l := &Ledger{
		data:     initial.Clone(),
		onChange: onChange,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Snapshot returns a copy of the current player data.
func (l *Ledger) Snapshot() PlayerData {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.data.Clone()
}

func (l *Ledger) apply(mutate func(*PlayerData) error) (PlayerData, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	next := l.data.Clone()
	if err := mutate(&next); err != nil {
		return l.data.Clone(), err
	}
	next.LastPlayTime = l.now().UnixMilli()
	l.data = next
	if l.onChange != nil {
		l.onChange(next.Clone())
	}
	return next.Clone(), nil
}

// RecordCollected counts one more itemID and bumps TotalItemsCollected.
func (l *Ledger) RecordCollected(itemID string) (PlayerData, error) {
	if itemID == "" {
		return l.Snapshot(), ErrEmptyItemID
	}
	return l.apply(func(p *PlayerData) error {
		p.CollectedItems[itemID]++
		p.Stats.TotalItemsCollected++
		return nil
	})
}

// AddCoins credits amount to the balance and to TotalCoinsEarned.
func (l *Ledger) AddCoins(amount int) (PlayerData, error) {
	if amount < 0 {
		return l.Snapshot(), ErrNegativeAmount
	}
	return l.apply(func(p *PlayerData) error {
		addCoins(p, amount)
		return nil
	})
}

// CompleteRoom credits a room reward and counts one finished game, as one step.
func (l *Ledger) CompleteRoom(reward int) (PlayerData, error) {
	if reward < 0 {
		return l.Snapshot(), ErrNegativeAmount
	}
	return l.apply(func(p *PlayerData) error {
		addCoins(p, reward)
		p.Stats.TotalGamesPlayed++
		return nil
	})
}

// UnlockRoom pays the room's unlock cost. Unlocking an unlocked room is a no-op.
func (l *Ledger) UnlockRoom(room catalog.Room) (PlayerData, error) {
	if l.IsRoomUnlocked(room.ID) {
		return l.Snapshot(), nil
	}
	return l.apply(func(p *PlayerData) error {
		if p.RoomUnlocked(room.ID) {
			return nil
		}
		if p.Coins < room.UnlockCost {
			return fmt.Errorf("unlock %s: need %d coins, have %d: %w", room.ID, room.UnlockCost, p.Coins, ErrInsufficientCoins)
		}
		p.Coins -= room.UnlockCost
		p.UnlockedRooms = append(p.UnlockedRooms, room.ID)
		return nil
	})
}

func (l *Ledger) IsRoomUnlocked(roomID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.data.RoomUnlocked(roomID)
}

func (l *Ledger) SetSettings(s Settings) (PlayerData, error) {
	return l.apply(func(p *PlayerData) error {
		p.Settings = s
		return nil
	})
}

// CompletionRate reports the collection completion percent against a
// catalog of totalItems distinct items.
func (l *Ledger) CompletionRate(totalItems int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return CompletionRate(l.data, totalItems)
}

func addCoins(p *PlayerData, amount int) {
	p.Coins += amount
	p.Stats.TotalCoinsEarned += amount
}
