package ledger

import (
	"maps"
	"slices"
	"time"
)

// StarterCoins and StarterRoom seed a brand new profile.
const (
	StarterCoins = 100
	StarterRoom  = "starter-room"
)

type Stats struct {
	TotalItemsCollected int `json:"totalItemsCollected" jsonschema:"minimum=0"`
	TotalGamesPlayed    int `json:"totalGamesPlayed" jsonschema:"minimum=0"`
	TotalCoinsEarned    int `json:"totalCoinsEarned" jsonschema:"minimum=0"`
}

type Settings struct {
	SoundEnabled bool `json:"soundEnabled"`
	MusicEnabled bool `json:"musicEnabled"`
}

// PlayerData is the persisted profile. Values are treated as immutable
// snapshots: the ledger never mutates one it has handed out.
type PlayerData struct {
	Coins          int            `json:"coins" jsonschema:"minimum=0"`
	UnlockedRooms  []string       `json:"unlockedRooms"`
	CollectedItems map[string]int `json:"collectedItems"`
	Stats          Stats          `json:"stats"`
	Settings       Settings       `json:"settings"`
	LastPlayTime   int64          `json:"lastPlayTime"` // unix millis
}

// Default returns the profile of a player who has never played.
func Default(now time.Time) PlayerData {
	return PlayerData{
		Coins:          StarterCoins,
		UnlockedRooms:  []string{StarterRoom},
		CollectedItems: map[string]int{},
		Settings:       Settings{SoundEnabled: true, MusicEnabled: true},
		LastPlayTime:   now.UnixMilli(),
	}
}

// Clone returns a deep copy.
func (p PlayerData) Clone() PlayerData {
	out := p
	out.UnlockedRooms = slices.Clone(p.UnlockedRooms)
	out.CollectedItems = maps.Clone(p.CollectedItems)
	if out.CollectedItems == nil {
		out.CollectedItems = map[string]int{}
	}
	return out
}

// Normalize fills fields a partial or older save may lack, keeping the
// stored values wherever present.
func (p PlayerData) Normalize(now time.Time) PlayerData {
	out := p.Clone()
	if out.UnlockedRooms == nil {
		out.UnlockedRooms = []string{StarterRoom}
	}
	if out.LastPlayTime == 0 {
		out.LastPlayTime = now.UnixMilli()
	}
	return out
}

func (p PlayerData) RoomUnlocked(roomID string) bool {
	return slices.Contains(p.UnlockedRooms, roomID)
}

// Distinct is the number of different items ever collected.
func (p PlayerData) Distinct() int {
	n := 0
	for _, c := range p.CollectedItems {
		if c > 0 {
			n++
		}
	}
	return n
}

// CompletionRate is round(100 * distinct / total); 0 for an empty catalog.
func CompletionRate(p PlayerData, total int) int {
	if total <= 0 {
		return 0
	}
	d := p.Distinct()
	if d > total {
		d = total
	}
	return (200*d + total) / (2 * total)
}
