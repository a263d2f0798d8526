// Package spawn places room items for a session.
package spawn

import (
	"fmt"

	"github.com/xtding233/junkroom/internal/catalog"
	"github.com/xtding233/junkroom/internal/rng"
)

// Placement bounds, in percent of the viewport.
const (
	minX, maxX         = 10.0, 90.0
	minY, maxY         = 10.0, 80.0
	minScale, maxScale = 0.8, 1.2
)

// Position is presentational only.
type Position struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        int     `json:"z"`
	Rotation float64 `json:"rotation"`
	Scale    float64 `json:"scale"`
}

// PlacedItem is one clickable item instance in a room.
type PlacedItem struct {
	ItemID     string   `json:"itemId"`
	InstanceID string   `json:"instanceId"`
	Position   Position `json:"position"`
}

// Counts configures population sizes.
type Counts struct {
	InitialMin    int
	InitialMax    int
	AssistCount   int
	AssistZOffset int
}

// Spawner draws placed items from a room's pool. Instance ids come from a
// per-spawner counter and are never reused. Not safe for concurrent use.
type Spawner struct {
	RNG rng.RandomSource
	seq uint64
}

// New creates a spawner; a nil source means the crypto default.
func New(src rng.RandomSource) *Spawner {
	if src == nil {
		src = rng.Default()
	}
	return &Spawner{RNG: src}
}

// Generate draws count items with replacement from room.ItemPool.
// Z runs from zBase upward so later spawns render above earlier ones.
func (s *Spawner) Generate(room catalog.Room, count, zBase int) ([]PlacedItem, error) {
	if count <= 0 {
		return nil, nil
	}
	if len(room.ItemPool) == 0 {
		return nil, fmt.Errorf("room %s: empty item pool", room.ID)
	}
	out := make([]PlacedItem, 0, count)
	for i := 0; i < count; i++ {
		idx, err := rng.Index(s.RNG, len(room.ItemPool))
		if err != nil {
			return nil, err
		}
		pos, err := s.place(zBase + i)
		if err != nil {
			return nil, err
		}
		itemID := room.ItemPool[idx]
		s.seq++
		out = append(out, PlacedItem{
			ItemID:     itemID,
			InstanceID: fmt.Sprintf("%s#%d", itemID, s.seq),
			Position:   pos,
		})
	}
	return out, nil
}

func (s *Spawner) place(z int) (Position, error) {
	x, err := rng.Float(s.RNG, minX, maxX)
	if err != nil {
		return Position{}, err
	}
	y, err := rng.Float(s.RNG, minY, maxY)
	if err != nil {
		return Position{}, err
	}
	rot, err := rng.Float(s.RNG, 0, 360)
	if err != nil {
		return Position{}, err
	}
	scale, err := rng.Float(s.RNG, minScale, maxScale)
	if err != nil {
		return Position{}, err
	}
	return Position{X: x, Y: y, Z: z, Rotation: rot, Scale: scale}, nil
}

// Initial spawns the opening population: a uniform count in [InitialMin, InitialMax].
func (s *Spawner) Initial(room catalog.Room, c Counts) ([]PlacedItem, error) {
	n, err := rng.Int(s.RNG, c.InitialMin, c.InitialMax)
	if err != nil {
		return nil, fmt.Errorf("initial count: %w", err)
	}
	return s.Generate(room, n, 0)
}

// Assist spawns the fixed replenishment batch above every initial item.
func (s *Spawner) Assist(room catalog.Room, c Counts) ([]PlacedItem, error) {
	return s.Generate(room, c.AssistCount, c.AssistZOffset)
}
