// types.go
package catalog

type Rarity string

const (
	Common    Rarity = "common"
	Rare      Rarity = "rare"
	Legendary Rarity = "legendary"
)

const (
	MinTier = 1
	MaxTier = 3
)

// Item is one collectible definition. Tier 1 and 2 items name the item
// three of them fuse into; tier 3 items are terminal.
type Item struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Tier        int    `yaml:"tier" json:"tier"`
	Rarity      Rarity `yaml:"rarity" json:"rarity"`
	MergeTo     string `yaml:"merge_to,omitempty" json:"mergeTo,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Terminal reports whether the item cannot be merged any further.
func (it Item) Terminal() bool { return it.MergeTo == "" }

// Room is one playable room definition.
type Room struct {
	ID             string   `yaml:"id" json:"id"`
	Name           string   `yaml:"name" json:"name"`
	Description    string   `yaml:"description,omitempty" json:"description,omitempty"`
	ItemPool       []string `yaml:"item_pool" json:"itemPool"`
	ClearTarget    int      `yaml:"clear_target" json:"clearTarget"`
	CoinReward     int      `yaml:"coin_reward" json:"coinReward"`
	UnlockCost     int      `yaml:"unlock_cost" json:"unlockCost"`
	StartsUnlocked bool     `yaml:"unlocked,omitempty" json:"startsUnlocked,omitempty"`
}

// File mirrors the YAML catalog document.
type File struct {
	Version string `yaml:"version"`
	Items   []Item `yaml:"items"`
	Rooms   []Room `yaml:"rooms"`
}
