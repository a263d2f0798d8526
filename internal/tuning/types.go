// types.go
package tuning

import "time"

// Raw config loaded from YAML. Pointer fields distinguish "unset" from zero so
// room files only override what they mention.
type RawConfig struct {
	Version string        `yaml:"version"`
	Spawn   SpawnConfig   `yaml:"spawn"`
	Merge   *MergeConfig  `yaml:"merge,omitempty"`
	Assist  *AssistConfig `yaml:"assist,omitempty"`
	Score   *ScoreConfig  `yaml:"score,omitempty"`
	Notes   string        `yaml:"notes,omitempty"`
}

type SpawnConfig struct {
	InitialMin    *int `yaml:"initial_min,omitempty"`
	InitialMax    *int `yaml:"initial_max,omitempty"`
	AssistCount   *int `yaml:"assist_count,omitempty"`
	AssistZOffset *int `yaml:"assist_z_offset,omitempty"`
}
type MergeConfig struct {
	DelayMS    *int `yaml:"delay_ms,omitempty"`
	BonusCoins *int `yaml:"bonus_coins,omitempty"`
	Score      *int `yaml:"score,omitempty"`
}
type AssistConfig struct {
	Coins *int `yaml:"coins,omitempty"`
}
type ScoreConfig struct {
	PerExtract    *int `yaml:"per_extract,omitempty"`
	FeedbackTTLMS *int `yaml:"feedback_ttl_ms,omitempty"`
}

// Params are the normalized design constants a room session runs with.
type Params struct {
	InitialMin    int
	InitialMax    int
	AssistCount   int
	AssistZOffset int

	MergeDelay time.Duration
	MergeBonus int // coins per merge
	MergeScore int // score per merge

	ExtractScore int
	AssistCoins  int
	FeedbackTTL  time.Duration

	Version string // effective config version for tracing
}

// Spawn sizes are fixed game rules: files may narrow the initial range
// inside [SpawnMin, SpawnMax] but never leave it, and every assist batch
// is exactly AssistBatch items.
const (
	SpawnMin    = 15
	SpawnMax    = 24
	AssistBatch = 5
)

// Defaults returns the stock design constants.
func Defaults() Params {
	return Params{
		InitialMin:    SpawnMin,
		InitialMax:    SpawnMax,
		AssistCount:   AssistBatch,
		AssistZOffset: 1000,
		MergeDelay:    500 * time.Millisecond,
		MergeBonus:    10,
		MergeScore:    5,
		ExtractScore:  1,
		AssistCoins:   20,
		FeedbackTTL:   time.Second,
		Version:       "builtin",
	}
}
