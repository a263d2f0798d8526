package tuning

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Paths helper for default/room files.
type Paths struct {
	BaseDir string // base directory, e.g., /opt/junkroom/config
}

func (p Paths) DefaultPath() string {
	return filepath.Join(p.BaseDir, "tuning", "default.yaml")
}
func (p Paths) RoomPath(room string) string {
	return filepath.Join(p.BaseDir, "tuning", "rooms", room+".yaml")
}

// Loader reads YAML configs and merges default → room.
type Loader struct {
	paths Paths

	mu    sync.RWMutex
	cache map[string]RawConfig // key: room id or "$default"
}

// NewLoader creates a config loader with the given base directory.
func NewLoader(baseDir string) *Loader {
	return &Loader{
		paths: Paths{BaseDir: baseDir},
		cache: make(map[string]RawConfig),
	}
}

func (l *Loader) Paths() Paths { return l.paths }

// LoadMerged loads and merges default → room (room file optional).
// It returns the merged RawConfig (without normalization).
func (l *Loader) LoadMerged(room string) (RawConfig, error) {
	key := room
	if key == "" {
		key = "$default"
	}
	l.mu.RLock()
	if cfg, ok := l.cache[key]; ok {
		l.mu.RUnlock()
		return cfg, nil
	}
	l.mu.RUnlock()

	defCfg, err := readYAML(l.paths.DefaultPath())
	if err != nil {
		return RawConfig{}, fmt.Errorf("read default: %w", err)
	}
	merged := defCfg
	if room != "" {
		roomCfg, err := readYAML(l.paths.RoomPath(room))
		if err != nil {
			return RawConfig{}, fmt.Errorf("read room %s: %w", room, err)
		}
		merged = mergeRaw(defCfg, roomCfg)
	}

	l.mu.Lock()
	l.cache[key] = merged
	l.cache["$default"] = defCfg
	l.mu.Unlock()

	return merged, nil
}

// Resolve implements Resolver: load, validate and normalize.
func (l *Loader) Resolve(room string) (RawConfig, Params, error) {
	cfg, err := l.LoadMerged(room)
	if err != nil {
		return RawConfig{}, Params{}, err
	}
	if err := ValidateRaw(cfg); err != nil {
		return cfg, Params{}, err
	}
	p := Normalize(cfg)
	if err := validateParams(p); err != nil {
		return cfg, Params{}, err
	}
	return cfg, p, nil
}

// Invalidate clears loader's cache. Call after hot-reload detects changes.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]RawConfig)
}

// readYAML loads a YAML file into RawConfig. Missing files return zero cfg, no error.
func readYAML(path string) (RawConfig, error) {
	var cfg RawConfig
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return RawConfig{}, nil
		}
		return RawConfig{}, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return RawConfig{}, err
	}
	return cfg, nil
}

// mergeRaw performs a deep merge: 'b' overrides 'a' where non-nil/non-empty.
func mergeRaw(a, b RawConfig) RawConfig {
	out := a

	if b.Version != "" {
		out.Version = b.Version
	}
	if b.Notes != "" {
		out.Notes = b.Notes
	}

	// spawn
	pick(&out.Spawn.InitialMin, b.Spawn.InitialMin)
	pick(&out.Spawn.InitialMax, b.Spawn.InitialMax)
	pick(&out.Spawn.AssistCount, b.Spawn.AssistCount)
	pick(&out.Spawn.AssistZOffset, b.Spawn.AssistZOffset)

	// merge
	if b.Merge != nil {
		var m MergeConfig
		if out.Merge != nil {
			m = *out.Merge
		}
		pick(&m.DelayMS, b.Merge.DelayMS)
		pick(&m.BonusCoins, b.Merge.BonusCoins)
		pick(&m.Score, b.Merge.Score)
		out.Merge = &m
	}

	// assist
	if b.Assist != nil {
		var as AssistConfig
		if out.Assist != nil {
			as = *out.Assist
		}
		pick(&as.Coins, b.Assist.Coins)
		out.Assist = &as
	}

	// score
	if b.Score != nil {
		var s ScoreConfig
		if out.Score != nil {
			s = *out.Score
		}
		pick(&s.PerExtract, b.Score.PerExtract)
		pick(&s.FeedbackTTLMS, b.Score.FeedbackTTLMS)
		out.Score = &s
	}

	return out
}

func pick(dst **int, v *int) {
	if v != nil {
		c := *v
		*dst = &c
	}
}
