package tuning

import (
	"fmt"
	"strings"
)

// ValidateRaw checks semantic constraints of a RawConfig.
func ValidateRaw(cfg RawConfig) error {
	var errs []string

	nonNeg := func(name string, v *int) {
		if v != nil && *v < 0 {
			errs = append(errs, name+" must be >= 0")
		}
	}

	// spawn
	s := cfg.Spawn
	inSpawnRange := func(name string, v *int) {
		if v != nil && (*v < SpawnMin || *v > SpawnMax) {
			errs = append(errs, fmt.Sprintf("%s must be in [%d,%d]", name, SpawnMin, SpawnMax))
		}
	}
	inSpawnRange("spawn.initial_min", s.InitialMin)
	inSpawnRange("spawn.initial_max", s.InitialMax)
	if s.InitialMin != nil && s.InitialMax != nil && *s.InitialMax < *s.InitialMin {
		errs = append(errs, "spawn.initial_max must be >= spawn.initial_min")
	}
	if s.AssistCount != nil && *s.AssistCount != AssistBatch {
		errs = append(errs, fmt.Sprintf("spawn.assist_count is fixed at %d", AssistBatch))
	}
	if s.AssistZOffset != nil && *s.AssistZOffset < 1000 {
		// assist items must render above every initial item
		errs = append(errs, "spawn.assist_z_offset must be >= 1000")
	}

	// merge
	if m := cfg.Merge; m != nil {
		nonNeg("merge.delay_ms", m.DelayMS)
		nonNeg("merge.bonus_coins", m.BonusCoins)
		nonNeg("merge.score", m.Score)
	}

	// assist
	if a := cfg.Assist; a != nil {
		nonNeg("assist.coins", a.Coins)
	}

	// score
	if sc := cfg.Score; sc != nil {
		if sc.PerExtract != nil && *sc.PerExtract < 1 {
			errs = append(errs, "score.per_extract must be >= 1")
		}
		nonNeg("score.feedback_ttl_ms", sc.FeedbackTTLMS)
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// validateParams catches ranges that only become wrong after layering, such
// as a room raising initial_min above the default initial_max.
func validateParams(p Params) error {
	var errs []string
	if p.InitialMin < SpawnMin || p.InitialMax > SpawnMax {
		errs = append(errs, fmt.Sprintf("effective initial range [%d,%d] leaves [%d,%d]", p.InitialMin, p.InitialMax, SpawnMin, SpawnMax))
	}
	if p.InitialMax < p.InitialMin {
		errs = append(errs, fmt.Sprintf("effective initial_max %d < initial_min %d", p.InitialMax, p.InitialMin))
	}
	if p.AssistCount != AssistBatch {
		errs = append(errs, fmt.Sprintf("effective assist_count %d != %d", p.AssistCount, AssistBatch))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
