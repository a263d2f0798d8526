// resolve.go
package tuning

import "time"

// Resolver yields the effective params for a room.
type Resolver interface {
	// Returns merged RawConfig and normalized Params
	Resolve(room string) (RawConfig, Params, error)
}

// Static always resolves to p.
type Static Params

func (s Static) Resolve(string) (RawConfig, Params, error) {
	return RawConfig{Version: s.Version}, Params(s), nil
}

// Normalize applies a validated raw config over Defaults.
func Normalize(cfg RawConfig) Params {
	p := Defaults()
	if cfg.Version != "" {
		p.Version = cfg.Version
	}
	setInt(&p.InitialMin, cfg.Spawn.InitialMin)
	setInt(&p.InitialMax, cfg.Spawn.InitialMax)
	setInt(&p.AssistCount, cfg.Spawn.AssistCount)
	setInt(&p.AssistZOffset, cfg.Spawn.AssistZOffset)
	if m := cfg.Merge; m != nil {
		if m.DelayMS != nil {
			p.MergeDelay = time.Duration(*m.DelayMS) * time.Millisecond
		}
		setInt(&p.MergeBonus, m.BonusCoins)
		setInt(&p.MergeScore, m.Score)
	}
	if a := cfg.Assist; a != nil {
		setInt(&p.AssistCoins, a.Coins)
	}
	if s := cfg.Score; s != nil {
		setInt(&p.ExtractScore, s.PerExtract)
		if s.FeedbackTTLMS != nil {
			p.FeedbackTTL = time.Duration(*s.FeedbackTTLMS) * time.Millisecond
		}
	}
	return p
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
