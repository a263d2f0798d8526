// Package sim estimates room balance by letting a greedy bot play many
// sessions on a manual clock.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xtding233/junkroom/internal/clock"
	"github.com/xtding233/junkroom/internal/ledger"
	"github.com/xtding233/junkroom/internal/merge"
	"github.com/xtding233/junkroom/internal/rng"
	"github.com/xtding233/junkroom/internal/session"
	"github.com/xtding233/junkroom/internal/spawn"
	"github.com/xtding233/junkroom/internal/tuning"
)

// maxSteps bounds one trial in case the bot stops making progress.
const maxSteps = 10_000

var ErrInvalidTrials = errors.New("trials must be > 0")

// SimParams describes one simulation run.
type SimParams struct {
	Room       string
	Trials     int
	Seed       uint64 // trial i uses Seed+i
	MaxAssists int    // assists the bot accepts before declining
	Workers    int    // <=0 means GOMAXPROCS
}

// Report summarizes a run. Extractions only counts cleared trials.
type Report struct {
	Room        string  `json:"room"`
	Trials      int     `json:"trials"`
	Cleared     int     `json:"cleared"`
	ClearRate   float64 `json:"clearRate"`
	Extractions Stats   `json:"extractions"`
	Assists     Stats   `json:"assists"`
	Score       Stats   `json:"score"`
}

// Runner plays trials against a catalog and tuning source.
type Runner struct {
	Catalog session.Catalog
	Tuning  tuning.Resolver
	Logger  *slog.Logger // session logs; discarded when nil
}

type trial struct {
	extractions int
	assists     int
	score       int
	cleared     bool
}

// RunMonteCarlo plays p.Trials sessions in parallel and returns summary stats.
func (r Runner) RunMonteCarlo(ctx context.Context, p SimParams) (Report, error) {
	if p.Trials <= 0 {
		return Report{}, ErrInvalidTrials
	}
	if _, err := r.Catalog.Room(p.Room); err != nil {
		return Report{}, err
	}
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]trial, p.Trials)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < p.Trials; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := r.simulateOne(p, p.Seed+uint64(i))
			if err != nil {
				return fmt.Errorf("trial %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	rep := Report{Room: p.Room, Trials: p.Trials}
	var extractions, assists, scores []int
	for _, t := range results {
		if t.cleared {
			rep.Cleared++
			extractions = append(extractions, t.extractions)
		}
		assists = append(assists, t.assists)
		scores = append(scores, t.score)
	}
	rep.ClearRate = float64(rep.Cleared) / float64(p.Trials)
	rep.Extractions = calcStats(extractions)
	rep.Assists = calcStats(assists)
	rep.Score = calcStats(scores)
	return rep, nil
}

// simulateOne plays a single session to the end with its own ledger, clock
// and seeded spawner.
func (r Runner) simulateOne(p SimParams, seed uint64) (trial, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clk := clock.NewManual()
	epoch := time.Unix(0, 0)
	now := func() time.Time { return epoch }
	s, err := session.New(session.Deps{
		Catalog:   r.Catalog,
		Ledger:    ledger.New(ledger.Default(epoch), nil, ledger.WithClock(now)),
		Spawner:   spawn.New(rng.NewSeeded(seed)),
		Scheduler: clk,
		Tuning:    r.Tuning,
		Logger:    logger,
		Now:       now,
	})
	if err != nil {
		return trial{}, err
	}
	if err := s.Initialize(p.Room); err != nil {
		return trial{}, err
	}
	defer s.Exit()

	var t trial
	for step := 0; step < maxSteps; step++ {
		v := s.View()
		t.score = v.Score
		switch {
		case v.State == session.Completed:
			t.cleared = true
			return t, nil
		case v.State != session.Playing:
			return t, nil
		case v.PendingMerge != nil:
			clk.Advance(time.Hour)
			continue
		case v.AssistOffered:
			if t.assists >= p.MaxAssists {
				if err := s.DeclineAssist(); err != nil {
					return t, err
				}
				continue
			}
			if err := s.AcceptAssist(); err != nil {
				return t, err
			}
			t.assists++
			continue
		case len(v.Items) == 0:
			return t, nil
		}

		want := pick(v.Slots, v.Items)
		if v.Slots.Full() {
			// a terminal triple never merges, so drop slot 0 in that case
			drop := 0
			for i, id := range v.Slots {
				if id != want {
					drop = i
					break
				}
			}
			s.ClearSlot(drop)
			continue
		}
		for _, it := range v.Items {
			if it.ItemID == want {
				if s.Extract(it.InstanceID) {
					t.extractions++
				}
				break
			}
		}
	}
	return t, fmt.Errorf("no result after %d steps", maxSteps)
}

// pick is the greedy policy: build on the most common slotted item still in
// the room, otherwise go for the most common item in the room.
func pick(slots merge.Slots, items []spawn.PlacedItem) string {
	inRoom := map[string]int{}
	for _, it := range items {
		inRoom[it.ItemID]++
	}
	inSlots := map[string]int{}
	for _, id := range slots {
		if id != "" && inRoom[id] > 0 {
			inSlots[id]++
		}
	}
	if best := argmax(inSlots); best != "" {
		return best
	}
	return argmax(inRoom)
}

// argmax breaks ties by id so runs stay reproducible.
func argmax(m map[string]int) string {
	best, n := "", 0
	for id, c := range m {
		if c > n || (c == n && id < best) {
			best, n = id, c
		}
	}
	return best
}
