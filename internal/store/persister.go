package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/xtding233/junkroom/internal/ledger"
)

const saveTimeout = 5 * time.Second

// Persister sits between the ledger and a Store. Loads always yield usable
// data and saves never block the caller: Submit keeps only the newest
// snapshot and Run writes it in the background.
type Persister struct {
	store Store
	log   *slog.Logger
	now   func() time.Time

	mu      sync.Mutex
	pending *ledger.PlayerData
	wake    chan struct{}
}

func NewPersister(s Store, logger *slog.Logger) *Persister {
	if logger == nil {
		logger = slog.Default()
	}
	return &Persister{
		store: s,
		log:   logger.With("component", "persister"),
		now:   time.Now,
		wake:  make(chan struct{}, 1),
	}
}

// Load returns the saved profile, or a default one when nothing is saved or
// the save cannot be read.
func (p *Persister) Load(ctx context.Context) ledger.PlayerData {
	data, err := p.store.Load(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		p.log.Info("no saved player data, starting fresh")
		return ledger.Default(p.now())
	case err != nil:
		p.log.Warn("load player data failed, starting fresh", "err", err)
		return ledger.Default(p.now())
	}
	return data.Normalize(p.now())
}

// Submit queues a snapshot for saving. It never blocks; a newer snapshot
// replaces one not yet written.
func (p *Persister) Submit(data ledger.PlayerData) {
	c := data.Clone()
	p.mu.Lock()
	p.pending = &c
	p.mu.Unlock()
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Run writes submitted snapshots until ctx is done, then flushes whatever is
// still pending. It always returns nil.
func (p *Persister) Run(ctx context.Context) error {
	for {
		select {
		case <-p.wake:
			p.Flush(ctx)
		case <-ctx.Done():
			fctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
			p.Flush(fctx)
			cancel()
			return nil
		}
	}
}

// Flush saves the pending snapshot, if any. Failures are logged.
func (p *Persister) Flush(ctx context.Context) {
	p.mu.Lock()
	data := p.pending
	p.pending = nil
	p.mu.Unlock()
	if data == nil {
		return
	}
	sctx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()
	if err := p.store.Save(sctx, *data); err != nil {
		p.log.Warn("save player data failed", "err", err)
	}
}
