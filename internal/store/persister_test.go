package store_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/xtding233/junkroom/internal/ledger"
	"github.com/xtding233/junkroom/internal/store"
	"github.com/xtding233/junkroom/internal/store/mocks"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestPersisterLoadFallsBackToDefault(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	for _, loadErr := range []error{store.ErrNotFound, errors.New("disk on fire")} {
		st := mocks.NewMockStore(ctrl)
		st.EXPECT().Load(gomock.Any()).Return(ledger.PlayerData{}, loadErr)

		p := store.NewPersister(st, quiet).Load(context.Background())
		if p.Coins != ledger.StarterCoins || !p.RoomUnlocked(ledger.StarterRoom) {
			t.Fatalf("load error %v should yield defaults, got %+v", loadErr, p)
		}
	}
}

func TestPersisterLoadNormalizes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStore(ctrl)
	st.EXPECT().Load(gomock.Any()).Return(ledger.PlayerData{Coins: 12}, nil)

	p := store.NewPersister(st, quiet).Load(context.Background())
	if p.Coins != 12 || p.CollectedItems == nil || !p.RoomUnlocked(ledger.StarterRoom) {
		t.Fatalf("saved data should be kept and completed: %+v", p)
	}
}

func TestPersisterCoalescesSaves(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	first := ledger.Default(time.Unix(0, 0))
	last := first.Clone()
	last.Coins = 777

	saved := make(chan ledger.PlayerData, 4)
	st := mocks.NewMockStore(ctrl)
	st.EXPECT().Save(gomock.Any(), last).DoAndReturn(func(_ context.Context, p ledger.PlayerData) error {
		saved <- p
		return nil
	}).Times(1)

	ps := store.NewPersister(st, quiet)
	ps.Submit(first)
	ps.Submit(last) // replaces first before the writer runs

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ps.Run(ctx) }()

	select {
	case p := <-saved:
		if p.Coins != 777 {
			t.Fatalf("expected newest snapshot, got coins=%d", p.Coins)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("save never happened")
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run returned %v", err)
	}
}

func TestPersisterSaveFailureIsSwallowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStore(ctrl)
	st.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("read-only fs"))

	ps := store.NewPersister(st, quiet)
	ps.Submit(ledger.Default(time.Unix(0, 0)))
	ps.Flush(context.Background())
	ps.Flush(context.Background()) // nothing pending: no second Save
}

func TestPersisterFlushesOnShutdown(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStore(ctrl)
	st.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	ps := store.NewPersister(st, quiet)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ps.Submit(ledger.Default(time.Unix(0, 0)))
	if err := ps.Run(ctx); err != nil {
		t.Fatal(err)
	}
}
