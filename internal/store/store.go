// Package store persists PlayerData. Stores are simple load/save pairs; the
// Persister on top decides when to save and never lets a failure reach the
// game.
package store

import (
	"context"
	"errors"

	"github.com/xtding233/junkroom/internal/ledger"
)

//go:generate go tool mockgen -destination=./mocks/store_mock.go -package=mocks . Store

// ErrNotFound means nothing has been saved yet.
var ErrNotFound = errors.New("no saved player data")

// Store is a persistence backend for one player profile.
type Store interface {
	Load(ctx context.Context) (ledger.PlayerData, error)
	Save(ctx context.Context, p ledger.PlayerData) error
}
