package store

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/xtding233/junkroom/internal/ledger"
)

// FileStore keeps the profile as zstd-compressed JSON in one file. Saves go
// to a temp file first and are renamed into place.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore { return &FileStore{Path: path} }

func (s *FileStore) Load(ctx context.Context) (ledger.PlayerData, error) {
	if err := ctx.Err(); err != nil {
		return ledger.PlayerData{}, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ledger.PlayerData{}, ErrNotFound
		}
		return ledger.PlayerData{}, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return ledger.PlayerData{}, err
	}
	defer dec.Close()

	b, err := io.ReadAll(bufio.NewReader(dec))
	if err != nil {
		return ledger.PlayerData{}, fmt.Errorf("zstd read: %w", err)
	}
	return decodePlayerData(b)
}

func (s *FileStore) Save(ctx context.Context, p ledger.PlayerData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.Path), filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	enc, err := zstd.NewWriter(tmp, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		tmp.Close()
		return err
	}
	if _, err := enc.Write(b); err != nil {
		enc.Close()
		tmp.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.Path)
}
