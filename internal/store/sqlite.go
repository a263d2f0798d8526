package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/xtding233/junkroom/internal/ledger"
)

// SQLiteStore keeps profiles in a SQLite table keyed by profile name.
type SQLiteStore struct {
	db      *sql.DB
	profile string
}

func OpenSQLite(path, profile string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if profile == "" {
		profile = "default"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, profile: profile}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS player_data (
		profile TEXT PRIMARY KEY,
		json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`)
	return err
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Load(ctx context.Context) (ledger.PlayerData, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT json FROM player_data WHERE profile = ?`, s.profile).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.PlayerData{}, ErrNotFound
		}
		return ledger.PlayerData{}, err
	}
	return decodePlayerData([]byte(raw))
}

func (s *SQLiteStore) Save(ctx context.Context, p ledger.PlayerData) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO player_data(profile, json, updated_at) VALUES(?, ?, ?)
		ON CONFLICT(profile) DO UPDATE SET json = excluded.json, updated_at = excluded.updated_at`,
		s.profile, string(b), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}
