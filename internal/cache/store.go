package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// formatVersion is bumped when the rendered clause format changes, so
// stale dumps are recomputed.
const formatVersion = "v1"

// Fingerprint identifies the manifest a dump was rendered from.
func Fingerprint(manifest []byte) string {
	h := sha256.New()
	h.Write(manifest)
	h.Write([]byte("\x00"))
	h.Write([]byte(formatVersion))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// DumpStore keeps rendered dump sections in SQLite, keyed by section and
// valid only for the manifest fingerprint they were rendered from.
type DumpStore struct {
	db   *sql.DB
	path string
}

// OpenDumpStore opens (creating if needed) the store at path.
func OpenDumpStore(ctx context.Context, path string) (*DumpStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS dumps (
		key         TEXT PRIMARY KEY,
		fingerprint TEXT NOT NULL,
		lines       TEXT NOT NULL,
		updated_at  INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &DumpStore{db: db, path: path}, nil
}

func (s *DumpStore) Path() string { return s.path }

// Put stores the lines of a section.
func (s *DumpStore) Put(ctx context.Context, key, fingerprint string, lines []string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO dumps (key, fingerprint, lines, updated_at) VALUES (?, ?, ?, ?)",
		key, fingerprint, strings.Join(lines, "\n"), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("storing dump %s: %w", key, err)
	}
	return nil
}

// Get returns the stored lines of a section if they were rendered from the
// same fingerprint.
func (s *DumpStore) Get(ctx context.Context, key, fingerprint string) ([]string, bool, error) {
	var stored, text string
	err := s.db.QueryRowContext(ctx, "SELECT fingerprint, lines FROM dumps WHERE key = ?", key).Scan(&stored, &text)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading dump %s: %w", key, err)
	}
	if stored != fingerprint {
		return nil, false, nil
	}
	if text == "" {
		return []string{}, true, nil
	}
	return strings.Split(text, "\n"), true, nil
}

// Clean removes every stored dump.
func (s *DumpStore) Clean(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM dumps"); err != nil {
		return fmt.Errorf("cleaning dump cache: %w", err)
	}
	return nil
}

func (s *DumpStore) Close() error { return s.db.Close() }
