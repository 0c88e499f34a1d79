// Package directory keeps the channel directory: the known channels and
// chats of each platform, used to turn "discord:#bot-home" into a
// platform-native id and to list available send targets.
package directory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/0xbyt4/hermes-agent/pkg/domain"
	"github.com/0xbyt4/hermes-agent/pkg/logger"
)

// Entry is one known destination on a platform.
type Entry struct {
	Platform  domain.Platform `json:"platform"`
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Guild     string          `json:"guild,omitempty"`
	Kind      string          `json:"kind,omitempty"`
	Home      bool            `json:"home,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

const (
	KindChannel = "channel"
	KindGroup   = "group"
	KindDM      = "dm"
)

// Store is the SQLite-backed directory.
type Store struct {
	db *sql.DB
}

// Open opens (and migrates) the directory database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("directory: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("directory: creating dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("directory: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS channels (
	platform TEXT NOT NULL,
	id TEXT NOT NULL,
	name TEXT NOT NULL,
	guild TEXT NOT NULL DEFAULT '',
	kind TEXT NOT NULL DEFAULT '',
	home INTEGER NOT NULL DEFAULT 0,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (platform, id)
);
CREATE INDEX IF NOT EXISTS idx_channels_platform_name ON channels(platform, name);`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("directory: migrate channels: %w", err)
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Upsert inserts or updates a single entry.
func (s *Store) Upsert(ctx context.Context, e Entry) error {
	return upsert(ctx, s.db, e)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func upsert(ctx context.Context, db execer, e Entry) error {
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx, `
INSERT INTO channels (platform, id, name, guild, kind, home, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(platform, id) DO UPDATE SET
	name = excluded.name,
	guild = excluded.guild,
	kind = excluded.kind,
	home = excluded.home,
	updated_at = excluded.updated_at`,
		string(e.Platform), e.ID, e.Name, e.Guild, e.Kind, e.Home, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("directory: upsert %s:%s: %w", e.Platform, e.ID, err)
	}
	return nil
}

// Replace atomically swaps all entries of a platform for entries.
func (s *Store) Replace(ctx context.Context, platform domain.Platform, entries []Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("directory: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM channels WHERE platform = ?`, string(platform)); err != nil {
		return fmt.Errorf("directory: clear %s: %w", platform, err)
	}
	for _, e := range entries {
		e.Platform = platform
		if err := upsert(ctx, tx, e); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("directory: commit: %w", err)
	}
	return nil
}

// List returns the entries of one platform ordered by name.
func (s *Store) List(ctx context.Context, platform domain.Platform) ([]Entry, error) {
	return s.query(ctx, `
SELECT platform, id, name, guild, kind, home, updated_at FROM channels
WHERE platform = ? ORDER BY guild, name`, string(platform))
}

// All returns every entry ordered by platform, guild and name.
func (s *Store) All(ctx context.Context) ([]Entry, error) {
	return s.query(ctx, `
SELECT platform, id, name, guild, kind, home, updated_at FROM channels
ORDER BY platform, guild, name`)
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM channels`).Scan(&n); err != nil {
		return 0, fmt.Errorf("directory: count: %w", err)
	}
	return n, nil
}

func (s *Store) query(ctx context.Context, q string, args ...interface{}) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("directory: query: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var platform string
		if err := rows.Scan(&platform, &e.ID, &e.Name, &e.Guild, &e.Kind, &e.Home, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("directory: scan: %w", err)
		}
		e.Platform = domain.Platform(platform)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("directory: rows: %w", err)
	}
	return out, nil
}

// ResolveChannelName maps a symbolic channel name to its platform id.
// Lookup failures are logged and reported as "not found".
func (s *Store) ResolveChannelName(platform domain.Platform, name string) (string, bool) {
	entries, err := s.List(context.Background(), platform)
	if err != nil {
		logger.WarnCF("directory", "Channel lookup failed", map[string]interface{}{
			"platform": string(platform),
			"name":     name,
			"error":    err.Error(),
		})
		return "", false
	}
	return Match(entries, name)
}

// FormatForDisplay lists every known target as "<platform>:<target>" lines.
func (s *Store) FormatForDisplay(ctx context.Context) ([]string, error) {
	entries, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return FormatEntries(entries), nil
}
