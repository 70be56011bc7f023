// Package store persists complete search results so repeated evaluations of
// the same recipe catalog skip the search.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/napolitain/geode-solver/internal/models"
	"github.com/napolitain/geode-solver/internal/solver/geode"
)

// ErrClosed is returned by every method once Close has been called
var ErrClosed = errors.New("store: cache closed")

// Entry is one memoized search result
type Entry struct {
	Yield    int
	Nodes    int
	Strategy string
	Plan     []geode.Step
	SavedAt  time.Time
}

// SQLiteCache is a result cache backed by a single SQLite file
type SQLiteCache struct {
	db     *sql.DB
	closed atomic.Bool
}

// OpenSQLite opens (creating if needed) the cache at path.
// ":memory:" opens a private in-memory cache.
func OpenSQLite(path string) (*SQLiteCache, error) {
	if path == "" {
		return nil, fmt.Errorf("empty cache path")
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
	// One connection keeps writers serialized and ":memory:" a single database
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
	return &SQLiteCache{db: db}, nil
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
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS results (
		key TEXT PRIMARY KEY,
		yield INTEGER NOT NULL,
		nodes INTEGER NOT NULL,
		strategy TEXT NOT NULL,
		plan_json TEXT NOT NULL,
		saved_at TEXT NOT NULL
	);`)
	return err
}

// Get looks up key. The bool is false on a miss.
func (c *SQLiteCache) Get(ctx context.Context, key string) (Entry, bool, error) {
	if c.closed.Load() {
		return Entry{}, false, ErrClosed
	}

	var (
		e        Entry
		planJSON string
		savedAt  string
	)
	row := c.db.QueryRowContext(ctx,
		`SELECT yield, nodes, strategy, plan_json, saved_at FROM results WHERE key = ?`, key)
	err := row.Scan(&e.Yield, &e.Nodes, &e.Strategy, &planJSON, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(planJSON), &e.Plan); err != nil {
		return Entry{}, false, fmt.Errorf("decode plan for %s: %w", key, err)
	}
	if t, err := time.Parse(time.RFC3339Nano, savedAt); err == nil {
		e.SavedAt = t
	}
	return e, true, nil
}

// Put stores e under key, replacing any previous entry
func (c *SQLiteCache) Put(ctx context.Context, key string, e Entry) error {
	if c.closed.Load() {
		return ErrClosed
	}

	plan := e.Plan
	if plan == nil {
		plan = []geode.Step{}
	}
	planJSON, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encode plan for %s: %w", key, err)
	}
	if e.SavedAt.IsZero() {
		e.SavedAt = time.Now().UTC()
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO results(key, yield, nodes, strategy, plan_json, saved_at) VALUES(?,?,?,?,?,?)`,
		key, e.Yield, e.Nodes, e.Strategy, string(planJSON), e.SavedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Len returns the number of stored entries
func (c *SQLiteCache) Len(ctx context.Context) (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM results`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Close releases the database. Calling it twice is a no-op.
func (c *SQLiteCache) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.db.Close()
}

// Key identifies a search by its recipe catalog and deadline.
// The blueprint id is not part of the key.
func Key(bp models.Blueprint, deadline int) string {
	var b strings.Builder
	for _, r := range bp.Recipes {
		b.WriteString(r.String())
		b.WriteByte(';')
	}
	fmt.Fprintf(&b, "deadline=%d", deadline)
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
