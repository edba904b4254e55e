// Package fastpath implements the trust-gated local SQLite read path
// described in §4.3: it projects rows from a third-party desktop
// application's database directly into the external API's response shape,
// bypassing the network entirely for a narrow whitelist of read
// operations.
package fastpath

import (
	"context"
	"database/sql"
	"os"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/notionmux/notionmux/internal/logging"
)

// Config mirrors the NOTIONMUX_FAST_PATH_* settings loaded by internal/config.
type Config struct {
	Enabled      bool
	TrustEnabled bool
	DBPath       string
	MaxPageSize  int
}

// Store is the trust-gated handle to the third-party SQLite database.
// It is nil-safe: a Store built from a disabled/untrusted/unreadable
// configuration answers every query with a miss instead of erroring, so
// callers (§4.4 step 6) can unconditionally invoke it and fall through to
// the network on any non-hit.
type Store struct {
	cfg    Config
	db     *sql.DB
	active bool

	warnOnce sync.Once
	log      *logging.Logger
}

// Open constructs a Store. It never returns an error for a disabled or
// distrusted configuration — those states are represented by an inactive
// Store whose queries always miss.
func Open(cfg Config, log *logging.Logger) *Store {
	s := &Store{cfg: cfg, log: log}

	if !cfg.Enabled {
		return s
	}
	if !cfg.TrustEnabled {
		s.warnOnce.Do(func() {
			log.Warn("local fast-path requested without trust_enabled; refusing to activate")
		})
		return s
	}
	if _, err := os.Stat(cfg.DBPath); err != nil {
		log.Warn("local fast-path DB unreadable, skipping silently", "path", cfg.DBPath, "err", err)
		return s
	}

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		log.Warn("local fast-path DB open failed, skipping silently", "path", cfg.DBPath, "err", err)
		return s
	}
	if err := db.PingContext(context.Background()); err != nil {
		log.Warn("local fast-path DB ping failed, skipping silently", "path", cfg.DBPath, "err", err)
		_ = db.Close()
		return s
	}

	s.db = db
	s.active = true
	if cfg.MaxPageSize <= 0 {
		s.cfg.MaxPageSize = 100
	}
	return s
}

// Active reports whether the fast-path can be queried at all.
func (s *Store) Active() bool { return s != nil && s.active }

// Close releases the underlying database handle, if any.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// row is the fixed set of columns consumed from the third-party DB (§3).
type row struct {
	ID                      string
	Type                    sql.NullString
	ParentTable             sql.NullString
	ParentID                sql.NullString
	SpaceID                 sql.NullString
	CreatedTime             sql.NullInt64
	LastEditedTime          sql.NullInt64
	Alive                   sql.NullInt64
	Properties              sql.NullString
	Content                 sql.NullString
	MetaLastAccessTimestamp sql.NullInt64
}

const rowColumns = "id, type, parent_table, parent_id, space_id, created_time, last_edited_time, alive, properties, content, meta_last_access_timestamp"

func scanRow(scanner interface{ Scan(...any) error }) (row, error) {
	var r row
	err := scanner.Scan(&r.ID, &r.Type, &r.ParentTable, &r.ParentID, &r.SpaceID,
		&r.CreatedTime, &r.LastEditedTime, &r.Alive, &r.Properties, &r.Content, &r.MetaLastAccessTimestamp)
	return r, err
}
