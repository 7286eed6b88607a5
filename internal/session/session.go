// Package session persists walkthrough progress to SQLite so a tree
// built by hand survives restarts.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/san-kum/mlviz/internal/mltree"
	"github.com/san-kum/mlviz/internal/treebuilder"
)

// Schema for the page_state table. Call Store.Init() or apply
// manually.
const Schema = `
CREATE TABLE IF NOT EXISTS page_state (
	session_id TEXT NOT NULL,
	story TEXT NOT NULL,
	page INTEGER NOT NULL,
	tree TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (session_id, story, page)
);
CREATE INDEX IF NOT EXISTS idx_page_state_slot ON page_state(story, page, updated_at);
`

// Store keeps one tree per (story, page) slot. Writes go under this
// run's session id; reads return the newest state for the slot across
// all sessions, so a fresh run resumes where the last one stopped.
type Store struct {
	db      *sql.DB
	logger  *slog.Logger
	session string
}

// Open opens the SQLite database at dsn. A nil logger falls back to
// slog.Default().
func Open(dsn string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("session: open %s: %w", dsn, err)
	}
	if strings.Contains(dsn, ":memory:") {
		// Each pooled connection gets its own empty memory database,
		// so the pool must stay at one connection.
		db.SetMaxOpenConns(1)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("session: %s: %w", pragma, err)
		}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: ping: %w", err)
	}
	return &Store{db: db, logger: logger, session: uuid.NewString()}, nil
}

// Init creates the page_state table if it doesn't exist.
func (s *Store) Init() error {
	_, err := s.db.Exec(Schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SessionID identifies this run's writes.
func (s *Store) SessionID() string {
	return s.session
}

// SavePageState upserts the tree for a (story, page) slot under the
// current session.
func (s *Store) SavePageState(ctx context.Context, story string, page int, tree *mltree.Node) error {
	data, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("session: encode tree: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO page_state (session_id, story, page, tree, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id, story, page) DO UPDATE SET tree = excluded.tree, updated_at = excluded.updated_at`,
		s.session, story, page, string(data), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("session: save %s/%d: %w", story, page, err)
	}
	s.logger.Debug("page state saved", "story", story, "page", page, "bytes", len(data))
	return nil
}

// LoadPageState returns the newest tree stored for a (story, page)
// slot, or ok=false when the slot has never been saved.
func (s *Store) LoadPageState(ctx context.Context, story string, page int) (*mltree.Node, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT tree FROM page_state WHERE story = ? AND page = ?
		ORDER BY updated_at DESC, session_id DESC LIMIT 1`, story, page).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("session: load %s/%d: %w", story, page, err)
	}
	var root mltree.Node
	if err := json.Unmarshal([]byte(data), &root); err != nil {
		return nil, false, fmt.Errorf("session: decode tree for %s/%d: %w", story, page, err)
	}
	s.logger.Debug("page state loaded", "story", story, "page", page)
	return &root, true, nil
}

// Persister binds one (story, page) slot to the tree builder's
// persistence port. Only the tree is stored; the selection is
// transient and resets on restore.
type Persister struct {
	store *Store
	story string
	page  int
}

func (s *Store) Persister(story string, page int) *Persister {
	return &Persister{store: s, story: story, page: page}
}

func (p *Persister) Save(ctx context.Context, snap treebuilder.Snapshot) error {
	if snap.Tree == nil {
		return nil
	}
	return p.store.SavePageState(ctx, p.story, p.page, snap.Tree)
}

func (p *Persister) Load(ctx context.Context) (treebuilder.Snapshot, bool, error) {
	tree, ok, err := p.store.LoadPageState(ctx, p.story, p.page)
	if err != nil || !ok {
		return treebuilder.Snapshot{}, false, err
	}
	return treebuilder.Snapshot{Tree: tree}, true, nil
}
