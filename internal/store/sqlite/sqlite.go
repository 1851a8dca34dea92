// Package sqlite is the SQLite-backed store, the default for single-node
// deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/cinephiles/cinebot/internal/model"
	"github.com/cinephiles/cinebot/internal/store"
)

// Open opens (or creates) a SQLite database at the given path with WAL
// journal mode and foreign keys enabled. The path ":memory:" yields an
// in-process database, used by tests.
func Open(path string) (*sql.DB, error) {
	dsn := "file::memory:?mode=memory&cache=shared"
	if path != ":memory:" {
		// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// one writer connection avoids SQLITE_BUSY under concurrent toggles
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS list_entries (
    user_id  INTEGER NOT NULL,
    list     TEXT    NOT NULL,
    kind     TEXT    NOT NULL,
    item_id  INTEGER NOT NULL,
    saved_at TIMESTAMP NOT NULL,
    PRIMARY KEY (user_id, list, kind, item_id)
);
CREATE TABLE IF NOT EXISTS settings (
    user_id       INTEGER PRIMARY KEY,
    language      TEXT    NOT NULL DEFAULT 'en',
    adult_content INTEGER NOT NULL DEFAULT 0,
    notifications INTEGER NOT NULL DEFAULT 1
);
CREATE TABLE IF NOT EXISTS feedback (
    feedback_id   TEXT PRIMARY KEY,
    user_hash     TEXT NOT NULL,
    body          TEXT NOT NULL,
    category      TEXT NOT NULL DEFAULT 'general',
    creation_time TIMESTAMP NOT NULL
);
`

// New opens the database at path and bootstraps the schema.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite bootstrap: %w", err)
	}
	return NewWithDB(db), nil
}

// NewWithDB wires a store over an existing connection (used by tests and
// the factory). The schema must already exist.
func NewWithDB(db *sql.DB) store.Store { return &sqliteStore{db: db} }

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Watchlist() store.List { return &list{db: s.db, name: "watchlist"} }
func (s *sqliteStore) Likes() store.List { return &list{db: s.db, name: "likes"} }
func (s *sqliteStore) Settings() store.Settings { return &settings{db: s.db} }
func (s *sqliteStore) Feedback() store.Feedback { return &feedback{db: s.db} }

// HealthPing implements health.Pinger.
func (s *sqliteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- Lists ---

type list struct {
	db   *sql.DB
	name string
}

func (l *list) Toggle(ctx context.Context, userID int64, kind model.MediaKind, itemID int64) (bool, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM list_entries WHERE user_id=? AND list=? AND kind=? AND item_id=?`,
		userID, l.name, kind, itemID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	member := false
	if n == 0 {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO list_entries (user_id, list, kind, item_id, saved_at) VALUES (?,?,?,?,?)`,
			userID, l.name, kind, itemID, time.Now().UTC()); err != nil {
			return false, err
		}
		member = true
	}
	return member, tx.Commit()
}

func (l *list) Contains(ctx context.Context, userID int64, kind model.MediaKind, itemID int64) (bool, error) {
	var one int
	err := l.db.QueryRowContext(ctx,
		`SELECT 1 FROM list_entries WHERE user_id=? AND list=? AND kind=? AND item_id=?`,
		userID, l.name, kind, itemID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (l *list) Entries(ctx context.Context, userID int64) ([]model.WatchEntry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT user_id, kind, item_id, saved_at FROM list_entries
         WHERE user_id=? AND list=? ORDER BY saved_at`,
		userID, l.name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.WatchEntry
	for rows.Next() {
		var e model.WatchEntry
		if err := rows.Scan(&e.UserID, &e.Kind, &e.ItemID, &e.SavedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- Settings ---

type settings struct{ db *sql.DB }

func (s *settings) Get(ctx context.Context, userID int64) (*model.Settings, error) {
	var out model.Settings
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, language, adult_content, notifications FROM settings WHERE user_id=?`,
		userID).Scan(&out.UserID, &out.Language, &out.AdultContent, &out.Notifications)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *settings) Upsert(ctx context.Context, in *model.Settings) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO settings (user_id, language, adult_content, notifications)
        VALUES (?,?,?,?)
        ON CONFLICT(user_id) DO UPDATE SET
            language=excluded.language,
            adult_content=excluded.adult_content,
            notifications=excluded.notifications`,
		in.UserID, in.Language, in.AdultContent, in.Notifications)
	return err
}

func (s *settings) NotifiableUsers(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM settings WHERE notifications=1`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// --- Feedback ---

type feedback struct{ db *sql.DB }

func (f *feedback) Create(ctx context.Context, in *model.Feedback) (*model.Feedback, error) {
	out := *in
	if out.FeedbackID == "" {
		out.FeedbackID = uuid.New().String()
	}
	if out.Category == "" {
		out.Category = "general"
	}
	out.CreationTime = time.Now().UTC()

	_, err := f.db.ExecContext(ctx,
		`INSERT INTO feedback (feedback_id, user_hash, body, category, creation_time) VALUES (?,?,?,?,?)`,
		out.FeedbackID, out.UserHash, out.Body, out.Category, out.CreationTime)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
