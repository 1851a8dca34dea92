// Package postgres is the PostgreSQL-backed store for multi-node
// deployments, using the pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/cinephiles/cinebot/internal/model"
	"github.com/cinephiles/cinebot/internal/store"
)

// Open opens a PostgreSQL connection and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS list_entries (
    user_id  BIGINT NOT NULL,
    list     TEXT   NOT NULL,
    kind     TEXT   NOT NULL,
    item_id  BIGINT NOT NULL,
    saved_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (user_id, list, kind, item_id)
);
CREATE TABLE IF NOT EXISTS settings (
    user_id       BIGINT PRIMARY KEY,
    language      TEXT    NOT NULL DEFAULT 'en',
    adult_content BOOLEAN NOT NULL DEFAULT FALSE,
    notifications BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE TABLE IF NOT EXISTS feedback (
    feedback_id   TEXT PRIMARY KEY,
    user_hash     TEXT NOT NULL,
    body          TEXT NOT NULL,
    category      TEXT NOT NULL DEFAULT 'general',
    creation_time TIMESTAMPTZ NOT NULL
);
`

// Bootstrap creates the schema if it does not exist.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

// NewWithDB constructs a Postgres store over an existing connection.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Watchlist() store.List    { return &list{db: s.db, name: "watchlist"} }
func (s *pgStore) Likes() store.List        { return &list{db: s.db, name: "likes"} }
func (s *pgStore) Settings() store.Settings { return &settings{db: s.db} }
func (s *pgStore) Feedback() store.Feedback { return &feedback{db: s.db} }

// HealthPing implements health.Pinger.
func (s *pgStore) HealthPing(ctx context.Context) error {
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
		`DELETE FROM list_entries WHERE user_id=$1 AND list=$2 AND kind=$3 AND item_id=$4`,
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
			`INSERT INTO list_entries (user_id, list, kind, item_id, saved_at) VALUES ($1,$2,$3,$4,$5)`,
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
		`SELECT 1 FROM list_entries WHERE user_id=$1 AND list=$2 AND kind=$3 AND item_id=$4`,
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
         WHERE user_id=$1 AND list=$2 ORDER BY saved_at`,
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
		`SELECT user_id, language, adult_content, notifications FROM settings WHERE user_id=$1`,
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
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (user_id) DO UPDATE SET
            language=EXCLUDED.language,
            adult_content=EXCLUDED.adult_content,
            notifications=EXCLUDED.notifications`,
		in.UserID, in.Language, in.AdultContent, in.Notifications)
	return err
}

func (s *settings) NotifiableUsers(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM settings WHERE notifications`)
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
		`INSERT INTO feedback (feedback_id, user_hash, body, category, creation_time) VALUES ($1,$2,$3,$4,$5)`,
		out.FeedbackID, out.UserHash, out.Body, out.Category, out.CreationTime)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
