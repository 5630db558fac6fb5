package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB is the journal of generated searches. Dialogue sessions are not stored here.
type DB struct {
	*sql.DB
}

// SearchRecord is one generated search link.
type SearchRecord struct {
	ID        int64
	UserID    int64
	Viertel   string
	URL       string
	Criteria  string
	CreatedAt time.Time
}

func NewDB(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	return &DB{db}, nil
}

func (db *DB) CreateTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS searches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		viertel TEXT,
		url TEXT NOT NULL,
		criteria_json TEXT,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_searches_user ON searches (user_id, created_at);
	`
	_, err := db.Exec(query)
	return err
}

func (db *DB) SaveSearch(ctx context.Context, rec SearchRecord) (int64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	query := `
	INSERT INTO searches (user_id, viertel, url, criteria_json, created_at)
	VALUES (?, ?, ?, ?, ?)
	`
	res, err := db.ExecContext(ctx, query, rec.UserID, rec.Viertel, rec.URL, rec.Criteria, rec.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("save search: %w", err)
	}
	return res.LastInsertId()
}

// RecentSearches returns the newest searches of a user first.
func (db *DB) RecentSearches(ctx context.Context, userID int64, limit int) ([]SearchRecord, error) {
	query := `
	SELECT id, user_id, viertel, url, criteria_json, created_at
	FROM searches WHERE user_id = ?
	ORDER BY created_at DESC, id DESC
	LIMIT ?
	`
	rows, err := db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query searches: %w", err)
	}
	defer rows.Close()

	var out []SearchRecord
	for rows.Next() {
		var rec SearchRecord
		var viertel, criteria sql.NullString
		if err := rows.Scan(&rec.ID, &rec.UserID, &viertel, &rec.URL, &criteria, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan search: %w", err)
		}
		rec.Viertel = viertel.String
		rec.Criteria = criteria.String
		out = append(out, rec)
	}
	return out, rows.Err()
}
