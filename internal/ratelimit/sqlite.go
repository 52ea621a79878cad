package ratelimit

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const schema = `
CREATE TABLE IF NOT EXISTS rate_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts INTEGER NOT NULL
);`

// SQLiteStore keeps the log in a rate_log table. Save replaces the
// whole table inside a single transaction.
type SQLiteStore struct {
	db      *sql.DB
	timeout time.Duration
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create rate_log table: %w", err)
	}
	return &SQLiteStore{db: db, timeout: 5 * time.Second}, nil
}

func (s *SQLiteStore) Load() ([]int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT ts FROM rate_log ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []int64
	for rows.Next() {
		var ts int64
		if err := rows.Scan(&ts); err != nil {
			return nil, err
		}
		entries = append(entries, ts)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) Save(entries []int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rate_log`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO rate_log (ts) VALUES (?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, ts := range entries {
		if _, err := stmt.ExecContext(ctx, ts); err != nil {
			return err
		}
	}
	return tx.Commit()
}
