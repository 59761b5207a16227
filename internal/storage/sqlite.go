package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/steamguard-web/telegram-bot/internal/ports"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the command audit log. It is operational telemetry only:
// nothing in the dispatch path reads from it, so losing the file never
// affects command handling.
type SQLiteStore struct {
	db *sql.DB
}

func Open(databasePath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(databasePath), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS command_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			telegram_user_id INTEGER NOT NULL,
			intent TEXT NOT NULL,
			outcome TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		);`,
		`CREATE INDEX IF NOT EXISTS idx_command_log_intent ON command_log (intent);`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("run migration query: %w", err)
		}
	}

	return nil
}

func (s *SQLiteStore) RecordCommand(ctx context.Context, record ports.CommandRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO command_log (telegram_user_id, intent, outcome, created_at)
		VALUES (?, ?, ?, datetime('now'));
	`, record.TelegramUserID, record.Intent, record.Outcome)
	return err
}

func (s *SQLiteStore) CommandCounts(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT intent, COUNT(*) FROM command_log GROUP BY intent;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var intent string
		var count int64
		if err := rows.Scan(&intent, &count); err != nil {
			return nil, err
		}
		out[intent] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
