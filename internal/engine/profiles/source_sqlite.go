package profiles

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	user_id TEXT PRIMARY KEY,
	data    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS students (
	student_id TEXT PRIMARY KEY,
	data       TEXT NOT NULL
);`

const sqliteLoadProfiles = `
SELECT u.data, s.data
FROM users u
LEFT JOIN students s ON s.student_id = json_extract(u.data, '$.studentID')
ORDER BY u.user_id`

// SQLiteSource reads profiles from a local SQLite file with the same
// users/students layout as the Postgres source (JSON stored as TEXT).
type SQLiteSource struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the SQLite profile database.
func OpenSQLite(path string) (*SQLiteSource, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("sqlite: mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: init schema: %w", err)
	}
	return &SQLiteSource{db: db}, nil
}

func (s *SQLiteSource) Name() string { return "sqlite" }

func (s *SQLiteSource) Close() error { return s.db.Close() }

// PutUser upserts a user document. Used for seeding and by tests.
func (s *SQLiteSource) PutUser(ctx context.Context, userID, data string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (user_id, data) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET data = excluded.data`, userID, data)
	return err
}

// PutStudent upserts a student document.
func (s *SQLiteSource) PutStudent(ctx context.Context, studentID, data string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO students (student_id, data) VALUES (?, ?)
		 ON CONFLICT(student_id) DO UPDATE SET data = excluded.data`, studentID, data)
	return err
}

func (s *SQLiteSource) Load(ctx context.Context) ([]Raw, error) {
	rows, err := s.db.QueryContext(ctx, sqliteLoadProfiles)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var out []Raw
	for rows.Next() {
		var userData string
		var studentData sql.NullString
		if err := rows.Scan(&userData, &studentData); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		rec, err := decodeJoined([]byte(userData), []byte(studentData.String))
		if err != nil {
			slog.Warn("profiles: skipping undecodable row", slog.Any("error", err))
			continue
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
