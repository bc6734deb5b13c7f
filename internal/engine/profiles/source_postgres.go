package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS users (
	user_id TEXT PRIMARY KEY,
	data    JSONB NOT NULL
);
CREATE TABLE IF NOT EXISTS students (
	student_id TEXT PRIMARY KEY,
	data       JSONB NOT NULL
);`

// Users link to their student record through the studentID key inside data.
const pgLoadProfiles = `
SELECT u.data, s.data
FROM users u
LEFT JOIN students s ON s.student_id = u.data->>'studentID'
ORDER BY u.user_id`

// PostgresSource reads profiles from the users/students JSONB tables.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// ConnectPostgres creates a pgx pool and ensures the profile tables exist.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresSource, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 4
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure profile schema: %w", err)
	}

	slog.Info("profiles: postgres connected", slog.String("addr", config.ConnConfig.Host))
	return &PostgresSource{pool: pool}, nil
}

func (s *PostgresSource) Name() string { return "postgres" }

func (s *PostgresSource) Close() { s.pool.Close() }

func (s *PostgresSource) Load(ctx context.Context) ([]Raw, error) {
	rows, err := s.pool.Query(ctx, pgLoadProfiles)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var out []Raw
	for rows.Next() {
		var userData, studentData []byte
		if err := rows.Scan(&userData, &studentData); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		rec, err := decodeJoined(userData, studentData)
		if err != nil {
			slog.Warn("profiles: skipping undecodable row", slog.Any("error", err))
			continue
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// decodeJoined decodes a user document and, if present, overlays its student document.
func decodeJoined(userData, studentData []byte) (Raw, error) {
	var user Raw
	if err := json.Unmarshal(userData, &user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if len(studentData) == 0 {
		return user, nil
	}
	var student Raw
	if err := json.Unmarshal(studentData, &student); err != nil {
		return nil, fmt.Errorf("decode student: %w", err)
	}
	return merge(user, student), nil
}
