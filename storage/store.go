package storage

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/wricardo/dogtown/game/service"
)

const schema = `
CREATE TABLE IF NOT EXISTS retired_players (
	id           UUID PRIMARY KEY,
	name         varchar(100) NOT NULL,
	score        integer NOT NULL,
	play_time_ms integer NOT NULL
);
CREATE INDEX IF NOT EXISTS sort_recorder_index
	ON retired_players (score DESC, play_time_ms, name);
`

// Store keeps the all-time leaderboard of retired players in Postgres.
type Store struct {
	db *sql.DB
}

// Open connects to the database, verifies the connection and ensures the
// leaderboard table exists.
func Open(ctx context.Context, dbURL string) (*Store, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(runtime.NumCPU())

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create retired_players table: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveRetired inserts one leaderboard row per retired player. All rows of a
// batch commit together or not at all.
func (s *Store) SaveRetired(ctx context.Context, players []service.RetiredPlayer) error {
	if len(players) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range players {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO retired_players (id, name, score, play_time_ms) VALUES ($1, $2, $3, $4)`,
			uuid.NewString(), p.Name, p.Score, p.PlayTimeMs)
		if err != nil {
			return fmt.Errorf("insert retired player %q: %w", p.Name, err)
		}
	}
	return tx.Commit()
}

// Records returns a page of the leaderboard ordered best-first: higher score
// wins, ties go to the shorter career, then to the name.
func (s *Store) Records(ctx context.Context, start, maxItems int) ([]service.RecordRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, score, play_time_ms FROM retired_players
		 ORDER BY score DESC, play_time_ms, name
		 OFFSET $1 LIMIT $2`,
		start, maxItems)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []service.RecordRow
	for rows.Next() {
		var r service.RecordRow
		if err := rows.Scan(&r.Name, &r.Score, &r.PlayTimeMs); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return records, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ service.PlayerStatsStore = (*Store)(nil)
