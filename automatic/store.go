package automatic

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/domino14/blobwar/runner"
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run TEXT NOT NULL,
	game INTEGER NOT NULL,
	red TEXT NOT NULL,
	blue TEXT NOT NULL,
	turns INTEGER NOT NULL,
	score INTEGER NOT NULL,
	winner TEXT NOT NULL,
	final TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS games_run ON games (run);
`

// Store keeps finished tournament games in a sqlite database, so that
// long runs can be compared afterwards.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the database at path. Use ":memory:" for a
// throwaway store.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer at a time; sqlite would answer SQLITE_BUSY otherwise.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record saves one game of the run.
func (s *Store) Record(ctx context.Context, run string, game int, res runner.Result) error {
	tr := res.Transcript
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO games (run, game, red, blue, turns, score, winner, final)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run, game, tr.Players[0], tr.Players[1], res.Turns, int(res.Score), tr.Winner, tr.Final)
	if err != nil {
		return err
	}
	log.Debug().Str("run", run).Int("game", game).Msg("stored-game")
	return nil
}

// Tally is how many games of a run ended with a given winner: a player
// name, "draw" or "none".
type Tally struct {
	Winner string
	Games  int
}

// Tallies counts the run's games by winner, most frequent first.
func (s *Store) Tallies(ctx context.Context, run string) ([]Tally, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT winner, COUNT(*) AS n FROM games WHERE run = ?
		 GROUP BY winner ORDER BY n DESC, winner`, run)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tallies []Tally
	for rows.Next() {
		var t Tally
		if err := rows.Scan(&t.Winner, &t.Games); err != nil {
			return nil, err
		}
		tallies = append(tallies, t)
	}
	return tallies, rows.Err()
}

// Runs lists the run identifiers in the store, oldest first.
func (s *Store) Runs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run FROM games GROUP BY run ORDER BY MIN(id)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
