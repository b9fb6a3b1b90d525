// Package history keeps finished games and their turns in SQLite.
package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fyrsmithlabs/snakebot/internal/game"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // store assumes sqlite
)

// GameRow is one stored game.
type GameRow struct {
	SessionID      string    `db:"session_id"`
	StartedAt      time.Time `db:"started_at"`
	FinishedAt     time.Time `db:"finished_at"`
	Winner         string    `db:"winner"`
	PlayerPosition int       `db:"player_position"`
	RobotPosition  int       `db:"robot_position"`
	Turns          int       `db:"turns"`
	Error          string    `db:"error"`
}

// TurnRow is one stored turn.
type TurnRow struct {
	SessionID        string    `db:"session_id"`
	Number           int       `db:"number"`
	Actor            string    `db:"actor"`
	Roll             int       `db:"roll"`
	From             int       `db:"from_field"`
	Landing          int       `db:"landing_field"`
	Final            int       `db:"final_field"`
	PreMoveCollision bool      `db:"pre_move_collision"`
	Bumped           bool      `db:"bumped"`
	Outcome          string    `db:"outcome"`
	DurationMS       int64     `db:"duration_ms"`
	RecordedAt       time.Time `db:"recorded_at"`
}

// Stats aggregates all stored games.
type Stats struct {
	Games      int `db:"games"`
	PlayerWins int `db:"player_wins"`
	RobotWins  int `db:"robot_wins"`
	Unfinished int `db:"unfinished"`
}

// Store is the SQLite history store. It implements game.Journal.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ game.Journal = (*Store)(nil)

// Open opens or creates the database at path. A leading "~/" is expanded
// and missing parent directories are created.
func Open(path string) (*Store, error) {
	path, err := expandHome(path)
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	// sqlite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	for name, stmt := range map[string]string{"games": createGamesTable, "turns": createTurnsTable} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create %s table: %w", name, err)
		}
	}
	return &Store{db: db, now: time.Now}, nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

// RecordTurn stores one turn of a session.
func (s *Store) RecordTurn(ctx context.Context, sessionID string, t game.TurnResult) error {
	row := TurnRow{
		SessionID:        sessionID,
		Number:           t.Number,
		Actor:            t.Actor.String(),
		Roll:             t.Roll,
		From:             t.From,
		Landing:          t.Landing,
		Final:            t.Final,
		PreMoveCollision: t.PreMoveCollision,
		Bumped:           t.Bumped,
		Outcome:          t.Outcome,
		DurationMS:       t.Duration.Milliseconds(),
		RecordedAt:       s.now().UTC(),
	}
	if _, err := s.db.NamedExecContext(ctx, insertTurn, &row); err != nil {
		return fmt.Errorf("insert turn %d: %w", t.Number, err)
	}
	return nil
}

// RecordGame stores a game result.
func (s *Store) RecordGame(ctx context.Context, r game.Result) error {
	row := GameRow{
		SessionID:      r.SessionID,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		Winner:         r.Winner,
		PlayerPosition: r.PlayerPosition,
		RobotPosition:  r.RobotPosition,
		Turns:          r.Turns,
		Error:          r.Err,
	}
	if _, err := s.db.NamedExecContext(ctx, insertGame, &row); err != nil {
		return fmt.Errorf("insert game %s: %w", r.SessionID, err)
	}
	return nil
}

// RecentGames returns up to limit games, newest first.
func (s *Store) RecentGames(ctx context.Context, limit int) ([]GameRow, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []GameRow
	if err := s.db.SelectContext(ctx, &rows, selectRecentGames, limit); err != nil {
		return nil, fmt.Errorf("select games: %w", err)
	}
	return rows, nil
}

// Turns returns the turns of one session in order.
func (s *Store) Turns(ctx context.Context, sessionID string) ([]TurnRow, error) {
	var rows []TurnRow
	if err := s.db.SelectContext(ctx, &rows, selectTurns, sessionID); err != nil {
		return nil, fmt.Errorf("select turns: %w", err)
	}
	return rows, nil
}

// Stats returns win counts over all games.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.GetContext(ctx, &st, selectStats); err != nil {
		return Stats{}, fmt.Errorf("select stats: %w", err)
	}
	return st, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
