package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/state"
)

const archiveSchema = `
CREATE TABLE IF NOT EXISTS action_results (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	game_state_id  TEXT NOT NULL,
	character      TEXT NOT NULL,
	is_npc         INTEGER NOT NULL DEFAULT 0,
	location       TEXT NOT NULL DEFAULT '',
	game_day       INTEGER NOT NULL DEFAULT 0,
	game_minute    INTEGER NOT NULL DEFAULT 0,
	failure_kind   TEXT NOT NULL DEFAULT '',
	result_json    TEXT NOT NULL,
	created_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_action_results_game ON action_results(game_state_id, id);
`

// Archive is an append-only SQLite log of every ActionResult. The copy in
// GameState keeps only the latest few.
type Archive struct {
	db *sql.DB
}

// OpenArchive opens or creates the archive database at path.
func OpenArchive(path string) (*Archive, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("archive path is required")
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	// Single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), archiveSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate archive schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close releases the database.
func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Record appends r to the game's log.
func (a *Archive) Record(ctx context.Context, gameStateID uuid.UUID, r state.ActionResult) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal action result: %w", err)
	}
	var kind string
	if r.Failure != nil {
		kind = string(r.Failure.Kind)
	}
	created := r.Timestamp.UnixMilli()

	const q = `INSERT INTO action_results
(game_state_id, character, is_npc, location, game_day, game_minute, failure_kind, result_json, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = a.db.ExecContext(ctx, q,
		gameStateID.String(),
		r.Character,
		r.IsNPC,
		r.Location,
		r.GameTime.Day,
		r.GameTime.Minute,
		kind,
		string(payload),
		created,
	)
	if err != nil {
		return fmt.Errorf("append action result: %w", err)
	}
	return nil
}

// List returns the game's results oldest first. A positive limit keeps
// only the most recent limit entries.
func (a *Archive) List(ctx context.Context, gameStateID uuid.UUID, limit int) ([]state.ActionResult, error) {
	q := `SELECT result_json FROM (
	SELECT id, result_json FROM action_results
	WHERE game_state_id = ?
	ORDER BY id DESC`
	args := []any{gameStateID.String()}
	if limit > 0 {
		q += "\n\tLIMIT ?"
		args = append(args, limit)
	}
	q += "\n) ORDER BY id ASC"

	rows, err := a.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list action results: %w", err)
	}
	defer rows.Close()

	var out []state.ActionResult
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan action result: %w", err)
		}
		var r state.ActionResult
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("decode action result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Count returns how many results are archived for the game.
func (a *Archive) Count(ctx context.Context, gameStateID uuid.UUID) (int, error) {
	var n int
	err := a.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM action_results WHERE game_state_id = ?`,
		gameStateID.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count action results: %w", err)
	}
	return n, nil
}
