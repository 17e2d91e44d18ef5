// Package journal records resolved turn outcomes in a SQLite database so a
// campaign can be replayed and inspected after the fact.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/nstehr/vimy/vimy-tactics/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS outcomes (
	id           TEXT PRIMARY KEY,
	session_id   TEXT NOT NULL,
	turn         INTEGER NOT NULL,
	unit_id      TEXT NOT NULL,
	unit_name    TEXT NOT NULL,
	action       TEXT NOT NULL,
	forced       INTEGER NOT NULL,
	forced_by    TEXT,
	target       TEXT,
	reward       REAL NOT NULL,
	invalid      INTEGER NOT NULL,
	eliminated   INTEGER NOT NULL,
	weight_after REAL NOT NULL,
	deltas_json  TEXT NOT NULL,
	created_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_outcomes_session ON outcomes(session_id, turn);
`

// Journal appends outcomes for one session. Every Open starts a new session.
type Journal struct {
	db      *sql.DB
	session string
}

// Open opens (or creates) the database at path and runs migrations.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Journal{db: db, session: uuid.NewString()}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Session returns the id stamped on every row this journal writes.
func (j *Journal) Session() string { return j.session }

// Record inserts one outcome.
func (j *Journal) Record(ctx context.Context, out model.TurnOutcome) error {
	deltas, err := json.Marshal(out.Deltas)
	if err != nil {
		return fmt.Errorf("marshal deltas: %w", err)
	}
	_, err = j.db.ExecContext(ctx,
		`INSERT INTO outcomes (id, session_id, turn, unit_id, unit_name, action, forced, forced_by,
		 target, reward, invalid, eliminated, weight_after, deltas_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		j.session,
		out.Turn,
		out.UnitID,
		out.UnitName,
		out.Action.String(),
		out.Forced,
		nullIfEmpty(out.ForcedBy),
		nullIfEmpty(out.Target),
		out.Reward,
		out.Invalid,
		out.Eliminated,
		out.WeightAfter,
		string(deltas),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// Notify records an outcome, logging failures instead of returning them so
// the journal can sit alongside other outcome collaborators.
func (j *Journal) Notify(out model.TurnOutcome) {
	if err := j.Record(context.Background(), out); err != nil {
		slog.Error("journal write failed", "turn", out.Turn, "unit", out.UnitName, "error", err)
	}
}

// Outcomes returns every outcome of a session in turn order. An empty session
// means the journal's own.
func (j *Journal) Outcomes(ctx context.Context, session string) ([]model.TurnOutcome, error) {
	if session == "" {
		session = j.session
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT turn, unit_id, unit_name, action, forced, forced_by, target, reward,
		 invalid, eliminated, weight_after, deltas_json
		 FROM outcomes WHERE session_id = ? ORDER BY turn, rowid`, session)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var outs []model.TurnOutcome
	for rows.Next() {
		var (
			out      model.TurnOutcome
			action   string
			forcedBy sql.NullString
			target   sql.NullString
			deltas   string
		)
		if err := rows.Scan(&out.Turn, &out.UnitID, &out.UnitName, &action, &out.Forced, &forcedBy,
			&target, &out.Reward, &out.Invalid, &out.Eliminated, &out.WeightAfter, &deltas); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		kind, err := model.ParseActionKind(action)
		if err != nil {
			return nil, fmt.Errorf("outcome action: %w", err)
		}
		out.Action = kind
		out.ForcedBy = forcedBy.String
		out.Target = target.String
		if err := json.Unmarshal([]byte(deltas), &out.Deltas); err != nil {
			return nil, fmt.Errorf("unmarshal deltas: %w", err)
		}
		outs = append(outs, out)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return outs, nil
}

// ActionCounts tallies how often each action was taken in a session.
func (j *Journal) ActionCounts(ctx context.Context, session string) (map[model.ActionKind]int, error) {
	if session == "" {
		session = j.session
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT action, COUNT(*) FROM outcomes WHERE session_id = ? GROUP BY action`, session)
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.ActionKind]int)
	for rows.Next() {
		var (
			action string
			n      int
		)
		if err := rows.Scan(&action, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		kind, err := model.ParseActionKind(action)
		if err != nil {
			return nil, fmt.Errorf("count action: %w", err)
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
