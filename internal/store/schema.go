package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// dialect holds the column types that differ between drivers.
type dialect struct {
	serial string
	bool   string
}

var dialects = map[string]dialect{
	DriverSQLite:   {serial: "INTEGER PRIMARY KEY AUTOINCREMENT", bool: "INTEGER"},
	DriverPostgres: {serial: "BIGSERIAL PRIMARY KEY", bool: "BOOLEAN"},
}

func schemaStatements(d dialect) []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS courses (
			id TEXT PRIMARY KEY,
			version TEXT NOT NULL,
			title TEXT NOT NULL,
			lectures TEXT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS quizzes (
			lecture_id TEXT PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL DEFAULT '',
			questions TEXT NOT NULL,
			pass_threshold INTEGER NOT NULL,
			is_generated %s NOT NULL DEFAULT FALSE,
			created_at BIGINT NOT NULL
		)`, d.bool),
		`CREATE TABLE IF NOT EXISTS progress (
			learner_id TEXT NOT NULL,
			course_id TEXT NOT NULL,
			completed_lectures TEXT NOT NULL,
			completed_quizzes TEXT NOT NULL,
			percent INTEGER NOT NULL,
			updated_at BIGINT NOT NULL,
			PRIMARY KEY (learner_id, course_id)
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS progress_snapshots (
			id %s,
			sequence BIGINT NOT NULL,
			learner_id TEXT NOT NULL,
			course_id TEXT NOT NULL,
			completed_lectures TEXT NOT NULL,
			completed_quizzes TEXT NOT NULL,
			percent INTEGER NOT NULL,
			created_at BIGINT NOT NULL
		)`, d.serial),
		`CREATE INDEX IF NOT EXISTS progress_snapshots_owner
			ON progress_snapshots (learner_id, course_id, sequence)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS quiz_attempts (
			id TEXT PRIMARY KEY,
			sequence BIGINT NOT NULL,
			learner_id TEXT NOT NULL,
			quiz_id TEXT NOT NULL,
			lecture_id TEXT NOT NULL,
			course_id TEXT NOT NULL,
			score INTEGER NOT NULL,
			passed %s NOT NULL,
			answers TEXT NOT NULL,
			created_at BIGINT NOT NULL
		)`, d.bool),
		`CREATE INDEX IF NOT EXISTS quiz_attempts_learner
			ON quiz_attempts (learner_id, sequence)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS llm_events (
			id %s,
			sequence BIGINT NOT NULL,
			created_at BIGINT NOT NULL,
			provider TEXT NOT NULL,
			model TEXT NOT NULL,
			purpose TEXT NOT NULL,
			input_tokens INTEGER NOT NULL,
			output_tokens INTEGER NOT NULL,
			latency_ms BIGINT NOT NULL,
			success %s NOT NULL,
			error_message TEXT NOT NULL DEFAULT '',
			request_body TEXT NOT NULL DEFAULT '',
			response_body TEXT NOT NULL DEFAULT ''
		)`, d.serial, d.bool),
	}
}

// migrate creates any missing tables. Schema changes are additive only.
func migrate(ctx context.Context, db *sqlx.DB, driver string) error {
	d, ok := dialects[driver]
	if !ok {
		return fmt.Errorf("no schema for driver %q", driver)
	}
	for _, stmt := range schemaStatements(d) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec schema: %w", err)
		}
	}
	return nil
}
