package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type snapshotRow struct {
	ID                int64  `db:"id"`
	Sequence          int64  `db:"sequence"`
	LearnerID         string `db:"learner_id"`
	CourseID          string `db:"course_id"`
	CompletedLectures string `db:"completed_lectures"`
	CompletedQuizzes  string `db:"completed_quizzes"`
	Percent           int    `db:"percent"`
	CreatedAt         int64  `db:"created_at"`
}

// snapshotRepo implements SnapshotRepo on the progress_snapshots table.
type snapshotRepo struct {
	db *sqlx.DB
}

func (r *snapshotRepo) Save(ctx context.Context, snap *ProgressSnapshot) error {
	pr, err := newProgressRow(snap.Progress, snap.Timestamp)
	if err != nil {
		return err
	}
	row := snapshotRow{
		Sequence:          snap.Sequence,
		LearnerID:         pr.LearnerID,
		CourseID:          pr.CourseID,
		CompletedLectures: pr.CompletedLectures,
		CompletedQuizzes:  pr.CompletedQuizzes,
		Percent:           pr.Percent,
		CreatedAt:         pr.UpdatedAt,
	}
	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO progress_snapshots
			(sequence, learner_id, course_id, completed_lectures, completed_quizzes, percent, created_at)
		VALUES
			(:sequence, :learner_id, :course_id, :completed_lectures, :completed_quizzes, :percent, :created_at)`, row)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (r *snapshotRepo) History(ctx context.Context, learnerID, courseID string, limit int) ([]ProgressSnapshot, error) {
	q := `SELECT id, sequence, learner_id, course_id, completed_lectures, completed_quizzes, percent, created_at
		FROM progress_snapshots WHERE learner_id = ? AND course_id = ?
		ORDER BY sequence DESC`
	args := []any{learnerID, courseID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []snapshotRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}

	out := make([]ProgressSnapshot, 0, len(rows))
	for _, row := range rows {
		p, err := progressRow{
			LearnerID:         row.LearnerID,
			CourseID:          row.CourseID,
			CompletedLectures: row.CompletedLectures,
			CompletedQuizzes:  row.CompletedQuizzes,
			Percent:           row.Percent,
			UpdatedAt:         row.CreatedAt,
		}.toProgress()
		if err != nil {
			return nil, err
		}
		out = append(out, ProgressSnapshot{
			ID:        row.ID,
			Sequence:  row.Sequence,
			Timestamp: fromMillis(row.CreatedAt),
			Progress:  p,
		})
	}
	return out, nil
}

func (r *snapshotRepo) Prune(ctx context.Context, learnerID, courseID string, keep int) error {
	// Find the sequence threshold: the keep-th most recent snapshot.
	var cutoff []int64
	err := r.db.SelectContext(ctx, &cutoff, r.db.Rebind(`
		SELECT sequence FROM progress_snapshots
		WHERE learner_id = ? AND course_id = ?
		ORDER BY sequence DESC LIMIT 1 OFFSET ?`), learnerID, courseID, keep)
	if err != nil {
		return fmt.Errorf("query snapshots for prune: %w", err)
	}
	if len(cutoff) == 0 {
		return nil // fewer than keep snapshots exist
	}

	_, err = r.db.ExecContext(ctx, r.db.Rebind(`
		DELETE FROM progress_snapshots
		WHERE learner_id = ? AND course_id = ? AND sequence <= ?`), learnerID, courseID, cutoff[0])
	if err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}
