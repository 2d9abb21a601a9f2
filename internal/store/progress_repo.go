package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/abhisek/coursepath/internal/course"
)

type progressRow struct {
	LearnerID         string `db:"learner_id"`
	CourseID          string `db:"course_id"`
	CompletedLectures string `db:"completed_lectures"`
	CompletedQuizzes  string `db:"completed_quizzes"`
	Percent           int    `db:"percent"`
	UpdatedAt         int64  `db:"updated_at"`
}

func newProgressRow(p Progress, at time.Time) (progressRow, error) {
	lectures, err := encodeJSON(nonNil(p.CompletedLectureIDs))
	if err != nil {
		return progressRow{}, fmt.Errorf("marshal lecture ids: %w", err)
	}
	quizzes, err := encodeJSON(nonNil(p.CompletedQuizIDs))
	if err != nil {
		return progressRow{}, fmt.Errorf("marshal quiz ids: %w", err)
	}
	return progressRow{
		LearnerID:         p.LearnerID,
		CourseID:          p.CourseID,
		CompletedLectures: lectures,
		CompletedQuizzes:  quizzes,
		Percent:           p.Percent,
		UpdatedAt:         toMillis(at),
	}, nil
}

func (row progressRow) toProgress() (Progress, error) {
	lectures, err := decodeStrings(row.CompletedLectures)
	if err != nil {
		return Progress{}, fmt.Errorf("parse lecture ids: %w", err)
	}
	quizzes, err := decodeStrings(row.CompletedQuizzes)
	if err != nil {
		return Progress{}, fmt.Errorf("parse quiz ids: %w", err)
	}
	return Progress{
		LearnerID:           row.LearnerID,
		CourseID:            row.CourseID,
		CompletedLectureIDs: lectures,
		CompletedQuizIDs:    quizzes,
		Percent:             row.Percent,
		UpdatedAt:           fromMillis(row.UpdatedAt),
	}, nil
}

// sqlProgressRepo implements ProgressRepo on the progress table.
type sqlProgressRepo struct {
	db  *sqlx.DB
	now func() time.Time
}

func (r *sqlProgressRepo) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

func (r *sqlProgressRepo) Get(ctx context.Context, learnerID, courseID string) (*Progress, error) {
	var row progressRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`
		SELECT learner_id, course_id, completed_lectures, completed_quizzes, percent, updated_at
		FROM progress WHERE learner_id = ? AND course_id = ?`), learnerID, courseID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("progress %s/%s: %w", learnerID, courseID, course.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	p, err := row.toProgress()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *sqlProgressRepo) Put(ctx context.Context, p Progress) (time.Time, error) {
	at := r.clock().UTC().Truncate(time.Millisecond)
	row, err := newProgressRow(p, at)
	if err != nil {
		return time.Time{}, err
	}

	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO progress (learner_id, course_id, completed_lectures, completed_quizzes, percent, updated_at)
		VALUES (:learner_id, :course_id, :completed_lectures, :completed_quizzes, :percent, :updated_at)
		ON CONFLICT (learner_id, course_id) DO UPDATE SET
			completed_lectures = excluded.completed_lectures,
			completed_quizzes = excluded.completed_quizzes,
			percent = excluded.percent,
			updated_at = excluded.updated_at`, row)
	if err != nil {
		return time.Time{}, fmt.Errorf("save progress: %w", err)
	}
	return at, nil
}

func (r *sqlProgressRepo) ListByLearner(ctx context.Context, learnerID string) ([]Progress, error) {
	var rows []progressRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT learner_id, course_id, completed_lectures, completed_quizzes, percent, updated_at
		FROM progress WHERE learner_id = ? ORDER BY course_id`), learnerID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}

	out := make([]Progress, 0, len(rows))
	for _, row := range rows {
		p, err := row.toProgress()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
