package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type attemptRow struct {
	ID        string `db:"id"`
	Sequence  int64  `db:"sequence"`
	LearnerID string `db:"learner_id"`
	QuizID    string `db:"quiz_id"`
	LectureID string `db:"lecture_id"`
	CourseID  string `db:"course_id"`
	Score     int    `db:"score"`
	Passed    bool   `db:"passed"`
	Answers   string `db:"answers"`
	CreatedAt int64  `db:"created_at"`
}

// attemptRepo implements AttemptRepo on the quiz_attempts table.
type attemptRepo struct {
	db  *sqlx.DB
	seq *sequenceCounter
}

func (r *attemptRepo) Append(ctx context.Context, a Attempt) (string, error) {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return "", fmt.Errorf("next sequence: %w", err)
	}

	answers := a.Answers
	if answers == nil {
		answers = []int{}
	}
	encoded, err := encodeJSON(answers)
	if err != nil {
		return "", fmt.Errorf("marshal answers: %w", err)
	}

	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	row := attemptRow{
		ID:        uuid.NewString(),
		Sequence:  seqNum,
		LearnerID: a.LearnerID,
		QuizID:    a.QuizID,
		LectureID: a.LectureID,
		CourseID:  a.CourseID,
		Score:     a.Score,
		Passed:    a.Passed,
		Answers:   encoded,
		CreatedAt: toMillis(createdAt),
	}
	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO quiz_attempts
			(id, sequence, learner_id, quiz_id, lecture_id, course_id, score, passed, answers, created_at)
		VALUES
			(:id, :sequence, :learner_id, :quiz_id, :lecture_id, :course_id, :score, :passed, :answers, :created_at)`, row)
	if err != nil {
		return "", fmt.Errorf("save quiz attempt: %w", err)
	}
	return row.ID, nil
}

func (r *attemptRepo) ListByLearner(ctx context.Context, learnerID string, opts QueryOpts) ([]Attempt, error) {
	q := `SELECT id, sequence, learner_id, quiz_id, lecture_id, course_id, score, passed, answers, created_at
		FROM quiz_attempts WHERE learner_id = ?`
	args := []any{learnerID}
	q, args = applyQueryOpts(q, args, opts)

	var rows []attemptRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("query quiz attempts: %w", err)
	}

	out := make([]Attempt, 0, len(rows))
	for _, row := range rows {
		var answers []int
		if err := json.Unmarshal([]byte(row.Answers), &answers); err != nil {
			return nil, fmt.Errorf("parse answers of %s: %w", row.ID, err)
		}
		out = append(out, Attempt{
			ID:        row.ID,
			Sequence:  row.Sequence,
			LearnerID: row.LearnerID,
			QuizID:    row.QuizID,
			LectureID: row.LectureID,
			CourseID:  row.CourseID,
			Score:     row.Score,
			Passed:    row.Passed,
			Answers:   answers,
			CreatedAt: fromMillis(row.CreatedAt),
		})
	}
	return out, nil
}

// applyQueryOpts appends the QueryOpts filters to a query that already has a
// WHERE clause, and orders newest first.
func applyQueryOpts(q string, args []any, opts QueryOpts) (string, []any) {
	if opts.After > 0 {
		q += ` AND sequence > ?`
		args = append(args, opts.After)
	}
	if opts.Before > 0 {
		q += ` AND sequence < ?`
		args = append(args, opts.Before)
	}
	if !opts.From.IsZero() {
		q += ` AND created_at >= ?`
		args = append(args, toMillis(opts.From))
	}
	if !opts.To.IsZero() {
		q += ` AND created_at <= ?`
		args = append(args, toMillis(opts.To))
	}
	q += ` ORDER BY sequence DESC`
	if opts.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, opts.Limit)
	}
	return q, args
}
