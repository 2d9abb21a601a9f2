package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/abhisek/coursepath/internal/course"
)

type courseRow struct {
	ID        string `db:"id"`
	Version   string `db:"version"`
	Title     string `db:"title"`
	Lectures  string `db:"lectures"`
	UpdatedAt int64  `db:"updated_at"`
}

// CourseRepo stores course definitions. Lectures are kept as a JSON column
// because they are only ever read and written as a whole.
type CourseRepo struct {
	db *sqlx.DB
}

// Save inserts or replaces the course.
func (r *CourseRepo) Save(ctx context.Context, c *course.Course) error {
	lectures, err := encodeJSON(c.Lectures)
	if err != nil {
		return fmt.Errorf("marshal lectures: %w", err)
	}

	row := courseRow{
		ID:        c.ID,
		Version:   c.Version,
		Title:     c.Title,
		Lectures:  lectures,
		UpdatedAt: toMillis(time.Now()),
	}
	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO courses (id, version, title, lectures, updated_at)
		VALUES (:id, :version, :title, :lectures, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			version = excluded.version,
			title = excluded.title,
			lectures = excluded.lectures,
			updated_at = excluded.updated_at`, row)
	if err != nil {
		return fmt.Errorf("save course %s: %w", c.ID, err)
	}
	return nil
}

// Get returns the course or course.ErrNotFound.
func (r *CourseRepo) Get(ctx context.Context, id string) (*course.Course, error) {
	var row courseRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(
		`SELECT id, version, title, lectures, updated_at FROM courses WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("course %s: %w", id, course.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query course %s: %w", id, err)
	}
	return row.toCourse()
}

// List returns every stored course ordered by id.
func (r *CourseRepo) List(ctx context.Context) ([]*course.Course, error) {
	var rows []courseRow
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT id, version, title, lectures, updated_at FROM courses ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}

	out := make([]*course.Course, 0, len(rows))
	for _, row := range rows {
		c, err := row.toCourse()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (row courseRow) toCourse() (*course.Course, error) {
	c := &course.Course{ID: row.ID, Version: row.Version, Title: row.Title}
	if err := json.Unmarshal([]byte(row.Lectures), &c.Lectures); err != nil {
		return nil, fmt.Errorf("parse lectures of %s: %w", row.ID, err)
	}
	return c, nil
}

type quizRow struct {
	LectureID     string `db:"lecture_id"`
	ID            string `db:"id"`
	Title         string `db:"title"`
	Questions     string `db:"questions"`
	PassThreshold int    `db:"pass_threshold"`
	Generated     bool   `db:"is_generated"`
	CreatedAt     int64  `db:"created_at"`
}

// QuizRepo stores at most one quiz per lecture.
type QuizRepo struct {
	db *sqlx.DB
}

// Save inserts the quiz or replaces the lecture's existing one.
func (r *QuizRepo) Save(ctx context.Context, q *course.Quiz) error {
	questions, err := encodeJSON(q.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}

	row := quizRow{
		LectureID:     q.LectureID,
		ID:            q.ID,
		Title:         q.Title,
		Questions:     questions,
		PassThreshold: q.Threshold(),
		Generated:     q.Generated,
		CreatedAt:     toMillis(time.Now()),
	}
	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO quizzes (lecture_id, id, title, questions, pass_threshold, is_generated, created_at)
		VALUES (:lecture_id, :id, :title, :questions, :pass_threshold, :is_generated, :created_at)
		ON CONFLICT (lecture_id) DO UPDATE SET
			id = excluded.id,
			title = excluded.title,
			questions = excluded.questions,
			pass_threshold = excluded.pass_threshold,
			is_generated = excluded.is_generated,
			created_at = excluded.created_at`, row)
	if err != nil {
		return fmt.Errorf("save quiz %s: %w", q.ID, err)
	}
	return nil
}

// ByLecture returns the lecture's quiz or course.ErrNotFound.
func (r *QuizRepo) ByLecture(ctx context.Context, lectureID string) (*course.Quiz, error) {
	return r.get(ctx, "lecture_id", lectureID)
}

// Get returns the quiz with the given id or course.ErrNotFound.
func (r *QuizRepo) Get(ctx context.Context, id string) (*course.Quiz, error) {
	return r.get(ctx, "id", id)
}

func (r *QuizRepo) get(ctx context.Context, column, value string) (*course.Quiz, error) {
	var row quizRow
	q := fmt.Sprintf(`SELECT lecture_id, id, title, questions, pass_threshold, is_generated, created_at
		FROM quizzes WHERE %s = ?`, column)
	err := r.db.GetContext(ctx, &row, r.db.Rebind(q), value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("quiz %s: %w", value, course.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query quiz %s: %w", value, err)
	}

	quiz := &course.Quiz{
		ID:            row.ID,
		LectureID:     row.LectureID,
		Title:         row.Title,
		PassThreshold: row.PassThreshold,
		Generated:     row.Generated,
	}
	if err := json.Unmarshal([]byte(row.Questions), &quiz.Questions); err != nil {
		return nil, fmt.Errorf("parse questions of %s: %w", row.ID, err)
	}
	return quiz, nil
}
