package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/abhisek/coursepath/internal/course"
)

// RedisConfig configures the redis progress backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type redisProgress struct {
	LearnerID           string   `json:"learnerId"`
	CourseID            string   `json:"courseId"`
	CompletedLectureIDs []string `json:"completedLectureIds"`
	CompletedQuizIDs    []string `json:"completedQuizIds"`
	Percent             int      `json:"percent"`
	UpdatedAt           int64    `json:"updatedAt"`
}

// RedisProgressRepo implements ProgressRepo on redis. Each record is one JSON
// string; a per-learner set indexes the learner's courses.
type RedisProgressRepo struct {
	conn *redis.Client
	now  func() time.Time
}

// NewRedisProgressRepo creates a repo on a new redis client.
func NewRedisProgressRepo(cfg RedisConfig) *RedisProgressRepo {
	conn := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisProgressRepo{conn: conn, now: time.Now}
}

// Ping checks the connection.
func (r *RedisProgressRepo) Ping(ctx context.Context) error {
	return r.conn.Ping(ctx).Err()
}

// Close closes the client.
func (r *RedisProgressRepo) Close() error {
	return r.conn.Close()
}

func progressKey(learnerID, courseID string) string {
	return fmt.Sprintf("progress:%s:%s", learnerID, courseID)
}

func learnerKey(learnerID string) string {
	return fmt.Sprintf("progress:%s", learnerID)
}

func (r *RedisProgressRepo) Get(ctx context.Context, learnerID, courseID string) (*Progress, error) {
	raw, err := r.conn.Get(ctx, progressKey(learnerID, courseID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("progress %s/%s: %w", learnerID, courseID, course.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	p, err := decodeRedisProgress(raw)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *RedisProgressRepo) Put(ctx context.Context, p Progress) (time.Time, error) {
	at := r.now().UTC().Truncate(time.Millisecond)
	data, err := json.Marshal(redisProgress{
		LearnerID:           p.LearnerID,
		CourseID:            p.CourseID,
		CompletedLectureIDs: nonNil(p.CompletedLectureIDs),
		CompletedQuizIDs:    nonNil(p.CompletedQuizIDs),
		Percent:             p.Percent,
		UpdatedAt:           toMillis(at),
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("marshal progress: %w", err)
	}

	_, err = r.conn.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, progressKey(p.LearnerID, p.CourseID), data, 0)
		pipe.SAdd(ctx, learnerKey(p.LearnerID), p.CourseID)
		return nil
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("save progress: %w", err)
	}
	return at, nil
}

func (r *RedisProgressRepo) ListByLearner(ctx context.Context, learnerID string) ([]Progress, error) {
	courses, err := r.conn.SMembers(ctx, learnerKey(learnerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list learner courses: %w", err)
	}
	sort.Strings(courses)

	out := make([]Progress, 0, len(courses))
	for _, courseID := range courses {
		p, err := r.Get(ctx, learnerID, courseID)
		if errors.Is(err, course.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

func decodeRedisProgress(raw string) (Progress, error) {
	var rp redisProgress
	if err := json.Unmarshal([]byte(raw), &rp); err != nil {
		return Progress{}, fmt.Errorf("parse progress: %w", err)
	}
	return Progress{
		LearnerID:           rp.LearnerID,
		CourseID:            rp.CourseID,
		CompletedLectureIDs: rp.CompletedLectureIDs,
		CompletedQuizIDs:    rp.CompletedQuizIDs,
		Percent:             rp.Percent,
		UpdatedAt:           fromMillis(rp.UpdatedAt),
	}, nil
}
