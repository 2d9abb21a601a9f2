package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/abhisek/coursepath/internal/course"
	"github.com/abhisek/coursepath/internal/progress"
	"github.com/abhisek/coursepath/internal/quizgate"
	"github.com/abhisek/coursepath/internal/store"
)

// progressResponse mirrors progress.Seed on the wire.
type progressResponse struct {
	LearnerID           string    `json:"learnerId"`
	CourseID            string    `json:"courseId"`
	CompletedLectureIDs []string  `json:"completedLectureIds"`
	CompletedQuizIDs    []string  `json:"completedQuizIds"`
	Percent             int       `json:"percent"`
	LastSyncedAt        time.Time `json:"lastSyncedAt"`
}

type pushResponse struct {
	SyncedAt time.Time `json:"syncedAt"`
	Percent  int       `json:"percent"`
}

type attemptResponse struct {
	ID string `json:"id"`
}

type snapshotResponse struct {
	Sequence  int64            `json:"sequence"`
	Timestamp time.Time        `json:"timestamp"`
	Progress  progressResponse `json:"progress"`
}

func toProgressResponse(p store.Progress) progressResponse {
	return progressResponse{
		LearnerID:           p.LearnerID,
		CourseID:            p.CourseID,
		CompletedLectureIDs: nonNil(p.CompletedLectureIDs),
		CompletedQuizIDs:    nonNil(p.CompletedQuizIDs),
		Percent:             p.Percent,
		LastSyncedAt:        p.UpdatedAt,
	}
}

func (s *Server) handleGetCourse(c echo.Context) error {
	crs, err := s.deps.Courses.Get(c.Request().Context(), c.Param("course"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, crs)
}

func (s *Server) handleGetQuiz(c echo.Context) error {
	if s.deps.Quizzes == nil {
		return fmt.Errorf("quiz for %s: %w", c.Param("lecture"), course.ErrNotFound)
	}
	q, err := s.deps.Quizzes.Get(c.Request().Context(), c.Param("lecture"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, q)
}

func (s *Server) handleGenerateQuiz(c echo.Context) error {
	ctx := c.Request().Context()
	regenerate := false
	if raw := c.QueryParam("regenerate"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("regenerate %q: %w", raw, errBadRequest)
		}
		regenerate = v
	}

	crs, err := s.deps.Courses.Get(ctx, c.Param("course"))
	if err != nil {
		return err
	}
	if s.deps.Quizzes == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "quiz generation disabled")
	}
	q, err := s.deps.Quizzes.Generate(ctx, crs, c.Param("lecture"), regenerate)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, q)
}

func (s *Server) handleListProgress(c echo.Context) error {
	records, err := s.deps.Progress.ListByLearner(c.Request().Context(), c.Param("learner"))
	if err != nil {
		return err
	}
	out := make([]progressResponse, 0, len(records))
	for _, p := range records {
		out = append(out, toProgressResponse(p))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetProgress(c echo.Context) error {
	p, err := s.deps.Progress.Get(c.Request().Context(), c.Param("learner"), c.Param("course"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProgressResponse(*p))
}

// handlePutProgress replaces the stored record with the pushed snapshot.
// When the course is known, lecture ids outside it are dropped and the
// percent is recomputed.
func (s *Server) handlePutProgress(c echo.Context) error {
	ctx := c.Request().Context()
	learnerID, courseID := c.Param("learner"), c.Param("course")

	var body progress.Payload
	if err := c.Bind(&body); err != nil {
		return fmt.Errorf("decode progress: %v: %w", err, errBadRequest)
	}
	if err := c.Validate(&body); err != nil {
		return err
	}

	p := store.Progress{
		LearnerID:           learnerID,
		CourseID:            courseID,
		CompletedLectureIDs: progress.NewIDSet(body.CompletedLectureIDs...).Slice(),
		CompletedQuizIDs:    progress.NewIDSet(body.CompletedQuizIDs...).Slice(),
		Percent:             body.Percent,
	}

	crs, err := s.deps.Courses.Get(ctx, courseID)
	switch {
	case err == nil:
		var lectures progress.IDSet
		for _, id := range p.CompletedLectureIDs {
			if crs.HasLecture(id) {
				lectures = lectures.With(id)
			}
		}
		p.CompletedLectureIDs = lectures.Slice()
		p.Percent = progress.CoursePercent(crs, lectures)
	case errors.Is(err, course.ErrNotFound):
	default:
		return err
	}

	syncedAt, err := s.deps.Progress.Put(ctx, p)
	if err != nil {
		return err
	}
	p.UpdatedAt = syncedAt
	s.saveSnapshot(c, p)

	return c.JSON(http.StatusOK, pushResponse{SyncedAt: syncedAt, Percent: p.Percent})
}

// saveSnapshot appends to the push history. Failures are logged only; the
// push itself already succeeded.
func (s *Server) saveSnapshot(c echo.Context, p store.Progress) {
	if s.deps.Snapshots == nil || s.deps.Sequence == nil {
		return
	}
	ctx := c.Request().Context()
	log := s.logger.With(zap.String("learner", p.LearnerID), zap.String("course", p.CourseID))

	seq, err := s.deps.Sequence(ctx)
	if err != nil {
		log.Warn("snapshot sequence failed", zap.Error(err))
		return
	}
	snap := &store.ProgressSnapshot{Sequence: seq, Timestamp: p.UpdatedAt, Progress: p}
	if err := s.deps.Snapshots.Save(ctx, snap); err != nil {
		log.Warn("save progress snapshot failed", zap.Error(err))
		return
	}
	if err := s.deps.Snapshots.Prune(ctx, p.LearnerID, p.CourseID, SnapshotKeep); err != nil {
		log.Warn("prune progress snapshots failed", zap.Error(err))
	}
}

func (s *Server) handleProgressHistory(c echo.Context) error {
	if s.deps.Snapshots == nil {
		return c.JSON(http.StatusOK, []snapshotResponse{})
	}
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return fmt.Errorf("limit %q: %w", raw, errBadRequest)
		}
		limit = n
	}

	snaps, err := s.deps.Snapshots.History(c.Request().Context(), c.Param("learner"), c.Param("course"), limit)
	if err != nil {
		return err
	}
	out := make([]snapshotResponse, 0, len(snaps))
	for _, sn := range snaps {
		out = append(out, snapshotResponse{
			Sequence:  sn.Sequence,
			Timestamp: sn.Timestamp,
			Progress:  toProgressResponse(sn.Progress),
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleRecordAttempt(c echo.Context) error {
	var body quizgate.Attempt
	if err := c.Bind(&body); err != nil {
		return fmt.Errorf("decode attempt: %v: %w", err, errBadRequest)
	}
	if body.QuizID == "" || body.LectureID == "" {
		return fmt.Errorf("attempt needs quizId and lectureId: %w", errBadRequest)
	}

	id, err := s.deps.Attempts.Append(c.Request().Context(), store.Attempt{
		LearnerID: c.Param("learner"),
		QuizID:    body.QuizID,
		LectureID: body.LectureID,
		CourseID:  body.CourseID,
		Score:     body.Score,
		Passed:    body.Passed,
		Answers:   body.Answers,
		CreatedAt: body.SubmittedAt,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, attemptResponse{ID: id})
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
