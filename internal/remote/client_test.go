package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/coursepath/internal/api"
	"github.com/abhisek/coursepath/internal/course"
	"github.com/abhisek/coursepath/internal/courseview"
	"github.com/abhisek/coursepath/internal/progress"
	"github.com/abhisek/coursepath/internal/quizgate"
	"github.com/abhisek/coursepath/internal/quizgen"
	"github.com/abhisek/coursepath/internal/store"
)

var nonWord = regexp.MustCompile(`[^A-Za-z0-9]+`)

func testCourse() *course.Course {
	return &course.Course{
		ID:      "c1",
		Version: "v1.0.0",
		Title:   "Course One",
		Lectures: []course.LectureRef{
			{ID: "L0", Index: 0},
			{ID: "L1", Index: 1, QuizID: "Q1"},
			{ID: "L2", Index: 2},
		},
	}
}

// newTestClient runs the real API over an in-memory store. Quiz generation
// is disabled.
func newTestClient(t *testing.T) (*Client, *store.Store) {
	t.Helper()
	name := nonWord.ReplaceAllString(t.Name(), "_")
	st, err := store.Open(store.DriverSQLite, "file:remote_"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.CourseRepo().Save(context.Background(), testCourse()))

	srv := api.New(api.Deps{
		Courses:   st.CourseRepo(),
		Quizzes:   quizgen.NewService(st.QuizRepo(), nil, nil),
		Progress:  st.ProgressRepo(),
		Snapshots: st.SnapshotRepo(),
		Attempts:  st.AttemptRepo(),
		Sequence:  st.NextSequence,
	}, nil)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	c, err := New(ts.URL, ts.Client())
	require.NoError(t, err)
	return c, st
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := New("ftp://example.com", nil)
	assert.Error(t, err)
}

func TestFetchCourse(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	crs, err := c.FetchCourse(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Course One", crs.Title)
	assert.Len(t, crs.Lectures, 3)

	_, err = c.FetchCourse(ctx, "missing")
	assert.True(t, errors.Is(err, course.ErrNotFound), "err = %v", err)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
}

func TestProgressRoundTrip(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	seed, err := c.FetchProgress(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.Nil(t, seed, "no progress yet")

	syncedAt, err := c.PushProgress(ctx, "u1", "c1", progress.Payload{
		CompletedLectureIDs: []string{"L0"},
		CompletedQuizIDs:    []string{},
		Percent:             33,
	})
	require.NoError(t, err)
	assert.False(t, syncedAt.IsZero())

	seed, err = c.FetchProgress(ctx, "u1", "c1")
	require.NoError(t, err)
	require.NotNil(t, seed)
	assert.Equal(t, []any{"L0"}, seed.CompletedLectureIDs)
	assert.Equal(t, 33, seed.Percent)
	assert.True(t, seed.LastSyncedAt.Equal(syncedAt))
}

func TestPushProgress_Rejected(t *testing.T) {
	c, _ := newTestClient(t)
	_, err := c.PushProgress(context.Background(), "u1", "c1", progress.Payload{Percent: 101})
	var se *StatusError
	require.True(t, errors.As(err, &se), "err = %v", err)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
}

func TestQuizEndpoints(t *testing.T) {
	c, st := newTestClient(t)
	ctx := context.Background()

	_, err := c.FetchQuiz(ctx, "L1")
	assert.True(t, errors.Is(err, course.ErrNotFound), "err = %v", err)

	_, err = c.GenerateQuiz(ctx, "c1", "L1")
	var se *StatusError
	require.True(t, errors.As(err, &se), "err = %v", err)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)

	require.NoError(t, st.QuizRepo().Save(ctx, &course.Quiz{
		ID:            "Q1",
		LectureID:     "L1",
		PassThreshold: 60,
		Questions:     []course.Question{{Prompt: "p", Options: []string{"a", "b"}, Correct: 1}},
	}))
	q, err := c.FetchQuiz(ctx, "L1")
	require.NoError(t, err)
	assert.Equal(t, "Q1", q.ID)
}

func TestRecordAttempt(t *testing.T) {
	c, st := newTestClient(t)
	ctx := context.Background()

	err := c.RecordAttempt(ctx, "u1", quizgate.Attempt{
		QuizID: "Q1", LectureID: "L1", CourseID: "c1",
		Score: 60, Passed: true, Answers: []int{0, 1},
		SubmittedAt: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	got, err := st.AttemptRepo().ListByLearner(ctx, "u1", store.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 60, got[0].Score)
}

// TestCourseView_EndToEnd drives a view against the real API: a mutation is
// pushed on the debounce and survives a reopen.
func TestCourseView_EndToEnd(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	v, err := courseview.Open(ctx, c, courseview.Options{
		LearnerID: "u1",
		CourseID:  "c1",
		SyncDelay: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	v.OnMarkLectureComplete()
	require.Eventually(t, func() bool {
		return !v.Snapshot().LastSyncedAt.IsZero()
	}, 2*time.Second, 10*time.Millisecond)
	v.Close()

	reopened, err := courseview.Open(ctx, c, courseview.Options{LearnerID: "u1", CourseID: "c1"})
	require.NoError(t, err)
	defer reopened.Close()
	assert.True(t, reopened.Snapshot().LectureComplete("L0"))
	assert.Equal(t, 33, reopened.Percent())
	assert.True(t, reopened.UnlockState(1))
	idx, _ := reopened.Selected()
	assert.Equal(t, 1, idx)
}

func TestCourseView_LoadFailure(t *testing.T) {
	c, _ := newTestClient(t)
	_, err := courseview.Open(context.Background(), c, courseview.Options{LearnerID: "u1", CourseID: "missing"})
	assert.True(t, errors.Is(err, courseview.ErrLoadFailed))
}
