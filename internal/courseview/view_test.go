package courseview

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/coursepath/internal/cache"
	"github.com/abhisek/coursepath/internal/completion"
	"github.com/abhisek/coursepath/internal/course"
	"github.com/abhisek/coursepath/internal/progress"
	"github.com/abhisek/coursepath/internal/quizgate"
	"github.com/abhisek/coursepath/internal/syncer"
)

// fakeRemote is an in-memory Remote.
type fakeRemote struct {
	mu sync.Mutex

	course     *course.Course
	courseErr  error
	seed       *progress.Seed
	seedErr    error
	quizzes    map[string]*course.Quiz
	genErr     error
	pushErrs   []error
	pushes     []progress.Payload
	attempts   []quizgate.Attempt
	attemptErr error
}

func (r *fakeRemote) FetchCourse(_ context.Context, id string) (*course.Course, error) {
	if r.courseErr != nil {
		return nil, r.courseErr
	}
	if r.course == nil || r.course.ID != id {
		return nil, course.ErrNotFound
	}
	return r.course, nil
}

func (r *fakeRemote) FetchProgress(context.Context, string, string) (*progress.Seed, error) {
	return r.seed, r.seedErr
}

func (r *fakeRemote) PushProgress(_ context.Context, _, _ string, p progress.Payload) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushes = append(r.pushes, p)
	if len(r.pushErrs) > 0 {
		err := r.pushErrs[0]
		r.pushErrs = r.pushErrs[1:]
		if err != nil {
			return time.Time{}, err
		}
	}
	return time.Date(2026, 5, 1, 0, 0, len(r.pushes), 0, time.UTC), nil
}

func (r *fakeRemote) RecordAttempt(_ context.Context, _ string, a quizgate.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, a)
	return r.attemptErr
}

func (r *fakeRemote) FetchQuiz(_ context.Context, lectureID string) (*course.Quiz, error) {
	if q, ok := r.quizzes[lectureID]; ok {
		return q, nil
	}
	return nil, course.ErrNotFound
}

func (r *fakeRemote) GenerateQuiz(context.Context, string, string) (*course.Quiz, error) {
	if r.genErr != nil {
		return nil, r.genErr
	}
	return nil, errors.New("generation unavailable")
}

func (r *fakeRemote) pushCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pushes)
}

type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	f    func()
	done bool
}

func (t *manualTimer) Stop() bool {
	active := !t.done
	t.done = true
	return active
}

func (c *manualClock) AfterFunc(_ time.Duration, f func()) syncer.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) fire() int {
	c.mu.Lock()
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.done {
			t.done = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
	return len(due)
}

type noticeLog struct {
	mu      sync.Mutex
	notices []Notice
}

func (l *noticeLog) Notify(n Notice) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notices = append(l.notices, n)
}

func (l *noticeLog) count(kind NoticeKind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, x := range l.notices {
		if x.Kind == kind {
			n++
		}
	}
	return n
}

func threeLectures() *course.Course {
	return &course.Course{
		ID:      "c1",
		Version: "v1.0.0",
		Title:   "Course One",
		Lectures: []course.LectureRef{
			{ID: "L0", Index: 0},
			{ID: "L1", Index: 1},
			{ID: "L2", Index: 2},
		},
	}
}

func quizCourse() *course.Course {
	return &course.Course{
		ID:      "c2",
		Version: "v1.0.0",
		Lectures: []course.LectureRef{
			{ID: "L0", Index: 0, QuizID: "Q0"},
			{ID: "L1", Index: 1},
		},
	}
}

func fiveQuestionQuiz() *course.Quiz {
	q := &course.Quiz{ID: "Q0", LectureID: "L0", PassThreshold: course.PassThreshold}
	for i := 0; i < 5; i++ {
		q.Questions = append(q.Questions, course.Question{Prompt: "q", Options: []string{"a", "b"}, Correct: 0})
	}
	return q
}

type harness struct {
	view    *View
	remote  *fakeRemote
	clock   *manualClock
	notices *noticeLog
}

func open(t *testing.T, remote *fakeRemote, c *cache.Cache) *harness {
	t.Helper()
	h := &harness{remote: remote, clock: &manualClock{}, notices: &noticeLog{}}
	v, err := Open(context.Background(), remote, Options{
		LearnerID: "u1",
		CourseID:  remote.course.ID,
		Cache:     c,
		AfterFunc: h.clock.AfterFunc,
		Notifier:  h.notices,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(v.Close)
	h.view = v
	return h
}

func TestScenario_ThreeLectures(t *testing.T) {
	h := open(t, &fakeRemote{course: threeLectures()}, nil)
	v := h.view

	var fired []completion.CourseCompleted
	v.OnCourseCompleted(func(ev completion.CourseCompleted) { fired = append(fired, ev) })

	if err := v.Select(1); !errors.Is(err, ErrLocked) {
		t.Fatalf("Select(1) before L0 = %v, want ErrLocked", err)
	}

	v.OnMarkLectureComplete()
	if !v.UnlockState(1) {
		t.Error("UnlockState(1) = false, want true")
	}
	if v.UnlockState(2) {
		t.Error("UnlockState(2) = true, want false")
	}
	if v.Percent() != 33 {
		t.Errorf("Percent = %d, want 33", v.Percent())
	}

	if err := v.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	v.OnMarkLectureComplete()
	if v.ResumeIndex() != 2 {
		t.Errorf("ResumeIndex = %d, want 2", v.ResumeIndex())
	}

	if err := v.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	v.OnMarkLectureComplete()
	v.OnMarkLectureComplete()
	if v.Percent() != 100 {
		t.Errorf("Percent = %d, want 100", v.Percent())
	}
	if len(fired) != 1 {
		t.Errorf("CourseCompleted fired %d times, want 1", len(fired))
	}
	if h.notices.count(NoticeCourseCompleted) != 1 {
		t.Errorf("completion notices = %d, want 1", h.notices.count(NoticeCourseCompleted))
	}
}

func TestOpen_FetchFailure(t *testing.T) {
	_, err := Open(context.Background(), &fakeRemote{courseErr: errors.New("offline")}, Options{LearnerID: "u1", CourseID: "c1"})
	if !errors.Is(err, ErrLoadFailed) {
		t.Errorf("err = %v, want ErrLoadFailed", err)
	}

	_, err = Open(context.Background(), &fakeRemote{course: threeLectures(), seedErr: errors.New("500")}, Options{LearnerID: "u1", CourseID: "c1"})
	if !errors.Is(err, ErrLoadFailed) {
		t.Errorf("err = %v, want ErrLoadFailed", err)
	}
}

func TestOpen_SeedsAndResumes(t *testing.T) {
	remote := &fakeRemote{
		course: threeLectures(),
		seed: &progress.Seed{
			CompletedLectureIDs: []any{"L0", 42, "", "ghost", "L1"},
		},
	}
	h := open(t, remote, nil)

	snap := h.view.Snapshot()
	if snap.CompletedLectureIDs.Len() != 2 {
		t.Errorf("completed = %v, want [L0 L1]", snap.CompletedLectureIDs)
	}
	if idx, _ := h.view.Selected(); idx != 2 {
		t.Errorf("Selected = %d, want resume index 2", idx)
	}
}

func TestOpen_AlreadyCompleteFiresOnLoad(t *testing.T) {
	remote := &fakeRemote{
		course: threeLectures(),
		seed:   &progress.Seed{CompletedLectureIDs: []any{"L0", "L1", "L2"}},
	}
	h := open(t, remote, nil)

	n := 0
	h.view.OnCourseCompleted(func(completion.CourseCompleted) { n++ })
	if n != 1 {
		t.Errorf("late subscriber calls = %d, want 1", n)
	}
	h.view.OnMarkLectureComplete()
	if n != 1 {
		t.Errorf("calls after no-op mutation = %d, want 1", n)
	}
}

func TestSync_DebouncesAndPushesFullSnapshot(t *testing.T) {
	h := open(t, &fakeRemote{course: threeLectures()}, nil)
	v := h.view

	v.OnMarkLectureComplete()
	_ = v.Next()
	v.OnMarkLectureComplete()
	if !v.SyncPending() {
		t.Fatal("expected a pending sync")
	}

	if n := h.clock.fire(); n != 1 {
		t.Fatalf("fired %d timers, want 1", n)
	}
	if h.remote.pushCount() != 1 {
		t.Fatalf("pushes = %d, want 1", h.remote.pushCount())
	}
	p := h.remote.pushes[0]
	if len(p.CompletedLectureIDs) != 2 || p.Percent != 67 {
		t.Errorf("pushed %+v, want two lectures at 67%%", p)
	}
	if v.Snapshot().LastSyncedAt.IsZero() {
		t.Error("LastSyncedAt not recorded after ack")
	}
}

func TestSync_FailuresCarryForward(t *testing.T) {
	remote := &fakeRemote{course: threeLectures(), pushErrs: []error{errors.New("503"), errors.New("503")}}
	h := open(t, remote, nil)
	v := h.view

	for i := 0; i < 3; i++ {
		if i > 0 {
			if err := v.Next(); err != nil {
				t.Fatalf("Next: %v", err)
			}
		}
		v.OnMarkLectureComplete()
		h.clock.fire()
	}

	if h.remote.pushCount() != 3 {
		t.Fatalf("pushes = %d, want 3", h.remote.pushCount())
	}
	if got := h.remote.pushes[2].CompletedLectureIDs; len(got) != 3 {
		t.Errorf("third push = %v, want all three lectures", got)
	}
	if h.notices.count(NoticeSyncFailed) != 2 {
		t.Errorf("sync failure notices = %d, want 2", h.notices.count(NoticeSyncFailed))
	}
}

func TestClose_CancelsWithoutFlush(t *testing.T) {
	h := open(t, &fakeRemote{course: threeLectures()}, nil)
	h.view.OnMarkLectureComplete()
	h.view.Close()

	if n := h.clock.fire(); n != 0 {
		t.Errorf("fired %d timers after Close, want 0", n)
	}
	if h.remote.pushCount() != 0 {
		t.Errorf("pushes = %d, want 0", h.remote.pushCount())
	}
}

func TestClose_HandlersDoNotSync(t *testing.T) {
	remote := &fakeRemote{course: quizCourse(), quizzes: map[string]*course.Quiz{"L0": fiveQuestionQuiz()}}
	h := open(t, remote, nil)
	h.view.Close()

	rec := h.view.OnMarkLectureComplete()
	if rec.LectureComplete("L0") {
		t.Error("OnMarkLectureComplete after Close completed L0")
	}
	if _, err := h.view.OnVideoEnded(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("OnVideoEnded = %v, want ErrClosed", err)
	}
	if _, err := h.view.BeginQuiz(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("BeginQuiz = %v, want ErrClosed", err)
	}
	if _, err := h.view.OnQuizSubmitted(context.Background(), []int{0, 0, 0, 0, 0}); !errors.Is(err, ErrClosed) {
		t.Errorf("OnQuizSubmitted = %v, want ErrClosed", err)
	}
	if err := h.view.OnQuizRetry(); !errors.Is(err, ErrClosed) {
		t.Errorf("OnQuizRetry = %v, want ErrClosed", err)
	}
	if err := h.view.Select(0); !errors.Is(err, ErrClosed) {
		t.Errorf("Select = %v, want ErrClosed", err)
	}

	if h.view.SyncPending() {
		t.Error("sync pending after Close")
	}
	if n := h.clock.fire(); n != 0 {
		t.Errorf("fired %d timers after Close, want 0", n)
	}
	if h.remote.pushCount() != 0 {
		t.Errorf("pushes = %d, want 0", h.remote.pushCount())
	}
}

func TestClose_HeldGateDoesNotSync(t *testing.T) {
	remote := &fakeRemote{course: quizCourse(), quizzes: map[string]*course.Quiz{"L0": fiveQuestionQuiz()}}
	h := open(t, remote, nil)

	g, err := h.view.BeginQuiz(context.Background())
	if err != nil {
		t.Fatalf("BeginQuiz: %v", err)
	}
	h.view.Close()

	res, err := g.Submit([]int{0, 0, 0, 0, 0})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Outcome != quizgate.OutcomePassed {
		t.Fatalf("Outcome = %s, want passed", res.Outcome)
	}
	if h.view.SyncPending() {
		t.Error("sync pending after Close")
	}
	if n := h.clock.fire(); n != 0 {
		t.Errorf("fired %d timers after Close, want 0", n)
	}
	if h.remote.pushCount() != 0 {
		t.Errorf("pushes = %d, want 0", h.remote.pushCount())
	}
}

func TestQuiz_PassCompletesLecture(t *testing.T) {
	remote := &fakeRemote{course: quizCourse(), quizzes: map[string]*course.Quiz{"L0": fiveQuestionQuiz()}}
	h := open(t, remote, nil)
	v := h.view

	g, err := v.OnVideoEnded(context.Background())
	if err != nil {
		t.Fatalf("OnVideoEnded: %v", err)
	}
	if g == nil || g.State() != quizgate.StateInProgress {
		t.Fatalf("expected an in-progress quiz, got %+v", g)
	}
	if v.Snapshot().LectureComplete("L0") {
		t.Fatal("video end on a quiz lecture should not complete it")
	}

	res, err := v.OnQuizSubmitted(context.Background(), []int{1, 1, 1, 0, 0})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Outcome != quizgate.OutcomeFailed || res.Score != 40 {
		t.Errorf("result = %+v, want failed at 40", res)
	}
	if v.UnlockState(1) {
		t.Error("next lecture unlocked after a failed quiz")
	}
	if v.Snapshot().QuizComplete("Q0") {
		t.Error("quiz marked complete after failure")
	}

	if err := v.OnQuizRetry(); err != nil {
		t.Fatalf("retry: %v", err)
	}
	res, err = v.OnQuizSubmitted(context.Background(), []int{0, 0, 0, 1, 1})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Outcome != quizgate.OutcomePassed || res.Score != 60 {
		t.Errorf("result = %+v, want passed at 60", res)
	}
	snap := v.Snapshot()
	if !snap.QuizComplete("Q0") || !snap.LectureComplete("L0") {
		t.Errorf("snapshot = %+v, want Q0 and L0 complete", snap)
	}
	if !v.UnlockState(1) {
		t.Error("next lecture still locked after pass")
	}

	v.Close()
	if len(remote.attempts) != 2 {
		t.Errorf("recorded attempts = %d, want 2", len(remote.attempts))
	}
}

func TestQuiz_FallbackNotifies(t *testing.T) {
	remote := &fakeRemote{course: quizCourse(), genErr: errors.New("llm down")}
	h := open(t, remote, nil)

	g, err := h.view.BeginQuiz(context.Background())
	if err != nil {
		t.Fatalf("BeginQuiz: %v", err)
	}
	if !g.Quiz().Fallback {
		t.Error("expected the placeholder quiz")
	}
	if h.notices.count(NoticeQuizFallback) != 1 {
		t.Errorf("fallback notices = %d, want 1", h.notices.count(NoticeQuizFallback))
	}

	again, err := h.view.BeginQuiz(context.Background())
	if err != nil || again != g {
		t.Errorf("BeginQuiz again = %p, %v; want the same gate", again, err)
	}
}

func TestQuiz_NoQuiz(t *testing.T) {
	h := open(t, &fakeRemote{course: threeLectures()}, nil)
	if _, err := h.view.BeginQuiz(context.Background()); !errors.Is(err, ErrNoQuiz) {
		t.Errorf("BeginQuiz = %v, want ErrNoQuiz", err)
	}
	if _, err := h.view.OnQuizSubmitted(context.Background(), nil); !errors.Is(err, ErrNoQuiz) {
		t.Errorf("OnQuizSubmitted = %v, want ErrNoQuiz", err)
	}
}

func TestVideoEnded_NoQuizCompletes(t *testing.T) {
	h := open(t, &fakeRemote{course: threeLectures()}, nil)
	g, err := h.view.OnVideoEnded(context.Background())
	if err != nil || g != nil {
		t.Fatalf("OnVideoEnded = %v, %v; want nil, nil", g, err)
	}
	if !h.view.Snapshot().LectureComplete("L0") {
		t.Error("L0 not complete after video end")
	}
}

func TestCache_UnsyncedProgressSurvivesReload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c := cache.New(dir)

	first := open(t, &fakeRemote{course: threeLectures()}, c)
	first.view.OnMarkLectureComplete()
	first.view.Close()
	if first.remote.pushCount() != 0 {
		t.Fatalf("pushes = %d, want 0", first.remote.pushCount())
	}

	second := open(t, &fakeRemote{course: threeLectures()}, c)
	if !second.view.Snapshot().LectureComplete("L0") {
		t.Fatal("cached progress lost on reload")
	}
	if !second.view.SyncPending() {
		t.Error("expected a sync to be scheduled for cached progress")
	}
	second.clock.fire()
	if second.remote.pushCount() != 1 {
		t.Errorf("pushes = %d, want 1", second.remote.pushCount())
	}
}

func TestCache_OtherMajorVersionDiscarded(t *testing.T) {
	c := cache.New(filepath.Join(t.TempDir(), "cache"))

	first := open(t, &fakeRemote{course: threeLectures()}, c)
	first.view.OnMarkLectureComplete()
	first.view.Close()

	v2 := threeLectures()
	v2.Version = "v2.0.0"
	second := open(t, &fakeRemote{course: v2}, c)
	if second.view.Snapshot().CompletedLectureIDs.Len() != 0 {
		t.Error("progress from a different major version was merged")
	}
}
