package progress

import (
	"strings"
	"time"

	"github.com/abhisek/coursepath/internal/course"
)

// Seed is progress as fetched from the remote store, before validation.
// Ids are decoded as raw JSON values because the remote copy has been seen
// to carry non-string and empty entries.
type Seed struct {
	CompletedLectureIDs []any     `json:"completedLectureIds"`
	CompletedQuizIDs    []any     `json:"completedQuizIds"`
	Percent             int       `json:"percent"`
	LastSyncedAt        time.Time `json:"lastSyncedAt"`
}

// SeedFromRecord converts a record back into seed form.
func SeedFromRecord(r Record) *Seed {
	s := &Seed{LastSyncedAt: r.LastSyncedAt, Percent: r.Percent}
	for _, id := range r.CompletedLectureIDs {
		s.CompletedLectureIDs = append(s.CompletedLectureIDs, id)
	}
	for _, id := range r.CompletedQuizIDs {
		s.CompletedQuizIDs = append(s.CompletedQuizIDs, id)
	}
	return s
}

// Load builds the initial record for a learner and course from seed.
// Malformed ids are dropped silently, as are lecture ids outside the course.
// The seed's percent is ignored and recomputed.
func Load(c *course.Course, learnerID string, seed *Seed) Record {
	r := Record{
		LearnerID: learnerID,
		CourseID:  c.ID,
	}
	if seed == nil {
		r.Percent = CoursePercent(c, nil)
		return r
	}

	for _, id := range SanitizeIDs(seed.CompletedLectureIDs) {
		if c.HasLecture(id) {
			r.CompletedLectureIDs = r.CompletedLectureIDs.With(id)
		}
	}
	r.CompletedQuizIDs = NewIDSet(SanitizeIDs(seed.CompletedQuizIDs)...)
	r.Percent = CoursePercent(c, r.CompletedLectureIDs)
	r.LastSyncedAt = seed.LastSyncedAt
	return r
}

// SanitizeIDs keeps only non-empty string values.
func SanitizeIDs(raw []any) []string {
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Merge reconciles the remote record with a locally cached one. When the
// cache was written after the remote's last acknowledgment, the two are
// unioned so unsynced local progress survives a reload; otherwise the remote
// copy wins. The second return value reports whether the result carries
// progress the remote does not have yet.
func Merge(c *course.Course, remote Record, cached *Record, cachedAt time.Time) (Record, bool) {
	if cached == nil || cached.CourseID != remote.CourseID || cached.LearnerID != remote.LearnerID {
		return remote, false
	}
	if !cachedAt.After(remote.LastSyncedAt) {
		return remote, false
	}

	merged := remote
	for _, id := range cached.CompletedLectureIDs {
		merged = Reduce(c, merged, LectureCompleted{LectureID: id})
	}
	for _, id := range cached.CompletedQuizIDs {
		merged = Reduce(c, merged, QuizCompleted{QuizID: id})
	}
	return merged, Changed(remote, merged)
}
