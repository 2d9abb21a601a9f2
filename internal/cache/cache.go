// Package cache keeps a local copy of each learner's course progress so
// unsynced changes survive a reload.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/abhisek/coursepath/internal/course"
	"github.com/abhisek/coursepath/internal/progress"
)

// Entry is the on-disk form of one learner × course record.
type Entry struct {
	LearnerID           string    `json:"learnerId"`
	CourseID            string    `json:"courseId"`
	CourseVersion       string    `json:"courseVersion"`
	CompletedLectureIDs []string  `json:"completedLectureIds"`
	CompletedQuizIDs    []string  `json:"completedQuizIds"`
	Percent             int       `json:"percent"`
	LastSyncedAt        time.Time `json:"lastSyncedAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// Record converts the entry back into a progress record.
func (e *Entry) Record() progress.Record {
	return progress.Record{
		LearnerID:           e.LearnerID,
		CourseID:            e.CourseID,
		CompletedLectureIDs: progress.NewIDSet(e.CompletedLectureIDs...),
		CompletedQuizIDs:    progress.NewIDSet(e.CompletedQuizIDs...),
		Percent:             e.Percent,
		LastSyncedAt:        e.LastSyncedAt,
	}
}

// Cache stores entries as JSON files under a directory.
type Cache struct {
	dir string
	now func() time.Time

	mu sync.Mutex
}

// New returns a cache rooted at dir.
func New(dir string) *Cache {
	return &Cache{dir: dir, now: time.Now}
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// DefaultDir resolves the cache directory:
// 1. $XDG_DATA_HOME/coursepath/progress
// 2. ~/.local/share/coursepath/progress
func DefaultDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "coursepath", "progress"), nil
}

// Path returns the file holding the entry for learnerID and courseID.
func (c *Cache) Path(learnerID, courseID string) string {
	h := sha256.Sum256([]byte(learnerID + "\x00" + courseID))
	return filepath.Join(c.dir, hex.EncodeToString(h[:16])+".json")
}

// Save writes r through to disk, stamped with the current time.
func (c *Cache) Save(r progress.Record, courseVersion string) error {
	e := Entry{
		LearnerID:           r.LearnerID,
		CourseID:            r.CourseID,
		CourseVersion:       courseVersion,
		CompletedLectureIDs: r.CompletedLectureIDs.Slice(),
		CompletedQuizIDs:    r.CompletedQuizIDs.Slice(),
		Percent:             r.Percent,
		LastSyncedAt:        r.LastSyncedAt,
		UpdatedAt:           c.now().UTC(),
	}

	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	path := c.Path(r.LearnerID, r.CourseID)
	tmp, err := os.CreateTemp(c.dir, ".entry-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close cache entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace cache entry: %w", err)
	}
	return nil
}

// Load returns the cached entry, or nil when there is none.
func (c *Cache) Load(learnerID, courseID string) (*Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.Path(learnerID, courseID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache entry: %w", err)
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("parse cache entry: %w", err)
	}
	if e.LearnerID != learnerID || e.CourseID != courseID {
		return nil, nil
	}
	return &e, nil
}

// LoadFor returns the cached entry if it was written against a version of c
// with the same major version. Entries for an incompatible version are
// removed.
func (c *Cache) LoadFor(learnerID string, crs *course.Course) (*Entry, error) {
	e, err := c.Load(learnerID, crs.ID)
	if err != nil || e == nil {
		return e, err
	}
	if !course.SameMajor(e.CourseVersion, crs.Version) {
		return nil, c.Delete(learnerID, crs.ID)
	}
	return e, nil
}

// Delete removes the cached entry if present.
func (c *Cache) Delete(learnerID, courseID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := os.Remove(c.Path(learnerID, courseID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove cache entry: %w", err)
	}
	return nil
}
