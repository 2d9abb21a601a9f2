// Package api serves the remote progress store over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echo_middleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/abhisek/coursepath/internal/course"
	"github.com/abhisek/coursepath/internal/quizgen"
	"github.com/abhisek/coursepath/internal/store"
)

// SnapshotKeep is how many pushed snapshots are kept per learner and course.
const SnapshotKeep = 20

// CourseStore is the course lookup the API needs.
type CourseStore interface {
	Get(ctx context.Context, id string) (*course.Course, error)
}

// Deps are the server's collaborators. Snapshots and Ping are optional.
type Deps struct {
	Courses   CourseStore
	Quizzes   *quizgen.Service
	Progress  store.ProgressRepo
	Snapshots store.SnapshotRepo
	Attempts  store.AttemptRepo

	// Sequence numbers progress snapshots.
	Sequence func(ctx context.Context) (int64, error)

	// Ping backs /healthz.
	Ping func(ctx context.Context) error
}

// Server is the echo application.
type Server struct {
	app    *echo.Echo
	deps   Deps
	logger *zap.Logger
}

// New wires routes and middleware.
func New(deps Deps, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.Validator = newValidator()
	app.HTTPErrorHandler = errorHandler(logger)

	s := &Server{app: app, deps: deps, logger: logger}

	app.Use(echo_middleware.Recover())
	app.Use(echo_middleware.RequestID())
	app.Use(logging(logger, func(c echo.Context) bool {
		return strings.HasPrefix(c.Request().RequestURI, "/healthz")
	}))

	app.GET("/healthz", s.handleHealth)

	v1 := app.Group("/v1")
	v1.GET("/courses/:course", s.handleGetCourse)
	v1.POST("/courses/:course/lectures/:lecture/quiz", s.handleGenerateQuiz)
	v1.GET("/lectures/:lecture/quiz", s.handleGetQuiz)
	v1.GET("/learners/:learner/progress", s.handleListProgress)
	v1.GET("/learners/:learner/courses/:course/progress", s.handleGetProgress)
	v1.PUT("/learners/:learner/courses/:course/progress", s.handlePutProgress)
	v1.GET("/learners/:learner/courses/:course/progress/history", s.handleProgressHistory)
	v1.POST("/learners/:learner/attempts", s.handleRecordAttempt)

	for _, r := range app.Routes() {
		logger.Debug("registered route", zap.String("method", r.Method), zap.String("path", r.Path))
	}
	return s
}

// ServeHTTP lets the server be mounted in tests and other muxes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info("progress API listening", zap.String("addr", addr))
	if err := s.app.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	if s.deps.Ping != nil {
		if err := s.deps.Ping(c.Request().Context()); err != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
	}
	return c.NoContent(http.StatusOK)
}
