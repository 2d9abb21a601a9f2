package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/abhisek/coursepath/internal/course"
	"github.com/abhisek/coursepath/internal/quizgen"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

// errBadRequest marks malformed input detected by a handler.
var errBadRequest = errors.New("bad request")

// logging logs one line per request with ECS-style keys.
func logging(base *zap.Logger, skip func(echo.Context) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skip != nil && skip(c) {
				return next(c)
			}
			logger := base.With(
				zap.String("trace.id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.String("url.path", c.Request().RequestURI),
				zap.String("http.request.method", c.Request().Method),
			)
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			code := c.Response().Status
			logger.Info(http.StatusText(code), zap.Int("http.response.status_code", code))
			return nil
		}
	}
}

// errorHandler maps domain errors onto status codes.
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := statusFor(err)
		msg := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			if m, ok := he.Message.(string); ok {
				msg = m
			}
		}
		if code >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("url.path", c.Request().RequestURI),
				zap.Error(err))
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, errorResponse{Error: msg})
		}
		if werr != nil {
			logger.Warn("write error response", zap.Error(werr))
		}
	}
}

func statusFor(err error) int {
	var he *echo.HTTPError
	var cverr *course.ValidationError
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.Is(err, course.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest), errors.As(err, &cverr), errors.As(err, &verrs):
		return http.StatusBadRequest
	case errors.Is(err, quizgen.ErrGenerationDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// structValidator adapts validator/v10 to echo.Validator.
type structValidator struct {
	v *validator.Validate
}

func newValidator() *structValidator {
	return &structValidator{v: validator.New()}
}

func (sv *structValidator) Validate(i interface{}) error {
	return sv.v.Struct(i)
}
