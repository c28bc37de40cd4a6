// Package debugapi exposes a small read-only HTTP surface over open
// step.Loader models, for interactively inspecting a running process during
// development. It is not part of the module's core contract — grounded on
// the teacher's cmd/mantle "serve" command and its internal/api store, this
// package plays the same role for step models that the teacher's HTTP layer
// played for its response store.
package debugapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"golang.org/x/time/rate"

	"github.com/samcharles93/ifcstep/internal/logger"
	"github.com/samcharles93/ifcstep/pkg/step"
)

// Server wraps an echo instance exposing the read side of pkg/step.
type Server struct {
	echo *echo.Echo
	log  logger.Logger
}

// New builds a Server. requestsPerSecond and burst configure a token-bucket
// limiter shared across all requests (a single running process typically
// has one operator poking at it, so per-model or per-IP limiting isn't
// warranted).
func New(log logger.Logger, requestsPerSecond float64, burst int) *Server {
	if log == nil {
		log = logger.Nop()
	}
	e := echo.New()

	s := &Server{echo: e, log: log}

	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	e.Use(rateLimitMiddleware(limiter))
	e.Use(traceMiddleware(log))

	e.GET("/models", s.listModels)
	e.GET("/models/:id/lines", s.listLines)
	e.GET("/models/:id/lines/:handle", s.getLine)
	e.GET("/models/:id/types/:type", s.linesOfType)

	return s
}

// Start blocks serving on addr until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.log.Info("debug api listening", "addr", addr)
	sc := echo.StartConfig{Address: addr}
	return sc.Start(ctx, s.echo)
}

// Handler exposes the underlying http.Handler, for tests that drive the
// server with httptest instead of a real listener.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func rateLimitMiddleware(limiter *rate.Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			if !limiter.Allow() {
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"error": "rate limit exceeded",
				})
			}
			return next(c)
		}
	}
}

func traceMiddleware(log logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			requestID := uuid.NewString()
			c.Response().Header().Set("X-Request-Id", requestID)
			log.Debug("debug api request", "request", requestID, "path", c.Request().URL.Path)
			return next(c)
		}
	}
}

type modelSummary struct {
	ID      uint32 `json:"id"`
	TraceID string `json:"traceId"`
}

func (s *Server) listModels(c *echo.Context) error {
	infos := step.ListModels()
	out := make([]modelSummary, len(infos))
	for i, info := range infos {
		out[i] = modelSummary{ID: info.ID, TraceID: info.TraceID}
	}
	return c.JSON(http.StatusOK, out)
}

func parseModelID(c *echo.Context) (step.ModelID, error) {
	v, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return step.ModelID(v), nil
}

func (s *Server) listLines(c *echo.Context) error {
	id, err := parseModelID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad model id"})
	}
	handles, err := step.GetAllLines(id)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, handles)
}

type argJSON struct {
	Tag  string    `json:"tag"`
	Ref  uint32    `json:"ref,omitempty"`
	Real float64   `json:"real,omitempty"`
	Text string    `json:"text,omitempty"`
	Set  []argJSON `json:"set,omitempty"`
}

func toArgJSON(a step.Arg) argJSON {
	out := argJSON{Tag: a.Tag.String(), Ref: a.Ref, Real: a.Real, Text: a.Text}
	if a.Set != nil {
		out.Set = make([]argJSON, len(a.Set))
		for i, e := range a.Set {
			out.Set[i] = toArgJSON(e)
		}
	}
	return out
}

type rawLineJSON struct {
	Handle uint32    `json:"handle"`
	Type   uint16    `json:"type"`
	Args   []argJSON `json:"args"`
}

func (s *Server) getLine(c *echo.Context) error {
	id, err := parseModelID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad model id"})
	}
	handle64, err := strconv.ParseUint(c.Param("handle"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad handle"})
	}
	line, err := step.GetLine(id, step.Handle(handle64))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	args := make([]argJSON, len(line.Args))
	for i, a := range line.Args {
		args[i] = toArgJSON(a)
	}
	return c.JSON(http.StatusOK, rawLineJSON{Handle: line.Handle, Type: line.Type, Args: args})
}

func (s *Server) linesOfType(c *echo.Context) error {
	id, err := parseModelID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad model id"})
	}
	typ64, err := strconv.ParseUint(c.Param("type"), 10, 16)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad type"})
	}
	handles, err := step.GetLineIDsWithType(id, step.TypeCode(typ64))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, handles)
}
