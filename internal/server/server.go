// Package server is the application API listening on the primary port.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"fargatesoci/internal/contract"
	"fargatesoci/internal/logger"
)

const DefaultPrompt = "Hello, World!"

const runningMessage = "Ollama service is running. Send POST requests with prompts."

var serverLogger = logger.PackageLogger("🅱 SERVER")

// Prompter answers a single prompt.
type Prompter interface {
	Run(ctx context.Context, prompt string) (string, error)
}

type Server struct {
	echo     *echo.Echo
	prompter Prompter
	addr     string
}

type Option func(*Server)

func WithAddress(addr string) Option {
	return func(s *Server) { s.addr = addr }
}

func WithPrompter(p Prompter) Option {
	return func(s *Server) { s.prompter = p }
}

// New builds the server. Without WithAddress it listens on all interfaces
// at the primary port.
func New(opts ...Option) *Server {
	s := &Server{addr: fmt.Sprintf("0.0.0.0:%d", contract.PrimaryPort)}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(logRequests)

	for _, path := range []string{contract.PrimaryHealthPath, "/*"} {
		e.HEAD(path, s.head)
	}
	e.GET(contract.PrimaryHealthPath, s.health)
	e.GET("/*", s.index)
	e.POST("/*", s.prompt)

	s.echo = e
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	serverLogger.Info("Starting server on %s...", s.addr)
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) head(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) index(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": runningMessage})
}

var (
	errPromptNotString = errors.New("prompt must be a string")
	errBodyNotObject   = errors.New("request body must be a JSON object")
)

// promptOf reads the prompt field of a request body. A missing field means
// DefaultPrompt; null or any other non-string value is rejected.
func promptOf(body io.Reader) (string, error) {
	var req map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return "", err
	}
	if req == nil {
		return "", errBodyNotObject
	}
	raw, ok := req["prompt"]
	if !ok {
		return DefaultPrompt, nil
	}
	var prompt *string
	if err := json.Unmarshal(raw, &prompt); err != nil || prompt == nil {
		return "", errPromptNotString
	}
	return *prompt, nil
}

func (s *Server) prompt(c echo.Context) error {
	prompt, err := promptOf(c.Request().Body)
	if err != nil {
		serverLogger.Error("Error processing request: %s", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	serverLogger.Info("Received prompt: %s", prompt)

	if s.prompter == nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "no model engine configured"})
	}
	out, err := s.prompter.Run(c.Request().Context(), prompt)
	if err != nil {
		serverLogger.Error("Model failed: %s", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	serverLogger.Info("Model responded successfully")
	return c.JSON(http.StatusOK, map[string]string{"response": out})
}

func logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		begin := time.Now()
		err := next(c)
		serverLogger.Debug("%s %s -> %d in %v", c.Request().Method, c.Request().URL, c.Response().Status, time.Since(begin))
		return err
	}
}
