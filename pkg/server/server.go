// Package server is the backend REST API that stores swap records and
// user sessions.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"sol-swap/pkg/logger"
	"sol-swap/pkg/metrics"
	"sol-swap/pkg/types"
)

const (
	recentLimit = 10
	userLimit   = 50
)

// Store captures the persistence the HTTP layer needs.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, email, passwordHash, wallet string) (*types.User, error)
	UserByEmail(ctx context.Context, email string) (*types.User, string, error)
	UpdateUserWallet(ctx context.Context, userID, wallet string) (*types.User, error)
	CreateSession(ctx context.Context, userID string, ttl time.Duration) (*types.Session, error)
	UserBySession(ctx context.Context, token string) (*types.User, error)
	DeleteSession(ctx context.Context, token string) error

	ListRecent(ctx context.Context, wallet string, limit int) ([]types.TransactionRecord, error)
	ListByWallet(ctx context.Context, wallet string, limit int) ([]types.TransactionRecord, error)
	CreateTransaction(ctx context.Context, rec types.TransactionRecord) (*types.TransactionRecord, error)
	UpdateTransaction(ctx context.Context, id, wallet string, upd types.TransactionUpdate) (*types.TransactionRecord, error)
	GetTransaction(ctx context.Context, id string) (*types.TransactionRecord, error)
	CountTransactions(ctx context.Context) (int, error)
}

// Options configures the HTTP server instance.
type Options struct {
	Addr       string
	SessionTTL time.Duration
	Store      Store
	Logger     *zap.Logger
}

// Server wires Echo with the application dependencies.
type Server struct {
	opts Options
	app  *echo.Echo
	log  *zap.Logger
}

// New creates a new Server instance.
func New(opts Options) *Server {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	metrics.Register()
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	s := &Server{
		opts: opts,
		app:  e,
		log:  logger.Named(opts.Logger, "server"),
	}
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(s.observe)
	s.registerRoutes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.app
}

// Start launches the HTTP server and blocks until it stops.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()

	s.log.Info("listening", zap.String("addr", s.opts.Addr))
	err := s.app.Start(s.opts.Addr)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app == nil {
		return nil
	}
	return s.app.Shutdown(ctx)
}

// observe records request metrics and logs each request.
func (s *Server) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		path := c.Path()
		if path == "" {
			path = "unmatched"
		}
		status := c.Response().Status
		elapsed := time.Since(start)
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request().Method, path, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request().Method, path).Observe(elapsed.Seconds())
		s.log.Debug("request",
			zap.String("method", c.Request().Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("elapsed", elapsed))
		return nil
	}
}

// errorHandler renders every error as {"error": "..."}.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := "Internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, map[string]any{"error": msg})
}
