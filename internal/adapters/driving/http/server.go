// Package http provides the JSON HTTP API for healthlens, served with echo.
// Requests are made on behalf of the user named in the X-User-ID header,
// which the fronting authentication proxy sets.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/custodia-labs/healthlens/internal/core/ports/driving"
	"github.com/custodia-labs/healthlens/internal/logger"
)

// ErrMissingService is returned when a required driving port is not provided.
var ErrMissingService = errors.New("http: service is required")

// MaxUploadBytes bounds the request body of an upload.
const MaxUploadBytes = 20 << 20

const shutdownTimeout = 5 * time.Second

// Ports aggregates the driving ports the API serves.
type Ports struct {
	Ingestion  driving.IngestionService
	Query      driving.QueryService
	Suggestion driving.SuggestionService
	Reports    driving.ReportService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	switch {
	case p.Ingestion == nil:
		return fmt.Errorf("%w: ingestion", ErrMissingService)
	case p.Query == nil:
		return fmt.Errorf("%w: query", ErrMissingService)
	case p.Suggestion == nil:
		return fmt.Errorf("%w: suggestion", ErrMissingService)
	case p.Reports == nil:
		return fmt.Errorf("%w: reports", ErrMissingService)
	}
	return nil
}

// Server is the HTTP API server.
type Server struct {
	ports *Ports
	echo  *echo.Echo
}

// NewServer creates the server and registers its routes.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler
	e.Use(middleware.Recover())
	e.Use(requestLogger)

	s := &Server{ports: ports, echo: e}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.echo.GET("/healthz", s.handleHealth)

	api := s.echo.Group("/api/v1", requireUser)
	api.POST("/reports", s.handleUpload, middleware.BodyLimit("20M"))
	api.GET("/reports", s.handleListReports)
	api.GET("/reports/:id", s.handleGetReport)
	api.POST("/query", s.handleQuery)
	api.POST("/suggestions", s.handleSuggest)
}

// ServeHTTP lets the server be mounted or tested as a plain handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("HTTP API listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		logger.Debug("%s %s %d (%s)", c.Request().Method, c.Request().URL.Path, c.Response().Status, time.Since(start))
		return err
	}
}
