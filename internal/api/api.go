// Package api exposes the playground over HTTP: the current scene, the
// telemetry points behind it, presets, and a websocket that announces every
// newly painted frame.
package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/svg-playground/internal/config"
	"github.com/thatsimonsguy/svg-playground/internal/scene"
)

// Scheduler runs a closure on the goroutine that owns the controller.
type Scheduler interface {
	Do(ctx context.Context, fn func(*scene.Controller) error) error
}

// FrameSource is the redraw surface the API serves frames from.
type FrameSource interface {
	Frame() ([]byte, uint64)
	AddListener(fn func(version uint64))
}

type Server struct {
	db     *sql.DB
	loop   Scheduler
	frames FrameSource
	config *config.Config
	hub    *hub
	echo   *echo.Echo
	now    func() time.Time
}

func NewServer(database *sql.DB, loop Scheduler, frames FrameSource, cfg *config.Config) *Server {
	s := &Server{
		db:     database,
		loop:   loop,
		frames: frames,
		config: cfg,
		hub:    newHub(),
		now:    time.Now,
	}
	frames.AddListener(s.hub.broadcast)
	s.echo = s.routes()
	return s
}

func (s *Server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(requestLogger)

	g := e.Group("/api")
	g.GET("/health", s.handleHealth)

	g.GET("/scene", s.handleGetScene)
	g.POST("/open", s.handleOpen)
	g.POST("/reload", s.handleReload)
	g.POST("/zoom/in", s.handleZoomIn)
	g.POST("/zoom/out", s.handleZoomOut)
	g.POST("/scale", s.handleSetScale)
	g.GET("/frame.svg", s.handleFrame)
	g.GET("/ws", s.handleWebSocket)

	g.GET("/statuses", s.handleListStatuses)
	g.GET("/statuses/:idx", s.handleGetStatus)
	g.PUT("/statuses/:idx", s.handleSetStatus)
	g.GET("/analogs", s.handleListAnalogs)
	g.GET("/analogs/:idx", s.handleGetAnalog)
	g.PUT("/analogs/:idx", s.handleSetAnalog)
	g.GET("/variables", s.handleListVariables)
	g.GET("/variables/:idx", s.handleGetVariable)
	g.PUT("/variables/:idx", s.handleSetVariable)

	g.GET("/presets", s.handleListPresets)
	g.POST("/presets/:name", s.handleSavePreset)
	g.DELETE("/presets/:name", s.handleDeletePreset)
	g.POST("/presets/:name/apply", s.handleApplyPreset)
	g.GET("/documents/recent", s.handleRecentDocuments)

	return e
}

func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		log.Debug().
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Int("status", c.Response().Status).
			Dur("took", time.Since(start)).
			Msg("API request")
		return err
	}
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler { return s.echo }

func (s *Server) Start(port int) error {
	addr := fmt.Sprintf("0.0.0.0:%d", port)
	log.Info().Str("address", addr).Msg("Starting REST API server")

	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.closeAll()
	return s.echo.Shutdown(ctx)
}

// do runs fn on the update loop, bound to the request context.
func (s *Server) do(c echo.Context, fn func(*scene.Controller) error) error {
	err := s.loop.Do(c.Request().Context(), fn)
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NewServiceUnavailableError("request cancelled")
	}
	return NewServiceUnavailableError(err.Error())
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "ok",
	})
}
