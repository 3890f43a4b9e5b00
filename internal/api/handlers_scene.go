package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/svg-playground/db"
	"github.com/thatsimonsguy/svg-playground/internal/scene"
)

type SceneResponse struct {
	State      string  `json:"state"`
	Path       string  `json:"path,omitempty"`
	Title      string  `json:"title"`
	DocumentID string  `json:"document_id,omitempty"`
	Scale      float64 `json:"scale"`
	Elements   int     `json:"elements"`
	Statuses   int     `json:"statuses"`
	Analogs    int     `json:"analogs"`
	Variables  int     `json:"variables"`
	LastError  string  `json:"last_error,omitempty"`
}

type OpenRequest struct {
	Path string `json:"path"`
}

type ScaleRequest struct {
	Scale float64 `json:"scale"`
}

func sceneView(c *scene.Controller) SceneResponse {
	statuses, analogs, variables := c.Counts()
	return SceneResponse{
		State:      c.State().String(),
		Path:       c.Path(),
		Title:      c.Title(),
		DocumentID: c.DocumentID(),
		Scale:      c.Scale(),
		Elements:   len(c.Elements()),
		Statuses:   statuses,
		Analogs:    analogs,
		Variables:  variables,
		LastError:  c.LastError(),
	}
}

// withScene runs fn on the loop and answers with the resulting scene.
func (s *Server) withScene(c echo.Context, fn func(*scene.Controller)) error {
	var resp SceneResponse
	err := s.do(c, func(ctrl *scene.Controller) error {
		if fn != nil {
			fn(ctrl)
		}
		resp = sceneView(ctrl)
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGetScene(c echo.Context) error {
	return s.withScene(c, nil)
}

func (s *Server) handleOpen(c echo.Context) error {
	var req OpenRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("Invalid JSON payload", err)
	}
	req.Path = strings.TrimSpace(req.Path)
	if req.Path == "" {
		return NewValidationError("path")
	}

	var loadErr error
	var resp SceneResponse
	err := s.do(c, func(ctrl *scene.Controller) error {
		loadErr = ctrl.Load(req.Path)
		resp = sceneView(ctrl)
		return nil
	})
	if err != nil {
		return err
	}
	if loadErr != nil {
		return NewLoadError(loadErr)
	}

	if s.db != nil {
		if err := db.RecordDocument(s.db, req.Path, resp.Title, s.now(), s.config.RecentDocuments); err != nil {
			log.Warn().Err(err).Str("path", req.Path).Msg("Failed to record recent document")
		}
	}
	log.Info().Str("path", req.Path).Msg("Document opened via API")
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleReload(c echo.Context) error {
	var loadErr error
	var resp SceneResponse
	err := s.do(c, func(ctrl *scene.Controller) error {
		loadErr = ctrl.Reload()
		resp = sceneView(ctrl)
		return nil
	})
	if err != nil {
		return err
	}
	if loadErr != nil {
		return NewLoadError(loadErr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleZoomIn(c echo.Context) error {
	return s.withScene(c, (*scene.Controller).ZoomIn)
}

func (s *Server) handleZoomOut(c echo.Context) error {
	return s.withScene(c, (*scene.Controller).ZoomOut)
}

func (s *Server) handleSetScale(c echo.Context) error {
	var req ScaleRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("Invalid JSON payload", err)
	}
	if req.Scale <= 0 {
		return NewValidationError("scale")
	}
	return s.withScene(c, func(ctrl *scene.Controller) { ctrl.SetScale(req.Scale) })
}

// handleFrame serves the last painted frame. The frame version doubles as
// its ETag.
func (s *Server) handleFrame(c echo.Context) error {
	frame, version := s.frames.Frame()
	etag := `"` + strconv.FormatUint(version, 10) + `"`
	c.Response().Header().Set("ETag", etag)
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	if c.Request().Header.Get("If-None-Match") == etag {
		return c.NoContent(http.StatusNotModified)
	}
	return c.Blob(http.StatusOK, "image/svg+xml", frame)
}
