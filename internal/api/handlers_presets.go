package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/svg-playground/db"
	"github.com/thatsimonsguy/svg-playground/internal/scene"
	"github.com/thatsimonsguy/svg-playground/internal/telemetry"
)

type ApplyPresetResponse struct {
	Name    string `json:"name"`
	Points  int    `json:"points"`
	Applied int    `json:"applied"`
}

func presetName(c echo.Context) (string, error) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		return "", NewValidationError("name")
	}
	return name, nil
}

func (s *Server) handleListPresets(c echo.Context) error {
	presets, err := db.ListPresets(s.db)
	if err != nil {
		return NewInternalError("Failed to list presets", err)
	}
	if presets == nil {
		presets = []db.PresetSummary{}
	}
	return c.JSON(http.StatusOK, presets)
}

// handleSavePreset stores the current value of every registered point under
// the given name, replacing an older preset of the same name.
func (s *Server) handleSavePreset(c echo.Context) error {
	name, err := presetName(c)
	if err != nil {
		return err
	}

	var states []telemetry.PointState
	if err := s.do(c, func(ctrl *scene.Controller) error {
		states = ctrl.Snapshot()
		return nil
	}); err != nil {
		return err
	}

	now := s.now()
	if err := db.SavePreset(s.db, name, states, now); err != nil {
		return NewInternalError("Failed to save preset", err)
	}

	log.Info().Str("preset", name).Int("points", len(states)).Msg("Preset saved via API")
	return c.JSON(http.StatusCreated, db.PresetSummary{Name: name, Points: len(states), SavedAt: now})
}

func (s *Server) handleApplyPreset(c echo.Context) error {
	name, err := presetName(c)
	if err != nil {
		return err
	}

	states, err := db.LoadPreset(s.db, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NewNotFoundError("preset", name)
		}
		return NewInternalError("Failed to load preset", err)
	}

	var applied int
	if err := s.do(c, func(ctrl *scene.Controller) error {
		applied = ctrl.ApplySnapshot(states)
		return nil
	}); err != nil {
		return err
	}

	log.Info().Str("preset", name).Int("applied", applied).Int("points", len(states)).Msg("Preset applied via API")
	return c.JSON(http.StatusOK, ApplyPresetResponse{Name: name, Points: len(states), Applied: applied})
}

func (s *Server) handleDeletePreset(c echo.Context) error {
	name, err := presetName(c)
	if err != nil {
		return err
	}
	found, err := db.DeletePreset(s.db, name)
	if err != nil {
		return NewInternalError("Failed to delete preset", err)
	}
	if !found {
		return NewNotFoundError("preset", name)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleRecentDocuments(c echo.Context) error {
	limit := s.config.RecentDocuments
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return NewValidationError("limit")
		}
		limit = n
	}

	docs, err := db.RecentDocuments(s.db, limit)
	if err != nil {
		return NewInternalError("Failed to list recent documents", err)
	}
	if docs == nil {
		docs = []db.RecentDocument{}
	}
	return c.JSON(http.StatusOK, docs)
}
