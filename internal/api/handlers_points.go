package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/thatsimonsguy/svg-playground/internal/scene"
	"github.com/thatsimonsguy/svg-playground/internal/telemetry"
)

// Reads of an index nobody registered answer with the same defaults the
// controller accessors use, so a client can poll an index before the
// document that defines it is loaded.

type StatusResponse struct {
	Index          int  `json:"index"`
	Exists         bool `json:"exists"`
	Code           int  `json:"code"`
	IsOn           bool `json:"is_on"`
	IsUnreliable   bool `json:"is_unreliable"`
	IsMalfunction  bool `json:"is_malfunction"`
	IsIntermediate bool `json:"is_intermediate"`
}

type AnalogResponse struct {
	Index         int     `json:"index"`
	Exists        bool    `json:"exists"`
	Value         float64 `json:"value"`
	ValueString   string  `json:"value_string"`
	ValueWithUnit string  `json:"value_with_unit"`
	Unit          string  `json:"unit"`
	IsUnreliable  bool    `json:"is_unreliable"`
}

type VariableResponse struct {
	Index        int  `json:"index"`
	Exists       bool `json:"exists"`
	IsOn         bool `json:"is_on"`
	IsUnreliable bool `json:"is_unreliable"`
}

// VariableRequest sets a variable; a null or missing "on" makes it
// unreliable.
type VariableRequest struct {
	On *bool `json:"on"`
}

func statusView(c *scene.Controller, idx int) StatusResponse {
	return StatusResponse{
		Index:          idx,
		Exists:         c.HasPoint(telemetry.KindStatus, idx),
		Code:           c.StatusCode(idx),
		IsOn:           c.IsStatusOn(idx),
		IsUnreliable:   c.IsStatusUnreliable(idx),
		IsMalfunction:  c.IsStatusMalfunction(idx),
		IsIntermediate: c.IsStatusIntermediate(idx),
	}
}

func analogView(c *scene.Controller, idx int) AnalogResponse {
	return AnalogResponse{
		Index:         idx,
		Exists:        c.HasPoint(telemetry.KindAnalog, idx),
		Value:         c.AnalogValue(idx),
		ValueString:   c.AnalogValueString(idx),
		ValueWithUnit: c.AnalogValueWithUnitString(idx),
		Unit:          c.AnalogUnit(idx),
		IsUnreliable:  c.IsAnalogUnreliable(idx),
	}
}

func variableView(c *scene.Controller, idx int) VariableResponse {
	return VariableResponse{
		Index:        idx,
		Exists:       c.HasPoint(telemetry.KindVariable, idx),
		IsOn:         c.IsVariableOn(idx),
		IsUnreliable: c.IsVariableUnreliable(idx),
	}
}

func indexParam(c echo.Context) (int, error) {
	raw := c.Param("idx")
	idx, err := strconv.Atoi(raw)
	if err != nil {
		return 0, NewBadRequestError("Index must be an integer", err)
	}
	return idx, nil
}

func (s *Server) listPoints(c echo.Context, kind telemetry.Kind) error {
	var points []telemetry.PointState
	err := s.do(c, func(ctrl *scene.Controller) error {
		points = ctrl.Points(kind)
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, points)
}

func (s *Server) handleListStatuses(c echo.Context) error {
	return s.listPoints(c, telemetry.KindStatus)
}

func (s *Server) handleListAnalogs(c echo.Context) error {
	return s.listPoints(c, telemetry.KindAnalog)
}

func (s *Server) handleListVariables(c echo.Context) error {
	return s.listPoints(c, telemetry.KindVariable)
}

func (s *Server) handleGetStatus(c echo.Context) error {
	idx, err := indexParam(c)
	if err != nil {
		return err
	}
	var resp StatusResponse
	if err := s.do(c, func(ctrl *scene.Controller) error {
		resp = statusView(ctrl, idx)
		return nil
	}); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSetStatus(c echo.Context) error {
	idx, err := indexParam(c)
	if err != nil {
		return err
	}
	var req telemetry.StatusUpdate
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("Invalid JSON payload", err)
	}
	if req.Empty() {
		return NewBadRequestError("Nothing to update", nil)
	}

	var resp StatusResponse
	if err := s.do(c, func(ctrl *scene.Controller) error {
		if !ctrl.SetStatus(idx, req) {
			return NewNotFoundError("status", c.Param("idx"))
		}
		resp = statusView(ctrl, idx)
		return nil
	}); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGetAnalog(c echo.Context) error {
	idx, err := indexParam(c)
	if err != nil {
		return err
	}
	var resp AnalogResponse
	if err := s.do(c, func(ctrl *scene.Controller) error {
		resp = analogView(ctrl, idx)
		return nil
	}); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSetAnalog(c echo.Context) error {
	idx, err := indexParam(c)
	if err != nil {
		return err
	}
	var req telemetry.AnalogUpdate
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("Invalid JSON payload", err)
	}
	if req.Empty() {
		return NewBadRequestError("Nothing to update", nil)
	}

	var resp AnalogResponse
	if err := s.do(c, func(ctrl *scene.Controller) error {
		if !ctrl.SetAnalog(idx, req) {
			return NewNotFoundError("analog", c.Param("idx"))
		}
		resp = analogView(ctrl, idx)
		return nil
	}); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGetVariable(c echo.Context) error {
	idx, err := indexParam(c)
	if err != nil {
		return err
	}
	var resp VariableResponse
	if err := s.do(c, func(ctrl *scene.Controller) error {
		resp = variableView(ctrl, idx)
		return nil
	}); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSetVariable(c echo.Context) error {
	idx, err := indexParam(c)
	if err != nil {
		return err
	}
	var req VariableRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("Invalid JSON payload", err)
	}

	var resp VariableResponse
	if err := s.do(c, func(ctrl *scene.Controller) error {
		if !ctrl.SetVariable(idx, req.On) {
			return NewNotFoundError("variable", c.Param("idx"))
		}
		resp = variableView(ctrl, idx)
		return nil
	}); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}
