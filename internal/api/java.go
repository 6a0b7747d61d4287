package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dncore/swi/internal/javahome"
)

func (s *Server) registerJavaRoutes(g *echo.Group) {
	g.GET("/java/preset/list", s.listJavaPresets)
	g.POST("/java/preset", s.addJavaPreset)
	g.DELETE("/java/preset", s.removeJavaPreset)
	g.POST("/java/detect/rescan", s.rescanJava)
}

func (s *Server) listJavaPresets(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"presets":    s.sw.Java.Presets(),
		"detections": s.sw.Java.Detections(),
	})
}

func (s *Server) addJavaPreset(c echo.Context) error {
	var req struct {
		Name       string `json:"name"`
		Executable string `json:"executable"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiError{Code: "INVALID_REQUEST", Error: err.Error()})
	}
	preset, err := s.sw.Java.AddPreset(c.Request().Context(), req.Name, req.Executable)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, preset)
}

func (s *Server) removeJavaPreset(c echo.Context) error {
	name := c.QueryParam("name")
	if !s.sw.Java.RemovePreset(name) {
		return writeError(c, javahome.ErrUnknownPreset)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) rescanJava(c echo.Context) error {
	if err := s.sw.Java.Rescan(c.Request().Context()); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s.sw.Java.Detections())
}
