package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dncore/swi/internal/auth"
	"github.com/dncore/swi/pkg/types"
)

func (s *Server) registerConfigRoutes(g *echo.Group) {
	g.GET("/config/app", s.getAppConfig)
	g.PUT("/config/app", s.putAppConfig, auth.RequirePermission(types.PermGlobalConfig))
	g.GET("/config/server_global", s.getServerGlobalConfig)
	g.PUT("/config/server_global", s.putServerGlobalConfig, auth.RequirePermission(types.PermGlobalConfig))
}

func (s *Server) getAppConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, s.sw.Config())
}

func (s *Server) putAppConfig(c echo.Context) error {
	cfg := s.sw.Config()
	if err := c.Bind(cfg); err != nil {
		return c.JSON(http.StatusBadRequest, apiError{Code: "INVALID_REQUEST", Error: err.Error()})
	}
	if err := s.sw.SaveConfig(); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cfg)
}

func (s *Server) getServerGlobalConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, s.sw.Config().ServerDefaults)
}

func (s *Server) putServerGlobalConfig(c echo.Context) error {
	var req types.ServerGlobalConfig
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiError{Code: "INVALID_REQUEST", Error: err.Error()})
	}
	s.sw.Config().ServerDefaults = req
	if err := s.sw.SaveConfig(); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, req)
}
