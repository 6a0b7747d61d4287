package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dncore/swi/pkg/types"
)

func (s *Server) registerServerRoutes(g *echo.Group) {
	g.GET("/servers", s.listServers)
	g.GET("/server/:id", s.getServer)
	g.POST("/server/:id", s.createServer)
	g.DELETE("/server/:id", s.deleteServer)
	g.POST("/server/:id/import", s.importServer)

	g.POST("/server/:id/start", s.startServer)
	g.POST("/server/:id/stop", s.stopServer)
	g.POST("/server/:id/restart", s.restartServer)
	g.POST("/server/:id/kill", s.killServer)
	g.POST("/server/:id/send_line", s.sendLine)

	g.GET("/server/:id/term/size", s.getTermSize)
	g.POST("/server/:id/term/size", s.setTermSize)
	g.GET("/server/:id/logs/latest", s.getLatestLogs)
	g.GET("/server/:id/console/ws", s.consoleWS)

	g.GET("/server/:id/config", s.getServerConfig)
	g.PUT("/server/:id/config", s.putServerConfig)
	g.POST("/server/:id/config/reload", s.reloadServerConfig)

	g.GET("/server/:id/eula", s.getEula)
	g.POST("/server/:id/eula", s.acceptEula)

	g.POST("/server/:id/install", s.installServer)
	g.DELETE("/server/:id/build", s.cancelBuild)
}

func (s *Server) listServers(c echo.Context) error {
	list := s.sw.List()
	out := make([]types.ServerSummary, 0, len(list))
	for _, srv := range list {
		out = append(out, srv.Summary())
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getServer(c echo.Context) error {
	srv, ok := s.sw.Get(c.Param("id"))
	if !ok {
		return writeError(c, errNotExistsFile)
	}
	return c.JSON(http.StatusOK, srv.Summary())
}

type createServerRequest struct {
	Directory string             `json:"directory"`
	Config    types.ServerConfig `json:"config"`
}

func (s *Server) createServer(c echo.Context) error {
	var req createServerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiError{Code: "INVALID_REQUEST", Error: err.Error()})
	}
	srv, err := s.sw.Create(c.Param("id"), req.Directory, &req.Config)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, srv.Summary())
}

func (s *Server) importServer(c echo.Context) error {
	var req struct {
		Directory string `json:"directory"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiError{Code: "INVALID_REQUEST", Error: err.Error()})
	}
	srv, err := s.sw.Import(c.Param("id"), req.Directory)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, srv.Summary())
}

func (s *Server) deleteServer(c echo.Context) error {
	removeFiles := c.QueryParam("delete_files") == "true"
	if err := s.sw.Delete(c.Param("id"), removeFiles); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) startServer(c echo.Context) error {
	srv, ok := s.sw.Get(c.Param("id"))
	if !ok {
		return writeError(c, errNotExistsFile)
	}
	noBuild := c.QueryParam("no_build") == "true"
	if err := srv.Start(c.Request().Context(), s.sw.Config(), s.sw.Java, noBuild); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, srv.Summary())
}

func (s *Server) stopServer(c echo.Context) error {
	srv, ok := s.sw.Get(c.Param("id"))
	if !ok {
		return writeError(c, errNotExistsFile)
	}
	if err := srv.Stop(s.sw.Config()); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, srv.Summary())
}

func (s *Server) restartServer(c echo.Context) error {
	srv, ok := s.sw.Get(c.Param("id"))
	if !ok {
		return writeError(c, errNotExistsFile)
	}
	if err := srv.Restart(c.Request().Context(), s.sw.Config(), s.sw.Java); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, srv.Summary())
}

func (s *Server) killServer(c echo.Context) error {
	srv, ok := s.sw.Get(c.Param("id"))
	if !ok {
		return writeError(c, errNotExistsFile)
	}
	if err := srv.Kill(); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, srv.Summary())
}

func (s *Server) sendLine(c echo.Context) error {
	srv, ok := s.sw.Get(c.Param("id"))
	if !ok {
		return writeError(c, errNotExistsFile)
	}
	var req struct {
		Line string `json:"line"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiError{Code: "INVALID_REQUEST", Error: err.Error()})
	}
	if err := srv.SendCommand(req.Line); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) getTermSize(c echo.Context) error {
	// The PTY doesn't expose its current size; clients track it locally
	// and only use GET to probe whether a console session exists.
	srv, ok := s.sw.Get(c.Param("id"))
	if !ok {
		return writeError(c, errNotExistsFile)
	}
	return c.JSON(http.StatusOK, map[string]bool{"running": srv.State().IsRunning()})
}

func (s *Server) setTermSize(c echo.Context) error {
	srv, ok := s.sw.Get(c.Param("id"))
	if !ok {
		return writeError(c, errNotExistsFile)
	}
	var req types.TerminalSize
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiError{Code: "INVALID_REQUEST", Error: err.Error()})
	}
	if err := srv.Process.Resize(req.Cols, req.Rows); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) getLatestLogs(c echo.Context) error {
	srv, ok := s.sw.Get(c.Param("id"))
	if !ok {
		return writeError(c, errNotExistsFile)
	}
	n := 200
	if raw := c.QueryParam("lines"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			n = v
		}
	}
	return c.JSON(http.StatusOK, srv.ConsoleTail(n))
}

func (s *Server) getServerConfig(c echo.Context) error {
	srv, ok := s.sw.Get(c.Param("id"))
	if !ok {
		return writeError(c, errNotExistsFile)
	}
	cfg := srv.Config()
	return c.JSON(http.StatusOK, cfg)
}

func (s *Server) putServerConfig(c echo.Context) error {
	srv, ok := s.sw.Get(c.Param("id"))
	if !ok {
		return writeError(c, errNotExistsFile)
	}
	var req types.ServerConfig
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiError{Code: "INVALID_REQUEST", Error: err.Error()})
	}
	if err := srv.SetConfig(req); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, srv.Config())
}

func (s *Server) reloadServerConfig(c echo.Context) error {
	srv, ok := s.sw.Get(c.Param("id"))
	if !ok {
		return writeError(c, errNotExistsFile)
	}
	if err := srv.ReloadConfig(); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, srv.Config())
}

func (s *Server) getEula(c echo.Context) error {
	srv, ok := s.sw.Get(c.Param("id"))
	if !ok {
		return writeError(c, errNotExistsFile)
	}
	accepted, err := readEula(srv.Directory)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"accepted": accepted})
}

func (s *Server) acceptEula(c echo.Context) error {
	srv, ok := s.sw.Get(c.Param("id"))
	if !ok {
		return writeError(c, errNotExistsFile)
	}
	if err := writeEula(srv.Directory, true); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) installServer(c echo.Context) error {
	srv, ok := s.sw.Get(c.Param("id"))
	if !ok {
		return writeError(c, errNotExistsFile)
	}
	var req types.BuildRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiError{Code: "INVALID_REQUEST", Error: err.Error()})
	}

	done := make(chan struct{})
	var opErr error
	go func() {
		defer close(done)
		opErr = s.sw.InstallJar(c.Request().Context(), srv, req)
	}()

	return awaitOrPending(c, 0, done, func() error {
		if opErr != nil {
			return writeError(c, opErr)
		}
		return c.JSON(http.StatusOK, srv.Summary())
	})
}

func (s *Server) cancelBuild(c echo.Context) error {
	srv, ok := s.sw.Get(c.Param("id"))
	if !ok {
		return writeError(c, errNotExistsFile)
	}
	if err := srv.Kill(); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
