package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dncore/swi/pkg/types"
)

func (s *Server) registerJardlRoutes(g *echo.Group) {
	g.GET("/jardl/types", s.listJardlTypes)
	g.GET("/jardl/:type/versions", s.listJardlVersions)
	g.GET("/jardl/:type/version/:v/builds", s.listJardlBuilds)
	g.GET("/jardl/:type/version/:v/build/:b", s.getJardlBuild)
}

func (s *Server) listJardlTypes(c echo.Context) error {
	return c.JSON(http.StatusOK, s.sw.Jars.Types())
}

func (s *Server) listJardlVersions(c echo.Context) error {
	typ := types.ParseServerType(c.Param("type"))
	d, ok := s.sw.Jars.Get(typ)
	if !ok {
		return writeError(c, errNoDownloadFile)
	}
	versions, err := d.ListVersions(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, versions)
}

func (s *Server) listJardlBuilds(c echo.Context) error {
	typ := types.ParseServerType(c.Param("type"))
	d, ok := s.sw.Jars.Get(typ)
	if !ok {
		return writeError(c, errNoDownloadFile)
	}
	builds, err := d.ListBuilds(c.Request().Context(), c.Param("v"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]types.JarVersionInfo, 0, len(builds))
	for _, b := range builds {
		out = append(out, b.Info())
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getJardlBuild(c echo.Context) error {
	typ := types.ParseServerType(c.Param("type"))
	d, ok := s.sw.Jars.Get(typ)
	if !ok {
		return writeError(c, errNoDownloadFile)
	}
	builds, err := d.ListBuilds(c.Request().Context(), c.Param("v"))
	if err != nil {
		return writeError(c, err)
	}
	want := c.Param("b")
	for _, b := range builds {
		info := b.Info()
		if info.Build == want {
			full, err := b.FetchInfo(c.Request().Context())
			if err != nil {
				return writeError(c, err)
			}
			return c.JSON(http.StatusOK, full)
		}
	}
	return writeError(c, errNoDownloadFile)
}
