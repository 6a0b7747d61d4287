// Package api is the daemon's HTTP control plane: an echo router exposing
// the server/file/backup/jar-catalog/user surface over JSON, plus a
// WebSocket event fan-out, mirroring the teacher's internal/api package
// structure (one file per route family, Server as the shared receiver).
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dncore/swi/internal/auth"
	"github.com/dncore/swi/internal/db"
	"github.com/dncore/swi/internal/events"
	"github.com/dncore/swi/internal/metrics"
	"github.com/dncore/swi/internal/switcher"
)

// Server holds the API server's dependencies and owns the echo instance.
type Server struct {
	echo    *echo.Echo
	sw      *switcher.Switcher
	store   *db.Store
	bus     *events.Bus
	dlGrant *auth.DownloadIssuer
	started time.Time

	hub *wsHub
}

// Opts holds optional dependencies for the API server.
type Opts struct {
	CORSOrigins    []string
	DownloadIssuer *auth.DownloadIssuer
	// MetricsHandler, if non-nil, is served at GET /metrics (unauthenticated).
	MetricsHandler http.Handler
}

// NewServer builds the echo router with every route family wired to sw.
func NewServer(sw *switcher.Switcher, store *db.Store, bus *events.Bus, opts Opts) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		sw:      sw,
		store:   store,
		bus:     bus,
		dlGrant: opts.DownloadIssuer,
		started: time.Now(),
		hub:     newWSHub(bus),
	}

	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.RequestID())
	e.Use(metrics.EchoMiddleware())
	corsCfg := middleware.DefaultCORSConfig
	if len(opts.CORSOrigins) > 0 {
		corsCfg.AllowOrigins = opts.CORSOrigins
		corsCfg.AllowCredentials = true
	}
	e.Use(middleware.CORSWithConfig(corsCfg))

	metrics.Subscribe(bus)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	metricsHandler := opts.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = metrics.Handler()
	}
	e.GET("/metrics", echo.WrapHandler(metricsHandler))

	// Auth: /login has its own rule (probe/establish a session), everything
	// else requires one.
	e.GET("/login", s.probeLogin)
	e.POST("/login", s.login)

	api := e.Group("")
	api.Use(auth.SessionMiddleware(store))
	api.POST("/logout", s.logout)

	api.GET("/ws", s.wsHandler)

	s.registerUserRoutes(api)
	s.registerConfigRoutes(api)
	s.registerJavaRoutes(api)
	s.registerJardlRoutes(api)
	s.registerServerRoutes(api)
	s.registerFileRoutes(api)
	s.registerBackupRoutes(api)

	return s
}

// Start starts the HTTP server on addr (blocking, like http.Server.ListenAndServe).
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	return s.echo.Close()
}

// Echo returns the underlying echo instance (tests, additional wiring).
func (s *Server) Echo() *echo.Echo { return s.echo }
