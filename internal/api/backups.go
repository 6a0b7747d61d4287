package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dncore/swi/internal/backup"
	"github.com/dncore/swi/internal/db"
	"github.com/dncore/swi/pkg/types"
)

func (s *Server) registerBackupRoutes(g *echo.Group) {
	g.GET("/backups", s.listAllBackups)
	g.GET("/backup/:bid", s.getBackup)
	g.DELETE("/backup/:bid", s.deleteBackup)
	g.GET("/backup/:bid/files", s.getBackupFiles)
	g.GET("/backup/:bid/files/compare", s.compareBackupFiles)

	sg := g.Group("/server/:id")
	sg.GET("/backups", s.listServerBackups)
	sg.GET("/backup", s.listServerBackups)
	sg.POST("/backup", s.createBackup)
	sg.POST("/backup/:bid/restore", s.restoreBackup)
	sg.GET("/backup/:bid/verify", s.verifyBackup)
	sg.GET("/backup/:bid/file", s.getBackupFileContent)
	sg.GET("/backup/file/history", s.backupFileHistory)
}

func (s *Server) getBackupByID(c echo.Context) (*types.Backup, error) {
	b, err := s.store.GetBackup(c.Request().Context(), c.Param("bid"))
	if err != nil {
		if err == db.ErrNotFound {
			return nil, errBackupNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *Server) listAllBackups(c echo.Context) error {
	var out []*types.Backup
	for _, srv := range s.sw.List() {
		list, err := s.store.ListBackups(c.Request().Context(), srv.ID)
		if err != nil {
			return writeError(c, err)
		}
		out = append(out, list...)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) listServerBackups(c echo.Context) error {
	list, err := s.store.ListBackups(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) getBackup(c echo.Context) error {
	b, err := s.getBackupByID(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

func (s *Server) deleteBackup(c echo.Context) error {
	if err := s.sw.Backups.Trash(c.Request().Context(), c.Param("bid")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) getBackupFiles(c echo.Context) error {
	files, err := s.store.GetSnapshotManifest(c.Request().Context(), c.Param("bid"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, files)
}

func (s *Server) compareBackupFiles(c echo.Context) error {
	other := c.QueryParam("with")
	if other == "" {
		return writeError(c, errInvalidBackup)
	}
	result, err := s.sw.Backups.Compare(c.Request().Context(), c.Param("bid"), other, c.QueryParam("only_updates") == "true")
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) createBackup(c echo.Context) error {
	srv, ok := s.sw.Get(c.Param("id"))
	if !ok {
		return writeError(c, errNotExistsFile)
	}
	var req types.CreateBackupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiError{Code: "INVALID_REQUEST", Error: err.Error()})
	}

	lookup := func(serverID string) (int64, bool) {
		t, ok := s.sw.Backups.RunningTask(serverID)
		if !ok {
			return 0, false
		}
		return t.ID, true
	}

	return runBackupTask(c, srv.ID, lookup, func(ctx context.Context) (any, error) {
		cfg := srv.Config()
		if req.Kind == types.BackupKindSnapshot {
			return s.sw.Backups.CreateSnapshot(ctx, srv.ID, cfg.SourceID, srv.Directory, cfg.LastBackupID, req.Comments)
		}
		return s.sw.Backups.CreateFull(ctx, srv.ID, cfg.SourceID, srv.Directory, req.Comments)
	})
}

func (s *Server) restoreBackup(c echo.Context) error {
	srv, ok := s.sw.Get(c.Param("id"))
	if !ok {
		return writeError(c, errNotExistsFile)
	}
	if srv.State().IsRunning() {
		return writeError(c, backup.ErrAlreadyRunning)
	}
	b, err := s.store.GetBackup(c.Request().Context(), c.Param("bid"))
	if err != nil {
		if err == db.ErrNotFound {
			return writeError(c, errBackupNotFound)
		}
		return writeError(c, err)
	}

	lookup := func(serverID string) (int64, bool) {
		t, ok := s.sw.Backups.RunningTask(serverID)
		if !ok {
			return 0, false
		}
		return t.ID, true
	}

	return runBackupTask(c, srv.ID, lookup, func(ctx context.Context) (any, error) {
		return nil, s.sw.Backups.Restore(ctx, srv.ID, b, srv.Directory)
	})
}

func (s *Server) verifyBackup(c echo.Context) error {
	result, err := s.sw.Backups.Verify(c.Request().Context(), c.Param("bid"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) getBackupFileContent(c echo.Context) error {
	b, err := s.store.GetBackup(c.Request().Context(), c.Param("bid"))
	if err != nil {
		if err == db.ErrNotFound {
			return writeError(c, errBackupNotFound)
		}
		return writeError(c, err)
	}
	path := s.sw.Config().Backup.BackupsDirectory
	return c.File(path + "/" + b.Path)
}

func (s *Server) backupFileHistory(c echo.Context) error {
	path := c.QueryParam("path")
	list, err := s.store.ListBackups(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	var history []types.SnapshotFile
	for _, b := range list {
		manifest, err := s.store.GetSnapshotManifest(c.Request().Context(), b.ID)
		if err != nil {
			continue
		}
		for _, f := range manifest {
			if f.Path == path {
				history = append(history, f)
			}
		}
	}
	return c.JSON(http.StatusOK, history)
}
