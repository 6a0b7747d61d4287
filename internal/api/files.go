package api

import (
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/dncore/swi/internal/archive"
	"github.com/dncore/swi/internal/vfs"
)

// writeUploadedFile streams an uploaded multipart file to dst, creating
// its parent directory if needed.
func writeUploadedFile(dst string, src io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, src)
	return err
}

func (s *Server) registerFileRoutes(g *echo.Group) {
	// Global (servers root) file surface.
	g.GET("/files", s.listFiles)
	g.GET("/file/info", s.fileInfo)
	g.GET("/file", s.downloadFile)
	g.POST("/file", s.uploadFile)
	g.DELETE("/file", s.deleteFile)
	g.POST("/file/mkdir", s.mkdir)
	g.PUT("/file/copy", s.copyFile)
	g.PUT("/file/move", s.moveFile)
	g.POST("/file/archive/files", s.archiveFiles)
	g.POST("/file/archive/extract", s.extractArchive)
	g.POST("/file/archive/make", s.makeArchive)
	g.GET("/file/archive/file", s.listArchive)
	g.GET("/file/tasks", s.listFileTasks)

	// Per-server file surface: identical operations scoped to the
	// server's own root instead of the shared servers root.
	sg := g.Group("/server/:id")
	sg.GET("/files", s.listFiles)
	sg.GET("/file/info", s.fileInfo)
	sg.GET("/file", s.downloadFile)
	sg.POST("/file", s.uploadFile)
	sg.DELETE("/file", s.deleteFile)
	sg.POST("/file/mkdir", s.mkdir)
	sg.PUT("/file/copy", s.copyFile)
	sg.PUT("/file/move", s.moveFile)
	sg.POST("/file/archive/files", s.archiveFiles)
	sg.POST("/file/archive/extract", s.extractArchive)
	sg.POST("/file/archive/make", s.makeArchive)
	sg.GET("/file/archive/file", s.listArchive)
}

// fileRoot resolves the vfs.Root and serverID a file-family handler
// should operate against: the server's own root when :id is present in
// the path, the shared servers root otherwise.
func (s *Server) fileRoot(c echo.Context) (*vfs.Root, string, error) {
	id := c.Param("id")
	if id == "" {
		return s.sw.ServersRoot, "", nil
	}
	srv, ok := s.sw.Get(id)
	if !ok {
		return nil, "", errNotExistsFile
	}
	return srv.Root(), id, nil
}

func (s *Server) listFiles(c echo.Context) error {
	root, _, err := s.fileRoot(c)
	if err != nil {
		return writeError(c, err)
	}
	entries, err := root.List(c.QueryParam("path"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}

func (s *Server) fileInfo(c echo.Context) error {
	root, _, err := s.fileRoot(c)
	if err != nil {
		return writeError(c, err)
	}
	info, err := root.Stat(c.QueryParam("path"))
	if err != nil {
		return writeError(c, errNotExistsFile)
	}
	return c.JSON(http.StatusOK, info)
}

func (s *Server) downloadFile(c echo.Context) error {
	root, _, err := s.fileRoot(c)
	if err != nil {
		return writeError(c, err)
	}
	real, err := root.Resolve(c.QueryParam("path"))
	if err != nil {
		return writeError(c, err)
	}
	return c.File(real)
}

func (s *Server) uploadFile(c echo.Context) error {
	root, _, err := s.fileRoot(c)
	if err != nil {
		return writeError(c, err)
	}
	real, err := root.Resolve(c.QueryParam("path"))
	if err != nil {
		return writeError(c, err)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, apiError{Code: "INVALID_REQUEST", Error: err.Error()})
	}
	src, err := fh.Open()
	if err != nil {
		return writeError(c, err)
	}
	defer src.Close()
	if err := writeUploadedFile(real, src); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) deleteFile(c echo.Context) error {
	root, serverID, err := s.fileRoot(c)
	if err != nil {
		return writeError(c, err)
	}
	task, err := s.sw.Files.Delete(root, serverID, c.QueryParam("path"))
	if err != nil {
		return writeError(c, err)
	}
	return awaitFileTask(c, s.sw.Files, task)
}

func (s *Server) mkdir(c echo.Context) error {
	root, _, err := s.fileRoot(c)
	if err != nil {
		return writeError(c, err)
	}
	var req struct {
		Path string `json:"path"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiError{Code: "INVALID_REQUEST", Error: err.Error()})
	}
	if err := root.Mkdir(req.Path); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusCreated)
}

type copyMoveRequest struct {
	Src string `json:"src"`
	Dst string `json:"dst"`
}

func (s *Server) copyFile(c echo.Context) error {
	root, serverID, err := s.fileRoot(c)
	if err != nil {
		return writeError(c, err)
	}
	var req copyMoveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiError{Code: "INVALID_REQUEST", Error: err.Error()})
	}
	task, err := s.sw.Files.Copy(root, serverID, req.Src, req.Dst)
	if err != nil {
		return writeError(c, err)
	}
	return awaitFileTask(c, s.sw.Files, task)
}

func (s *Server) moveFile(c echo.Context) error {
	root, serverID, err := s.fileRoot(c)
	if err != nil {
		return writeError(c, err)
	}
	var req copyMoveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiError{Code: "INVALID_REQUEST", Error: err.Error()})
	}
	task, err := s.sw.Files.Move(root, serverID, req.Src, req.Dst)
	if err != nil {
		return writeError(c, err)
	}
	return awaitFileTask(c, s.sw.Files, task)
}

type archiveFilesRequest struct {
	Dst     string   `json:"dst"`
	Entries []string `json:"entries"`
}

// archiveFiles and makeArchive share the same semantics: one archive
// operation that either restricts itself to a set of entries or not.
func (s *Server) archiveFiles(c echo.Context) error {
	return s.makeArchive(c)
}

func (s *Server) makeArchive(c echo.Context) error {
	root, serverID, err := s.fileRoot(c)
	if err != nil {
		return writeError(c, err)
	}
	var req archiveFilesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiError{Code: "INVALID_REQUEST", Error: err.Error()})
	}
	helper, err := archive.DetectBySuffix(req.Dst)
	if err != nil {
		return writeError(c, errNoArchiveHelper)
	}
	task, err := s.sw.Files.MakeArchive(root, serverID, req.Dst, req.Entries, helper)
	if err != nil {
		return writeError(c, err)
	}
	return awaitFileTask(c, s.sw.Files, task)
}

func (s *Server) extractArchive(c echo.Context) error {
	root, serverID, err := s.fileRoot(c)
	if err != nil {
		return writeError(c, err)
	}
	var req copyMoveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiError{Code: "INVALID_REQUEST", Error: err.Error()})
	}
	helper, err := archive.DetectBySuffix(req.Src)
	if err != nil {
		return writeError(c, errNoArchiveHelper)
	}
	task, err := s.sw.Files.ExtractArchive(root, serverID, req.Src, req.Dst, helper)
	if err != nil {
		return writeError(c, err)
	}
	return awaitFileTask(c, s.sw.Files, task)
}

func (s *Server) listArchive(c echo.Context) error {
	root, _, err := s.fileRoot(c)
	if err != nil {
		return writeError(c, err)
	}
	real, err := root.Resolve(c.QueryParam("path"))
	if err != nil {
		return writeError(c, err)
	}
	helper, err := archive.DetectBySuffix(real)
	if err != nil {
		return writeError(c, errNoArchiveHelper)
	}
	entries, err := helper.ListArchive(c.Request().Context(), real)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}

func (s *Server) listFileTasks(c echo.Context) error {
	return c.JSON(http.StatusOK, s.sw.Files.Tasks())
}
