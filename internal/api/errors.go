package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dncore/swi/internal/backup"
	"github.com/dncore/swi/internal/javahome"
	"github.com/dncore/swi/internal/process"
	"github.com/dncore/swi/internal/switcher"
	"github.com/dncore/swi/internal/vfs"
)

// apiError is the JSON body every failed request gets: a stable machine
// code plus a human message, matching the teacher's map[string]string
// error shape with one extra field.
type apiError struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// errKindTable maps a sentinel error to its stable API code and HTTP
// status, per spec's "every component-level error has a stable API
// code" contract (§4.7/§7). Order matters: errors.Is walks the table
// top to bottom so a more specific sentinel can shadow a generic one.
var errKindTable = []struct {
	sentinel error
	code     string
	status   int
}{
	{switcher.ErrAlreadyRunning, "SERVER_ALREADY_RUNNING", http.StatusBadRequest},
	{switcher.ErrNotRunning, "SERVER_NOT_RUNNING", http.StatusBadRequest},
	{switcher.ErrProcessing, "SERVER_PROCESSING", http.StatusBadRequest},
	{switcher.ErrBuildPending, "SERVER_BUILD_PENDING", http.StatusBadRequest},
	{switcher.ErrAlreadyRegistered, "ALREADY_EXISTS_PATH", http.StatusBadRequest},
	{switcher.ErrDirectoryExists, "ALREADY_EXISTS_PATH", http.StatusBadRequest},
	{switcher.ErrNotRegistered, "NOT_EXISTS_FILE", http.StatusNotFound},
	{switcher.ErrUnknownServerType, "NO_SUPPORTED_ARCHIVE_FORMAT", http.StatusBadRequest},
	{switcher.ErrUnknownBuild, "NOT_EXISTS_FILE", http.StatusNotFound},
	{process.ErrOutOfMemory, "OUT_OF_MEMORY", http.StatusBadRequest},
	{javahome.ErrUnknownPreset, "UNKNOWN_JAVA_PRESET", http.StatusBadRequest},
	{vfs.ErrEscapesRoot, "NOT_ALLOWED_PATH", http.StatusBadRequest},
	{backup.ErrAlreadyRunning, "BACKUP_ALREADY_RUNNING", http.StatusBadRequest},
	{errBackupNotFound, "BACKUP_NOT_FOUND", http.StatusNotFound},
	{errInvalidBackup, "INVALID_BACKUP", http.StatusBadRequest},
	{errNotExistsUser, "NOT_EXISTS_USER", http.StatusNotFound},
	{errInvalidCredentials, "INVALID_AUTHENTICATION_CREDENTIALS", http.StatusUnauthorized},
	{errNotExistsFile, "NOT_EXISTS_FILE", http.StatusNotFound},
	{errNotExistsDirectory, "NOT_EXISTS_DIRECTORY", http.StatusNotFound},
	{errNotExistsConfigFile, "NOT_EXISTS_CONFIG_FILE", http.StatusNotFound},
	{errNoArchiveHelper, "NO_SUPPORTED_ARCHIVE_FORMAT", http.StatusBadRequest},
	{errNoDownloadFile, "NOT_EXISTS_FILE", http.StatusNotFound},
}

// Sentinels for the error kinds spec's §7 names that have no natural
// home in an existing component package (they're raised directly by
// handlers in this package).
var (
	errBackupNotFound      = errors.New("backup not found")
	errInvalidBackup       = errors.New("invalid backup")
	errNotExistsUser       = errors.New("user does not exist")
	errInvalidCredentials  = errors.New("invalid username or password")
	errNotExistsFile       = errors.New("file does not exist")
	errNotExistsDirectory  = errors.New("directory does not exist")
	errNotExistsConfigFile = errors.New("config file does not exist")
	errNoArchiveHelper     = errors.New("no archive helper available")
	errNoDownloadFile      = errors.New("no file to download")
)

// writeError resolves err against errKindTable and writes the matching
// JSON error response, falling back to 500 with a generic code for
// anything unclassified (disk I/O errors, context cancellation, etc.).
func writeError(c echo.Context, err error) error {
	for _, k := range errKindTable {
		if errors.Is(err, k.sentinel) {
			return c.JSON(k.status, apiError{Code: k.code, Error: err.Error()})
		}
	}
	return c.JSON(http.StatusInternalServerError, apiError{Code: "INTERNAL_ERROR", Error: err.Error()})
}
