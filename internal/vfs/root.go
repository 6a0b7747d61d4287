// Package vfs resolves the virtual, root-relative paths exposed over the
// control plane (a server's file browser, the backup engine's archive
// targets) to real filesystem paths, and tracks the async copy/move/
// delete/archive operations performed on them.
package vfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dncore/swi/pkg/types"
)

// ErrEscapesRoot is returned by Resolve when a virtual path would escape
// its root via ".." segments.
var ErrEscapesRoot = fmt.Errorf("path escapes root directory")

// Root resolves virtual paths against a single real base directory. One
// Root exists for the shared servers root (config.RootDirectory) and one
// per server (the server's own directory), mirroring the original
// implementation's FileManager.realpath(swi_path, root_dir=...).
type Root struct {
	base string
}

// NewRoot returns a Root rooted at base, creating base if it doesn't
// already exist.
func NewRoot(base string) (*Root, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", base, err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("create root %s: %w", abs, err)
	}
	return &Root{base: abs}, nil
}

// Base returns the real absolute base directory.
func (r *Root) Base() string { return r.base }

// Resolve turns a virtual path ("/", "/world/level.dat", "world/level.dat")
// into a real absolute path, rejecting any path that would escape the
// root. A virtual path is always relative to the root and uses "/" as
// its separator regardless of host OS.
func (r *Root) Resolve(virtual string) (string, error) {
	virtual = strings.TrimPrefix(virtual, "/")
	joined := filepath.Join(r.base, filepath.FromSlash(virtual))
	cleaned := filepath.Clean(joined)
	if cleaned != r.base && !strings.HasPrefix(cleaned, r.base+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrEscapesRoot, virtual)
	}
	return cleaned, nil
}

// VirtualPath is Resolve's inverse: it turns a real path known to be
// under the root back into a "/"-separated virtual path.
func (r *Root) VirtualPath(real string) (string, error) {
	abs, err := filepath.Abs(real)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(r.base, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: %s", ErrEscapesRoot, real)
	}
	if rel == "." {
		return "/", nil
	}
	return "/" + filepath.ToSlash(rel), nil
}

// Exists reports whether the virtual path exists.
func (r *Root) Exists(virtual string) bool {
	real, err := r.Resolve(virtual)
	if err != nil {
		return false
	}
	_, err = os.Stat(real)
	return err == nil
}

// Stat returns detailed info for a single virtual path.
func (r *Root) Stat(virtual string) (*types.FileInfo, error) {
	real, err := r.Resolve(virtual)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(real)
	if err != nil {
		return nil, err
	}
	return &types.FileInfo{
		Name:       info.Name(),
		Path:       virtual,
		IsDir:      info.IsDir(),
		Size:       info.Size(),
		Mode:       info.Mode().String(),
		ModifiedAt: info.ModTime(),
	}, nil
}

// List returns the immediate children of the virtual directory, matching
// the original implementation's listdir shape (name, path, isDir, size,
// modifiedAt). IsEULA is left false; no caller sets it.
func (r *Root) List(virtual string) ([]types.EntryInfo, error) {
	real, err := r.Resolve(virtual)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(real)
	if err != nil {
		return nil, err
	}

	virtualDir := strings.TrimSuffix(virtual, "/")
	out := make([]types.EntryInfo, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, types.EntryInfo{
			Name:       e.Name(),
			Path:       virtualDir + "/" + e.Name(),
			IsDir:      e.IsDir(),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}
	return out, nil
}

// Mkdir creates the virtual directory, including any missing parents.
func (r *Root) Mkdir(virtual string) error {
	real, err := r.Resolve(virtual)
	if err != nil {
		return err
	}
	return os.MkdirAll(real, 0755)
}

func touchParent(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0755)
}
