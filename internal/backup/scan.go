// Package backup implements the full-archive and hard-link-deduplicated
// snapshot backup engine: scan, compare, create, restore, verify, and
// trash/delete of server directory backups.
package backup

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dncore/swi/pkg/types"
)

// fileInfo is the scan-phase record for one path, matching the original
// implementation's FileInfo(size, modified_datetime, is_dir) NamedTuple.
type fileInfo struct {
	size    int64
	modTime time.Time
	isDir   bool
}

// equal implements FileInfo.__eq__: both-dir compares equal regardless of
// size/mtime; otherwise size and mtime must both match.
func (f fileInfo) equal(other fileInfo) bool {
	if f.isDir != other.isDir {
		return false
	}
	if f.isDir && other.isDir {
		return true
	}
	return f.size == other.size && f.modTime.Equal(other.modTime)
}

// scanFiles walks root and returns every path (files and directories)
// relative to root, in "/"-separated form, along with a per-path scan
// error map for entries that couldn't be stat'd.
func scanFiles(root string) (map[string]fileInfo, map[string]error) {
	files := map[string]fileInfo{}
	errs := map[string]error{}

	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if path == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if err != nil {
			errs[rel] = err
			return nil
		}
		files[rel] = fileInfo{size: info.Size(), modTime: info.ModTime(), isDir: info.IsDir()}
		return nil
	})

	return files, errs
}

// sortedPaths returns the keys of m in ascending order, used wherever the
// original implementation's dict-insertion order needs to become a
// deterministic, sorted Go slice (compare() is specified as "sorted by
// path").
func sortedPaths(m map[string]fileInfo) []string {
	out := make([]string, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func toFileType(isDir bool) types.FileType {
	if isDir {
		return types.FileTypeDirectory
	}
	return types.FileTypeFile
}
