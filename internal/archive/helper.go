// Package archive implements the pluggable archive-format helpers used
// by the backup engine and the file manager's make/extract/list
// operations.
package archive

import (
	"context"
	"fmt"

	"github.com/dncore/swi/pkg/types"
)

// ProgressFunc receives incremental progress during a long-running
// archive operation.
type ProgressFunc func(types.ArchiveProgress)

// Helper is implemented once per supported archive format. All paths are
// real filesystem paths already resolved by internal/vfs — helpers never
// see virtual paths.
type Helper interface {
	// Suffix is the format tag used in backup records and the helper
	// registry ("zip", "7z").
	Suffix() string

	// MakeArchive creates dst from every file under srcRoot, optionally
	// restricted to the given relative entries (nil means everything).
	MakeArchive(ctx context.Context, dst, srcRoot string, entries []string, progress ProgressFunc) error

	// ExtractArchive extracts archivePath into destDir.
	ExtractArchive(ctx context.Context, archivePath, destDir string, progress ProgressFunc) error

	// ListArchive returns the entries of an archive without extracting.
	ListArchive(ctx context.Context, archivePath string) ([]types.ArchiveFile, error)

	// IsArchive reports whether path looks like this helper's format,
	// used when a caller doesn't already know the suffix.
	IsArchive(path string) bool
}

// registry is the process-wide set of available helpers, keyed by suffix.
var registry = map[string]Helper{}

func register(h Helper) {
	registry[h.Suffix()] = h
}

func init() {
	register(&ZipHelper{})
	register(&SevenZipHelper{})
}

// ByPreferredSuffixes returns the first available helper among suffixes,
// in order, matching the original implementation's
// find_archive_helper_with_suffixes behavior: operators configure a
// preference list (e.g. ["7z", "zip"]) and the first one actually usable
// on this host wins.
func ByPreferredSuffixes(suffixes []string) (Helper, error) {
	for _, suf := range suffixes {
		if h, ok := registry[suf]; ok {
			if checker, ok := h.(interface{ Available() bool }); ok && !checker.Available() {
				continue
			}
			return h, nil
		}
	}
	return nil, fmt.Errorf("no archive helper available for suffixes %v", suffixes)
}

// BySuffix returns the helper registered for an exact suffix.
func BySuffix(suffix string) (Helper, error) {
	h, ok := registry[suffix]
	if !ok {
		return nil, fmt.Errorf("no archive helper registered for suffix %q", suffix)
	}
	return h, nil
}

// DetectBySuffix returns the helper whose IsArchive matches path's
// extension, used by the file manager when a caller doesn't specify a
// format explicitly.
func DetectBySuffix(path string) (Helper, error) {
	for _, h := range registry {
		if h.IsArchive(path) {
			return h, nil
		}
	}
	return nil, fmt.Errorf("no archive helper recognizes %q", path)
}
