package backup

import (
	"sort"

	"github.com/dncore/swi/pkg/types"
)

// compareFilesDiff mirrors the original implementation's
// compare_files_diff: every path in newFiles is CREATE (not in old),
// LINK (unchanged regular file vs. old), or UPDATE (changed vs. old);
// every path left in old after that is DELETE. Directories never carry
// comparable content (a directory either exists or it doesn't), so a
// directory present in new always comes out NO_CHANGE rather than
// CREATE/LINK — that also covers the no-base-snapshot preview path,
// where every directory would otherwise wrongly read as newly created.
// The result is sorted by path.
func compareFilesDiff(old, new map[string]fileInfo) []types.SnapshotFile {
	remaining := make(map[string]fileInfo, len(old))
	for p, fi := range old {
		remaining[p] = fi
	}

	out := make([]types.SnapshotFile, 0, len(new)+len(old))
	for path, newInfo := range new {
		oldInfo, hadOld := remaining[path]
		delete(remaining, path)

		var status types.SnapshotStatus
		switch {
		case newInfo.isDir:
			status = types.SnapshotNoChange
		case !hadOld:
			status = types.SnapshotCreate
		case newInfo.equal(oldInfo):
			status = types.SnapshotLink
		default:
			status = types.SnapshotUpdate
		}
		out = append(out, types.SnapshotFile{
			Path:       path,
			Type:       toFileType(newInfo.isDir),
			Status:     status,
			Size:       newInfo.size,
			ModifiedAt: newInfo.modTime,
		})
	}

	for path, oldInfo := range remaining {
		out = append(out, types.SnapshotFile{
			Path:       path,
			Type:       toFileType(oldInfo.isDir),
			Status:     types.SnapshotDelete,
			Size:       oldInfo.size,
			ModifiedAt: oldInfo.modTime,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
