package backup

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/dncore/swi/pkg/types"
)

func TestManifestSidecarRoundTrips(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	want := []types.SnapshotFile{
		{Path: "world", Type: types.FileTypeDirectory, Status: types.SnapshotNoChange},
		{Path: "world/level.dat", Type: types.FileTypeFile, Status: types.SnapshotUpdate, Size: 1024, ModifiedAt: now},
		{Path: "server.jar", Type: types.FileTypeFile, Status: types.SnapshotLink, Size: 2048, ModifiedAt: now},
	}

	path := filepath.Join(t.TempDir(), manifestSidecarName)
	if err := writeManifestSidecar(path, want); err != nil {
		t.Fatalf("writeManifestSidecar: %v", err)
	}

	got, err := readManifestSidecar(path)
	if err != nil {
		t.Fatalf("readManifestSidecar: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Path != want[i].Path || got[i].Status != want[i].Status || got[i].Size != want[i].Size {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
