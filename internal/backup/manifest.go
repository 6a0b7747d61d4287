package backup

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/dncore/swi/pkg/types"
)

// manifestSidecarName is the zstd-compressed copy of a snapshot's file
// manifest written alongside the snapshot directory. The sqlite row
// (db.Store.GetSnapshotManifest) remains the source of truth for reads;
// this sidecar exists so a snapshot's manifest travels with it if the
// directory is ever copied or shipped off-box independent of the database.
const manifestSidecarName = ".manifest.json.zst"

// writeManifestSidecar JSON-encodes diff and writes it zstd-compressed to path.
func writeManifestSidecar(path string, diff []types.SnapshotFile) error {
	data, err := json.Marshal(diff)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("create zstd encoder: %w", err)
	}
	defer enc.Close()
	compressed := enc.EncodeAll(data, nil)

	return os.WriteFile(path, compressed, 0644)
}

// readManifestSidecar decodes a manifest sidecar written by
// writeManifestSidecar, for tooling that inspects a snapshot directory
// standalone (e.g. after an S3 mirror restore) without the database.
func readManifestSidecar(path string) ([]types.SnapshotFile, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()
	data, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress manifest: %w", err)
	}

	var diff []types.SnapshotFile
	if err := json.Unmarshal(data, &diff); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return diff, nil
}
