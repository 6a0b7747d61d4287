package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dncore/swi/internal/db"
	"github.com/dncore/swi/internal/events"
	"github.com/dncore/swi/pkg/types"
)

func newTestEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	backupsDir := filepath.Join(t.TempDir(), "backups")
	store, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "swi.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	e, err := NewEngine(Config{BackupsDir: backupsDir, TrashRetentionHours: 72, Suffixes: []string{"zip"}}, store, events.New())
	if err != nil {
		t.Fatal(err)
	}
	return e, backupsDir
}

func writeServerTree(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(dir, "world"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "server.properties"), []byte("level-name=world\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "world", "level.dat"), []byte("leveldata"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestCreateFullBackupAndRestore(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	serversRoot := t.TempDir()
	serverDir := filepath.Join(serversRoot, "myserver")
	if err := os.MkdirAll(serverDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeServerTree(t, serverDir)

	b, err := e.CreateFull(ctx, "srv1", "src-uuid", serverDir, "nightly")
	if err != nil {
		t.Fatalf("CreateFull: %v", err)
	}
	if b.Kind != types.BackupKindFull {
		t.Errorf("Kind = %v, want full", b.Kind)
	}
	if b.TotalFiles != 2 {
		t.Errorf("TotalFiles = %d, want 2", b.TotalFiles)
	}

	if _, running := e.RunningTask("srv1"); running {
		t.Error("expected no running task after completion")
	}

	restoreTarget := filepath.Join(serversRoot, "restored")
	if err := e.Restore(ctx, "srv1", b, restoreTarget); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(restoreTarget, "world", "level.dat"))
	if err != nil {
		t.Fatalf("restored level.dat missing: %v", err)
	}
	if string(got) != "leveldata" {
		t.Errorf("level.dat = %q, want leveldata", got)
	}
}

func TestCreateSnapshotLinksUnchangedFiles(t *testing.T) {
	e, backupsDir := newTestEngine(t)
	ctx := context.Background()

	serverDir := t.TempDir()
	writeServerTree(t, serverDir)

	first, err := e.CreateSnapshot(ctx, "srv1", "src-uuid", serverDir, "", "base")
	if err != nil {
		t.Fatalf("first CreateSnapshot: %v", err)
	}

	// second snapshot with no changes: every regular file should be LINK.
	second, err := e.CreateSnapshot(ctx, "srv1", "src-uuid", serverDir, first.ID, "unchanged")
	if err != nil {
		t.Fatalf("second CreateSnapshot: %v", err)
	}

	manifest, err := e.store.GetSnapshotManifest(ctx, second.ID)
	if err != nil {
		t.Fatal(err)
	}
	foundLink := false
	for _, f := range manifest {
		if f.Type == types.FileTypeFile && f.Status == types.SnapshotLink {
			foundLink = true
		}
	}
	if !foundLink {
		t.Error("expected at least one SnapshotLink entry in second snapshot manifest")
	}

	// The hard-linked file should share an inode with the base snapshot's copy.
	baseFile := filepath.Join(backupsDir, first.Path, "server.properties")
	secondFile := filepath.Join(backupsDir, second.Path, "server.properties")
	baseInfo, err := os.Stat(baseFile)
	if err != nil {
		t.Fatal(err)
	}
	secondInfo, err := os.Stat(secondFile)
	if err != nil {
		t.Fatal(err)
	}
	if !os.SameFile(baseInfo, secondInfo) {
		t.Error("expected unchanged file to be hard-linked between snapshots")
	}
}

func TestDeleteBackupRemovesRowAndArtifact(t *testing.T) {
	e, backupsDir := newTestEngine(t)
	ctx := context.Background()

	serverDir := t.TempDir()
	writeServerTree(t, serverDir)

	b, err := e.CreateFull(ctx, "srv1", "src-uuid", serverDir, "")
	if err != nil {
		t.Fatal(err)
	}

	if err := e.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := e.store.GetBackup(ctx, b.ID); err == nil {
		t.Error("expected backup row to be gone")
	}
	if _, err := os.Stat(filepath.Join(backupsDir, b.Path)); !os.IsNotExist(err) {
		t.Errorf("expected artifact to be removed, stat err = %v", err)
	}
}

func TestConcurrentBackupRejected(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	serverDir := t.TempDir()
	writeServerTree(t, serverDir)

	task, err := e.beginTask("srv1", types.BackupTaskCreateFull, "")
	if err != nil {
		t.Fatal(err)
	}
	defer e.endTask("srv1", task, nil)

	if _, err := e.CreateFull(ctx, "srv1", "src-uuid", serverDir, ""); err != ErrAlreadyRunning {
		t.Errorf("CreateFull = %v, want ErrAlreadyRunning", err)
	}
}

func TestNewBackupFilenameSanitizesComments(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	got := newBackupFilename(now, `bad/name:*?"<>|chars`)
	want := "20260102_030405_bad_name_chars"
	if got != want {
		t.Errorf("newBackupFilename = %q, want %q", got, want)
	}
}
