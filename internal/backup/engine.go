package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dncore/swi/internal/archive"
	"github.com/dncore/swi/internal/db"
	"github.com/dncore/swi/internal/events"
	"github.com/dncore/swi/pkg/types"
)

// ErrAlreadyRunning is returned when a backup/restore operation is
// requested for a server that already has one in flight, matching
// AlreadyBackupError in the original implementation.
var ErrAlreadyRunning = errors.New("a backup or restore task is already running for this server")

// Config is the subset of the global config the engine needs.
type Config struct {
	BackupsDir          string
	TrashRetentionHours int
	Suffixes            []string // archive format preference, e.g. ["7z", "zip"]
	S3Mirror            *S3MirrorConfig
}

// Engine creates, restores, compares, and deletes server backups.
type Engine struct {
	cfg    Config
	store  *db.Store
	bus    *events.Bus
	mirror *s3Mirror

	mu     sync.Mutex
	nextID int64
	active map[string]*types.BackupTask // serverID -> running task
}

// NewEngine creates a backup engine rooted at cfg.BackupsDir.
func NewEngine(cfg Config, store *db.Store, bus *events.Bus) (*Engine, error) {
	if err := os.MkdirAll(cfg.BackupsDir, 0755); err != nil {
		return nil, fmt.Errorf("create backups dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(cfg.BackupsDir, ".trash"), 0755); err != nil {
		return nil, fmt.Errorf("create trash dir: %w", err)
	}
	var mirror *s3Mirror
	if cfg.S3Mirror != nil {
		m, err := newS3Mirror(*cfg.S3Mirror)
		if err != nil {
			return nil, fmt.Errorf("create s3 mirror: %w", err)
		}
		mirror = m
	}
	return &Engine{cfg: cfg, store: store, bus: bus, mirror: mirror, active: map[string]*types.BackupTask{}}, nil
}

func (e *Engine) trashDir() string {
	return filepath.Join(e.cfg.BackupsDir, ".trash")
}

func (e *Engine) beginTask(serverID string, kind types.BackupTaskKind, backupID string) (*types.BackupTask, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, running := e.active[serverID]; running {
		return nil, ErrAlreadyRunning
	}
	e.nextID++
	task := &types.BackupTask{
		ID:        e.nextID,
		ServerID:  serverID,
		BackupID:  backupID,
		Kind:      kind,
		Status:    types.TaskRunning,
		StartedAt: time.Now(),
	}
	e.active[serverID] = task
	e.bus.Publish(events.BackupTaskStart{Task: *task})
	return task, nil
}

func (e *Engine) endTask(serverID string, task *types.BackupTask, err error) {
	now := time.Now()
	e.mu.Lock()
	task.FinishedAt = &now
	if err != nil {
		task.Status = types.TaskFailed
		task.Error = err.Error()
	} else {
		task.Status = types.TaskCompleted
		task.Progress = 1
	}
	delete(e.active, serverID)
	e.mu.Unlock()
	e.bus.Publish(events.BackupTaskEnd{Task: *task})
}

// RunningTask returns the in-flight task for a server, if any.
func (e *Engine) RunningTask(serverID string) (*types.BackupTask, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.active[serverID]
	return t, ok
}

// CreateFull archives serverDir into a single suffix-formatted backup
// file under cfg.BackupsDir/sourceID/, following spec.md §4.4's layout.
// It runs synchronously; callers wanting a non-blocking task should call
// it from their own goroutine — RunningTask lets a handler reject a
// second concurrent request for the same server meanwhile.
func (e *Engine) CreateFull(ctx context.Context, serverID, sourceID, serverDir, comments string) (*types.Backup, error) {
	task, err := e.beginTask(serverID, types.BackupTaskCreateFull, "")
	if err != nil {
		return nil, err
	}
	var result *types.Backup
	err = func() error {
		helper, err := archive.ByPreferredSuffixes(e.cfg.Suffixes)
		if err != nil {
			return err
		}

		files, scanErrs := scanFiles(serverDir)
		for path, scanErr := range scanErrs {
			log.Printf("backup: scan error for %s: %v", path, scanErr)
		}
		totalFiles, totalSize := 0, int64(0)
		for _, fi := range files {
			if !fi.isDir {
				totalFiles++
				totalSize += fi.size
			}
		}

		stem := newBackupFilename(time.Now(), comments)
		filename := stem + "." + helper.Suffix()
		destDir := filepath.Join(e.cfg.BackupsDir, sourceID)
		if err := os.MkdirAll(destDir, 0755); err != nil {
			return err
		}
		archivePath := filepath.Join(destDir, filename)

		err = helper.MakeArchive(ctx, archivePath, filepath.Dir(serverDir), []string{filepath.Base(serverDir)}, func(p types.ArchiveProgress) {
			e.mu.Lock()
			task.Progress = p.Progress
			e.mu.Unlock()
		})
		if err != nil {
			return err
		}

		if _, err := os.Stat(archivePath); err != nil {
			return err
		}

		b := &types.Backup{
			ID:         uuid.NewString(),
			ServerID:   serverID,
			Kind:       types.BackupKindFull,
			Comments:   comments,
			Path:       filepath.Join(sourceID, filename),
			Suffix:     helper.Suffix(),
			SourceSize: totalSize,
			TotalFiles: totalFiles,
			CreatedAt:  time.Now(),
		}
		// Archive file size on disk is derived on demand (Path + os.Stat)
		// by callers that need it rather than duplicated into the DB row.
		if err := e.store.InsertBackup(ctx, b, nil, nil); err != nil {
			return err
		}
		task.BackupID = b.ID
		result = b

		if e.mirror != nil {
			key := filepath.ToSlash(b.Path)
			if err := e.mirror.upload(ctx, key, archivePath); err != nil {
				log.Printf("backup: s3 mirror upload failed for %s: %v", b.ID, err)
			}
		}
		return nil
	}()
	e.endTask(serverID, task, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CreateSnapshot scans serverDir, materializes it against the base
// snapshot (if any), and persists the result as a hard-link-deduplicated
// backup directory, following spec.md §4.4's two-phase snapshot algorithm.
func (e *Engine) CreateSnapshot(ctx context.Context, serverID, sourceID, serverDir string, baseBackupID, comments string) (*types.Backup, error) {
	task, err := e.beginTask(serverID, types.BackupTaskCreateSnapshot, "")
	if err != nil {
		return nil, err
	}
	var result *types.Backup
	err = func() error {
		newFiles, scanErrs := scanFiles(serverDir)

		var baseFiles map[string]fileInfo
		var baseDir string
		if baseBackupID != "" {
			baseBackup, err := e.store.GetBackup(ctx, baseBackupID)
			if err == nil && baseBackup.Kind == types.BackupKindSnapshot {
				baseDir = filepath.Join(e.cfg.BackupsDir, baseBackup.Path)
				baseFiles, _ = scanFiles(baseDir)
			}
		}

		diff := compareFilesDiff(baseFiles, newFiles)

		stem := newBackupFilename(time.Now(), comments)
		destRel := filepath.Join(sourceID, stem)
		destDir := filepath.Join(e.cfg.BackupsDir, destRel)
		if err := os.MkdirAll(destDir, 0755); err != nil {
			return err
		}

		var errFiles []types.SnapshotErrorFile
		totalFiles, totalSize := 0, int64(0)
		for i, d := range diff {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			e.mu.Lock()
			task.Progress = float64(i+1) / float64(len(diff)+1)
			e.mu.Unlock()

			target := filepath.Join(destDir, filepath.FromSlash(d.Path))
			switch d.Status {
			case types.SnapshotDelete:
				// No filesystem artifact in the new tree.
				continue
			case types.SnapshotCreate, types.SnapshotUpdate:
				if d.Type == types.FileTypeDirectory {
					if err := os.MkdirAll(target, 0755); err != nil {
						errFiles = append(errFiles, types.SnapshotErrorFile{Path: d.Path, Type: types.BackupErrCreateDirectory, Err: err.Error()})
						continue
					}
				} else {
					if err := copySnapshotFile(filepath.Join(serverDir, filepath.FromSlash(d.Path)), target); err != nil {
						errFiles = append(errFiles, types.SnapshotErrorFile{Path: d.Path, Type: types.BackupErrCopyFile, Err: err.Error()})
						continue
					}
				}
			case types.SnapshotLink:
				baseFile := filepath.Join(baseDir, filepath.FromSlash(d.Path))
				if err := linkOrCopy(baseFile, target); err != nil {
					errFiles = append(errFiles, types.SnapshotErrorFile{Path: d.Path, Type: types.BackupErrCreateLink, Err: err.Error()})
					continue
				}
			case types.SnapshotNoChange:
				// Directories only; nothing to diff, just ensure it exists.
				if err := os.MkdirAll(target, 0755); err != nil {
					errFiles = append(errFiles, types.SnapshotErrorFile{Path: d.Path, Type: types.BackupErrCreateDirectory, Err: err.Error()})
					continue
				}
			}
			if d.Type != types.FileTypeDirectory {
				totalFiles++
				totalSize += d.Size
			}
		}
		for path, scanErr := range scanErrs {
			errFiles = append(errFiles, types.SnapshotErrorFile{Path: path, Type: types.BackupErrScan, Err: scanErr.Error()})
		}

		b := &types.Backup{
			ID:         uuid.NewString(),
			ServerID:   serverID,
			Kind:       types.BackupKindSnapshot,
			Comments:   comments,
			Path:       destRel,
			SourceSize: totalSize,
			TotalFiles: totalFiles,
			CreatedAt:  time.Now(),
			PreviousID: baseBackupID,
		}
		if err := e.store.InsertBackup(ctx, b, diff, errFiles); err != nil {
			return err
		}
		task.BackupID = b.ID
		result = b

		if err := writeManifestSidecar(filepath.Join(destDir, manifestSidecarName), diff); err != nil {
			log.Printf("backup: manifest sidecar write failed for %s: %v", b.ID, err)
		}
		return nil
	}()
	e.endTask(serverID, task, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Restore restores backup into targetDir, clearing it first. FULL backups
// are stream-extracted after inferring the top-level server directory
// inside the archive; SNAPSHOT backups are copy-materialized (never
// hard-linked into the live tree).
func (e *Engine) Restore(ctx context.Context, serverID string, backup *types.Backup, targetDir string) error {
	task, err := e.beginTask(serverID, types.BackupTaskRestore, backup.ID)
	if err != nil {
		return err
	}
	err = func() error {
		switch backup.Kind {
		case types.BackupKindFull:
			return e.restoreFull(ctx, backup, targetDir)
		case types.BackupKindSnapshot:
			return e.restoreSnapshot(ctx, backup, targetDir)
		default:
			return fmt.Errorf("unknown backup kind %q", backup.Kind)
		}
	}()
	e.endTask(serverID, task, err)
	return err
}

func (e *Engine) restoreFull(ctx context.Context, backup *types.Backup, targetDir string) error {
	archivePath := filepath.Join(e.cfg.BackupsDir, backup.Path)
	helper, err := archive.BySuffix(backup.Suffix)
	if err != nil {
		helper, err = archive.DetectBySuffix(archivePath)
		if err != nil {
			return err
		}
	}

	entries, err := helper.ListArchive(ctx, archivePath)
	if err != nil {
		return err
	}
	prefix := longestCommonDirPrefix(entries)

	// Extract into a private staging directory next to targetDir rather
	// than directly into its parent: the archive's inferred top-level
	// name can coincide with an unrelated sibling server directory, and
	// extracting straight into the shared parent would merge into (and
	// the final rename would clobber) whatever already lives there.
	parent := filepath.Dir(targetDir)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return err
	}
	staging, err := os.MkdirTemp(parent, ".restore-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(staging)

	if err := helper.ExtractArchive(ctx, archivePath, staging, nil); err != nil {
		return err
	}

	source := staging
	if prefix != "" {
		source = filepath.Join(staging, prefix)
	}

	if err := os.RemoveAll(targetDir); err != nil {
		return err
	}
	if err := os.Rename(source, targetDir); err != nil {
		return err
	}

	for _, f := range entries {
		if prefix != "" && !hasPathPrefix(f.Filename, prefix) {
			log.Printf("backup: restore: stray top-level entry outside inferred directory: %s", f.Filename)
		}
	}
	return nil
}

func (e *Engine) restoreSnapshot(ctx context.Context, backup *types.Backup, targetDir string) error {
	snapshotDir := filepath.Join(e.cfg.BackupsDir, backup.Path)
	manifest, err := e.store.GetSnapshotManifest(ctx, backup.ID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return err
	}

	wanted := map[string]bool{}
	for _, f := range manifest {
		if f.Status == types.SnapshotDelete {
			continue
		}
		wanted[f.Path] = true
		target := filepath.Join(targetDir, filepath.FromSlash(f.Path))
		if f.Type == types.FileTypeDirectory {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}
		src := filepath.Join(snapshotDir, filepath.FromSlash(f.Path))
		if err := copySnapshotFile(src, target); err != nil {
			return err
		}
	}

	existing, _ := scanFiles(targetDir)
	for path := range existing {
		if !wanted[path] {
			os.RemoveAll(filepath.Join(targetDir, filepath.FromSlash(path)))
		}
	}
	return nil
}

// Delete removes a backup's DB row (and its snapshot manifest, via
// cascading foreign keys) in one transaction, then best-effort removes
// the on-disk artifact. DB-first ordering means a filesystem error here
// is logged, not fatal — it still leaves a consistent database.
func (e *Engine) Delete(ctx context.Context, backupID string) error {
	b, err := e.store.GetBackup(ctx, backupID)
	if err != nil {
		return err
	}
	if err := e.store.DeleteBackup(ctx, backupID); err != nil {
		return err
	}
	target := filepath.Join(e.cfg.BackupsDir, b.Path)
	if err := os.RemoveAll(target); err != nil {
		log.Printf("backup: delete: failed to remove artifact %s: %v", target, err)
	}
	return nil
}

// Trash soft-deletes a backup by flagging its DB row. The artifact is not
// moved into cfg.BackupsDir/.trash; it stays where it is until the trash
// janitor permanently deletes the backup once TrashRetentionHours elapses.
func (e *Engine) Trash(ctx context.Context, backupID string) error {
	if err := e.store.SetBackupTrashed(ctx, backupID, true); err != nil {
		return err
	}
	return nil
}

// RunTrashJanitor permanently deletes backups that have been trashed for
// longer than cfg.TrashRetentionHours. Intended to be run periodically
// (e.g. from a ticker in cmd/swid).
func (e *Engine) RunTrashJanitor(ctx context.Context) error {
	cutoff := time.Now().Add(-time.Duration(e.cfg.TrashRetentionHours) * time.Hour)
	trashed, err := e.store.ListTrashedBackups(ctx, cutoff)
	if err != nil {
		return err
	}
	for _, b := range trashed {
		if err := e.Delete(ctx, b.ID); err != nil {
			log.Printf("backup: trash janitor: failed to delete %s: %v", b.ID, err)
		}
	}
	return nil
}

// Compare diffs two backups' file manifests, matching
// create_backups_compare_result in the original implementation.
func (e *Engine) Compare(ctx context.Context, oldBackupID, newBackupID string, onlyUpdates bool) (types.CompareResult, error) {
	oldFiles, err := e.backupFileInfo(ctx, oldBackupID)
	if err != nil {
		return types.CompareResult{}, err
	}
	newFiles, err := e.backupFileInfo(ctx, newBackupID)
	if err != nil {
		return types.CompareResult{}, err
	}
	diff := compareFilesDiff(oldFiles, newFiles)
	if onlyUpdates {
		diff = filterUpdatesOnly(diff)
	}
	return types.CompareResult{Files: diff}, nil
}

// Preview diffs a server's live directory against its latest snapshot
// (if any), matching backup_preview(server, snapshot=true) without
// persisting anything.
func (e *Engine) Preview(ctx context.Context, serverDir string, baseBackupID string, onlyUpdates bool) (types.CompareResult, error) {
	newFiles, _ := scanFiles(serverDir)
	var oldFiles map[string]fileInfo
	if baseBackupID != "" {
		var err error
		oldFiles, err = e.backupFileInfo(ctx, baseBackupID)
		if err != nil {
			return types.CompareResult{}, err
		}
	}
	diff := compareFilesDiff(oldFiles, newFiles)
	if onlyUpdates {
		diff = filterUpdatesOnly(diff)
	}
	return types.CompareResult{Files: diff}, nil
}

// Verify checks that every non-deleted entry of a snapshot's manifest
// still exists in the snapshot directory, turning any missing path into
// an EXISTS_CHECK error — the
// check_files=true path of backup_files_compare in the original
// implementation.
func (e *Engine) Verify(ctx context.Context, backupID string) (types.CompareResult, error) {
	b, err := e.store.GetBackup(ctx, backupID)
	if err != nil {
		return types.CompareResult{}, err
	}
	manifest, err := e.store.GetSnapshotManifest(ctx, backupID)
	if err != nil {
		return types.CompareResult{}, err
	}
	snapshotDir := filepath.Join(e.cfg.BackupsDir, b.Path)

	var errs []types.SnapshotErrorFile
	var files []types.SnapshotFile
	for _, f := range manifest {
		if f.Status == types.SnapshotDelete {
			continue
		}
		real := filepath.Join(snapshotDir, filepath.FromSlash(f.Path))
		if _, err := os.Stat(real); err != nil {
			errs = append(errs, types.SnapshotErrorFile{Path: f.Path, Type: types.BackupErrExistsCheck, Err: err.Error()})
			continue
		}
		files = append(files, f)
	}
	return types.CompareResult{Files: files, Errors: errs}, nil
}

func (e *Engine) backupFileInfo(ctx context.Context, backupID string) (map[string]fileInfo, error) {
	b, err := e.store.GetBackup(ctx, backupID)
	if err != nil {
		return nil, err
	}
	if b.Kind == types.BackupKindSnapshot {
		manifest, err := e.store.GetSnapshotManifest(ctx, backupID)
		if err != nil {
			return nil, err
		}
		out := map[string]fileInfo{}
		for _, f := range manifest {
			if f.Status == types.SnapshotDelete {
				continue
			}
			out[f.Path] = fileInfo{size: f.Size, modTime: f.ModifiedAt, isDir: f.Type == types.FileTypeDirectory}
		}
		return out, nil
	}

	archivePath := filepath.Join(e.cfg.BackupsDir, b.Path)
	helper, err := archive.BySuffix(b.Suffix)
	if err != nil {
		return nil, err
	}
	entries, err := helper.ListArchive(ctx, archivePath)
	if err != nil {
		return nil, err
	}
	out := map[string]fileInfo{}
	for _, f := range entries {
		size := int64(0)
		if f.Size != nil {
			size = *f.Size
		}
		var mod time.Time
		if f.ModifiedAt != nil {
			mod = *f.ModifiedAt
		}
		out[f.Filename] = fileInfo{size: size, modTime: mod, isDir: f.IsDir}
	}
	return out, nil
}

func filterUpdatesOnly(diff []types.SnapshotFile) []types.SnapshotFile {
	out := make([]types.SnapshotFile, 0, len(diff))
	for _, d := range diff {
		if d.Status > types.SnapshotNoChange { // UPDATE, CREATE, LINK — not DELETE or NO_CHANGE
			out = append(out, d)
		}
	}
	return out
}

func copySnapshotFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

func linkOrCopy(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	if err := os.Link(src, dst); err != nil {
		return copySnapshotFile(src, dst)
	}
	return nil
}

// longestCommonDirPrefix infers the server directory's name inside a FULL
// backup archive by finding the longest shared top-level path segment
// across every entry, per spec.md §4.4's restore semantics.
func longestCommonDirPrefix(entries []types.ArchiveFile) string {
	if len(entries) == 0 {
		return ""
	}
	var prefix string
	for i, e := range entries {
		top := firstSegment(e.Filename)
		if i == 0 {
			prefix = top
			continue
		}
		if top != prefix {
			return ""
		}
	}
	return prefix
}

func firstSegment(path string) string {
	for i, r := range path {
		if r == '/' {
			return path[:i]
		}
	}
	return path
}

func hasPathPrefix(path, prefix string) bool {
	return path == prefix || len(path) > len(prefix) && path[:len(prefix)+1] == prefix+"/"
}
