package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dncore/swi/pkg/types"
)

// InsertBackup persists a new backup record along with its snapshot file
// manifest and error list (both may be empty for a FULL backup).
func (s *Store) InsertBackup(ctx context.Context, b *types.Backup, files []types.SnapshotFile, errs []types.SnapshotErrorFile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var previousID sql.NullString
	if b.PreviousID != "" {
		previousID = sql.NullString{String: b.PreviousID, Valid: true}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO backups (id, server_id, kind, comments, path, suffix, source_size, total_files, previous_id, created_at, trashed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		b.ID, b.ServerID, string(b.Kind), b.Comments, b.Path, b.Suffix, b.SourceSize, b.TotalFiles, previousID,
		b.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}

	fileStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO snapshot_files (backup_id, path, type, status, size, modified_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer fileStmt.Close()
	for _, f := range files {
		if _, err := fileStmt.ExecContext(ctx, b.ID, f.Path, int(f.Type), int(f.Status), f.Size, f.ModifiedAt.UTC().Format(time.RFC3339)); err != nil {
			return err
		}
	}

	errStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO snapshot_errors (backup_id, path, error_type, message) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer errStmt.Close()
	for _, e := range errs {
		if _, err := errStmt.ExecContext(ctx, b.ID, e.Path, int(e.Type), e.Err); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetBackup loads a single backup record by id.
func (s *Store) GetBackup(ctx context.Context, id string) (*types.Backup, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, server_id, kind, comments, path, suffix, source_size, total_files, previous_id, created_at, trashed, trashed_at
		 FROM backups WHERE id = ?`, id)
	return scanBackup(row)
}

// ListBackups returns every non-trashed backup for a server, newest first.
func (s *Store) ListBackups(ctx context.Context, serverID string) ([]*types.Backup, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, server_id, kind, comments, path, suffix, source_size, total_files, previous_id, created_at, trashed, trashed_at
		 FROM backups WHERE server_id = ? AND trashed = 0 ORDER BY created_at DESC`, serverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBackups(rows)
}

// ListTrashedBackups returns trashed backups older than olderThan, used
// by the trash janitor to find candidates for permanent deletion.
func (s *Store) ListTrashedBackups(ctx context.Context, olderThan time.Time) ([]*types.Backup, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, server_id, kind, comments, path, suffix, source_size, total_files, previous_id, created_at, trashed, trashed_at
		 FROM backups WHERE trashed = 1 AND trashed_at < ?`, olderThan.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBackups(rows)
}

// SetBackupTrashed flips a backup's soft-delete flag.
func (s *Store) SetBackupTrashed(ctx context.Context, id string, trashed bool) error {
	if trashed {
		_, err := s.db.ExecContext(ctx, `UPDATE backups SET trashed = 1, trashed_at = ? WHERE id = ?`,
			time.Now().UTC().Format(time.RFC3339), id)
		return err
	}
	_, err := s.db.ExecContext(ctx, `UPDATE backups SET trashed = 0, trashed_at = NULL WHERE id = ?`, id)
	return err
}

// DeleteBackup permanently removes a backup record (snapshot_files/errors
// cascade via foreign keys). It does not touch the backup's files on
// disk; Engine.Delete removes those after this call succeeds.
func (s *Store) DeleteBackup(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM backups WHERE id = ?`, id)
	return err
}

// GetSnapshotManifest returns the file manifest recorded for a snapshot backup.
func (s *Store) GetSnapshotManifest(ctx context.Context, backupID string) ([]types.SnapshotFile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, type, status, size, modified_at FROM snapshot_files WHERE backup_id = ? ORDER BY path`, backupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.SnapshotFile
	for rows.Next() {
		var f types.SnapshotFile
		var typ, status int
		var modifiedAt string
		if err := rows.Scan(&f.Path, &typ, &status, &f.Size, &modifiedAt); err != nil {
			return nil, err
		}
		f.Type = types.FileType(typ)
		f.Status = types.SnapshotStatus(status)
		if t, err := time.Parse(time.RFC3339, modifiedAt); err == nil {
			f.ModifiedAt = t
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func scanBackup(row *sql.Row) (*types.Backup, error) {
	var b types.Backup
	var suffix, previousID, trashedAt sql.NullString
	var kind, createdAt string
	var trashedInt int
	if err := row.Scan(&b.ID, &b.ServerID, &kind, &b.Comments, &b.Path, &suffix, &b.SourceSize, &b.TotalFiles,
		&previousID, &createdAt, &trashedInt, &trashedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	applyBackupScan(&b, kind, suffix, previousID, createdAt, trashedInt, trashedAt)
	return &b, nil
}

func scanBackups(rows *sql.Rows) ([]*types.Backup, error) {
	var out []*types.Backup
	for rows.Next() {
		var b types.Backup
		var suffix, previousID, trashedAt sql.NullString
		var kind, createdAt string
		var trashedInt int
		if err := rows.Scan(&b.ID, &b.ServerID, &kind, &b.Comments, &b.Path, &suffix, &b.SourceSize, &b.TotalFiles,
			&previousID, &createdAt, &trashedInt, &trashedAt); err != nil {
			return nil, err
		}
		applyBackupScan(&b, kind, suffix, previousID, createdAt, trashedInt, trashedAt)
		out = append(out, &b)
	}
	return out, rows.Err()
}

func applyBackupScan(b *types.Backup, kind string, suffix, previousID sql.NullString, createdAt string, trashedInt int, trashedAt sql.NullString) {
	b.Kind = types.BackupKind(kind)
	b.Suffix = suffix.String
	b.PreviousID = previousID.String
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		b.CreatedAt = t
	}
	b.Trashed = trashedInt != 0
	if trashedAt.Valid {
		if t, err := time.Parse(time.RFC3339, trashedAt.String); err == nil {
			b.TrashedAt = &t
		}
	}
}
