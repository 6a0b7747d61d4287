package types

import "time"

// BackupKind distinguishes a single-archive full backup from a
// hard-link-deduplicated snapshot.
type BackupKind string

const (
	BackupKindFull     BackupKind = "full"
	BackupKindSnapshot BackupKind = "snapshot"
)

// Backup is a persisted backup record (stored in internal/db).
type Backup struct {
	ID         string     `json:"id"`
	ServerID   string     `json:"serverId"`
	Kind       BackupKind `json:"kind"`
	Comments   string     `json:"comments,omitempty"`
	Path       string     `json:"path"`
	Suffix     string     `json:"suffix,omitempty"` // archive format, full-backup only
	SourceSize int64      `json:"sourceSize"`
	TotalFiles int        `json:"totalFiles"`
	CreatedAt  time.Time  `json:"createdAt"`
	PreviousID string     `json:"previousId,omitempty"` // snapshot base backup, if any
	Trashed    bool       `json:"trashed"`
	TrashedAt  *time.Time `json:"trashedAt,omitempty"`
}

// SnapshotStatus is the per-file disposition computed when a snapshot is
// materialized against its base.
type SnapshotStatus int

const (
	SnapshotDelete   SnapshotStatus = -1
	SnapshotNoChange SnapshotStatus = 0
	SnapshotUpdate   SnapshotStatus = 1
	SnapshotCreate   SnapshotStatus = 2
	SnapshotLink     SnapshotStatus = 3
)

func (s SnapshotStatus) String() string {
	switch s {
	case SnapshotDelete:
		return "delete"
	case SnapshotUpdate:
		return "update"
	case SnapshotCreate:
		return "create"
	case SnapshotLink:
		return "link"
	default:
		return "no_change"
	}
}

// SnapshotFile is one row of a snapshot's file manifest, recording what
// happened to a path relative to its base snapshot.
type SnapshotFile struct {
	Path       string         `json:"path"`
	Type       FileType       `json:"type"`
	Status     SnapshotStatus `json:"status"`
	Size       int64          `json:"size,omitempty"`
	ModifiedAt time.Time      `json:"modifiedAt,omitempty"`
}

// BackupFileErrorType classifies a failure encountered while materializing
// one file of a snapshot.
type BackupFileErrorType int

const (
	BackupErrUnknown BackupFileErrorType = iota - 1
	BackupErrScan
	BackupErrCreateDirectory
	BackupErrCreateLink
	BackupErrCopyFile
	BackupErrExistsCheck
)

// SnapshotErrorFile records one path that failed during snapshot
// materialization, without aborting the whole operation.
type SnapshotErrorFile struct {
	Path string              `json:"path"`
	Type BackupFileErrorType `json:"type"`
	Err  string              `json:"error"`
}

// BackupSummary is the wire representation of a Backup for list endpoints.
type BackupSummary struct {
	ID         string     `json:"id"`
	ServerID   string     `json:"serverId"`
	Kind       BackupKind `json:"kind"`
	Comments   string     `json:"comments,omitempty"`
	SourceSize int64      `json:"sourceSize"`
	TotalFiles int        `json:"totalFiles"`
	CreatedAt  time.Time  `json:"createdAt"`
	Trashed    bool       `json:"trashed"`
}

// RestoreRequest is the request body for restoring a server from a backup.
type RestoreRequest struct {
	BackupID string `json:"backupId"`
}

// CreateBackupRequest is the request body for creating a new backup.
type CreateBackupRequest struct {
	Kind     BackupKind `json:"kind"`
	Comments string     `json:"comments,omitempty"`
}

// CompareResult is the result of diffing two backups (or a backup against
// the live server tree).
type CompareResult struct {
	Files  []SnapshotFile `json:"files"`
	Errors []SnapshotErrorFile `json:"errors,omitempty"`
}
