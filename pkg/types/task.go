package types

import "time"

// TaskType distinguishes the kind of work a FileTask tracks.
type TaskType string

const (
	TaskCopy       TaskType = "copy"
	TaskMove       TaskType = "move"
	TaskDelete     TaskType = "delete"
	TaskExtract    TaskType = "extract"
	TaskMakeArchive TaskType = "make_archive"
)

// TaskStatus is the lifecycle of a tracked async file/backup task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

// FileTask is a registered, monotonically-id'd unit of async file work
// (copy/move/delete/extract/make-archive), polled or watched over the
// WebSocket fan-out.
type FileTask struct {
	ID         int64      `json:"id"`
	ServerID   string     `json:"serverId,omitempty"`
	Type       TaskType   `json:"type"`
	SrcPath    string     `json:"srcPath"`
	DstPath    string     `json:"dstPath,omitempty"`
	Status     TaskStatus `json:"status"`
	Progress   float64    `json:"progress"`
	Result     string     `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// BackupTaskKind is the backup engine operation a BackupTask tracks.
type BackupTaskKind string

const (
	BackupTaskCreateFull     BackupTaskKind = "create_full"
	BackupTaskCreateSnapshot BackupTaskKind = "create_snapshot"
	BackupTaskRestore        BackupTaskKind = "restore"
	BackupTaskVerify         BackupTaskKind = "verify"
	BackupTaskDelete         BackupTaskKind = "delete"
)

// BackupTask tracks one in-flight backup-engine operation.
type BackupTask struct {
	ID         int64          `json:"id"`
	ServerID   string         `json:"serverId"`
	BackupID   string         `json:"backupId,omitempty"`
	Kind       BackupTaskKind `json:"kind"`
	Status     TaskStatus     `json:"status"`
	Progress   float64        `json:"progress"`
	Error      string         `json:"error,omitempty"`
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt *time.Time     `json:"finishedAt,omitempty"`
}
