package events

import "github.com/dncore/swi/pkg/types"

// ServerPreStart fires before a server's launch command is computed.
// Handlers receive a copy of the event, so a Cancel set inside a handler
// does not reach the publisher and does not stop the launch.
type ServerPreStart struct {
	ServerID string
	Cancel   error
}

func (ServerPreStart) EventName() string { return "server_pre_start" }

// ServerLaunchOptionBuild fires once the effective launch option and
// argv have been computed, immediately before the process is spawned.
type ServerLaunchOptionBuild struct {
	ServerID string
	Argv     []string
}

func (ServerLaunchOptionBuild) EventName() string { return "server_launch_option_build" }

// ServerChangeState fires on every state-machine transition.
type ServerChangeState struct {
	ServerID string
	Old      types.ServerState
	New      types.ServerState
}

func (ServerChangeState) EventName() string { return "server_change_state" }

// ServerProcessRead fires once per line read from a server's PTY stdout.
type ServerProcessRead struct {
	ServerID string
	Line     string
}

func (ServerProcessRead) EventName() string { return "server_process_read" }

// ServerProcessEnded fires when a server's child process exits, whether
// cleanly or not.
type ServerProcessEnded struct {
	ServerID string
	ExitCode int
	Crashed  bool
}

func (ServerProcessEnded) EventName() string { return "server_process_ended" }

// FileTaskStart fires when a file/backup task is registered.
type FileTaskStart struct {
	Task types.FileTask
}

func (FileTaskStart) EventName() string { return "file_task_start" }

// FileTaskEnd fires when a file/backup task completes, fails, or is
// cancelled.
type FileTaskEnd struct {
	Task types.FileTask
}

func (FileTaskEnd) EventName() string { return "file_task_end" }

// BackupTaskStart fires when a backup engine operation begins.
type BackupTaskStart struct {
	Task types.BackupTask
}

func (BackupTaskStart) EventName() string { return "backup_task_start" }

// BackupTaskEnd fires when a backup engine operation completes.
type BackupTaskEnd struct {
	Task types.BackupTask
}

func (BackupTaskEnd) EventName() string { return "backup_task_end" }

// WatchdogMemoryWarning fires when a server's launch is blocked by the
// free-memory check. It is not published while a server is running.
type WatchdogMemoryWarning struct {
	ServerID  string
	Required  uint64
	Available uint64
}

func (WatchdogMemoryWarning) EventName() string { return "watchdog_memory_warning" }

// ServerRegistered fires when a server is created, imported, or loaded
// into the registry at startup.
type ServerRegistered struct {
	ServerID string
}

func (ServerRegistered) EventName() string { return "server_registered" }

// ServerUnregistered fires when a server is removed from the registry.
type ServerUnregistered struct {
	ServerID string
}

func (ServerUnregistered) EventName() string { return "server_unregistered" }
