package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dncore/swi/pkg/types"
)

// pendingDeadline is how long a handler awaits a long-running file/backup
// task before falling back to a PENDING response (spec §4.7: "~1 s").
const pendingDeadline = time.Second

// pendingResponse is the body returned when a task outlives the deadline;
// clients poll /file/tasks or consume the matching WebSocket end event.
type pendingResponse struct {
	Result string `json:"result"`
	TaskID int64  `json:"taskId"`
}

// awaitOrPending waits up to pendingDeadline for done to close; the
// caller has already started the task identified by taskID. If done
// closes in time, the response is written via onDone; otherwise a {result: PENDING, task_id} response is written and the
// task is left running in its own goroutine.
func awaitOrPending(c echo.Context, taskID int64, done <-chan struct{}, onDone func() error) error {
	select {
	case <-done:
		return onDone()
	case <-time.After(pendingDeadline):
		return c.JSON(http.StatusAccepted, pendingResponse{Result: "PENDING", TaskID: taskID})
	case <-c.Request().Context().Done():
		return c.JSON(http.StatusRequestTimeout, apiError{Code: "REQUEST_CANCELLED", Error: "client disconnected"})
	}
}

// fileTaskPoller is the subset of *vfs.Manager awaitFileTask needs.
type fileTaskPoller interface {
	Task(id int64) (types.FileTask, bool)
}

// awaitFileTask polls mgr for task to leave TaskRunning/TaskPending, up to
// pendingDeadline, since the file manager registers and runs tasks on its
// own goroutine rather than handing back a completion channel.
func awaitFileTask(c echo.Context, mgr fileTaskPoller, task *types.FileTask) error {
	deadline := time.Now().Add(pendingDeadline)
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		cur, ok := mgr.Task(task.ID)
		if !ok {
			cur = *task
		}
		if cur.Status != types.TaskPending && cur.Status != types.TaskRunning {
			if cur.Status == types.TaskFailed {
				return c.JSON(http.StatusInternalServerError, apiError{Code: "INTERNAL_ERROR", Error: cur.Error})
			}
			return c.JSON(http.StatusOK, cur)
		}
		if time.Now().After(deadline) {
			return c.JSON(http.StatusAccepted, pendingResponse{Result: "PENDING", TaskID: task.ID})
		}
		select {
		case <-ticker.C:
		case <-c.Request().Context().Done():
			return c.JSON(http.StatusRequestTimeout, apiError{Code: "REQUEST_CANCELLED", Error: "client disconnected"})
		}
	}
}

// backupTaskLookup resolves the currently-running backup task id for a
// server, used only to label a PENDING response — the engine itself
// tracks the task.
type backupTaskLookup func(serverID string) (id int64, ok bool)

// runBackupTask runs op in its own goroutine (since the backup engine's
// blocking calls aren't otherwise cancellable mid-flight) and applies
// the await-or-PENDING pattern. Because the engine registers its own
// task id internally (beginTask, on the goroutine, after op starts),
// the PENDING id is recovered via lookup rather than pre-allocated.
func runBackupTask(c echo.Context, serverID string, lookup backupTaskLookup, op func(ctx context.Context) (any, error)) error {
	done := make(chan struct{})
	var result any
	var opErr error
	go func() {
		defer close(done)
		result, opErr = op(context.Background())
	}()

	select {
	case <-done:
		if opErr != nil {
			return writeError(c, opErr)
		}
		return c.JSON(http.StatusOK, result)
	case <-time.After(pendingDeadline):
		var taskID int64
		if id, ok := lookup(serverID); ok {
			taskID = id
		}
		return c.JSON(http.StatusAccepted, pendingResponse{Result: "PENDING", TaskID: taskID})
	case <-c.Request().Context().Done():
		return c.JSON(http.StatusRequestTimeout, apiError{Code: "REQUEST_CANCELLED", Error: "client disconnected"})
	}
}
