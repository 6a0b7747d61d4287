package vfs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dncore/swi/internal/archive"
	"github.com/dncore/swi/internal/events"
	"github.com/dncore/swi/pkg/types"
)

// Manager tracks in-flight file tasks (copy/move/delete/extract/make-archive ops)
// and publishes FileTaskStart/FileTaskEnd so the API layer's WebSocket
// fan-out and the file browser's progress bar can observe them, mirroring
// FileManager.create_task in the original implementation.
type Manager struct {
	bus      *events.Bus
	nextID   int64
	mu       sync.Mutex
	tasks    map[int64]*types.FileTask
}

// NewManager creates a task manager that publishes onto bus.
func NewManager(bus *events.Bus) *Manager {
	return &Manager{bus: bus, tasks: map[int64]*types.FileTask{}}
}

func (m *Manager) register(serverID string, kind types.TaskType, src, dst string) *types.FileTask {
	id := atomic.AddInt64(&m.nextID, 1)
	task := &types.FileTask{
		ID:        id,
		ServerID:  serverID,
		Type:      kind,
		SrcPath:   src,
		DstPath:   dst,
		Status:    types.TaskPending,
		StartedAt: time.Now(),
	}
	m.mu.Lock()
	m.tasks[id] = task
	m.mu.Unlock()
	m.bus.Publish(events.FileTaskStart{Task: *task})
	return task
}

func (m *Manager) finish(task *types.FileTask, err error) {
	now := time.Now()
	m.mu.Lock()
	task.FinishedAt = &now
	if err != nil {
		task.Status = types.TaskFailed
		task.Error = err.Error()
	} else {
		task.Status = types.TaskCompleted
		task.Progress = 1
	}
	m.mu.Unlock()
	m.bus.Publish(events.FileTaskEnd{Task: *task})
}

func (m *Manager) run(task *types.FileTask, do func() error) *types.FileTask {
	m.mu.Lock()
	task.Status = types.TaskRunning
	m.mu.Unlock()
	go func() {
		err := do()
		m.finish(task, err)
	}()
	return task
}

// Task returns a snapshot of a tracked task by id.
func (m *Manager) Task(id int64) (types.FileTask, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return types.FileTask{}, false
	}
	return *t, true
}

// Tasks returns a snapshot of every task the manager has ever registered.
func (m *Manager) Tasks() []types.FileTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.FileTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, *t)
	}
	return out
}

// Copy copies a single file within root, as a tracked async task.
func (m *Manager) Copy(root *Root, serverID, srcVirtual, dstVirtual string) (*types.FileTask, error) {
	src, err := root.Resolve(srcVirtual)
	if err != nil {
		return nil, err
	}
	dst, err := root.Resolve(dstVirtual)
	if err != nil {
		return nil, err
	}
	task := m.register(serverID, types.TaskCopy, srcVirtual, dstVirtual)
	return m.run(task, func() error {
		return copyFile(src, dst)
	}), nil
}

// Move renames/moves a file or directory within root, as a tracked
// async task.
func (m *Manager) Move(root *Root, serverID, srcVirtual, dstVirtual string) (*types.FileTask, error) {
	src, err := root.Resolve(srcVirtual)
	if err != nil {
		return nil, err
	}
	dst, err := root.Resolve(dstVirtual)
	if err != nil {
		return nil, err
	}
	task := m.register(serverID, types.TaskMove, srcVirtual, dstVirtual)
	return m.run(task, func() error {
		if err := touchParent(dst); err != nil {
			return err
		}
		if err := os.Rename(src, dst); err != nil {
			// Cross-device rename: fall back to copy+remove.
			if copyErr := copyTree(src, dst); copyErr != nil {
				return copyErr
			}
			return os.RemoveAll(src)
		}
		return nil
	}), nil
}

// Delete removes a file or directory within root, as a tracked async task.
func (m *Manager) Delete(root *Root, serverID, srcVirtual string) (*types.FileTask, error) {
	src, err := root.Resolve(srcVirtual)
	if err != nil {
		return nil, err
	}
	task := m.register(serverID, types.TaskDelete, srcVirtual, "")
	return m.run(task, func() error {
		return os.RemoveAll(src)
	}), nil
}

// MakeArchive archives the given virtual entries (nil means everything
// under root) into dstVirtual using the helper for suffix.
func (m *Manager) MakeArchive(root *Root, serverID, dstVirtual string, entries []string, helper archive.Helper) (*types.FileTask, error) {
	dst, err := root.Resolve(dstVirtual)
	if err != nil {
		return nil, err
	}
	task := m.register(serverID, types.TaskMakeArchive, root.Base(), dstVirtual)
	return m.run(task, func() error {
		return helper.MakeArchive(context.Background(), dst, root.Base(), entries, func(p types.ArchiveProgress) {
			m.mu.Lock()
			task.Progress = p.Progress
			m.mu.Unlock()
		})
	}), nil
}

// ExtractArchive extracts srcVirtual (an archive) into dstVirtual using
// the helper for its suffix.
func (m *Manager) ExtractArchive(root *Root, serverID, srcVirtual, dstVirtual string, helper archive.Helper) (*types.FileTask, error) {
	src, err := root.Resolve(srcVirtual)
	if err != nil {
		return nil, err
	}
	dst, err := root.Resolve(dstVirtual)
	if err != nil {
		return nil, err
	}
	task := m.register(serverID, types.TaskExtract, srcVirtual, dstVirtual)
	return m.run(task, func() error {
		if err := os.MkdirAll(dst, 0755); err != nil {
			return err
		}
		return helper.ExtractArchive(context.Background(), src, dst, func(p types.ArchiveProgress) {
			m.mu.Lock()
			task.Progress = p.Progress
			m.mu.Unlock()
		})
	}), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := touchParent(dst); err != nil {
		return err
	}
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

func copyTree(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return copyFile(src, dst)
	}
	if err := os.MkdirAll(dst, info.Mode()); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := copyTree(filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
