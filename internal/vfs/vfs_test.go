package vfs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dncore/swi/internal/events"
	"github.com/dncore/swi/pkg/types"
)

func TestRootResolveRejectsEscape(t *testing.T) {
	r, err := NewRoot(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Resolve("../../etc/passwd"); err == nil {
		t.Error("expected escape to be rejected")
	}
	if _, err := r.Resolve("/world/level.dat"); err != nil {
		t.Errorf("expected ordinary path to resolve, got %v", err)
	}
}

func TestRootVirtualPathRoundTrip(t *testing.T) {
	base := t.TempDir()
	r, err := NewRoot(base)
	if err != nil {
		t.Fatal(err)
	}
	real, err := r.Resolve("/a/b.txt")
	if err != nil {
		t.Fatal(err)
	}
	virtual, err := r.VirtualPath(real)
	if err != nil {
		t.Fatal(err)
	}
	if virtual != "/a/b.txt" {
		t.Errorf("VirtualPath = %q, want /a/b.txt", virtual)
	}
}

func TestRootListAndStat(t *testing.T) {
	base := t.TempDir()
	r, err := NewRoot(base)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(base, "hello.txt"), []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}
	entries, err := r.List("/")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name != "hello.txt" {
		t.Fatalf("List = %+v", entries)
	}

	info, err := r.Stat("/hello.txt")
	if err != nil {
		t.Fatal(err)
	}
	if info.Size != 2 || info.IsDir {
		t.Errorf("Stat = %+v", info)
	}
}

func TestManagerCopyPublishesStartAndEnd(t *testing.T) {
	base := t.TempDir()
	r, err := NewRoot(base)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(base, "src.txt"), []byte("payload"), 0644); err != nil {
		t.Fatal(err)
	}

	bus := events.New()
	started := make(chan struct{}, 1)
	ended := make(chan types.FileTask, 1)
	events.Subscribe(bus, events.PriorityNormal, func(e events.FileTaskStart) {
		started <- struct{}{}
	})
	events.Subscribe(bus, events.PriorityNormal, func(e events.FileTaskEnd) {
		ended <- e.Task
	})

	m := NewManager(bus)
	task, err := m.Copy(r, "", "/src.txt", "/dst.txt")
	if err != nil {
		t.Fatal(err)
	}
	if task.Type != types.TaskCopy {
		t.Errorf("task.Type = %v, want copy", task.Type)
	}

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for FileTaskStart")
	}

	var final types.FileTask
	select {
	case final = <-ended:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for FileTaskEnd")
	}
	if final.Status != types.TaskCompleted {
		t.Errorf("final status = %v, want completed (error: %s)", final.Status, final.Error)
	}

	got, err := os.ReadFile(filepath.Join(base, "dst.txt"))
	if err != nil {
		t.Fatalf("dst.txt not written: %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("dst.txt = %q, want payload", got)
	}
}

func TestManagerDelete(t *testing.T) {
	base := t.TempDir()
	r, err := NewRoot(base)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(base, "gone.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	bus := events.New()
	ended := make(chan types.FileTask, 1)
	events.Subscribe(bus, events.PriorityNormal, func(e events.FileTaskEnd) {
		ended <- e.Task
	})

	m := NewManager(bus)
	if _, err := m.Delete(r, "", "/gone.txt"); err != nil {
		t.Fatal(err)
	}

	select {
	case final := <-ended:
		if final.Status != types.TaskCompleted {
			t.Errorf("status = %v, want completed", final.Status)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delete to finish")
	}

	if _, err := os.Stat(filepath.Join(base, "gone.txt")); !os.IsNotExist(err) {
		t.Errorf("expected gone.txt to be removed, stat err = %v", err)
	}
}
