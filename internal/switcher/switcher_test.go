package switcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dncore/swi/internal/config"
	"github.com/dncore/swi/internal/events"
	"github.com/dncore/swi/pkg/types"
)

func newTestSwitcher(t *testing.T) *Switcher {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.RootDirectory = root
	cfg.Backup.BackupsDirectory = filepath.Join(t.TempDir(), "backups")
	cfgPath := filepath.Join(t.TempDir(), "swi.yml")

	s, err := Bootstrap(context.Background(), cfg, cfgPath, filepath.Join(t.TempDir(), "swi.db"), events.New())
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	t.Cleanup(func() { s.Store.Close() })
	return s
}

func TestCreateRejectsExistingDirectoryAndDuplicateID(t *testing.T) {
	s := newTestSwitcher(t)
	sc := &types.ServerConfig{Name: "box", Type: types.ServerTypeVanilla}

	if _, err := s.Create("box", "box", sc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create("box", "box2", sc); err != ErrAlreadyRegistered {
		t.Errorf("expected ErrAlreadyRegistered, got %v", err)
	}
	if _, err := s.Create("box2", "box", sc); err != ErrDirectoryExists {
		t.Errorf("expected ErrDirectoryExists, got %v", err)
	}

	if _, ok := s.cfg.Servers["box"]; !ok {
		t.Error("expected server persisted into global config")
	}
}

func TestImportRequiresExistingConfig(t *testing.T) {
	s := newTestSwitcher(t)

	if _, err := s.Import("nope", "missing-dir"); err == nil {
		t.Error("expected Import to fail for a directory without swi.server.yml")
	}

	dir := filepath.Join(s.ServersRoot.Base(), "existing")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	sc := types.ServerConfig{Name: "existing", Type: types.ServerTypePaper}
	if err := config.SaveServerConfig(dir, &sc); err != nil {
		t.Fatal(err)
	}

	srv, err := s.Import("existing", "existing")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if srv.Config().Type != types.ServerTypePaper {
		t.Errorf("imported config type = %v", srv.Config().Type)
	}
}

func TestDeleteRemovesStoppedServerFromRegistryAndConfig(t *testing.T) {
	s := newTestSwitcher(t)
	sc := &types.ServerConfig{Name: "box", Type: types.ServerTypeVanilla}
	srv, err := s.Create("box", "box", sc)
	if err != nil {
		t.Fatal(err)
	}

	if srv.State() != types.StateStopped {
		t.Fatalf("freshly created server state = %s, want STOPPED", srv.State())
	}
	if err := s.Delete("box", false); err != nil {
		t.Fatalf("Delete of a stopped server should succeed: %v", err)
	}
	if _, ok := s.Get("box"); ok {
		t.Error("expected server removed from registry")
	}
	if _, ok := s.cfg.Servers["box"]; ok {
		t.Error("expected server removed from global config")
	}
}

func TestStartRejectsPendingBuildUnlessNoBuild(t *testing.T) {
	s := newTestSwitcher(t)
	sc := &types.ServerConfig{
		Name: "box",
		Type: types.ServerTypeForge,
		Installer: types.ServerInstallerInfo{
			Type: types.ServerTypeForge, MCVersion: "1.20.4", RequireBuild: true,
		},
	}
	srv, err := s.Create("box", "box", sc)
	if err != nil {
		t.Fatal(err)
	}

	err = srv.Start(context.Background(), s.cfg, s.Java, false)
	if err != ErrBuildPending {
		t.Errorf("expected ErrBuildPending, got %v", err)
	}
}

func TestStartFailsCleanlyOnUnresolvedJavaPreset(t *testing.T) {
	s := newTestSwitcher(t)
	sc := &types.ServerConfig{Name: "box", Type: types.ServerTypeVanilla}
	srv, err := s.Create("box", "box", sc)
	if err != nil {
		t.Fatal(err)
	}

	// The "default" preset isn't registered and nothing was auto-detected
	// in a fresh registry, so this should fail resolution before ever
	// touching the process state machine.
	if err := srv.Start(context.Background(), s.cfg, s.Java, false); err == nil {
		t.Error("expected Start to fail resolving an unconfigured java preset")
	}
	if srv.State() != types.StateStopped {
		t.Errorf("state after failed resolve = %s, want STOPPED", srv.State())
	}
}
