package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dncore/swi/pkg/types"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "swi.yml"))
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.RootDirectory != "./minecraft_servers" {
		t.Errorf("expected default root directory, got %s", cfg.RootDirectory)
	}
	if cfg.ServerDefaults.LaunchOption.MaxHeapMemoryMB != 2048 {
		t.Errorf("expected default max heap 2048, got %d", cfg.ServerDefaults.LaunchOption.MaxHeapMemoryMB)
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swi.yml")
	cfg := Default()
	cfg.Servers["abc"] = "./minecraft_servers/abc"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if loaded.Servers["abc"] != "./minecraft_servers/abc" {
		t.Errorf("round-trip lost server entry: %+v", loaded.Servers)
	}
}

func TestEnvOverlayOverridesBind(t *testing.T) {
	os.Setenv("SWI_API_BIND", ":9443")
	defer os.Unsetenv("SWI_API_BIND")

	cfg, err := Load(filepath.Join(t.TempDir(), "swi.yml"))
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.APIServer.Bind != ":9443" {
		t.Errorf("expected env overlay to set bind, got %s", cfg.APIServer.Bind)
	}
}

func TestEffectiveLaunchOptionMerge(t *testing.T) {
	global := Default().ServerDefaults.LaunchOption
	heap := 4096
	own := types.LaunchOption{
		JarFile:         "server.jar",
		MaxHeapMemoryMB: &heap,
	}
	eff := EffectiveLaunchOption(global, own)
	if eff.MaxHeapMemoryMB != 4096 {
		t.Errorf("expected per-server override 4096, got %d", eff.MaxHeapMemoryMB)
	}
	if eff.JavaOptions != global.JavaOptions {
		t.Errorf("expected global default carried through, got %s", eff.JavaOptions)
	}
	if eff.JarFile != "server.jar" {
		t.Errorf("expected jar file passthrough, got %s", eff.JarFile)
	}
}

func TestEffectiveStopCommandPrecedence(t *testing.T) {
	stop := "end"
	if got := EffectiveStopCommand(&stop, types.ServerTypeVanilla); got != "end" {
		t.Errorf("expected per-server override to win, got %s", got)
	}
	if got := EffectiveStopCommand(nil, types.ServerTypeVelocity); got != "end" {
		t.Errorf("expected proxy type default \"end\", got %s", got)
	}
	if got := EffectiveStopCommand(nil, types.ServerTypeUnknown); got != "stop" {
		t.Errorf("expected fallback \"stop\", got %s", got)
	}
}
