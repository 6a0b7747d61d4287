package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dncore/swi/pkg/types"
)

// DefaultServerConfigFilename is the file every managed server directory
// carries at its root.
const DefaultServerConfigFilename = "swi.server.yml"

// LoadServerConfig reads a server's swi.server.yml from its directory.
func LoadServerConfig(serverDir string) (*types.ServerConfig, error) {
	path := serverDir + "/" + DefaultServerConfigFilename
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var sc types.ServerConfig
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if sc.Type == "" {
		sc.Type = types.ServerTypeUnknown
	}
	return &sc, nil
}

// SaveServerConfig writes sc back to serverDir/swi.server.yml.
func SaveServerConfig(serverDir string, sc *types.ServerConfig) error {
	data, err := yaml.Marshal(sc)
	if err != nil {
		return fmt.Errorf("marshal server config: %w", err)
	}
	path := serverDir + "/" + DefaultServerConfigFilename
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// NewServerConfig builds the config for a freshly created/imported server.
func NewServerConfig(name string, typ types.ServerType, jarFile string) *types.ServerConfig {
	now := time.Now()
	return &types.ServerConfig{
		Name: name,
		Type: typ,
		LaunchOption: types.LaunchOption{
			JarFile: jarFile,
		},
		CreatedAt: &now,
	}
}

// EffectiveLaunchOption merges a server's own LaunchOption over the
// global defaults, producing the fully non-nullable option the process
// component actually launches with. Mirrors the original implementation's
// tuple-indexed "per-server value or global default" idiom.
func EffectiveLaunchOption(global types.LaunchGlobalOption, own types.LaunchOption) types.EffectiveLaunchOption {
	eff := types.EffectiveLaunchOption{
		JavaPreset:            global.JavaPreset,
		JavaExecutable:        global.JavaExecutable,
		JavaOptions:           global.JavaOptions,
		JarFile:               own.JarFile,
		ServerOptions:         global.ServerOptions,
		MaxHeapMemoryMB:       global.MaxHeapMemoryMB,
		MinHeapMemoryMB:       global.MinHeapMemoryMB,
		EnableFreeMemoryCheck: global.EnableFreeMemoryCheck,
		EnableReporterAgent:   global.EnableReporterAgent,
		EnableScreen:          global.EnableScreen,
	}
	if own.JavaPreset != nil {
		eff.JavaPreset = *own.JavaPreset
	}
	if own.JavaExecutable != nil {
		eff.JavaExecutable = *own.JavaExecutable
	}
	if own.JavaOptions != nil {
		eff.JavaOptions = *own.JavaOptions
	}
	if own.ServerOptions != nil {
		eff.ServerOptions = *own.ServerOptions
	}
	if own.MaxHeapMemoryMB != nil {
		eff.MaxHeapMemoryMB = *own.MaxHeapMemoryMB
	}
	if own.MinHeapMemoryMB != nil {
		eff.MinHeapMemoryMB = *own.MinHeapMemoryMB
	}
	if own.EnableFreeMemoryCheck != nil {
		eff.EnableFreeMemoryCheck = *own.EnableFreeMemoryCheck
	}
	if own.EnableReporterAgent != nil {
		eff.EnableReporterAgent = *own.EnableReporterAgent
	}
	if own.EnableScreen != nil {
		eff.EnableScreen = *own.EnableScreen
	}
	return eff
}

// EffectiveShutdownTimeout returns the per-server shutdown timeout, or
// the global default, or 15 seconds if neither is configured.
func EffectiveShutdownTimeout(globalSec int, ownSec *int) time.Duration {
	if ownSec != nil {
		return time.Duration(*ownSec) * time.Second
	}
	if globalSec > 0 {
		return time.Duration(globalSec) * time.Second
	}
	return 15 * time.Second
}

// EffectiveStopCommand resolves the stop-command precedence: per-server
// override, then type default, then the literal "stop".
func EffectiveStopCommand(ownCmd *string, typ types.ServerType) string {
	if ownCmd != nil && *ownCmd != "" {
		return *ownCmd
	}
	if spec := typ.Spec(); spec.StopCommand != "" {
		return spec.StopCommand
	}
	return "stop"
}
