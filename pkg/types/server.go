package types

import "time"

// ServerState is the lifecycle state of a managed server process.
type ServerState string

const (
	StateUnknown  ServerState = "UNKNOWN"
	StateStopped  ServerState = "STOPPED"
	StateStarting ServerState = "STARTING"
	StateStarted  ServerState = "STARTED"
	StateRunning  ServerState = "RUNNING"
	StateStopping ServerState = "STOPPING"
	StateBuild    ServerState = "BUILD"
)

// IsRunning reports whether the state counts as "not idle" for display
// and for rejecting a second start().
func (s ServerState) IsRunning() bool {
	return s != StateStopped && s != StateUnknown
}

// displayOrder ranks states for sorted listings: STOPPED < STOPPING < STARTING < STARTED/RUNNING.
var displayOrder = map[ServerState]int{
	StateStopped:  0,
	StateStopping: 1,
	StateStarting: 2,
	StateStarted:  3,
	StateRunning:  3,
	StateUnknown:  -1,
	StateBuild:    2,
}

// DisplayRank returns the sort weight used by listing endpoints.
func (s ServerState) DisplayRank() int {
	return displayOrder[s]
}

// ServerTypeSpec is the per-type metadata consulted when a server doesn't
// override its own stop command.
type ServerTypeSpec struct {
	StopCommand string
	IsProxy     bool
	IsModded    bool
}

// ServerType is a server flavor tag. The config loader maps an empty
// type to ServerTypeUnknown and keeps any other value as written;
// ParseServerType maps unrecognized input to ServerTypeUnknown.
type ServerType string

const (
	ServerTypeUnknown     ServerType = "UNKNOWN"
	ServerTypeCustom      ServerType = "CUSTOM"
	ServerTypeVanilla     ServerType = "VANILLA"
	ServerTypeSpigot      ServerType = "SPIGOT"
	ServerTypePaper       ServerType = "PAPER"
	ServerTypePurpur      ServerType = "PURPUR"
	ServerTypeForge       ServerType = "FORGE"
	ServerTypeNeoForge    ServerType = "NEOFORGE"
	ServerTypeFabric      ServerType = "FABRIC"
	ServerTypeQuilt       ServerType = "QUILT"
	ServerTypeMohist      ServerType = "MOHIST"
	ServerTypeBanner      ServerType = "BANNER"
	ServerTypeYouer       ServerType = "YOUER"
	ServerTypeFolia       ServerType = "FOLIA"
	ServerTypeVelocity    ServerType = "VELOCITY"
	ServerTypeWaterfall   ServerType = "WATERFALL"
	ServerTypeBungeeCord  ServerType = "BUNGEECORD"
	ServerTypeSpongeVanilla ServerType = "SPONGEVANILLA"
)

// typeSpecs is the static metadata table for each recognized type. UNKNOWN
// and CUSTOM are intentionally absent — callers must fall back to the
// per-server stop_command or the literal "stop" (spec §4.1).
var typeSpecs = map[ServerType]ServerTypeSpec{
	ServerTypeVanilla:       {StopCommand: "stop"},
	ServerTypeSpigot:        {StopCommand: "stop"},
	ServerTypePaper:         {StopCommand: "stop"},
	ServerTypePurpur:        {StopCommand: "stop"},
	ServerTypeForge:         {StopCommand: "stop", IsModded: true},
	ServerTypeNeoForge:      {StopCommand: "stop", IsModded: true},
	ServerTypeFabric:        {StopCommand: "stop", IsModded: true},
	ServerTypeQuilt:         {StopCommand: "stop", IsModded: true},
	ServerTypeMohist:        {StopCommand: "stop", IsModded: true},
	ServerTypeBanner:        {StopCommand: "stop", IsModded: true},
	ServerTypeYouer:         {StopCommand: "stop", IsModded: true},
	ServerTypeFolia:         {StopCommand: "stop"},
	ServerTypeVelocity:      {StopCommand: "end", IsProxy: true},
	ServerTypeWaterfall:     {StopCommand: "end", IsProxy: true},
	ServerTypeBungeeCord:    {StopCommand: "end", IsProxy: true},
	ServerTypeSpongeVanilla: {StopCommand: "stop"},
}

// Spec returns the static metadata for this type, or the zero value
// (empty stop command, not proxy, not modded) for UNKNOWN/CUSTOM.
func (t ServerType) Spec() ServerTypeSpec {
	return typeSpecs[t]
}

// ParseServerType maps a free-form tag to a recognized ServerType,
// falling back to ServerTypeUnknown rather than propagating garbage.
func ParseServerType(raw string) ServerType {
	t := ServerType(raw)
	if _, ok := typeSpecs[t]; ok {
		return t
	}
	if t == ServerTypeCustom {
		return t
	}
	return ServerTypeUnknown
}

// LaunchOption is a server's own launch settings; nil pointer fields
// fall back to the global default of the same name (effective merge
// happens in internal/config, never here).
type LaunchOption struct {
	JavaPreset             *string `yaml:"java_preset,omitempty" json:"javaPreset,omitempty"`
	JavaExecutable         *string `yaml:"java_executable,omitempty" json:"javaExecutable,omitempty"`
	JavaOptions            *string `yaml:"java_options,omitempty" json:"javaOptions,omitempty"`
	JarFile                string  `yaml:"jar_file" json:"jarFile"`
	ServerOptions          *string `yaml:"server_options,omitempty" json:"serverOptions,omitempty"`
	MaxHeapMemoryMB        *int    `yaml:"max_heap_memory,omitempty" json:"maxHeapMemory,omitempty"`
	MinHeapMemoryMB        *int    `yaml:"min_heap_memory,omitempty" json:"minHeapMemory,omitempty"`
	EnableFreeMemoryCheck  *bool   `yaml:"enable_free_memory_check,omitempty" json:"enableFreeMemoryCheck,omitempty"`
	EnableReporterAgent    *bool   `yaml:"enable_reporter_agent,omitempty" json:"enableReporterAgent,omitempty"`
	EnableScreen           *bool   `yaml:"enable_screen,omitempty" json:"enableScreen,omitempty"`
}

// EffectiveLaunchOption is the fully-merged, non-nullable launch option
// a server actually launches with (spec §3 "LaunchOption (effective)").
type EffectiveLaunchOption struct {
	JavaPreset            string
	JavaExecutable        string
	JavaOptions           string
	JarFile               string
	ServerOptions         string
	MaxHeapMemoryMB       int
	MinHeapMemoryMB       int
	EnableFreeMemoryCheck bool
	EnableReporterAgent   bool
	EnableScreen          bool
}

// ServerInstallerInfo records which jar-catalog builder produced this
// server's jar, so the jardl component can offer "reinstall"/"update".
type ServerInstallerInfo struct {
	Type         ServerType `yaml:"type,omitempty" json:"type,omitempty"`
	MCVersion    string     `yaml:"version,omitempty" json:"version,omitempty"`
	Build        string     `yaml:"build,omitempty" json:"build,omitempty"`
	RequireBuild bool       `yaml:"require_build,omitempty" json:"requireBuild,omitempty"`
}

// ServerConfig is the on-disk per-server config (swi.server.yml, spec §6).
type ServerConfig struct {
	Name                string              `yaml:"name" json:"name"`
	Type                ServerType          `yaml:"type" json:"type"`
	LaunchOption        LaunchOption        `yaml:"launch_option" json:"launchOption"`
	EnableLaunchCommand bool                `yaml:"enable_launch_command" json:"enableLaunchCommand"`
	LaunchCommand       string              `yaml:"launch_command" json:"launchCommand"`
	StopCommand         *string             `yaml:"stop_command,omitempty" json:"stopCommand,omitempty"`
	ShutdownTimeoutSec  *int                `yaml:"shutdown_timeout,omitempty" json:"shutdownTimeout,omitempty"`
	CreatedAt           *time.Time          `yaml:"created_at,omitempty" json:"createdAt,omitempty"`
	LastLaunchAt        *time.Time          `yaml:"last_launch_at,omitempty" json:"lastLaunchAt,omitempty"`
	LastBackupAt        *time.Time          `yaml:"last_backup_at,omitempty" json:"lastBackupAt,omitempty"`
	Installer           ServerInstallerInfo `yaml:"installer" json:"installer"`
	SourceID            string              `yaml:"source_id,omitempty" json:"sourceId,omitempty"`
	LastBackupID        string              `yaml:"last_backup_id,omitempty" json:"lastBackupId,omitempty"`
}

// LaunchGlobalOption is the global default launch option (non-nullable
// where the per-server option is optional).
type LaunchGlobalOption struct {
	JavaPreset            string `yaml:"java_preset" json:"javaPreset"`
	JavaExecutable        string `yaml:"java_executable,omitempty" json:"javaExecutable,omitempty"`
	JavaOptions           string `yaml:"java_options" json:"javaOptions"`
	ServerOptions         string `yaml:"server_options" json:"serverOptions"`
	MaxHeapMemoryMB       int    `yaml:"max_heap_memory" json:"maxHeapMemory"`
	MinHeapMemoryMB       int    `yaml:"min_heap_memory" json:"minHeapMemory"`
	EnableFreeMemoryCheck bool   `yaml:"enable_free_memory_check" json:"enableFreeMemoryCheck"`
	EnableReporterAgent   bool   `yaml:"enable_reporter_agent" json:"enableReporterAgent"`
	EnableScreen          bool   `yaml:"enable_screen" json:"enableScreen"`
}

// ServerGlobalConfig is the server-defaults section of the global config.
type ServerGlobalConfig struct {
	LaunchOption       LaunchGlobalOption `yaml:"launch_option" json:"launchOption"`
	ShutdownTimeoutSec int                `yaml:"shutdown_timeout" json:"shutdownTimeout"`
}

// ServerSummary is the wire representation of a Server for list/get endpoints.
type ServerSummary struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Type      ServerType  `json:"type"`
	State     ServerState `json:"state"`
	Directory string      `json:"directory"`
	SourceID  string      `json:"sourceId,omitempty"`
}
