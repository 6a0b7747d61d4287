package switcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dncore/swi/internal/config"
	"github.com/dncore/swi/internal/events"
	"github.com/dncore/swi/internal/javahome"
	"github.com/dncore/swi/internal/process"
	"github.com/dncore/swi/internal/vfs"
	"github.com/dncore/swi/pkg/types"
)

// Server is one managed server: its persisted config, its own virtual
// file root, and the process wrapping its child.
type Server struct {
	ID        string
	Directory string

	bus *events.Bus

	mu   sync.Mutex // guards cfg and its on-disk persistence
	cfg  *types.ServerConfig
	root *vfs.Root

	Process *process.Process
}

func loadServer(id, directory string, bus *events.Bus, ringCapacity int) (*Server, error) {
	sc, err := config.LoadServerConfig(directory)
	if err != nil {
		return nil, err
	}
	root, err := vfs.NewRoot(directory)
	if err != nil {
		return nil, err
	}
	if ringCapacity <= 0 {
		ringCapacity = 10_000
	}
	return &Server{
		ID:        id,
		Directory: directory,
		bus:       bus,
		cfg:       sc,
		root:      root,
		Process:   process.New(id, bus, ringCapacity),
	}, nil
}

// Config returns a copy of the server's current persisted config.
func (s *Server) Config() types.ServerConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.cfg
}

// Root is the server's own virtual file root (its directory mounted at "/").
func (s *Server) Root() *vfs.Root { return s.root }

// State returns the server's current lifecycle state.
func (s *Server) State() types.ServerState { return s.Process.State() }

// Summary builds the wire-level listing row for this server.
func (s *Server) Summary() types.ServerSummary {
	s.mu.Lock()
	cfg := *s.cfg
	s.mu.Unlock()
	return types.ServerSummary{
		ID:        s.ID,
		Name:      cfg.Name,
		Type:      cfg.Type,
		State:     s.State(),
		Directory: s.Directory,
		SourceID:  cfg.SourceID,
	}
}

// mutateConfig applies fn under lock and persists the result to disk.
func (s *Server) mutateConfig(fn func(*types.ServerConfig)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.cfg)
	return config.SaveServerConfig(s.Directory, s.cfg)
}

// SetConfig overwrites the server's persisted config wholesale and saves
// it, for PUT /server/{id}/config.
func (s *Server) SetConfig(sc types.ServerConfig) error {
	return s.mutateConfig(func(c *types.ServerConfig) { *c = sc })
}

// ReloadConfig re-reads the server's config from disk, discarding any
// in-memory changes that weren't persisted — for POST /server/{id}/config/reload.
func (s *Server) ReloadConfig() error {
	sc, err := config.LoadServerConfig(s.Directory)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = sc
	s.mu.Unlock()
	return nil
}

// HasPendingBuild reports whether the server's installer has not yet
// been run to completion. While it is, Start refuses with
// ErrBuildPending; Start does not run the installer itself.
func (s *Server) HasPendingBuild() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Installer.RequireBuild
}

// ErrAlreadyRunning mirrors the original implementation's AlreadyRunningError.
var ErrAlreadyRunning = fmt.Errorf("server is already running")

// ErrNotRunning mirrors the original implementation's "server not running" error.
var ErrNotRunning = fmt.Errorf("server is not running")

// ErrProcessing mirrors ServerProcessingError: a start/stop is already in
// flight (state is STARTING or STOPPING), so a second one is refused
// rather than racing it.
var ErrProcessing = fmt.Errorf("server is starting or stopping")

// ErrBuildPending is returned by Start when the server has an
// uncompleted installer and the caller didn't pass noBuild.
var ErrBuildPending = fmt.Errorf("server has a pending build; run the builder first")

// Start resolves the java executable and effective launch option and
// spawns the server's child process. If the server has a pending
// builder and noBuild is false, it returns ErrBuildPending instead —
// callers run InstallJar (builder.go) and call Start again afterward.
func (s *Server) Start(ctx context.Context, globalCfg *config.SwitcherConfig, javaReg *javahome.Registry, noBuild bool) error {
	switch s.State() {
	case types.StateRunning, types.StateStarted, types.StateStarting:
		return ErrAlreadyRunning
	case types.StateStopping, types.StateBuild:
		return ErrProcessing
	}
	if s.HasPendingBuild() && !noBuild {
		return ErrBuildPending
	}

	s.mu.Lock()
	sc := *s.cfg
	s.mu.Unlock()

	eff := process.ResolveEffective(globalCfg, &sc)
	javaExecutable, err := javaReg.Resolve(eff.JavaPreset, eff.JavaExecutable)
	if err != nil {
		return fmt.Errorf("resolve java: %w", err)
	}

	opt := process.LaunchOptions{
		Directory:       s.Directory,
		JavaExecutable:  javaExecutable,
		EffectiveOpt:    eff,
		ShutdownTimeout: config.EffectiveShutdownTimeout(globalCfg.ServerDefaults.ShutdownTimeoutSec, sc.ShutdownTimeoutSec),
		StopCommand:     config.EffectiveStopCommand(sc.StopCommand, sc.Type),
	}
	if err := s.Process.Start(ctx, opt, &sc); err != nil {
		return err
	}
	now := time.Now()
	return s.mutateConfig(func(c *types.ServerConfig) { c.LastLaunchAt = &now })
}

// Stop gracefully stops the server, choosing the stop command by the
// same precedence Start used to launch it.
func (s *Server) Stop(globalCfg *config.SwitcherConfig) error {
	switch s.State() {
	case types.StateStopped, types.StateUnknown:
		return ErrNotRunning
	case types.StateStarting, types.StateStopping, types.StateBuild:
		return ErrProcessing
	}
	s.mu.Lock()
	stopCmd := config.EffectiveStopCommand(s.cfg.StopCommand, s.cfg.Type)
	timeout := config.EffectiveShutdownTimeout(globalCfg.ServerDefaults.ShutdownTimeoutSec, s.cfg.ShutdownTimeoutSec)
	s.mu.Unlock()
	return s.Process.Stop(stopCmd, timeout)
}

// Kill sends SIGKILL to the server's process group unconditionally.
func (s *Server) Kill() error {
	return s.Process.Kill()
}

// Restart stops (gracefully) then starts the server again.
func (s *Server) Restart(ctx context.Context, globalCfg *config.SwitcherConfig, javaReg *javahome.Registry) error {
	if s.State().IsRunning() {
		if err := s.Stop(globalCfg); err != nil {
			return err
		}
		s.Process.Wait()
	}
	return s.Start(ctx, globalCfg, javaReg, false)
}

// SendCommand writes a line to the server's console.
func (s *Server) SendCommand(line string) error { return s.Process.SendCommand(line) }

// ConsoleTail returns up to n of the most recently read console lines.
func (s *Server) ConsoleTail(n int) []string { return s.Process.ConsoleTail(n) }
