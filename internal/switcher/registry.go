package switcher

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/dncore/swi/internal/config"
	"github.com/dncore/swi/internal/events"
	"github.com/dncore/swi/pkg/types"
)

// ErrAlreadyRegistered is returned by Create/Import when the id is already taken.
var ErrAlreadyRegistered = fmt.Errorf("server id is already registered")

// ErrNotRegistered is returned by Get/Delete for an unknown id.
var ErrNotRegistered = fmt.Errorf("server id is not registered")

// ErrDirectoryExists is returned by Create when the target directory
// already exists — creation (unlike import) requires a fresh directory.
var ErrDirectoryExists = fmt.Errorf("server directory already exists")

// Get returns the registered server by id.
func (s *Switcher) Get(id string) (*Server, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	srv, ok := s.servers[id]
	return srv, ok
}

// List returns every registered server, sorted by id for stable listings.
func (s *Switcher) List() []*Server {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Server, 0, len(s.servers))
	for _, srv := range s.servers {
		out = append(out, srv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Create registers a brand-new server: directory must not already
// exist, the id must be free. The directory is created, the config
// persisted into it, and the global config's registry updated and saved
// atomically from the caller's viewpoint, matching spec §4.2's creation
// contract.
func (s *Switcher) Create(id, directory string, sc *types.ServerConfig) (*Server, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.servers[id]; ok {
		return nil, ErrAlreadyRegistered
	}
	realDir := s.resolveServerDir(directory)
	if _, err := os.Stat(realDir); err == nil {
		return nil, ErrDirectoryExists
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat %s: %w", realDir, err)
	}
	if err := os.MkdirAll(realDir, 0755); err != nil {
		return nil, fmt.Errorf("create server directory: %w", err)
	}

	if err := config.SaveServerConfig(realDir, sc); err != nil {
		os.RemoveAll(realDir)
		return nil, fmt.Errorf("save server config: %w", err)
	}

	srv, err := loadServer(id, realDir, s.bus, s.cfg.MaxConsoleLinesInMemory)
	if err != nil {
		os.RemoveAll(realDir)
		return nil, err
	}

	s.cfg.Servers[id] = directory
	if err := s.saveConfig(); err != nil {
		delete(s.cfg.Servers, id)
		os.RemoveAll(realDir)
		return nil, fmt.Errorf("save global config: %w", err)
	}

	s.servers[id] = srv
	s.bus.Publish(events.ServerRegistered{ServerID: id})
	return srv, nil
}

// Import registers an existing server directory that already carries a
// swi.server.yml (LoadServerConfig fails otherwise), matching spec
// §4.2's import contract.
func (s *Switcher) Import(id, directory string) (*Server, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.servers[id]; ok {
		return nil, ErrAlreadyRegistered
	}
	realDir := s.resolveServerDir(directory)
	if info, err := os.Stat(realDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", realDir)
	}

	srv, err := loadServer(id, realDir, s.bus, s.cfg.MaxConsoleLinesInMemory)
	if err != nil {
		return nil, fmt.Errorf("import server: %w", err)
	}

	s.cfg.Servers[id] = directory
	if err := s.saveConfig(); err != nil {
		return nil, fmt.Errorf("save global config: %w", err)
	}

	s.servers[id] = srv
	s.bus.Publish(events.ServerRegistered{ServerID: id})
	return srv, nil
}

// Delete unregisters a server, optionally removing its directory from disk.
func (s *Switcher) Delete(id string, removeFiles bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	srv, ok := s.servers[id]
	if !ok {
		return ErrNotRegistered
	}
	if srv.State().IsRunning() {
		return ErrProcessing
	}

	delete(s.servers, id)
	delete(s.cfg.Servers, id)
	if err := s.saveConfig(); err != nil {
		return fmt.Errorf("save global config: %w", err)
	}

	if removeFiles {
		if err := os.RemoveAll(srv.Directory); err != nil {
			log.Printf("switcher: delete server %s: remove directory: %v", id, err)
		}
	}
	s.bus.Publish(events.ServerUnregistered{ServerID: id})
	return nil
}

// ShutdownAll stops every running server concurrently, waiting up to
// perServerTimeout for each. A server that doesn't stop in time is
// logged and left alone — spec explicitly forbids auto-escalating to
// SIGKILL here.
func (s *Switcher) ShutdownAll(ctx context.Context, perServerTimeout time.Duration) {
	servers := s.List()
	done := make(chan string, len(servers))
	running := 0
	for _, srv := range servers {
		if !srv.State().IsRunning() {
			continue
		}
		running++
		go func(srv *Server) {
			if err := srv.Stop(s.cfg); err != nil {
				log.Printf("switcher: shutdown: stop %s: %v", srv.ID, err)
			}
			done <- srv.ID
		}(srv)
	}

	deadline := time.After(perServerTimeout)
	for i := 0; i < running; i++ {
		select {
		case id := <-done:
			log.Printf("switcher: shutdown: %s stopped", id)
		case <-deadline:
			log.Printf("switcher: shutdown: timed out waiting for %d server(s) to stop", running-i)
			return
		case <-ctx.Done():
			return
		}
	}
}
