// Package switcher is the daemon's core: it owns the server registry and
// the singleton references every other component needs (file manager,
// backup engine, database, jar catalog, Java registry, event bus), and
// drives their startup/shutdown ordering.
package switcher

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/dncore/swi/internal/backup"
	"github.com/dncore/swi/internal/config"
	"github.com/dncore/swi/internal/db"
	"github.com/dncore/swi/internal/events"
	"github.com/dncore/swi/internal/jardl"
	"github.com/dncore/swi/internal/javahome"
	"github.com/dncore/swi/internal/vfs"
)

// Switcher is the assembled daemon core. Holds the singleton references
// to the file manager, backup engine, DB, jar catalog, Java registry,
// and event bus, and the loaded server registry, matching spec's
// "Switcher core (H)" responsibility.
type Switcher struct {
	cfg     *config.SwitcherConfig
	cfgPath string
	bus     *events.Bus

	Store       *db.Store
	Files       *vfs.Manager
	ServersRoot *vfs.Root
	Backups     *backup.Engine
	Java        *javahome.Registry
	Jars        *jardl.Registry

	mu      sync.RWMutex
	servers map[string]*Server
}

// Bootstrap constructs every singleton component and loads the server
// registry, in the order spec's §4.2 init sequence names: config is
// assumed already loaded by the caller; DB.connect, File manager, Backup
// engine, Java scan, Server registry load, Jar catalog. Control plane
// start is the caller's responsibility (it needs the *Switcher itself).
func Bootstrap(ctx context.Context, cfg *config.SwitcherConfig, cfgPath, dbPath string, bus *events.Bus) (*Switcher, error) {
	store, err := db.Open(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("switcher: connect db: %w", err)
	}

	serversRoot, err := vfs.NewRoot(cfg.RootDirectory)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("switcher: create servers root: %w", err)
	}
	files := vfs.NewManager(bus)

	backupCfg := backup.Config{
		BackupsDir:          cfg.Backup.BackupsDirectory,
		TrashRetentionHours: cfg.Backup.TrashRetentionHours,
		Suffixes:            cfg.Backup.Suffixes,
	}
	if m := cfg.Backup.S3Mirror; m != nil {
		backupCfg.S3Mirror = &backup.S3MirrorConfig{
			Enable:          m.Enable,
			Endpoint:        m.Endpoint,
			Bucket:          m.Bucket,
			Region:          m.Region,
			AccessKeyID:     m.AccessKeyID,
			SecretAccessKey: m.SecretAccessKey,
			ForcePathStyle:  m.ForcePathStyle,
		}
	}
	backups, err := backup.NewEngine(backupCfg, store, bus)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("switcher: create backup engine: %w", err)
	}

	javaReg := javahome.NewRegistry(cfg.Java)
	if err := javaReg.Rescan(ctx); err != nil {
		log.Printf("switcher: java scan: %v", err)
	}

	s := &Switcher{
		cfg:         cfg,
		cfgPath:     cfgPath,
		bus:         bus,
		Store:       store,
		Files:       files,
		ServersRoot: serversRoot,
		Backups:     backups,
		Java:        javaReg,
		servers:     make(map[string]*Server),
	}

	if err := s.loadServers(ctx); err != nil {
		store.Close()
		return nil, err
	}
	s.Jars = jardl.NewRegistry()
	return s, nil
}

// loadServers instantiates a Server for every {id: directory} pair in
// the global config, matching §4.2's registry load.
func (s *Switcher) loadServers(ctx context.Context) error {
	for id, dir := range s.cfg.Servers {
		realDir := s.resolveServerDir(dir)
		srv, err := loadServer(id, realDir, s.bus, s.cfg.MaxConsoleLinesInMemory)
		if err != nil {
			log.Printf("switcher: skipping server %q (%s): %v", id, dir, err)
			continue
		}
		s.servers[id] = srv
		s.bus.Publish(events.ServerRegistered{ServerID: id})
	}
	return nil
}

// Shutdown stops every running server with a bounded wait (logging, not
// killing, on timeout) and tears down components in reverse of
// Bootstrap's construction order.
func (s *Switcher) Shutdown(ctx context.Context, perServerTimeout time.Duration) {
	s.ShutdownAll(ctx, perServerTimeout)
	if err := s.Store.Close(); err != nil {
		log.Printf("switcher: close db: %v", err)
	}
}

// Config returns the live global config. Callers must not mutate the
// returned pointer's maps without holding Switcher's own mutation path
// (Create/Import/Delete); read-only inspection is safe.
func (s *Switcher) Config() *config.SwitcherConfig { return s.cfg }

func (s *Switcher) saveConfig() error {
	return s.cfg.Save(s.cfgPath)
}

// SaveConfig persists the current global config to disk, for control-plane
// handlers that mutate the config returned by Config() directly.
func (s *Switcher) SaveConfig() error {
	return s.saveConfig()
}

// resolveServerDir returns a server's own directory: an absolute path as
// is, a relative one joined to the configured servers root, mirroring ServersLocation from the
// original implementation's virtual "/" mount.
func (s *Switcher) resolveServerDir(directory string) string {
	if filepath.IsAbs(directory) {
		return directory
	}
	return filepath.Join(s.ServersRoot.Base(), directory)
}
