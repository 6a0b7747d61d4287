package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dncore/swi/internal/api"
	"github.com/dncore/swi/internal/auth"
	"github.com/dncore/swi/internal/config"
	"github.com/dncore/swi/internal/events"
	"github.com/dncore/swi/internal/switcher"
)

func main() {
	cfgPath := os.Getenv("SWI_CONFIG")
	if cfgPath == "" {
		cfgPath = "swi.yml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("swid: load config: %v", err)
	}

	dbPath := os.Getenv("SWI_DB_PATH")
	if dbPath == "" {
		dbPath = filepath.Join(filepath.Dir(cfgPath), "swi.db")
	}

	ctx := context.Background()
	bus := events.New()

	sw, err := switcher.Bootstrap(ctx, cfg, cfgPath, dbPath, bus)
	if err != nil {
		log.Fatalf("swid: bootstrap: %v", err)
	}

	var dlIssuer *auth.DownloadIssuer
	if cfg.APIServer.JWTSecret != "" {
		dlIssuer = auth.NewDownloadIssuer(cfg.APIServer.JWTSecret)
	} else {
		log.Println("swid: no jwt_secret configured, download grant links disabled")
	}

	server := api.NewServer(sw, sw.Store, bus, api.Opts{
		CORSOrigins:    cfg.APIServer.CORSOrigins,
		DownloadIssuer: dlIssuer,
	})

	trashCtx, cancelTrash := context.WithCancel(ctx)
	defer cancelTrash()
	go runTrashJanitor(trashCtx, sw)

	sessionCtx, cancelSessions := context.WithCancel(ctx)
	defer cancelSessions()
	go pruneExpiredSessions(sessionCtx, sw)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	addr := cfg.APIServer.Bind
	log.Printf("swid: starting control plane on %s", addr)
	go func() {
		if err := server.Start(addr); err != nil {
			log.Printf("swid: server error: %v", err)
		}
	}()

	<-quit
	log.Println("swid: shutting down...")

	cancelTrash()
	cancelSessions()

	if err := server.Close(); err != nil {
		log.Printf("swid: error closing server: %v", err)
	}
	sw.Shutdown(context.Background(), 30*time.Second)
}

// runTrashJanitor permanently removes backups past their trash retention
// window, once per hour, until ctx is cancelled.
func runTrashJanitor(ctx context.Context, sw *switcher.Switcher) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sw.Backups.RunTrashJanitor(ctx); err != nil {
				log.Printf("swid: trash janitor: %v", err)
			}
		}
	}
}

// pruneExpiredSessions removes sessions past their absolute expiry every
// ten minutes, so a crowded sessions table never builds up indefinitely.
func pruneExpiredSessions(ctx context.Context, sw *switcher.Switcher) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := sw.Store.PruneExpiredSessions(ctx); err != nil {
				log.Printf("swid: prune sessions: %v", err)
			}
		}
	}
}
