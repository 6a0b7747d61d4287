// Package jardl implements the per-server-type jar catalog: listing
// published Minecraft server versions and builds, and — for types that
// ship an installer rather than a runnable jar — describing the installer
// command line and how to read its output. The installer subprocess itself
// is run by internal/switcher.
package jardl

import (
	"context"
	"sync"

	"github.com/dncore/swi/pkg/types"
)

// Build is one downloadable artifact for a single (version, build) pair.
// FetchInfo lazily resolves fields the listing call didn't already carry
// (usually a second HTTP round trip), matching the original's
// ServerBuild.fetch_info/_fetch_info split.
type Build interface {
	Info() types.JarVersionInfo
	FetchInfo(ctx context.Context) (types.JarVersionInfo, error)
	RequireBuild() bool
}

// Downloader is implemented once per types.ServerType.
type Downloader interface {
	Type() types.ServerType
	ListVersions(ctx context.Context) ([]string, error)
	ListBuilds(ctx context.Context, mcVersion string) ([]Build, error)
	ClearCache()
}

// Registry holds one Downloader per server type and serves cached
// version/build listings through it.
type Registry struct {
	mu          sync.RWMutex
	downloaders map[types.ServerType]Downloader
}

// NewRegistry builds a registry pre-populated with every downloader this
// package implements (see Defaults).
func NewRegistry() *Registry {
	r := &Registry{downloaders: make(map[types.ServerType]Downloader)}
	for _, d := range Defaults() {
		r.downloaders[d.Type()] = d
	}
	return r
}

// Get returns the downloader for a server type, if one is registered.
func (r *Registry) Get(t types.ServerType) (Downloader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.downloaders[t]
	return d, ok
}

// ClearCache clears every downloader's in-process cache, matching the
// original's per-downloader clear_cache exposed in bulk.
func (r *Registry) ClearCache() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.downloaders {
		d.ClearCache()
	}
}

// Types returns every server type with a registered downloader.
func (r *Registry) Types() []types.ServerType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.ServerType, 0, len(r.downloaders))
	for t := range r.downloaders {
		out = append(out, t)
	}
	return out
}

// Defaults constructs the stock downloader set, mirroring jardl.py's
// defaults(): one instance per supported server type.
func Defaults() []Downloader {
	return []Downloader{
		NewVanillaDownloader(),
		newPaperAPIDownloader(types.ServerTypePaper, "paper"),
		newPaperAPIDownloader(types.ServerTypeWaterfall, "waterfall"),
		newPaperAPIDownloader(types.ServerTypeVelocity, "velocity"),
		newPaperAPIDownloader(types.ServerTypeFolia, "folia"),
		NewPurpurDownloader(),
		NewFabricDownloader(),
		NewQuiltDownloader(),
		NewSpigotDownloader(),
		NewForgeDownloader(),
		NewNeoForgeDownloader(),
		newMohistFamilyDownloader(types.ServerTypeMohist, "mohist"),
		newMohistFamilyDownloader(types.ServerTypeYouer, "youer"),
		newMohistFamilyDownloader(types.ServerTypeBanner, "banner"),
		NewBungeeCordDownloader(),
		NewSpongeVanillaDownloader(),
	}
}
