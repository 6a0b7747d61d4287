package jardl

import (
	"context"
	"fmt"
	"sync"

	"github.com/dncore/swi/pkg/types"
)

const fabricMetaBase = "https://meta.fabricmc.net/v2/versions"

type fabricGameVersion struct {
	Version string `json:"version"`
	Stable  bool   `json:"stable"`
}

type fabricLoaderVersion struct {
	Build   int    `json:"build"`
	Stable  bool   `json:"stable"`
	Version string `json:"version"`
}

type fabricInstallerVersion struct {
	Version string `json:"version"`
	Stable  bool   `json:"stable"`
}

// FabricDownloader composes the game/loader/installer version lists into
// one server jar URL per (mc version, stable loader) pair; Fabric serves
// a launchable server jar directly, so no install step is required.
type FabricDownloader struct {
	versions cachedVersions
	builds   cachedBuilds

	mu         sync.Mutex
	loaders    []fabricLoaderVersion
	installers []fabricInstallerVersion
}

func NewFabricDownloader() *FabricDownloader { return &FabricDownloader{} }

func (d *FabricDownloader) Type() types.ServerType { return types.ServerTypeFabric }

func (d *FabricDownloader) ListVersions(ctx context.Context) ([]string, error) {
	return d.versions.get(ctx, func(ctx context.Context) ([]string, error) {
		var entries []fabricGameVersion
		if err := getJSON(ctx, fabricMetaBase+"/game", &entries); err != nil {
			return nil, err
		}
		var out []string
		for i := len(entries) - 1; i >= 0; i-- {
			if entries[i].Stable {
				out = append(out, entries[i].Version)
			}
		}
		return out, nil
	})
}

func (d *FabricDownloader) listLoaders(ctx context.Context) ([]fabricLoaderVersion, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loaders != nil {
		return d.loaders, nil
	}
	var entries []fabricLoaderVersion
	if err := getJSON(ctx, fabricMetaBase+"/loader", &entries); err != nil {
		return nil, err
	}
	var out []fabricLoaderVersion
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Stable {
			out = append(out, entries[i])
		}
	}
	d.loaders = out
	return out, nil
}

func (d *FabricDownloader) listInstallers(ctx context.Context) ([]fabricInstallerVersion, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.installers != nil {
		return d.installers, nil
	}
	var entries []fabricInstallerVersion
	if err := getJSON(ctx, fabricMetaBase+"/installer", &entries); err != nil {
		return nil, err
	}
	var out []fabricInstallerVersion
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Stable {
			out = append(out, entries[i])
		}
	}
	d.installers = out
	return out, nil
}

func (d *FabricDownloader) ListBuilds(ctx context.Context, mcVersion string) ([]Build, error) {
	return d.builds.get(ctx, mcVersion, func(ctx context.Context) ([]Build, error) {
		loaders, err := d.listLoaders(ctx)
		if err != nil {
			return nil, err
		}
		installers, err := d.listInstallers(ctx)
		if err != nil {
			return nil, err
		}
		if len(installers) == 0 {
			return nil, nil
		}
		installer := installers[len(installers)-1]

		out := make([]Build, 0, len(loaders))
		for _, loader := range loaders {
			url := fmt.Sprintf("%s/loader/%s/%s/%s/server/jar", fabricMetaBase, mcVersion, loader.Version, installer.Version)
			out = append(out, simpleBuild{info: types.JarVersionInfo{
				Type:        types.ServerTypeFabric,
				MCVersion:   mcVersion,
				Build:       fmt.Sprintf("loader.%s-installer.%s", loader.Version, installer.Version),
				DownloadURL: url,
			}})
		}
		return out, nil
	})
}

func (d *FabricDownloader) ClearCache() {
	d.versions.clear()
	d.builds.clear()
	d.mu.Lock()
	d.loaders = nil
	d.installers = nil
	d.mu.Unlock()
}
