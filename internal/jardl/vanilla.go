package jardl

import (
	"context"
	"time"

	"github.com/dncore/swi/pkg/types"
)

const vanillaManifestURL = "https://launchermeta.mojang.com/mc/game/version_manifest.json"

type vanillaManifestEntry struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	URL  string    `json:"url"`
	Time time.Time `json:"time"`
}

type vanillaManifest struct {
	Versions []vanillaManifestEntry `json:"versions"`
}

type vanillaJavaVersion struct {
	MajorVersion int `json:"majorVersion"`
}

type vanillaDownloadEntry struct {
	URL string `json:"url"`
}

type vanillaVersionInfo struct {
	ID        string `json:"id"`
	Downloads struct {
		Server *vanillaDownloadEntry `json:"server"`
	} `json:"downloads"`
	JavaVersion vanillaJavaVersion `json:"javaVersion"`
}

// VanillaDownloader talks to Mojang's public version manifest. Each
// version's server-jar URL and required Java major version live in a
// second, per-version manifest — fetched lazily, matching
// VanillaVersion._list_builds in the original.
type VanillaDownloader struct {
	versions cachedVersions
	builds   cachedBuilds
	entries  map[string]vanillaManifestEntry
}

func NewVanillaDownloader() *VanillaDownloader {
	return &VanillaDownloader{entries: map[string]vanillaManifestEntry{}}
}

func (d *VanillaDownloader) Type() types.ServerType { return types.ServerTypeVanilla }

func (d *VanillaDownloader) ListVersions(ctx context.Context) ([]string, error) {
	return d.versions.get(ctx, func(ctx context.Context) ([]string, error) {
		var manifest vanillaManifest
		if err := getJSON(ctx, vanillaManifestURL, &manifest); err != nil {
			return nil, err
		}
		out := make([]string, 0, len(manifest.Versions))
		for _, v := range manifest.Versions {
			d.entries[v.ID] = v
			out = append(out, v.ID)
		}
		return out, nil
	})
}

func (d *VanillaDownloader) ListBuilds(ctx context.Context, mcVersion string) ([]Build, error) {
	return d.builds.get(ctx, mcVersion, func(ctx context.Context) ([]Build, error) {
		entry, ok := d.entries[mcVersion]
		if !ok {
			if _, err := d.ListVersions(ctx); err != nil {
				return nil, err
			}
			entry, ok = d.entries[mcVersion]
			if !ok {
				return nil, nil
			}
		}

		var info vanillaVersionInfo
		if err := getJSON(ctx, entry.URL, &info); err != nil {
			return nil, err
		}
		if info.Downloads.Server == nil {
			return nil, nil
		}

		updated := entry.Time
		return []Build{simpleBuild{info: types.JarVersionInfo{
			Type:        types.ServerTypeVanilla,
			MCVersion:   info.ID,
			Build:       "latest",
			DownloadURL: info.Downloads.Server.URL,
			JavaMajor:   info.JavaVersion.MajorVersion,
			UpdatedAt:   &updated,
		}}}, nil
	})
}

func (d *VanillaDownloader) ClearCache() {
	d.versions.clear()
	d.builds.clear()
}
