package jardl

import (
	"context"
	"fmt"
	"strings"

	"github.com/dncore/swi/pkg/types"
)

const spongeAPIBase = "https://dl-api.spongepowered.org/v2/groups/org.spongepowered/artifacts/spongevanilla"

type spongeProjectInfo struct {
	Tags struct {
		Minecraft []string `json:"minecraft"`
	} `json:"tags"`
}

type spongeVersionsPage struct {
	Artifacts map[string]struct {
		Recommended bool `json:"recommended"`
	} `json:"artifacts"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Size   int `json:"size"`
}

type spongeBuildInfo struct {
	Assets []struct {
		Classifier  string `json:"classifier"`
		DownloadURL string `json:"downloadUrl"`
	} `json:"assets"`
}

// spongeBuild resolves its universal-jar download URL lazily, matching
// ProjectBuild._fetch_info in the original.
type spongeBuild struct {
	mcVersion   string
	build       string
	recommended bool
}

func (b spongeBuild) Info() types.JarVersionInfo {
	return types.JarVersionInfo{
		Type:        types.ServerTypeSpongeVanilla,
		MCVersion:   b.mcVersion,
		Build:       b.build,
		Recommended: b.recommended,
	}
}

func (b spongeBuild) FetchInfo(ctx context.Context) (types.JarVersionInfo, error) {
	info := b.Info()
	var resp spongeBuildInfo
	url := fmt.Sprintf("%s/versions/%s", spongeAPIBase, b.build)
	if err := getJSON(ctx, url, &resp); err != nil {
		return info, err
	}
	for _, asset := range resp.Assets {
		if asset.Classifier == "universal" {
			info.DownloadURL = asset.DownloadURL
			break
		}
	}
	info.MarkFetched()
	return info, nil
}

func (b spongeBuild) RequireBuild() bool { return false }

// SpongeVanillaDownloader paginates the dl-api.spongepowered.org tags
// endpoint, fetching at most two pages (matching the original's "latest
// 2" loop) per Minecraft version.
type SpongeVanillaDownloader struct {
	versions cachedVersions
	builds   cachedBuilds
}

func NewSpongeVanillaDownloader() *SpongeVanillaDownloader { return &SpongeVanillaDownloader{} }

func (d *SpongeVanillaDownloader) Type() types.ServerType { return types.ServerTypeSpongeVanilla }

func (d *SpongeVanillaDownloader) ListVersions(ctx context.Context) ([]string, error) {
	return d.versions.get(ctx, func(ctx context.Context) ([]string, error) {
		var info spongeProjectInfo
		if err := getJSON(ctx, spongeAPIBase, &info); err != nil {
			return nil, err
		}
		out := make([]string, 0, len(info.Tags.Minecraft))
		for i := len(info.Tags.Minecraft) - 1; i >= 0; i-- {
			ver := info.Tags.Minecraft[i]
			if strings.Contains(ver, "-") {
				continue // exclude x.x-rc / x.x-pre
			}
			out = append(out, ver)
		}
		return out, nil
	})
}

func (d *SpongeVanillaDownloader) ListBuilds(ctx context.Context, mcVersion string) ([]Build, error) {
	return d.builds.get(ctx, mcVersion, func(ctx context.Context) ([]Build, error) {
		const limit = 25
		var out []Build
		offset := 0
		for page := 0; page < 2; page++ {
			var part spongeVersionsPage
			url := fmt.Sprintf("%s/versions?tags=minecraft:%s&limit=%d&offset=%d", spongeAPIBase, mcVersion, limit, offset)
			if err := getJSON(ctx, url, &part); err != nil {
				return nil, err
			}
			for name, v := range part.Artifacts {
				out = append(out, spongeBuild{mcVersion: mcVersion, build: name, recommended: v.Recommended})
			}
			if part.Size <= offset+limit {
				break
			}
			offset += limit
		}
		return out, nil
	})
}

func (d *SpongeVanillaDownloader) ClearCache() {
	d.versions.clear()
	d.builds.clear()
}
