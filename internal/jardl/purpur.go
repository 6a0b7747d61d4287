package jardl

import (
	"context"
	"fmt"
	"time"

	"github.com/dncore/swi/pkg/types"
)

const purpurAPIBase = "https://api.purpurmc.org/v2"

type purpurProjectInfo struct {
	Versions []string `json:"versions"`
}

type purpurBuildsInfo struct {
	Builds struct {
		All []string `json:"all"`
	} `json:"builds"`
}

type purpurBuildInfo struct {
	Timestamp int64 `json:"timestamp"`
}

// purpurBuild resolves its timestamp lazily with a second API call,
// matching ProjectBuild._fetch_info in the original.
type purpurBuild struct {
	mcVersion string
	build     string
}

func (b purpurBuild) Info() types.JarVersionInfo {
	return types.JarVersionInfo{
		Type:        types.ServerTypePurpur,
		MCVersion:   b.mcVersion,
		Build:       b.build,
		DownloadURL: fmt.Sprintf("%s/purpur/%s/%s/download", purpurAPIBase, b.mcVersion, b.build),
	}
}

func (b purpurBuild) FetchInfo(ctx context.Context) (types.JarVersionInfo, error) {
	info := b.Info()
	var resp purpurBuildInfo
	url := fmt.Sprintf("%s/purpur/%s/%s", purpurAPIBase, b.mcVersion, b.build)
	if err := getJSON(ctx, url, &resp); err != nil {
		return info, err
	}
	if resp.Timestamp > 0 {
		t := time.UnixMilli(resp.Timestamp)
		info.UpdatedAt = &t
	}
	info.MarkFetched()
	return info, nil
}

func (b purpurBuild) RequireBuild() bool { return false }

type PurpurDownloader struct {
	versions cachedVersions
	builds   cachedBuilds
}

func NewPurpurDownloader() *PurpurDownloader { return &PurpurDownloader{} }

func (d *PurpurDownloader) Type() types.ServerType { return types.ServerTypePurpur }

func (d *PurpurDownloader) ListVersions(ctx context.Context) ([]string, error) {
	return d.versions.get(ctx, func(ctx context.Context) ([]string, error) {
		var info purpurProjectInfo
		if err := getJSON(ctx, purpurAPIBase+"/purpur", &info); err != nil {
			return nil, err
		}
		return info.Versions, nil
	})
}

func (d *PurpurDownloader) ListBuilds(ctx context.Context, mcVersion string) ([]Build, error) {
	return d.builds.get(ctx, mcVersion, func(ctx context.Context) ([]Build, error) {
		var info purpurBuildsInfo
		url := fmt.Sprintf("%s/purpur/%s", purpurAPIBase, mcVersion)
		if err := getJSON(ctx, url, &info); err != nil {
			return nil, err
		}
		out := make([]Build, 0, len(info.Builds.All))
		for _, b := range info.Builds.All {
			out = append(out, purpurBuild{mcVersion: mcVersion, build: b})
		}
		return out, nil
	})
}

func (d *PurpurDownloader) ClearCache() {
	d.versions.clear()
	d.builds.clear()
}
