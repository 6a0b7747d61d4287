package jardl

import (
	"context"
	"fmt"

	"github.com/dncore/swi/pkg/types"
)

const bungeeCordJenkinsURL = "https://ci.md-5.net/job/BungeeCord/api/json"

type bungeeCordJenkinsInfo struct {
	Builds []struct {
		Number int `json:"number"`
	} `json:"builds"`
}

// BungeeCordDownloader has a single "version" (latest) — the proxy has no
// per-Minecraft-version builds, only a running Jenkins build counter.
type BungeeCordDownloader struct {
	builds cachedBuilds
}

func NewBungeeCordDownloader() *BungeeCordDownloader { return &BungeeCordDownloader{} }

func (d *BungeeCordDownloader) Type() types.ServerType { return types.ServerTypeBungeeCord }

func (d *BungeeCordDownloader) ListVersions(ctx context.Context) ([]string, error) {
	return []string{"latest"}, nil
}

func (d *BungeeCordDownloader) ListBuilds(ctx context.Context, mcVersion string) ([]Build, error) {
	return d.builds.get(ctx, mcVersion, func(ctx context.Context) ([]Build, error) {
		var info bungeeCordJenkinsInfo
		if err := getJSON(ctx, bungeeCordJenkinsURL, &info); err != nil {
			return nil, err
		}
		out := make([]Build, 0, len(info.Builds))
		for _, b := range info.Builds {
			out = append(out, simpleBuild{info: types.JarVersionInfo{
				Type:        types.ServerTypeBungeeCord,
				MCVersion:   "latest",
				Build:       fmt.Sprintf("%d", b.Number),
				DownloadURL: fmt.Sprintf("https://ci.md-5.net/job/BungeeCord/%d/artifact/bootstrap/target/BungeeCord.jar", b.Number),
			}})
		}
		return out, nil
	})
}

func (d *BungeeCordDownloader) ClearCache() {
	d.builds.clear()
}
