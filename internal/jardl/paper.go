package jardl

import (
	"context"
	"fmt"
	"time"

	"github.com/dncore/swi/pkg/types"
)

const paperAPIBase = "https://api.papermc.io/v2/projects"

type paperProjectInfo struct {
	ProjectID   string   `json:"project_id"`
	ProjectName string   `json:"project_name"`
	Versions    []string `json:"versions"`
}

type paperBuildDownload struct {
	Name   string `json:"name"`
	SHA256 string `json:"sha256"`
}

type paperBuildInfo struct {
	Build     int       `json:"build"`
	Time      time.Time `json:"time"`
	Channel   string    `json:"channel"`
	Downloads struct {
		Application *paperBuildDownload `json:"application"`
	} `json:"downloads"`
}

type paperBuildsInfo struct {
	Version string           `json:"version"`
	Builds  []paperBuildInfo `json:"builds"`
}

// paperAPIDownloader implements the PaperMC API v2 shape shared by the
// paper, waterfall, velocity and folia projects.
type paperAPIDownloader struct {
	serverType types.ServerType
	project    string
	versions   cachedVersions
	builds     cachedBuilds
}

func newPaperAPIDownloader(t types.ServerType, project string) *paperAPIDownloader {
	return &paperAPIDownloader{serverType: t, project: project}
}

func (d *paperAPIDownloader) Type() types.ServerType { return d.serverType }

func (d *paperAPIDownloader) ListVersions(ctx context.Context) ([]string, error) {
	return d.versions.get(ctx, func(ctx context.Context) ([]string, error) {
		var info paperProjectInfo
		if err := getJSON(ctx, fmt.Sprintf("%s/%s", paperAPIBase, d.project), &info); err != nil {
			return nil, err
		}
		return info.Versions, nil
	})
}

func (d *paperAPIDownloader) ListBuilds(ctx context.Context, mcVersion string) ([]Build, error) {
	return d.builds.get(ctx, mcVersion, func(ctx context.Context) ([]Build, error) {
		var info paperBuildsInfo
		url := fmt.Sprintf("%s/%s/versions/%s/builds", paperAPIBase, d.project, mcVersion)
		if err := getJSON(ctx, url, &info); err != nil {
			return nil, err
		}

		out := make([]Build, 0, len(info.Builds))
		for _, b := range info.Builds {
			if b.Downloads.Application == nil {
				continue
			}
			dlURL := fmt.Sprintf("%s/%s/versions/%s/builds/%d/downloads/%s",
				paperAPIBase, d.project, info.Version, b.Build, b.Downloads.Application.Name)
			updated := b.Time
			out = append(out, simpleBuild{info: types.JarVersionInfo{
				Type:        d.serverType,
				MCVersion:   info.Version,
				Build:       fmt.Sprintf("%d", b.Build),
				DownloadURL: dlURL,
				Filename:    b.Downloads.Application.Name,
				UpdatedAt:   &updated,
				Recommended: b.Channel == "default",
			}})
		}
		return out, nil
	})
}

func (d *paperAPIDownloader) ClearCache() {
	d.versions.clear()
	d.builds.clear()
}
