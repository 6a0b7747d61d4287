package jardl

import (
	"context"
	"fmt"
	"time"

	"github.com/dncore/swi/pkg/types"
)

const mohistAPIBase = "https://mohistmc.com/api/v2/projects"

type mohistVersionsInfo struct {
	Versions []string `json:"versions"`
}

type mohistBuildInfo struct {
	Number      int   `json:"number"`
	CreatedAtMs int64 `json:"createdAt"`
}

type mohistBuildsInfo struct {
	ProjectVersion string            `json:"projectVersion"`
	Builds         []mohistBuildInfo `json:"builds"`
}

// mohistFamilyDownloader covers mohist, banner and youer, which are
// distinct project ids on an otherwise identical API shape.
type mohistFamilyDownloader struct {
	serverType types.ServerType
	projectID  string
	versions   cachedVersions
	builds     cachedBuilds
}

func newMohistFamilyDownloader(t types.ServerType, projectID string) *mohistFamilyDownloader {
	return &mohistFamilyDownloader{serverType: t, projectID: projectID}
}

func (d *mohistFamilyDownloader) Type() types.ServerType { return d.serverType }

func (d *mohistFamilyDownloader) ListVersions(ctx context.Context) ([]string, error) {
	return d.versions.get(ctx, func(ctx context.Context) ([]string, error) {
		var info mohistVersionsInfo
		if err := getJSON(ctx, fmt.Sprintf("%s/%s", mohistAPIBase, d.projectID), &info); err != nil {
			return nil, err
		}
		return info.Versions, nil
	})
}

func (d *mohistFamilyDownloader) ListBuilds(ctx context.Context, mcVersion string) ([]Build, error) {
	return d.builds.get(ctx, mcVersion, func(ctx context.Context) ([]Build, error) {
		var info mohistBuildsInfo
		url := fmt.Sprintf("%s/%s/%s/builds", mohistAPIBase, d.projectID, mcVersion)
		if err := getJSON(ctx, url, &info); err != nil {
			return nil, err
		}
		out := make([]Build, 0, len(info.Builds))
		for _, b := range info.Builds {
			updated := time.UnixMilli(b.CreatedAtMs)
			out = append(out, simpleBuild{info: types.JarVersionInfo{
				Type:        d.serverType,
				MCVersion:   info.ProjectVersion,
				Build:       fmt.Sprintf("%d", b.Number),
				DownloadURL: fmt.Sprintf("%s/%s/%s/builds/%d/download", mohistAPIBase, d.projectID, mcVersion, b.Number),
				UpdatedAt:   &updated,
			}})
		}
		return out, nil
	})
}

func (d *mohistFamilyDownloader) ClearCache() {
	d.versions.clear()
	d.builds.clear()
}
