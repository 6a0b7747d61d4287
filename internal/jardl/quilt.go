package jardl

import (
	"context"
	"strings"

	"github.com/dncore/swi/pkg/types"
)

const quiltMetaURL = "https://meta.quiltmc.org/v3/versions"

type quiltVersionsInfo struct {
	Game []struct {
		Version string `json:"version"`
		Stable  bool   `json:"stable"`
	} `json:"game"`
	Loader []struct {
		Build   int    `json:"build"`
		Version string `json:"version"`
	} `json:"loader"`
	Installer []struct {
		URL     string `json:"url"`
		Version string `json:"version"`
	} `json:"installer"`
}

// quiltBuild is an Installable: the "installer" jar runs
// `install server <mcVersion> --download-server --install-dir=<dir>`,
// producing quilt-server-launch.jar in the server directory.
type quiltBuild struct {
	mcVersion     string
	loaderVersion string
	downloadURL   string
}

func (b quiltBuild) Info() types.JarVersionInfo {
	return types.JarVersionInfo{
		Type:         types.ServerTypeQuilt,
		MCVersion:    b.mcVersion,
		Build:        b.loaderVersion,
		DownloadURL:  b.downloadURL,
		RequireBuild: true,
		Filename:     "quilt-server-launch.jar",
	}
}

func (b quiltBuild) FetchInfo(ctx context.Context) (types.JarVersionInfo, error) {
	info := b.Info()
	info.MarkFetched()
	return info, nil
}

func (b quiltBuild) RequireBuild() bool { return true }

func (b quiltBuild) InstallCommand(javaExecutable, installerPath, mcVersion string) ([]string, string) {
	args := []string{
		"-jar", installerPath,
		"install", "server", mcVersion,
		"--download-server",
		"--install-dir=..",
	}
	return args, ".quilt-installer"
}

func (b quiltBuild) ParseInstallLog(line string) (string, bool) {
	return "", false // the launch jar's name is fixed, not parsed from output
}

type QuiltDownloader struct {
	versions cachedVersions
	builds   cachedBuilds
}

func NewQuiltDownloader() *QuiltDownloader { return &QuiltDownloader{} }

func (d *QuiltDownloader) Type() types.ServerType { return types.ServerTypeQuilt }

func (d *QuiltDownloader) fetchVersionsInfo(ctx context.Context) (quiltVersionsInfo, error) {
	var info quiltVersionsInfo
	err := getJSON(ctx, quiltMetaURL, &info)
	return info, err
}

func (d *QuiltDownloader) ListVersions(ctx context.Context) ([]string, error) {
	return d.versions.get(ctx, func(ctx context.Context) ([]string, error) {
		info, err := d.fetchVersionsInfo(ctx)
		if err != nil {
			return nil, err
		}
		var out []string
		for i := len(info.Game) - 1; i >= 0; i-- {
			if info.Game[i].Stable {
				out = append(out, info.Game[i].Version)
			}
		}
		return out, nil
	})
}

func (d *QuiltDownloader) ListBuilds(ctx context.Context, mcVersion string) ([]Build, error) {
	return d.builds.get(ctx, mcVersion, func(ctx context.Context) ([]Build, error) {
		info, err := d.fetchVersionsInfo(ctx)
		if err != nil {
			return nil, err
		}

		var installerURL string
		for _, inst := range info.Installer {
			if strings.HasPrefix(inst.Version, "0.") {
				installerURL = inst.URL
				break
			}
		}

		out := make([]Build, 0, len(info.Loader))
		for i := len(info.Loader) - 1; i >= 0; i-- {
			out = append(out, quiltBuild{mcVersion: mcVersion, loaderVersion: info.Loader[i].Version, downloadURL: installerURL})
		}
		return out, nil
	})
}

func (d *QuiltDownloader) ClearCache() {
	d.versions.clear()
	d.builds.clear()
}
