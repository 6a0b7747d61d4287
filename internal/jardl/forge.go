package jardl

import (
	"context"
	"fmt"

	"github.com/dncore/swi/pkg/types"
)

const (
	forgeIndexURL = "https://files.minecraftforge.net/net/minecraftforge/forge/maven-metadata.json"
	forgePromoURL = "https://files.minecraftforge.net/net/minecraftforge/forge/promotions_slim.json"
	forgeMetaURL  = "https://files.minecraftforge.net/net/minecraftforge/forge/%s/meta.json"
	forgeDLURL    = "https://maven.minecraftforge.net/net/minecraftforge/forge/%s/%s"
)

type forgePromosInfo struct {
	Promos map[string]string `json:"promos"`
}

type forgeMetaInfo struct {
	Classifiers map[string]map[string]string `json:"classifiers"`
}

// forgeBuild lazily resolves whether the "installer" classifier exists
// for its version, matching ForgeBuild._fetch_info — only installer
// builds carry a download URL; for an older build without one,
// DownloadURL stays empty and installing it fails at the download.
type forgeBuild struct {
	mcVersion   string
	forgeVer    string
	recommended bool
}

func (b forgeBuild) Info() types.JarVersionInfo {
	return types.JarVersionInfo{
		Type:         types.ServerTypeForge,
		MCVersion:    b.mcVersion,
		Build:        b.forgeVer,
		Recommended:  b.recommended,
		RequireBuild: true,
	}
}

func (b forgeBuild) FetchInfo(ctx context.Context) (types.JarVersionInfo, error) {
	info := b.Info()
	var meta forgeMetaInfo
	if err := getJSON(ctx, fmt.Sprintf(forgeMetaURL, b.forgeVer), &meta); err != nil {
		return info, err
	}
	if _, ok := meta.Classifiers["installer"]; ok {
		filename := fmt.Sprintf("forge-%s-installer.jar", b.forgeVer)
		info.Filename = filename
		info.DownloadURL = fmt.Sprintf(forgeDLURL, b.forgeVer, filename)
	}
	info.MarkFetched()
	return info, nil
}

func (b forgeBuild) RequireBuild() bool { return true }

func (b forgeBuild) InstallCommand(javaExecutable, installerPath, mcVersion string) ([]string, string) {
	return []string{"-jar", installerPath, "--installServer"}, ""
}

func (b forgeBuild) ParseInstallLog(line string) (string, bool) { return "", false }

// LaunchScript reports the run script the installer generates alongside
// the libraries it unpacks; ApplyServerJar uses this instead of a jar
// filename when present.
func (b forgeBuild) LaunchScript() string { return "run.sh" }

type ForgeDownloader struct {
	versions cachedVersions
	builds   cachedBuilds
}

func NewForgeDownloader() *ForgeDownloader { return &ForgeDownloader{} }

func (d *ForgeDownloader) Type() types.ServerType { return types.ServerTypeForge }

func (d *ForgeDownloader) ListVersions(ctx context.Context) ([]string, error) {
	return d.versions.get(ctx, func(ctx context.Context) ([]string, error) {
		var index map[string][]string
		if err := getJSON(ctx, forgeIndexURL, &index); err != nil {
			return nil, err
		}
		out := make([]string, 0, len(index))
		for mcVer := range index {
			out = append(out, mcVer)
		}
		return out, nil
	})
}

func (d *ForgeDownloader) ListBuilds(ctx context.Context, mcVersion string) ([]Build, error) {
	return d.builds.get(ctx, mcVersion, func(ctx context.Context) ([]Build, error) {
		var index map[string][]string
		if err := getJSON(ctx, forgeIndexURL, &index); err != nil {
			return nil, err
		}
		forgeVersions, ok := index[mcVersion]
		if !ok {
			return nil, nil
		}

		var promos forgePromosInfo
		_ = getJSON(ctx, forgePromoURL, &promos) // best-effort: missing promos just means no "recommended" flag

		recommendedVer := promos.Promos[mcVersion+"-recommended"]
		out := make([]Build, 0, len(forgeVersions))
		for _, fv := range forgeVersions {
			out = append(out, forgeBuild{
				mcVersion:   mcVersion,
				forgeVer:    fv,
				recommended: recommendedVer != "" && fv == mcVersion+"-"+recommendedVer,
			})
		}
		return out, nil
	})
}

func (d *ForgeDownloader) ClearCache() {
	d.versions.clear()
	d.builds.clear()
}
