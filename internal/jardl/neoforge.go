package jardl

import (
	"context"
	"fmt"
	"strings"

	"github.com/dncore/swi/pkg/types"
)

const (
	neoForgeVersionsURL = "https://maven.neoforged.net/api/maven/versions/releases/net/neoforged/neoforge"
	neoForgeDLBase       = "https://maven.neoforged.net/releases/net/neoforged/neoforge/%s/neoforge-%s-installer.jar"
)

type neoForgeVersionsInfo struct {
	Versions []string `json:"versions"`
}

// neoForgeMCVersion derives the Minecraft version a NeoForge loader
// version targets, e.g. "21.1.57" -> "1.21.1", matching get_mcversion.
func neoForgeMCVersion(loaderVersion string) string {
	parts := strings.SplitN(loaderVersion, ".", 3)
	if len(parts) < 2 {
		return loaderVersion
	}
	mc := fmt.Sprintf("1.%s.%s", parts[0], parts[1])
	return strings.TrimSuffix(mc, ".0")
}

type neoForgeBuild struct {
	mcVersion     string
	loaderVersion string
}

func (b neoForgeBuild) Info() types.JarVersionInfo {
	filename := fmt.Sprintf("neoforge-%s-installer.jar", b.loaderVersion)
	return types.JarVersionInfo{
		Type:         types.ServerTypeNeoForge,
		MCVersion:    b.mcVersion,
		Build:        b.loaderVersion,
		DownloadURL:  fmt.Sprintf(neoForgeDLBase, b.loaderVersion, b.loaderVersion),
		Filename:     filename,
		RequireBuild: true,
	}
}

func (b neoForgeBuild) FetchInfo(ctx context.Context) (types.JarVersionInfo, error) {
	info := b.Info()
	info.MarkFetched()
	return info, nil
}

func (b neoForgeBuild) RequireBuild() bool { return true }

func (b neoForgeBuild) InstallCommand(javaExecutable, installerPath, mcVersion string) ([]string, string) {
	return []string{"-jar", installerPath, "--install-server"}, ""
}

func (b neoForgeBuild) ParseInstallLog(line string) (string, bool) { return "", false }

// LaunchScript reports the run script the installer generates alongside
// the libraries it unpacks; ApplyServerJar uses this instead of a jar
// filename when present.
func (b neoForgeBuild) LaunchScript() string { return "run.sh" }

type NeoForgeDownloader struct {
	versions cachedVersions
	builds   cachedBuilds
}

func NewNeoForgeDownloader() *NeoForgeDownloader { return &NeoForgeDownloader{} }

func (d *NeoForgeDownloader) Type() types.ServerType { return types.ServerTypeNeoForge }

func (d *NeoForgeDownloader) fetchGrouped(ctx context.Context) (map[string][]string, error) {
	var info neoForgeVersionsInfo
	if err := getJSON(ctx, neoForgeVersionsURL, &info); err != nil {
		return nil, err
	}
	grouped := make(map[string][]string)
	for _, v := range info.Versions {
		mc := neoForgeMCVersion(v)
		grouped[mc] = append(grouped[mc], v)
	}
	return grouped, nil
}

func (d *NeoForgeDownloader) ListVersions(ctx context.Context) ([]string, error) {
	return d.versions.get(ctx, func(ctx context.Context) ([]string, error) {
		grouped, err := d.fetchGrouped(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(grouped))
		for mc := range grouped {
			out = append(out, mc)
		}
		return out, nil
	})
}

func (d *NeoForgeDownloader) ListBuilds(ctx context.Context, mcVersion string) ([]Build, error) {
	return d.builds.get(ctx, mcVersion, func(ctx context.Context) ([]Build, error) {
		grouped, err := d.fetchGrouped(ctx)
		if err != nil {
			return nil, err
		}
		loaderVersions := grouped[mcVersion]
		out := make([]Build, 0, len(loaderVersions))
		for _, lv := range loaderVersions {
			out = append(out, neoForgeBuild{mcVersion: mcVersion, loaderVersion: lv})
		}
		return out, nil
	})
}

func (d *NeoForgeDownloader) ClearCache() {
	d.versions.clear()
	d.builds.clear()
}
