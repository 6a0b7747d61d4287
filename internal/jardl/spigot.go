package jardl

import (
	"context"
	"regexp"
	"sort"
	"strconv"

	"github.com/dncore/swi/pkg/types"
)

const (
	spigotVersionsURL = "https://hub.spigotmc.org/versions/"
	spigotBuildToolsURL = "https://hub.spigotmc.org/jenkins/job/BuildTools/lastSuccessfulBuild/artifact/target/BuildTools.jar"
)

var (
	spigotVersionPattern  = regexp.MustCompile(`<a href="(\d+\.\d+(\.\d+)?)\.json">`)
	spigotBuildSavedLine  = regexp.MustCompile(`^\s*-?\s*Saved as (\S+\.jar)\s*$`)
	spigotVersionDigitsRe = regexp.MustCompile(`\d+`)
)

// spigotBuild always downloads the same BuildTools.jar; the server jar is
// produced by running it with --rev <mcVersion>, matching SpigotBuilder.
type spigotBuild struct {
	mcVersion string
}

func (b spigotBuild) Info() types.JarVersionInfo {
	return types.JarVersionInfo{
		Type:         types.ServerTypeSpigot,
		MCVersion:    b.mcVersion,
		Build:        "latest",
		DownloadURL:  spigotBuildToolsURL,
		RequireBuild: true,
	}
}

func (b spigotBuild) FetchInfo(ctx context.Context) (types.JarVersionInfo, error) {
	info := b.Info()
	info.MarkFetched()
	return info, nil
}

func (b spigotBuild) RequireBuild() bool { return true }

func (b spigotBuild) InstallCommand(javaExecutable, installerPath, mcVersion string) ([]string, string) {
	args := []string{
		"-jar", installerPath,
		"--compile", "SPIGOT",
		"--rev", mcVersion,
		"--output-dir", "..",
	}
	return args, ".spigot-builder"
}

func (b spigotBuild) ParseInstallLog(line string) (string, bool) {
	if m := spigotBuildSavedLine.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	return "", false
}

// SpigotDownloader scrapes hub.spigotmc.org's version index page; the
// only download it ever offers is the shared BuildTools.jar.
type SpigotDownloader struct {
	versions cachedVersions
}

func NewSpigotDownloader() *SpigotDownloader { return &SpigotDownloader{} }

func (d *SpigotDownloader) Type() types.ServerType { return types.ServerTypeSpigot }

func (d *SpigotDownloader) ListVersions(ctx context.Context) ([]string, error) {
	return d.versions.get(ctx, func(ctx context.Context) ([]string, error) {
		body, err := getBytes(ctx, spigotVersionsURL)
		if err != nil {
			return nil, err
		}
		matches := spigotVersionPattern.FindAllStringSubmatch(string(body), -1)
		out := make([]string, 0, len(matches))
		for _, m := range matches {
			out = append(out, m[1])
		}
		sort.Slice(out, func(i, j int) bool {
			return versionDigits(out[i]) < versionDigits(out[j])
		})
		return out, nil
	})
}

func (d *SpigotDownloader) ListBuilds(ctx context.Context, mcVersion string) ([]Build, error) {
	return []Build{spigotBuild{mcVersion: mcVersion}}, nil
}

func (d *SpigotDownloader) ClearCache() {
	d.versions.clear()
}

// versionDigits turns "1.20.4" into a comparable string key by zero-
// padding each numeric component, matching the original's
// [int(i) for i in re.findall(r"\d+", v)] sort key in spirit.
func versionDigits(v string) string {
	var key string
	for _, part := range spigotVersionDigitsRe.FindAllString(v, -1) {
		n, _ := strconv.Atoi(part)
		key += paddedInt(n)
	}
	return key
}

func paddedInt(n int) string {
	s := strconv.Itoa(n)
	for len(s) < 6 {
		s = "0" + s
	}
	return s
}
