package jardl

import (
	"testing"

	"github.com/dncore/swi/pkg/types"
)

func TestNeoForgeMCVersion(t *testing.T) {
	cases := map[string]string{
		"21.1.57": "1.21.1",
		"20.4.9":  "1.20.4",
		"21.0.0":  "1.21",
	}
	for in, want := range cases {
		if got := neoForgeMCVersion(in); got != want {
			t.Errorf("neoForgeMCVersion(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSpigotBuildSavedLinePattern(t *testing.T) {
	if _, ok := spigotBuild{}.ParseInstallLog("- Saved as spigot-1.20.4.jar"); !ok {
		t.Error("expected match on \"- Saved as ...\" line")
	}
	if name, ok := spigotBuild{}.ParseInstallLog("Saved as spigot-1.20.4.jar"); !ok || name != "spigot-1.20.4.jar" {
		t.Errorf("ParseInstallLog = %q, %v", name, ok)
	}
	if _, ok := spigotBuild{}.ParseInstallLog("Compiling Spigot..."); ok {
		t.Error("expected no match on unrelated line")
	}
}

func TestVersionDigitsOrdersNumerically(t *testing.T) {
	if versionDigits("1.9") >= versionDigits("1.20.4") {
		t.Error("expected 1.9 to sort before 1.20.4 numerically, not lexically")
	}
}

func TestRegistryDefaultsCoverEveryAdvertisedServerType(t *testing.T) {
	reg := NewRegistry()
	want := []types.ServerType{
		types.ServerTypeVanilla, types.ServerTypePaper, types.ServerTypeWaterfall,
		types.ServerTypeVelocity, types.ServerTypeFolia, types.ServerTypeSpigot,
		types.ServerTypeForge, types.ServerTypeNeoForge, types.ServerTypeFabric,
		types.ServerTypeQuilt, types.ServerTypePurpur, types.ServerTypeMohist,
		types.ServerTypeBanner, types.ServerTypeYouer, types.ServerTypeBungeeCord,
		types.ServerTypeSpongeVanilla,
	}
	for _, t2 := range want {
		if _, ok := reg.Get(t2); !ok {
			t.Errorf("missing downloader for %s", t2)
		}
	}
}

func TestInstallableBuildsSatisfyInterface(t *testing.T) {
	var builds []Installable = []Installable{
		quiltBuild{mcVersion: "1.20.4"},
		forgeBuild{mcVersion: "1.20.4"},
		neoForgeBuild{mcVersion: "1.21.1"},
		spigotBuild{mcVersion: "1.20.4"},
	}
	for _, b := range builds {
		if !b.RequireBuild() {
			t.Errorf("%T: expected RequireBuild() = true", b)
		}
	}
}

func TestForgeBuildInfoCarriesRequireBuild(t *testing.T) {
	b := forgeBuild{mcVersion: "1.20.4", forgeVer: "1.20.4-49.0.3"}
	info := b.Info()
	if !info.RequireBuild {
		t.Error("expected RequireBuild = true")
	}
	if info.MCVersion != "1.20.4" {
		t.Errorf("MCVersion = %q", info.MCVersion)
	}
}
