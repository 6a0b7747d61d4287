package javahome

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/dncore/swi/pkg/types"
)

func TestParseMajorVersion(t *testing.T) {
	cases := map[string]int{
		"1.8":     8,
		"22.0.1":  22,
		"17":      17,
		"":        -1,
		"garbage": -1,
	}
	for in, want := range cases {
		if got := parseMajorVersion(in); got != want {
			t.Errorf("parseMajorVersion(%q) = %d, want %d", in, got, want)
		}
	}
}

// writeFakeJava writes a shell script standing in for a java executable
// that prints a -XshowSettings:properties style dump to stdout, mirroring
// the lines utiljava.py's check_java_executable scans for.
func writeFakeJava(t *testing.T, path, specVersion, runtimeVersion, vendor string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake java script assumes a POSIX shell")
	}
	script := "#!/bin/sh\n" +
		"cat <<EOF\n" +
		"java.specification.version = " + specVersion + "\n" +
		"java.home = " + filepath.Dir(filepath.Dir(path)) + "\n" +
		"java.class.version = 61.0\n" +
		"java.runtime.version = " + runtimeVersion + "\n" +
		"java.vendor = " + vendor + "\n" +
		"java.vendor.version = 1\n" +
		"EOF\n"
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
}

func TestProbePropertiesParsesFields(t *testing.T) {
	javaHome := t.TempDir()
	exe := filepath.Join(javaHome, "bin", "java")
	writeFakeJava(t, exe, "17", "17.0.2+8", "Eclipse Adoptium")

	info, err := probe(context.Background(), exe)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if info.MajorVersion != 17 {
		t.Errorf("MajorVersion = %d, want 17", info.MajorVersion)
	}
	if info.Vendor != "Eclipse Adoptium" {
		t.Errorf("Vendor = %q", info.Vendor)
	}
	if info.JavaHome != javaHome {
		t.Errorf("JavaHome = %q, want %q", info.JavaHome, javaHome)
	}
}

func TestRegistryRescanFindsAutoDetectedPresetAndUserOverride(t *testing.T) {
	root := t.TempDir()
	jdkDir := filepath.Join(root, "jdk-21")
	exe := filepath.Join(jdkDir, "bin", "java")
	writeFakeJava(t, exe, "21", "21+35", "Eclipse Adoptium")

	reg := NewRegistry(types.JavaConfigSection{AutoDetectionPaths: []string{root}})
	if err := reg.Rescan(context.Background()); err != nil {
		t.Fatalf("Rescan: %v", err)
	}

	p, ok := reg.Get("jdk-21")
	if !ok {
		t.Fatal("expected auto-detected preset \"jdk-21\"")
	}
	if !p.AutoDetected {
		t.Error("expected AutoDetected = true")
	}
	if p.MajorVersion() != 21 {
		t.Errorf("MajorVersion() = %d, want 21", p.MajorVersion())
	}

	// A user registration under the same name supersedes the auto entry.
	if _, err := reg.AddPreset(context.Background(), "jdk-21", exe); err != nil {
		t.Fatalf("AddPreset: %v", err)
	}
	p, ok = reg.Get("jdk-21")
	if !ok || p.AutoDetected {
		t.Error("expected registered preset to shadow the auto-detected one")
	}

	if !reg.RemovePreset("jdk-21") {
		t.Error("expected RemovePreset to report removal")
	}
	p, ok = reg.Get("jdk-21")
	if !ok || !p.AutoDetected {
		t.Error("expected auto-detected preset to resurface after removing the override")
	}
}

func TestRegistryResolve(t *testing.T) {
	root := t.TempDir()
	exe := filepath.Join(root, "bin", "java")
	writeFakeJava(t, exe, "8", "1.8.0_392", "Oracle")

	reg := NewRegistry(types.JavaConfigSection{
		Presets: map[string]types.JavaPreset{"legacy": {Executable: exe}},
	})
	if err := reg.Rescan(context.Background()); err != nil {
		t.Fatalf("Rescan: %v", err)
	}

	got, err := reg.Resolve("legacy", "")
	if err != nil || got != exe {
		t.Errorf("Resolve(legacy, \"\") = %q, %v", got, err)
	}

	got, err = reg.Resolve("", "/custom/java")
	if err != nil || got != "/custom/java" {
		t.Errorf("Resolve(\"\", override) = %q, %v", got, err)
	}

	if _, err := reg.Resolve("missing", ""); err != ErrUnknownPreset {
		t.Errorf("Resolve(missing) err = %v, want ErrUnknownPreset", err)
	}
}
