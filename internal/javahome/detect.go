// Package javahome detects installed Java executables and maintains the
// registry of named presets that server launch options reference.
package javahome

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/dncore/swi/pkg/types"
)

var majorVersionPrefix = regexp.MustCompile(`^(\d+)\.(\d+)`)

// parseMajorVersion turns a version string such as "1.8" or "22.0.1" into
// a major version integer: "1.8" -> 8, "22.0.1" -> 22. Returns -1 if s is
// empty or unparseable.
func parseMajorVersion(s string) int {
	if s == "" {
		return -1
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	m := majorVersionPrefix.FindStringSubmatch(s)
	if m == nil {
		return -1
	}
	major, _ := strconv.Atoi(m[1])
	if major > 1 {
		return major
	}
	minor, _ := strconv.Atoi(m[2])
	return minor
}

// probe runs the executable at path and parses its properties, falling
// back to a bare "-version" scrape when the properties dump fails or
// can't be parsed. Returns nil, nil when the executable doesn't run at
// all.
func probe(ctx context.Context, path string) (*types.JavaExecutableInfo, error) {
	if info, err := probeProperties(ctx, path); err == nil && info != nil {
		return info, nil
	}
	return probeVersionOnly(ctx, path)
}

func probeProperties(ctx context.Context, path string) (*types.JavaExecutableInfo, error) {
	cmd := exec.CommandContext(ctx, path, "-XshowSettings:properties", "-version")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return nil, err
	}

	fields := map[string]string{
		"java.specification.version": "",
		"java.home":                  "",
		"java.class.version":         "",
		"java.runtime.version":       "",
		"java.vendor":                "",
		"java.vendor.version":        "",
	}
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		for prefix := range fields {
			if fields[prefix] != "" {
				continue
			}
			if rest, ok := strings.CutPrefix(line, prefix+" ="); ok {
				fields[prefix] = strings.TrimSpace(rest)
			}
		}
	}

	specVersion := fields["java.specification.version"]
	runtimeVersion := fields["java.runtime.version"]
	javaHome := fields["java.home"]
	if javaHome == "" {
		javaHome = filepath.Dir(filepath.Dir(path))
	}
	if specVersion == "" && runtimeVersion == "" {
		return nil, fmt.Errorf("no java.specification.version or java.runtime.version in output of %s", path)
	}

	var classVersion float64
	if fields["java.class.version"] != "" {
		classVersion, _ = strconv.ParseFloat(fields["java.class.version"], 64)
	}

	return &types.JavaExecutableInfo{
		Path:                 filepath.Join(javaHome, "bin", filepath.Base(path)),
		JavaHome:             javaHome,
		SpecificationVersion: specVersion,
		RuntimeVersion:       runtimeVersion,
		ClassVersion:         classVersion,
		MajorVersion:         parseMajorVersion(firstNonEmpty(specVersion, runtimeVersion)),
		Vendor:               fields["java.vendor"],
		VendorVersion:        fields["java.vendor.version"],
	}, nil
}

var versionLineRe = regexp.MustCompile(`version "(.+?)"`)

func probeVersionOnly(ctx context.Context, path string) (*types.JavaExecutableInfo, error) {
	cmd := exec.CommandContext(ctx, path, "-version")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("run %s -version: %w", path, err)
	}

	var runtimeVersion string
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		if m := versionLineRe.FindStringSubmatch(scanner.Text()); m != nil {
			runtimeVersion = m[1] // last match wins, matching the reference parser
		}
	}
	if runtimeVersion == "" {
		return nil, fmt.Errorf("could not parse version from %s -version output", path)
	}

	return &types.JavaExecutableInfo{
		Path:           path,
		JavaHome:       filepath.Dir(filepath.Dir(path)),
		RuntimeVersion: runtimeVersion,
		MajorVersion:   parseMajorVersion(runtimeVersion),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
