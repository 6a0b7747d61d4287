package javahome

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/dncore/swi/pkg/types"
)

var ErrUnknownPreset = errors.New("unknown java preset")

// Registry holds the union of user-registered presets (from config) and
// auto-detected executables found under the configured scan paths.
// Presets are keyed by name; a user registration with an existing
// auto-detected name takes over that name, matching the original
// "user registration supersedes the auto entry" rule.
type Registry struct {
	autoDetectionPaths []string

	mu         sync.RWMutex
	registered map[string]types.JavaPreset // user-configured, name -> preset
	detected   map[string]types.JavaPreset // auto-detected, name -> preset
}

// NewRegistry builds a registry from a loaded java config section. It does
// not scan for executables; call Rescan to populate auto-detected presets.
func NewRegistry(cfg types.JavaConfigSection) *Registry {
	r := &Registry{
		autoDetectionPaths: append([]string(nil), cfg.AutoDetectionPaths...),
		registered:         make(map[string]types.JavaPreset, len(cfg.Presets)),
		detected:           make(map[string]types.JavaPreset),
	}
	for name, p := range cfg.Presets {
		p.Name = name
		p.AutoDetected = false
		r.registered[name] = p
	}
	return r
}

// Rescan probes every registered preset's executable and every java
// executable discoverable under the auto-detection paths, replacing the
// prior detected set. Probe failures are logged and drop that one entry
// rather than aborting the scan.
func (r *Registry) Rescan(ctx context.Context) error {
	found := make(map[string]types.JavaPreset)
	for _, dir := range r.autoDetectionPaths {
		for _, exe := range findJavaExecutables(dir) {
			info, err := probe(ctx, exe)
			if err != nil || info == nil {
				if err != nil {
					log.Printf("javahome: probe %s failed: %v", exe, err)
				}
				continue
			}
			name := presetNameFor(info.JavaHome)
			for i := 1; ; i++ {
				candidate := name
				if i > 1 {
					candidate = fmt.Sprintf("%s-%d", name, i)
				}
				if existing, ok := found[candidate]; !ok || existing.Executable == exe {
					name = candidate
					break
				}
			}
			found[name] = types.JavaPreset{Name: name, Executable: exe, Info: info, AutoDetected: true}
		}
	}

	r.mu.Lock()
	r.detected = found
	for name, p := range r.registered {
		info, err := probe(ctx, p.Executable)
		if err != nil {
			log.Printf("javahome: probe registered preset %q (%s) failed: %v", name, p.Executable, err)
			p.Info = nil
		} else {
			p.Info = info
		}
		r.registered[name] = p
	}
	r.mu.Unlock()
	return nil
}

// Presets returns the merged view: user-registered entries override
// auto-detected ones sharing the same name.
func (r *Registry) Presets() []types.JavaPreset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	merged := make(map[string]types.JavaPreset, len(r.detected)+len(r.registered))
	for name, p := range r.detected {
		merged[name] = p
	}
	for name, p := range r.registered {
		merged[name] = p
	}

	out := make([]types.JavaPreset, 0, len(merged))
	for _, p := range merged {
		out = append(out, p)
	}
	return out
}

// Detections returns every auto-detected executable, independent of
// whether a user preset shadows its name.
func (r *Registry) Detections() []types.JavaExecutableInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.JavaExecutableInfo, 0, len(r.detected))
	for _, p := range r.detected {
		if p.Info != nil {
			out = append(out, *p.Info)
		}
	}
	return out
}

// Get looks up a preset by name across both registered and detected sets.
func (r *Registry) Get(name string) (types.JavaPreset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.registered[name]; ok {
		return p, true
	}
	p, ok := r.detected[name]
	return p, ok
}

// AddPreset probes executable and, on success, registers name -> preset,
// overwriting any auto-detected preset of the same name. Returns the
// resulting preset.
func (r *Registry) AddPreset(ctx context.Context, name, executable string) (types.JavaPreset, error) {
	info, err := probe(ctx, executable)
	if err != nil {
		return types.JavaPreset{}, fmt.Errorf("java executable %q did not respond: %w", executable, err)
	}

	p := types.JavaPreset{Name: name, Executable: executable, Info: info, AutoDetected: false}
	r.mu.Lock()
	r.registered[name] = p
	r.mu.Unlock()
	return p, nil
}

// RemovePreset deletes a user-registered preset by name. Reports whether
// one existed. Auto-detected presets cannot be removed this way — they
// disappear on the next Rescan if their executable is gone.
func (r *Registry) RemovePreset(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.registered[name]; !ok {
		return false
	}
	delete(r.registered, name)
	return true
}

// ConfigPresets returns the user-registered presets in the shape the
// global config persists, for callers writing config back to disk.
func (r *Registry) ConfigPresets() map[string]types.JavaPreset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]types.JavaPreset, len(r.registered))
	for name, p := range r.registered {
		out[name] = types.JavaPreset{Name: name, Executable: p.Executable}
	}
	return out
}

// presetNameFor derives a stable preset name from a java home directory,
// e.g. "/usr/lib/jvm/java-17-openjdk-amd64" -> "java-17-openjdk-amd64".
func presetNameFor(javaHome string) string {
	name := filepath.Base(filepath.Clean(javaHome))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "java"
	}
	return name
}

// findJavaExecutables looks for "java" binaries directly under dir and one
// level below it (dir/*/bin/java), matching how JDK installation
// directories are typically laid out (/usr/lib/jvm/<version>/bin/java).
func findJavaExecutables(dir string) []string {
	var out []string

	direct := filepath.Join(dir, "bin", "java")
	if isExecutableFile(direct) {
		out = append(out, direct)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return out
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		candidate := filepath.Join(dir, e.Name(), "bin", "java")
		if isExecutableFile(candidate) {
			out = append(out, candidate)
		}
	}
	return out
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0111 != 0
}
