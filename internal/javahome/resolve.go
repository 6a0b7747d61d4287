package javahome

// Resolve turns a launch option's java_preset/java_executable pair into an
// actual executable path: an explicit executable always wins (it may be a
// bare command name resolved via PATH at exec time, or an absolute path),
// otherwise the named preset is looked up.
func (r *Registry) Resolve(preset, executable string) (string, error) {
	if executable != "" {
		return executable, nil
	}
	p, ok := r.Get(preset)
	if !ok {
		return "", ErrUnknownPreset
	}
	return p.Executable, nil
}
