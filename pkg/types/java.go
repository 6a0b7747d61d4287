package types

// JavaExecutableInfo is what probing a java binary yields: either the
// full `-XshowSettings:properties` breakdown, or — when that output
// can't be parsed — just a runtime version scraped from `-version`.
type JavaExecutableInfo struct {
	Path                 string  `json:"path"`
	JavaHome             string  `json:"javaHome"`
	SpecificationVersion string  `json:"specificationVersion,omitempty"`
	RuntimeVersion       string  `json:"runtimeVersion,omitempty"`
	ClassVersion         float64 `json:"classVersion,omitempty"`
	MajorVersion         int     `json:"majorVersion"`
	Vendor               string  `json:"vendor,omitempty"`
	VendorVersion        string  `json:"vendorVersion,omitempty"`
}

// JavaPreset is one registered or auto-detected Java executable. Info is
// nil when a registered preset's executable has not (yet, or no longer)
// been successfully probed.
type JavaPreset struct {
	Name         string              `yaml:"-" json:"name"`
	Executable   string              `yaml:"executable" json:"executable"`
	Info         *JavaExecutableInfo `yaml:"-" json:"info,omitempty"`
	AutoDetected bool                `yaml:"-" json:"autoDetected"`
}

// MajorVersion returns the detected major version, or -1 if Info is nil.
func (p JavaPreset) MajorVersion() int {
	if p.Info == nil {
		return -1
	}
	return p.Info.MajorVersion
}

// RecommendationForRequired compares the preset's major version against
// a server's required major version: 0 = exact match (strong), 1 =
// installed is newer (weak, may still work), -1 = installed is older
// (incompatible).
func (p JavaPreset) RecommendationForRequired(required int) int {
	installed := p.MajorVersion()
	switch {
	case installed == required:
		return 0
	case installed > required:
		return 1
	default:
		return -1
	}
}

// JavaConfigSection is the java: block of the global config: extra
// auto-detection search paths plus user-registered presets.
type JavaConfigSection struct {
	AutoDetectionPaths []string              `yaml:"auto_detection_paths" json:"autoDetectionPaths"`
	Presets            map[string]JavaPreset `yaml:"presets" json:"presets"`
}

// DefaultJavaAutoDetectionPaths matches the original implementation's
// defaults for where to look for installed JDKs/JREs.
func DefaultJavaAutoDetectionPaths() []string {
	return []string{"/usr/lib/jvm", `C:\Program Files\Java`}
}
