package process

import (
	"os"
	"path/filepath"
	"strings"
)

const eulaFilename = "eula.txt"

// ReadEULA reports whether a server directory has accepted the Mojang
// EULA, matching vanilla/Spigot/Paper's own "eula=true" file format.
func ReadEULA(serverDir string) (bool, error) {
	data, err := os.ReadFile(filepath.Join(serverDir, eulaFilename))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if ok && strings.TrimSpace(key) == "eula" {
			return strings.TrimSpace(value) == "true", nil
		}
	}
	return false, nil
}

// WriteEULA writes eula.txt with the given acceptance value.
func WriteEULA(serverDir string, accepted bool) error {
	content := "#generated by swi\neula=false\n"
	if accepted {
		content = "#generated by swi\neula=true\n"
	}
	return os.WriteFile(filepath.Join(serverDir, eulaFilename), []byte(content), 0644)
}
