package process

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-shellwords"

	"github.com/dncore/swi/internal/config"
	"github.com/dncore/swi/pkg/types"
)

// BuildArgv computes the argv a server launches with. If the server has
// enabled a custom launch_command (typically written by an installer that
// produced its own launch script), that string is tokenized with POSIX
// shell rules and its interpolation variables substituted; otherwise argv
// is assembled from the effective launch option directly.
func BuildArgv(serverID string, sc *types.ServerConfig, eff types.EffectiveLaunchOption, javaExecutable string) ([]string, error) {
	if sc.EnableLaunchCommand && strings.TrimSpace(sc.LaunchCommand) != "" {
		return tokenizeLaunchCommand(sc.LaunchCommand, sc, eff, javaExecutable)
	}
	return defaultArgv(serverID, eff, javaExecutable), nil
}

// defaultArgv builds "java -Xms<min>M -Xmx<max>M <java options>
// -Dswi.serverName=<id> -jar <jar> <server options>".
func defaultArgv(serverID string, eff types.EffectiveLaunchOption, javaExecutable string) []string {
	argv := []string{javaExecutable}
	if eff.MinHeapMemoryMB > 0 {
		argv = append(argv, "-Xms"+strconv.Itoa(eff.MinHeapMemoryMB)+"M")
	}
	if eff.MaxHeapMemoryMB > 0 {
		argv = append(argv, "-Xmx"+strconv.Itoa(eff.MaxHeapMemoryMB)+"M")
	}
	if opts := strings.TrimSpace(eff.JavaOptions); opts != "" {
		argv = append(argv, strings.Fields(opts)...)
	}
	argv = append(argv, "-Dswi.serverName="+serverID)
	argv = append(argv, "-jar", eff.JarFile)
	if opts := strings.TrimSpace(eff.ServerOptions); opts != "" {
		argv = append(argv, strings.Fields(opts)...)
	}
	return argv
}

// tokenizeLaunchCommand expands $JAVA_EXE/$JAVA_MEM_ARGS/$JAVA_ARGS/
// $SERVER_ID/$SERVER_JAR/$SERVER_ARGS in the raw command string and
// splits it with POSIX shell word-splitting rules (quoting, escapes),
// matching the original implementation's launch_command contract.
func tokenizeLaunchCommand(raw string, sc *types.ServerConfig, eff types.EffectiveLaunchOption, javaExecutable string) ([]string, error) {
	memArgs := ""
	if eff.MaxHeapMemoryMB > 0 {
		memArgs += "-Xmx" + strconv.Itoa(eff.MaxHeapMemoryMB) + "M"
	}
	if eff.MinHeapMemoryMB > 0 {
		if memArgs != "" {
			memArgs += " "
		}
		memArgs += "-Xms" + strconv.Itoa(eff.MinHeapMemoryMB) + "M"
	}

	replacer := strings.NewReplacer(
		"$JAVA_EXE", javaExecutable,
		"$JAVA_MEM_ARGS", memArgs,
		"$JAVA_ARGS", eff.JavaOptions,
		"$SERVER_ID", sc.Name,
		"$SERVER_JAR", eff.JarFile,
		"$SERVER_ARGS", eff.ServerOptions,
	)
	expanded := replacer.Replace(raw)

	parser := shellwords.NewParser()
	argv, err := parser.Parse(expanded)
	if err != nil {
		return nil, fmt.Errorf("parse launch_command: %w", err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("launch_command expanded to an empty command")
	}
	return argv, nil
}

// ResolveEffective merges a server's launch option against the global
// config. Thin wrapper so callers of this package don't need to import
// internal/config directly for the common path.
func ResolveEffective(globalCfg *config.SwitcherConfig, sc *types.ServerConfig) types.EffectiveLaunchOption {
	return config.EffectiveLaunchOption(globalCfg.ServerDefaults.LaunchOption, sc.LaunchOption)
}
