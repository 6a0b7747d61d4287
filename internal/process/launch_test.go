package process

import (
	"reflect"
	"testing"

	"github.com/dncore/swi/pkg/types"
)

func TestDefaultArgv(t *testing.T) {
	eff := types.EffectiveLaunchOption{
		JavaOptions:     "-Dfile.encoding=UTF-8",
		JarFile:         "server.jar",
		ServerOptions:   "nogui",
		MaxHeapMemoryMB: 2048,
		MinHeapMemoryMB: 1024,
	}
	argv := defaultArgv("survival", eff, "/usr/bin/java")
	want := []string{"/usr/bin/java", "-Xms1024M", "-Xmx2048M", "-Dfile.encoding=UTF-8", "-Dswi.serverName=survival", "-jar", "server.jar", "nogui"}
	if !reflect.DeepEqual(argv, want) {
		t.Errorf("argv = %v, want %v", argv, want)
	}
}

func TestTokenizeLaunchCommandInterpolatesAndQuotes(t *testing.T) {
	sc := &types.ServerConfig{Name: "survival"}
	eff := types.EffectiveLaunchOption{
		JarFile:         "paper.jar",
		JavaOptions:     "-Dfile.encoding=UTF-8",
		ServerOptions:   "nogui",
		MaxHeapMemoryMB: 4096,
		MinHeapMemoryMB: 4096,
	}
	raw := `$JAVA_EXE $JAVA_MEM_ARGS $JAVA_ARGS -jar "$SERVER_JAR" $SERVER_ARGS`
	argv, err := tokenizeLaunchCommand(raw, sc, eff, "/opt/java17/bin/java")
	if err != nil {
		t.Fatalf("tokenizeLaunchCommand returned error: %v", err)
	}
	want := []string{"/opt/java17/bin/java", "-Xmx4096M", "-Xms4096M", "-Dfile.encoding=UTF-8", "-jar", "paper.jar", "nogui"}
	if !reflect.DeepEqual(argv, want) {
		t.Errorf("argv = %v, want %v", argv, want)
	}
}

func TestTokenizeLaunchCommandEmptyErrors(t *testing.T) {
	sc := &types.ServerConfig{Name: "x"}
	_, err := tokenizeLaunchCommand("   ", sc, types.EffectiveLaunchOption{}, "java")
	if err == nil {
		t.Fatal("expected error for empty expanded command")
	}
}
