package jardl

// Installable is implemented by Build values whose RequireBuild() is
// true: rather than a runnable server jar, the download is an installer
// artifact that must be executed once (`java -jar installer ...`) inside
// a build working directory before a server jar exists. Driving the
// subprocess to completion and watching the server's BUILD lifecycle is
// internal/switcher's job; this package only knows how to invoke and
// parse a given installer.
type Installable interface {
	Build
	// InstallCommand returns the arguments to pass to javaExecutable (not
	// including the executable itself) and the working-directory name,
	// relative to the server directory, the installer should run in.
	InstallCommand(javaExecutable, installerPath, mcVersion string) (args []string, workDir string)
	// ParseInstallLog inspects one line of the installer's combined
	// stdout/stderr and reports the produced jar filename, if this line
	// reveals it. Callers should keep the last match, matching the
	// original's behavior of scanning every line for a "Saved as ..."
	// style message.
	ParseInstallLog(line string) (jarFilename string, matched bool)
}

// LaunchScriptProducer is implemented by Installable builds whose
// installer produces a launch script rather than a directly runnable
// server jar (modern Forge/NeoForge installers generate run.sh alongside
// a libraries directory). Callers type-assert for this instead of it
// being part of Installable, since most installers (Quilt, Spigot) still
// hand back a plain jar.
type LaunchScriptProducer interface {
	LaunchScript() string
}
