// Package version exposes build metadata, set at build time via
// -ldflags or recovered from the embedded VCS info.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Set at build time using -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Get returns the application version, falling back to module build
// info when no release version was stamped in.
func Get() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			return info.Main.Version
		}
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && len(setting.Value) >= 7 {
				return "dev-" + setting.Value[:7]
			}
		}
	}
	return "dev"
}

// Commit returns the git commit hash.
func Commit() string {
	if GitCommit != "" && GitCommit != "unknown" {
		return GitCommit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				return setting.Value
			}
		}
	}
	return "unknown"
}

// Detailed returns a multi-line version report.
func Detailed() string {
	parts := []string{
		fmt.Sprintf("Version: %s", Get()),
		fmt.Sprintf("Commit: %s", Commit()),
	}
	if BuildTime != "unknown" && BuildTime != "" {
		parts = append(parts, fmt.Sprintf("Built: %s", BuildTime))
	}
	parts = append(parts,
		fmt.Sprintf("Go: %s", runtime.Version()),
		fmt.Sprintf("Platform: %s/%s", runtime.GOOS, runtime.GOARCH),
	)
	return strings.Join(parts, "\n")
}
