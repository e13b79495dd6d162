package main

import (
	"fmt"
	"runtime/debug"

	"github.com/livefir/databind/cmd/databind/commands"
)

// Version information (can be overridden at build time with -ldflags)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	commands.Execute(versionString())
}

func versionString() string {
	if commit == "unknown" {
		// Fall back to VCS info stamped by the go tool
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range info.Settings {
				if setting.Key == "vcs.revision" && len(setting.Value) >= 12 {
					commit = setting.Value[:12]
				}
			}
		}
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
}
