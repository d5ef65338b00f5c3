// Package version carries build metadata for the repohealth binary.
package version

import (
	"runtime/debug"
)

// Build metadata, overridden with -ldflags "-X".
var (
	Version = "dev"
	Commit  = "<unknown>"
	Date    = "<unknown>"
)

const (
	settingRevision = "vcs.revision"
	settingTime     = "vcs.time"
	develVersion    = "(devel)"
	shortCommitLen  = 12
)

// InitBinaryVersion fills unset metadata from the embedded Go build info.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "dev" && info.Main.Version != "" && info.Main.Version != develVersion {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case settingRevision:
			if Commit == "<unknown>" {
				Commit = setting.Value
				if len(Commit) > shortCommitLen {
					Commit = Commit[:shortCommitLen]
				}
			}
		case settingTime:
			if Date == "<unknown>" {
				Date = setting.Value
			}
		}
	}
}
