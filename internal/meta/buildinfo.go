// Package meta reports the binary's own build metadata for the version
// command. Values come from the embedded module build info; release builds
// may override Version through -ldflags.
package meta

import (
	"runtime"
	"runtime/debug"
	"strings"
)

// Version is the release tag, set at link time. When left as "dev" the
// module version from build info is used instead, if available.
var Version = "dev"

// Info is the printable build summary.
type Info struct {
	Version   string
	GoVersion string
	Commit    string
	Modified  bool
}

// Detect reads the build info embedded in the running binary. Missing
// fields degrade to the link-time defaults.
func Detect() Info {
	inf := Info{Version: Version, GoVersion: runtime.Version()}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return inf
	}
	if inf.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		inf.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			inf.Commit = s.Value
		case "vcs.modified":
			inf.Modified = s.Value == "true"
		}
	}
	return inf
}

// String renders the summary on one line, e.g.
// "dev (go1.24, commit 1a2b3c4, modified)".
func (i Info) String() string {
	var sb strings.Builder
	sb.WriteString(i.Version)
	sb.WriteString(" (")
	sb.WriteString(i.GoVersion)
	if i.Commit != "" {
		sb.WriteString(", commit ")
		if len(i.Commit) > 12 {
			sb.WriteString(i.Commit[:12])
		} else {
			sb.WriteString(i.Commit)
		}
	}
	if i.Modified {
		sb.WriteString(", modified")
	}
	sb.WriteString(")")
	return sb.String()
}
