package buildinfo

import (
	"runtime"
	"strings"

	"github.com/yndnr/habbo-go/internal/protocol"
)

// Build-time variables (set via ldflags).
var (
	// Version is the semantic version.
	Version = "dev"

	// Commit is the git commit hash.
	Commit = "unknown"

	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// Info contains build information.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildTime string `json:"build_time" yaml:"build_time"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

// Get returns the build information.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String returns a formatted version string.
func String() string {
	return Version + " (commit: " + Commit + ", built: " + BuildTime + ")"
}

// IsRelease reports whether Version was set to a release version.
func IsRelease() bool {
	return Version != "" && Version != "dev" && !strings.Contains(Version, "-dirty")
}

// ClientVersion is the version sent in authentication requests: the
// release version without a leading "v", or the protocol default.
func ClientVersion() string {
	if !IsRelease() {
		return protocol.DefaultClientVersion
	}
	return strings.TrimPrefix(Version, "v")
}
