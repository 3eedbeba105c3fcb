package build

import (
	"runtime"
	"runtime/debug"
)

// AppVersion is the semantic version of this release.
const AppVersion = "0.1.0"

// Commit can be set at link time with
// -ldflags "-X github.com/roasbeef/booksum/internal/build.Commit=<hash>".
var Commit string

// Version returns the release version.
func Version() string {
	return AppVersion
}

// CommitHash returns Commit, or the VCS revision stamped by the Go toolchain
// when Commit was not set.
func CommitHash() string {
	if Commit != "" {
		return Commit
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}

	return ""
}

// GoVersion returns the Go version the binary was built with.
func GoVersion() string {
	return runtime.Version()
}
