// Package version provides build-time version information.
package version

import "fmt"

// Name is the application name shown in titles and tool output.
const Name = "Landmark Picker"

// These variables are set at build time using -ldflags
var (
	// Version is the semantic version
	Version = "0.1.0"

	// BuildTime is the UTC time when the binary was built
	BuildTime = "unknown"

	// GitCommit is the git commit hash
	GitCommit = "unknown"
)

// String returns a one-line description of the build.
func String() string {
	return fmt.Sprintf("%s v%s (built %s, commit %s)", Name, Version, BuildTime, GitCommit)
}
