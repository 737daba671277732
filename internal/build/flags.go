package build

import "fmt"

// ldFlags holds build-time information injected via -ldflags, e.g.:
//
//	go build -ldflags "-X ledctl/internal/build.buildName=ledctl -X ledctl/internal/build.buildVersion=0.1.0"
//
// Commit and Time are optional: a local dev build still runs with them
// reporting "unknown" rather than refusing to start. Name and Version are
// required, since cmd's cobra root command surfaces them directly.
type ldFlags struct {
	Name    string // Application name
	Time    string // Build timestamp
	Commit  string // Git commit hash
	Version string // Semantic version
}

// Package-level variables for build information.
// These are populated by -ldflags during compilation.
// Default values of "unknown" are used during development.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:    "unknown",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "unknown",
	}
)

// Initialize validates and copies build information from ldflags variables
// into the buildFlags struct. This must be called early in program startup
// to ensure all build information is properly set.
//
// Returns an error if a required build flag is missing.
func Initialize() error {
	if buildName == "" {
		return fmt.Errorf("BuildName is required")
	}
	if buildVersion == "" {
		return fmt.Errorf("BuildVersion is required")
	}

	buildFlags.Name = buildName
	buildFlags.Version = buildVersion
	if buildTime != "" {
		buildFlags.Time = buildTime
	}
	if buildCommit != "" {
		buildFlags.Commit = buildCommit
	}

	return nil
}

// GetBuildFlags returns the current build information.
// Initialize() must be called before this function.
func GetBuildFlags() *ldFlags {
	return buildFlags
}
