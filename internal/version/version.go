// Package version carries the build metadata stamped into the gazette binary.
package version

// Overridden at build time:
//
//	go build -ldflags "-X .../internal/version.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
