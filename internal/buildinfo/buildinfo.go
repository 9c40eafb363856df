// Package buildinfo carries version details stamped at link time:
//
//	go build -ldflags "-X orthoglobe/internal/buildinfo.Version=v1.2.0 -X orthoglobe/internal/buildinfo.Commit=$(git rev-parse --short HEAD)"
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short returns a compact build identifier for window titles and logs.
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		return Commit
	}
	return "dev"
}

// String describes the build on one line.
func String() string {
	return fmt.Sprintf("orthoglobe %s (commit %s, built %s)", Version, Commit, Date)
}
