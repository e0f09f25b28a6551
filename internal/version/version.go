// Package version holds build-time version information for the rugcheck
// binary. The variables are populated via -ldflags:
//
//	go build -ldflags="-X github.com/54b3r/rugcheck-go/internal/version.Version=v1.2.3 \
//	                    -X github.com/54b3r/rugcheck-go/internal/version.Commit=abc1234 \
//	                    -X github.com/54b3r/rugcheck-go/internal/version.BuildDate=2026-01-01"
//
// Without ldflags (e.g. `go run`) they fall back to "dev" and "unknown".
package version

import "fmt"

// Version is the semantic version of the binary (e.g. "v1.2.3").
var Version = "dev"

// Commit is the short git SHA the binary was built from.
var Commit = "unknown"

// BuildDate is the UTC build date (RFC3339).
var BuildDate = "unknown"

// String returns the one-line version banner.
func String() string {
	return fmt.Sprintf("rugcheck %s (commit: %s, built: %s)", Version, Commit, BuildDate)
}
