// Package version holds build metadata set through ldflags:
//
//	go build -ldflags "-X git.home.luguber.info/inful/cardlink/internal/version.Version=v1.0.0"
package version

import "fmt"

var (
	Version   = "unknown"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by the CLI.
func String() string {
	return fmt.Sprintf("cardlink %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}

// UserAgent is sent with outgoing requests.
func UserAgent() string {
	return "cardlink/" + Version
}
