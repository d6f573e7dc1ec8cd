// Package version holds the build identity of apiextract.
package version

import "runtime"

// Overridable at build time:
//
//	go build -ldflags "-X apiextract/internal/version.Version=1.2.0 -X apiextract/internal/version.Commit=$(git rev-parse HEAD)"
var (
	Version   = "0.9.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info returns the version with an abbreviated commit when one is known.
// It is what the ledger stores as the tool version of a run.
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns the multi-line text printed by `apiextract version`.
func Full() string {
	return "apiextract " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate + "\n" +
		"Go: " + runtime.Version() + "\n" +
		"Class file target: Java 8 (52.0)"
}
