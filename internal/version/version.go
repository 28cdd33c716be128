// Package version carries build metadata injected via -ldflags.
package version

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// Short returns a single-line version string for logs and status output.
func Short() string {
	return Version + " (" + GitSHA + ")"
}
