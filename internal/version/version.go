// Package version exposes the build version injected via ldflags.
package version

// version is set at build time:
//
//	-ldflags "-X github.com/promptforge/promptforge/internal/version.version=v1.2.3"
var version = "dev"

// Version returns the build version string.
func Version() string {
	return version
}
