// Package version exposes the build version stamped at link time.
package version

// Version is the build-time version, overridden via -ldflags.
var Version = "dev"
