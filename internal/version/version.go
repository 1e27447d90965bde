// Package version carries the build identity reported on /healthz.
package version

var (
	Version   = "1.1.0"
	BuildDate = "2026-08-31"
)
