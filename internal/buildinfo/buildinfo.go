// Package buildinfo holds build metadata set through -ldflags.
package buildinfo

// Set at build time, e.g. -ldflags "-X github.com/streethall/hoa/internal/buildinfo.Version=v1.2.0".
var (
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
)
