package buildinfo

import "github.com/carlmjohnson/versioninfo"

// Version can be overridden at build time with:
// -ldflags "-X github.com/embrace-call-for-code/envboot/internal/buildinfo.Version=v0.2.0"
// When left at the default, the VCS stamp embedded by the Go toolchain is used.
var Version = "dev"

func String() string {
	if Version != "dev" {
		return Version
	}
	return versioninfo.Short()
}
