// Package version reports the build version of the greenscreen binaries.
//
// Version, commit and build time are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/greenscreen/version.Version=1.2.0"
//
// Unset fields fall back to the VCS stamp Go embeds in the binary.
package version
