// Package buildinfo holds release metadata injected with
// -ldflags "-X github.com/releve-dev/releve/internal/buildinfo.Version=...".
package buildinfo

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
