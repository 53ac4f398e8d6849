// Package buildinfo holds build-time variables injected via ldflags.
package buildinfo

// Populated by -ldflags at build time; defaults used for local dev.
// Version doubles as the version of the release bundled into the binary and
// is what install records in the ledger.
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)
