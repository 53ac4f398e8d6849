package install

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Transition names the relationship between the installed and the new
// release.
type Transition string

const (
	TransitionFresh     Transition = "fresh"
	TransitionUpgrade   Transition = "upgrade"
	TransitionDowngrade Transition = "downgrade"
	TransitionReinstall Transition = "reinstall"
	// TransitionChange is used when either version is not semver (e.g. "dev").
	TransitionChange Transition = "change"
)

// VersionTransition compares the version recorded in a prior ledger with the
// version being installed. installed is false on a fresh install.
//
//revive:disable:flag-parameter
func VersionTransition(from, to string, installed bool) Transition {
	if !installed {
		return TransitionFresh
	}
	if from == to {
		return TransitionReinstall
	}
	fv, err := parseSemver(from)
	if err != nil {
		return TransitionChange
	}
	tv, err := parseSemver(to)
	if err != nil {
		return TransitionChange
	}
	switch fv.Compare(tv) {
	case -1:
		return TransitionUpgrade
	case 1:
		return TransitionDowngrade
	default:
		return TransitionReinstall
	}
}

//revive:enable:flag-parameter

// parseSemver strips a leading "v" and parses the version string.
func parseSemver(version string) (*semver.Version, error) {
	return semver.NewVersion(strings.TrimPrefix(version, "v"))
}
