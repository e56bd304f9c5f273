package relay

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Both sides go through the same parser but fail differently: a bad
// caller version is the client's fault, a bad release tag is upstream
// data corruption.
var (
	ErrInvalidCurrentVersion = errors.New("invalid current version")
	ErrInvalidReleaseTag     = errors.New("invalid release tag")
)

// NewerVersionAvailable parses the caller's current version and the
// upstream release tag (one optional leading "v" allowed on the tag)
// as strict semantic versions and reports whether the release is
// strictly newer. The parsed release version is returned for reuse in
// the update response.
func NewerVersionAvailable(currentVersion string, releaseTag string) (*semver.Version, bool, error) {
	current, err := semver.StrictNewVersion(currentVersion)
	if err != nil {
		return nil, false, fmt.Errorf("%w %q: %v", ErrInvalidCurrentVersion, currentVersion, err)
	}
	latest, err := semver.StrictNewVersion(strings.TrimPrefix(releaseTag, "v"))
	if err != nil {
		return nil, false, fmt.Errorf("%w %q: %v", ErrInvalidReleaseTag, releaseTag, err)
	}
	return latest, latest.GreaterThan(current), nil
}
