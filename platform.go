package relay

import (
	"fmt"
	"strings"
)

// Platform is the (target os, architecture) pair an updater client
// reports about itself. Built once per request from path input; a pair
// no rule knows about simply never matches.
type Platform struct {
	Target string
	Arch   string
}

func (p Platform) String() string {
	return p.Target + " " + p.Arch
}

// AssetMatch is the result of asset selection. SignatureFilename is
// empty when no `<filename>.sig` counterpart exists in the release;
// whether that is fatal is the caller's decision.
type AssetMatch struct {
	Filename          string
	SignatureFilename string
}

type NoMatchingAssetError struct {
	Target string
	Arch   string
}

func (e *NoMatchingAssetError) Error() string {
	return fmt.Sprintf("no matching asset found for %s %s", e.Target, e.Arch)
}

// MatchRule reports whether filename is an installer for the given
// platform. Rules are stateless predicates; they know nothing about
// feature gating or signatures.
type MatchRule func(platform Platform, filename string) bool

// Installer naming conventions per platform family. Filenames are
// lowercased before rules see them.
func matchWindowsMsi(p Platform, filename string) bool {
	if p.Target != "windows" {
		return false
	}
	switch p.Arch {
	case "x86_64":
		return strings.Contains(filename, "_x64") && strings.HasSuffix(filename, ".msi")
	case "i686", "x86":
		return strings.Contains(filename, "_x86") && strings.HasSuffix(filename, ".msi")
	default:
		return false
	}
}

func matchMacOS(p Platform, filename string) bool {
	if p.Target != "darwin" {
		return false
	}
	var archOk bool
	switch p.Arch {
	case "x86_64":
		archOk = strings.Contains(filename, "_x64")
	case "aarch64":
		archOk = strings.Contains(filename, "aarch64")
	}
	return archOk &&
		(strings.HasSuffix(filename, ".app.tar.gz") || strings.HasSuffix(filename, ".dmg"))
}

func matchLinuxAppImage(p Platform, filename string) bool {
	return p.Target == "linux" &&
		p.Arch == "x86_64" &&
		strings.Contains(filename, "amd64") &&
		strings.HasSuffix(filename, ".appimage")
}

// DefaultMatchRules returns the built-in rule set in its priority
// order: Windows MSI, macOS (dmg/app.tar.gz), Linux AppImage. Order
// matters: rules are not mutually exclusive by filename alone and the
// first match wins.
func DefaultMatchRules() []MatchRule {
	return []MatchRule{matchWindowsMsi, matchMacOS, matchLinuxAppImage}
}

// PlatformMatcher selects at most one installer and its detached
// signature from a release's asset filenames.
type PlatformMatcher struct {
	rules []MatchRule
}

// NewPlatformMatcher builds a matcher over the given rules. Tests may
// supply alternate rule sets; production code passes
// DefaultMatchRules().
func NewPlatformMatcher(rules []MatchRule) *PlatformMatcher {
	return &PlatformMatcher{rules: rules}
}

// FindMatchingAsset picks the first filename, in the order assets were
// returned upstream, that passes the feature gate and any rule.
//
// The feature gate: empty or case-insensitive "stable" imposes no
// restriction; any other feature requires candidates to start with
// `<FEATURE-UPPERCASE>.`.
func (m *PlatformMatcher) FindMatchingAsset(
	platform Platform, assets []string, feature string) (AssetMatch, error) {
	var prefix string
	if feature != "" && !strings.EqualFold(feature, "stable") {
		prefix = strings.ToUpper(feature) + "."
	}

	var installer string
	for _, asset := range assets {
		if prefix != "" && !strings.HasPrefix(asset, prefix) {
			continue
		}
		lower := strings.ToLower(asset)
		for _, rule := range m.rules {
			if rule(platform, lower) {
				installer = asset
				break
			}
		}
		if installer != "" {
			break
		}
	}
	if installer == "" {
		return AssetMatch{}, &NoMatchingAssetError{Target: platform.Target, Arch: platform.Arch}
	}

	// Signature pairing is an exact lookup, no fuzzy matching.
	match := AssetMatch{Filename: installer}
	signature := installer + ".sig"
	for _, asset := range assets {
		if asset == signature {
			match.SignatureFilename = signature
			break
		}
	}
	return match, nil
}
