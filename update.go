package relay

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Signature assets are expected to hold ascii armored minisign/ed25519
// text. Malformed bytes keep the response shape instead of failing the
// update.
const signaturePlaceholder = "Failed to read signature"

type NoSignatureError struct {
	Filename string
}

func (e *NoSignatureError) Error() string {
	return fmt.Sprintf("no matching signature found for %s", e.Filename)
}

// Update descriptor handed to the updater client when a newer release
// exists. Mirrors the Tauri updater response shape.
type Update struct {
	Version   string
	PubDate   time.Time
	Url       string
	Signature string
	Notes     string
}

// UpdateChecker combines version comparison and asset matching into
// the per-request update decision. Pure apart from the signature
// download delegated to the AssetDownloader collaborator.
type UpdateChecker struct {
	Matcher *PlatformMatcher
	// External base for download urls, e.g. "https://updates.kwalis.de".
	Host string
}

// Check reports whether the given release is an update for a client at
// currentVersion, and if so assembles the full update descriptor. The
// boolean is false when the client is already current; matching is
// skipped entirely in that path.
//
// An installer without a `.sig` counterpart yields NoSignatureError:
// an update that cannot be verified is never handed to a client.
func (c *UpdateChecker) Check(release Release, downloader AssetDownloader,
	product string, platform Platform, feature string, currentVersion string) (Update, bool, error) {
	latest, newer, err := NewerVersionAvailable(currentVersion, release.TagName)
	if err != nil {
		return Update{}, false, err
	}
	if !newer {
		return Update{}, false, nil
	}

	match, err := c.Matcher.FindMatchingAsset(platform, release.AssetNames(), feature)
	if err != nil {
		return Update{}, false, err
	}
	if match.SignatureFilename == "" {
		return Update{}, false, &NoSignatureError{Filename: match.Filename}
	}

	installerId, ok := release.AssetId(match.Filename)
	if !ok {
		return Update{}, false, fmt.Errorf("installer %q missing from release asset table", match.Filename)
	}
	signatureId, ok := release.AssetId(match.SignatureFilename)
	if !ok {
		return Update{}, false, fmt.Errorf("signature %q missing from release asset table", match.SignatureFilename)
	}

	signatureBytes, err := downloader.DownloadAsset(signatureId)
	if err != nil {
		return Update{}, false, fmt.Errorf("download signature: %w", err)
	}
	signature := string(signatureBytes)
	if !utf8.ValidString(signature) {
		signature = signaturePlaceholder
	}

	return Update{
		Version:   latest.String(),
		PubDate:   release.PublishedAt,
		Url:       fmt.Sprintf("%s/%s/download/%d/%s", c.Host, product, installerId, match.Filename),
		Signature: signature,
		Notes:     release.Notes,
	}, true, nil
}
