package relay

import "time"

// Single artifact attached to an upstream release, e.g. installer,
// detached .sig, portable archive.
type ReleaseAsset struct {
	Id   uint64
	Name string
}

// Release descriptor as fetched from upstream. Owned by a single
// request, never mutated.
type Release struct {
	TagName     string
	PublishedAt time.Time
	Notes       string
	Assets      []ReleaseAsset
}

// AssetId maps an asset filename back to its upstream numeric id.
func (r Release) AssetId(name string) (uint64, bool) {
	for _, a := range r.Assets {
		if a.Name == name {
			return a.Id, true
		}
	}
	return 0, false
}

// AssetNames returns filenames in upstream order. Order is
// significant: matching ties are broken by upstream order.
func (r Release) AssetNames() []string {
	names := make([]string, len(r.Assets))
	for i, a := range r.Assets {
		names[i] = a.Name
	}
	return names
}

// AssetDownloader fetches raw asset bytes by upstream id. Implemented
// by the github client; the engine uses it for signature contents.
type AssetDownloader interface {
	DownloadAsset(assetId uint64) ([]byte, error)
}

// ReleaseSource is the upstream collaborator the transport layer hands
// to the update engine. It performs no retries; a failed call fails
// the request.
type ReleaseSource interface {
	LatestRelease() (Release, error)
	AssetDownloader
}
