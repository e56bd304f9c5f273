package mock

import "github.com/kwalis/relay"

type ReleaseSource struct {
	LatestReleaseFn func() (relay.Release, error)
	DownloadAssetFn func(assetId uint64) ([]byte, error)
}

func (s ReleaseSource) LatestRelease() (relay.Release, error) {
	return s.LatestReleaseFn()
}

func (s ReleaseSource) DownloadAsset(assetId uint64) ([]byte, error) {
	return s.DownloadAssetFn(assetId)
}
