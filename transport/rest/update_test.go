package rest

import (
	"context"
	"errors"
	"io/ioutil"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kwalis/relay"
	"github.com/kwalis/relay/mock"
	"github.com/stretchr/testify/assert"
)

func testProductStore() mock.ProductStore {
	return mock.ProductStore{
		ByNameFn: func(ctx context.Context, name string) (relay.ProductConfig, error) {
			if name != "naturland" {
				return relay.ProductConfig{}, relay.ErrProductNotFound
			}
			return relay.ProductConfig{
				Name:        "naturland",
				GithubToken: "ghp_secret",
				RepoOwner:   "kwalis",
				RepoName:    "naturland-desktop",
			}, nil
		},
	}
}

func testReleaseSource() mock.ReleaseSource {
	return mock.ReleaseSource{
		LatestReleaseFn: func() (relay.Release, error) {
			return relay.Release{
				TagName:     "v1.2.0",
				PublishedAt: time.Date(2023, 4, 2, 12, 30, 0, 0, time.UTC),
				Notes:       "Bug fixes.",
				Assets: []relay.ReleaseAsset{
					{Id: 101, Name: "KWALIS.-.Naturland_1.2.0_x64_en-US.msi"},
					{Id: 102, Name: "KWALIS.-.Naturland_1.2.0_x64_en-US.msi.sig"},
				},
			}, nil
		},
		DownloadAssetFn: func(assetId uint64) ([]byte, error) {
			if assetId != 102 {
				return nil, errors.New("unexpected asset id")
			}
			return []byte("c2lnbmF0dXJl"), nil
		},
	}
}

func newUpdateApp(source relay.ReleaseSource, stats relay.StatsStore) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	controller := UpdateController{
		Products: testProductStore(),
		Sources: func(config relay.ProductConfig) relay.ReleaseSource {
			return source
		},
		Checker: &relay.UpdateChecker{
			Matcher: relay.NewPlatformMatcher(relay.DefaultMatchRules()),
			Host:    "https://updates.kwalis.de",
		},
		Stats: stats,
	}
	controller.InstallTo(app)
	return app
}

func TestCheckUpdate(t *testing.T) {
	assert := assert.New(t)
	app := newUpdateApp(testReleaseSource(), nil)

	cases := []struct {
		url        string
		statusCode int
		body       string
	}{
		{"/naturland/stable/windows/x86_64/1.1.0", fiber.StatusOK,
			`{"version":"1.2.0","pub_date":"2023-04-02T12:30:00Z",` +
				`"url":"https://updates.kwalis.de/naturland/download/101/KWALIS.-.Naturland_1.2.0_x64_en-US.msi",` +
				`"signature":"c2lnbmF0dXJl","notes":"Bug fixes."}`},
		{"/naturland/stable/windows/x86_64/1.2.0", fiber.StatusNoContent, ""},
		{"/naturland/stable/windows/x86_64/2.0.0", fiber.StatusNoContent, ""},
		{"/naturland/stable/linux/x86_64/1.1.0", fiber.StatusNotFound, `{"error_message":"Not Found"}`},
		{"/naturland/fas2/windows/x86_64/1.1.0", fiber.StatusNotFound, `{"error_message":"Not Found"}`},
		{"/lumina/stable/windows/x86_64/1.1.0", fiber.StatusNotFound, `{"error_message":"Not Found"}`},
		{"/naturland/stable/windows/x86_64/not-a-version", fiber.StatusBadRequest,
			`{"error_message":"invalid current version"}`},
	}

	for _, tc := range cases {
		req := httptest.NewRequest("GET", tc.url, nil)
		resp, err := app.Test(req)
		if !assert.NoError(err, tc.url) {
			continue
		}
		defer resp.Body.Close()

		assert.Equal(tc.statusCode, resp.StatusCode, tc.url)
		body, err := ioutil.ReadAll(resp.Body)
		assert.NoError(err, tc.url)
		assert.Equal(tc.body, string(body), tc.url)
	}
}

func TestCheckUpdateNoSignature(t *testing.T) {
	assert := assert.New(t)
	source := testReleaseSource()
	source.LatestReleaseFn = func() (relay.Release, error) {
		return relay.Release{
			TagName: "v1.2.0",
			Assets: []relay.ReleaseAsset{
				{Id: 101, Name: "KWALIS.-.Naturland_1.2.0_x64_en-US.msi"},
			},
		}, nil
	}
	app := newUpdateApp(source, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/naturland/stable/windows/x86_64/1.1.0", nil))
	if !assert.NoError(err) {
		return
	}
	defer resp.Body.Close()
	assert.Equal(fiber.StatusNotFound, resp.StatusCode)
}

func TestCheckUpdateUpstreamFailure(t *testing.T) {
	assert := assert.New(t)
	source := testReleaseSource()
	source.LatestReleaseFn = func() (relay.Release, error) {
		return relay.Release{}, errors.New("github api unreachable")
	}
	app := newUpdateApp(source, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/naturland/stable/windows/x86_64/1.1.0", nil))
	if !assert.NoError(err) {
		return
	}
	defer resp.Body.Close()

	assert.Equal(fiber.StatusInternalServerError, resp.StatusCode)
	body, err := ioutil.ReadAll(resp.Body)
	assert.NoError(err)
	// internal details must stay private.
	assert.Equal(`{"error_message":"Internal Server Error"}`, string(body))
}

func TestCheckUpdateRecordsStats(t *testing.T) {
	assert := assert.New(t)

	type record struct {
		product      string
		updateServed bool
	}
	var records []record
	stats := mock.StatsStore{
		RecordCheckFn: func(ctx context.Context, product string, updateServed bool) error {
			records = append(records, record{product, updateServed})
			return nil
		},
	}
	app := newUpdateApp(testReleaseSource(), stats)

	resp, err := app.Test(httptest.NewRequest("GET", "/naturland/stable/windows/x86_64/1.1.0", nil))
	if !assert.NoError(err) {
		return
	}
	resp.Body.Close()
	resp, err = app.Test(httptest.NewRequest("GET", "/naturland/stable/windows/x86_64/1.2.0", nil))
	if !assert.NoError(err) {
		return
	}
	resp.Body.Close()

	assert.Equal([]record{{"naturland", true}, {"naturland", false}}, records)
}

func TestCheckUpdateStatsFailureDoesNotAbort(t *testing.T) {
	assert := assert.New(t)
	stats := mock.StatsStore{
		RecordCheckFn: func(ctx context.Context, product string, updateServed bool) error {
			return errors.New("buntdb closed")
		},
	}
	app := newUpdateApp(testReleaseSource(), stats)

	resp, err := app.Test(httptest.NewRequest("GET", "/naturland/stable/windows/x86_64/1.1.0", nil))
	if !assert.NoError(err) {
		return
	}
	defer resp.Body.Close()
	assert.Equal(fiber.StatusOK, resp.StatusCode)
}
