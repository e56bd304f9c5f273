package github

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/kwalis/relay"
	"github.com/stretchr/testify/assert"
)

func TestReleaseResponseToDomain(t *testing.T) {
	assert := assert.New(t)

	body := `{
		"tag_name": "v1.2.0",
		"published_at": "2023-04-02T12:30:00Z",
		"body": "Bug fixes.",
		"assets": [
			{"id": 101, "name": "Naturland_1.2.0_x64_en-US.msi", "size": 4096},
			{"id": 102, "name": "Naturland_1.2.0_x64_en-US.msi.sig"}
		]
	}`
	var response releaseResponse
	assert.NoError(json.Unmarshal([]byte(body), &response))

	release, err := response.toDomain()
	assert.NoError(err)
	assert.Equal(relay.Release{
		TagName:     "v1.2.0",
		PublishedAt: time.Date(2023, 4, 2, 12, 30, 0, 0, time.UTC),
		Notes:       "Bug fixes.",
		Assets: []relay.ReleaseAsset{
			{Id: 101, Name: "Naturland_1.2.0_x64_en-US.msi"},
			{Id: 102, Name: "Naturland_1.2.0_x64_en-US.msi.sig"},
		},
	}, release)
}

func TestReleaseResponseToDomainNoPublishDate(t *testing.T) {
	assert := assert.New(t)

	release, err := releaseResponse{TagName: "v0.1.0"}.toDomain()
	assert.NoError(err)
	assert.True(release.PublishedAt.IsZero())

	_, err = releaseResponse{TagName: "v0.1.0", PublishedAt: "yesterday"}.toDomain()
	assert.Error(err)
}

func TestForProduct(t *testing.T) {
	client := ForProduct(relay.ProductConfig{
		Name:        "naturland",
		GithubToken: "ghp_secret",
		RepoOwner:   "kwalis",
		RepoName:    "naturland-desktop",
	})
	assert.Equal(t, Client{Token: "ghp_secret", Owner: "kwalis", Repo: "naturland-desktop"}, client)
}
