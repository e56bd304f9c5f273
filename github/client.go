// Package github talks to the GitHub releases REST api on behalf of
// updater clients, so that client machines never hold repository
// tokens.
package github

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kwalis/relay"
	"github.com/sirupsen/logrus"
)

const (
	apiBase   = "https://api.github.com"
	userAgent = "kwalis-update-relay"
)

// Client implements relay.ReleaseSource for one product repository.
// No retries are performed; a failed upstream call fails the request
// and the updater client is expected to check again later.
type Client struct {
	Token string
	Owner string
	Repo  string
}

func ForProduct(config relay.ProductConfig) Client {
	return Client{
		Token: config.GithubToken,
		Owner: config.RepoOwner,
		Repo:  config.RepoName,
	}
}

// SourceFactory builds a release source from product configuration.
// Controllers depend on this type so tests can substitute mocks.
type SourceFactory = func(config relay.ProductConfig) relay.ReleaseSource

func RestSourceFactory(config relay.ProductConfig) relay.ReleaseSource {
	client := ForProduct(config)
	return &client
}

type releaseResponse struct {
	TagName     string `json:"tag_name"`
	PublishedAt string `json:"published_at"`
	Body        string `json:"body"`
	Assets      []struct {
		Id   uint64 `json:"id"`
		Name string `json:"name"`
	} `json:"assets"`
}

func (r releaseResponse) toDomain() (relay.Release, error) {
	release := relay.Release{
		TagName: r.TagName,
		Notes:   r.Body,
		Assets:  make([]relay.ReleaseAsset, len(r.Assets)),
	}
	if r.PublishedAt != "" {
		publishedAt, err := time.Parse(time.RFC3339, r.PublishedAt)
		if err != nil {
			return relay.Release{}, fmt.Errorf("parse published_at: %w", err)
		}
		release.PublishedAt = publishedAt
	}
	for i, a := range r.Assets {
		release.Assets[i] = relay.ReleaseAsset{Id: a.Id, Name: a.Name}
	}
	return release, nil
}

// Impl of github rest api /repos/{owner}/{repo}/releases/latest
func (c *Client) LatestRelease() (relay.Release, error) {
	agent := fiber.AcquireAgent()
	defer fiber.ReleaseAgent(agent)

	req := agent.Request()
	req.Header.SetMethod(fiber.MethodGet)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+c.Token)
	req.Header.Set(fiber.HeaderUserAgent, userAgent)
	req.Header.Set(fiber.HeaderAccept, "application/vnd.github+json")
	req.SetRequestURI(fmt.Sprintf("%s/repos/%s/%s/releases/latest", apiBase, c.Owner, c.Repo))

	err := agent.Parse()
	if err != nil {
		return relay.Release{}, fmt.Errorf("agent parse: %w", err)
	}

	statusCode, body, errs := agent.Bytes()
	if len(errs) != 0 {
		return relay.Release{}, fmt.Errorf("agent bytes: %v", errs)
	}
	if statusCode != fiber.StatusOK {
		return relay.Release{}, fmt.Errorf("invalid status code %d: %s", statusCode, string(body))
	}

	var response releaseResponse
	if err = json.Unmarshal(body, &response); err != nil {
		return relay.Release{}, fmt.Errorf("unmarshal body: %w", err)
	}
	return response.toDomain()
}

// Impl of github rest api /repos/{owner}/{repo}/releases/assets/{id}
// with `Accept: application/octet-stream`. GitHub answers with a
// redirect to short-lived blob storage; the storage host rejects the
// Authorization header, so the redirect is followed without it.
func (c *Client) DownloadAsset(assetId uint64) ([]byte, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/assets/%d", apiBase, c.Owner, c.Repo, assetId)
	logrus.WithField("url", url).Debugln("Downloading asset.")

	statusCode, body, location, err := c.get(url, true)
	if err != nil {
		return nil, err
	}
	if statusCode == fiber.StatusFound || statusCode == fiber.StatusMovedPermanently ||
		statusCode == fiber.StatusTemporaryRedirect {
		if location == "" {
			return nil, fmt.Errorf("redirect without location for asset %d", assetId)
		}
		statusCode, body, _, err = c.get(location, false)
		if err != nil {
			return nil, err
		}
	}
	if statusCode != fiber.StatusOK {
		return nil, fmt.Errorf("invalid status code %d for asset %d", statusCode, assetId)
	}
	return body, nil
}

func (c *Client) get(url string, authorize bool) (int, []byte, string, error) {
	agent := fiber.AcquireAgent()
	defer fiber.ReleaseAgent(agent)

	req := agent.Request()
	req.Header.SetMethod(fiber.MethodGet)
	req.Header.Set(fiber.HeaderUserAgent, userAgent)
	req.Header.Set(fiber.HeaderAccept, "application/octet-stream")
	if authorize {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+c.Token)
	}
	req.SetRequestURI(url)

	resp := fiber.AcquireResponse()
	defer fiber.ReleaseResponse(resp)
	agent.SetResponse(resp)

	err := agent.Parse()
	if err != nil {
		return 0, nil, "", fmt.Errorf("agent parse: %w", err)
	}

	statusCode, body, errs := agent.Bytes()
	if len(errs) != 0 {
		return 0, nil, "", fmt.Errorf("agent bytes: %v", errs)
	}
	location := string(resp.Header.Peek(fiber.HeaderLocation))
	return statusCode, body, location, nil
}
