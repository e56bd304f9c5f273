package relay

import (
	"context"
	"errors"
)

var ErrProductNotFound = errors.New("product not found")

// Per-product upstream coordinates. Clients never see the token; the
// relay authenticates upstream on their behalf.
type ProductConfig struct {
	Name        string
	GithubToken string
	RepoOwner   string
	RepoName    string
}

type ProductStore interface {
	// Get product configuration by lowercase product name.
	ByName(ctx context.Context, name string) (ProductConfig, error)
}
