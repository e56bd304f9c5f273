package persistent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kwalis/relay"
	"github.com/uptrace/bun"
)

// Db model of a product's upstream coordinates. Backing table for
// multi-tenant deployments where products are managed at runtime
// instead of via the process environment.
type Product struct {
	bun.BaseModel `bun:"table:product"`

	Id          int          `bun:",pk,autoincrement"`
	CreatedAt   time.Time    `bun:",nullzero,notnull,default:current_timestamp"`
	DestroyedAt sql.NullTime `bun:",nullzero,soft_delete"`
	Name        string       `bun:",notnull,unique,type:varchar(64)"`
	GithubToken string       `bun:",notnull,type:varchar(255)"`
	RepoOwner   string       `bun:",notnull,type:varchar(255)"`
	RepoName    string       `bun:",notnull,type:varchar(255)"`
}

func (p Product) ToDomain() relay.ProductConfig {
	return relay.ProductConfig{
		Name:        p.Name,
		GithubToken: p.GithubToken,
		RepoOwner:   p.RepoOwner,
		RepoName:    p.RepoName,
	}
}

type ProductStore struct {
	DB *bun.DB
}

func (s ProductStore) ByName(ctx context.Context, name string) (relay.ProductConfig, error) {
	var product Product
	err := s.DB.NewSelect().
		Model((*Product)(nil)).
		Where("name=?", strings.ToLower(name)).
		Scan(ctx, &product)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return relay.ProductConfig{}, relay.ErrProductNotFound
		}
		return relay.ProductConfig{}, fmt.Errorf("query: %w", err)
	}
	return product.ToDomain(), nil
}
