package inmem

import (
	"context"
	"strings"
	"sync"

	"github.com/kwalis/relay"
)

// ProductStore is an in-memory product table guarded by a
// reader/writer lock. Requests only ever take the read side; writes
// happen at boot (and in tests).
type ProductStore struct {
	products map[string]relay.ProductConfig
	mutex    sync.RWMutex
}

func NewProductStore(products ...relay.ProductConfig) *ProductStore {
	s := &ProductStore{products: map[string]relay.ProductConfig{}}
	for _, p := range products {
		s.Put(p)
	}
	return s
}

// NewProductStoreFromEnviron scans environment entries (os.Environ
// format) for `<PRODUCT>_TOKEN` keys and builds a product for every
// one that also has `<PRODUCT>_OWNER` and `<PRODUCT>_REPO` set.
// Product names are lowercased. Passing the environment in explicitly
// keeps the store testable without process-level side effects.
func NewProductStoreFromEnviron(environ []string) *ProductStore {
	vars := map[string]string{}
	for _, entry := range environ {
		if key, value, ok := cutEnvEntry(entry); ok {
			vars[key] = value
		}
	}

	store := NewProductStore()
	for key, token := range vars {
		if !strings.HasSuffix(key, "_TOKEN") {
			continue
		}
		name := strings.TrimSuffix(key, "_TOKEN")
		owner, ownerOk := vars[name+"_OWNER"]
		repo, repoOk := vars[name+"_REPO"]
		if !ownerOk || !repoOk {
			continue
		}
		store.Put(relay.ProductConfig{
			Name:        strings.ToLower(name),
			GithubToken: token,
			RepoOwner:   owner,
			RepoName:    repo,
		})
	}
	return store
}

func cutEnvEntry(entry string) (key string, value string, ok bool) {
	i := strings.IndexByte(entry, '=')
	if i < 0 {
		return "", "", false
	}
	return entry[:i], entry[i+1:], true
}

func (s *ProductStore) Put(product relay.ProductConfig) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.products[strings.ToLower(product.Name)] = product
}

func (s *ProductStore) ByName(ctx context.Context, name string) (relay.ProductConfig, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	p, ok := s.products[strings.ToLower(name)]
	if !ok {
		return relay.ProductConfig{}, relay.ErrProductNotFound
	}
	return p, nil
}

func (s *ProductStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.products)
}
