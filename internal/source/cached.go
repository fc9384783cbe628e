package source

import (
	"context"
	"io"
	"time"

	"github.com/valksor/go-selfup/internal/cache"
	"github.com/valksor/go-selfup/internal/log"
)

// Cached memoizes ListReleases per repository for the lifetime of the
// process. FetchAsset is passed through.
type Cached struct {
	Source
	listings *cache.Cache[[]Release]
}

// WithCache wraps src with a listing cache holding entries for ttl.
func WithCache(src Source, ttl time.Duration) *Cached {
	return &Cached{Source: src, listings: cache.New[[]Release](ttl)}
}

// ListReleases returns the cached listing for repo, fetching it on a miss.
// Failures are not cached.
func (c *Cached) ListReleases(ctx context.Context, repo RepoRef) ([]Release, error) {
	key := repo.String()
	if releases, ok := c.listings.Get(key); ok {
		log.Debug("release listing cache hit", log.Repo(repo.Owner, repo.Name))
		return releases, nil
	}

	releases, err := c.Source.ListReleases(ctx, repo)
	if err != nil {
		return nil, err
	}
	c.listings.Set(key, releases)
	return releases, nil
}

// FetchAsset delegates to the wrapped source.
func (c *Cached) FetchAsset(ctx context.Context, asset AssetRef) (io.ReadCloser, error) {
	return c.Source.FetchAsset(ctx, asset)
}
