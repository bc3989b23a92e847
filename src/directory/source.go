package directory

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/corretaje/src/models"
)

// Source supplies the trader and alias registries a directory is built
// from. The sqlite store satisfies it.
type Source interface {
	QueryTraders(ctx context.Context) ([]models.Trader, error)
	QueryAliases(ctx context.Context) ([]models.TraderAlias, error)
}

const ckDirectory = "alias_directory"

// CachedSource builds directories from an underlying Source, keeping
// the built directory for at most ttl. The TTL is a freshness trade-off
// only; a ttl <= 0 bypasses the cache and rebuilds on every call, which
// is what tests use.
type CachedSource struct {
	inner Source
	ttl   time.Duration
	cache *cache.Cache
}

func NewCachedSource(inner Source, ttl time.Duration) *CachedSource {
	s := &CachedSource{inner: inner, ttl: ttl}
	if ttl > 0 {
		s.cache = cache.New(ttl, 2*ttl)
	}
	return s
}

// Directory returns an alias directory no staler than the configured
// TTL. Failures from the underlying source propagate unchanged.
func (s *CachedSource) Directory(ctx context.Context) (*Directory, error) {
	if s.cache != nil {
		if cached, found := s.cache.Get(ckDirectory); found {
			return cached.(*Directory), nil
		}
	}

	traders, err := s.inner.QueryTraders(ctx)
	if err != nil {
		return nil, err
	}
	aliases, err := s.inner.QueryAliases(ctx)
	if err != nil {
		return nil, err
	}

	dir := Build(traders, aliases)
	if s.cache != nil {
		s.cache.Set(ckDirectory, dir, cache.DefaultExpiration)
	}
	return dir, nil
}

// Invalidate drops the cached directory so the next call rebuilds it.
// Called after trader or alias registry writes.
func (s *CachedSource) Invalidate() {
	if s.cache != nil {
		s.cache.Delete(ckDirectory)
	}
}
