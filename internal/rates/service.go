package rates

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultTTL is how long a fetched quote is served without asking upstream again.
const DefaultTTL = 300 * time.Second

// ErrNoRate means upstream failed and there is no earlier quote to fall back on.
var ErrNoRate = errors.New("no exchange rate available")

// Service answers display-rate lookups from a TTL cache, refreshing from the
// fetcher when the cached quote is stale and falling back to it when the refresh
// fails.
type Service struct {
	fetcher Fetcher
	cache   Cache
	ttl     time.Duration
	clock   func() time.Time
	logger  *zap.Logger

	refresh sync.Mutex
}

func NewService(fetcher Fetcher, cache Cache, ttl time.Duration, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		fetcher: fetcher,
		cache:   cache,
		ttl:     ttl,
		clock:   time.Now,
		logger:  logger,
	}
}

func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Source names the upstream the service quotes from, whether or not it answers.
func (s *Service) Source() string {
	return s.fetcher.Source()
}

func (s *Service) Quote(ctx context.Context) (Quote, error) {
	if q, ok := s.cached(ctx); ok && s.fresh(q) {
		return q, nil
	}

	s.refresh.Lock()
	defer s.refresh.Unlock()

	// Another caller may have refreshed while we waited.
	cached, ok := s.cached(ctx)
	if ok && s.fresh(cached) {
		return cached, nil
	}

	rate, err := s.fetcher.Fetch(ctx)
	if err != nil {
		if ok {
			s.logger.Warn("rate refresh failed, serving last known quote",
				zap.Time("updated_at", cached.UpdatedAt),
				zap.Error(err),
			)
			return cached, nil
		}
		s.logger.Error("rate refresh failed with nothing cached", zap.Error(err))
		return Quote{}, fmt.Errorf("%w: %w", ErrNoRate, err)
	}

	q := Quote{Rate: rate, Source: s.fetcher.Source(), UpdatedAt: s.clock().UTC()}
	if err := s.cache.Set(ctx, q); err != nil {
		s.logger.Warn("rate cache write failed", zap.Error(err))
	}
	return q, nil
}

func (s *Service) cached(ctx context.Context) (Quote, bool) {
	q, ok, err := s.cache.Get(ctx)
	if err != nil {
		s.logger.Warn("rate cache read failed", zap.Error(err))
		return Quote{}, false
	}
	return q, ok
}

func (s *Service) fresh(q Quote) bool {
	return s.clock().Sub(q.UpdatedAt) < s.ttl
}
