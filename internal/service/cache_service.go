package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/orgops-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads. Get returns
// errors.ErrCacheMiss when the key is absent.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CacheOptions tunes a CacheService. Zero values fall back to defaults.
type CacheOptions struct {
	Enabled    bool
	DefaultTTL time.Duration
	// OpTimeout bounds each cache round trip so a slow Redis never stalls an import
	// response.
	OpTimeout time.Duration
	Metrics   *MetricsService
	Logger    *zap.Logger
}

// CacheService wraps a CacheRepository with a kill switch, timeouts and metrics.
type CacheService struct {
	repo CacheRepository
	opts CacheOptions
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, opts CacheOptions) *CacheService {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = 10 * time.Minute
	}
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &CacheService{repo: repo, opts: opts}
}

// Enabled reports whether reads and writes reach the repository.
func (s *CacheService) Enabled() bool {
	return s != nil && s.opts.Enabled && s.repo != nil
}

// Get loads key into dest. A miss is (false, nil).
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.OpTimeout)
	defer cancel()

	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	hit := err == nil
	s.opts.Metrics.RecordCacheOperation(hit, time.Since(start))

	switch {
	case hit:
		return true, nil
	case errors.Is(err, appErrors.ErrCacheMiss):
		return false, nil
	default:
		s.opts.Logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
}

// Set stores value under key. A non-positive ttl uses the default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.opts.DefaultTTL
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.OpTimeout)
	defer cancel()

	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.opts.Metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.opts.Logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return err
}
