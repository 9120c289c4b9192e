package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/utafrali/cardshop/internal/domain"
	"github.com/utafrali/cardshop/internal/repository"
	apperrors "github.com/utafrali/cardshop/pkg/errors"
)

var cacheLookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "catalog_cache_lookups_total",
		Help: "Product cache lookups by result (hit, miss, invalid, error).",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(cacheLookups)
}

// CachedLoader is a read-through cache in front of another Loader. Cache
// failures never fail a load; they are logged and the next loader is used.
type CachedLoader struct {
	next   Loader
	cache  repository.ProductCache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedLoader wraps next with cache.
func NewCachedLoader(next Loader, cache repository.ProductCache, ttl time.Duration, logger *slog.Logger) *CachedLoader {
	return &CachedLoader{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// Load returns the cached product when present and valid, otherwise loads it
// from the next loader and caches the result.
func (l *CachedLoader) Load(ctx context.Context, productType string) (domain.Product, error) {
	cached, err := l.cache.Get(ctx, productType)
	switch {
	case err == nil:
		verr := cached.Validate()
		if verr == nil {
			cacheLookups.WithLabelValues("hit").Inc()
			return *cached, nil
		}
		cacheLookups.WithLabelValues("invalid").Inc()
		l.logger.WarnContext(ctx, "evicting invalid cached product",
			slog.String("product_type", productType),
			slog.String("error", verr.Error()),
		)
		if derr := l.cache.Delete(ctx, productType); derr != nil {
			l.logger.WarnContext(ctx, "failed to evict cached product",
				slog.String("product_type", productType),
				slog.String("error", derr.Error()),
			)
		}
	case errors.Is(err, apperrors.ErrNotFound):
		cacheLookups.WithLabelValues("miss").Inc()
	default:
		cacheLookups.WithLabelValues("error").Inc()
		l.logger.WarnContext(ctx, "product cache unavailable, bypassing",
			slog.String("product_type", productType),
			slog.String("error", err.Error()),
		)
	}

	product, err := l.next.Load(ctx, productType)
	if err != nil {
		return domain.Product{}, err
	}

	if err := l.cache.Save(ctx, productType, product, l.ttl); err != nil {
		l.logger.WarnContext(ctx, "failed to cache product",
			slog.String("product_type", productType),
			slog.String("error", err.Error()),
		)
	}

	return product, nil
}
