package catalog

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/nirogkart/storefront/internal/cache"
	"github.com/nirogkart/storefront/internal/domain"
)

// ProductSource is the backend catalog surface.
type ProductSource interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

// Service proxies the backend catalog with a short-TTL read-through cache.
// The catalog is the hottest read path on the storefront; one stampeding
// cache miss must not fan out into many backend calls.
type Service struct {
	source ProductSource
	cache  cache.ProductCache
	sfg    singleflight.Group
}

func NewService(source ProductSource, cache cache.ProductCache) *Service {
	return &Service{source: source, cache: cache}
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	v, err, _ := s.sfg.Do("all", func() (interface{}, error) {
		products, cacheErr := s.cache.GetAllProducts(ctx)
		if cacheErr == nil {
			return products, nil
		}
		if !errors.Is(cacheErr, cache.ErrCacheMiss) {
			log.WithError(cacheErr).Warn("product cache get failed, falling through to backend")
		}

		products, srcErr := s.source.ListProducts(ctx)
		if srcErr != nil {
			return nil, srcErr
		}

		go func() {
			if setErr := s.cache.SetAllProducts(context.Background(), products); setErr != nil {
				log.WithError(setErr).Warn("product cache set failed")
			}
		}()

		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Product), nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.source.GetProduct(ctx, id)
}
