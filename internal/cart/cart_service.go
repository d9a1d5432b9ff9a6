package cart

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/nirogkart/storefront/internal/cache"
	"github.com/nirogkart/storefront/internal/domain"
	"github.com/nirogkart/storefront/internal/repository"
)

type Service struct {
	repo  repository.CartRepository
	cache cache.CartCache
	sfg   singleflight.Group // prevents cache stampede on hot carts
}

func NewService(repo repository.CartRepository, cache cache.CartCache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
	}
}

func (s *Service) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	// Collapse concurrent cache misses for the same user into one repo read.
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, cacheErr := s.cache.Get(ctx, userID)
		if cacheErr == nil {
			return cart, nil
		}
		if !errors.Is(cacheErr, cache.ErrCacheMiss) {
			log.WithError(cacheErr).Warn("cart cache get failed, falling through to repo")
		}

		cart, repoErr := s.repo.GetCart(ctx, userID)
		if errors.Is(repoErr, repository.ErrCartNotFound) {
			return &domain.Cart{
				UserID:    userID,
				Items:     nil,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		}
		if repoErr != nil {
			return nil, repoErr
		}

		go func() {
			if setErr := s.cache.Set(context.Background(), userID, cart); setErr != nil {
				log.WithError(setErr).Warn("cart cache set failed")
			}
		}()

		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

func (s *Service) AddItem(ctx context.Context, userID string, item domain.CartItem) error {
	if err := s.repo.AddItem(ctx, userID, item); err != nil {
		log.WithError(err).Error("repo add item failed")
		return err
	}
	s.invalidate(userID)
	return nil
}

func (s *Service) UpdateQuantity(ctx context.Context, userID string, productID string, quantity int) error {
	if err := s.repo.UpdateItemQuantity(ctx, userID, productID, quantity); err != nil {
		log.WithError(err).Error("repo update quantity failed")
		return err
	}
	s.invalidate(userID)
	return nil
}

func (s *Service) RemoveItem(ctx context.Context, userID string, productID string) error {
	if err := s.repo.RemoveItem(ctx, userID, productID); err != nil {
		log.WithError(err).Error("repo remove item failed")
		return err
	}
	s.invalidate(userID)
	return nil
}

// ClearCart empties the cart and its cache entry. Invoked on payment success
// (directly or via the checkout-completed consumer) and by the user.
func (s *Service) ClearCart(ctx context.Context, userID string) error {
	err := s.repo.DeleteCart(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		log.WithError(err).Error("repo delete cart failed")
		return err
	}
	s.invalidate(userID)
	return nil
}

func (s *Service) invalidate(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		log.WithError(err).Warn("cart cache invalidate failed")
	}
}
