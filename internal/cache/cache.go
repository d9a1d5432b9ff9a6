package cache

import (
	"context"
	"errors"

	"github.com/nirogkart/storefront/internal/domain"
)

type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Set(ctx context.Context, userID string, cart *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}

// AddressCache keeps the last selected delivery address per user for prefill.
// Convenience only, never authoritative; the backend owns addresses.
type AddressCache interface {
	GetAddress(ctx context.Context, userID string) (*domain.Address, error)
	SetAddress(ctx context.Context, userID string, addr *domain.Address) error
	DeleteAddress(ctx context.Context, userID string) error
}

type ProductCache interface {
	GetAllProducts(ctx context.Context) ([]domain.Product, error)
	SetAllProducts(ctx context.Context, products []domain.Product) error
}

var ErrCacheMiss = errors.New("cache miss")
