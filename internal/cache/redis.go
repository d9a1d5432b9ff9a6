package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nirogkart/storefront/internal/domain"
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:     client,
		baseTTL:    15 * time.Minute,
		addressTTL: 7 * 24 * time.Hour,
		productTTL: 5 * time.Minute,
	}
}

type RedisCache struct {
	client     *redis.Client
	baseTTL    time.Duration
	addressTTL time.Duration
	productTTL time.Duration
}

func (r *RedisCache) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart domain.Cart
	if err2 := json.Unmarshal(data, &cart); err2 != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err2)
	}
	return &cart, nil
}

func (r *RedisCache) Set(ctx context.Context, userID string, cart *domain.Cart) error {
	jsonCart, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	if err := r.client.Set(ctx, cartKey(userID), jsonCart, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisCache) GetAddress(ctx context.Context, userID string) (*domain.Address, error) {
	data, err := r.client.Get(ctx, addressKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var addr domain.Address
	if err2 := json.Unmarshal(data, &addr); err2 != nil {
		return nil, fmt.Errorf("unmarshal address failed: %w", err2)
	}
	return &addr, nil
}

func (r *RedisCache) SetAddress(ctx context.Context, userID string, addr *domain.Address) error {
	jsonAddr, err := json.Marshal(addr)
	if err != nil {
		return fmt.Errorf("marshal address failed: %w", err)
	}
	if err := r.client.Set(ctx, addressKey(userID), jsonAddr, r.addressTTL).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) DeleteAddress(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, addressKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisCache) GetAllProducts(ctx context.Context) ([]domain.Product, error) {
	data, err := r.client.Get(ctx, "products:all").Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var products []domain.Product
	if err2 := json.Unmarshal(data, &products); err2 != nil {
		return nil, fmt.Errorf("unmarshal products failed: %w", err2)
	}
	return products, nil
}

func (r *RedisCache) SetAllProducts(ctx context.Context, products []domain.Product) error {
	jsonProducts, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("marshal products failed: %w", err)
	}
	if err := r.client.Set(ctx, "products:all", jsonProducts, r.productTTL).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func cartKey(userID string) string {
	return fmt.Sprintf("cartItems:%s", userID)
}

func addressKey(userID string) string {
	return fmt.Sprintf("shippingAddress:%s", userID)
}
