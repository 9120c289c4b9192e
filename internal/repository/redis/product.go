package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/cardshop/internal/domain"
	"github.com/utafrali/cardshop/pkg/database"
	apperrors "github.com/utafrali/cardshop/pkg/errors"
)

const keyPrefix = "product:"

// ProductCache implements repository.ProductCache using Redis.
type ProductCache struct {
	client *redis.Client
}

// NewProductCache creates a new Redis-backed product cache.
func NewProductCache(client *redis.Client) *ProductCache {
	return &ProductCache{client: client}
}

// Get retrieves a product by type from Redis.
func (c *ProductCache) Get(ctx context.Context, productType string) (*domain.Product, error) {
	key := keyPrefix + productType
	ctx, end := database.TraceCommand(ctx, "GET", key)
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		end(nil)
		return nil, apperrors.NotFound("product", productType)
	}
	end(err)
	if err != nil {
		return nil, fmt.Errorf("redis get product: %w", err)
	}

	var product domain.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, fmt.Errorf("unmarshal product: %w", err)
	}

	return &product, nil
}

// Save stores a product in Redis with the given TTL.
func (c *ProductCache) Save(ctx context.Context, productType string, product domain.Product, ttl time.Duration) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}

	key := keyPrefix + productType
	ctx, end := database.TraceCommand(ctx, "SET", key)
	err = c.client.Set(ctx, key, data, ttl).Err()
	end(err)
	if err != nil {
		return fmt.Errorf("redis set product: %w", err)
	}

	return nil
}

// Delete removes a cached product from Redis.
func (c *ProductCache) Delete(ctx context.Context, productType string) error {
	key := keyPrefix + productType
	ctx, end := database.TraceCommand(ctx, "DEL", key)
	err := c.client.Del(ctx, key).Err()
	end(err)
	if err != nil {
		return fmt.Errorf("redis del product: %w", err)
	}
	return nil
}
