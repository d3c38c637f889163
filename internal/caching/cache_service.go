package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cardapio/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "cardapio"

type CacheService interface {
	// Product caching
	GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	SetProduct(ctx context.Context, product *models.Product, ttl time.Duration) error
	DeleteProduct(ctx context.Context, productID uuid.UUID) error

	// Image byte caching, keyed by stored name. Stored names are immutable so
	// entries only expire by TTL or explicit purge.
	GetImage(ctx context.Context, storedName string) ([]byte, error)
	SetImage(ctx context.Context, storedName string, data []byte, ttl time.Duration) error
	DeleteImage(ctx context.Context, storedName string) error

	Ping(ctx context.Context) error
	Close() error
}

type redisCacheService struct {
	client *redis.Client
}

// NewRedisCacheService connects to Redis. A failed initial ping is logged but
// not fatal: every cache error degrades to a miss at the call sites.
func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept redis://host:port as well as host:port
	parsedAddr := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Warn().Err(pingErr).Str("component", "cache").Str("addr", parsedAddr).Msg("redis ping failed on initialization")
	} else {
		log.Debug().Str("component", "cache").Str("addr", parsedAddr).Msg("redis connection established")
	}

	return &redisCacheService{client: client}
}

func productKey(productID uuid.UUID) string {
	return fmt.Sprintf("%s:product:%s", keyPrefix, productID.String())
}

func imageKey(storedName string) string {
	return fmt.Sprintf("%s:image:%s", keyPrefix, storedName)
}

func (r *redisCacheService) GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	data, err := r.client.Get(ctx, productKey(productID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var product models.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *redisCacheService) SetProduct(ctx context.Context, product *models.Product, ttl time.Duration) error {
	data, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, productKey(product.ID), data, ttl).Err()
}

func (r *redisCacheService) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	return r.client.Del(ctx, productKey(productID)).Err()
}

func (r *redisCacheService) GetImage(ctx context.Context, storedName string) ([]byte, error) {
	data, err := r.client.Get(ctx, imageKey(storedName)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // cache miss
		}
		return nil, err
	}
	return data, nil
}

func (r *redisCacheService) SetImage(ctx context.Context, storedName string, data []byte, ttl time.Duration) error {
	return r.client.Set(ctx, imageKey(storedName), data, ttl).Err()
}

func (r *redisCacheService) DeleteImage(ctx context.Context, storedName string) error {
	return r.client.Del(ctx, imageKey(storedName)).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisCacheService) Close() error {
	return r.client.Close()
}

// noopCacheService is used when Redis is not configured. Every read misses.
type noopCacheService struct{}

func NewNoopCacheService() CacheService {
	return noopCacheService{}
}

func (noopCacheService) GetProduct(context.Context, uuid.UUID) (*models.Product, error) {
	return nil, nil
}

func (noopCacheService) SetProduct(context.Context, *models.Product, time.Duration) error {
	return nil
}

func (noopCacheService) DeleteProduct(context.Context, uuid.UUID) error { return nil }

func (noopCacheService) GetImage(context.Context, string) ([]byte, error) { return nil, nil }

func (noopCacheService) SetImage(context.Context, string, []byte, time.Duration) error {
	return nil
}

func (noopCacheService) DeleteImage(context.Context, string) error { return nil }

func (noopCacheService) Ping(context.Context) error { return nil }

func (noopCacheService) Close() error { return nil }
