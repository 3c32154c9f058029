package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cloud-wave-best-zizon/basket-service/internal/domain"
	pkgconfig "github.com/cloud-wave-best-zizon/basket-service/pkg/config"
	"github.com/redis/go-redis/v9"
)

const (
	basketKeyPrefix = "basket:session:"
	basketIDSeqKey  = "basket:id:seq"
)

func NewRedisClient(ctx context.Context, cfg *pkgconfig.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// RedisBasketRepository keeps each session's basket as a JSON document.
// A zero ttl keeps baskets until they are removed externally.
type RedisBasketRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisBasketRepository(client *redis.Client, ttl time.Duration) *RedisBasketRepository {
	return &RedisBasketRepository{client: client, ttl: ttl}
}

func basketKey(sessionID string) string {
	return basketKeyPrefix + sessionID
}

func (r *RedisBasketRepository) FindBySessionID(ctx context.Context, sessionID string) (*domain.Basket, error) {
	data, err := r.client.Get(ctx, basketKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrBasketNotFound
		}
		return nil, fmt.Errorf("failed to get basket: %w", err)
	}

	var basket domain.Basket
	if err := json.Unmarshal(data, &basket); err != nil {
		return nil, fmt.Errorf("failed to unmarshal basket: %w", err)
	}
	return &basket, nil
}

func (r *RedisBasketRepository) Save(ctx context.Context, basket *domain.Basket) error {
	if basket.ID == 0 {
		id, err := r.client.Incr(ctx, basketIDSeqKey).Result()
		if err != nil {
			return fmt.Errorf("failed to allocate basket id: %w", err)
		}
		basket.AssignID(id)
	}

	data, err := json.Marshal(basket)
	if err != nil {
		return fmt.Errorf("failed to marshal basket: %w", err)
	}

	if err := r.client.Set(ctx, basketKey(basket.SessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set basket: %w", err)
	}
	return nil
}
