// Package cache adapts Redis to the verification cache port. A cache miss,
// a Redis outage and an open breaker all look the same to callers: the
// lookup falls through to the database.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/civicgov/birth-registry/certificate-service/internal/config"
	"github.com/civicgov/birth-registry/certificate-service/internal/core/ports"
)

const keyPrefix = "certificate:verify:"

type RedisVerificationCache struct {
	client *redis.Client
	cb     *gobreaker.CircuitBreaker
	logger *logrus.Logger
}

var _ ports.VerificationCache = (*RedisVerificationCache)(nil)

func NewRedisVerificationCache(client *redis.Client, logger *logrus.Logger) *RedisVerificationCache {
	return &RedisVerificationCache{
		client: client,
		cb:     config.NewCircuitBreaker("Redis-VerificationCache", logger),
		logger: logger,
	}
}

func (c *RedisVerificationCache) Get(ctx context.Context, certificateID string) ([]byte, bool) {
	result, err := c.cb.Execute(func() (any, error) {
		payload, err := c.client.Get(ctx, keyPrefix+certificateID).Bytes()
		if err == redis.Nil {
			// A miss is a successful round trip, not a failure.
			return nil, nil
		}
		return payload, err
	})
	if err != nil {
		c.logger.WithError(err).Debug("verification cache read failed")
		return nil, false
	}
	payload, ok := result.([]byte)
	return payload, ok
}

func (c *RedisVerificationCache) Set(ctx context.Context, certificateID string, payload []byte, ttl time.Duration) {
	if _, err := c.cb.Execute(func() (any, error) {
		return nil, c.client.Set(ctx, keyPrefix+certificateID, payload, ttl).Err()
	}); err != nil {
		c.logger.WithError(err).Debug("verification cache write failed")
	}
}
