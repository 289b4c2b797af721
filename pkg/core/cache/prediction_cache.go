// Package cache memoizes resale predictions in Redis. LLM-backed estimates
// are slow and billed per call; identical vehicle documents should only be
// estimated once.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"fleet_pricing/pkg/core/resale"
)

const defaultTTL = 24 * time.Hour

// PredictionCache wraps a Predictor with a Redis read-through cache.
type PredictionCache struct {
	client *redis.Client
	next   resale.Predictor
	ttl    time.Duration
}

var _ resale.Predictor = (*PredictionCache)(nil)

// NewPredictionCache connects to Redis at addr and caches predictions from
// next. A zero ttl uses the default of 24 hours.
func NewPredictionCache(addr string, next resale.Predictor, ttl time.Duration) *PredictionCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &PredictionCache{client: rdb, next: next, ttl: ttl}
}

// Ping verifies the Redis connection.
func (c *PredictionCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// PredictResale implements resale.Predictor. Cache failures degrade to a
// direct call; a broken Redis must not block pricing.
func (c *PredictionCache) PredictResale(ctx context.Context, vehicle map[string]interface{}) (float64, error) {
	key, err := VehicleKey(vehicle)
	if err != nil {
		return c.next.PredictResale(ctx, vehicle)
	}

	if val, redisErr := c.client.Get(ctx, key).Result(); redisErr == nil {
		if cached, parseErr := strconv.ParseFloat(val, 64); parseErr == nil {
			return cached, nil
		}
	}

	prediction, err := c.next.PredictResale(ctx, vehicle)
	if err != nil {
		return 0, err
	}

	if redisErr := c.client.Set(ctx, key, strconv.FormatFloat(prediction, 'g', -1, 64), c.ttl).Err(); redisErr != nil {
		fmt.Printf("[WARNING] Prediction cache write failed: %v\n", redisErr)
	}
	return prediction, nil
}

// VehicleKey derives a stable cache key from vehicle features. Keys are
// order-independent: the same features in any order hash identically.
func VehicleKey(vehicle map[string]interface{}) (string, error) {
	keys := make([]string, 0, len(vehicle))
	for k := range vehicle {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		valJSON, err := json.Marshal(vehicle[k])
		if err != nil {
			return "", fmt.Errorf("unhashable vehicle feature %q: %w", k, err)
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.Write(valJSON)
		sb.WriteByte(';')
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return "resale:v1:" + hex.EncodeToString(sum[:]), nil
}
