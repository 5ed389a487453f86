package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shubham-shewale/stock-dashboard/pkg/models"
)

const (
	KeyWatchlist = "seed:watchlist"
	KeyTicker    = "seed:ticker"
	KeyIndices   = "seed:indices"
)

// Compile-time check to ensure RedisSeedStore implements SeedStore
var _ SeedStore = (*RedisSeedStore)(nil)

// RedisSeedStore reads seed documents provisioned in Redis. Each section that is
// missing falls back to the built-in sample data.
type RedisSeedStore struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisSeedStore(client *redis.Client, logger *zap.Logger) *RedisSeedStore {
	return &RedisSeedStore{
		client: client,
		logger: logger,
	}
}

// LoadSeed fetches all three sections in one round trip (MGET).
func (r *RedisSeedStore) LoadSeed(ctx context.Context) (models.Seed, error) {
	results, err := r.client.MGet(ctx, KeyWatchlist, KeyTicker, KeyIndices).Result()
	if err != nil {
		return models.Seed{}, fmt.Errorf("load seed: %w", err)
	}

	seed := models.DefaultSeed()
	sections := []struct {
		key    string
		decode func([]byte) error
	}{
		{KeyWatchlist, func(b []byte) error { return decodeInto(b, &seed.Watchlist) }},
		{KeyTicker, func(b []byte) error { return decodeInto(b, &seed.Ticker) }},
		{KeyIndices, func(b []byte) error { return decodeInto(b, &seed.Indices) }},
	}

	for i, sec := range sections {
		payload, ok := results[i].(string)
		if !ok || payload == "" {
			r.logger.Info("Seed key missing, using built-in data", zap.String("key", sec.key))
			continue
		}
		if err := sec.decode([]byte(payload)); err != nil {
			return models.Seed{}, fmt.Errorf("decode %s: %w", sec.key, err)
		}
	}

	if err := seed.Validate(); err != nil {
		return models.Seed{}, fmt.Errorf("invalid seed in redis: %w", err)
	}
	return seed, nil
}

// SaveSeed provisions all three sections atomically.
func (r *RedisSeedStore) SaveSeed(ctx context.Context, seed models.Seed) error {
	if err := seed.Validate(); err != nil {
		return err
	}

	docs := map[string]interface{}{
		KeyWatchlist: seed.Watchlist,
		KeyTicker:    seed.Ticker,
		KeyIndices:   seed.Indices,
	}

	pipe := r.client.TxPipeline()
	for key, v := range docs {
		payload, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		pipe.Set(ctx, key, payload, 0)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save seed: %w", err)
	}
	return nil
}

// decodeInto replaces *dst with a freshly decoded slice so no default entry leaks through.
func decodeInto[T any](payload []byte, dst *[]T) error {
	var out []T
	if err := json.Unmarshal(payload, &out); err != nil {
		return err
	}
	*dst = out
	return nil
}

func (r *RedisSeedStore) Close() error {
	return r.client.Close()
}
