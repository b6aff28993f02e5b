// Package redis stores the model catalog in a Redis hash so several engine
// instances share one directory. Each field is a model reference, each value
// the entry's JSON.
package redis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/redis/go-redis/v9"

	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/observability"
)

// ModelDirectory implements domain.ModelDirectory on a Redis hash.
type ModelDirectory struct {
	client *redis.Client
	key    string
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, cfg *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return client, nil
}

// NewModelDirectory creates a directory on the given hash key.
func NewModelDirectory(client *redis.Client, key string) (*ModelDirectory, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if key == "" {
		return nil, errors.New("catalog key cannot be empty")
	}

	return &ModelDirectory{client: client, key: key}, nil
}

// Get returns the entry for ref.
func (d *ModelDirectory) Get(ctx context.Context, ref domain.ModelRef) (domain.ModelInfo, error) {
	if err := ref.Validate(); err != nil {
		return domain.ModelInfo{}, err
	}

	raw, err := d.client.HGet(ctx, d.key, ref.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ModelInfo{}, fmt.Errorf("%w: %s", domain.ErrModelNotFound, ref)
	}
	if err != nil {
		return domain.ModelInfo{}, fmt.Errorf("failed to read model %s: %w", ref, err)
	}

	var info domain.ModelInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return domain.ModelInfo{}, fmt.Errorf("corrupt catalog entry %s: %w", ref, err)
	}

	return info, nil
}

// List returns every entry ordered by reference. Entries that fail to decode
// are logged and skipped.
func (d *ModelDirectory) List(ctx context.Context) ([]domain.ModelInfo, error) {
	entries, err := d.client.HGetAll(ctx, d.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	logger := observability.FromContext(ctx)

	models := make([]domain.ModelInfo, 0, len(keys))
	for _, k := range keys {
		var info domain.ModelInfo
		if err := json.Unmarshal([]byte(entries[k]), &info); err != nil {
			logger.Warn("skipping corrupt catalog entry",
				observability.String("key", k),
				observability.Error(err))
			continue
		}
		models = append(models, info)
	}

	return models, nil
}

// Register stores or replaces one entry.
func (d *ModelDirectory) Register(ctx context.Context, info domain.ModelInfo) error {
	if err := info.Validate(); err != nil {
		return err
	}

	data, err := encodeModel(info)
	if err != nil {
		return fmt.Errorf("failed to encode model %s: %w", info.ModelRef, err)
	}

	if err := d.client.HSet(ctx, d.key, info.ModelRef.String(), data).Err(); err != nil {
		return fmt.Errorf("failed to store model %s: %w", info.ModelRef, err)
	}

	return nil
}

// Replace swaps the whole catalog in one transaction.
func (d *ModelDirectory) Replace(ctx context.Context, models []domain.ModelInfo) error {
	values := make([]any, 0, len(models)*2)
	for _, info := range models {
		if err := info.Validate(); err != nil {
			return err
		}

		data, err := encodeModel(info)
		if err != nil {
			return fmt.Errorf("failed to encode model %s: %w", info.ModelRef, err)
		}
		values = append(values, info.ModelRef.String(), data)
	}

	logger := observability.FromContext(ctx)
	logger.Info("replacing catalog",
		observability.String("key", d.key),
		observability.Int("models", len(models)))

	pipe := d.client.TxPipeline()
	pipe.Del(ctx, d.key)
	if len(values) > 0 {
		pipe.HSet(ctx, d.key, values...)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		logger.Error("catalog replace failed", observability.Error(err))
		return fmt.Errorf("failed to replace catalog: %w", err)
	}

	return nil
}

// Delete removes one entry. Deleting a missing entry is not an error.
func (d *ModelDirectory) Delete(ctx context.Context, ref domain.ModelRef) error {
	if err := d.client.HDel(ctx, d.key, ref.String()).Err(); err != nil {
		return fmt.Errorf("failed to delete model %s: %w", ref, err)
	}
	return nil
}

// String describes the directory for logs.
func (d *ModelDirectory) String() string {
	return fmt.Sprintf("redis://%s/%s", d.client.Options().Addr, d.key)
}

// encodeModel stores prices verbatim; HTML escaping would rewrite tier keys
// such as "<=200k" and raw invalid values.
func encodeModel(info domain.ModelInfo) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(info); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
