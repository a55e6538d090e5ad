package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/godfrey-tankan/document-insight-view/internal/models"
	"github.com/redis/go-redis/v9"
)

// ResultCache keeps recent analysis results by document id.
type ResultCache interface {
	Get(ctx context.Context, documentID string) (*models.AnalysisResult, error)
	Set(ctx context.Context, result *models.AnalysisResult) error
	Delete(ctx context.Context, documentID string) error
}

// ErrMiss is returned by Get when nothing is cached for the id.
var ErrMiss = errors.New("cache miss")

func resultKey(documentID string) string {
	return "analysis:" + documentID
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) ResultCache {
	return &redisCache{client: client, ttl: ttl}
}

func (c *redisCache) Get(ctx context.Context, documentID string) (*models.AnalysisResult, error) {
	key := resultKey(documentID)
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", key, err)
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		return nil, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return &result, nil
}

func (c *redisCache) Set(ctx context.Context, result *models.AnalysisResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	return c.client.Set(ctx, resultKey(result.DocumentID), data, c.ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, documentID string) error {
	return c.client.Del(ctx, resultKey(documentID)).Err()
}

type nopCache struct{}

// NewNopCache is used when no Redis address is configured.
func NewNopCache() ResultCache {
	return nopCache{}
}

func (nopCache) Get(context.Context, string) (*models.AnalysisResult, error) { return nil, ErrMiss }

func (nopCache) Set(context.Context, *models.AnalysisResult) error { return nil }

func (nopCache) Delete(context.Context, string) error { return nil }
