package service

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/prabhuzz00/ColorWavePrediction/internal/models"
)

// CacheService handles all Redis caching for the read-heavy game
// endpoints. Every getter returns (nil, nil) on a cache miss so callers
// can fall through to Postgres; the server runs fine with cache == nil.
type CacheService struct {
	client *redis.Client
}

func NewCacheService(client *redis.Client) *CacheService {
	return &CacheService{client: client}
}

// ============================================================================
// GAME RESULTS CACHING
// ============================================================================

func (s *CacheService) GetResults(ctx context.Context, limit int) ([]models.GameResult, error) {
	key := fmt.Sprintf("game:results:%d", limit)

	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get error: %v", err)
	}

	var results []models.GameResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("json unmarshal error: %v", err)
	}
	return results, nil
}

func (s *CacheService) SetResults(ctx context.Context, limit int, results []models.GameResult, ttl time.Duration) error {
	key := fmt.Sprintf("game:results:%d", limit)

	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("json marshal error: %v", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

// ============================================================================
// CHART DATA CACHING
// ============================================================================

func (s *CacheService) GetChart(ctx context.Context, limit int) ([]models.Candle, error) {
	key := fmt.Sprintf("game:chart:%d", limit)

	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get error: %v", err)
	}

	var candles []models.Candle
	if err := json.Unmarshal(data, &candles); err != nil {
		return nil, fmt.Errorf("json unmarshal error: %v", err)
	}
	return candles, nil
}

func (s *CacheService) SetChart(ctx context.Context, limit int, candles []models.Candle, ttl time.Duration) error {
	key := fmt.Sprintf("game:chart:%d", limit)

	data, err := json.Marshal(candles)
	if err != nil {
		return fmt.Errorf("json marshal error: %v", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

// InvalidateRound drops every cached list after a round resolves so the
// next reads see the new result.
func (s *CacheService) InvalidateRound(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, "game:*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// ============================================================================
// LIVE ROUND STATUS
// ============================================================================

func (s *CacheService) SetRoundStatus(ctx context.Context, view models.RoundStatusView) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("json marshal error: %v", err)
	}
	// short TTL: the status changes every tick
	return s.client.Set(ctx, "game:round:current", data, 2*time.Second).Err()
}

func (s *CacheService) GetRoundStatus(ctx context.Context) (*models.RoundStatusView, error) {
	data, err := s.client.Get(ctx, "game:round:current").Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get error: %v", err)
	}

	var view models.RoundStatusView
	if err := json.Unmarshal(data, &view); err != nil {
		return nil, fmt.Errorf("json unmarshal error: %v", err)
	}
	return &view, nil
}
