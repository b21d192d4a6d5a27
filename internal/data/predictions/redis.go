package predictions

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/cropsense/cropsense-backend/internal/domain"
	"github.com/cropsense/cropsense-backend/internal/pkg/logger"
)

type redisStore struct {
	log *logger.Logger
	rdb *goredis.Client
}

// NewRedisStore connects to the Redis instance named by REDIS_ADDR and pings
// it before returning. Records live as JSON values under
// prediction_<userId>_<timestamp> keys with no TTL.
func NewRedisStore(log *logger.Logger) (Store, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    os.Getenv("REDIS_PASSWORD"),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisStore{
		log: log.With("service", "RedisPredictionStore"),
		rdb: rdb,
	}, nil
}

func (s *redisStore) Save(ctx context.Context, p *domain.Prediction) (string, error) {
	if p == nil {
		return "", fmt.Errorf("nil prediction")
	}
	if p.Timestamp == 0 {
		p.Timestamp = time.Now().UnixMilli()
	}
	p.ID = Key(p.UserID, p.Timestamp)

	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal prediction: %w", err)
	}
	if err := s.rdb.Set(ctx, p.ID, raw, 0).Err(); err != nil {
		return "", fmt.Errorf("redis set: %w", err)
	}
	return p.ID, nil
}

func (s *redisStore) GetByID(ctx context.Context, userID, id string) (*domain.Prediction, error) {
	if !OwnedBy(id, userID) {
		return nil, ErrForbidden
	}
	raw, err := s.rdb.Get(ctx, id).Result()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var p domain.Prediction
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("unmarshal prediction %q: %w", id, err)
	}
	return &p, nil
}

func (s *redisStore) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Prediction, error) {
	var keys []string
	iter := s.rdb.Scan(ctx, 0, UserPrefix(userID)+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	if len(keys) == 0 {
		return []*domain.Prediction{}, nil
	}

	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	preds := make([]*domain.Prediction, 0, len(vals))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// Key disappeared between SCAN and MGET; skip it.
			continue
		}
		var p domain.Prediction
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			s.log.Warn("Skipping malformed prediction record", "key", keys[i], "error", err)
			continue
		}
		preds = append(preds, &p)
	}

	sortNewestFirst(preds)
	return clampToLimit(preds, limit), nil
}

func (s *redisStore) DeleteByID(ctx context.Context, userID, id string) error {
	if !OwnedBy(id, userID) {
		return ErrForbidden
	}
	if err := s.rdb.Del(ctx, id).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
