package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"riskgrade/internal/constants"
	"riskgrade/pkg/metrics"
	"riskgrade/pkg/models"
)

// Store keeps the most recent annotated record per environment in Redis
// so dashboards can read current status without replaying the topic.
type Store interface {
	SaveLatest(ctx context.Context, record models.RecordEnvelope) error
	GetLatest(ctx context.Context, environment string) (*models.RecordEnvelope, error)
	ListEnvironments(ctx context.Context) ([]string, error)
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttlSeconds int) *RedisStore {
	if ttlSeconds <= 0 {
		ttlSeconds = constants.DefaultSnapshotTTLSeconds
	}
	return &RedisStore{
		client: client,
		ttl:    time.Duration(ttlSeconds) * time.Second,
	}
}

func snapshotKey(environment string) string {
	return constants.SnapshotKeyPrefix + environment
}

func (s *RedisStore) SaveLatest(ctx context.Context, record models.RecordEnvelope) error {
	body, err := json.Marshal(record)
	if err != nil {
		metrics.SnapshotWritesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := s.client.Set(ctx, snapshotKey(record.Environment), body, s.ttl).Err(); err != nil {
		metrics.SnapshotWritesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("redis set failed: %w", err)
	}

	metrics.SnapshotWritesTotal.WithLabelValues("success").Inc()
	return nil
}

func (s *RedisStore) GetLatest(ctx context.Context, environment string) (*models.RecordEnvelope, error) {
	body, err := s.client.Get(ctx, snapshotKey(environment)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var record models.RecordEnvelope
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return &record, nil
}

func (s *RedisStore) ListEnvironments(ctx context.Context) ([]string, error) {
	iter := s.client.Scan(ctx, 0, constants.SnapshotKeyPrefix+"*", 0).Iterator()
	var environments []string
	for iter.Next(ctx) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		environments = append(environments, iter.Val()[len(constants.SnapshotKeyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan failed: %w", err)
	}
	return environments, nil
}
