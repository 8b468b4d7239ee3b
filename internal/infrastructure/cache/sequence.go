package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lop-gin/factory-finance-pal/internal/domain/enum"
	"github.com/lop-gin/factory-finance-pal/internal/domain/repository"
)

const sequenceKeyPrefix = "docseq:"

type redisSequence struct {
	client *redis.Client
	seed   repository.SequenceRepository
}

// NewRedisSequence numbers documents with INCR on one key per type. A
// missing key is first seeded from seed so numbering continues after the
// rows already stored.
func NewRedisSequence(client *redis.Client, seed repository.SequenceRepository) repository.SequenceRepository {
	return &redisSequence{client: client, seed: seed}
}

func sequenceKey(t enum.DocumentType) string {
	return sequenceKeyPrefix + t.String()
}

func (s *redisSequence) Next(ctx context.Context, t enum.DocumentType) (int64, error) {
	key := sequenceKey(t)

	if s.seed != nil {
		exists, err := s.client.Exists(ctx, key).Result()
		if err != nil {
			return 0, fmt.Errorf("cache: sequence exists: %w", err)
		}
		if exists == 0 {
			next, err := s.seed.Next(ctx, t)
			if err != nil {
				return 0, fmt.Errorf("cache: sequence seed: %w", err)
			}
			if err := s.client.SetNX(ctx, key, next-1, 0).Err(); err != nil {
				return 0, fmt.Errorf("cache: sequence setnx: %w", err)
			}
		}
	}

	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("cache: sequence incr: %w", err)
	}
	return n, nil
}
