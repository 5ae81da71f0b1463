package storage

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/redis/go-redis/v9"
	config "github.com/thirdweb-dev/treasury-snapshot/configs"
	"github.com/thirdweb-dev/treasury-snapshot/internal/common"
)

// RedisSink stores each artifact under <keyPrefix><name>. The whole set is
// written in one MULTI/EXEC so readers never observe a mix of two runs.
type RedisSink struct {
	client    redis.UniversalClient
	keyPrefix string
}

func NewRedisSink(ctx context.Context, cfg *config.RedisConfig) (*RedisSink, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.EnableTLS {
		opts.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}
	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newRedisSink(client, cfg.KeyPrefix), nil
}

func newRedisSink(client redis.UniversalClient, keyPrefix string) *RedisSink {
	return &RedisSink{client: client, keyPrefix: keyPrefix}
}

func (s *RedisSink) Name() string {
	return "redis"
}

func (s *RedisSink) Write(ctx context.Context, artifacts []common.Artifact) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, artifact := range artifacts {
			pipe.Set(ctx, s.key(artifact.Name), artifact.Body, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write artifacts to Redis: %w", err)
	}
	return nil
}

func (s *RedisSink) key(name string) string {
	return s.keyPrefix + name
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}
