package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"realty_backend/internal/model"

	"github.com/redis/go-redis/v9"
)

// Persister keeps a copy of the listings that outlives the process.
// Load returns nil, nil when nothing was saved.
type Persister interface {
	Load(ctx context.Context) ([]model.Property, error)
	Save(ctx context.Context, props []model.Property) error
}

const DefaultPersistKey = "listings:snapshot"

type RedisPersister struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// NewRedisPersister stores the snapshot under key. A zero ttl keeps it
// forever.
func NewRedisPersister(client redis.UniversalClient, key string, ttl time.Duration) *RedisPersister {
	if key == "" {
		key = DefaultPersistKey
	}
	return &RedisPersister{client: client, key: key, ttl: ttl}
}

func (p *RedisPersister) Load(ctx context.Context) ([]model.Property, error) {
	data, err := p.client.Get(ctx, p.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var props []model.Property
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return props, nil
}

func (p *RedisPersister) Save(ctx context.Context, props []model.Property) error {
	data, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := p.client.Set(ctx, p.key, data, p.ttl).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
