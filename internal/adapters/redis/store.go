package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/claude-collective/collective/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Store implements ports.Store using Redis.
// Documents live under <prefix><collection>:doc:<id>; each collection keeps a
// ZSET index at <prefix><collection>:index scored by expiry for lazy pruning.
// The doc segment keeps document keys disjoint from the index key, whatever
// the caller picks as an ID.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for documents.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for documents.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "collective:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) key(collection, id string) string {
	return s.prefix + collection + ":doc:" + id
}

func (s *Store) indexKey(collection string) string {
	return s.prefix + collection + ":index"
}

// Save persists the document to Redis.
func (s *Store) Save(ctx context.Context, collection, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	pipe := s.client.Pipeline()

	pipe.Set(ctx, s.key(collection, id), data, s.ttl)

	// Index score = expiry unix time. With no TTL, park it far in the future.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}

	pipe.ZAdd(ctx, s.indexKey(collection), backend.Z{
		Score:  score,
		Member: id,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}

	return nil
}

// Load retrieves the document from Redis.
func (s *Store) Load(ctx context.Context, collection, id string, v any) error {
	val, err := s.client.Get(ctx, s.key(collection, id)).Result()
	if err != nil {
		if err == backend.Nil {
			return ports.ErrNotFound
		}
		return fmt.Errorf("failed to get from redis: %w", err)
	}

	if err := json.Unmarshal([]byte(val), v); err != nil {
		return fmt.Errorf("failed to unmarshal document: %w", err)
	}

	return nil
}

// Delete removes the document and its index entry.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	pipe := s.client.Pipeline()

	pipe.Del(ctx, s.key(collection, id))
	pipe.ZRem(ctx, s.indexKey(collection), id)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns document IDs in a collection, pruning expired index entries lazily.
func (s *Store) List(ctx context.Context, collection string) ([]string, error) {
	now := float64(time.Now().Unix())

	err := s.client.ZRemRangeByScore(ctx, s.indexKey(collection), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired documents: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(collection), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	return ids, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
