// Package previewcache implements the preview store on Redis. Expiry is
// enforced by Redis key TTLs; the single-use consume relies on GETDEL being
// atomic, so two racing confirms can never both observe the same payload.
package previewcache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/averix/orderhold/internal/domain/preview"
)

const keyPrefix = "preview:"

var _ preview.Store = (*Store)(nil)

// Store is a Redis-backed preview.Store.
type Store struct {
	client *redis.Client
}

// New creates a Store using the given Redis client.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// Put inserts the payload under its token. SET NX guards against the
// (astronomically unlikely) token collision within the TTL window.
func (s *Store) Put(ctx context.Context, p *preview.Payload, ttl time.Duration) error {
	data, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "marshal preview payload")
	}

	ok, err := s.client.SetNX(ctx, keyPrefix+p.Token, data, ttl).Result()
	if err != nil {
		return errors.Wrap(err, "set preview")
	}
	if !ok {
		return errors.Errorf("preview token %q already exists", p.Token)
	}
	return nil
}

// Peek returns the payload without consuming it.
func (s *Store) Peek(ctx context.Context, token string) (*preview.Payload, error) {
	data, err := s.client.Get(ctx, keyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, preview.ErrNotFound
		}
		return nil, errors.Wrap(err, "get preview")
	}
	return decode(data)
}

// Consume atomically fetches and deletes the payload via GETDEL.
func (s *Store) Consume(ctx context.Context, token string) (*preview.Payload, error) {
	data, err := s.client.GetDel(ctx, keyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, preview.ErrNotFound
		}
		return nil, errors.Wrap(err, "getdel preview")
	}
	return decode(data)
}

// Forget drops the payload. Missing tokens are a no-op.
func (s *Store) Forget(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, keyPrefix+token).Err(); err != nil {
		return errors.Wrap(err, "del preview")
	}
	return nil
}

func decode(data []byte) (*preview.Payload, error) {
	var p preview.Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(err, "unmarshal preview payload")
	}
	return &p, nil
}
