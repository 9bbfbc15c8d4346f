package valkey

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/bucketdb/internal/db"
)

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := s.b().Get().Key(key).Build()
	data, err := s.do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// MGet retrieves multiple values in one round-trip. Missing keys yield nil
// entries, preserving positions.
func (s *Store) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	cmd := s.b().Mget().Key(keys...).Build()
	arr, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpMGet, Err: err}
	}

	out := make([][]byte, len(arr))
	for i, msg := range arr {
		data, err := msg.AsBytes()
		if err != nil {
			continue // nil reply for a missing key
		}
		out[i] = data
	}
	return out, nil
}

// Set stores a value at the given key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	cmd := s.b().Set().Key(key).Value(string(value)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}
