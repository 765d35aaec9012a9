package redis

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/johnny-morrice/pathtransport/internal/path"
	"github.com/johnny-morrice/pathtransport/internal/tree"
	"github.com/johnny-morrice/pathtransport/store"
)

// reader is satisfied by both *redis.Client and the watched *redis.Tx.
type reader interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HMGet(ctx context.Context, key string, fields ...string) *redis.SliceCmd
	HExists(ctx context.Context, key, field string) *redis.BoolCmd
	ZRangeByLex(ctx context.Context, key string, opt *redis.ZRangeBy) *redis.StringSliceCmd
}

// txn reads leaves. Writes go through an overlay.
type txn struct {
	ctx       context.Context
	cmd       reader
	leavesKey string
	indexKey  string
}

func (tx txn) Get(key string) ([]byte, bool, error) {
	value, err := tx.cmd.HGet(tx.ctx, tx.leavesKey, key).Bytes()

	if err == redis.Nil {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, errors.Wrap(err, "redis txn.Get failed")
	}

	return value, true, nil
}

func (tx txn) Scan(prefix string) (tree.Leaves, error) {
	const failMsg = "redis txn.Scan failed"

	keys, err := tx.keys(prefix, 0)

	if err != nil {
		return nil, errors.Wrap(err, failMsg)
	}

	found := tree.Leaves{}

	if len(keys) == 0 {
		return found, nil
	}

	values, err := tx.cmd.HMGet(tx.ctx, tx.leavesKey, keys...).Result()

	if err != nil {
		return nil, errors.Wrap(err, failMsg)
	}

	for i, value := range values {
		text, ok := value.(string)

		if !ok {
			continue
		}

		found[keys[i]] = []byte(text)
	}

	return found, nil
}

func (tx txn) Any(prefix string) (bool, error) {
	keys, err := tx.keys(prefix, 1)

	if err != nil {
		return false, errors.Wrap(err, "redis txn.Any failed")
	}

	return len(keys) > 0, nil
}

func (tx txn) Put(key string, value []byte) error {
	return store.ErrReadOnly
}

func (tx txn) Delete(key string) error {
	return store.ErrReadOnly
}

// keys lists the leaf at prefix and those below it. A positive limit stops
// early.
func (tx txn) keys(prefix string, limit int64) ([]string, error) {
	keys := []string{}
	span := &redis.ZRangeBy{Min: "-", Max: "+", Count: limit}

	if prefix != "" {
		exact, err := tx.cmd.HExists(tx.ctx, tx.leavesKey, prefix).Result()

		if err != nil {
			return nil, err
		}

		if exact {
			keys = append(keys, prefix)

			if limit > 0 && int64(len(keys)) >= limit {
				return keys, nil
			}
		}

		// '0' sorts just after the separator.
		span.Min = "[" + prefix + path.Separator
		span.Max = "(" + prefix + "0"
	}

	below, err := tx.cmd.ZRangeByLex(tx.ctx, tx.indexKey, span).Result()

	if err != nil {
		return nil, err
	}

	return append(keys, below...), nil
}
