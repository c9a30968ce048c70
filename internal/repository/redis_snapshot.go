package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/GoPolymarket/vaultscope/internal/model"
	"github.com/redis/go-redis/v9"
)

const defaultSnapshotKey = "vaultscope:snapshot"

// RedisSnapshotStore publishes the vault list to a Redis list so every
// instance behind the load balancer serves the same progressive snapshot.
//
//	<key>       list of vault JSON, in publish order
//	<key>:meta  hash {batches, updated_at}
type RedisSnapshotStore struct {
	rdb     redis.UniversalClient
	listKey string
	metaKey string
}

func NewRedisSnapshotStore(rdb redis.UniversalClient, key string) *RedisSnapshotStore {
	if key == "" {
		key = defaultSnapshotKey
	}
	return &RedisSnapshotStore{rdb: rdb, listKey: key, metaKey: key + ":meta"}
}

func (s *RedisSnapshotStore) Replace(ctx context.Context, batch []model.VaultRecord) error {
	values, err := encodeVaults(batch)
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.listKey)
		if len(values) > 0 {
			pipe.RPush(ctx, s.listKey, values...)
		}
		pipe.HSet(ctx, s.metaKey, "batches", 1, "updated_at", time.Now().UTC().Format(time.RFC3339Nano))
		return nil
	})
	return err
}

func (s *RedisSnapshotStore) Append(ctx context.Context, batch []model.VaultRecord) error {
	values, err := encodeVaults(batch)
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(values) > 0 {
			pipe.RPush(ctx, s.listKey, values...)
		}
		pipe.HIncrBy(ctx, s.metaKey, "batches", 1)
		pipe.HSet(ctx, s.metaKey, "updated_at", time.Now().UTC().Format(time.RFC3339Nano))
		return nil
	})
	return err
}

func (s *RedisSnapshotStore) Latest(ctx context.Context) (model.Snapshot, error) {
	pipe := s.rdb.Pipeline()
	listCmd := pipe.LRange(ctx, s.listKey, 0, -1)
	metaCmd := pipe.HGetAll(ctx, s.metaKey)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return model.Snapshot{}, err
	}

	snap := model.Snapshot{Vaults: make([]model.VaultRecord, 0, len(listCmd.Val()))}
	for _, raw := range listCmd.Val() {
		var v model.VaultRecord
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return model.Snapshot{}, fmt.Errorf("decode snapshot vault: %w", err)
		}
		snap.Vaults = append(snap.Vaults, v)
	}

	meta := metaCmd.Val()
	snap.Batches, _ = strconv.Atoi(meta["batches"])
	if ts, err := time.Parse(time.RFC3339Nano, meta["updated_at"]); err == nil {
		snap.UpdatedAt = ts
	}
	return snap, nil
}

func encodeVaults(batch []model.VaultRecord) ([]any, error) {
	values := make([]any, len(batch))
	for i, v := range batch {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode vault %s: %w", v.Address, err)
		}
		values[i] = b
	}
	return values, nil
}
