package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/heatshift/domain/checkpoint"
)

// CheckpointStore is a Redis-backed implementation of checkpoint.Store.
//
// A run is kept under three keys: one string per checkpoint, a sorted set
// of its steps scored by step, and a hash of creation times by step.
type CheckpointStore struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// NewCheckpointStore connects to Redis and returns a store.
func NewCheckpointStore(cfg Config, opts ...ConfigOption) (*CheckpointStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewCheckpointStoreFromClient(client, cfg.KeyPrefix, cfg.TTL), nil
}

// NewCheckpointStoreFromClient creates a store from an existing client.
func NewCheckpointStoreFromClient(client redis.UniversalClient, keyPrefix string, ttl time.Duration) *CheckpointStore {
	return &CheckpointStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

func (s *CheckpointStore) dataKey(runID string, step int) string {
	return s.keyPrefix + "checkpoint:" + runID + ":" + strconv.Itoa(step)
}

func (s *CheckpointStore) stepsKey(runID string) string {
	return s.keyPrefix + "steps:" + runID
}

func (s *CheckpointStore) createdKey(runID string) string {
	return s.keyPrefix + "created:" + runID
}

// Save persists a checkpoint, replacing one of the same run and step.
func (s *CheckpointStore) Save(ctx context.Context, c *checkpoint.Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}

	cp := *c
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(&cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	member := strconv.Itoa(cp.Step)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.dataKey(cp.RunID, cp.Step), data, s.ttl)
		pipe.ZAdd(ctx, s.stepsKey(cp.RunID), redis.Z{Score: float64(cp.Step), Member: member})
		pipe.HSet(ctx, s.createdKey(cp.RunID), member, cp.CreatedAt.Format(time.RFC3339Nano))
		if s.ttl > 0 {
			pipe.Expire(ctx, s.stepsKey(cp.RunID), s.ttl)
			pipe.Expire(ctx, s.createdKey(cp.RunID), s.ttl)
		}
		return nil
	})
	return s.wrapError(err)
}

// Load retrieves the checkpoint of a run at step.
func (s *CheckpointStore) Load(ctx context.Context, runID string, step int) (*checkpoint.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if runID == "" {
		return nil, checkpoint.ErrInvalidRunID
	}

	data, err := s.client.Get(ctx, s.dataKey(runID, step)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s at step %d", checkpoint.ErrCheckpointNotFound, runID, step)
		}
		return nil, s.wrapError(err)
	}
	var c checkpoint.Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %w", checkpoint.ErrInvalidCheckpoint, err)
	}
	return &c, nil
}

// Latest retrieves the checkpoint with the highest step of a run.
func (s *CheckpointStore) Latest(ctx context.Context, runID string) (*checkpoint.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if runID == "" {
		return nil, checkpoint.ErrInvalidRunID
	}

	top, err := s.client.ZRevRangeWithScores(ctx, s.stepsKey(runID), 0, 0).Result()
	if err != nil {
		return nil, s.wrapError(err)
	}
	if len(top) == 0 {
		return nil, fmt.Errorf("%w: %s", checkpoint.ErrCheckpointNotFound, runID)
	}
	return s.Load(ctx, runID, int(top[0].Score))
}

// List describes the checkpoints of a run in step order.
func (s *CheckpointStore) List(ctx context.Context, runID string) ([]checkpoint.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if runID == "" {
		return nil, checkpoint.ErrInvalidRunID
	}

	steps, err := s.client.ZRangeWithScores(ctx, s.stepsKey(runID), 0, -1).Result()
	if err != nil {
		return nil, s.wrapError(err)
	}
	created, err := s.client.HGetAll(ctx, s.createdKey(runID)).Result()
	if err != nil {
		return nil, s.wrapError(err)
	}

	infos := make([]checkpoint.Info, 0, len(steps))
	for _, z := range steps {
		step := int(z.Score)
		info := checkpoint.Info{RunID: runID, Step: step}
		if ts, ok := created[strconv.Itoa(step)]; ok {
			if info.CreatedAt, err = time.Parse(time.RFC3339Nano, ts); err != nil {
				return nil, fmt.Errorf("%w: %s step %d created %q", checkpoint.ErrInvalidCheckpoint, runID, step, ts)
			}
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Delete removes every checkpoint of a run.
func (s *CheckpointStore) Delete(ctx context.Context, runID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if runID == "" {
		return checkpoint.ErrInvalidRunID
	}

	steps, err := s.client.ZRange(ctx, s.stepsKey(runID), 0, -1).Result()
	if err != nil {
		return s.wrapError(err)
	}
	if len(steps) == 0 {
		return fmt.Errorf("%w: %s", checkpoint.ErrCheckpointNotFound, runID)
	}

	keys := []string{s.stepsKey(runID), s.createdKey(runID)}
	for _, member := range steps {
		keys = append(keys, s.keyPrefix+"checkpoint:"+runID+":"+member)
	}
	return s.wrapError(s.client.Del(ctx, keys...).Err())
}

// Close closes the client.
func (s *CheckpointStore) Close() error {
	return s.client.Close()
}

// wrapError wraps Redis errors with domain errors.
func (s *CheckpointStore) wrapError(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errors.Join(checkpoint.ErrConnectionFailed, err)
}

var _ checkpoint.Store = (*CheckpointStore)(nil)
