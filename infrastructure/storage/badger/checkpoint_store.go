package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/felixgeelhaar/heatshift/domain/checkpoint"
)

// CheckpointStore is a BadgerDB-backed implementation of checkpoint.Store.
//
// Each checkpoint is written under two keys in one transaction: the payload
// and a small info record, so listing a run never decodes agent state.
//
//	<prefix>checkpoint/<run>/<step>  checkpoint JSON
//	<prefix>info/<run>/<step>        checkpoint.Info JSON
//
// Steps are zero-padded so byte order is step order.
type CheckpointStore struct {
	db        *badger.DB
	keyPrefix string
	gcStop    chan struct{}
	gcWg      sync.WaitGroup
	closeOnce sync.Once
}

// NewCheckpointStore opens a BadgerDB checkpoint store.
func NewCheckpointStore(cfg Config, opts ...Option) (*CheckpointStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := NewCheckpointStoreFromDB(db, cfg.KeyPrefix)
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.startGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return s, nil
}

// NewCheckpointStoreFromDB creates a store on an existing database.
func NewCheckpointStoreFromDB(db *badger.DB, keyPrefix string) *CheckpointStore {
	return &CheckpointStore{
		db:        db,
		keyPrefix: keyPrefix,
		gcStop:    make(chan struct{}),
	}
}

func (s *CheckpointStore) startGC(interval time.Duration, discardRatio float64) {
	s.gcWg.Add(1)
	go func() {
		defer s.gcWg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.gcStop:
				return
			case <-ticker.C:
				// Rewrite value log files until nothing is left to reclaim.
				for s.db.RunValueLogGC(discardRatio) == nil {
				}
			}
		}
	}()
}

func (s *CheckpointStore) runPrefix(kind, runID string) []byte {
	return []byte(s.keyPrefix + kind + "/" + runID + "/")
}

func (s *CheckpointStore) key(kind, runID string, step int) []byte {
	return fmt.Appendf(s.runPrefix(kind, runID), "%010d", step)
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
	info, err := json.Marshal(checkpoint.Info{RunID: cp.RunID, Step: cp.Step, CreatedAt: cp.CreatedAt})
	if err != nil {
		return fmt.Errorf("marshal checkpoint info: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(s.key("checkpoint", cp.RunID, cp.Step), data); err != nil {
			return err
		}
		return txn.Set(s.key("info", cp.RunID, cp.Step), info)
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

	var c *checkpoint.Checkpoint
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key("checkpoint", runID, step))
		if err != nil {
			return err
		}
		c, err = decode(item)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s at step %d", checkpoint.ErrCheckpointNotFound, runID, step)
	}
	if err != nil {
		return nil, s.wrapError(err)
	}
	return c, nil
}

// Latest retrieves the checkpoint with the highest step of a run.
func (s *CheckpointStore) Latest(ctx context.Context, runID string) (*checkpoint.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if runID == "" {
		return nil, checkpoint.ErrInvalidRunID
	}

	var c *checkpoint.Checkpoint
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := s.runPrefix("checkpoint", runID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek(append(prefix, 0xFF))
		if !it.Valid() {
			return badger.ErrKeyNotFound
		}
		var err error
		c, err = decode(it.Item())
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", checkpoint.ErrCheckpointNotFound, runID)
	}
	if err != nil {
		return nil, s.wrapError(err)
	}
	return c, nil
}

// List describes the checkpoints of a run in step order.
func (s *CheckpointStore) List(ctx context.Context, runID string) ([]checkpoint.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if runID == "" {
		return nil, checkpoint.ErrInvalidRunID
	}

	infos := []checkpoint.Info{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = s.runPrefix("info", runID)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var info checkpoint.Info
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &info)
			})
			if err != nil {
				return fmt.Errorf("%w: %s: %w", checkpoint.ErrInvalidCheckpoint, it.Item().Key(), err)
			}
			infos = append(infos, info)
		}
		return nil
	})
	if err != nil {
		return nil, s.wrapError(err)
	}
	return infos, nil
}

// Steps returns the stored steps of a run, read from the keys alone.
func (s *CheckpointStore) Steps(ctx context.Context, runID string) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var steps []int
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := s.runPrefix("info", runID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			step, err := strconv.Atoi(strings.TrimPrefix(string(it.Item().Key()), string(prefix)))
			if err != nil {
				return fmt.Errorf("%w: key %q", checkpoint.ErrInvalidCheckpoint, it.Item().Key())
			}
			steps = append(steps, step)
		}
		return nil
	})
	if err != nil {
		return nil, s.wrapError(err)
	}
	return steps, nil
}

// Delete removes every checkpoint of a run.
func (s *CheckpointStore) Delete(ctx context.Context, runID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if runID == "" {
		return checkpoint.ErrInvalidRunID
	}

	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		for _, kind := range []string{"checkpoint", "info"} {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = s.runPrefix(kind, runID)
			opts.PrefetchValues = false

			it := txn.NewIterator(opts)
			for it.Rewind(); it.Valid(); it.Next() {
				keys = append(keys, it.Item().KeyCopy(nil))
			}
			it.Close()
		}
		return nil
	})
	if err != nil {
		return s.wrapError(err)
	}
	if len(keys) == 0 {
		return fmt.Errorf("%w: %s", checkpoint.ErrCheckpointNotFound, runID)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return s.wrapError(err)
		}
	}
	return s.wrapError(wb.Flush())
}

// Close stops garbage collection and closes the database.
func (s *CheckpointStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.gcStop)
		s.gcWg.Wait()
		err = s.db.Close()
	})
	return err
}

func decode(item *badger.Item) (*checkpoint.Checkpoint, error) {
	var c checkpoint.Checkpoint
	err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &c)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", checkpoint.ErrInvalidCheckpoint, err)
	}
	return &c, nil
}

func (s *CheckpointStore) wrapError(err error) error {
	if err == nil ||
		errors.Is(err, checkpoint.ErrInvalidCheckpoint) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errors.Join(checkpoint.ErrConnectionFailed, err)
}

var _ checkpoint.Store = (*CheckpointStore)(nil)
