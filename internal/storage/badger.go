package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/yndnr/habbo-go/internal/telemetry/logger"
)

// BadgerEngine implements KV using Badger v3.
type BadgerEngine struct {
	db     *badger.DB
	cfg    KVConfig
	logger logger.Logger

	closeOnce sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// OpenBadger opens (or creates) a Badger store.
func OpenBadger(cfg KVConfig, l logger.Logger) (*BadgerEngine, error) {
	if !cfg.InMemory && cfg.Dir == "" {
		return nil, errors.New("badger: dir is required")
	}
	if l == nil {
		l = logger.Default()
	}
	l = l.With("component", "badger")

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.
		WithLogger(&badgerLogger{logger: l}).
		WithSyncWrites(cfg.SyncWrites).
		WithDetectConflicts(false)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	e := &BadgerEngine{
		db:     db,
		cfg:    cfg,
		logger: l,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go e.gcLoop()

	l.Info("badger engine started", "dir", cfg.Dir, "in_memory", cfg.InMemory)
	return e, nil
}

// Get retrieves a value by key.
func (e *BadgerEngine) Get(ctx context.Context, key []byte) ([]byte, error) {
	var value []byte
	err := e.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrKeyNotFound
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, e.mapErr(err)
	}
	return value, nil
}

// Set stores a key-value pair.
func (e *BadgerEngine) Set(ctx context.Context, key, value []byte) error {
	return e.Batch(ctx, Pair{Key: key, Value: value})
}

// Delete removes a key.
func (e *BadgerEngine) Delete(ctx context.Context, key []byte) error {
	return e.mapErr(e.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	}))
}

// Batch writes every pair in one transaction.
func (e *BadgerEngine) Batch(ctx context.Context, pairs ...Pair) error {
	return e.mapErr(e.db.Update(func(txn *badger.Txn) error {
		for _, p := range pairs {
			if err := txn.Set(p.Key, p.Value); err != nil {
				return err
			}
		}
		return nil
	}))
}

// Scan iterates over keys with a given prefix.
func (e *BadgerEngine) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	return e.mapErr(e.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if !fn(item.KeyCopy(nil), value) {
				break
			}
		}
		return nil
	}))
}

// GC runs value log garbage collection until nothing is left to rewrite.
func (e *BadgerEngine) GC(ctx context.Context) (int, error) {
	if e.cfg.InMemory {
		return 0, nil
	}
	runs := 0
	for ctx.Err() == nil {
		err := e.db.RunValueLogGC(e.cfg.GCThreshold)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			break
		}
		if err != nil {
			return runs, fmt.Errorf("gc: %w", err)
		}
		runs++
	}
	return runs, nil
}

// Close stops the GC loop and closes the database. Calling it again is a
// no-op.
func (e *BadgerEngine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		close(e.stopCh)
		<-e.doneCh
		if cerr := e.db.Close(); cerr != nil {
			err = fmt.Errorf("close db: %w", cerr)
		}
		e.logger.Info("badger engine closed")
	})
	return err
}

func (e *BadgerEngine) mapErr(err error) error {
	if errors.Is(err, badger.ErrDBClosed) {
		return ErrClosed
	}
	return err
}

func (e *BadgerEngine) gcLoop() {
	defer close(e.doneCh)
	if e.cfg.GCInterval <= 0 {
		<-e.stopCh
		return
	}

	ticker := time.NewTicker(e.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			if runs, err := e.GC(ctx); err != nil {
				e.logger.Warn("value log gc failed", "error", err)
			} else if runs > 0 {
				e.logger.Debug("value log gc completed", "runs", runs)
			}
			cancel()
		case <-e.stopCh:
			return
		}
	}
}

// badgerLogger adapts logger.Logger to Badger's Logger interface.
// Badger's info output is routine, so it is logged at debug.
type badgerLogger struct {
	logger logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
