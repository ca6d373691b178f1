// Package badgerstore is an embedded soft-delete store on BadgerDB.
package badgerstore

import (
	"context"
	"errors"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"

	"recyclebin/pkg/logger"
)

// maxConflictRetries bounds how often a transition is replayed after Badger
// rejects a commit because a concurrent transaction touched the same keys.
const maxConflictRetries = 8

// Options configures the BadgerDB handle.
type Options struct {
	// Path to the database directory. Empty means in-memory.
	Path string
	// InMemory forces in-memory mode even if Path is set.
	InMemory bool
	// Logger receives Badger's internal logs; nil disables them.
	Logger *logger.Logger
}

// DB is a shared BadgerDB handle; one DB serves every entity Store.
type DB struct {
	db *badgerdb.DB
}

// Open opens (or creates) the database.
func Open(opts Options) (*DB, error) {
	badgerOpts := badgerdb.DefaultOptions(opts.Path)
	if opts.Path == "" || opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}
	if opts.Logger != nil {
		badgerOpts = badgerOpts.WithLogger(badgerLogger{opts.Logger.WithComponent("badger")})
	} else {
		badgerOpts = badgerOpts.WithLogger(nil)
	}

	db, err := badgerdb.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Healthcheck verifies a read transaction can be started.
func (d *DB) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.db.View(func(*badgerdb.Txn) error { return nil }); err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	return nil
}

// update runs fn in a read-write transaction. Badger transactions are
// serializable: a commit that raced another writer on the same key fails with
// ErrConflict and fn is replayed against the new state.
func (d *DB) update(ctx context.Context, fn func(txn *badgerdb.Txn) error) error {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := d.db.Update(fn)
		if errors.Is(err, badgerdb.ErrConflict) && attempt < maxConflictRetries {
			continue
		}
		return err
	}
}

func (d *DB) view(ctx context.Context, fn func(txn *badgerdb.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.db.View(fn)
}

// badgerLogger adapts the zap logger to badger.Logger.
type badgerLogger struct {
	l *logger.Logger
}

func (b badgerLogger) Errorf(format string, args ...interface{})   { b.l.Errorf(format, args...) }
func (b badgerLogger) Warningf(format string, args ...interface{}) { b.l.Warnf(format, args...) }
func (b badgerLogger) Infof(format string, args ...interface{})    { b.l.Infof(format, args...) }
func (b badgerLogger) Debugf(format string, args ...interface{})   { b.l.Debugf(format, args...) }
