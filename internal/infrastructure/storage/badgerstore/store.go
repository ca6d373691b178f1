package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"recyclebin/internal/core/apperror"
	"recyclebin/internal/core/entity"
	"recyclebin/internal/core/id"
	"recyclebin/internal/domain/audit"
)

// Ptr constrains PT to a pointer to T that is a Record.
type Ptr[T any] interface {
	*T
	entity.Record
}

// Store keeps one entity collection in a shared DB.
type Store[T any, PT Ptr[T]] struct {
	db         *DB
	entityName string
	now        func() time.Time
}

// NewStore creates a store for entityName.
func NewStore[T any, PT Ptr[T]](db *DB, entityName string) *Store[T, PT] {
	return &Store[T, PT]{
		db:         db,
		entityName: entityName,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the deletion timestamp source.
func (s *Store[T, PT]) WithClock(now func() time.Time) *Store[T, PT] {
	s.now = now
	return s
}

// Put inserts or replaces a record, keeping the deleted index in sync.
func (s *Store[T, PT]) Put(ctx context.Context, rec PT) error {
	if rec == nil {
		return apperror.NewValidation("record is required")
	}
	return s.db.update(ctx, func(txn *badgerdb.Txn) error {
		prev, err := s.load(txn, rec.GetID())
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}
		if prev != nil {
			if err := s.unindex(txn, prev); err != nil {
				return err
			}
		}
		return s.save(txn, rec)
	})
}

// Get returns a record regardless of its deleted flag.
func (s *Store[T, PT]) Get(ctx context.Context, recordID id.ID) (PT, error) {
	var out PT
	err := s.db.view(ctx, func(txn *badgerdb.Txn) error {
		rec, err := s.load(txn, recordID)
		out = rec
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CountDeleted implements lifecycle.Accessor.
func (s *Store[T, PT]) CountDeleted(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.view(ctx, func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = keyDeletedPrefix(s.entityName)

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count deleted %s: %w", s.entityName, err)
	}
	return n, nil
}

// FindDeleted implements lifecycle.Accessor.
func (s *Store[T, PT]) FindDeleted(ctx context.Context, offset, limit int) ([]entity.Record, error) {
	out := []entity.Record{}
	if offset < 0 || limit <= 0 {
		return out, nil
	}

	err := s.db.view(ctx, func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = keyDeletedPrefix(s.entityName)

		it := txn.NewIterator(opts)
		defer it.Close()

		skipped := 0
		for it.Rewind(); it.Valid() && len(out) < limit; it.Next() {
			if skipped < offset {
				skipped++
				continue
			}
			rec, err := s.load(txn, idFromDeletedKey(it.Item().KeyCopy(nil)))
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find deleted %s: %w", s.entityName, err)
	}
	return out, nil
}

// GetDeleted implements lifecycle.Accessor.
func (s *Store[T, PT]) GetDeleted(ctx context.Context, recordID id.ID) (entity.Record, error) {
	rec, err := s.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if !rec.SoftDeleteState().IsDeleted() {
		return nil, apperror.NewNotFound(s.entityName, recordID.String())
	}
	return rec, nil
}

// Restore implements lifecycle.Accessor.
func (s *Store[T, PT]) Restore(ctx context.Context, recordID id.ID) (entity.Record, error) {
	var out PT
	err := s.db.update(ctx, func(txn *badgerdb.Txn) error {
		rec, err := s.load(txn, recordID)
		if err != nil {
			return err
		}
		if !rec.SoftDeleteState().IsDeleted() {
			return apperror.NewNotFound(s.entityName, recordID.String())
		}
		if err := s.unindex(txn, rec); err != nil {
			return err
		}
		audit.ClearDeleted(rec)
		out = rec
		return s.save(txn, rec)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PermanentDelete implements lifecycle.Accessor.
func (s *Store[T, PT]) PermanentDelete(ctx context.Context, recordID id.ID) (entity.Record, error) {
	var out PT
	err := s.db.update(ctx, func(txn *badgerdb.Txn) error {
		rec, err := s.load(txn, recordID)
		if err != nil {
			return err
		}
		if !rec.SoftDeleteState().IsDeleted() {
			return apperror.NewNotSoftDeleted(s.entityName, recordID.String())
		}
		if err := s.unindex(txn, rec); err != nil {
			return err
		}
		out = rec
		return txn.Delete(keyRecord(s.entityName, recordID))
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SoftDelete implements lifecycle.Accessor.
func (s *Store[T, PT]) SoftDelete(ctx context.Context, recordID id.ID, actor *entity.Actor) (entity.Record, error) {
	var out PT
	err := s.db.update(ctx, func(txn *badgerdb.Txn) error {
		rec, err := s.load(txn, recordID)
		if err != nil {
			return err
		}
		out = rec
		if !audit.StampDeleted(rec, actor, s.now()) {
			return nil
		}
		return s.save(txn, rec)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store[T, PT]) load(txn *badgerdb.Txn, recordID id.ID) (PT, error) {
	item, err := txn.Get(keyRecord(s.entityName, recordID))
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, apperror.NewNotFound(s.entityName, recordID.String())
	}
	if err != nil {
		return nil, err
	}

	rec := PT(new(T))
	err = item.Value(func(val []byte) error {
		return decodeRecord(val, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", s.entityName, recordID, err)
	}
	return rec, nil
}

// save writes the record and, when it is trashed, its index entry.
func (s *Store[T, PT]) save(txn *badgerdb.Txn, rec PT) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", s.entityName, rec.GetID(), err)
	}
	if err := txn.Set(keyRecord(s.entityName, rec.GetID()), data); err != nil {
		return err
	}
	state := rec.SoftDeleteState()
	if state.IsDeleted() && state.DeletedAt != nil {
		return txn.Set(keyDeleted(s.entityName, *state.DeletedAt, rec.GetID()), nil)
	}
	return nil
}

func (s *Store[T, PT]) unindex(txn *badgerdb.Txn, rec PT) error {
	state := rec.SoftDeleteState()
	if !state.IsDeleted() || state.DeletedAt == nil {
		return nil
	}
	return txn.Delete(keyDeleted(s.entityName, *state.DeletedAt, rec.GetID()))
}
