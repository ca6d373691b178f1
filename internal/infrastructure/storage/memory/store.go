// Package memory provides an in-process soft-delete store used by tests,
// the trashctl demo mode and the "memory" storage driver.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

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

// Store keeps records of one entity collection in a map guarded by a mutex.
// Every transition runs under the lock, so concurrent operations on the same
// id serialize. Records are copied on the way in and out.
type Store[T any, PT Ptr[T]] struct {
	mu         sync.Mutex
	entityName string
	items      map[id.ID]*T
	now        func() time.Time
}

// New creates an empty store for entityName.
func New[T any, PT Ptr[T]](entityName string) *Store[T, PT] {
	return &Store[T, PT]{
		entityName: entityName,
		items:      make(map[id.ID]*T),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the deletion timestamp source.
func (s *Store[T, PT]) WithClock(now func() time.Time) *Store[T, PT] {
	s.now = now
	return s
}

func (s *Store[T, PT]) clone(src *T) PT {
	c := *src
	pt := PT(&c)
	if d, ok := any(pt).(entity.Detacher); ok {
		d.Detach()
	}
	return pt
}

// Put inserts or replaces a record in whatever state it is in.
func (s *Store[T, PT]) Put(ctx context.Context, rec PT) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec == nil {
		return apperror.NewValidation("record is required")
	}
	stored := s.clone((*T)(rec))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[stored.GetID()] = (*T)(stored)
	return nil
}

// Get returns a record regardless of its deleted flag.
func (s *Store[T, PT]) Get(ctx context.Context, recordID id.ID) (PT, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[recordID]
	if !ok {
		return nil, apperror.NewNotFound(s.entityName, recordID.String())
	}
	return s.clone(item), nil
}

// Len returns the number of stored records, active and deleted.
func (s *Store[T, PT]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// CountDeleted implements lifecycle.Accessor.
func (s *Store[T, PT]) CountDeleted(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, item := range s.items {
		if PT(item).SoftDeleteState().IsDeleted() {
			n++
		}
	}
	return n, nil
}

// FindDeleted implements lifecycle.Accessor.
func (s *Store[T, PT]) FindDeleted(ctx context.Context, offset, limit int) ([]entity.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	deleted := make([]PT, 0)
	for _, item := range s.items {
		if PT(item).SoftDeleteState().IsDeleted() {
			deleted = append(deleted, s.clone(item))
		}
	}
	s.mu.Unlock()

	sort.Slice(deleted, func(i, j int) bool {
		return trashOrderLess(deleted[i], deleted[j])
	})

	out := []entity.Record{}
	if offset < 0 || offset >= len(deleted) || limit <= 0 {
		return out, nil
	}
	end := offset + limit
	if end > len(deleted) {
		end = len(deleted)
	}
	for _, rec := range deleted[offset:end] {
		out = append(out, rec)
	}
	return out, nil
}

// GetDeleted implements lifecycle.Accessor.
func (s *Store[T, PT]) GetDeleted(ctx context.Context, recordID id.ID) (entity.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[recordID]
	if !ok || !PT(item).SoftDeleteState().IsDeleted() {
		return nil, apperror.NewNotFound(s.entityName, recordID.String())
	}
	return s.clone(item), nil
}

// Restore implements lifecycle.Accessor.
func (s *Store[T, PT]) Restore(ctx context.Context, recordID id.ID) (entity.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[recordID]
	if !ok || !PT(item).SoftDeleteState().IsDeleted() {
		return nil, apperror.NewNotFound(s.entityName, recordID.String())
	}

	next := s.clone(item)
	audit.ClearDeleted(next)
	s.items[recordID] = (*T)(next)
	return s.clone((*T)(next)), nil
}

// PermanentDelete implements lifecycle.Accessor.
func (s *Store[T, PT]) PermanentDelete(ctx context.Context, recordID id.ID) (entity.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[recordID]
	if !ok {
		return nil, apperror.NewNotFound(s.entityName, recordID.String())
	}
	if !PT(item).SoftDeleteState().IsDeleted() {
		return nil, apperror.NewNotSoftDeleted(s.entityName, recordID.String())
	}

	delete(s.items, recordID)
	return s.clone(item), nil
}

// SoftDelete implements lifecycle.Accessor.
func (s *Store[T, PT]) SoftDelete(ctx context.Context, recordID id.ID, actor *entity.Actor) (entity.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[recordID]
	if !ok {
		return nil, apperror.NewNotFound(s.entityName, recordID.String())
	}

	next := s.clone(item)
	if !audit.StampDeleted(next, actor, s.now()) {
		return next, nil
	}
	s.items[recordID] = (*T)(next)
	return s.clone((*T)(next)), nil
}

// trashOrderLess orders by deleted_at DESC, then id ASC.
func trashOrderLess(a, b entity.Record) bool {
	at, bt := a.SoftDeleteState().DeletedAt, b.SoftDeleteState().DeletedAt
	if at != nil && bt != nil && !at.Equal(*bt) {
		return at.After(*bt)
	}
	return a.GetID().Compare(b.GetID()) < 0
}
