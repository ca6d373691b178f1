package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recyclebin/internal/core/apperror"
	"recyclebin/internal/core/id"
	"recyclebin/internal/core/security"
	"recyclebin/internal/domain/lifecycle"
	"recyclebin/internal/metadata"
)

func TestBulkRestore_CountsOnlyTrashedIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.trashProduct(t, "a")
	b := f.trashProduct(t, "b")
	active := f.addProduct(t, "active")
	missing := id.New()

	res, err := f.svc.BulkRestore(ctx, metadata.Products, []id.ID{a.ID, active.ID, missing, b.ID}, admin)
	require.NoError(t, err)
	assert.Equal(t, 2, res.RestoredCount)
	assert.Equal(t, "2 products restored", res.Message)

	got, err := f.products.Get(ctx, active.ID)
	require.NoError(t, err)
	assert.False(t, got.Deleted)
	assert.Equal(t, 1, got.Version, "active ids are left untouched")

	n, err := f.products.CountDeleted(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBulkPurge_MissingIDIsNotAnError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.trashProduct(t, "a")
	missing := id.New()

	res, err := f.svc.BulkPurge(ctx, metadata.Products, []id.ID{a.ID, missing}, admin)
	require.NoError(t, err)
	assert.Equal(t, 1, res.DeletedCount)
	assert.Equal(t, "1 products permanently deleted", res.Message)

	_, err = f.products.Get(ctx, a.ID)
	assert.True(t, apperror.IsNotFound(err))
	_, err = f.svc.Restore(ctx, metadata.Products, a.ID, admin)
	assert.True(t, apperror.IsNotFound(err))
	list, err := f.svc.ListDeleted(ctx, metadata.Products, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

func TestBulkPurge_SkipsActiveRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	active := f.addProduct(t, "active")

	res, err := f.svc.BulkPurge(ctx, metadata.Products, []id.ID{active.ID}, admin)
	require.NoError(t, err)
	assert.Zero(t, res.DeletedCount)
	assert.Equal(t, 1, f.products.Len())
}

func TestBulkRestore_NilIDIsSkipped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.trashProduct(t, "a")

	res, err := f.svc.BulkRestore(ctx, metadata.Products, []id.ID{id.Nil(), a.ID}, admin)
	require.NoError(t, err)
	assert.Equal(t, 1, res.RestoredCount)

	res, err = f.svc.BulkRestore(ctx, metadata.Products, []id.ID{id.Nil()}, admin)
	require.NoError(t, err)
	assert.Zero(t, res.RestoredCount)
	assert.Equal(t, []lifecycle.Action{lifecycle.ActionSoftDelete, lifecycle.ActionRestore}, f.recorder.actions())
}

func TestBulk_DeduplicatesIDs(t *testing.T) {
	f := newFixture(t)
	a := f.trashProduct(t, "a")

	res, err := f.svc.BulkPurge(context.Background(), metadata.Products, []id.ID{a.ID, a.ID, a.ID}, admin)
	require.NoError(t, err)
	assert.Equal(t, 1, res.DeletedCount)
}

func TestBulk_RejectsBadBatchBeforeMutation(t *testing.T) {
	f := newFixture(t, func(cfg *lifecycle.ServiceConfig) { cfg.MaxBulkIDs = 2 })
	ctx := context.Background()

	_, err := f.svc.BulkRestore(ctx, metadata.Products, nil, admin)
	require.True(t, apperror.IsValidation(err))
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, "ids", appErr.Details["field"])

	a := f.trashProduct(t, "a")
	b := f.trashProduct(t, "b")
	c := f.trashProduct(t, "c")
	_, err = f.svc.BulkPurge(ctx, metadata.Products, []id.ID{a.ID, b.ID, c.ID}, admin)
	assert.True(t, apperror.IsValidation(err))

	n, err := f.products.CountDeleted(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	// duplicates do not count against the limit
	res, err := f.svc.BulkPurge(ctx, metadata.Products, []id.ID{a.ID, b.ID, a.ID}, admin)
	require.NoError(t, err)
	assert.Equal(t, 2, res.DeletedCount)
}

func TestBulkRestore_PerItemTimeoutSkipsSlowID(t *testing.T) {
	products := newFixture(t).products
	ctx := context.Background()

	fast := trashedProduct(t, products, "fast")
	slow := trashedProduct(t, products, "slow")

	reg, err := lifecycle.NewRegistry(metadata.Default(), lifecycle.Entry{
		Name:     metadata.Products,
		Accessor: slowAccessor{Accessor: products, slow: map[id.ID]bool{slow: true}},
	})
	require.NoError(t, err)
	svc, err := lifecycle.NewService(lifecycle.ServiceConfig{Registry: reg, ItemTimeout: 20 * time.Millisecond})
	require.NoError(t, err)

	res, err := svc.BulkRestore(ctx, metadata.Products, []id.ID{slow, fast}, admin)
	require.NoError(t, err)
	assert.Equal(t, 1, res.RestoredCount)
}

func TestBulkRestore_CallDeadlineReturnsPartialCount(t *testing.T) {
	products := newFixture(t).products

	first := trashedProduct(t, products, "first")
	slow := trashedProduct(t, products, "slow")
	last := trashedProduct(t, products, "last")

	reg, err := lifecycle.NewRegistry(metadata.Default(), lifecycle.Entry{
		Name:     metadata.Products,
		Accessor: slowAccessor{Accessor: products, slow: map[id.ID]bool{slow: true}},
	})
	require.NoError(t, err)
	svc, err := lifecycle.NewService(lifecycle.ServiceConfig{Registry: reg, ItemTimeout: time.Minute})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res, err := svc.BulkRestore(ctx, metadata.Products, []id.ID{first, slow, last}, admin)
	require.NoError(t, err)
	assert.Equal(t, 1, res.RestoredCount)

	got, err := products.Get(context.Background(), last)
	require.NoError(t, err)
	assert.True(t, got.Deleted, "ids after the deadline are not attempted")
}

func TestBulkRestore_PolicyDeniedIDsAreSkipped(t *testing.T) {
	policy, err := security.NewCELRestorePolicy(`principal.id == deletedBy.id`)
	require.NoError(t, err)
	f := newFixture(t, func(cfg *lifecycle.ServiceConfig) { cfg.RestorePolicy = policy })
	ctx := context.Background()

	owner := &security.Principal{ID: "owner"}
	mine := f.addProduct(t, "mine")
	theirs := f.addProduct(t, "theirs")
	_, err = f.svc.SoftDelete(ctx, metadata.Products, mine.ID, owner)
	require.NoError(t, err)
	_, err = f.svc.SoftDelete(ctx, metadata.Products, theirs.ID, &security.Principal{ID: "someone-else"})
	require.NoError(t, err)

	res, err := f.svc.BulkRestore(ctx, metadata.Products, []id.ID{mine.ID, theirs.ID}, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, res.RestoredCount)
}
