package lifecycle_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recyclebin/internal/core/apperror"
	"recyclebin/internal/core/entity"
	"recyclebin/internal/core/id"
	"recyclebin/internal/core/security"
	"recyclebin/internal/domain/catalogs/product"
	"recyclebin/internal/domain/catalogs/user"
	"recyclebin/internal/domain/lifecycle"
	"recyclebin/internal/infrastructure/storage/memory"
	"recyclebin/internal/metadata"
)

type fixture struct {
	svc      *lifecycle.Service
	products *memory.Store[product.Product, *product.Product]
	users    *memory.Store[user.User, *user.User]
	recorder *captureRecorder
}

type captureRecorder struct {
	mu     sync.Mutex
	events []lifecycle.Event
	err    error
}

func (r *captureRecorder) Record(_ context.Context, ev lifecycle.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *captureRecorder) actions() []lifecycle.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]lifecycle.Action, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Action
	}
	return out
}

func newFixture(t *testing.T, mutate ...func(*lifecycle.ServiceConfig)) *fixture {
	t.Helper()
	f := &fixture{
		products: memory.New[product.Product, *product.Product](metadata.Products),
		users:    memory.New[user.User, *user.User](metadata.Users),
		recorder: &captureRecorder{},
	}

	reg, err := lifecycle.NewRegistry(metadata.Default(),
		lifecycle.Entry{Name: metadata.Products, Accessor: f.products},
		lifecycle.Entry{Name: metadata.Users, Accessor: f.users},
	)
	require.NoError(t, err)

	cfg := lifecycle.ServiceConfig{Registry: reg, Recorder: f.recorder}
	for _, m := range mutate {
		m(&cfg)
	}
	f.svc, err = lifecycle.NewService(cfg)
	require.NoError(t, err)
	return f
}

func (f *fixture) addProduct(t *testing.T, name string) *product.Product {
	t.Helper()
	p := product.New(name, "SKU-"+name, decimal.RequireFromString("9.99"))
	require.NoError(t, f.products.Put(context.Background(), p))
	return p
}

func (f *fixture) trashProduct(t *testing.T, name string) *product.Product {
	t.Helper()
	p := f.addProduct(t, name)
	_, err := f.svc.SoftDelete(context.Background(), metadata.Products, p.ID, nil)
	require.NoError(t, err)
	return p
}

func trashedProduct(t *testing.T, store *memory.Store[product.Product, *product.Product], name string) id.ID {
	t.Helper()
	ctx := context.Background()
	p := product.New(name, "SKU-"+name, decimal.NewFromInt(1))
	require.NoError(t, store.Put(ctx, p))
	_, err := store.SoftDelete(ctx, p.ID, nil)
	require.NoError(t, err)
	return p.ID
}

var admin = &security.Principal{ID: "admin-1", Email: "admin@example.com", Role: "admin"}

func TestService_CheckEntity(t *testing.T) {
	f := newFixture(t)

	assert.NoError(t, f.svc.CheckEntity(metadata.Products))
	assert.True(t, apperror.IsUnknownEntity(f.svc.CheckEntity("orders")))
	assert.True(t, apperror.IsUnknownEntity(f.svc.CheckEntity("")))
}

func TestService_UnknownEntityNeverTouchesStorage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.trashProduct(t, "a")

	_, err := f.svc.ListDeleted(ctx, "orders", 1, 10)
	assert.True(t, apperror.IsUnknownEntity(err))
	_, err = f.svc.Restore(ctx, "orders", p.ID, admin)
	assert.True(t, apperror.IsUnknownEntity(err))
	_, err = f.svc.Purge(ctx, "Products", p.ID, admin)
	assert.True(t, apperror.IsUnknownEntity(err))
	_, err = f.svc.SoftDelete(ctx, "categories", p.ID, admin)
	assert.True(t, apperror.IsUnknownEntity(err), "known to the catalogue but not registered")
	_, err = f.svc.BulkRestore(ctx, "orders", []id.ID{p.ID}, admin)
	assert.True(t, apperror.IsUnknownEntity(err))
	_, err = f.svc.BulkPurge(ctx, "orders", []id.ID{p.ID}, admin)
	assert.True(t, apperror.IsUnknownEntity(err))

	got, err := f.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Deleted)
}

func TestService_ListDeletedTwoProducts(t *testing.T) {
	f := newFixture(t)
	f.trashProduct(t, "a")
	f.trashProduct(t, "b")
	f.addProduct(t, "active")

	res, err := f.svc.ListDeleted(context.Background(), metadata.Products, 1, 10)
	require.NoError(t, err)

	assert.EqualValues(t, 2, res.Total)
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, 1, res.Current)
	assert.Equal(t, 10, res.PageSize)
	require.Len(t, res.Items, 2)
	for _, item := range res.Items {
		assert.NotNil(t, item.SoftDeleteState().DeletedAt)
	}
}

func TestService_ListDeletedEmptyAndPastEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.ListDeleted(ctx, metadata.Users, 7, 10)
	require.NoError(t, err)
	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)
	assert.Zero(t, res.Pages)
	assert.Zero(t, res.Total)

	f.trashProduct(t, "a")
	res, err = f.svc.ListDeleted(ctx, metadata.Products, 3, 0)
	require.NoError(t, err)
	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)
	assert.Equal(t, 1, res.Pages)
	assert.EqualValues(t, 1, res.Total)
}

func TestService_SoftDeleteRestoreRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "widget")
	before, err := f.products.Get(ctx, p.ID)
	require.NoError(t, err)

	del, err := f.svc.SoftDelete(ctx, metadata.Products, p.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, "Product moved to trash", del.Message)
	state := del.Item.SoftDeleteState()
	assert.True(t, state.Deleted)
	require.NotNil(t, state.DeletedBy)
	assert.Equal(t, entity.Actor{ID: "admin-1", Email: "admin@example.com"}, *state.DeletedBy)

	res, err := f.svc.Restore(ctx, metadata.Products, p.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, "Product restored successfully", res.Message)

	restored := res.Item.(*product.Product)
	assert.False(t, restored.Deleted)
	assert.Nil(t, restored.DeletedAt)
	assert.Nil(t, restored.DeletedBy)
	assert.Equal(t, before, restored, "restore returns the record exactly as it was before deletion")

	stored, err := f.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, before, stored)
	assert.Equal(t, 1, stored.Version)
	assert.Equal(t, before.UpdatedAt, stored.UpdatedAt)

	assert.Equal(t, []lifecycle.Action{lifecycle.ActionSoftDelete, lifecycle.ActionRestore}, f.recorder.actions())
}

func TestService_SoftDeleteIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "widget")

	first, err := f.svc.SoftDelete(ctx, metadata.Products, p.ID, admin)
	require.NoError(t, err)
	second, err := f.svc.SoftDelete(ctx, metadata.Products, p.ID, &security.Principal{ID: "other"})
	require.NoError(t, err)

	assert.Equal(t, *first.Item.SoftDeleteState().DeletedAt, *second.Item.SoftDeleteState().DeletedAt)
	assert.Equal(t, "admin-1", second.Item.SoftDeleteState().DeletedBy.ID)
}

func TestService_SoftDeleteWithoutPrincipal(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "widget")

	res, err := f.svc.SoftDelete(context.Background(), metadata.Products, p.ID, nil)
	require.NoError(t, err)
	assert.True(t, res.Item.SoftDeleteState().Deleted)
	assert.Nil(t, res.Item.SoftDeleteState().DeletedBy)
}

func TestService_RestoreErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	active := f.addProduct(t, "active")

	_, err := f.svc.Restore(ctx, metadata.Products, active.ID, admin)
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.svc.Restore(ctx, metadata.Products, id.New(), admin)
	require.True(t, apperror.IsNotFound(err))
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, "Product not found", appErr.Message)
}

func TestService_PurgeRequiresTrash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	active := f.addProduct(t, "active")

	_, err := f.svc.Purge(ctx, metadata.Products, active.ID, admin)
	assert.True(t, apperror.IsConflict(err))
	_, err = f.products.Get(ctx, active.ID)
	assert.NoError(t, err, "active record must survive a rejected purge")

	trashed := f.trashProduct(t, "trashed")
	res, err := f.svc.Purge(ctx, metadata.Products, trashed.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, "Product permanently deleted", res.Message)

	_, err = f.svc.Restore(ctx, metadata.Products, trashed.ID, admin)
	assert.True(t, apperror.IsNotFound(err))
	_, err = f.svc.Purge(ctx, metadata.Products, trashed.ID, admin)
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_RecorderFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture(t)
	f.recorder.err = errors.New("audit store down")
	p := f.addProduct(t, "a")

	_, err := f.svc.SoftDelete(context.Background(), metadata.Products, p.ID, admin)
	require.NoError(t, err)
	_, err = f.svc.Restore(context.Background(), metadata.Products, p.ID, admin)
	require.NoError(t, err)
}

func TestService_StorageErrorsBecomeInternal(t *testing.T) {
	reg, err := lifecycle.NewRegistry(metadata.Default(),
		lifecycle.Entry{Name: metadata.Products, Accessor: failingAccessor{err: errors.New("connection reset")}},
	)
	require.NoError(t, err)
	svc, err := lifecycle.NewService(lifecycle.ServiceConfig{Registry: reg})
	require.NoError(t, err)

	_, err = svc.ListDeleted(context.Background(), metadata.Products, 1, 10)
	assert.Equal(t, apperror.CodeInternal, apperror.CodeOf(err))

	_, err = svc.Restore(context.Background(), metadata.Products, id.New(), admin)
	assert.Equal(t, apperror.CodeInternal, apperror.CodeOf(err))
}

func TestService_Entities(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, []lifecycle.EntityInfo{
		{Name: "products", Label: "Product"},
		{Name: "users", Label: "User"},
	}, f.svc.Entities())
}

func TestService_CELRestorePolicy(t *testing.T) {
	policy, err := security.NewCELRestorePolicy(`principal.role == "admin" || principal.id == deletedBy.id`)
	require.NoError(t, err)
	f := newFixture(t, func(cfg *lifecycle.ServiceConfig) { cfg.RestorePolicy = policy })
	ctx := context.Background()

	editor := &security.Principal{ID: "ed-1", Role: "editor"}
	other := &security.Principal{ID: "ed-2", Role: "editor"}

	p := f.addProduct(t, "a")
	_, err = f.svc.SoftDelete(ctx, metadata.Products, p.ID, editor)
	require.NoError(t, err)

	_, err = f.svc.Restore(ctx, metadata.Products, p.ID, other)
	assert.True(t, apperror.IsForbidden(err))

	_, err = f.svc.Restore(ctx, metadata.Products, p.ID, editor)
	assert.NoError(t, err)

	_, err = f.svc.SoftDelete(ctx, metadata.Products, p.ID, editor)
	require.NoError(t, err)
	_, err = f.svc.Restore(ctx, metadata.Products, p.ID, admin)
	assert.NoError(t, err)

	_, err = f.svc.Restore(ctx, metadata.Products, id.New(), admin)
	assert.True(t, apperror.IsNotFound(err))
}

type failingAccessor struct {
	lifecycle.Accessor
	err error
}

func (a failingAccessor) CountDeleted(context.Context) (int64, error) { return 0, a.err }
func (a failingAccessor) Restore(context.Context, id.ID) (entity.Record, error) {
	return nil, a.err
}

// slowAccessor blocks Restore on selected ids until the context is done.
type slowAccessor struct {
	lifecycle.Accessor
	slow map[id.ID]bool
}

func (a slowAccessor) Restore(ctx context.Context, recordID id.ID) (entity.Record, error) {
	if a.slow[recordID] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return a.Accessor.Restore(ctx, recordID)
}
