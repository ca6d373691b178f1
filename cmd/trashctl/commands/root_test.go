package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recyclebin/internal/core/apperror"
	"recyclebin/internal/core/entity"
	"recyclebin/internal/core/id"
	"recyclebin/internal/domain/catalogs/product"
	"recyclebin/internal/domain/lifecycle"
	"recyclebin/internal/infrastructure/storage/memory"
	"recyclebin/internal/infrastructure/storage/postgres"
	"recyclebin/internal/metadata"
)

type fixture struct {
	t        *testing.T
	products *memory.Store[product.Product, *product.Product]
	history  *fakeHistory
	closed   int
}

type fakeHistory struct {
	entries []postgres.AuditEntry
	gotID   id.ID
}

func (f *fakeHistory) History(_ context.Context, _ string, entityID id.ID, _ int) ([]postgres.AuditEntry, error) {
	f.gotID = entityID
	return f.entries, nil
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		t:        t,
		products: memory.New[product.Product, *product.Product](metadata.Products),
	}
}

func (f *fixture) trashed(name string) *product.Product {
	f.t.Helper()
	p := product.New(name, "SKU-"+name, decimal.RequireFromString("10.00"))
	p.SoftDeleteState().MarkDeleted(&entity.Actor{ID: "u1", Email: "ops@example.com"}, time.Now().UTC())
	require.NoError(f.t, f.products.Put(context.Background(), p))
	return p
}

func (f *fixture) run(args ...string) (string, error) {
	f.t.Helper()
	var out bytes.Buffer
	cmd := New(Options{
		Out: &out,
		Err: &out,
		Open: func(context.Context, string) (*Runtime, error) {
			reg, err := lifecycle.NewRegistry(metadata.Default(),
				lifecycle.Entry{Name: metadata.Products, Accessor: f.products})
			if err != nil {
				return nil, err
			}
			svc, err := lifecycle.NewService(lifecycle.ServiceConfig{Registry: reg})
			if err != nil {
				return nil, err
			}
			rt := &Runtime{Service: svc, Close: func() { f.closed++ }}
			if f.history != nil {
				rt.History = f.history
			}
			return rt, nil
		},
	})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestEntities(t *testing.T) {
	f := newFixture(t)
	out, err := f.run("entities")
	require.NoError(t, err)
	assert.Contains(t, out, "products")
	assert.Contains(t, out, "Product")
	assert.Equal(t, 1, f.closed)
}

func TestList_JSON(t *testing.T) {
	f := newFixture(t)
	p := f.trashed("lamp")

	out, err := f.run("list", "products", "--size", "5", "-o", "json")
	require.NoError(t, err)

	var page struct {
		Entity   string `json:"entity"`
		PageSize int    `json:"pageSize"`
		Total    int64  `json:"total"`
		Items    []struct {
			ID        string `json:"id"`
			Title     string `json:"title"`
			DeletedBy string `json:"deletedBy"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, "products", page.Entity)
	assert.Equal(t, 5, page.PageSize)
	assert.EqualValues(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, p.ID.String(), page.Items[0].ID)
	assert.Equal(t, "lamp", page.Items[0].Title)
	assert.Equal(t, "ops@example.com", page.Items[0].DeletedBy)
}

func TestList_UnknownEntity(t *testing.T) {
	f := newFixture(t)
	_, err := f.run("list", "orders")
	assert.True(t, apperror.IsUnknownEntity(err))
}

func TestRestore(t *testing.T) {
	f := newFixture(t)
	p := f.trashed("lamp")

	out, err := f.run("restore", "products", p.ID.String(), "--actor-id", "u2")
	require.NoError(t, err)
	assert.Equal(t, "Product restored successfully\n", out)

	got, err := f.products.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.False(t, got.SoftDeleteState().IsDeleted())
}

func TestRestore_MalformedID(t *testing.T) {
	f := newFixture(t)
	_, err := f.run("restore", "products", "not-an-id")
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestUnknownEntityReportedBeforeMalformedID(t *testing.T) {
	f := newFixture(t)
	for _, verb := range []string{"trash", "restore", "purge", "bulk-restore", "bulk-purge"} {
		_, err := f.run(verb, "orders", "not-an-id")
		assert.True(t, apperror.IsUnknownEntity(err), verb)
	}
}

func TestTrashThenPurge(t *testing.T) {
	f := newFixture(t)
	p := product.New("Chair", "CHR-1", decimal.Zero)
	require.NoError(t, f.products.Put(context.Background(), p))

	out, err := f.run("trash", "products", p.ID.String(), "--actor-email", "ops@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "moved to trash")

	got, err := f.products.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.SoftDeleteState().DeletedBy)
	assert.Equal(t, "ops@example.com", got.SoftDeleteState().DeletedBy.Email)

	out, err = f.run("purge", "products", p.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Product permanently deleted\n", out)
	assert.Zero(t, f.products.Len())
}

func TestBulkRestore_SkipsUnknownIDs(t *testing.T) {
	f := newFixture(t)
	a := f.trashed("a")
	b := f.trashed("b")

	out, err := f.run("bulk-restore", "products", a.ID.String(), b.ID.String(), id.New().String(), "not-an-id")
	require.NoError(t, err)
	assert.Equal(t, "2 products restored\n", out)
}

func TestBulkPurge_YAML(t *testing.T) {
	f := newFixture(t)
	a := f.trashed("a")

	out, err := f.run("bulk-purge", "products", a.ID.String(), "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "deletedcount: 1")
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	recordID := id.New()
	f.history = &fakeHistory{entries: []postgres.AuditEntry{
		{Action: lifecycle.ActionSoftDelete, UserEmail: "ops@example.com", CreatedAt: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)},
		{Action: lifecycle.ActionRestore, CreatedAt: time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)},
	}}

	out, err := f.run("history", "products", recordID.String())
	require.NoError(t, err)
	assert.Equal(t, recordID, f.history.gotID)
	assert.Contains(t, out, "2024-05-01 09:30:00")
	assert.Contains(t, out, "ops@example.com")
	assert.Contains(t, out, string(lifecycle.ActionRestore))
}

func TestHistory_Unavailable(t *testing.T) {
	f := newFixture(t)
	_, err := f.run("history", "products", id.New().String())
	assert.ErrorContains(t, err, "not available")
}

func TestInvalidOutputFormat(t *testing.T) {
	f := newFixture(t)
	_, err := f.run("entities", "-o", "xml")
	assert.ErrorContains(t, err, "invalid output format")
}
