package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recyclebin/internal/core/entity"
	"recyclebin/internal/domain/catalogs/product"
	"recyclebin/internal/domain/catalogs/user"
	"recyclebin/internal/domain/lifecycle"
)

func TestNewTrashRow(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p := product.New("Desk Lamp", "LMP-001", decimal.RequireFromString("39.90"))
	p.SoftDeleteState().MarkDeleted(&entity.Actor{ID: "u1", Email: "ops@example.com"}, at)

	row := NewTrashRow(p)
	assert.Equal(t, p.ID.String(), row.ID)
	assert.Equal(t, "Desk Lamp", row.Title)
	assert.Equal(t, "2024-05-01T12:00:00Z", row.DeletedAt)
	assert.Equal(t, "ops@example.com", row.DeletedBy)
}

func TestNewTrashRow_SystemDeletion(t *testing.T) {
	u, err := user.New("ops@example.com", "", user.RoleViewer, "secret-password")
	require.NoError(t, err)
	u.SoftDeleteState().MarkDeleted(nil, time.Now())

	row := NewTrashRow(u)
	assert.Equal(t, "ops@example.com", row.Title)
	assert.Equal(t, "-", row.DeletedBy)
}

func TestTrashPage_Table(t *testing.T) {
	p := product.New("Desk Lamp", "LMP-001", decimal.Zero)
	p.SoftDeleteState().MarkDeleted(nil, time.Now())

	page := NewTrashPage("products", lifecycle.PageResult{
		Items: []entity.Record{p}, Current: 1, PageSize: 10, Pages: 1, Total: 1,
	})

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatTable).Print(page))
	out := buf.String()
	assert.Contains(t, out, "DELETED AT")
	assert.Contains(t, out, p.ID.String())
	assert.Contains(t, out, "page 1/1, 1 total")
}

func TestEntityList_Rows(t *testing.T) {
	l := EntityList{{Name: "products", Label: "Product"}, {Name: "users", Label: "User"}}
	assert.Equal(t, [][]string{{"products", "Product"}, {"users", "User"}}, l.Rows())
}
