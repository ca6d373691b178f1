package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recyclebin/internal/config"
	"recyclebin/internal/metadata"
	"recyclebin/pkg/logger"
)

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	t.Setenv("RECYCLEBIN_STORAGE_DRIVER", driver)
	t.Setenv("RECYCLEBIN_STORAGE_IN_MEMORY", "true")
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestBuild_Memory(t *testing.T) {
	a, err := Build(context.Background(), testConfig(t, config.DriverMemory), logger.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.Len(t, a.Service.Entities(), 4)
	assert.Nil(t, a.History)
	assert.Empty(t, a.Checks)
}

func TestBuild_Badger(t *testing.T) {
	a, err := Build(context.Background(), testConfig(t, config.DriverBadger), logger.NewNop())
	require.NoError(t, err)
	defer a.Close()

	require.Contains(t, a.Checks, "badger")
	assert.NoError(t, a.Checks["badger"].Healthcheck(context.Background()))

	res, err := a.Service.ListDeleted(context.Background(), metadata.Users, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, res.Total)
}

func TestBuild_InvalidRestorePolicy(t *testing.T) {
	cfg := testConfig(t, config.DriverMemory)
	cfg.Trash.RestorePolicy = "principal.role =="

	_, err := Build(context.Background(), cfg, logger.NewNop())
	assert.Error(t, err)
}

func TestBuild_UnknownEntity(t *testing.T) {
	cfg := testConfig(t, config.DriverMemory)
	cfg.Trash.Entities = []string{"products", "orders"}

	_, err := Build(context.Background(), cfg, logger.NewNop())
	assert.ErrorContains(t, err, "orders")
}

func TestMemoryEntries_SkipsUnknown(t *testing.T) {
	entries := MemoryEntries([]string{metadata.Products, "orders"})
	require.Len(t, entries, 1)
	assert.Equal(t, metadata.Products, entries[0].Name)
}
