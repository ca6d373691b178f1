package app

import (
	"context"
	"fmt"

	"recyclebin/internal/config"
	"recyclebin/internal/domain/catalogs/brand"
	"recyclebin/internal/domain/catalogs/category"
	"recyclebin/internal/domain/catalogs/product"
	"recyclebin/internal/domain/catalogs/user"
	"recyclebin/internal/domain/lifecycle"
	"recyclebin/internal/infrastructure/storage/badgerstore"
	"recyclebin/internal/infrastructure/storage/memory"
	"recyclebin/internal/infrastructure/storage/postgres"
	"recyclebin/internal/infrastructure/storage/postgres/trash_repo"
	"recyclebin/internal/metadata"
)

type storage struct {
	entries  []lifecycle.Entry
	recorder lifecycle.Recorder
}

func (a *App) openStorage(ctx context.Context) (storage, error) {
	names := a.Config.Trash.Entities
	for _, name := range names {
		if _, ok := a.Catalog.Get(name); !ok {
			return storage{}, fmt.Errorf("trash.entities: unknown entity %q (known: %v)", name, a.Catalog.Names())
		}
	}

	switch a.Config.Storage.Driver {
	case config.DriverPostgres:
		return a.openPostgres(ctx, names)
	case config.DriverBadger:
		return a.openBadger(names)
	case config.DriverMemory:
		return storage{entries: MemoryEntries(names)}, nil
	default:
		return storage{}, fmt.Errorf("unsupported storage driver %q", a.Config.Storage.Driver)
	}
}

func (a *App) openPostgres(ctx context.Context, names []string) (storage, error) {
	dbCfg := a.Config.Database
	poolCfg := postgres.DefaultPoolConfig(dbCfg.URL)
	poolCfg.ApplicationName = a.Config.App.Name
	poolCfg.MaxConns = dbCfg.MaxConns
	poolCfg.MinConns = dbCfg.MinConns
	if dbCfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = dbCfg.MaxConnLifetime
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return storage{}, err
	}
	a.onClose(func() {
		postgres.LogPoolStats(context.Background(), pool)
		pool.Close()
	})
	a.Checks["database"] = pool

	txManager := postgres.NewTxManager(pool, dbCfg.StatementTimeout)
	entries, err := trash_repo.Entries(txManager, a.Catalog, names)
	if err != nil {
		return storage{}, err
	}

	st := storage{entries: entries}
	if dbCfg.AuditEnabled {
		rec, err := postgres.NewAuditRecorder(txManager)
		if err != nil {
			return storage{}, err
		}
		a.onClose(rec.Close)
		a.History = rec
		st.recorder = rec
	}
	return st, nil
}

func (a *App) openBadger(names []string) (storage, error) {
	db, err := badgerstore.Open(badgerstore.Options{
		Path:     a.Config.Storage.BadgerPath,
		InMemory: a.Config.Storage.InMemory,
		Logger:   a.Logger,
	})
	if err != nil {
		return storage{}, err
	}
	a.onClose(func() {
		if err := db.Close(); err != nil {
			a.Logger.Warnw("close badger", "error", err)
		}
	})
	a.Checks["badger"] = db

	entries := make([]lifecycle.Entry, 0, len(names))
	for _, name := range names {
		var acc lifecycle.Accessor
		switch name {
		case metadata.Products:
			acc = badgerstore.NewStore[product.Product](db, name)
		case metadata.Users:
			acc = badgerstore.NewStore[user.User](db, name)
		case metadata.Categories:
			acc = badgerstore.NewStore[category.Category](db, name)
		case metadata.Brands:
			acc = badgerstore.NewStore[brand.Brand](db, name)
		default:
			return storage{}, fmt.Errorf("no badger store for entity %q", name)
		}
		entries = append(entries, lifecycle.Entry{Name: name, Accessor: acc})
	}
	return storage{entries: entries}, nil
}

// MemoryEntries builds empty in-memory stores for names. Unknown names are
// skipped; the registry rejects them anyway.
func MemoryEntries(names []string) []lifecycle.Entry {
	entries := make([]lifecycle.Entry, 0, len(names))
	for _, name := range names {
		var acc lifecycle.Accessor
		switch name {
		case metadata.Products:
			acc = memory.New[product.Product](name)
		case metadata.Users:
			acc = memory.New[user.User](name)
		case metadata.Categories:
			acc = memory.New[category.Category](name)
		case metadata.Brands:
			acc = memory.New[brand.Brand](name)
		default:
			continue
		}
		entries = append(entries, lifecycle.Entry{Name: name, Accessor: acc})
	}
	return entries
}
