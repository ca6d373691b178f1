package trash_repo

import (
	"fmt"

	"recyclebin/internal/domain/lifecycle"
	"recyclebin/internal/infrastructure/storage/postgres"
	"recyclebin/internal/metadata"
)

// Entries builds registry entries for the requested entity names.
func Entries(txManager *postgres.TxManager, catalog *metadata.Registry, names []string) ([]lifecycle.Entry, error) {
	entries := make([]lifecycle.Entry, 0, len(names))
	for _, name := range names {
		def, ok := catalog.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown entity %q", name)
		}

		var accessor lifecycle.Accessor
		switch name {
		case metadata.Products:
			accessor = NewProductRepo(txManager, def)
		case metadata.Users:
			accessor = NewUserRepo(txManager, def)
		case metadata.Categories:
			accessor = NewCategoryRepo(txManager, def)
		case metadata.Brands:
			accessor = NewBrandRepo(txManager, def)
		default:
			return nil, fmt.Errorf("no postgres repository for entity %q", name)
		}
		entries = append(entries, lifecycle.Entry{Name: name, Accessor: accessor})
	}
	return entries, nil
}
