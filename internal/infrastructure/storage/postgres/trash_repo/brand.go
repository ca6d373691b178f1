package trash_repo

import (
	"recyclebin/internal/domain/catalogs/brand"
	"recyclebin/internal/domain/lifecycle"
	"recyclebin/internal/infrastructure/storage/postgres"
	"recyclebin/internal/metadata"
)

// BrandRepo is the Postgres accessor for brands. Purging a brand unlinks
// its products.
type BrandRepo struct {
	*BaseTrashRepo[brand.Brand, *brand.Brand]
}

var _ lifecycle.Accessor = (*BrandRepo)(nil)

func NewBrandRepo(txManager *postgres.TxManager, def metadata.EntityDef) *BrandRepo {
	return &BrandRepo{
		BaseTrashRepo: NewBaseTrashRepo[brand.Brand](txManager, def.Name, def.TableName,
			clearReference(def.TableName, "parent_id"),
			clearReference("products", "brand_id"),
		),
	}
}
