package trash_repo

import (
	"recyclebin/internal/domain/catalogs/product"
	"recyclebin/internal/domain/lifecycle"
	"recyclebin/internal/infrastructure/storage/postgres"
	"recyclebin/internal/metadata"
)

// ProductRepo is the Postgres accessor for products.
type ProductRepo struct {
	*BaseTrashRepo[product.Product, *product.Product]
}

var _ lifecycle.Accessor = (*ProductRepo)(nil)

// NewProductRepo creates the products accessor.
func NewProductRepo(txManager *postgres.TxManager, def metadata.EntityDef) *ProductRepo {
	return &ProductRepo{
		BaseTrashRepo: NewBaseTrashRepo[product.Product](txManager, def.Name, def.TableName),
	}
}
