package trash_repo

import (
	"context"
	"fmt"

	"recyclebin/internal/core/id"
	"recyclebin/internal/domain/catalogs/category"
	"recyclebin/internal/domain/lifecycle"
	"recyclebin/internal/infrastructure/storage/postgres"
	"recyclebin/internal/metadata"
)

// CategoryRepo is the Postgres accessor for categories.
//
// Purging a category promotes its children to roots and clears the category
// on products that still point at it.
type CategoryRepo struct {
	*BaseTrashRepo[category.Category, *category.Category]
}

var _ lifecycle.Accessor = (*CategoryRepo)(nil)

func NewCategoryRepo(txManager *postgres.TxManager, def metadata.EntityDef) *CategoryRepo {
	return &CategoryRepo{
		BaseTrashRepo: NewBaseTrashRepo[category.Category](txManager, def.Name, def.TableName,
			clearReference(def.TableName, "parent_id"),
			clearReference("products", "category_id"),
		),
	}
}

// clearReference returns a hook that nulls column in table wherever it
// points at the purged record.
func clearReference(table, column string) PurgeHook {
	return func(ctx context.Context, q postgres.Querier, recordID id.ID) error {
		sql := fmt.Sprintf("UPDATE %s SET %s = NULL, version = version + 1 WHERE %s = $1", table, column, column)
		if _, err := q.Exec(ctx, sql, recordID.String()); err != nil {
			return fmt.Errorf("clear %s.%s: %w", table, column, err)
		}
		return nil
	}
}
