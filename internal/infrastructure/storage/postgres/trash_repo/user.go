package trash_repo

import (
	"recyclebin/internal/domain/catalogs/user"
	"recyclebin/internal/domain/lifecycle"
	"recyclebin/internal/infrastructure/storage/postgres"
	"recyclebin/internal/metadata"
)

// UserRepo is the Postgres accessor for users. Password hashes are stored
// but never serialized to JSON.
type UserRepo struct {
	*BaseTrashRepo[user.User, *user.User]
}

var _ lifecycle.Accessor = (*UserRepo)(nil)

func NewUserRepo(txManager *postgres.TxManager, def metadata.EntityDef) *UserRepo {
	return &UserRepo{
		BaseTrashRepo: NewBaseTrashRepo[user.User](txManager, def.Name, def.TableName),
	}
}
