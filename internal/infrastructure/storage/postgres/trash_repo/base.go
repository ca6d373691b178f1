// Package trash_repo provides PostgreSQL soft-delete accessors.
// Each repository owns one table; per-record atomicity comes from a single
// conditional UPDATE or from SELECT ... FOR UPDATE inside a transaction.
package trash_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"recyclebin/internal/core/apperror"
	"recyclebin/internal/core/entity"
	"recyclebin/internal/core/id"
	"recyclebin/internal/infrastructure/storage/postgres"
)

const pgForeignKeyViolation = "23503"

// Ptr constrains PT to a pointer to T that is a soft-deletable record.
type Ptr[T any] interface {
	*T
	entity.Record
}

// PurgeHook runs inside the purge transaction after the row is locked and
// before it is deleted. Hooks clear references that would otherwise block
// the DELETE.
type PurgeHook func(ctx context.Context, q postgres.Querier, recordID id.ID) error

// BaseTrashRepo implements lifecycle.Accessor for one table.
// Embed it in the per-entity repositories.
type BaseTrashRepo[T any, PT Ptr[T]] struct {
	txManager  *postgres.TxManager
	entityName string
	tableName  string
	selectCols []string
	purgeHooks []PurgeHook
	now        func() time.Time
}

// NewBaseTrashRepo creates a repository; columns come from T's db tags.
func NewBaseTrashRepo[T any, PT Ptr[T]](txManager *postgres.TxManager, entityName, tableName string, hooks ...PurgeHook) *BaseTrashRepo[T, PT] {
	return &BaseTrashRepo[T, PT]{
		txManager:  txManager,
		entityName: entityName,
		tableName:  tableName,
		selectCols: postgres.ExtractDBColumns[T](),
		purgeHooks: hooks,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the deletion timestamp source.
func (r *BaseTrashRepo[T, PT]) WithClock(now func() time.Time) *BaseTrashRepo[T, PT] {
	r.now = now
	return r
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *BaseTrashRepo[T, PT]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Ids are always bound as strings: squirrel expands array values into IN lists.
func byID(recordID id.ID) squirrel.Eq {
	return squirrel.Eq{"id": recordID.String()}
}

func (r *BaseTrashRepo[T, PT]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().Select(r.selectCols...).From(r.tableName)
}

func (r *BaseTrashRepo[T, PT]) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// Insert stores a new record as-is, including its soft-delete state.
func (r *BaseTrashRepo[T, PT]) Insert(ctx context.Context, rec PT) error {
	sql, args, err := r.insertQuery(rec)
	if err != nil {
		return err
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.tableName, err)
	}
	return nil
}

func (r *BaseTrashRepo[T, PT]) insertQuery(rec PT) (string, []any, error) {
	data := postgres.StructToMap(rec)
	if len(data) == 0 {
		return "", nil, fmt.Errorf("no db tags found in %s record", r.entityName)
	}
	data = postgres.FilterColumns(data, r.selectCols)
	data["id"] = rec.GetID().String()

	sql, args, err := r.Builder().Insert(r.tableName).SetMap(data).ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build insert: %w", err)
	}
	return sql, args, nil
}

// InsertMany loads records with COPY in one transaction and returns the
// number of rows written.
func (r *BaseTrashRepo[T, PT]) InsertMany(ctx context.Context, recs []PT) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	rows, err := postgres.CopyRows(recs, r.selectCols)
	if err != nil {
		return 0, fmt.Errorf("prepare %s rows: %w", r.tableName, err)
	}

	var n int64
	err = r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		n, err = r.txManager.CopyFrom(ctx, r.tableName, r.selectCols, rows)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", r.tableName, err)
	}
	return n, nil
}

// Get returns a record regardless of its deleted flag.
func (r *BaseTrashRepo[T, PT]) Get(ctx context.Context, recordID id.ID) (PT, error) {
	sql, args, err := r.baseSelect().Where(byID(recordID)).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return r.getOne(ctx, recordID, sql, args)
}

// CountDeleted implements lifecycle.Accessor.
func (r *BaseTrashRepo[T, PT]) CountDeleted(ctx context.Context) (int64, error) {
	sql, args, err := r.countDeletedQuery()
	if err != nil {
		return 0, err
	}
	var total int64
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count deleted %s: %w", r.tableName, err)
	}
	return total, nil
}

func (r *BaseTrashRepo[T, PT]) countDeletedQuery() (string, []any, error) {
	sql, args, err := r.Builder().
		Select("COUNT(*)").
		From(r.tableName).
		Where(squirrel.Eq{"deleted": true}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build count query: %w", err)
	}
	return sql, args, nil
}

// FindDeleted implements lifecycle.Accessor; records are ordered by
// deleted_at descending with id as the tiebreaker.
func (r *BaseTrashRepo[T, PT]) FindDeleted(ctx context.Context, offset, limit int) ([]entity.Record, error) {
	sql, args, err := r.findDeletedQuery(offset, limit)
	if err != nil {
		return nil, err
	}

	var rows []PT
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("find deleted %s: %w", r.tableName, err)
	}

	out := make([]entity.Record, len(rows))
	for i, row := range rows {
		out[i] = row
	}
	return out, nil
}

func (r *BaseTrashRepo[T, PT]) findDeletedQuery(offset, limit int) (string, []any, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"deleted": true}).
		OrderBy("deleted_at DESC", "id ASC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build query: %w", err)
	}
	return sql, args, nil
}

// GetDeleted implements lifecycle.Accessor.
func (r *BaseTrashRepo[T, PT]) GetDeleted(ctx context.Context, recordID id.ID) (entity.Record, error) {
	sql, args, err := r.baseSelect().
		Where(byID(recordID)).
		Where(squirrel.Eq{"deleted": true}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rec, err := r.getOne(ctx, recordID, sql, args)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Restore implements lifecycle.Accessor with one conditional UPDATE, so two
// concurrent restores of the same id cannot both succeed.
func (r *BaseTrashRepo[T, PT]) Restore(ctx context.Context, recordID id.ID) (entity.Record, error) {
	sql, args, err := r.restoreQuery(recordID)
	if err != nil {
		return nil, err
	}
	rec, err := r.getOne(ctx, recordID, sql, args)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *BaseTrashRepo[T, PT]) restoreQuery(recordID id.ID) (string, []any, error) {
	sql, args, err := r.Builder().
		Update(r.tableName).
		Set("deleted", false).
		Set("deleted_at", nil).
		Set("deleted_by", nil).
		Where(byID(recordID)).
		Where(squirrel.Eq{"deleted": true}).
		Suffix("RETURNING " + joinCols(r.selectCols)).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build restore: %w", err)
	}
	return sql, args, nil
}

// SoftDelete implements lifecycle.Accessor. An already-deleted record is
// returned unchanged with its original attribution.
func (r *BaseTrashRepo[T, PT]) SoftDelete(ctx context.Context, recordID id.ID, actor *entity.Actor) (entity.Record, error) {
	var out PT
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sql, args, err := r.softDeleteQuery(recordID, actor, r.now())
		if err != nil {
			return err
		}
		rec, err := r.getOne(ctx, recordID, sql, args)
		if err == nil {
			out = rec
			return nil
		}
		if !apperror.IsNotFound(err) {
			return err
		}

		// Either missing or already in the trash.
		existing, err := r.Get(ctx, recordID)
		if err != nil {
			return err
		}
		out = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BaseTrashRepo[T, PT]) softDeleteQuery(recordID id.ID, actor *entity.Actor, at time.Time) (string, []any, error) {
	var deletedBy any
	if actor != nil {
		deletedBy = actor
	}
	sql, args, err := r.Builder().
		Update(r.tableName).
		Set("deleted", true).
		Set("deleted_at", at).
		Set("deleted_by", deletedBy).
		Where(byID(recordID)).
		Where(squirrel.Eq{"deleted": false}).
		Suffix("RETURNING " + joinCols(r.selectCols)).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build soft delete: %w", err)
	}
	return sql, args, nil
}

// PermanentDelete implements lifecycle.Accessor. The row is locked first so
// a concurrent restore either completes before the check or waits for the
// delete.
func (r *BaseTrashRepo[T, PT]) PermanentDelete(ctx context.Context, recordID id.ID) (entity.Record, error) {
	var last PT
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sql, args, err := r.lockQuery(recordID)
		if err != nil {
			return err
		}
		rec, err := r.getOne(ctx, recordID, sql, args)
		if err != nil {
			return err
		}
		if !rec.SoftDeleteState().IsDeleted() {
			return apperror.NewNotSoftDeleted(r.entityName, recordID.String())
		}

		q := r.querier(ctx)
		for _, hook := range r.purgeHooks {
			if err := hook(ctx, q, recordID); err != nil {
				return r.mapWriteErr(err, recordID)
			}
		}

		sql, args, err = r.deleteQuery(recordID)
		if err != nil {
			return err
		}
		if _, err := q.Exec(ctx, sql, args...); err != nil {
			return r.mapWriteErr(err, recordID)
		}
		last = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return last, nil
}

func (r *BaseTrashRepo[T, PT]) lockQuery(recordID id.ID) (string, []any, error) {
	sql, args, err := r.baseSelect().Where(byID(recordID)).Suffix("FOR UPDATE").ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build lock query: %w", err)
	}
	return sql, args, nil
}

func (r *BaseTrashRepo[T, PT]) deleteQuery(recordID id.ID) (string, []any, error) {
	sql, args, err := r.Builder().
		Delete(r.tableName).
		Where(byID(recordID)).
		Where(squirrel.Eq{"deleted": true}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build delete: %w", err)
	}
	return sql, args, nil
}

// getOne scans a single row and maps "no rows" to NOT_FOUND.
func (r *BaseTrashRepo[T, PT]) getOne(ctx context.Context, recordID id.ID, sql string, args []any) (PT, error) {
	rec := PT(new(T))
	if err := pgxscan.Get(ctx, r.querier(ctx), rec, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(r.entityName, recordID.String())
		}
		return nil, fmt.Errorf("query %s: %w", r.tableName, err)
	}
	return rec, nil
}

// mapWriteErr turns a foreign key violation into CONFLICT.
func (r *BaseTrashRepo[T, PT]) mapWriteErr(err error, recordID id.ID) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return apperror.NewConflict(fmt.Sprintf("%s %s is still referenced", r.entityName, recordID)).
			WithDetail("constraint", pgErr.ConstraintName)
	}
	return fmt.Errorf("purge %s: %w", r.tableName, err)
}

func joinCols(cols []string) string {
	return strings.Join(cols, ", ")
}
