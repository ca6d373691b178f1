package postgres

import (
	"context"
	"database/sql/driver"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
)

// CopyFrom bulk-loads rows into table using the COPY protocol.
// It must run inside RunInTransaction so a failed load leaves nothing behind.
func (m *TxManager) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	t := m.getTx(ctx)
	if t == nil {
		return 0, fmt.Errorf("copy into %s requires a transaction", table)
	}
	return t.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
}

// CopyRows flattens records into COPY rows ordered by columns.
// driver.Valuer fields are resolved up front so COPY sees plain values.
func CopyRows[T any](records []T, columns []string) ([][]any, error) {
	rows := make([][]any, 0, len(records))
	for i, rec := range records {
		data := StructToMap(rec)
		if data == nil {
			return nil, fmt.Errorf("record %d has no db columns", i)
		}
		row := make([]any, len(columns))
		for j, col := range columns {
			v, err := copyValue(data[col])
			if err != nil {
				return nil, fmt.Errorf("record %d column %s: %w", i, col, err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func copyValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr && rv.IsNil() {
		return nil, nil
	}
	if valuer, ok := v.(driver.Valuer); ok {
		return valuer.Value()
	}
	return v, nil
}
