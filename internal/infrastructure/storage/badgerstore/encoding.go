package badgerstore

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"time"

	"recyclebin/internal/core/id"
)

// Key namespace:
//
//	Data Type       Prefix   Key Format                                  Value
//	============================================================================
//	Record          "r:"     r:<entity>:<id>                             record (JSON)
//	Deleted index   "d:"     d:<entity>:<inverted deleted_at><id bytes>  empty
//
// The deleted index stores math.MaxInt64-unixNano big-endian so a forward
// prefix scan yields deleted_at DESC, then id ASC.
const (
	prefixRecord  = "r:"
	prefixDeleted = "d:"
)

func keyRecord(entityName string, recordID id.ID) []byte {
	return []byte(prefixRecord + entityName + ":" + recordID.String())
}

func keyDeletedPrefix(entityName string) []byte {
	return []byte(prefixDeleted + entityName + ":")
}

func keyDeleted(entityName string, at time.Time, recordID id.ID) []byte {
	prefix := keyDeletedPrefix(entityName)
	key := make([]byte, 0, len(prefix)+8+id.Size)
	key = append(key, prefix...)
	key = binary.BigEndian.AppendUint64(key, uint64(math.MaxInt64-at.UnixNano()))
	return append(key, recordID[:]...)
}

// idFromDeletedKey extracts the record id from the tail of an index key.
func idFromDeletedKey(key []byte) id.ID {
	var out id.ID
	copy(out[:], key[len(key)-id.Size:])
	return out
}

// StorageMarshaler lets a record control its stored form, e.g. to keep
// fields that its public JSON hides.
type StorageMarshaler interface {
	MarshalStorage() ([]byte, error)
	UnmarshalStorage(data []byte) error
}

func encodeRecord(rec any) ([]byte, error) {
	if m, ok := rec.(StorageMarshaler); ok {
		return m.MarshalStorage()
	}
	return json.Marshal(rec)
}

func decodeRecord(data []byte, rec any) error {
	if m, ok := rec.(StorageMarshaler); ok {
		return m.UnmarshalStorage(data)
	}
	return json.Unmarshal(data, rec)
}
