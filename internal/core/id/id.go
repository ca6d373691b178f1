// Package id provides the opaque record identifiers used by every entity store.
// An ID is 12 bytes rendered as 24 lowercase hex characters. New IDs take the
// leading 12 bytes of a UUIDv7, so they sort by creation time.
package id

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Size is the number of raw bytes in an ID.
const Size = 12

// ID is a 12-byte identifier, rendered as 24 hex characters.
type ID [Size]byte

var nilID ID

// New generates a new time-ordered ID.
// The first 48 bits of a UUIDv7 are the Unix millisecond timestamp, which
// keeps IDs naturally ordered by creation time.
func New() ID {
	u, err := uuid.NewV7()
	if err != nil {
		// Fallback to V4 if V7 fails (should never happen)
		u = uuid.New()
	}
	var out ID
	copy(out[:], u[:Size])
	return out
}

// Parse converts a 24-character hex string to ID with validation.
func Parse(s string) (ID, error) {
	var out ID
	if len(s) != hex.EncodedLen(Size) {
		return out, fmt.Errorf("invalid id %q: expected %d hex characters", s, hex.EncodedLen(Size))
	}
	if _, err := hex.Decode(out[:], []byte(strings.ToLower(s))); err != nil {
		return out, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return out, nil
}

// MustParse converts string to ID, panics on error.
// Use only for constants and tests.
func MustParse(s string) ID {
	out, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return out
}

// Nil returns zero-value ID.
func Nil() ID {
	return nilID
}

// IsNil checks if ID is zero-value.
func IsNil(v ID) bool {
	return v == nilID
}

// String renders the ID as lowercase hex.
func (i ID) String() string {
	return hex.EncodeToString(i[:])
}

// Compare orders IDs bytewise, which is creation order for generated IDs.
func (i ID) Compare(other ID) int {
	return strings.Compare(string(i[:]), string(other[:]))
}

// MarshalText implements encoding.TextMarshaler (JSON renders the hex form).
func (i ID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Value implements driver.Valuer; IDs are stored as CHAR(24).
func (i ID) Value() (driver.Value, error) {
	return i.String(), nil
}

// Scan implements sql.Scanner.
func (i *ID) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return i.UnmarshalText([]byte(strings.TrimSpace(v)))
	case []byte:
		return i.UnmarshalText([]byte(strings.TrimSpace(string(v))))
	case nil:
		*i = nilID
		return nil
	default:
		return fmt.Errorf("unsupported type for ID: %T", src)
	}
}
