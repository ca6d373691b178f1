// Package entity provides the soft-delete convention shared by every entity store.
package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Actor is the audit reference stored in deleted_by.
type Actor struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Scan implements sql.Scanner for reading deleted_by from PostgreSQL JSONB.
func (a *Actor) Scan(src any) error {
	var source []byte
	switch v := src.(type) {
	case nil:
		*a = Actor{}
		return nil
	case []byte:
		source = v
	case string:
		source = []byte(v)
	default:
		return fmt.Errorf("unsupported type for Actor: %T", src)
	}
	if len(source) == 0 {
		*a = Actor{}
		return nil
	}
	if err := json.Unmarshal(source, a); err != nil {
		return fmt.Errorf("failed to decode Actor: %w", err)
	}
	return nil
}

// Value implements driver.Valuer for writing deleted_by to PostgreSQL JSONB.
func (a *Actor) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

// SoftDelete is the four-field convention every stored record honors
// (together with the record id).
//
// Invariant: Deleted=false implies DeletedAt and DeletedBy are nil.
// Deleted=true implies DeletedAt is set; DeletedBy is set only when the
// deletion was attributed to a principal.
type SoftDelete struct {
	Deleted   bool       `db:"deleted" json:"deleted"`
	DeletedAt *time.Time `db:"deleted_at" json:"deletedAt"`
	DeletedBy *Actor     `db:"deleted_by" json:"deletedBy"`
}

// IsDeleted returns true if the record is in the trash.
func (s *SoftDelete) IsDeleted() bool {
	return s.Deleted
}

// MarkDeleted moves the record to the trash. A nil actor leaves DeletedBy empty.
func (s *SoftDelete) MarkDeleted(actor *Actor, at time.Time) {
	at = at.UTC()
	s.Deleted = true
	s.DeletedAt = &at
	if actor != nil {
		copied := *actor
		s.DeletedBy = &copied
	} else {
		s.DeletedBy = nil
	}
}

// Undelete clears all soft-delete metadata.
func (s *SoftDelete) Undelete() {
	s.Deleted = false
	s.DeletedAt = nil
	s.DeletedBy = nil
}

// Consistent reports whether the soft-delete invariant holds.
func (s *SoftDelete) Consistent() bool {
	if !s.Deleted {
		return s.DeletedAt == nil && s.DeletedBy == nil
	}
	return s.DeletedAt != nil
}
