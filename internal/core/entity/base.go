package entity

import (
	"time"

	"recyclebin/internal/core/id"
)

// Record is implemented by every entity that follows the soft-delete convention.
// Stores hand records out through this interface so the lifecycle core can
// treat products, users, categories and brands uniformly.
type Record interface {
	// GetID returns the opaque record identifier.
	GetID() id.ID

	// SoftDeleteState exposes the embedded soft-delete metadata for mutation.
	SoftDeleteState() *SoftDelete
}

///////////////////
// Base Entity   //
///////////////////

// BaseEntity contains common fields for all entities.
type BaseEntity struct {
	// ID is the primary key (24 hex characters)
	ID id.ID `db:"id" json:"id"`

	// SoftDelete holds deleted / deleted_at / deleted_by
	SoftDelete

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	// Attributes holds free-form custom fields (JSONB)
	Attributes Attributes `db:"attributes" json:"attributes,omitempty"`
}

// NewBaseEntity creates a new active BaseEntity with generated ID.
func NewBaseEntity() BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{
		ID:        id.New(),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// GetID implements Record.
func (b *BaseEntity) GetID() id.ID {
	return b.ID
}

// SoftDeleteState implements Record.
func (b *BaseEntity) SoftDeleteState() *SoftDelete {
	return &b.SoftDelete
}

// Detach replaces shared pointers and maps with private copies so a record
// handed out by a store cannot alias the stored value.
func (b *BaseEntity) Detach() {
	if b.DeletedAt != nil {
		at := *b.DeletedAt
		b.DeletedAt = &at
	}
	if b.DeletedBy != nil {
		actor := *b.DeletedBy
		b.DeletedBy = &actor
	}
	b.Attributes = b.Attributes.Clone()
}

// Detacher is implemented by records that embed BaseEntity.
type Detacher interface {
	Detach()
}
