// Package lifecycle implements the generic soft-delete lifecycle: listing,
// restoring and purging trashed records of any registered entity collection.
//
// State machine per record:
//
//	ACTIVE  --SoftDelete-->      DELETED
//	DELETED --Restore-->         ACTIVE
//	DELETED --PermanentDelete--> PURGED (terminal)
//	ACTIVE  --PermanentDelete--> Conflict (rejected)
package lifecycle

import (
	"context"
	"time"

	"recyclebin/internal/core/entity"
	"recyclebin/internal/core/id"
)

// Accessor is the soft-delete capability every entity store implements.
// Implementations must make each per-record transition atomic: a Restore and a
// concurrent PermanentDelete on the same id serialize so exactly one succeeds.
type Accessor interface {
	// CountDeleted returns the size of the deleted set.
	CountDeleted(ctx context.Context) (int64, error)

	// FindDeleted pages through the deleted set ordered by deleted_at DESC, id ASC.
	// The order is stable across calls while the deleted set is unchanged.
	FindDeleted(ctx context.Context, offset, limit int) ([]entity.Record, error)

	// GetDeleted returns a record from the deleted set.
	// NotFound when the id is absent or the record is active.
	GetDeleted(ctx context.Context, recordID id.ID) (entity.Record, error)

	// Restore moves a record from the deleted set back to active and clears
	// deleted_at / deleted_by. NotFound when the id is not in the deleted set.
	Restore(ctx context.Context, recordID id.ID) (entity.Record, error)

	// PermanentDelete removes a trashed record and returns its last state.
	// Conflict when the record is active, NotFound when it does not exist.
	PermanentDelete(ctx context.Context, recordID id.ID) (entity.Record, error)

	// SoftDelete moves an active record to the trash attributed to actor
	// (nil actor leaves deleted_by empty). Already-deleted records are returned
	// unchanged. NotFound when the id does not exist.
	SoftDelete(ctx context.Context, recordID id.ID, actor *entity.Actor) (entity.Record, error)
}

// Action names a lifecycle transition in the audit log and metrics.
type Action string

const (
	ActionSoftDelete Action = "soft_delete"
	ActionRestore    Action = "restore"
	ActionPurge      Action = "purge"
	ActionList       Action = "list"
)

// Event is emitted after each successful mutation.
type Event struct {
	Entity   string
	EntityID id.ID
	Action   Action
	Actor    *entity.Actor
	At       time.Time

	// Snapshot is the record state after the transition (the last state for purge).
	Snapshot entity.Record
}

// Recorder persists lifecycle events (audit trail). Failures are logged by
// the service and never fail the operation that produced the event.
type Recorder interface {
	Record(ctx context.Context, event Event) error
}

// Observer receives per-operation measurements.
type Observer interface {
	ObserveOperation(entityName string, action Action, outcome string, started time.Time)
	ObserveBulk(entityName string, action Action, requested, applied int)
}

type noopRecorder struct{}

func (noopRecorder) Record(context.Context, Event) error { return nil }

type noopObserver struct{}

func (noopObserver) ObserveOperation(string, Action, string, time.Time) {}
func (noopObserver) ObserveBulk(string, Action, int, int)               {}
