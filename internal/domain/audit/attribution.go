// Package audit stamps soft-delete attribution onto records.
//
// The acting principal is always passed explicitly; nothing here reads a
// "current user" from context.
package audit

import (
	"time"

	"recyclebin/internal/core/entity"
	"recyclebin/internal/core/security"
)

// Attribution converts a principal into the deleted_by reference.
// Returns nil for a nil principal (system-initiated deletion).
func Attribution(p *security.Principal) *entity.Actor {
	if p == nil || (p.ID == "" && p.Email == "") {
		return nil
	}
	return &entity.Actor{ID: p.ID, Email: p.Email}
}

// StampDeleted moves rec to the trash attributed to actor.
// Already-deleted records are left untouched so the first deletion wins;
// the return value reports whether anything changed.
func StampDeleted(rec entity.Record, actor *entity.Actor, at time.Time) bool {
	state := rec.SoftDeleteState()
	if state.IsDeleted() {
		return false
	}
	state.MarkDeleted(actor, at)
	return true
}

// ClearDeleted returns rec to the active state and drops the attribution.
func ClearDeleted(rec entity.Record) {
	rec.SoftDeleteState().Undelete()
}
