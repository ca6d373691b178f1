package dto

import (
	"recyclebin/internal/core/id"
	"recyclebin/internal/domain/lifecycle"
)

// BulkIDsRequest is the body of the bulk restore / purge endpoints.
type BulkIDsRequest struct {
	IDs []string `json:"ids"`
}

// ParseIDs converts the raw ids. A malformed id cannot name a stored record,
// so it becomes id.Nil and is skipped by the bulk loop like any other missing
// id. An empty list is left for the service to reject so the error is
// identical across transports.
func (r BulkIDsRequest) ParseIDs() []id.ID {
	out := make([]id.ID, 0, len(r.IDs))
	for _, raw := range r.IDs {
		v, err := id.Parse(raw)
		if err != nil {
			v = id.Nil()
		}
		out = append(out, v)
	}
	return out
}

// EntitiesResponse lists the entity collections that have a trash.
type EntitiesResponse struct {
	Entities []lifecycle.EntityInfo `json:"entities"`
}
