package handlers

import (
	"github.com/gin-gonic/gin"

	"recyclebin/internal/domain/lifecycle"
	"recyclebin/internal/infrastructure/http/v1/dto"
)

// TrashHandler exposes the lifecycle service over HTTP.
type TrashHandler struct {
	*BaseHandler
	service *lifecycle.Service
}

// NewTrashHandler creates a trash handler.
func NewTrashHandler(base *BaseHandler, service *lifecycle.Service) *TrashHandler {
	return &TrashHandler{BaseHandler: base, service: service}
}

// ResolveEntity aborts with UNKNOWN_ENTITY when :entity has no trash.
func (h *TrashHandler) ResolveEntity(c *gin.Context) {
	if err := h.service.CheckEntity(c.Param("entity")); err != nil {
		h.Error(c, err)
		return
	}
	c.Next()
}

// Entities lists the registered entity collections.
// GET /api/v1/trash
func (h *TrashHandler) Entities(c *gin.Context) {
	h.OK(c, dto.EntitiesResponse{Entities: h.service.Entities()})
}

// List returns one page of deleted records.
// GET /api/v1/trash/:entity?page=&pageSize=
func (h *TrashHandler) List(c *gin.Context) {
	q, err := dto.ParsePageQuery(c.Query("page"), c.Query("pageSize"))
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.ListDeleted(c.Request.Context(), c.Param("entity"), q.Page, q.PageSize)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// SoftDelete moves a record to the trash.
// POST /api/v1/trash/:entity/items/:id
func (h *TrashHandler) SoftDelete(c *gin.Context) {
	recordID, err := dto.ParseID(c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.SoftDelete(c.Request.Context(), c.Param("entity"), recordID, h.Principal(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Restore moves a trashed record back to active.
// POST /api/v1/trash/:entity/items/:id/restore
func (h *TrashHandler) Restore(c *gin.Context) {
	recordID, err := dto.ParseID(c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.Restore(c.Request.Context(), c.Param("entity"), recordID, h.Principal(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Purge permanently deletes a trashed record.
// DELETE /api/v1/trash/:entity/items/:id
func (h *TrashHandler) Purge(c *gin.Context) {
	recordID, err := dto.ParseID(c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.Purge(c.Request.Context(), c.Param("entity"), recordID, h.Principal(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// BulkRestore restores every listed id that is in the trash.
// POST /api/v1/trash/:entity/bulk/restore
func (h *TrashHandler) BulkRestore(c *gin.Context) {
	var req dto.BulkIDsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ids := req.ParseIDs()

	result, err := h.service.BulkRestore(c.Request.Context(), c.Param("entity"), ids, h.Principal(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// BulkPurge permanently deletes every listed id that is in the trash.
// POST /api/v1/trash/:entity/bulk/purge
func (h *TrashHandler) BulkPurge(c *gin.Context) {
	var req dto.BulkIDsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ids := req.ParseIDs()

	result, err := h.service.BulkPurge(c.Request.Context(), c.Param("entity"), ids, h.Principal(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}
