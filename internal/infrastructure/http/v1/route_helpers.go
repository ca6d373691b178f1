package v1

import (
	"github.com/gin-gonic/gin"

	"recyclebin/internal/infrastructure/http/v1/middleware"
)

// TrashRouteHandler defines the interface for trash handlers.
type TrashRouteHandler interface {
	ResolveEntity(c *gin.Context)
	Entities(c *gin.Context)
	List(c *gin.Context)
	SoftDelete(c *gin.Context)
	Restore(c *gin.Context)
	Purge(c *gin.Context)
	BulkRestore(c *gin.Context)
	BulkPurge(c *gin.Context)
}

// RegisterTrashRoutes registers the trash routes on group, all gated by roles.
//
// Usage:
//
//	handler := handlers.NewTrashHandler(baseHandler, service)
//	RegisterTrashRoutes(v1.Group("/trash"), handler, "admin")
func RegisterTrashRoutes(group *gin.RouterGroup, handler TrashRouteHandler, roles ...string) {
	group.Use(middleware.RequireRole(roles...))

	group.GET("", handler.Entities)

	// Unknown entities are rejected before any id or body is parsed.
	entity := group.Group("/:entity", handler.ResolveEntity)
	entity.GET("", handler.List)
	entity.POST("/items/:id", handler.SoftDelete)
	entity.POST("/items/:id/restore", handler.Restore)
	entity.DELETE("/items/:id", handler.Purge)
	entity.POST("/bulk/restore", handler.BulkRestore)
	entity.POST("/bulk/purge", handler.BulkPurge)
}
