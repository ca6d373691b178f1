// Package category provides the hierarchical product Category catalog.
package category

import "recyclebin/internal/core/entity"

// Category groups products; categories may nest via ParentID.
type Category struct {
	entity.Catalog
}

// New creates an active root category.
func New(name string) *Category {
	return &Category{Catalog: entity.NewCatalog(name, "")}
}
