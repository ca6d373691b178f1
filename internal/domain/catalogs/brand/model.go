// Package brand provides the Brand catalog.
package brand

import "recyclebin/internal/core/entity"

// Brand is a product manufacturer.
type Brand struct {
	entity.Catalog

	Website string `db:"website" json:"website,omitempty"`
}

// New creates an active brand.
func New(name, website string) *Brand {
	return &Brand{Catalog: entity.NewCatalog(name, ""), Website: website}
}
