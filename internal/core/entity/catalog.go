package entity

import (
	"context"
	"strings"

	"recyclebin/internal/core/apperror"
	"recyclebin/internal/core/id"
)

// Catalog is the base type for named reference data (categories, brands).
type Catalog struct {
	BaseEntity

	// Name is the display name
	Name string `db:"name" json:"name"`

	// Slug is the URL-safe unique key
	Slug string `db:"slug" json:"slug"`

	// ParentID for hierarchical catalogs (nullable)
	ParentID *id.ID `db:"parent_id" json:"parentId,omitempty"`
}

// NewCatalog creates a new active Catalog with generated ID.
// An empty slug is derived from the name.
func NewCatalog(name, slug string) Catalog {
	if slug == "" {
		slug = Slugify(name)
	}
	return Catalog{
		BaseEntity: NewBaseEntity(),
		Name:       name,
		Slug:       slug,
	}
}

// Validate checks required fields.
func (c *Catalog) Validate(ctx context.Context) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewFieldValidation("name", "name is required")
	}
	if c.Slug == "" {
		return apperror.NewFieldValidation("slug", "slug is required")
	}
	return nil
}

// SetParent sets the parent reference; a nil ID clears it.
func (c *Catalog) SetParent(parentID id.ID) {
	if id.IsNil(parentID) {
		c.ParentID = nil
		return
	}
	c.ParentID = &parentID
}

// IsRoot returns true if catalog has no parent.
func (c *Catalog) IsRoot() bool {
	return c.ParentID == nil
}

// Detach also copies the parent reference.
func (c *Catalog) Detach() {
	c.BaseEntity.Detach()
	if c.ParentID != nil {
		parent := *c.ParentID
		c.ParentID = &parent
	}
}

// Slugify lowercases s and joins alphanumeric runs with dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
