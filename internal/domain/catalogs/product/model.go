// Package product provides the Product catalog.
package product

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"recyclebin/internal/core/apperror"
	"recyclebin/internal/core/entity"
	"recyclebin/internal/core/id"
)

// Product is a sellable item.
type Product struct {
	entity.BaseEntity

	Name string `db:"name" json:"name"`

	// SKU is the stock keeping unit, unique per product
	SKU string `db:"sku" json:"sku"`

	// Price in the shop currency, stored as NUMERIC(18,2)
	Price decimal.Decimal `db:"price" json:"price"`

	BrandID    *id.ID `db:"brand_id" json:"brandId,omitempty"`
	CategoryID *id.ID `db:"category_id" json:"categoryId,omitempty"`
}

// New creates an active product.
func New(name, sku string, price decimal.Decimal) *Product {
	return &Product{
		BaseEntity: entity.NewBaseEntity(),
		Name:       name,
		SKU:        sku,
		Price:      price,
	}
}

// Validate checks required fields.
func (p *Product) Validate(ctx context.Context) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewFieldValidation("name", "name is required")
	}
	if p.SKU == "" {
		return apperror.NewFieldValidation("sku", "sku is required")
	}
	if p.Price.IsNegative() {
		return apperror.NewFieldValidation("price", "price must not be negative")
	}
	return nil
}

// Detach also copies the optional references.
func (p *Product) Detach() {
	p.BaseEntity.Detach()
	if p.BrandID != nil {
		v := *p.BrandID
		p.BrandID = &v
	}
	if p.CategoryID != nil {
		v := *p.CategoryID
		p.CategoryID = &v
	}
}
