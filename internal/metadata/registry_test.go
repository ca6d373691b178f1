package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	r := Default()

	assert.Equal(t, []string{Brands, Categories, Products, Users}, r.Names())

	def, ok := r.Get(Products)
	assert.True(t, ok)
	assert.Equal(t, "Product", def.Label)
	assert.Equal(t, "products", def.TableName)

	_, ok = r.Get("Products")
	assert.False(t, ok, "lookup is exact")

	_, ok = r.Get("orders")
	assert.False(t, ok)
}
