// Package metadata holds the closed catalogue of entity collections that the
// recycle bin knows about. Entity names used anywhere else must come from here.
package metadata

import "sort"

// Entity names. The set is fixed at compile time; configuration may enable a
// subset but can never introduce a new name.
const (
	Products   = "products"
	Users      = "users"
	Categories = "categories"
	Brands     = "brands"
)

// EntityDef describes a soft-deletable collection.
type EntityDef struct {
	Name      string `json:"name"`
	Label     string `json:"label"`
	TableName string `json:"-"`
}

// Registry stores entity definitions.
type Registry struct {
	entities map[string]EntityDef
}

// Default returns the built-in catalogue.
func Default() *Registry {
	r := &Registry{entities: make(map[string]EntityDef)}
	r.register(EntityDef{Name: Products, Label: "Product", TableName: "products"})
	r.register(EntityDef{Name: Users, Label: "User", TableName: "users"})
	r.register(EntityDef{Name: Categories, Label: "Category", TableName: "categories"})
	r.register(EntityDef{Name: Brands, Label: "Brand", TableName: "brands"})
	return r
}

func (r *Registry) register(def EntityDef) {
	r.entities[def.Name] = def
}

// Get looks a definition up by exact name.
func (r *Registry) Get(name string) (EntityDef, bool) {
	d, ok := r.entities[name]
	return d, ok
}

// List returns all definitions sorted by name.
func (r *Registry) List() []EntityDef {
	list := make([]EntityDef, 0, len(r.entities))
	for _, def := range r.entities {
		list = append(list, def)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Names returns all known entity names sorted.
func (r *Registry) Names() []string {
	defs := r.List()
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	return names
}
