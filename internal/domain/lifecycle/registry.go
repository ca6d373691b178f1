package lifecycle

import (
	"fmt"
	"sort"

	"recyclebin/internal/core/apperror"
	"recyclebin/internal/metadata"
)

// Entry binds a whitelisted entity name to its store.
type Entry struct {
	Name     string
	Label    string // optional; the catalogue label is used when empty
	Accessor Accessor
}

// EntityInfo is the public description of a registered entity.
type EntityInfo struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

type registered struct {
	def      metadata.EntityDef
	accessor Accessor
}

// Registry is the whitelist of entity names the lifecycle operations accept.
// It is built once at startup and has no mutators, so concurrent reads need
// no locking. Resolution is an exact map lookup; a caller-supplied string
// never reaches storage.
type Registry struct {
	entries map[string]registered
}

// NewRegistry validates entries against the metadata catalogue.
// Names must be unique and known to the catalogue; accessors must be non-nil.
func NewRegistry(catalog *metadata.Registry, entries ...Entry) (*Registry, error) {
	if catalog == nil {
		return nil, fmt.Errorf("metadata catalogue is required")
	}

	r := &Registry{entries: make(map[string]registered, len(entries))}
	for _, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("registry entry with empty name")
		}
		if e.Accessor == nil {
			return nil, fmt.Errorf("registry entry %q has no accessor", e.Name)
		}
		def, ok := catalog.Get(e.Name)
		if !ok {
			return nil, fmt.Errorf("entity %q is not in the metadata catalogue", e.Name)
		}
		if _, dup := r.entries[e.Name]; dup {
			return nil, fmt.Errorf("duplicate registry entry %q", e.Name)
		}
		if e.Label != "" {
			def.Label = e.Label
		}
		r.entries[e.Name] = registered{def: def, accessor: e.Accessor}
	}
	return r, nil
}

// Resolve returns the accessor for name or UnknownEntity.
func (r *Registry) Resolve(name string) (Accessor, error) {
	e, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	return e.accessor, nil
}

func (r *Registry) lookup(name string) (registered, error) {
	e, ok := r.entries[name]
	if !ok {
		return registered{}, apperror.NewUnknownEntity(name)
	}
	return e, nil
}

// Entries lists registered entities sorted by name.
func (r *Registry) Entries() []EntityInfo {
	out := make([]EntityInfo, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, EntityInfo{Name: e.def.Name, Label: e.def.Label})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names lists registered entity names sorted.
func (r *Registry) Names() []string {
	infos := r.Entries()
	names := make([]string, len(infos))
	for i, e := range infos {
		names[i] = e.Name
	}
	return names
}
