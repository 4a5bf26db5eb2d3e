package property

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/go-drift/lumen/pkg/errors"
)

// Class identifies a declaring class. Any comparable value works; the
// component package uses *Definition.
type Class any

// Registry stores declarations keyed by (class, property name). Merged maps
// are computed once per class, after which the class is finalized and
// rejects further declarations.
type Registry struct {
	mu        sync.Mutex
	declared  map[Class]map[string]*Declaration
	parents   map[Class]Class
	finalized map[Class]map[string]*Declaration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		declared:  make(map[Class]map[string]*Declaration),
		parents:   make(map[Class]Class),
		finalized: make(map[Class]map[string]*Declaration),
	}
}

// Define registers a declaration for class.
func (r *Registry) Define(class Class, name string, d Declaration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, done := r.finalized[class]; done {
		return errors.New("property.Define", errors.KindLifecycle,
			fmt.Errorf("class already finalized, cannot declare %q", name))
	}
	if d.Attribute != "" && d.State {
		return errors.New("property.Define", errors.KindType,
			&errors.TypeError{Name: name, Value: d.Attribute, Reason: "state properties cannot bind an attribute"})
	}
	d.Name = name
	if r.declared[class] == nil {
		r.declared[class] = make(map[string]*Declaration)
	}
	r.declared[class][name] = &d
	return nil
}

// Inherit records parent as the superclass of class.
func (r *Registry) Inherit(class, parent Class) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parents[class] = parent
}

// Properties returns the merged declarations of class, walking the
// inheritance chain child first so the nearest declaration of a name wins.
// The first call finalizes class.
func (r *Registry) Properties(class Class) map[string]*Declaration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if merged, ok := r.finalized[class]; ok {
		return merged
	}
	merged := make(map[string]*Declaration)
	seen := make(map[Class]bool)
	for c := class; c != nil && !seen[c]; c = r.parents[c] {
		seen[c] = true
		for name, d := range r.declared[c] {
			if _, ok := merged[name]; !ok {
				merged[name] = d
			}
		}
	}
	r.finalized[class] = merged
	return merged
}

// ObservedAttributes returns the sorted attribute names bound by
// non-state properties.
func ObservedAttributes(props map[string]*Declaration) []string {
	var out []string
	for _, d := range props {
		if d.Reflected() {
			out = append(out, d.Attribute)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// AttributeIndex maps each observed attribute name to its property name.
func AttributeIndex(props map[string]*Declaration) map[string]string {
	index := make(map[string]string)
	for _, name := range slices.Sorted(maps.Keys(props)) {
		d := props[name]
		if !d.Reflected() {
			continue
		}
		if _, ok := index[d.Attribute]; !ok {
			index[d.Attribute] = name
		}
	}
	return index
}
