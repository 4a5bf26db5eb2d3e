// Package property implements declared, observed component properties:
// type validation, attribute conversion, observers and change hooks.
//
// Declarations are registered per class in a Registry and merged once along
// an explicit inheritance chain. Each component instance keeps its values
// in a Store.
package property

import (
	"reflect"
	"slices"
)

// Built-in types for Declaration.Types. Any reflect.Type may be used.
var (
	String  = reflect.TypeOf("")
	Number  = reflect.TypeOf(float64(0))
	Boolean = reflect.TypeOf(false)
	Object  = reflect.TypeOf(map[string]any(nil))
	Array   = reflect.TypeOf([]any(nil))
)

// Declaration describes one property of a class. It must not be mutated
// after it is registered.
type Declaration struct {
	// Name is filled in by Registry.Define.
	Name string
	// Types lists the accepted value types. Empty accepts any value.
	Types []reflect.Type
	// Attribute is the bound attribute name, or "" for none.
	Attribute string
	// Event is dispatched with a Change detail after each change, if set.
	Event string
	// Default is the initial value when Init is nil.
	Default any
	// Init computes the initial value per instance.
	Init func() any
	// State marks internal state: it is never observed as an attribute and
	// changes go through the host's StateChanged hook.
	State bool
	// NoUpdate disables the update request after a change.
	NoUpdate bool

	// Getter transforms the stored value on read.
	Getter func(stored any) any
	// Display transforms the value returned by Getter on read.
	Display func(value any) any
	// Setter transforms an incoming value before it is stored.
	Setter func(value any) any
	// RawSetter runs after Setter and returns the value to store.
	RawSetter func(value any) any
	// Validate rejects values that pass the type check but are invalid.
	Validate func(value any) bool
	// FromAttribute overrides the attribute to property conversion.
	FromAttribute func(raw string, present bool) any
	// ToAttribute overrides the property to attribute conversion.
	ToAttribute func(value any) Reflection
}

// Accepts reports whether t is one of the declared types.
func (d *Declaration) Accepts(t reflect.Type) bool {
	return slices.Contains(d.Types, t)
}

// InitialValue returns the initializer result or the default value, and
// whether either is set.
func (d *Declaration) InitialValue() (any, bool) {
	if d.Init != nil {
		return d.Init(), true
	}
	if d.Default != nil {
		return d.Default, true
	}
	return nil, false
}

// Reflected reports whether the property is bound to an observed attribute.
func (d *Declaration) Reflected() bool {
	return d.Attribute != "" && !d.State
}

// TriggersUpdate reports whether a change requests a re-render.
func (d *Declaration) TriggersUpdate() bool {
	return !d.NoUpdate
}

// RoundTrips reports whether a value read from the property can be written
// back. A property with a Getter but no Setter cannot.
func (d *Declaration) RoundTrips() bool {
	return d.Getter == nil || d.Setter != nil
}

// Check validates v against the declared types and validator.
func (d *Declaration) Check(v any) bool {
	return checkReason(d, v) == ""
}

func instanceOf(v any, types []reflect.Type) bool {
	vt := reflect.TypeOf(v)
	for _, t := range types {
		switch {
		case vt == t:
			return true
		case t == Number && isNumeric(vt.Kind()):
			return true
		case t.Kind() == reflect.Interface && vt.Implements(t):
			return true
		case t == Object && vt.Kind() == reflect.Map && vt.Key().Kind() == reflect.String:
			return true
		case t == Array && (vt.Kind() == reflect.Slice || vt.Kind() == reflect.Array):
			return true
		}
	}
	return false
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// Change is the detail of a property change event.
type Change struct {
	OldValue any
	NewValue any
}
