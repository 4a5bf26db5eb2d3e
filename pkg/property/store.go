package property

import (
	"reflect"
	"slices"

	"github.com/go-drift/lumen/pkg/errors"
)

// Host is the component side of a Store: it knows whether the instance is
// initialized and receives change notifications.
type Host interface {
	Initialized() bool
	// PropertyChanged runs after a non-state property is stored.
	PropertyChanged(name string, oldValue, newValue any)
	// StateChanged runs after a state property is stored.
	StateChanged(name string, oldValue, newValue any)
	// DispatchChange dispatches the declared change event.
	DispatchChange(event string, change Change)
	ShouldUpdate(name string, oldValue, newValue any) bool
	RequestUpdate() bool
}

// ObserverFunc is called with the previous value, the new value and the
// property name.
type ObserverFunc func(oldValue, newValue any, name string)

// Observer is a registered ObserverFunc. Observers are identified by pointer.
type Observer struct {
	name string
	fn   ObserverFunc
}

// Store holds the property values and observers of one instance.
type Store struct {
	host      Host
	props     map[string]*Declaration
	values    map[string]any
	observers []*Observer
}

// NewStore creates a store for the merged declarations props.
func NewStore(host Host, props map[string]*Declaration) *Store {
	return &Store{
		host:   host,
		props:  props,
		values: make(map[string]any),
	}
}

// Declaration returns the declaration of name, or nil.
func (s *Store) Declaration(name string) *Declaration {
	return s.props[name]
}

// Declarations returns the merged declarations.
func (s *Store) Declarations() map[string]*Declaration {
	return s.props
}

// Has reports whether a value is stored for name.
func (s *Store) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}

// Raw returns the stored value without read transforms.
func (s *Store) Raw(name string) (any, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Get returns the value of name through its Getter and Display transforms.
func (s *Store) Get(name string) any {
	v := s.values[name]
	d := s.props[name]
	if d == nil {
		return v
	}
	if d.Getter != nil {
		v = d.Getter(v)
	}
	if d.Display != nil {
		v = d.Display(v)
	}
	return v
}

// Set writes a property. Before the host is initialized the value is
// stored as is, without validation or notification.
func (s *Store) Set(name string, value any) error {
	d := s.props[name]
	if d == nil {
		return errors.New("property.Set", errors.KindType,
			&errors.TypeError{Name: name, Value: value, Reason: "undeclared property"})
	}
	if !s.host.Initialized() {
		s.values[name] = value
		return nil
	}

	if d.Setter != nil {
		value = d.Setter(value)
	}
	if d.RawSetter != nil {
		value = d.RawSetter(value)
	}
	old := s.values[name]
	if Same(old, value) {
		return nil
	}
	if reason := checkReason(d, value); reason != "" {
		return errors.New("property.Set", errors.KindType,
			&errors.TypeError{Name: name, Value: value, Reason: reason})
	}
	s.values[name] = value

	if d.State {
		s.host.StateChanged(name, old, value)
	} else {
		s.host.PropertyChanged(name, old, value)
	}
	for _, o := range slices.Clone(s.observers) {
		if o.name != "" && o.name != name {
			continue
		}
		if !slices.Contains(s.observers, o) {
			continue
		}
		o.fn(old, value, name)
	}
	if d.Event != "" {
		s.host.DispatchChange(d.Event, Change{OldValue: old, NewValue: value})
	}
	if d.TriggersUpdate() && s.host.ShouldUpdate(name, old, value) {
		s.host.RequestUpdate()
	}
	return nil
}

// Init stores the initial value of every declared property that has none.
// It must run before the host reports Initialized.
func (s *Store) Init() {
	for name, d := range s.props {
		if _, ok := s.values[name]; ok {
			continue
		}
		if v, ok := d.InitialValue(); ok {
			s.values[name] = v
		}
	}
}

// Observe registers fn for changes of name. An empty name observes every
// property. Observers run in registration order.
func (s *Store) Observe(name string, fn ObserverFunc) *Observer {
	o := &Observer{name: name, fn: fn}
	s.observers = append(s.observers, o)
	return o
}

// Unobserve removes o. It reports whether o was registered.
func (s *Store) Unobserve(o *Observer) bool {
	i := slices.Index(s.observers, o)
	if i < 0 {
		return false
	}
	s.observers = slices.Delete(slices.Clone(s.observers), i, i+1)
	return true
}

// ObserverCount returns the number of observers for name, including those
// observing every property.
func (s *Store) ObserverCount(name string) int {
	n := 0
	for _, o := range s.observers {
		if o.name == "" || o.name == name {
			n++
		}
	}
	return n
}

// checkReason returns why v is rejected by d, or "" if it is accepted.
func checkReason(d *Declaration, v any) string {
	if v == nil || v == false {
		return ""
	}
	if len(d.Types) > 0 && !instanceOf(v, d.Types) {
		names := make([]string, 0, len(d.Types))
		for _, t := range d.Types {
			names = append(names, typeName(t))
		}
		return "expected " + joinOr(names)
	}
	if d.Validate != nil && !d.Validate(v) {
		return "rejected by validator"
	}
	return ""
}

func typeName(t reflect.Type) string {
	switch t {
	case String:
		return "string"
	case Number:
		return "number"
	case Boolean:
		return "boolean"
	case Object:
		return "object"
	case Array:
		return "array"
	}
	return t.String()
}

func joinOr(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	}
	out := names[0]
	for _, n := range names[1 : len(names)-1] {
		out += ", " + n
	}
	return out + " or " + names[len(names)-1]
}

// Same reports whether two property values are identical: equal for
// comparable values, the same backing storage for maps, slices and funcs.
func Same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ta.Comparable() {
		// Interface fields may still hold uncomparable values.
		return va.Comparable() && vb.Comparable() && a == b
	}
	switch ta.Kind() {
	case reflect.Map, reflect.Func:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	return false
}
