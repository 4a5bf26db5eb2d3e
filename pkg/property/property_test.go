package property

import (
	"math"
	"reflect"
	"testing"

	"github.com/go-drift/lumen/pkg/errors"
	"github.com/google/go-cmp/cmp"
)

type fakeHost struct {
	initialized  bool
	shouldUpdate bool
	log          []string
	updates      int
}

func (h *fakeHost) Initialized() bool { return h.initialized }
func (h *fakeHost) PropertyChanged(name string, _, _ any) {
	h.log = append(h.log, "property:"+name)
}
func (h *fakeHost) StateChanged(name string, _, _ any) {
	h.log = append(h.log, "state:"+name)
}
func (h *fakeHost) DispatchChange(event string, _ Change) {
	h.log = append(h.log, "event:"+event)
}
func (h *fakeHost) ShouldUpdate(string, any, any) bool { return h.shouldUpdate }
func (h *fakeHost) RequestUpdate() bool {
	h.updates++
	h.log = append(h.log, "update")
	return true
}

type class string

func TestRegistryMergeChildFirst(t *testing.T) {
	r := NewRegistry()
	parent, child := class("parent"), class("child")

	// Declared out of order on purpose.
	_ = r.Define(child, "label", Declaration{Attribute: "child-label"})
	_ = r.Define(parent, "label", Declaration{Attribute: "parent-label"})
	_ = r.Define(parent, "open", Declaration{Types: []reflect.Type{Boolean}, Attribute: "open"})
	r.Inherit(child, parent)

	props := r.Properties(child)
	if got := props["label"].Attribute; got != "child-label" {
		t.Errorf("label attribute = %q, want child-label", got)
	}
	if props["open"] == nil {
		t.Fatal("expected inherited property open")
	}
	if got := props["open"].Name; got != "open" {
		t.Errorf("Name = %q, want open", got)
	}

	if err := r.Define(child, "late", Declaration{}); err == nil {
		t.Error("expected Define after finalization to fail")
	}
	if diff := cmp.Diff([]string{"child-label", "open"}, ObservedAttributes(props)); diff != "" {
		t.Errorf("ObservedAttributes mismatch (-want +got):\n%s", diff)
	}
}

func TestDefineRejectsStateAttribute(t *testing.T) {
	r := NewRegistry()
	err := r.Define(class("c"), "x", Declaration{State: true, Attribute: "x"})
	var te *errors.TypeError
	if !errors.As(err, &te) {
		t.Fatalf("Define error = %v, want TypeError", err)
	}
}

func TestAttributeIndexSkipsState(t *testing.T) {
	props := map[string]*Declaration{
		"label":  {Name: "label", Attribute: "label"},
		"hidden": {Name: "hidden", State: true},
	}
	want := map[string]string{"label": "label"}
	if diff := cmp.Diff(want, AttributeIndex(props)); diff != "" {
		t.Errorf("AttributeIndex mismatch (-want +got):\n%s", diff)
	}
}

func TestFromAttribute(t *testing.T) {
	boolean := &Declaration{Types: []reflect.Type{Boolean}, Attribute: "open"}
	stringNumber := &Declaration{Types: []reflect.Type{String, Number}, Attribute: "count"}
	object := &Declaration{Types: []reflect.Type{Object, Array}, Attribute: "data"}
	untyped := &Declaration{Attribute: "any"}

	tests := []struct {
		name    string
		decl    *Declaration
		raw     string
		present bool
		want    any
	}{
		{"boolean empty", boolean, "", true, true},
		{"boolean own name", boolean, "open", true, true},
		{"boolean literal false", boolean, "false", true, false},
		{"boolean other value", boolean, "yes", true, false},
		{"boolean removed", boolean, "", false, false},
		{"number", stringNumber, "1234", true, float64(1234)},
		{"string", stringNumber, "test", true, "test"},
		{"array-looking string", stringNumber, "[1]", true, "[1]"},
		{"string number removed", stringNumber, "", false, nil},
		{"structured array", object, "[1]", true, []any{float64(1)}},
		{"structured object", object, `{"a":"b"}`, true, map[string]any{"a": "b"}},
		{"structured fallback", object, "{nope", true, "{nope"},
		{"untyped json number", untyped, "12", true, float64(12)},
		{"padded number", stringNumber, " 2.5 ", true, 2.5},
		{"infinity", stringNumber, "Infinity", true, math.Inf(1)},
		{"negative infinity", stringNumber, "-Infinity", true, math.Inf(-1)},
		{"inf is a string", stringNumber, "inf", true, "inf"},
		{"nan is a string", stringNumber, "NaN", true, "NaN"},
		{"hex float is a string", stringNumber, "0x1p3", true, "0x1p3"},
		{"underscores are a string", stringNumber, "1_000", true, "1_000"},
		{"overflow", stringNumber, "1e400", true, math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromAttribute(tt.decl, tt.raw, tt.present)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FromAttribute(%q) mismatch (-want +got):\n%s", tt.raw, diff)
			}
		})
	}
}

func TestFromAttributeCustom(t *testing.T) {
	d := &Declaration{FromAttribute: func(raw string, present bool) any { return len(raw) }}
	if got := FromAttribute(d, "abc", true); got != 3 {
		t.Errorf("FromAttribute = %v, want 3", got)
	}
}

func TestToAttribute(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  Reflection
	}{
		{"nil removes", nil, Reflection{Op: ReflectRemove}},
		{"false removes", false, Reflection{Op: ReflectRemove}},
		{"true sets empty", true, Reflection{Op: ReflectSet, Value: ""}},
		{"string", "x", Reflection{Op: ReflectSet, Value: "x"}},
		{"float", 1234.0, Reflection{Op: ReflectSet, Value: "1234"}},
		{"fraction", 0.5, Reflection{Op: ReflectSet, Value: "0.5"}},
		{"int", 7, Reflection{Op: ReflectSet, Value: "7"}},
		{"map skipped", map[string]any{}, Reflection{Op: ReflectSkip}},
		{"slice skipped", []any{1}, Reflection{Op: ReflectSkip}},
		{"func skipped", func() {}, Reflection{Op: ReflectSkip}},
		{"pointer skipped", &struct{}{}, Reflection{Op: ReflectSkip}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToAttribute(nil, tt.value); got != tt.want {
				t.Errorf("ToAttribute(%v) = %+v, want %+v", tt.value, got, tt.want)
			}
		})
	}
}

func newStore(h *fakeHost, decls map[string]Declaration) *Store {
	r := NewRegistry()
	c := class("test")
	for name, d := range decls {
		_ = r.Define(c, name, d)
	}
	return NewStore(h, r.Properties(c))
}

func TestStoreBeforeInitializeStoresRaw(t *testing.T) {
	h := &fakeHost{}
	s := newStore(h, map[string]Declaration{
		"count": {Types: []reflect.Type{Number}, Event: "countchange"},
	})
	if err := s.Set("count", "not a number"); err != nil {
		t.Fatalf("pre-initialize Set error = %v", err)
	}
	if got := s.Get("count"); got != "not a number" {
		t.Errorf("Get = %v", got)
	}
	if len(h.log) != 0 {
		t.Errorf("expected no notifications before initialize, got %v", h.log)
	}
}

func TestStoreWriteOrder(t *testing.T) {
	h := &fakeHost{initialized: true, shouldUpdate: true}
	s := newStore(h, map[string]Declaration{
		"label": {Types: []reflect.Type{String}, Attribute: "label", Event: "labelchange"},
	})
	s.Observe("label", func(oldValue, newValue any, name string) {
		h.log = append(h.log, "observer")
	})

	if err := s.Set("label", "a"); err != nil {
		t.Fatal(err)
	}
	want := []string{"property:label", "observer", "event:labelchange", "update"}
	if diff := cmp.Diff(want, h.log); diff != "" {
		t.Errorf("write order mismatch (-want +got):\n%s", diff)
	}

	h.log = nil
	if err := s.Set("label", "a"); err != nil {
		t.Fatal(err)
	}
	if len(h.log) != 0 {
		t.Errorf("identical value should short-circuit, got %v", h.log)
	}
}

func TestStoreStateHookAndNoUpdate(t *testing.T) {
	h := &fakeHost{initialized: true, shouldUpdate: true}
	s := newStore(h, map[string]Declaration{
		"busy": {State: true, NoUpdate: true},
	})
	_ = s.Set("busy", true)
	if diff := cmp.Diff([]string{"state:busy"}, h.log); diff != "" {
		t.Errorf("log mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreShouldUpdateGate(t *testing.T) {
	h := &fakeHost{initialized: true}
	s := newStore(h, map[string]Declaration{"x": {}})
	_ = s.Set("x", 1)
	if h.updates != 0 {
		t.Errorf("updates = %d, want 0 when ShouldUpdate is false", h.updates)
	}
}

func TestStoreValidation(t *testing.T) {
	h := &fakeHost{initialized: true}
	s := newStore(h, map[string]Declaration{
		"count": {Types: []reflect.Type{Number}},
		"even": {
			Types:    []reflect.Type{Number},
			Validate: func(v any) bool { return int(v.(float64))%2 == 0 },
		},
	})

	err := s.Set("count", "nope")
	var te *errors.TypeError
	if !errors.As(err, &te) {
		t.Fatalf("Set error = %v, want TypeError", err)
	}
	if te.Name != "count" || te.Value != "nope" {
		t.Errorf("TypeError = %+v", te)
	}
	if s.Has("count") {
		t.Error("rejected value must not be stored")
	}

	if err := s.Set("count", 3); err != nil {
		t.Errorf("int should satisfy Number: %v", err)
	}
	if err := s.Set("count", nil); err != nil {
		t.Errorf("nil skips validation: %v", err)
	}
	if err := s.Set("even", 3.0); err == nil {
		t.Error("expected validator failure")
	}
	if err := s.Set("even", 4.0); err != nil {
		t.Errorf("Set(even, 4) error = %v", err)
	}
	if err := s.Set("missing", 1); err == nil {
		t.Error("expected error for undeclared property")
	}
}

func TestStoreTransforms(t *testing.T) {
	h := &fakeHost{initialized: true}
	s := newStore(h, map[string]Declaration{
		"name": {
			Types:     []reflect.Type{String},
			Setter:    func(v any) any { return v.(string) + "!" },
			RawSetter: func(v any) any { return "<" + v.(string) + ">" },
			Getter:    func(v any) any { return "get" + v.(string) },
			Display:   func(v any) any { return "[" + v.(string) + "]" },
		},
	})
	_ = s.Set("name", "x")
	if raw, _ := s.Raw("name"); raw != "<x!>" {
		t.Errorf("Raw = %v, want <x!>", raw)
	}
	if got := s.Get("name"); got != "[get<x!>]" {
		t.Errorf("Get = %v, want [get<x!>]", got)
	}
}

func TestStoreInitUsesInitializer(t *testing.T) {
	h := &fakeHost{}
	calls := 0
	s := newStore(h, map[string]Declaration{
		"items":  {Init: func() any { calls++; return []any{} }},
		"label":  {Default: "hello"},
		"preset": {Default: "default"},
	})
	_ = s.Set("preset", "kept")
	s.Init()
	if calls != 1 {
		t.Errorf("initializer calls = %d, want 1", calls)
	}
	if got := s.Get("label"); got != "hello" {
		t.Errorf("label = %v", got)
	}
	if got := s.Get("preset"); got != "kept" {
		t.Errorf("preset = %v, want kept", got)
	}
}

func TestObserverRemovedDuringNotificationIsSkipped(t *testing.T) {
	h := &fakeHost{initialized: true}
	s := newStore(h, map[string]Declaration{"x": {}})

	var calls []string
	var second *Observer
	s.Observe("x", func(_, _ any, _ string) {
		calls = append(calls, "first")
		s.Unobserve(second)
	})
	second = s.Observe("x", func(_, _ any, _ string) { calls = append(calls, "second") })
	s.Observe("", func(_, _ any, name string) { calls = append(calls, "all:"+name) })

	_ = s.Set("x", 1)
	if diff := cmp.Diff([]string{"first", "all:x"}, calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	if got := s.ObserverCount("x"); got != 2 {
		t.Errorf("ObserverCount = %d, want 2", got)
	}
	if s.Unobserve(second) {
		t.Error("second Unobserve should report false")
	}
}

func TestSame(t *testing.T) {
	m := map[string]any{}
	sl := []any{1}
	type boxed struct{ v any }
	tests := []struct {
		a, b any
		want bool
	}{
		{nil, nil, true},
		{nil, false, false},
		{1.0, 1.0, true},
		{1, 1.0, false},
		{m, m, true},
		{m, map[string]any{}, false},
		{sl, sl, true},
		{sl, []any{1}, false},
		{boxed{"a"}, boxed{"a"}, true},
		{boxed{sl}, boxed{sl}, false},
	}
	for _, tt := range tests {
		if got := Same(tt.a, tt.b); got != tt.want {
			t.Errorf("Same(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
