package property

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ReflectOp is the attribute action computed for a property value.
type ReflectOp int

const (
	// ReflectSkip leaves the attribute untouched.
	ReflectSkip ReflectOp = iota
	// ReflectRemove removes the attribute.
	ReflectRemove
	// ReflectSet sets the attribute to Reflection.Value.
	ReflectSet
)

// Reflection is the result of converting a property value to an attribute.
type Reflection struct {
	Op    ReflectOp
	Value string
}

// FromAttribute converts an attribute value to a property value.
// present is false when the attribute was removed.
func FromAttribute(d *Declaration, raw string, present bool) any {
	if d.FromAttribute != nil {
		return d.FromAttribute(raw, present)
	}
	acceptsBool := d.Accepts(Boolean)
	if !present {
		if acceptsBool {
			return false
		}
		return nil
	}
	if acceptsBool {
		if (raw == "" || raw == d.Attribute) && raw != "false" {
			return true
		}
		if len(d.Types) == 1 {
			return false
		}
	}
	if d.Accepts(Number) {
		if f, ok := parseNumber(raw); ok {
			return f
		}
	}
	if !d.Accepts(String) {
		if gjson.Valid(raw) {
			return gjson.Parse(raw).Value()
		}
		return raw
	}
	return raw
}

// ToAttribute converts a property value to an attribute action. It is
// total: every value maps to skip, remove or set.
func ToAttribute(d *Declaration, v any) Reflection {
	if d != nil && d.ToAttribute != nil {
		return d.ToAttribute(v)
	}
	switch val := v.(type) {
	case nil:
		return Reflection{Op: ReflectRemove}
	case bool:
		if !val {
			return Reflection{Op: ReflectRemove}
		}
		return Reflection{Op: ReflectSet, Value: ""}
	case string:
		return Reflection{Op: ReflectSet, Value: val}
	case float64:
		return Reflection{Op: ReflectSet, Value: formatFloat(val)}
	case float32:
		return Reflection{Op: ReflectSet, Value: formatFloat(float64(val))}
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Func,
		reflect.Chan, reflect.Pointer, reflect.Interface, reflect.UnsafePointer:
		return Reflection{Op: ReflectSkip}
	}
	return Reflection{Op: ReflectSet, Value: fmt.Sprint(v)}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// parseNumber reads the decimal form of a number. Infinity is only
// accepted spelled out; hex floats, NaN and "inf" are not numbers.
func parseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}
	digits := strings.TrimLeft(s, "+-")
	if len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Out of range values round to zero or infinity.
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f, true
		}
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
