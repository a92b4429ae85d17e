package remap

import (
	"fmt"
	"reflect"
)

// newInstance creates an addressable value of t with pointers removed,
// through the instantiator configured for t, else reflect.New.
func (m *Mapper) newInstance(t reflect.Type) (reflect.Value, error) {
	t = derefType(t)
	if !instantiable(t) {
		return reflect.Value{}, fmt.Errorf("%w: %s", ErrNoDefaultConstructor, typeName(t))
	}

	fn, ok := m.config.Instantiators[t]
	if !ok {
		return reflect.New(t).Elem(), nil
	}

	raw := fn()
	v := reflect.ValueOf(raw)
	switch {
	case v.IsValid() && v.Type() == t:
		out := reflect.New(t).Elem()
		out.Set(v)
		return out, nil
	case v.IsValid() && v.Type() == reflect.PointerTo(t) && !v.IsNil():
		return v.Elem(), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: instantiator for %s returned %T",
		ErrNoDefaultConstructor, typeName(t), raw)
}

// newContainer creates an empty slice, array or map of t. Slices get
// length n.
func newContainer(t reflect.Type, n int) reflect.Value {
	switch t.Kind() {
	case reflect.Slice:
		return reflect.MakeSlice(t, n, n)
	case reflect.Map:
		return reflect.MakeMapWithSize(t, n)
	default:
		return reflect.New(t).Elem()
	}
}

// instantiable reports whether a zero value of t is a usable instance.
func instantiable(t reflect.Type) bool {
	if t == nil {
		return false
	}
	switch t.Kind() {
	case reflect.Interface, reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Invalid:
		return false
	}
	return true
}

// isNilValue reports whether v holds no value at all.
func isNilValue(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// isEmptyValue reports whether v is nil or the zero value of its type.
// Pipelines fill defaults for empty values.
func isEmptyValue(v reflect.Value) bool {
	return isNilValue(v) || v.IsZero()
}

// indirectValue strips pointers and interfaces. The result is invalid when
// a nil is reached.
func indirectValue(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}
