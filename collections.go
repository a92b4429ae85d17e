package remap

import (
	"fmt"
	"reflect"
)

// MapArray maps every element of src, a slice or array, into a container
// of dst's type. dst is an existing slice or array, or a pointer to one,
// whose elements are kept where src has none; the result has the length
// of the longer of the two. A pointer dst also receives the result.
//
// Elements without a mapping are copied when assignable and left zero
// otherwise.
func (m *Mapper) MapArray(src, dst any) (any, error) {
	m.buildIfDirty()
	sv := indirectValue(reflect.ValueOf(src))
	target, dt, err := containerTarget(dst, isArrayLike)
	if err != nil {
		return nil, err
	}
	if !sv.IsValid() {
		return interfaceOf(indirectValue(target)), nil
	}
	if !isArrayLike(sv.Type()) {
		return nil, fmt.Errorf("%w: %s is not a slice or array", ErrInvalidMappingSpec, typeName(sv.Type()))
	}

	out, err := m.mapArray(sv, indirectValue(target), dt)
	if err != nil {
		return nil, err
	}
	if target.Kind() == reflect.Ptr {
		target.Elem().Set(out)
	}
	return out.Interface(), nil
}

// MapSlice maps every element of src, a slice or array, into a []D.
func MapSlice[D any](m *Mapper, src any) ([]D, error) {
	out, err := m.MapArray(src, []D(nil))
	if err != nil || out == nil {
		return nil, err
	}
	return out.([]D), nil
}

// MapCollection maps every key and value of src, a map, into dst: a map,
// or a pointer to one. Entries go into the existing dst map when it is
// non-nil, else into a new map that a pointer dst also receives.
func (m *Mapper) MapCollection(src, dst any) (any, error) {
	m.buildIfDirty()
	sv := indirectValue(reflect.ValueOf(src))
	isMap := func(t reflect.Type) bool { return t.Kind() == reflect.Map }
	target, dt, err := containerTarget(dst, isMap)
	if err != nil {
		return nil, err
	}
	if !sv.IsValid() {
		return interfaceOf(indirectValue(target)), nil
	}
	if sv.Kind() != reflect.Map {
		return nil, fmt.Errorf("%w: %s is not a map", ErrInvalidMappingSpec, typeName(sv.Type()))
	}

	out, err := m.mapCollection(sv, indirectValue(target), dt)
	if err != nil {
		return nil, err
	}
	if target.Kind() == reflect.Ptr {
		target.Elem().Set(out)
	}
	return out.Interface(), nil
}

// containerTarget validates a MapArray or MapCollection destination and
// returns it with its container type.
func containerTarget(dst any, accept func(reflect.Type) bool) (reflect.Value, reflect.Type, error) {
	v := reflect.ValueOf(dst)
	if !v.IsValid() {
		return v, nil, fmt.Errorf("%w: nil destination container", ErrInvalidMappingSpec)
	}
	t := v.Type()
	if t.Kind() == reflect.Ptr {
		if v.IsNil() {
			return v, nil, fmt.Errorf("%w: nil destination pointer", ErrInvalidMappingSpec)
		}
		t = t.Elem()
	}
	if !accept(t) {
		return v, nil, fmt.Errorf("%w: unsupported destination container %s", ErrInvalidMappingSpec, typeName(t))
	}
	return v, t, nil
}

// mapArray builds a container of type dt from src, keeping the elements of
// dst beyond the length of src.
func (m *Mapper) mapArray(src, dst reflect.Value, dt reflect.Type) (reflect.Value, error) {
	n := src.Len()
	if dst.IsValid() && dst.Len() > n {
		n = dst.Len()
	}

	var out reflect.Value
	if dt.Kind() == reflect.Array {
		out = newContainer(dt, 0)
		n = min(n, dt.Len())
	} else {
		out = newContainer(dt, n)
	}
	if dst.IsValid() {
		reflect.Copy(out, dst)
	}

	elem := dt.Elem()
	for i := 0; i < min(n, src.Len()); i++ {
		v, err := m.mapElement(src.Index(i), elem)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
		}
		out.Index(i).Set(v)
	}
	return out, nil
}

// mapCollection maps the entries of src into dst, or a new map of type dt
// when dst is nil.
func (m *Mapper) mapCollection(src, dst reflect.Value, dt reflect.Type) (reflect.Value, error) {
	out := dst
	if !out.IsValid() || out.IsNil() {
		out = newContainer(dt, src.Len())
	}

	keyType, elemType := dt.Key(), dt.Elem()
	iter := src.MapRange()
	for iter.Next() {
		k, err := m.mapElement(iter.Key(), keyType)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("key %v: %w", iter.Key(), err)
		}
		v, err := m.mapElement(iter.Value(), elemType)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("entry %v: %w", iter.Key(), err)
		}
		out.SetMapIndex(k, v)
	}
	return out, nil
}

// mapElement maps one container element to et. Elements without a mapping
// are copied when assignable and zero otherwise.
func (m *Mapper) mapElement(v reflect.Value, et reflect.Type) (reflect.Value, error) {
	src := indirectValue(v)
	if !src.IsValid() {
		return reflect.Zero(et), nil
	}

	pair := NewTypePair(src.Type(), et)
	if tm, ok := m.registry.Get(pair.Source, pair.Dest); ok {
		out, err := tm.MapValue(src)
		if err != nil {
			return reflect.Value{}, err
		}
		if coerced, ok := coerceValue(out, et); ok {
			return coerced, nil
		}
		return reflect.Zero(et), nil
	}

	det := derefType(et)
	switch {
	case isArrayLike(src.Type()) && isArrayLike(det) && !src.Type().AssignableTo(det):
		out, err := m.mapArray(src, reflect.Value{}, det)
		if err != nil {
			return reflect.Value{}, err
		}
		coerced, _ := coerceValue(out, et)
		return coerced, nil
	case src.Kind() == reflect.Map && det.Kind() == reflect.Map && !src.Type().AssignableTo(det):
		out, err := m.mapCollection(src, reflect.Value{}, det)
		if err != nil {
			return reflect.Value{}, err
		}
		coerced, _ := coerceValue(out, et)
		return coerced, nil
	}

	if coerced, ok := coerceValue(v, et); ok {
		return m.clone(coerced), nil
	}
	return reflect.Zero(et), nil
}

// elementsCompatible reports whether elements of se may be mapped to de.
func (m *Mapper) elementsCompatible(se, de reflect.Type) bool {
	switch {
	case typesAssignable(se, de), m.canMap(se, de):
		return true
	case isArrayLike(se) && isArrayLike(de):
		return m.elementsCompatible(se.Elem(), de.Elem())
	case se.Kind() == reflect.Map && de.Kind() == reflect.Map:
		return true
	}
	return false
}

// arrayTransform maps a slice or array field into a new container of dt.
func (m *Mapper) arrayTransform(dt reflect.Type) valueTransform {
	return func(v reflect.Value) (reflect.Value, error) {
		src := indirectValue(v)
		if !src.IsValid() || (src.Kind() == reflect.Slice && src.IsNil()) {
			return reflect.Value{}, nil
		}
		return m.mapArray(src, reflect.Value{}, derefType(dt))
	}
}

// collectionTransform maps a map field into a new map of type dt.
func (m *Mapper) collectionTransform(dt reflect.Type) valueTransform {
	return func(v reflect.Value) (reflect.Value, error) {
		src := indirectValue(v)
		if !src.IsValid() || src.IsNil() {
			return reflect.Value{}, nil
		}
		return m.mapCollection(src, reflect.Value{}, dt)
	}
}
