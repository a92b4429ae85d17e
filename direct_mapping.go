package remap

import (
	"fmt"
	"reflect"
)

// DirectMapping wraps a user function converting a whole source value,
// for conversions that are not field by field.
type DirectMapping struct {
	mappingBase
	fn func(reflect.Value) (reflect.Value, error)
}

// RegisterFunc registers fn as the mapping from src to dst, replacing any
// mapping of the pair. fn receives the source value and returns a value
// assignable to dst.
func (m *Mapper) RegisterFunc(src, dst reflect.Type, fn func(source any) (any, error)) (*DirectMapping, error) {
	if src == nil || dst == nil || fn == nil {
		return nil, fmt.Errorf("%w: nil type or function", ErrInvalidMappingSpec)
	}
	pair := NewTypePair(src, dst)
	dm := &DirectMapping{
		mappingBase: newMappingBase(m, pair),
		fn: func(v reflect.Value) (reflect.Value, error) {
			out, err := fn(v.Interface())
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(out), nil
		},
	}
	m.put(dm)
	return dm, nil
}

// RegisterFunc is the typed form of Mapper.RegisterFunc.
func RegisterFunc[S, D any](m *Mapper, fn func(S) (D, error)) (*DirectMapping, error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: nil function", ErrInvalidMappingSpec)
	}
	return m.RegisterFunc(reflect.TypeFor[S](), reflect.TypeFor[D](), ConverterFunc[S, D](fn).Convert)
}

// Activate has nothing to discover.
func (dm *DirectMapping) Activate() error {
	dm.dirty = false
	return nil
}

// MapValue applies the function. Failures, panics included, are
// MappingFailureErrors.
func (dm *DirectMapping) MapValue(src reflect.Value) (out reflect.Value, err error) {
	src = indirectValue(src)
	if !src.IsValid() {
		return reflect.Value{}, nil
	}

	defer func() {
		if r := recover(); r != nil {
			out = reflect.Value{}
			err = &MappingFailureError{Pair: dm.pair, Err: fmt.Errorf("mapping function panicked: %v", r)}
		}
	}()

	out, err = dm.fn(src)
	if err != nil {
		return reflect.Value{}, &MappingFailureError{Pair: dm.pair, Err: err}
	}
	if isNilValue(out) {
		return reflect.Value{}, nil
	}
	coerced, ok := coerceValue(out, dm.pair.Dest)
	if !ok {
		return reflect.Value{}, &MappingFailureError{
			Pair: dm.pair,
			Err:  fmt.Errorf("function returned %s", typeName(out.Type())),
		}
	}
	return coerced, nil
}

// MapInto applies the function and answers dst when the result is empty.
func (dm *DirectMapping) MapInto(src, dst reflect.Value) (reflect.Value, error) {
	out, err := dm.MapValue(src)
	if err != nil {
		return reflect.Value{}, err
	}
	if isEmptyValue(out) {
		return dst, nil
	}
	return out, nil
}
