package remap

import (
	"fmt"
	"reflect"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// Converter transforms a value of SourceType into a value of TargetType.
// Converters are referenced by name from `converter:'name'` subtags, the
// builder's TransformWith and mapping files.
type Converter interface {
	SourceType() reflect.Type
	TargetType() reflect.Type
	Convert(value any) (any, error)
}

// TypeMap is a zero-value helper declaring the types of a Converter. Embed
// it and add a Convert method:
//
//	type upper struct {
//	    remap.TypeMap[string, string]
//	}
//
//	func (upper) Convert(v any) (any, error) {
//	    return strings.ToUpper(v.(string)), nil
//	}
type TypeMap[S, D any] struct{}

func (TypeMap[S, D]) SourceType() reflect.Type { return reflect.TypeFor[S]() }

func (TypeMap[S, D]) TargetType() reflect.Type { return reflect.TypeFor[D]() }

// ConverterFunc adapts a typed function to Converter.
type ConverterFunc[S, D any] func(S) (D, error)

func (ConverterFunc[S, D]) SourceType() reflect.Type { return reflect.TypeFor[S]() }

func (ConverterFunc[S, D]) TargetType() reflect.Type { return reflect.TypeFor[D]() }

// Convert implements Converter. A nil value converts as the zero S.
func (fn ConverterFunc[S, D]) Convert(value any) (any, error) {
	var s S
	if value != nil {
		typed, ok := value.(S)
		if !ok {
			return nil, fmt.Errorf("expected %s, got %T", reflect.TypeFor[S](), value)
		}
		s = typed
	}
	return fn(s)
}

// NewConverter wraps fn as a Converter.
func NewConverter[S, D any](fn func(S) (D, error)) Converter {
	return ConverterFunc[S, D](fn)
}

// construct resolves a converter or factory registration into an instance.
//
// Supports:
//   - an instance, returned as is
//   - func() T
//   - func(*Mapper) T
//   - either of the above returning (T, error)
func construct(name string, ctor any, m *Mapper) (v reflect.Value, err error) {
	if ctor == nil {
		return reflect.Value{}, &ConverterConstructionError{Name: name, Reason: "nil registration"}
	}
	fn := reflect.ValueOf(ctor)
	if fn.Kind() != reflect.Func {
		return fn, nil
	}

	ft := fn.Type()
	var args []reflect.Value
	switch {
	case ft.NumIn() == 0:
	case ft.NumIn() == 1 && ft.In(0) == MapperType:
		args = []reflect.Value{reflect.ValueOf(m)}
	default:
		return reflect.Value{}, &ConverterConstructionError{
			Name:   name,
			Reason: fmt.Sprintf("constructor %s takes neither no arguments nor a single *Mapper", ft),
		}
	}
	if ft.NumOut() == 0 || ft.NumOut() > 2 || (ft.NumOut() == 2 && ft.Out(1) != ErrorType) {
		return reflect.Value{}, &ConverterConstructionError{
			Name:   name,
			Reason: fmt.Sprintf("constructor %s must return T or (T, error)", ft),
		}
	}

	defer func() {
		if r := recover(); r != nil {
			v = reflect.Value{}
			err = &ConverterConstructionError{Name: name, Reason: fmt.Sprintf("constructor panicked: %v", r)}
		}
	}()

	out := fn.Call(args)
	if len(out) == 2 && !out[1].IsNil() {
		return reflect.Value{}, &ConverterConstructionError{Name: name, Reason: out[1].Interface().(error).Error()}
	}
	if isNilValue(out[0]) {
		return reflect.Value{}, &ConverterConstructionError{Name: name, Reason: "constructor returned nil"}
	}
	return out[0], nil
}

// declaredConverterTypes reads the source and target types of a converter
// registration without constructing it. For constructors the types come
// from a zero value of the returned type.
func declaredConverterTypes(ctor any) (src, dst reflect.Type, ok bool) {
	defer func() {
		if recover() != nil {
			src, dst, ok = nil, nil, false
		}
	}()

	if c, isConverter := ctor.(Converter); isConverter {
		return c.SourceType(), c.TargetType(), true
	}

	ft := reflect.TypeOf(ctor)
	if ft == nil || ft.Kind() != reflect.Func || ft.NumOut() == 0 {
		return nil, nil, false
	}
	out := ft.Out(0)
	var zero reflect.Value
	if out.Kind() == reflect.Ptr {
		zero = reflect.New(out.Elem())
	} else {
		zero = reflect.New(out).Elem()
	}
	c, isConverter := zero.Interface().(Converter)
	if !isConverter {
		return nil, nil, false
	}
	return c.SourceType(), c.TargetType(), true
}

// converterCache holds constructed converters by name. It is not safe for
// concurrent use, like the rest of the Mapper.
type converterCache struct {
	mapper *Mapper
	lru    *simplelru.LRU[string, Converter]
}

func newConverterCache(m *Mapper, size int) *converterCache {
	lru, err := simplelru.NewLRU[string, Converter](size, nil)
	if err != nil {
		// only a non-positive size fails
		lru, _ = simplelru.NewLRU[string, Converter](DefaultConverterCacheSize, nil)
	}
	return &converterCache{mapper: m, lru: lru}
}

// Get returns the converter registered under name, constructing it on
// first use.
func (c *converterCache) Get(name string) (Converter, error) {
	if conv, ok := c.lru.Get(name); ok {
		return conv, nil
	}

	ctor, ok := c.mapper.config.Converters[name]
	if !ok {
		return nil, &ConverterConstructionError{Name: name, Reason: "no converter registered under this name"}
	}
	// ConverterFunc is itself a func, so instances are recognised first
	if conv, ok := ctor.(Converter); ok {
		c.lru.Add(name, conv)
		return conv, nil
	}
	v, err := construct(name, ctor, c.mapper)
	if err != nil {
		return nil, err
	}
	conv, ok := v.Interface().(Converter)
	if !ok {
		return nil, &ConverterConstructionError{
			Name:   name,
			Reason: fmt.Sprintf("%s does not implement Converter", typeName(v.Type())),
		}
	}
	c.lru.Add(name, conv)
	return conv, nil
}

// Forget drops the constructed converter of name, if any.
func (c *converterCache) Forget(name string) {
	c.lru.Remove(name)
}

// converterTransform adapts conv to a pipeline transform. Empty input
// passes through unconverted.
func converterTransform(conv Converter) valueTransform {
	return func(v reflect.Value) (reflect.Value, error) {
		if isNilValue(v) {
			return v, nil
		}
		in, ok := coerceValue(v, conv.SourceType())
		if !ok {
			return reflect.Value{}, fmt.Errorf("converter expects %s, got %s",
				typeName(conv.SourceType()), typeName(v.Type()))
		}
		out, err := conv.Convert(in.Interface())
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(out), nil
	}
}
