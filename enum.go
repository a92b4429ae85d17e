package remap

import (
	"fmt"
	"reflect"
)

// Enums are named types whose constants are declared to the Mapper with
// DefineEnum or WithEnum. A constant's name is its String() result when
// the type implements fmt.Stringer, else its fmt.Sprint rendering.

type enumType struct {
	typ    reflect.Type
	values []reflect.Value
	byName map[string]reflect.Value
}

// ByName returns the constant called name.
func (e *enumType) ByName(name string) (reflect.Value, bool) {
	v, ok := e.byName[name]
	return v, ok
}

type enumRegistry struct {
	types map[reflect.Type]*enumType
}

func newEnumRegistry() *enumRegistry {
	return &enumRegistry{types: make(map[reflect.Type]*enumType)}
}

// Define adds values to the constants of t. Values of another type are
// skipped.
func (r *enumRegistry) Define(t reflect.Type, values []any) {
	e, ok := r.types[t]
	if !ok {
		e = &enumType{typ: t, byName: make(map[string]reflect.Value)}
		r.types[t] = e
	}
	for _, value := range values {
		v := reflect.ValueOf(value)
		if !v.IsValid() || v.Type() != t {
			continue
		}
		name := enumName(v)
		if _, dup := e.byName[name]; dup {
			continue
		}
		e.byName[name] = v
		e.values = append(e.values, v)
	}
}

func (r *enumRegistry) Has(t reflect.Type) bool {
	_, ok := r.types[t]
	return ok
}

func (r *enumRegistry) Lookup(t reflect.Type) (*enumType, bool) {
	e, ok := r.types[t]
	return e, ok
}

func enumName(v reflect.Value) string {
	if s, ok := v.Interface().(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(v.Interface())
}

// DefineEnum declares the constants of enum type T. Define enums before
// registering mappings between them.
func DefineEnum[T comparable](m *Mapper, values ...T) {
	m.enums.Define(reflect.TypeFor[T](), anySlice(values))
	m.markAllDirty()
}

// WithEnum declares the constants of enum type T.
func WithEnum[T comparable](values ...T) Option {
	return func(c *Config) {
		t := reflect.TypeFor[T]()
		c.Enums[t] = append(c.Enums[t], anySlice(values)...)
	}
}

func anySlice[T any](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// EnumMapping maps the constants of one enum type onto another by name.
//
// Lookup order for a value: the ignore set (answering its fallback), then
// the table built from explicit entries and same-named constants, then the
// default passed by the caller, then the mapping's own default.
type EnumMapping struct {
	mappingBase

	explicit map[any]reflect.Value
	table    map[any]reflect.Value
	ignored  map[any]reflect.Value // value -> fallback, invalid for none
	def      reflect.Value
}

func newEnumMapping(m *Mapper, pair TypePair) *EnumMapping {
	return &EnumMapping{
		mappingBase: newMappingBase(m, pair),
		explicit:    make(map[any]reflect.Value),
		table:       make(map[any]reflect.Value),
		ignored:     make(map[any]reflect.Value),
	}
}

// RegisterEnum registers the enum mapping from S to D. Both enums must be
// defined first.
func RegisterEnum[S, D comparable](m *Mapper) (*EnumMapping, error) {
	tm, err := m.Register(reflect.TypeFor[S](), reflect.TypeFor[D]())
	if err != nil {
		return nil, err
	}
	em, ok := tm.(*EnumMapping)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a mapping between defined enums", ErrInvalidMappingSpec, tm.Pair())
	}
	return em, nil
}

// Put maps src to dst explicitly, whatever their names. Values that are
// not constants of the mapped enums are logged and skipped, here and in
// the other setters.
func (em *EnumMapping) Put(src, dst any) *EnumMapping {
	s, okS := em.check(src, em.pair.Source)
	d, okD := em.check(dst, em.pair.Dest)
	if !okS || !okD {
		return em
	}
	em.explicit[s.Interface()] = d
	em.markDirty()
	return em
}

// Ignore maps values to nothing, bypassing the table.
func (em *EnumMapping) Ignore(values ...any) *EnumMapping {
	for _, value := range values {
		if v, ok := em.check(value, em.pair.Source); ok {
			em.ignored[v.Interface()] = reflect.Value{}
		}
	}
	em.markDirty()
	return em
}

// IgnoreWithFallback maps values to fallback, bypassing the table.
func (em *EnumMapping) IgnoreWithFallback(fallback any, values ...any) *EnumMapping {
	f, ok := em.check(fallback, em.pair.Dest)
	if !ok {
		return em
	}
	for _, value := range values {
		if v, ok := em.check(value, em.pair.Source); ok {
			em.ignored[v.Interface()] = f
		}
	}
	em.markDirty()
	return em
}

// SetDefault sets the value answered for constants without a match.
func (em *EnumMapping) SetDefault(def any) *EnumMapping {
	if d, ok := em.check(def, em.pair.Dest); ok {
		em.def = d
		em.markDirty()
	}
	return em
}

// Activate rebuilds the lookup table.
func (em *EnumMapping) Activate() error {
	src, okS := em.mapper.enums.Lookup(em.pair.Source)
	dst, okD := em.mapper.enums.Lookup(em.pair.Dest)
	if !okS || !okD {
		return fmt.Errorf("%w: %s is not a mapping between defined enums", ErrInvalidMappingSpec, em.pair)
	}

	clear(em.table)
	for _, v := range src.values {
		// unmatched names get no entry
		if d, ok := dst.ByName(enumName(v)); ok {
			em.table[v.Interface()] = d
		}
	}
	for key, d := range em.explicit {
		em.table[key] = d
	}

	em.dirty = false
	return nil
}

// MapValue maps src, falling back to the mapping default.
func (em *EnumMapping) MapValue(src reflect.Value) (reflect.Value, error) {
	return em.lookup(src, reflect.Value{})
}

// MapInto maps src, falling back to the current value of dst before the
// mapping default.
func (em *EnumMapping) MapInto(src, dst reflect.Value) (reflect.Value, error) {
	return em.lookup(src, dst)
}

func (em *EnumMapping) lookup(src, callerDefault reflect.Value) (reflect.Value, error) {
	if err := ensureActive(em); err != nil {
		return reflect.Value{}, err
	}
	src = indirectValue(src)
	if !src.IsValid() {
		return reflect.Value{}, nil
	}

	key := src.Interface()
	if fallback, ok := em.ignored[key]; ok {
		return fallback, nil
	}
	if v, ok := em.table[key]; ok {
		return v, nil
	}
	if callerDefault.IsValid() {
		return callerDefault, nil
	}
	return em.def, nil
}

// check converts value to an enum constant of t, warning on a mismatch.
func (em *EnumMapping) check(value any, t reflect.Type) (reflect.Value, bool) {
	v := reflect.ValueOf(value)
	if !v.IsValid() || v.Type() != t {
		em.mapper.log.WithPair(em.pair).
			Warnf("%T is not a %s, skipping it", value, typeName(t))
		return reflect.Value{}, false
	}
	return v, true
}
