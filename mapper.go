package remap

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// Mapper is the registry of type mappings and the entry point for mapping
// values.
//
// A Mapper is not safe for concurrent use. Registration, Build and mapping
// all mutate shared state; callers running them from several goroutines
// must serialize access themselves.
type Mapper struct {
	config Config
	log    *Logger

	registry   *PairMap[reflect.Type, reflect.Type, TypeMapping]
	metadata   *metadataCache
	enums      *enumRegistry
	literals   *literalParser
	defaults   *defaultResolver
	converters *converterCache
	validator  *validator.Validate

	// dirty is set whenever a mapping changes and cleared by Build
	dirty bool
}

// New creates a Mapper configured by opts.
func New(opts ...Option) *Mapper {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = NewLogger()
	}

	m := &Mapper{
		config:   cfg,
		log:      cfg.Logger,
		registry: NewPairMap[reflect.Type, reflect.Type, TypeMapping](),
		metadata: newMetadataCache(cfg.TagName),
		enums:    newEnumRegistry(),
	}
	for t, values := range cfg.Enums {
		m.enums.Define(t, values)
	}
	m.literals = &literalParser{types: cfg.Types, enums: m.enums}
	m.defaults = &defaultResolver{mapper: m, literals: m.literals}
	m.converters = newConverterCache(m, cfg.ConverterCacheSize)
	return m
}

// Config returns a copy of the Mapper configuration.
func (m *Mapper) Config() Config {
	return m.config
}

// Logger returns the logger warnings are written to.
func (m *Mapper) Logger() *Logger {
	return m.log
}

// Register declares a mapping from src to dst and returns it. Registering
// a pair twice returns the existing mapping. A JSON source gets a
// *JSONMapping, two defined enum types an *EnumMapping and two structs a
// *FieldMapping. Any other pair is rejected.
func (m *Mapper) Register(src, dst reflect.Type) (TypeMapping, error) {
	if src == nil || dst == nil {
		return nil, fmt.Errorf("%w: nil type", ErrInvalidMappingSpec)
	}
	pair := NewTypePair(src, dst)
	if !instantiable(pair.Source) {
		return nil, fmt.Errorf("%w: source %s is not a concrete type", ErrInvalidMappingSpec, typeName(pair.Source))
	}
	if !instantiable(pair.Dest) {
		return nil, fmt.Errorf("%w: destination %s cannot be instantiated", ErrInvalidMappingSpec, typeName(pair.Dest))
	}

	if existing, ok := m.registry.Get(pair.Source, pair.Dest); ok {
		return existing, nil
	}

	var tm TypeMapping
	switch {
	case pair.Source == JSONType:
		if _, err := m.metadata.Get(pair.Dest); err != nil {
			return nil, err
		}
		tm = newJSONMapping(m, pair)
	case m.enums.Has(pair.Source) && m.enums.Has(pair.Dest):
		tm = newEnumMapping(m, pair)
	case isStructural(pair.Source) && isStructural(pair.Dest):
		// metadata errors are registration errors
		if _, err := m.metadata.Get(pair.Source); err != nil {
			return nil, err
		}
		if _, err := m.metadata.Get(pair.Dest); err != nil {
			return nil, err
		}
		tm = newFieldMapping(m, pair)
	default:
		return nil, fmt.Errorf("%w: %s maps neither two structs nor two defined enums; define enums first or use RegisterFunc",
			ErrInvalidMappingSpec, pair)
	}
	m.put(tm)
	return tm, nil
}

// Register is the typed form of Mapper.Register for struct mappings.
func Register[S, D any](m *Mapper) (*FieldMapping, error) {
	tm, err := m.Register(reflect.TypeFor[S](), reflect.TypeFor[D]())
	if err != nil {
		return nil, err
	}
	fm, ok := tm.(*FieldMapping)
	if !ok {
		return nil, fmt.Errorf("%w: %s is registered as %T", ErrInvalidMappingSpec, tm.Pair(), tm)
	}
	return fm, nil
}

// RegisterConverter adds or replaces the converter registered under name.
// Every mapping is rediscovered on the next Build.
func (m *Mapper) RegisterConverter(name string, converterOrCtor any) {
	m.config.Converters[name] = converterOrCtor
	m.converters.Forget(name)
	m.markAllDirty()
}

// Has reports whether a mapping from src to dst is registered.
func (m *Mapper) Has(src, dst reflect.Type) bool {
	pair := NewTypePair(src, dst)
	return m.registry.Has(pair.Source, pair.Dest)
}

// Mapping returns the mapping registered for src and dst.
func (m *Mapper) Mapping(src, dst reflect.Type) (TypeMapping, bool) {
	pair := NewTypePair(src, dst)
	return m.registry.Get(pair.Source, pair.Dest)
}

// Mappings lists the registered pairs in registration order.
func (m *Mapper) Mappings() []TypePair {
	keys := m.registry.Keys()
	out := make([]TypePair, len(keys))
	for i, k := range keys {
		out[i] = TypePair{Source: k.First, Dest: k.Second}
	}
	return out
}

// Build activates every dirty mapping and reports the ones that failed.
// A failed mapping stays dirty and reports its error again whenever it is
// used; the other mappings are unaffected. Map calls Build implicitly.
func (m *Mapper) Build() error {
	var errs []error
	for key, tm := range m.registry.All() {
		if !tm.Dirty() {
			continue
		}
		if err := tm.Activate(); err != nil {
			errs = append(errs, fmt.Errorf("failed to activate %s: %w",
				TypePair{Source: key.First, Dest: key.Second}, err))
		}
	}
	m.dirty = false
	return errors.Join(errs...)
}

// Map maps value into a new instance of destType. A nil value maps to nil.
// When destType is a pointer type the result is a pointer.
func (m *Mapper) Map(value any, destType reflect.Type) (any, error) {
	if destType == nil {
		return nil, fmt.Errorf("%w: nil destination type", ErrInvalidMappingSpec)
	}
	m.buildIfDirty()

	out, err := m.mapValue(reflect.ValueOf(value), destType)
	if err != nil || !out.IsValid() {
		return nil, err
	}
	if destType.Kind() == reflect.Ptr {
		return pointerTo(out).Interface(), nil
	}
	return out.Interface(), nil
}

// Map is the typed form of Mapper.Map.
func Map[D any](m *Mapper, value any) (D, error) {
	var zero D
	out, err := m.Map(value, reflect.TypeFor[D]())
	if err != nil || out == nil {
		return zero, err
	}
	d, ok := out.(D)
	if !ok {
		return zero, fmt.Errorf("%w: mapped to %T, not %s", ErrMappingFailure, out, reflect.TypeFor[D]())
	}
	return d, nil
}

// MapOrNil is Map with every error reduced to a nil result. Errors other
// than a missing mapping or a mapping failure are logged.
func (m *Mapper) MapOrNil(value any, destType reflect.Type) any {
	out, err := m.Map(value, destType)
	if err != nil {
		if !errors.Is(err, ErrMappingNotFound) && !errors.Is(err, ErrMappingFailure) {
			m.log.WithError(err).Warn("mapping failed, returning nil")
		}
		return nil
	}
	return out
}

// MapInto maps value into dest, which must be a non-nil pointer, and
// returns dest. A nil value leaves dest unchanged.
func (m *Mapper) MapInto(value any, dest any) (any, error) {
	dv := reflect.ValueOf(dest)
	if !dv.IsValid() || dv.Kind() != reflect.Ptr || dv.IsNil() {
		return nil, fmt.Errorf("%w: destination must be a non-nil pointer, got %T", ErrInvalidMappingSpec, dest)
	}
	m.buildIfDirty()

	src := indirectValue(reflect.ValueOf(value))
	if !src.IsValid() {
		return dest, nil
	}

	target := dv.Elem()
	for target.Kind() == reflect.Ptr {
		if target.IsNil() {
			target.Set(reflect.New(target.Type().Elem()))
		}
		target = target.Elem()
	}

	pair := NewTypePair(src.Type(), target.Type())
	tm, ok := m.registry.Get(pair.Source, pair.Dest)
	if !ok {
		return nil, newMappingNotFoundError(pair, m.Mappings())
	}
	out, err := tm.MapInto(src, target)
	if err != nil {
		return nil, err
	}
	if out.IsValid() {
		if coerced, ok := coerceValue(out, target.Type()); ok {
			target.Set(coerced)
		}
	}
	return dest, nil
}

// mapValue resolves the mapping of v's type to dst and runs it. The result
// has pointers removed from dst; it is invalid for a nil v.
func (m *Mapper) mapValue(v reflect.Value, dst reflect.Type) (reflect.Value, error) {
	v = indirectValue(v)
	if !v.IsValid() {
		return reflect.Value{}, nil
	}
	pair := NewTypePair(v.Type(), dst)
	tm, ok := m.registry.Get(pair.Source, pair.Dest)
	if !ok {
		return reflect.Value{}, newMappingNotFoundError(pair, m.Mappings())
	}
	return tm.MapValue(v)
}

// canMap reports whether a mapping between the two types exists or may be
// registered later.
func (m *Mapper) canMap(src, dst reflect.Type) bool {
	s, d := derefType(src), derefType(dst)
	if m.registry.Has(s, d) {
		return true
	}
	if m.enums.Has(s) && m.enums.Has(d) {
		return true
	}
	return isStructural(s) && isStructural(d)
}

// buildIfDirty runs Build before a mapping call. Activation failures are
// only logged: the mapping being used reports its own.
func (m *Mapper) buildIfDirty() {
	if !m.dirty {
		return
	}
	if err := m.Build(); err != nil {
		m.log.WithError(err).Warn("some mappings failed to activate")
	}
}

func (m *Mapper) put(tm TypeMapping) {
	pair := tm.Pair()
	m.registry.Put(pair.Source, pair.Dest, tm)
	m.dirty = true
}

func (m *Mapper) markAllDirty() {
	for _, tm := range m.registry.All() {
		if d, ok := tm.(interface{ markDirty() }); ok {
			d.markDirty()
		}
	}
	m.dirty = true
}

// isStructural reports struct types mapped field by field.
func isStructural(t reflect.Type) bool {
	return t != nil && t.Kind() == reflect.Struct && !isLeafStruct(t)
}
