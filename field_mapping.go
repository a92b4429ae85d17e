package remap

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// FieldMapping maps structs field by field through an ordered list of
// Pipelines.
//
// Pipelines come from two sets keyed by (source name, destination name):
// the auto set, rebuilt by Activate from same-named fields, and the custom
// set, filled through the builder or AddPipeline. The execution list is the
// auto set with custom pipelines replacing the entries they share a key
// with, other custom pipelines appended, then input and output ignores
// applied. It is recomputed only after a change.
type FieldMapping struct {
	mappingBase

	auto           *PairMap[string, string, *Pipeline]
	custom         *PairMap[string, string, *Pipeline]
	ignoredInputs  map[string]struct{}
	ignoredOutputs map[string]struct{}
	execution      []*Pipeline
}

func newFieldMapping(m *Mapper, pair TypePair) *FieldMapping {
	return &FieldMapping{
		mappingBase:    newMappingBase(m, pair),
		auto:           NewPairMap[string, string, *Pipeline](),
		custom:         NewPairMap[string, string, *Pipeline](),
		ignoredInputs:  make(map[string]struct{}),
		ignoredOutputs: make(map[string]struct{}),
	}
}

// Builder starts a custom pipeline.
func (fm *FieldMapping) Builder() StartStep {
	return newPipelineBuilder(fm)
}

// From starts a custom pipeline reading the source field name.
func (fm *FieldMapping) From(name string) InputStep {
	return fm.Builder().From(name)
}

// FromFunc starts a custom pipeline reading through getter.
func (fm *FieldMapping) FromFunc(name string, getter Getter) InputStep {
	return fm.Builder().FromFunc(name, getter)
}

// Field adds a custom pipeline copying the source field from into the
// destination field to.
func (fm *FieldMapping) Field(from, to string) (*Pipeline, error) {
	return fm.From(from).To(to).Create()
}

// AddPipeline adds p to the auto set or to the custom set, replacing any
// pipeline with the same key in that set. The auto set is rebuilt by every
// Activate, so only custom pipelines outlive a rediscovery.
func (fm *FieldMapping) AddPipeline(p *Pipeline, auto bool) {
	if auto {
		fm.auto.Put(p.source, p.dest, p)
	} else {
		fm.custom.Put(p.source, p.dest, p)
	}
	fm.markDirty()
}

// IgnoreInputs drops every pipeline reading one of names.
func (fm *FieldMapping) IgnoreInputs(names ...string) *FieldMapping {
	addNames(fm.ignoredInputs, names)
	fm.markDirty()
	return fm
}

// IgnoreOutputs drops every pipeline writing one of names.
func (fm *FieldMapping) IgnoreOutputs(names ...string) *FieldMapping {
	addNames(fm.ignoredOutputs, names)
	fm.markDirty()
	return fm
}

// Ignore ignores names on both sides.
func (fm *FieldMapping) Ignore(names ...string) *FieldMapping {
	addNames(fm.ignoredInputs, names)
	addNames(fm.ignoredOutputs, names)
	fm.markDirty()
	return fm
}

// ExecutionList returns the pipelines run by MapValue, in order.
func (fm *FieldMapping) ExecutionList() ([]*Pipeline, error) {
	if err := ensureActive(fm); err != nil {
		return nil, err
	}
	out := make([]*Pipeline, len(fm.execution))
	copy(out, fm.execution)
	return out, nil
}

// Activate rediscovers the auto set and recomputes the execution list.
func (fm *FieldMapping) Activate() error {
	src, err := fm.mapper.metadata.Get(fm.pair.Source)
	if err != nil {
		return err
	}
	dst, err := fm.mapper.metadata.Get(fm.pair.Dest)
	if err != nil {
		return err
	}

	fm.auto.Clear()
	for _, df := range dst.Fields {
		if df.Ignored {
			continue
		}
		sf := matchField(src, df)
		if sf == nil || sf.Ignored {
			continue
		}
		if p := fm.discover(sf, df); p != nil {
			fm.auto.Put(p.source, p.dest, p)
		}
	}

	// tag names and the default strategy may have changed since the custom
	// pipelines were built
	custom := NewPairMap[string, string, *Pipeline]()
	for _, p := range fm.custom.Values() {
		p.rebind(fm, src, dst)
		custom.Put(p.source, p.dest, p)
	}
	fm.custom = custom

	merged := NewPairMap[string, string, *Pipeline]()
	for key, p := range fm.auto.All() {
		merged.Put(key.First, key.Second, p)
	}
	for key, p := range fm.custom.All() {
		merged.Put(key.First, key.Second, p)
	}

	fm.execution = fm.execution[:0]
	for _, p := range merged.Values() {
		if isIgnored(fm.ignoredInputs, src, p.source) || isIgnored(fm.ignoredOutputs, dst, p.dest) {
			continue
		}
		fm.execution = append(fm.execution, p)
	}

	fm.dirty = false
	return nil
}

// MapValue maps src into a new destination instance.
func (fm *FieldMapping) MapValue(src reflect.Value) (reflect.Value, error) {
	dst, err := fm.mapper.newInstance(fm.pair.Dest)
	if err != nil {
		return reflect.Value{}, err
	}
	return fm.MapInto(src, dst)
}

// MapInto runs the execution list against src and dst. A nil src leaves
// dst untouched.
func (fm *FieldMapping) MapInto(src, dst reflect.Value) (reflect.Value, error) {
	if err := ensureActive(fm); err != nil {
		return reflect.Value{}, err
	}
	src = indirectValue(src)
	if !src.IsValid() {
		return dst, nil
	}

	for _, p := range fm.execution {
		field := p.dest
		if field == "" {
			field = p.source
		}
		if err := p.Apply(src, dst, fm.mapper.log.WithFieldName(fm.pair, field)); err != nil {
			return reflect.Value{}, &MappingFailureError{Pair: fm.pair, Field: field, Err: err}
		}
	}

	if fm.mapper.config.Validate {
		if err := fm.mapper.validate(fm.pair, dst); err != nil {
			return reflect.Value{}, err
		}
	}
	return dst, nil
}

// discover picks the pipeline for a same-named field pair, or nil when the
// field cannot be mapped. Checked in order: arrays, collections, declared
// converters, nested mappings, assignable values.
func (fm *FieldMapping) discover(sf, df *FieldMetadata) *Pipeline {
	m := fm.mapper
	st, dt := sf.Type, df.Type

	var transform valueTransform
	if isArrayLike(st) && isArrayLike(dt) && m.elementsCompatible(st.Elem(), dt.Elem()) {
		transform = m.arrayTransform(dt)
	} else if target, ok := fm.collectionTarget(st, df); ok {
		transform = m.collectionTransform(target)
	} else if conv, ok := fm.implicitConverter(sf, df); ok {
		transform = conv
	} else if m.canMap(st, dt) {
		transform = m.lateBoundTransform(fm.pair, df)
	} else if typesAssignable(st, dt) {
		transform = m.copyTransform()
	} else {
		return nil
	}

	p := &Pipeline{
		source:      sf.Name,
		dest:        df.Name,
		get:         fieldGetter(sf),
		transform:   transform,
		set:         fieldSetter(df),
		sourceField: sf,
		destField:   df,
	}
	p.resolveDefaults(fm)
	return p
}

// collectionTarget returns the map type a collection field is built as:
// the field type itself, or the container named by its collection hint.
func (fm *FieldMapping) collectionTarget(st reflect.Type, df *FieldMetadata) (reflect.Type, bool) {
	if st.Kind() != reflect.Map {
		return nil, false
	}
	if df.Collection != "" {
		container, ok := fm.mapper.config.Containers[df.Collection]
		if !ok || container.Kind() != reflect.Map || !container.AssignableTo(df.Type) {
			fm.mapper.log.WithFieldName(fm.pair, df.GoName).
				Warnf("collection hint %q does not name a map assignable to %s", df.Collection, typeName(df.Type))
			return nil, false
		}
		return container, true
	}
	if df.Type.Kind() == reflect.Map {
		return df.Type, true
	}
	return nil, false
}

// implicitConverter selects the first converter declared on the
// destination, then the source field, whose types fit the field pair. A
// selected converter that cannot be constructed only logs a warning and
// passes values through unchanged.
func (fm *FieldMapping) implicitConverter(sf, df *FieldMetadata) (valueTransform, bool) {
	m := fm.mapper
	names := append(append([]string{}, df.Converters...), sf.Converters...)
	for _, name := range names {
		log := m.log.WithConverter(fm.pair, df.GoName, name)

		ctor, ok := m.config.Converters[name]
		if !ok {
			log.Warn("no converter registered under this name")
			continue
		}
		in, out, ok := declaredConverterTypes(ctor)
		if !ok {
			log.Warn("registration does not declare converter types")
			continue
		}
		if !typesAssignable(sf.Type, in) || !typesAssignable(out, df.Type) {
			continue
		}

		conv, err := m.converters.Get(name)
		if err != nil {
			log.WithError(err).Warn("converter unavailable, passing values through")
			return identityTransform, true
		}
		return converterTransform(conv), true
	}
	return nil, false
}

func (fm *FieldMapping) sourceField(name string) (*FieldMetadata, error) {
	return lookupField(fm.mapper, fm.pair.Source, name)
}

func (fm *FieldMapping) destField(name string) (*FieldMetadata, error) {
	return lookupField(fm.mapper, fm.pair.Dest, name)
}

func lookupField(m *Mapper, t reflect.Type, name string) (*FieldMetadata, error) {
	md, err := m.metadata.Get(t)
	if err != nil {
		return nil, err
	}
	field, ok := md.Field(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no field %q", ErrInvalidMappingSpec, typeName(t), name)
	}
	return field, nil
}

// matchField finds the source field sharing a name or alias with df.
func matchField(src *TypeMetadata, df *FieldMetadata) *FieldMetadata {
	for _, name := range df.Names() {
		if sf, ok := src.Field(name); ok {
			return sf
		}
	}
	return nil
}

// isIgnored matches name, or any name of the field it designates, against
// the ignore set.
func isIgnored(set map[string]struct{}, md *TypeMetadata, name string) bool {
	if len(set) == 0 || name == "" {
		return false
	}
	if _, ok := set[strings.ToLower(name)]; ok {
		return true
	}
	field, ok := md.Field(name)
	if !ok {
		return false
	}
	for _, n := range field.Names() {
		if _, ok := set[strings.ToLower(n)]; ok {
			return true
		}
	}
	return false
}

func addNames(set map[string]struct{}, names []string) {
	for _, n := range names {
		set[strings.ToLower(n)] = struct{}{}
	}
}

func identityTransform(v reflect.Value) (reflect.Value, error) {
	return v, nil
}

// isArrayLike reports slices and arrays that are not scalar types.
func isArrayLike(t reflect.Type) bool {
	return (t.Kind() == reflect.Slice || t.Kind() == reflect.Array) && t != UUIDType
}

// lateBoundTransform maps through the Mapper when the pipeline runs, so
// mappings registered after activation still apply. Without a mapping an
// assignable value is copied; anything else leaves the field empty.
func (m *Mapper) lateBoundTransform(owner TypePair, df *FieldMetadata) valueTransform {
	return func(v reflect.Value) (reflect.Value, error) {
		if isNilValue(v) {
			return reflect.Value{}, nil
		}
		out, err := m.mapValue(v, df.Type)
		if err == nil || !errors.Is(err, ErrMappingNotFound) {
			return out, err
		}
		if coerced, ok := coerceValue(v, df.Type); ok {
			return m.clone(coerced), nil
		}
		m.log.WithFieldName(owner, df.GoName).WithError(err).Warn("no nested mapping, leaving field empty")
		return reflect.Value{}, nil
	}
}

func (m *Mapper) copyTransform() valueTransform {
	return func(v reflect.Value) (reflect.Value, error) {
		if isNilValue(v) {
			return v, nil
		}
		return m.clone(v), nil
	}
}

// clone applies the configured Cloner to v.
func (m *Mapper) clone(v reflect.Value) reflect.Value {
	if m.config.Cloner == nil || !v.IsValid() || !v.CanInterface() {
		return v
	}
	return reflect.ValueOf(m.config.Cloner(v.Interface()))
}
