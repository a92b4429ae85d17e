package remap

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/tidwall/gjson"
)

// JSON is a raw JSON document. Mappings registered from JSON read fields
// straight from the document with gjson paths.
type JSON []byte

// JSONType is the source type of every JSONMapping.
var JSONType = reflect.TypeOf(JSON(nil))

// JSONMapping maps a JSON document into a struct. Each destination field
// reads the first path present in the document among its json tag name,
// its canonical name and its aliases.
//
// Nested objects map through the JSONMapping of the field type, which is
// registered on first use.
type JSONMapping struct {
	mappingBase
	execution []*Pipeline
}

func newJSONMapping(m *Mapper, pair TypePair) *JSONMapping {
	return &JSONMapping{mappingBase: newMappingBase(m, pair)}
}

// RegisterJSON registers the mapping from JSON documents to dst.
func (m *Mapper) RegisterJSON(dst reflect.Type) (*JSONMapping, error) {
	tm, err := m.Register(JSONType, dst)
	if err != nil {
		return nil, err
	}
	jm, ok := tm.(*JSONMapping)
	if !ok {
		return nil, fmt.Errorf("%w: %s is registered as %T", ErrInvalidMappingSpec, tm.Pair(), tm)
	}
	return jm, nil
}

// RegisterJSON is the typed form of Mapper.RegisterJSON.
func RegisterJSON[D any](m *Mapper) (*JSONMapping, error) {
	return m.RegisterJSON(reflect.TypeFor[D]())
}

// Activate builds one pipeline per destination field.
func (jm *JSONMapping) Activate() error {
	md, err := jm.mapper.metadata.Get(jm.pair.Dest)
	if err != nil {
		return err
	}

	jm.execution = jm.execution[:0]
	for _, df := range md.Fields {
		paths, ok := jsonPaths(df)
		if df.Ignored || !ok {
			continue
		}
		jm.execution = append(jm.execution, &Pipeline{
			source:        paths[0],
			dest:          df.Name,
			get:           jsonGetter(paths),
			transform:     jm.fieldTransform(df.Type),
			outputDefault: jm.mapper.defaults.Resolve(jm.pair, df, SideOutput),
			set:           fieldSetter(df),
		})
	}

	jm.dirty = false
	return nil
}

// MapValue maps a document into a new destination instance.
func (jm *JSONMapping) MapValue(src reflect.Value) (reflect.Value, error) {
	dst, err := jm.mapper.newInstance(jm.pair.Dest)
	if err != nil {
		return reflect.Value{}, err
	}
	return jm.MapInto(src, dst)
}

// MapInto maps a document into dst. An empty document leaves dst
// untouched.
func (jm *JSONMapping) MapInto(src, dst reflect.Value) (reflect.Value, error) {
	if err := ensureActive(jm); err != nil {
		return reflect.Value{}, err
	}
	src = indirectValue(src)
	if !src.IsValid() || src.Len() == 0 {
		return dst, nil
	}
	if !gjson.ValidBytes(src.Bytes()) {
		return reflect.Value{}, &MappingFailureError{Pair: jm.pair, Err: fmt.Errorf("invalid JSON document")}
	}

	for _, p := range jm.execution {
		if err := p.Apply(src, dst, jm.mapper.log.WithFieldName(jm.pair, p.dest)); err != nil {
			return reflect.Value{}, &MappingFailureError{Pair: jm.pair, Field: p.dest, Err: err}
		}
	}

	if jm.mapper.config.Validate {
		if err := jm.mapper.validate(jm.pair, dst); err != nil {
			return reflect.Value{}, err
		}
	}
	return dst, nil
}

// jsonPaths lists the document paths of df. ok is false for fields tagged
// json:"-".
func jsonPaths(df *FieldMetadata) ([]string, bool) {
	var paths []string
	if tag, ok := df.Tag.Lookup(JSONTagName); ok {
		name, _, _ := strings.Cut(tag, ",")
		if name == IgnoreTagValue {
			return nil, false
		}
		if name != "" {
			paths = append(paths, gjson.Escape(name))
		}
	}
	for _, n := range df.Names() {
		paths = append(paths, gjson.Escape(n))
	}
	return paths, true
}

func jsonGetter(paths []string) valueGetter {
	return func(src reflect.Value) (reflect.Value, error) {
		doc := src.Bytes()
		for _, path := range paths {
			if r := gjson.GetBytes(doc, path); r.Exists() {
				return reflect.ValueOf(r), nil
			}
		}
		return reflect.Value{}, nil
	}
}

func (jm *JSONMapping) fieldTransform(t reflect.Type) valueTransform {
	return func(v reflect.Value) (reflect.Value, error) {
		if !v.IsValid() {
			return v, nil
		}
		r, ok := v.Interface().(gjson.Result)
		if !ok {
			// an input default of the field type
			return v, nil
		}
		return jm.convert(r, t)
	}
}

// convert turns a document value into a value of t.
func (jm *JSONMapping) convert(r gjson.Result, t reflect.Type) (reflect.Value, error) {
	if !r.Exists() || r.Type == gjson.Null {
		return reflect.Value{}, nil
	}

	base := derefType(t)
	switch {
	case base == JSONType:
		return reflect.ValueOf(JSON(r.Raw)), nil
	case base.Kind() == reflect.Interface && base.NumMethod() == 0:
		return reflect.ValueOf(r.Value()), nil
	case isStructural(base) && r.IsObject():
		return jm.convertObject(r, base)
	case isArrayLike(base) && base != ByteSliceType && r.IsArray():
		return jm.convertArray(r, base)
	case base.Kind() == reflect.Map && r.IsObject():
		return jm.convertMap(r, base)
	case r.Type == gjson.Number:
		if v, ok := numberValue(r, base); ok {
			return v, nil
		}
	}

	return jm.mapper.literals.Parse(base, r.String(), "")
}

func (jm *JSONMapping) convertObject(r gjson.Result, t reflect.Type) (reflect.Value, error) {
	m := jm.mapper
	if !m.Has(JSONType, t) {
		if _, err := m.RegisterJSON(t); err != nil {
			return reflect.Value{}, err
		}
	}
	return m.mapValue(reflect.ValueOf(JSON(r.Raw)), t)
}

func (jm *JSONMapping) convertArray(r gjson.Result, t reflect.Type) (reflect.Value, error) {
	elems := r.Array()
	out := newContainer(t, len(elems))
	for i, e := range elems {
		if i >= out.Len() {
			break
		}
		v, err := jm.convert(e, t.Elem())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
		}
		if err := setConverted(out.Index(i), v); err != nil {
			return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return out, nil
}

func (jm *JSONMapping) convertMap(r gjson.Result, t reflect.Type) (reflect.Value, error) {
	out := newContainer(t, 0)
	var err error
	r.ForEach(func(key, value gjson.Result) bool {
		var k, v reflect.Value
		if k, err = jm.mapper.literals.Parse(t.Key(), key.String(), ""); err != nil {
			err = fmt.Errorf("key %s: %w", key.String(), err)
			return false
		}
		if v, err = jm.convert(value, t.Elem()); err != nil {
			err = fmt.Errorf("entry %s: %w", key.String(), err)
			return false
		}
		elem := reflect.New(t.Elem()).Elem()
		if err = setConverted(elem, v); err != nil {
			return false
		}
		out.SetMapIndex(k, elem)
		return true
	})
	if err != nil {
		return reflect.Value{}, err
	}
	return out, nil
}

// setConverted stores v into the settable target, leaving it zero for an
// invalid v.
func setConverted(target, v reflect.Value) error {
	if !v.IsValid() {
		return nil
	}
	coerced, ok := coerceValue(v, target.Type())
	if !ok {
		return fmt.Errorf("cannot assign %s to %s", typeName(v.Type()), typeName(target.Type()))
	}
	target.Set(coerced)
	return nil
}

// numberValue converts a JSON number into a numeric t with overflow
// checking. ok is false for types the literal parser handles.
func numberValue(r gjson.Result, t reflect.Type) (reflect.Value, bool) {
	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f := r.Float()
		if f != float64(int64(f)) || v.OverflowInt(int64(f)) {
			return reflect.Value{}, false
		}
		v.SetInt(r.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f := r.Float()
		if f < 0 || f != float64(uint64(f)) || v.OverflowUint(uint64(f)) {
			return reflect.Value{}, false
		}
		v.SetUint(r.Uint())
	case reflect.Float32, reflect.Float64:
		if v.OverflowFloat(r.Float()) {
			return reflect.Value{}, false
		}
		v.SetFloat(r.Float())
	default:
		return reflect.Value{}, false
	}
	return v, true
}
