package remap

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
)

var errNilEmbedded = errors.New("nil embedded pointer")

// FieldMetadata describes one exported field of a struct type, promoted
// fields included.
type FieldMetadata struct {
	GoName     string
	Name       string // canonical name: the name subtag or GoName
	Aliases    []string
	Type       reflect.Type
	Tag        reflect.StructTag
	Index      []int
	Ignored    bool
	Collection string
	Converters []string
	Default    DefaultDirective
}

// Names returns the canonical name followed by the aliases.
func (f *FieldMetadata) Names() []string {
	return append([]string{f.Name}, f.Aliases...)
}

// Matches reports whether name is the canonical name or an alias of f,
// ignoring case.
func (f *FieldMetadata) Matches(name string) bool {
	for _, n := range f.Names() {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// Get reads the field from instance, a struct or a pointer to one. ok is
// false when the field is unreachable through a nil embedded pointer.
func (f *FieldMetadata) Get(instance reflect.Value) (v reflect.Value, ok bool) {
	v = reflect.Indirect(instance)
	for i, x := range f.Index {
		if i > 0 && v.Kind() == reflect.Ptr {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, true
}

// Set assigns value to the field of instance, which must be addressable.
// Nil embedded pointers along the path are allocated. An invalid value
// zeroes the field.
func (f *FieldMetadata) Set(instance reflect.Value, value reflect.Value) error {
	v := reflect.Indirect(instance)
	for i, x := range f.Index {
		if i > 0 && v.Kind() == reflect.Ptr {
			if v.IsNil() {
				if !v.CanSet() {
					return fmt.Errorf("field %s: %w", f.GoName, errNilEmbedded)
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	if !v.CanSet() {
		return fmt.Errorf("field %s of %s is not settable", f.GoName, typeName(instance.Type()))
	}
	if !value.IsValid() {
		v.SetZero()
		return nil
	}
	coerced, ok := coerceValue(value, f.Type)
	if !ok {
		return fmt.Errorf("cannot assign %s to field %s of type %s",
			typeName(value.Type()), f.GoName, typeName(f.Type))
	}
	v.Set(coerced)
	return nil
}

// TypeMetadata is the cached field table of one type. Types other than
// structs have no fields.
type TypeMetadata struct {
	Type   reflect.Type
	Fields []*FieldMetadata
	byName map[string]*FieldMetadata
}

// Field looks a field up by canonical name or alias, ignoring case.
func (t *TypeMetadata) Field(name string) (*FieldMetadata, bool) {
	f, ok := t.byName[strings.ToLower(name)]
	return f, ok
}

// fieldAt returns the field with the given index path.
func (t *TypeMetadata) fieldAt(index []int) (*FieldMetadata, bool) {
	for _, f := range t.Fields {
		if slices.Equal(f.Index, index) {
			return f, true
		}
	}
	return nil, false
}

// metadataCache computes TypeMetadata once per type for the lifetime of a
// Mapper.
type metadataCache struct {
	tagName string
	types   map[reflect.Type]*TypeMetadata
}

func newMetadataCache(tagName string) *metadataCache {
	return &metadataCache{
		tagName: tagName,
		types:   make(map[reflect.Type]*TypeMetadata),
	}
}

// Get returns the metadata of t, pointer indirections removed.
func (c *metadataCache) Get(t reflect.Type) (*TypeMetadata, error) {
	t = derefType(t)
	if md, ok := c.types[t]; ok {
		return md, nil
	}
	md, err := c.build(t)
	if err != nil {
		return nil, err
	}
	c.types[t] = md
	return md, nil
}

func (c *metadataCache) build(t reflect.Type) (*TypeMetadata, error) {
	md := &TypeMetadata{Type: t, byName: make(map[string]*FieldMetadata)}
	if t == nil || t.Kind() != reflect.Struct || isLeafStruct(t) {
		return md, nil
	}

	for _, sf := range reflect.VisibleFields(t) {
		if !sf.IsExported() {
			continue
		}
		// promoted fields are listed on their own
		if sf.Anonymous && derefType(sf.Type).Kind() == reflect.Struct {
			continue
		}

		d, err := LookupDirectives(sf, c.tagName)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidMappingSpec, typeName(t), err)
		}

		fm := &FieldMetadata{
			GoName:     sf.Name,
			Name:       sf.Name,
			Type:       sf.Type,
			Tag:        sf.Tag,
			Index:      sf.Index,
			Ignored:    d.Ignore,
			Collection: d.Collection,
			Converters: d.Converters,
			Default:    d.Default,
		}
		if d.Name != "" {
			fm.Name = d.Name
		}

		names := map[string]bool{strings.ToLower(fm.Name): true}
		for _, a := range d.Aliases {
			if key := strings.ToLower(a); !names[key] {
				names[key] = true
				fm.Aliases = append(fm.Aliases, a)
			}
		}

		for key := range names {
			if other, ok := md.byName[key]; ok {
				return nil, fmt.Errorf("%w: %s: fields %s and %s share the name %q",
					ErrInvalidMappingSpec, typeName(t), other.GoName, fm.GoName, key)
			}
			md.byName[key] = fm
		}
		md.Fields = append(md.Fields, fm)
	}

	return md, nil
}

// isLeafStruct reports whether a struct type is treated as a scalar and
// never introspected.
func isLeafStruct(t reflect.Type) bool {
	switch t {
	case TimeType, UUIDType:
		return true
	}
	return false
}

// coerceValue adapts v to t when v is assignable to t, possibly through one
// pointer indirection on either side.
func coerceValue(v reflect.Value, t reflect.Type) (reflect.Value, bool) {
	if !v.IsValid() {
		return reflect.Zero(t), true
	}
	vt := v.Type()
	switch {
	case vt.AssignableTo(t):
		return v, true
	case vt.Kind() == reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(t), true
		}
		return coerceValue(v.Elem(), t)
	case t.Kind() == reflect.Ptr && vt.AssignableTo(t.Elem()):
		p := reflect.New(t.Elem())
		p.Elem().Set(v)
		return p, true
	case vt.Kind() == reflect.Ptr && vt.Elem().AssignableTo(t):
		if v.IsNil() {
			return reflect.Zero(t), true
		}
		return v.Elem(), true
	}
	return reflect.Value{}, false
}

// typesAssignable is the static counterpart of coerceValue.
func typesAssignable(from, to reflect.Type) bool {
	switch {
	case from.AssignableTo(to):
		return true
	case to.Kind() == reflect.Ptr && from.AssignableTo(to.Elem()):
		return true
	case from.Kind() == reflect.Ptr && from.Elem().AssignableTo(to):
		return true
	}
	return false
}
