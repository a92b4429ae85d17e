package remap

import (
	"fmt"
	"reflect"

	"github.com/sirupsen/logrus"
)

// Getter reads a value from a source instance. source is a pointer to the
// source value.
type Getter func(source any) (any, error)

// Setter writes value into a destination instance. dest is a pointer to
// the destination value.
type Setter func(dest any, value any) error

// Sink consumes a value without writing it anywhere in the destination.
type Sink func(value any) error

// TransformFunc converts a value in a pipeline. It receives nil for an
// absent value.
type TransformFunc func(value any) (any, error)

type (
	valueGetter    func(source reflect.Value) (reflect.Value, error)
	valueSetter    func(dest reflect.Value, value reflect.Value) error
	valueTransform func(value reflect.Value) (reflect.Value, error)
)

// Pipeline maps one value from a source instance to a destination instance:
//
//	get -> input default -> transform -> output default -> set
//
// A Pipeline is identified by its source and destination names. Its
// transforms never change once built; pipelines reading or writing named
// fields are rebound to the current field metadata by every Activate of
// their FieldMapping.
type Pipeline struct {
	source        string
	dest          string
	get           valueGetter
	inputDefault  Supplier
	transform     valueTransform
	outputDefault Supplier
	set           valueSetter // nil for consuming pipelines
	sink          Sink

	sourceField *FieldMetadata
	destField   *FieldMetadata
	// defaults given to the builder, kept over directive defaults
	fixedInput  Supplier
	fixedOutput Supplier
}

// rebind points p at the current metadata of its fields in src and dst
// and derives again the defaults their directives supply under the current
// strategy.
func (p *Pipeline) rebind(fm *FieldMapping, src, dst *TypeMetadata) {
	if p.sourceField != nil {
		if f, ok := src.fieldAt(p.sourceField.Index); ok {
			p.sourceField, p.source, p.get = f, f.Name, fieldGetter(f)
		}
	}
	if p.destField != nil {
		if f, ok := dst.fieldAt(p.destField.Index); ok {
			p.destField, p.dest, p.set = f, f.Name, fieldSetter(f)
		}
	}
	p.resolveDefaults(fm)
}

// resolveDefaults fills the defaults not given explicitly from the field
// directives.
func (p *Pipeline) resolveDefaults(fm *FieldMapping) {
	resolver := fm.mapper.defaults
	p.inputDefault = p.fixedInput
	if p.inputDefault == nil && p.sourceField != nil {
		p.inputDefault = resolver.Resolve(fm.pair, p.sourceField, SideInput)
	}
	p.outputDefault = p.fixedOutput
	if p.outputDefault == nil && p.destField != nil {
		p.outputDefault = resolver.Resolve(fm.pair, p.destField, SideOutput)
	}
}

// Source returns the name of the source field.
func (p *Pipeline) Source() string { return p.source }

// Dest returns the name of the destination field, empty for a consuming
// pipeline.
func (p *Pipeline) Dest() string { return p.dest }

// Apply runs the pipeline against src and dst. dst must be addressable.
//
// Getter and setter failures never propagate: they are logged on log and
// the field is treated as having no value. Transform failures are returned.
func (p *Pipeline) Apply(src, dst reflect.Value, log *logrus.Entry) error {
	raw, err := p.safeGet(src)
	if err != nil {
		log.WithError(err).Warn("field read failed, using no value")
		raw = reflect.Value{}
	}

	if isEmptyValue(raw) && p.inputDefault != nil {
		raw = reflect.ValueOf(p.inputDefault())
	}

	transformed, err := p.safeTransform(raw)
	if err != nil {
		return err
	}

	if isEmptyValue(transformed) && p.outputDefault != nil {
		transformed = reflect.ValueOf(p.outputDefault())
	}

	if p.sink != nil {
		return p.consume(transformed)
	}

	if err := p.safeSet(dst, transformed); err != nil {
		withValue(log.WithError(err), interfaceOf(transformed)).
			Warn("field write failed, leaving destination untouched")
	}
	return nil
}

func (p *Pipeline) safeGet(src reflect.Value) (v reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("getter panicked: %v", r)
		}
	}()
	return p.get(src)
}

func (p *Pipeline) safeSet(dst, v reflect.Value) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("setter panicked: %v", r)
		}
	}()
	return p.set(dst, v)
}

func (p *Pipeline) safeTransform(v reflect.Value) (out reflect.Value, err error) {
	if p.transform == nil {
		return v, nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transform panicked: %v", r)
		}
	}()
	return p.transform(v)
}

func (p *Pipeline) consume(v reflect.Value) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()
	return p.sink(interfaceOf(v))
}

// composeTransforms chains transforms left to right, skipping nils.
func composeTransforms(first, next valueTransform) valueTransform {
	switch {
	case first == nil:
		return next
	case next == nil:
		return first
	}
	return func(v reflect.Value) (reflect.Value, error) {
		mid, err := first(v)
		if err != nil {
			return reflect.Value{}, err
		}
		return next(mid)
	}
}

// fieldGetter reads field from the source instance.
func fieldGetter(field *FieldMetadata) valueGetter {
	return func(src reflect.Value) (reflect.Value, error) {
		v, ok := field.Get(src)
		if !ok {
			return reflect.Value{}, nil
		}
		return v, nil
	}
}

// fieldSetter writes field of the destination instance.
func fieldSetter(field *FieldMetadata) valueSetter {
	return func(dst reflect.Value, v reflect.Value) error {
		return field.Set(dst, v)
	}
}

// funcGetter adapts a user Getter. The source is handed over as a pointer.
func funcGetter(fn Getter) valueGetter {
	return func(src reflect.Value) (reflect.Value, error) {
		out, err := fn(pointerTo(src).Interface())
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(out), nil
	}
}

// funcSetter adapts a user Setter. The destination is handed over as a
// pointer, so it can be mutated.
func funcSetter(fn Setter) valueSetter {
	return func(dst reflect.Value, v reflect.Value) error {
		return fn(pointerTo(dst).Interface(), interfaceOf(v))
	}
}

// funcTransform adapts a user TransformFunc.
func funcTransform(fn TransformFunc) valueTransform {
	return func(v reflect.Value) (reflect.Value, error) {
		out, err := fn(interfaceOf(v))
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(out), nil
	}
}

// interfaceOf returns the value held by v, nil for an invalid value.
func interfaceOf(v reflect.Value) any {
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}
	return v.Interface()
}

// pointerTo returns a pointer to v, copying it when v is not addressable.
func pointerTo(v reflect.Value) reflect.Value {
	if v.Kind() == reflect.Ptr {
		return v
	}
	if v.CanAddr() {
		return v.Addr()
	}
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return p
}
