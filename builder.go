package remap

import (
	"fmt"
	"reflect"
)

// The pipeline builder is a chain of capability interfaces. Each step only
// exposes the calls legal at that point, so a second From, a Build before
// To or a default after a transform do not compile.
//
//	fm.From("name").
//	    DefaultInput(func() any { return "anonymous" }).
//	    Transform(remap.Func(toUpper)).
//	    To("surname").
//	    Create()

// StartStep selects the value a pipeline reads.
type StartStep interface {
	// From reads the source field called name (canonical name or alias).
	From(name string) InputStep
	// FromFunc reads through getter; name identifies the pipeline.
	FromFunc(name string, getter Getter) InputStep
}

// InputStep may set the input default before transforming.
type InputStep interface {
	TransformStep
	DefaultInput(fn Supplier) TransformStep
}

// TransformStep composes transforms left to right.
type TransformStep interface {
	OutputStep
	Transform(fn TransformFunc) TransformStep
	// TransformIf continues with then when pred holds for the current
	// value, else with otherwise. A nil branch passes the value through.
	TransformIf(pred func(value any) bool, then, otherwise TransformFunc) TransformStep
	// TransformWith applies the converter registered under name. A
	// converter that cannot be constructed is an error here.
	TransformWith(name string) (TransformStep, error)
	DefaultOutput(fn Supplier) OutputStep
}

// OutputStep selects where the value goes.
type OutputStep interface {
	// To writes the destination field called name.
	To(name string) BuildStep
	// ToFunc writes through setter; name identifies the pipeline.
	ToFunc(name string, setter Setter) BuildStep
	// Consume hands the value to sink and writes nothing.
	Consume(sink Sink) BuildStep
}

// BuildStep finishes a pipeline.
type BuildStep interface {
	// Build returns the pipeline, the same instance on every call.
	Build() (*Pipeline, error)
	// Create builds the pipeline and adds it to the owning FieldMapping as
	// a custom pipeline.
	Create() (*Pipeline, error)
}

// pipelineBuilder implements every step. Errors met along the chain are
// kept and reported by Build.
type pipelineBuilder struct {
	owner *FieldMapping

	source        string
	sourceField   *FieldMetadata
	dest          string
	destField     *FieldMetadata
	get           valueGetter
	set           valueSetter
	sink          Sink
	transform     valueTransform
	inputDefault  Supplier
	outputDefault Supplier

	err   error
	built *Pipeline
}

func newPipelineBuilder(owner *FieldMapping) StartStep {
	return &pipelineBuilder{owner: owner}
}

func (b *pipelineBuilder) From(name string) InputStep {
	field, err := b.owner.sourceField(name)
	if err != nil {
		b.fail(err)
		b.source = name
		return b
	}
	b.source = field.Name
	b.sourceField = field
	b.get = fieldGetter(field)
	return b
}

func (b *pipelineBuilder) FromFunc(name string, getter Getter) InputStep {
	b.source = name
	if getter == nil {
		b.fail(fmt.Errorf("%w: nil getter for %q", ErrInvalidMappingSpec, name))
		return b
	}
	b.get = funcGetter(getter)
	return b
}

func (b *pipelineBuilder) DefaultInput(fn Supplier) TransformStep {
	b.inputDefault = fn
	return b
}

func (b *pipelineBuilder) Transform(fn TransformFunc) TransformStep {
	if fn == nil {
		return b
	}
	b.transform = composeTransforms(b.transform, funcTransform(fn))
	return b
}

func (b *pipelineBuilder) TransformIf(pred func(value any) bool, then, otherwise TransformFunc) TransformStep {
	if pred == nil {
		b.fail(fmt.Errorf("%w: nil predicate in conditional transform", ErrInvalidMappingSpec))
		return b
	}
	branch := func(fn TransformFunc) valueTransform {
		if fn == nil {
			return func(v reflect.Value) (reflect.Value, error) { return v, nil }
		}
		return funcTransform(fn)
	}
	thenT, otherwiseT := branch(then), branch(otherwise)
	b.transform = composeTransforms(b.transform, func(v reflect.Value) (reflect.Value, error) {
		if pred(interfaceOf(v)) {
			return thenT(v)
		}
		return otherwiseT(v)
	})
	return b
}

func (b *pipelineBuilder) TransformWith(name string) (TransformStep, error) {
	conv, err := b.owner.mapper.converters.Get(name)
	if err != nil {
		return nil, err
	}
	b.transform = composeTransforms(b.transform, converterTransform(conv))
	return b, nil
}

func (b *pipelineBuilder) DefaultOutput(fn Supplier) OutputStep {
	b.outputDefault = fn
	return b
}

func (b *pipelineBuilder) To(name string) BuildStep {
	field, err := b.owner.destField(name)
	if err != nil {
		b.fail(err)
		b.dest = name
		return b
	}
	b.dest = field.Name
	b.destField = field
	b.set = fieldSetter(field)
	return b
}

func (b *pipelineBuilder) ToFunc(name string, setter Setter) BuildStep {
	b.dest = name
	if setter == nil {
		b.fail(fmt.Errorf("%w: nil setter for %q", ErrInvalidMappingSpec, name))
		return b
	}
	b.set = funcSetter(setter)
	return b
}

func (b *pipelineBuilder) Consume(sink Sink) BuildStep {
	if sink == nil {
		b.fail(fmt.Errorf("%w: nil sink", ErrInvalidMappingSpec))
		return b
	}
	b.sink = sink
	return b
}

func (b *pipelineBuilder) Build() (*Pipeline, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.built != nil {
		return b.built, nil
	}

	p := &Pipeline{
		source:      b.source,
		dest:        b.dest,
		get:         b.get,
		transform:   b.transform,
		set:         b.set,
		sink:        b.sink,
		sourceField: b.sourceField,
		destField:   b.destField,
		fixedInput:  b.inputDefault,
		fixedOutput: b.outputDefault,
	}
	p.resolveDefaults(b.owner)

	b.built = p
	return p, nil
}

func (b *pipelineBuilder) Create() (*Pipeline, error) {
	p, err := b.Build()
	if err != nil {
		return nil, err
	}
	b.owner.AddPipeline(p, false)
	return p, nil
}

func (b *pipelineBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Func adapts a typed function to TransformFunc. A nil value reaches fn as
// the zero S.
func Func[S, D any](fn func(S) (D, error)) TransformFunc {
	return ConverterFunc[S, D](fn).Convert
}
