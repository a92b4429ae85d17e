package remap

import (
	"fmt"
	"reflect"
	"strings"
)

// DefaultStrategy is the global policy deciding when default values are
// filled in.
type DefaultStrategy int

const (
	// StrategyDefault behaves like StrategyAlways.
	StrategyDefault DefaultStrategy = iota
	// StrategyAlways fills defaults on both the input and the output side.
	StrategyAlways
	// StrategyNever disables resolved defaults entirely.
	StrategyNever
	// StrategyCustom fills defaults only on the sides configured with it.
	StrategyCustom
)

var strategyNames = map[DefaultStrategy]string{
	StrategyDefault: "default",
	StrategyAlways:  "always",
	StrategyNever:   "never",
	StrategyCustom:  "custom",
}

func (s DefaultStrategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("DefaultStrategy(%d)", int(s))
}

// ParseDefaultStrategy is the inverse of DefaultStrategy.String, ignoring case.
func ParseDefaultStrategy(name string) (DefaultStrategy, error) {
	for s, n := range strategyNames {
		if strings.EqualFold(n, name) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown default strategy %q", ErrInvalidMappingSpec, name)
}

// DefaultSide selects the pipeline stage a default applies to. Sides are
// combined with |.
type DefaultSide uint8

const (
	SideInput DefaultSide = 1 << iota
	SideOutput
)

// ParseDefaultSide accepts "input" or "output", ignoring case.
func ParseDefaultSide(name string) (DefaultSide, error) {
	switch strings.ToLower(name) {
	case "input":
		return SideInput, nil
	case "output":
		return SideOutput, nil
	}
	return 0, fmt.Errorf("%w: unknown default side %q", ErrInvalidMappingSpec, name)
}

// Applies reports whether defaults are filled on side under s. sides is
// only consulted for StrategyCustom.
func (s DefaultStrategy) Applies(side, sides DefaultSide) bool {
	switch s {
	case StrategyNever:
		return false
	case StrategyCustom:
		return sides&side != 0
	default:
		return true
	}
}

// defaultResolver derives a Supplier for a field from, in order, its default
// directive, the per-type suppliers of the Config, and nothing.
//
// Resolution never fails: anything unresolvable is logged and yields nil.
type defaultResolver struct {
	mapper   *Mapper
	literals *literalParser
}

// Resolve returns the default supplier of field on side, or nil when the
// strategy disables that side or no default is known.
func (r *defaultResolver) Resolve(pair TypePair, field *FieldMetadata, side DefaultSide) Supplier {
	cfg := &r.mapper.config
	if field == nil || !cfg.Strategy.Applies(side, cfg.Sides) {
		return nil
	}

	log := r.mapper.log.WithFieldName(pair, field.GoName)
	d := field.Default

	switch {
	case d.HasLiteral:
		return r.literalSupplier(field, d, func(err error) {
			log.WithError(err).Warnf("ignoring default value %q", d.Literal)
		})
	case d.Supplier != "":
		fn, ok := cfg.NamedSuppliers[d.Supplier]
		if !ok {
			log.Warnf("no supplier registered as %q", d.Supplier)
			return nil
		}
		return fn
	case d.Factory != "":
		factory, err := r.factory(d.Factory)
		if err != nil {
			log.WithError(err).Warn("default factory unavailable")
			return nil
		}
		return factory.NewDefault
	}

	if fn, ok := cfg.Suppliers[field.Type]; ok {
		return fn
	}
	if fn, ok := cfg.Suppliers[derefType(field.Type)]; ok {
		return fn
	}
	return nil
}

func (r *defaultResolver) literalSupplier(field *FieldMetadata, d DefaultDirective, warn func(error)) Supplier {
	v, err := r.literals.Parse(field.Type, d.Literal, d.Charset)
	if err != nil {
		warn(err)
		return nil
	}

	switch field.Type.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map:
		// fresh value per call, a shared pointer would alias destinations
		return func() any {
			fresh, err := r.literals.Parse(field.Type, d.Literal, d.Charset)
			if err != nil {
				return nil
			}
			return fresh.Interface()
		}
	default:
		value := v.Interface()
		return func() any { return value }
	}
}

// factory builds the DefaultFactory registered under name.
func (r *defaultResolver) factory(name string) (DefaultFactory, error) {
	ctor, ok := r.mapper.config.Factories[name]
	if !ok {
		return nil, &ConverterConstructionError{Name: name, Reason: "no factory registered under this name"}
	}
	if factory, ok := ctor.(DefaultFactory); ok {
		return factory, nil
	}
	v, err := construct(name, ctor, r.mapper)
	if err != nil {
		return nil, err
	}
	factory, ok := v.Interface().(DefaultFactory)
	if !ok {
		return nil, &ConverterConstructionError{
			Name:   name,
			Reason: fmt.Sprintf("%s does not implement DefaultFactory", typeName(v.Type())),
		}
	}
	return factory, nil
}
