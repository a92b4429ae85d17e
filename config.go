package remap

import (
	"reflect"

	"github.com/sirupsen/logrus"
)

// DefaultConverterCacheSize bounds the number of constructed converters a
// Mapper keeps.
const DefaultConverterCacheSize = 256

// Supplier produces a value on demand. It is used for default values.
type Supplier func() any

// DefaultFactory is implemented by types named in a `factory:'name'`
// subtag. Factories are built through a constructor registered with
// WithFactory.
type DefaultFactory interface {
	NewDefault() any
}

// Config is the per-Mapper configuration object.
//
// Every map is keyed either by the destination type or by the name used
// in directive tags.
type Config struct {
	// Strategy and Sides control when default values are applied.
	Strategy DefaultStrategy
	Sides    DefaultSide

	// Suppliers holds default value suppliers per field type. They are
	// consulted when a field has no default directive of its own.
	Suppliers map[reflect.Type]Supplier

	// Cloner, when set, is applied to every value copied as-is from a
	// source field to a destination field.
	Cloner func(any) any

	// TagName is the struct tag holding field directives.
	TagName string

	// Converters maps converter names to either a Converter or a
	// constructor of the form func() C or func(*Mapper) C.
	Converters map[string]any

	// NamedSuppliers backs `supplier:'name'` subtags.
	NamedSuppliers map[string]Supplier

	// Factories maps factory names to constructors of the form
	// func() DefaultFactory or func(*Mapper) DefaultFactory.
	Factories map[string]any

	// Instantiators create destination instances for a type instead of
	// reflect.New. The returned value must be T or *T.
	Instantiators map[reflect.Type]func() any

	// Types resolves type names used by default directives of
	// reflect.Type fields and by mapping files.
	Types map[string]reflect.Type

	// Containers resolves `collection:'name'` hints on interface typed
	// destination fields.
	Containers map[string]reflect.Type

	// Enums lists the declared constants of each enum type.
	Enums map[reflect.Type][]any

	Logger *Logger

	// Validate enables post-map validation of struct destinations.
	Validate bool

	ConverterCacheSize int
}

// Option configures a Mapper.
type Option func(*Config)

// DefaultConfig returns the configuration used by New before options are
// applied.
func DefaultConfig() Config {
	return Config{
		Strategy:           StrategyDefault,
		Suppliers:          make(map[reflect.Type]Supplier),
		TagName:            DefaultTagName,
		Converters:         make(map[string]any),
		NamedSuppliers:     make(map[string]Supplier),
		Factories:          make(map[string]any),
		Instantiators:      make(map[reflect.Type]func() any),
		Types:              make(map[string]reflect.Type),
		Containers:         make(map[string]reflect.Type),
		Enums:              make(map[reflect.Type][]any),
		ConverterCacheSize: DefaultConverterCacheSize,
	}
}

// WithStrategy sets the default value strategy. sides are only meaningful
// with StrategyCustom.
func WithStrategy(strategy DefaultStrategy, sides ...DefaultSide) Option {
	return func(c *Config) {
		c.Strategy = strategy
		c.Sides = 0
		for _, s := range sides {
			c.Sides |= s
		}
	}
}

// WithSupplier registers a default value supplier for every field of type t.
func WithSupplier(t reflect.Type, fn Supplier) Option {
	return func(c *Config) {
		c.Suppliers[t] = fn
	}
}

// WithTypeDefault is the typed form of WithSupplier.
func WithTypeDefault[T any](fn func() T) Option {
	return WithSupplier(reflect.TypeFor[T](), func() any { return fn() })
}

func WithCloner(fn func(any) any) Option {
	return func(c *Config) {
		c.Cloner = fn
	}
}

func WithTagName(name string) Option {
	return func(c *Config) {
		if name != "" {
			c.TagName = name
		}
	}
}

// WithConverter registers a converter, or a converter constructor, under name.
func WithConverter(name string, converterOrCtor any) Option {
	return func(c *Config) {
		c.Converters[name] = converterOrCtor
	}
}

func WithNamedSupplier(name string, fn Supplier) Option {
	return func(c *Config) {
		c.NamedSuppliers[name] = fn
	}
}

// WithFactory registers a DefaultFactory constructor under name.
func WithFactory(name string, ctor any) Option {
	return func(c *Config) {
		c.Factories[name] = ctor
	}
}

// WithInstantiator overrides how instances of t are created.
func WithInstantiator(t reflect.Type, fn func() any) Option {
	return func(c *Config) {
		c.Instantiators[derefType(t)] = fn
	}
}

// WithType names t for default directives and mapping files.
func WithType(name string, t reflect.Type) Option {
	return func(c *Config) {
		c.Types[name] = t
	}
}

// WithContainer names a concrete container type for collection hints.
func WithContainer(name string, t reflect.Type) Option {
	return func(c *Config) {
		c.Containers[name] = t
	}
}

// WithLogger routes warnings through log.
func WithLogger(log *logrus.Logger) Option {
	return func(c *Config) {
		if log != nil {
			c.Logger = &Logger{Logger: log}
		}
	}
}

func WithValidation() Option {
	return func(c *Config) {
		c.Validate = true
	}
}

func WithConverterCacheSize(size int) Option {
	return func(c *Config) {
		if size > 0 {
			c.ConverterCacheSize = size
		}
	}
}
