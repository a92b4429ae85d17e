package remap

import (
	"reflect"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type defaultsFixture struct {
	Title   string    `remap:"default:'untitled'"`
	Count   *int      `remap:"default:'3'"`
	Bad     int       `remap:"default:'abc'"`
	Stamp   time.Time `remap:"supplier:'epoch'"`
	Missing string    `remap:"supplier:'nope'"`
	Made    string    `remap:"factory:'greeting'"`
	Broken  string    `remap:"factory:'broken'"`
	Wrong   string    `remap:"factory:'notFactory'"`
	Plain   float64
	Nothing string
}

type greeter struct {
	word string
}

func (g greeter) NewDefault() any { return g.word }

func defaultsMapper(opts ...Option) (*Mapper, *logHook) {
	base := []Option{
		WithNamedSupplier("epoch", func() any { return time.Unix(0, 0).UTC() }),
		WithFactory("greeting", func(m *Mapper) greeter { return greeter{word: "hello"} }),
		WithFactory("broken", func(n int) greeter { return greeter{} }),
		WithFactory("notFactory", func() string { return "plain" }),
		WithTypeDefault(func() float64 { return 2.5 }),
	}
	return newTestMapper(append(base, opts...)...)
}

func resolveField(t *testing.T, m *Mapper, name string, side DefaultSide) Supplier {
	t.Helper()
	md, err := m.metadata.Get(reflect.TypeFor[defaultsFixture]())
	require.NoError(t, err)
	field, ok := md.Field(name)
	require.True(t, ok, name)
	pair := NewTypePair(reflect.TypeFor[defaultsFixture](), reflect.TypeFor[defaultsFixture]())
	return m.defaults.Resolve(pair, field, side)
}

func TestDefaultStrategy(t *testing.T) {
	t.Run("Applies", func(t *testing.T) {
		both := SideInput | SideOutput
		assert.True(t, StrategyDefault.Applies(SideInput, 0))
		assert.True(t, StrategyAlways.Applies(SideOutput, 0))
		assert.False(t, StrategyNever.Applies(SideInput, both))
		assert.True(t, StrategyCustom.Applies(SideOutput, SideOutput))
		assert.False(t, StrategyCustom.Applies(SideInput, SideOutput))
		assert.True(t, StrategyCustom.Applies(SideInput, both))
	})

	t.Run("ParseAndString", func(t *testing.T) {
		for _, s := range []DefaultStrategy{StrategyDefault, StrategyAlways, StrategyNever, StrategyCustom} {
			parsed, err := ParseDefaultStrategy(s.String())
			require.NoError(t, err)
			assert.Equal(t, s, parsed)
		}
		parsed, err := ParseDefaultStrategy("ALWAYS")
		require.NoError(t, err)
		assert.Equal(t, StrategyAlways, parsed)

		_, err = ParseDefaultStrategy("sometimes")
		assert.ErrorIs(t, err, ErrInvalidMappingSpec)
		assert.Equal(t, "DefaultStrategy(9)", DefaultStrategy(9).String())
	})

	t.Run("ParseSide", func(t *testing.T) {
		side, err := ParseDefaultSide("Output")
		require.NoError(t, err)
		assert.Equal(t, SideOutput, side)
		_, err = ParseDefaultSide("middle")
		assert.ErrorIs(t, err, ErrInvalidMappingSpec)
	})
}

func TestDefaultResolver(t *testing.T) {
	t.Run("Literal", func(t *testing.T) {
		m, _ := defaultsMapper()
		fn := resolveField(t, m, "Title", SideOutput)
		require.NotNil(t, fn)
		assert.Equal(t, "untitled", fn())
	})

	t.Run("PointerLiteralIsFreshPerCall", func(t *testing.T) {
		m, _ := defaultsMapper()
		fn := resolveField(t, m, "Count", SideOutput)
		require.NotNil(t, fn)

		a, b := fn().(*int), fn().(*int)
		require.NotNil(t, a)
		assert.Equal(t, 3, *a)
		assert.NotSame(t, a, b)
	})

	t.Run("BadLiteralWarns", func(t *testing.T) {
		m, hook := defaultsMapper()
		assert.Nil(t, resolveField(t, m, "Bad", SideOutput))
		require.NotNil(t, hook.LastEntry())
		assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
		assert.Equal(t, "Bad", hook.LastEntry().Data["field"])
	})

	t.Run("NamedSupplier", func(t *testing.T) {
		m, hook := defaultsMapper()
		fn := resolveField(t, m, "Stamp", SideInput)
		require.NotNil(t, fn)
		assert.Equal(t, time.Unix(0, 0).UTC(), fn())

		assert.Nil(t, resolveField(t, m, "Missing", SideInput))
		assert.Contains(t, hook.LastEntry().Message, "nope")
	})

	t.Run("Factory", func(t *testing.T) {
		m, hook := defaultsMapper()
		fn := resolveField(t, m, "Made", SideOutput)
		require.NotNil(t, fn)
		assert.Equal(t, "hello", fn())

		hook.Reset()
		assert.Nil(t, resolveField(t, m, "Broken", SideOutput))
		require.NotNil(t, hook.LastEntry())
		assert.ErrorIs(t, hook.LastEntry().Data[logrus.ErrorKey].(error), ErrConverterConstruction)

		assert.Nil(t, resolveField(t, m, "Wrong", SideOutput))
	})

	t.Run("TypeSupplier", func(t *testing.T) {
		m, _ := defaultsMapper()
		fn := resolveField(t, m, "Plain", SideOutput)
		require.NotNil(t, fn)
		assert.Equal(t, 2.5, fn())

		assert.Nil(t, resolveField(t, m, "Nothing", SideOutput))
	})

	t.Run("StrategyNever", func(t *testing.T) {
		m, _ := defaultsMapper(WithStrategy(StrategyNever))
		for _, name := range []string{"Title", "Stamp", "Made", "Plain"} {
			assert.Nil(t, resolveField(t, m, name, SideInput), name)
			assert.Nil(t, resolveField(t, m, name, SideOutput), name)
		}
	})

	t.Run("StrategyCustom", func(t *testing.T) {
		m, _ := defaultsMapper(WithStrategy(StrategyCustom, SideOutput))
		assert.Nil(t, resolveField(t, m, "Title", SideInput))
		assert.NotNil(t, resolveField(t, m, "Title", SideOutput))
	})
}
