package remap

import (
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type color int

const (
	colorRed color = iota
	colorGreen
	colorBlue
	colorPurple
)

func (c color) String() string {
	return [...]string{"red", "green", "blue", "purple"}[c]
}

type shade string

const (
	shadeRed     shade = "red"
	shadeGreen   shade = "green"
	shadeBlue    shade = "blue"
	shadeUnknown shade = "unknown"
)

type paint struct {
	Color  color
	Colors []color
	Finish *shade
}

type tint struct {
	Color  shade
	Colors []shade
	Finish shade `remap:"default:'green'"`
}

func enumMapper(t *testing.T) (*Mapper, *EnumMapping) {
	t.Helper()
	m, _ := newTestMapper(WithEnum(colorRed, colorGreen, colorBlue, colorPurple))
	DefineEnum(m, shadeRed, shadeGreen, shadeBlue, shadeUnknown)
	em, err := RegisterEnum[color, shade](m)
	require.NoError(t, err)
	return m, em
}

func TestEnumMapping(t *testing.T) {
	t.Run("SameName", func(t *testing.T) {
		m, _ := enumMapper(t)
		out, err := Map[shade](m, colorGreen)
		require.NoError(t, err)
		assert.Equal(t, shadeGreen, out)

		out, err = Map[shade](m, colorRed)
		require.NoError(t, err)
		assert.Equal(t, shadeRed, out, "the zero constant still maps")
	})

	t.Run("UnmappedWithoutDefault", func(t *testing.T) {
		m, _ := enumMapper(t)
		out, err := m.Map(colorPurple, reflect.TypeFor[shade]())
		require.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("UnmappedWithDefault", func(t *testing.T) {
		m, em := enumMapper(t)
		em.SetDefault(shadeUnknown)
		out, err := Map[shade](m, colorPurple)
		require.NoError(t, err)
		assert.Equal(t, shadeUnknown, out)
	})

	t.Run("IgnoreBypassesTableAndDefault", func(t *testing.T) {
		m, em := enumMapper(t)
		em.SetDefault(shadeUnknown).Ignore(colorBlue)

		out, err := m.Map(colorBlue, reflect.TypeFor[shade]())
		require.NoError(t, err)
		assert.Nil(t, out)

		em.IgnoreWithFallback(shadeRed, colorGreen)
		got, err := Map[shade](m, colorGreen)
		require.NoError(t, err)
		assert.Equal(t, shadeRed, got)
	})

	t.Run("ExplicitEntries", func(t *testing.T) {
		m, em := enumMapper(t)
		em.Put(colorPurple, shadeBlue).Put(colorRed, shadeGreen)

		out, err := Map[shade](m, colorPurple)
		require.NoError(t, err)
		assert.Equal(t, shadeBlue, out)

		out, err = Map[shade](m, colorRed)
		require.NoError(t, err)
		assert.Equal(t, shadeGreen, out, "explicit entries beat same-name matches")
	})

	t.Run("MapIntoUsesCurrentValueAsDefault", func(t *testing.T) {
		m, em := enumMapper(t)
		em.SetDefault(shadeUnknown)

		dest := shadeRed
		_, err := m.MapInto(colorPurple, &dest)
		require.NoError(t, err)
		assert.Equal(t, shadeRed, dest)

		_, err = m.MapInto(colorBlue, &dest)
		require.NoError(t, err)
		assert.Equal(t, shadeBlue, dest)
	})

	t.Run("InvalidValuesAreSkipped", func(t *testing.T) {
		m, hook := newTestMapper(WithEnum(colorRed, colorGreen, colorBlue, colorPurple))
		DefineEnum(m, shadeRed, shadeGreen, shadeBlue, shadeUnknown)
		em, err := RegisterEnum[color, shade](m)
		require.NoError(t, err)

		em.SetDefault(colorRed).
			Put(shadeRed, shadeBlue).
			Ignore("green").
			IgnoreWithFallback(42, colorBlue)
		warnings := 0
		for _, e := range hook.AllEntries() {
			if e.Level == logrus.WarnLevel {
				warnings++
			}
		}
		assert.Equal(t, 4, warnings)

		require.NoError(t, em.Activate())
		require.NoError(t, m.Build())
		for src, want := range map[color]any{
			colorRed:    shadeRed,
			colorGreen:  shadeGreen,
			colorBlue:   shadeBlue,
			colorPurple: nil,
		} {
			out, err := m.Map(src, reflect.TypeFor[shade]())
			require.NoError(t, err)
			assert.Equal(t, want, out, src.String())
		}
	})

	t.Run("LateDefinitionsReactivate", func(t *testing.T) {
		m, _ := newTestMapper()
		DefineEnum(m, colorRed, colorGreen)
		DefineEnum(m, shadeRed)
		_, err := RegisterEnum[color, shade](m)
		require.NoError(t, err)

		out, err := m.Map(colorGreen, reflect.TypeFor[shade]())
		require.NoError(t, err)
		assert.Nil(t, out)

		DefineEnum(m, shadeGreen)
		out, err = m.Map(colorGreen, reflect.TypeFor[shade]())
		require.NoError(t, err)
		assert.Equal(t, shadeGreen, out)
	})

	t.Run("UndefinedEnumsAreNotEnumMappings", func(t *testing.T) {
		m, _ := newTestMapper()
		_, err := RegisterEnum[color, shade](m)
		assert.ErrorIs(t, err, ErrInvalidMappingSpec)
	})
}

func TestEnumFields(t *testing.T) {
	m, em := enumMapper(t)
	em.SetDefault(shadeUnknown)
	_, err := Register[paint, tint](m)
	require.NoError(t, err)

	out, err := Map[tint](m, paint{Color: colorBlue, Colors: []color{colorRed, colorPurple}})
	require.NoError(t, err)
	assert.Equal(t, shadeBlue, out.Color)
	assert.Equal(t, []shade{shadeRed, shadeUnknown}, out.Colors)
	assert.Equal(t, shadeGreen, out.Finish, "enum literal defaults resolve by name")
}

func TestEnumName(t *testing.T) {
	assert.Equal(t, "purple", enumName(reflect.ValueOf(colorPurple)))
	assert.Equal(t, "unknown", enumName(reflect.ValueOf(shadeUnknown)))
}
