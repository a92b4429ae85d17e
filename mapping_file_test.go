package remap

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMappingFile = `
strategy: custom
sides: [output]
mappings:
  - source: from
    dest: to
    ignore_outputs: [surname]
    fields:
      - from: Surname
        to: Name
        converter: upper
  - source: JSON
    dest: to
`

type untitled struct {
	Title string
}

type titledCard struct {
	Title string `remap:"default:'untitled'"`
}

type relabeled struct {
	Label string `alt:"name:'title'"`
}

type captioned struct {
	Title string `remap:"name:'caption'" alt:"name:'title'"`
}

func fileMapper(opts ...Option) (*Mapper, *logHook) {
	base := []Option{
		WithType("from", reflect.TypeFor[fromTest]()),
		WithType("to", reflect.TypeFor[toTest]()),
		WithType("untitled", reflect.TypeFor[untitled]()),
		WithType("titled", reflect.TypeFor[titledCard]()),
		WithType("relabeled", reflect.TypeFor[relabeled]()),
		WithConverter("upper", upperConverter{}),
	}
	return newTestMapper(append(base, opts...)...)
}

func TestParseMappingFile(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		mf, err := ParseMappingFile([]byte(sampleMappingFile))
		require.NoError(t, err)
		assert.Equal(t, "custom", mf.Strategy)
		assert.Equal(t, []string{"output"}, mf.Sides)
		require.Len(t, mf.Mappings, 2)
		assert.Equal(t, []string{"surname"}, mf.Mappings[0].IgnoreOutputs)
		assert.Equal(t, []FieldEntry{{From: "Surname", To: "Name", Converter: "upper"}}, mf.Mappings[0].Fields)
	})

	for name, data := range map[string]string{
		"MissingDest":    "mappings:\n  - source: from\n",
		"MissingFieldTo": "mappings:\n  - source: from\n    dest: to\n    fields:\n      - from: Name\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseMappingFile([]byte(data))
			assert.ErrorIs(t, err, ErrInvalidMappingSpec)
		})
	}

	t.Run("BadYAML", func(t *testing.T) {
		_, err := ParseMappingFile([]byte("mappings: [unclosed"))
		assert.ErrorContains(t, err, "failed to parse mapping YAML")
	})

	t.Run("MarshalRoundTrip", func(t *testing.T) {
		mf, err := ParseMappingFile([]byte(sampleMappingFile))
		require.NoError(t, err)
		data, err := mf.Marshal()
		require.NoError(t, err)
		again, err := ParseMappingFile(data)
		require.NoError(t, err)
		assert.Equal(t, mf, again)
	})
}

func TestLoadMappingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleMappingFile), 0o600))

	mf, err := LoadMappingFile(path)
	require.NoError(t, err)
	assert.Len(t, mf.Mappings, 2)

	_, err = LoadMappingFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read mapping file")
}

func TestApplyMappingFile(t *testing.T) {
	t.Run("MappingsAndFields", func(t *testing.T) {
		m, _ := fileMapper()
		mf, err := ParseMappingFile([]byte(sampleMappingFile))
		require.NoError(t, err)
		require.NoError(t, m.Apply(mf))

		assert.Equal(t, StrategyCustom, m.Config().Strategy)
		assert.Equal(t, SideOutput, m.Config().Sides)
		assert.True(t, m.Has(JSONType, reflect.TypeFor[toTest]()))

		out, err := Map[toTest](m, fromTest{Name: "Pippo", Surname: "Paperino"})
		require.NoError(t, err)
		assert.Equal(t, toTest{Name: "PAPERINO"}, out)
	})

	t.Run("StrategyReachesExistingMappings", func(t *testing.T) {
		m, _ := fileMapper()
		_, err := m.Register(reflect.TypeFor[untitled](), reflect.TypeFor[titledCard]())
		require.NoError(t, err)

		out, err := Map[titledCard](m, untitled{})
		require.NoError(t, err)
		assert.Equal(t, "untitled", out.Title)

		require.NoError(t, m.Apply(&MappingFile{Strategy: "never"}))
		out, err = Map[titledCard](m, untitled{})
		require.NoError(t, err)
		assert.Empty(t, out.Title)
	})

	t.Run("BuilderDefaultsSurviveStrategy", func(t *testing.T) {
		m, _ := fileMapper()
		fm, err := Register[untitled, titledCard](m)
		require.NoError(t, err)
		_, err = fm.From("Title").
			DefaultOutput(func() any { return "fixed" }).
			To("Title").
			Create()
		require.NoError(t, err)

		out, err := Map[titledCard](m, untitled{})
		require.NoError(t, err)
		assert.Equal(t, "fixed", out.Title)

		require.NoError(t, m.Apply(&MappingFile{Strategy: "never"}))
		out, err = Map[titledCard](m, untitled{})
		require.NoError(t, err)
		assert.Equal(t, "fixed", out.Title)
	})

	t.Run("DirectiveDefaultsFollowStrategy", func(t *testing.T) {
		m, _ := fileMapper()
		fm, err := Register[untitled, titledCard](m)
		require.NoError(t, err)
		_, err = fm.Field("Title", "Title")
		require.NoError(t, err)

		out, err := Map[titledCard](m, untitled{})
		require.NoError(t, err)
		assert.Equal(t, "untitled", out.Title)

		require.NoError(t, m.Apply(&MappingFile{Strategy: "never"}))
		out, err = Map[titledCard](m, untitled{})
		require.NoError(t, err)
		assert.Empty(t, out.Title)
	})

	t.Run("TagNameReachesCustomPipelines", func(t *testing.T) {
		m, _ := fileMapper()
		fm, err := Register[untitled, captioned](m)
		require.NoError(t, err)
		p, err := fm.Field("Title", "caption")
		require.NoError(t, err)

		require.NoError(t, m.Apply(&MappingFile{TagName: "alt"}))
		list, err := fm.ExecutionList()
		require.NoError(t, err)
		require.Len(t, list, 1, "the custom pipeline replaces the rediscovered one")
		assert.Same(t, p, list[0])
		assert.Equal(t, "title", p.Dest())

		out, err := Map[captioned](m, untitled{Title: "hello"})
		require.NoError(t, err)
		assert.Equal(t, "hello", out.Title)
	})

	t.Run("TagName", func(t *testing.T) {
		m, _ := fileMapper()
		mf := &MappingFile{
			TagName:  "alt",
			Mappings: []MappingEntry{{Source: "untitled", Dest: "relabeled"}},
		}
		require.NoError(t, m.Apply(mf))
		assert.Equal(t, "alt", m.Config().TagName)

		out, err := Map[relabeled](m, untitled{Title: "hello"})
		require.NoError(t, err)
		assert.Equal(t, "hello", out.Label)
	})

	t.Run("Errors", func(t *testing.T) {
		for name, tc := range map[string]struct {
			mf   *MappingFile
			want error
		}{
			"UnknownStrategy": {&MappingFile{Strategy: "sometimes"}, ErrInvalidMappingSpec},
			"UnknownSide":     {&MappingFile{Strategy: "custom", Sides: []string{"middle"}}, ErrInvalidMappingSpec},
			"UnknownType": {&MappingFile{Mappings: []MappingEntry{
				{Source: "from", Dest: "nowhere"},
			}}, ErrInvalidMappingSpec},
			"SettingsOnJSONMapping": {&MappingFile{Mappings: []MappingEntry{
				{Source: "JSON", Dest: "to", Ignore: []string{"name"}},
			}}, ErrInvalidMappingSpec},
			"UnknownField": {&MappingFile{Mappings: []MappingEntry{
				{Source: "from", Dest: "to", Fields: []FieldEntry{{From: "Missing", To: "Name"}}},
			}}, ErrInvalidMappingSpec},
		} {
			t.Run(name, func(t *testing.T) {
				m, _ := fileMapper()
				assert.ErrorIs(t, m.Apply(tc.mf), tc.want)
			})
		}
	})

	t.Run("ConverterConstruction", func(t *testing.T) {
		m, _ := fileMapper(WithConverter("broken", func(int) upperConverter { return upperConverter{} }))
		err := m.Apply(&MappingFile{Mappings: []MappingEntry{
			{Source: "from", Dest: "to", Fields: []FieldEntry{{From: "Name", To: "Surname", Converter: "broken"}}},
		}})
		var cce *ConverterConstructionError
		require.ErrorAs(t, err, &cce)
		assert.ErrorContains(t, err, "mapping 0 (from -> to)")
	})
}
