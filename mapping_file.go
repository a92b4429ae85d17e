package remap

import (
	"fmt"
	"os"
	"reflect"

	"gopkg.in/yaml.v3"
)

// MappingFile is the YAML form of a Mapper setup:
//
//	strategy: custom
//	sides: [output]
//	mappings:
//	  - source: Person
//	    dest: PersonDTO
//	    ignore: [password]
//	    fields:
//	      - from: name
//	        to: fullName
//	        converter: upper
//
// Type names resolve through the types named with WithType.
type MappingFile struct {
	Strategy string         `yaml:"strategy,omitempty"`
	Sides    []string       `yaml:"sides,omitempty"`
	TagName  string         `yaml:"tag_name,omitempty"`
	Mappings []MappingEntry `yaml:"mappings"`
}

// MappingEntry declares one type mapping.
type MappingEntry struct {
	Source        string       `yaml:"source"`
	Dest          string       `yaml:"dest"`
	Ignore        []string     `yaml:"ignore,omitempty"`
	IgnoreInputs  []string     `yaml:"ignore_inputs,omitempty"`
	IgnoreOutputs []string     `yaml:"ignore_outputs,omitempty"`
	Fields        []FieldEntry `yaml:"fields,omitempty"`
}

// FieldEntry declares one custom pipeline.
type FieldEntry struct {
	From      string `yaml:"from"`
	To        string `yaml:"to"`
	Converter string `yaml:"converter,omitempty"`
}

// builtinTypes resolve in mapping files without WithType.
var builtinTypes = map[string]reflect.Type{
	"JSON":          JSONType,
	"string":        StringType,
	"time.Time":     TimeType,
	"time.Duration": DurationType,
	"uuid.UUID":     UUIDType,
}

// LoadMappingFile loads and parses a YAML mapping file from the given path.
func LoadMappingFile(path string) (*MappingFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file %s: %w", path, err)
	}

	return ParseMappingFile(data)
}

// ParseMappingFile parses YAML data into a MappingFile.
func ParseMappingFile(data []byte) (*MappingFile, error) {
	var mf MappingFile

	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("failed to parse mapping YAML: %w", err)
	}

	for i, entry := range mf.Mappings {
		if entry.Source == "" || entry.Dest == "" {
			return nil, fmt.Errorf("%w: mapping %d needs both source and dest", ErrInvalidMappingSpec, i)
		}
		for j, f := range entry.Fields {
			if f.From == "" || f.To == "" {
				return nil, fmt.Errorf("%w: mapping %d field %d needs both from and to", ErrInvalidMappingSpec, i, j)
			}
		}
	}

	return &mf, nil
}

// Marshal serializes the MappingFile to YAML.
func (mf *MappingFile) Marshal() ([]byte, error) {
	return yaml.Marshal(mf)
}

// Apply configures m from mf: strategy and tag name first, then every
// mapping in order. Custom fields go through the pipeline builder, so a
// converter that cannot be constructed is an error.
func (m *Mapper) Apply(mf *MappingFile) error {
	if mf.Strategy != "" {
		strategy, err := ParseDefaultStrategy(mf.Strategy)
		if err != nil {
			return err
		}
		var sides DefaultSide
		for _, name := range mf.Sides {
			side, err := ParseDefaultSide(name)
			if err != nil {
				return err
			}
			sides |= side
		}
		m.config.Strategy = strategy
		m.config.Sides = sides
		m.markAllDirty()
	}

	if mf.TagName != "" && mf.TagName != m.config.TagName {
		m.config.TagName = mf.TagName
		m.metadata = newMetadataCache(mf.TagName)
		m.markAllDirty()
	}

	for i, entry := range mf.Mappings {
		if err := m.applyEntry(entry); err != nil {
			return fmt.Errorf("mapping %d (%s -> %s): %w", i, entry.Source, entry.Dest, err)
		}
	}
	return nil
}

func (m *Mapper) applyEntry(entry MappingEntry) error {
	src, err := m.resolveType(entry.Source)
	if err != nil {
		return err
	}
	dst, err := m.resolveType(entry.Dest)
	if err != nil {
		return err
	}
	tm, err := m.Register(src, dst)
	if err != nil {
		return err
	}

	customized := len(entry.Ignore)+len(entry.IgnoreInputs)+len(entry.IgnoreOutputs)+len(entry.Fields) > 0
	fm, ok := tm.(*FieldMapping)
	if !ok {
		if customized {
			return fmt.Errorf("%w: %T takes no field settings", ErrInvalidMappingSpec, tm)
		}
		return nil
	}

	if len(entry.Ignore) > 0 {
		fm.Ignore(entry.Ignore...)
	}
	if len(entry.IgnoreInputs) > 0 {
		fm.IgnoreInputs(entry.IgnoreInputs...)
	}
	if len(entry.IgnoreOutputs) > 0 {
		fm.IgnoreOutputs(entry.IgnoreOutputs...)
	}

	for _, f := range entry.Fields {
		var step TransformStep = fm.From(f.From)
		if f.Converter != "" {
			if step, err = step.TransformWith(f.Converter); err != nil {
				return fmt.Errorf("field %s: %w", f.From, err)
			}
		}
		if _, err := step.To(f.To).Create(); err != nil {
			return fmt.Errorf("field %s: %w", f.From, err)
		}
	}
	return nil
}

func (m *Mapper) resolveType(name string) (reflect.Type, error) {
	if t, ok := m.config.Types[name]; ok {
		return t, nil
	}
	if t, ok := builtinTypes[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: unknown type name %q", ErrInvalidMappingSpec, name)
}
