package remap

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Base Error types for tag parsing errors
var (
	ErrUnterminatedSubTag = errors.New("unterminated subtag value")
	ErrUnknownSubTag      = errors.New("unknown subtag")
	ErrDuplicateSubTag    = errors.New("duplicate subtag")
	ErrSubTagNotFound     = errors.New("subtag not found")
	ErrConflictingDefault = errors.New("only one of default, supplier and factory may be set")
)

// This file contains the parser for the directive tag read from struct
// fields. The tag carries everything the field metadata needs: naming,
// ignoring, default values, converters and collection hints.
//
// Tag grammar:
//     <field> <type> `remap:"<subtag_list>"`  |  `remap:"-"`
//
// subtag_list:
//     [<subtag>]^* // Space Separated
// subtag:
//     <key>:'<value>' | <key>:<simple_value> | <key>
//
// key:
//     name | alias | ignore | default | charset | supplier | factory | converter | collection
// value:
//     any text; a nested <key>:'<value>' keeps its quotes, \' escapes a quote
// simple_value:
//     text up to the next space
//
// Examples:
//     Surname string `remap:"name:'lastName' alias:'surname,familyName'"`
//     Title   string `remap:"default:'untitled'"`
//     Label   string `remap:"default:'label' charset:'ISO-8859-1'"`
//     Created time.Time `remap:"supplier:'now'"`
//     Secret  string `remap:"-"`

// SubTag is a single key/value pair of a directive tag, in declaration order.
type SubTag struct {
	Key   string
	Value string
}

// Directives is the structured form of a directive tag.
type Directives struct {
	Name       string
	Aliases    []string
	Ignore     bool
	Default    DefaultDirective
	Converters []string
	Collection string
}

// DefaultDirective describes how a default value is derived for a field.
// At most one of Literal (HasLiteral), Supplier and Factory is set.
type DefaultDirective struct {
	Literal    string
	HasLiteral bool
	Charset    string
	Supplier   string
	Factory    string
}

// IsZero reports whether no default directive was declared.
func (d DefaultDirective) IsZero() bool {
	return !d.HasLiteral && d.Supplier == "" && d.Factory == ""
}

// LookupDirectives reads the directive tag of field, returning zero
// Directives when the field carries none.
func LookupDirectives(field reflect.StructField, tagName string) (Directives, error) {
	tag, ok := field.Tag.Lookup(tagName)
	if !ok {
		return Directives{}, nil
	}
	d, err := ParseDirectives(tag)
	if err != nil {
		return Directives{}, fmt.Errorf("error parsing %s tag for field %s: %w", tagName, field.Name, err)
	}
	return d, nil
}

// ParseDirectives decodes a directive tag value.
func ParseDirectives(tag string) (Directives, error) {
	var d Directives

	tag = strings.TrimSpace(tag)
	if tag == IgnoreTagValue {
		d.Ignore = true
		return d, nil
	}

	subtags, err := SubTags(tag)
	if err != nil {
		return Directives{}, err
	}

	seen := make(map[string]bool, len(subtags))
	for _, st := range subtags {
		if seen[st.Key] {
			return Directives{}, fmt.Errorf("%w: %s", ErrDuplicateSubTag, st.Key)
		}
		seen[st.Key] = true

		switch st.Key {
		case NameSubTag:
			d.Name = strings.TrimSpace(st.Value)
		case AliasSubTag:
			d.Aliases = splitList(st.Value)
		case IgnoreSubTag:
			if st.Value == "" {
				d.Ignore = true
				continue
			}
			ignore, err := strconv.ParseBool(st.Value)
			if err != nil {
				return Directives{}, fmt.Errorf("invalid %s subtag %q: %w", IgnoreSubTag, st.Value, err)
			}
			d.Ignore = ignore
		case DefaultSubTag:
			d.Default.Literal = st.Value
			d.Default.HasLiteral = true
		case CharsetSubTag:
			d.Default.Charset = strings.TrimSpace(st.Value)
		case SupplierSubTag:
			d.Default.Supplier = strings.TrimSpace(st.Value)
		case FactorySubTag:
			d.Default.Factory = strings.TrimSpace(st.Value)
		case ConverterSubTag:
			d.Converters = splitList(st.Value)
		case CollectionSubTag:
			d.Collection = strings.TrimSpace(st.Value)
		default:
			return Directives{}, fmt.Errorf("%w: %s", ErrUnknownSubTag, st.Key)
		}
	}

	set := 0
	for _, b := range []bool{d.Default.HasLiteral, d.Default.Supplier != "", d.Default.Factory != ""} {
		if b {
			set++
		}
	}
	if set > 1 {
		return Directives{}, ErrConflictingDefault
	}

	return d, nil
}

// SubTags splits tag into its subtags using the default scope delimiter.
func SubTags(tag string) ([]SubTag, error) {
	return SubTagsByDelimiter(tag, SubTagScopeDelimiter)
}

// SubTagsByDelimiter splits tag into its subtags. Values wrapped in delim
// may contain spaces and nested key:'value' pairs; a subtag without a
// value is returned with an empty Value.
func SubTagsByDelimiter(tag string, delim byte) ([]SubTag, error) {
	var result []SubTag

	i := 0
	for i < len(tag) {
		i = skipSpace(tag, i)
		if i >= len(tag) {
			break
		}

		// key runs until ':' or whitespace
		start := i
		for i < len(tag) && tag[i] != ':' && !isSpace(tag[i]) {
			i++
		}
		key := tag[start:i]
		if key == "" {
			// stray ':'
			i++
			continue
		}

		if i >= len(tag) || tag[i] != ':' {
			result = append(result, SubTag{Key: key})
			continue
		}
		i++ // skip ':'

		if i < len(tag) && tag[i] == delim {
			value, next, err := scanDelimited(tag, i+1, delim)
			if err != nil {
				return nil, fmt.Errorf("%w for %q", err, key)
			}
			result = append(result, SubTag{Key: key, Value: value})
			i = next
			continue
		}

		start = i
		for i < len(tag) && !isSpace(tag[i]) {
			i++
		}
		result = append(result, SubTag{Key: key, Value: tag[start:i]})
	}

	return result, nil
}

// SubTagValue returns the value of key in tag.
//
// Example: tag = `name:'surname' alias:'a,b' default:'x:'y''`
//
// SubTagValue(tag, "alias") returns "a,b"
//
// SubTagValue(tag, "default") returns "x:'y'"
func SubTagValue(tag, key string) (string, error) {
	subtags, err := SubTags(tag)
	if err != nil {
		return "", err
	}
	for _, st := range subtags {
		if st.Key == key {
			return st.Value, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrSubTagNotFound, key)
}

// scanDelimited reads a delimited value starting just after its opening
// delimiter and returns the unescaped value and the index after the
// closing delimiter.
func scanDelimited(tag string, start int, delim byte) (string, int, error) {
	var builder strings.Builder
	nesting := 0

	for i := start; i < len(tag); i++ {
		c := tag[i]

		if c == '\\' && i+1 < len(tag) && tag[i+1] == delim {
			builder.WriteByte(delim)
			i++
			continue
		}

		switch {
		case c == ':' && i+1 < len(tag) && tag[i+1] == delim:
			// nested subtag opens, keep it verbatim
			nesting++
			builder.WriteByte(c)
			builder.WriteByte(delim)
			i++
		case c == delim && nesting > 0:
			nesting--
			builder.WriteByte(c)
		case c == delim:
			return builder.String(), i + 1, nil
		default:
			builder.WriteByte(c)
		}
	}

	return "", len(tag), ErrUnterminatedSubTag
}

func splitList(value string) []string {
	parts := strings.Split(value, SubTagListDelimiter)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func skipSpace(s string, i int) int {
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}
