package remap

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/htmlindex"
)

///////////////////////////////////////////////////////////////////////////////
// Literal conversion
///////////////////////////////////////////////////////////////////////////////

// timeFormats are tried in order when a literal is parsed into time.Time.
var timeFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"15:04:05",
}

// literalParser turns the text of a default directive, or a scalar read
// from a JSON document, into a value of a field's declared type.
type literalParser struct {
	types map[string]reflect.Type
	enums *enumRegistry
}

// Parse converts literal into a value of type t. When charset is set and t
// is string based, literal is decoded from that character set first.
//
// Currently supports:
//   - string (optionally charset decoded)
//   - bool, every int, uint, float and complex width
//   - rune (a single character) and byte
//   - []byte (raw bytes)
//   - reflect.Type, by name
//   - registered enum types, by constant name
//   - uuid.UUID, time.Time, time.Duration
//   - encoding.TextUnmarshaler
//   - pointers to any of the above
func (p *literalParser) Parse(t reflect.Type, literal, charset string) (reflect.Value, error) {
	if charset != "" && derefType(t).Kind() == reflect.String {
		decoded, err := decodeCharset(literal, charset)
		if err != nil {
			return reflect.Value{}, err
		}
		literal = decoded
	}
	v := reflect.New(t).Elem()
	if err := p.set(v, literal); err != nil {
		return reflect.Value{}, err
	}
	return v, nil
}

func (p *literalParser) set(field reflect.Value, value string) error {
	t := field.Type()

	if t.Kind() == reflect.Ptr {
		elem := reflect.New(t.Elem())
		if err := p.set(elem.Elem(), value); err != nil {
			return err
		}
		field.Set(elem)
		return nil
	}

	if t == ReflectType {
		resolved, ok := p.types[value]
		if !ok {
			return fmt.Errorf("unknown type name %q", value)
		}
		field.Set(reflect.ValueOf(&resolved).Elem())
		return nil
	}

	if p.enums != nil {
		if enum, ok := p.enums.Lookup(t); ok {
			constant, ok := enum.ByName(value)
			if !ok {
				return fmt.Errorf("%q is not a constant of %s", value, typeName(t))
			}
			field.Set(constant)
			return nil
		}
	}

	if t == DurationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("error converting value to time.Duration: %w", err)
		}
		field.Set(reflect.ValueOf(d))
		return nil
	}

	if value == "" {
		return handleEmptyValue(field)
	}

	// time.Time unmarshals RFC 3339 only, the format list is wider
	if t == TimeType {
		return setStructValue(field, value)
	}

	// Check for TextUnmarshaler interface
	if field.CanAddr() {
		if unmarshaler, ok := field.Addr().Interface().(encoding.TextUnmarshaler); ok {
			return unmarshaler.UnmarshalText([]byte(value))
		}
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
		return nil
	case reflect.Int32:
		return setRuneValue(field, value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int64:
		return setIntValue(field, value)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return setUintValue(field, value)
	case reflect.Float32, reflect.Float64:
		return setFloatValue(field, value)
	case reflect.Complex64, reflect.Complex128:
		return setComplexValue(field, value)
	case reflect.Bool:
		return setBoolValue(field, value)
	case reflect.Slice:
		return setSliceValue(field, value)
	case reflect.Array:
		return setArrayValue(field, value)
	case reflect.Struct:
		return setStructValue(field, value)
	case reflect.Interface:
		return setInterfaceValue(field, value)
	default:
		return fmt.Errorf("unsupported field type: %s", typeName(t))
	}
}

func decodeCharset(value, charset string) (string, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", fmt.Errorf("unknown charset %q: %w", charset, err)
	}
	decoded, err := enc.NewDecoder().String(value)
	if err != nil {
		return "", fmt.Errorf("error decoding value as %s: %w", charset, err)
	}
	return decoded, nil
}

// handleEmptyValue handles empty literals for different field types
func handleEmptyValue(field reflect.Value) error {
	switch field.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Interface:
		field.SetZero()
		return nil
	default:
		return fmt.Errorf("cannot set empty value for field type: %s", typeName(field.Type()))
	}
}

// setRuneValue accepts either a number or a single character
func setRuneValue(field reflect.Value, value string) error {
	if err := setIntValue(field, value); err == nil {
		return nil
	}
	if utf8.RuneCountInString(value) != 1 {
		return fmt.Errorf("error converting value to rune: %q is not a single character", value)
	}
	r, _ := utf8.DecodeRuneInString(value)
	field.SetInt(int64(r))
	return nil
}

// setIntValue sets integer field values with overflow checking
func setIntValue(field reflect.Value, value string) error {
	intValue, err := strconv.ParseInt(value, 0, 64)
	if err != nil {
		return fmt.Errorf("error converting value to int: %w", err)
	}

	if field.OverflowInt(intValue) {
		return fmt.Errorf("value %d overflows %s", intValue, typeName(field.Type()))
	}

	field.SetInt(intValue)
	return nil
}

// setUintValue sets unsigned integer field values with overflow checking
func setUintValue(field reflect.Value, value string) error {
	uintValue, err := strconv.ParseUint(value, 0, 64)
	if err != nil {
		return fmt.Errorf("error converting value to uint: %w", err)
	}

	if field.OverflowUint(uintValue) {
		return fmt.Errorf("value %d overflows %s", uintValue, typeName(field.Type()))
	}

	field.SetUint(uintValue)
	return nil
}

// setFloatValue sets float field values with overflow checking
func setFloatValue(field reflect.Value, value string) error {
	floatValue, err := strconv.ParseFloat(value, field.Type().Bits())
	if err != nil {
		return fmt.Errorf("error converting value to float: %w", err)
	}

	if field.OverflowFloat(floatValue) {
		return fmt.Errorf("value %f overflows %s", floatValue, typeName(field.Type()))
	}

	field.SetFloat(floatValue)
	return nil
}

// setComplexValue sets complex field values
func setComplexValue(field reflect.Value, value string) error {
	complexValue, err := strconv.ParseComplex(value, field.Type().Bits())
	if err != nil {
		return fmt.Errorf("error converting value to complex: %w", err)
	}

	if field.OverflowComplex(complexValue) {
		return fmt.Errorf("value %v overflows %s", complexValue, typeName(field.Type()))
	}

	field.SetComplex(complexValue)
	return nil
}

// setBoolValue sets boolean field values
//
// Many common boolean representations are supported:
//   - "true", "1", "yes", "on"
//   - "false", "0", "no", "off"
//   - Standard boolean parsing using strconv.ParseBool
func setBoolValue(field reflect.Value, value string) error {
	switch value {
	case "true", "1", "yes", "on", "True", "TRUE", "YES", "ON":
		field.SetBool(true)
		return nil
	case "false", "0", "no", "off", "False", "FALSE", "NO", "OFF":
		field.SetBool(false)
		return nil
	default:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("error converting value to bool: %w", err)
		}
		field.SetBool(boolValue)
		return nil
	}
}

// setSliceValue sets slice field values
func setSliceValue(field reflect.Value, value string) error {
	if field.Type().Elem().Kind() == reflect.Uint8 {
		field.SetBytes([]byte(value))
		return nil
	}
	return fmt.Errorf("unsupported slice type: %s", typeName(field.Type()))
}

// setArrayValue sets array field values
func setArrayValue(field reflect.Value, value string) error {
	if field.Type() == UUIDType {
		uuidValue, err := uuid.Parse(value)
		if err != nil {
			return fmt.Errorf("error converting value to UUID: %w", err)
		}
		field.Set(reflect.ValueOf(uuidValue))
		return nil
	}

	return fmt.Errorf("unsupported array type: %s", typeName(field.Type()))
}

// setStructValue sets struct field values for special types
func setStructValue(field reflect.Value, value string) error {
	if field.Type() != TimeType {
		return fmt.Errorf("unsupported struct type: %s", typeName(field.Type()))
	}

	var (
		timeValue time.Time
		err       error
	)
	for _, format := range timeFormats {
		if timeValue, err = time.Parse(format, value); err == nil {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("error converting value to time.Time: %w", err)
	}
	field.Set(reflect.ValueOf(timeValue))
	return nil
}

// setInterfaceValue sets interface{} field values
func setInterfaceValue(field reflect.Value, value string) error {
	if field.NumMethod() != 0 {
		return fmt.Errorf("cannot set value for interface with methods: %s", typeName(field.Type()))
	}

	field.Set(reflect.ValueOf(value))
	return nil
}
