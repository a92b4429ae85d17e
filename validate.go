package remap

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrValidation is wrapped by the MappingFailureError of a destination that
// fails post-map validation.
var ErrValidation = errors.New("destination failed validation")

// Validatable is implemented by destination types that check themselves
// once populated. With WithValidation, Validate runs after the `validate`
// struct tags pass.
//
// # It expects the implementation to be a pointer
type Validatable interface {
	Validate() error
}

// validate checks a struct destination. A failing destination is
// invalidated before the error is returned.
func (m *Mapper) validate(pair TypePair, dst reflect.Value) error {
	target := indirectValue(dst)
	if !target.IsValid() || target.Kind() != reflect.Struct || !target.CanAddr() {
		return nil
	}
	if m.validator == nil {
		m.validator = newStructValidator()
	}

	ptr := target.Addr().Interface()
	err := describeValidationErrors(m.validator.Struct(ptr))
	if err == nil {
		if v, ok := ptr.(Validatable); ok {
			err = v.Validate()
		}
	}
	if err == nil {
		return nil
	}

	zeroStructFields(target)
	return &MappingFailureError{Pair: pair, Err: fmt.Errorf("%w: %w", ErrValidation, err)}
}

// Invalidate clears a mapped destination by setting each field to its
// zero value.
//
// # It expects the passed dest to be a pointer
func Invalidate(dest any) error {
	value := reflect.ValueOf(dest)
	if value.Kind() != reflect.Ptr || value.IsNil() {
		return fmt.Errorf("%w: cannot invalidate a non pointer or nil value", ErrInvalidMappingSpec)
	}
	zeroStructFields(value.Elem())
	return nil
}

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their json name where they have one
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get(JSONTagName), ",", 2)[0]
		if name == IgnoreTagValue {
			return ""
		}
		return name
	})
	return v
}

// describeValidationErrors flattens validator.ValidationErrors into one
// readable error.
func describeValidationErrors(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("field '%s' failed on '%s'", fe.Namespace(), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// zeroStructFields recursively sets all fields of a struct to
// their default values.
func zeroStructFields(value reflect.Value) {
	if value.Kind() != reflect.Struct {
		return
	}
	for i := 0; i < value.NumField(); i++ {
		field := value.Field(i)
		if !field.CanSet() {
			continue
		}
		if isStructural(field.Type()) {
			zeroStructFields(field)
		} else {
			field.SetZero()
		}
	}
}
