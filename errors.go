package remap

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Base error types. Every structured error below matches one of these
// with errors.Is.
var (
	ErrInvalidMappingSpec    = errors.New("invalid mapping specification")
	ErrMappingNotFound       = errors.New("mapping not found")
	ErrMappingFailure        = errors.New("mapping failed")
	ErrConverterConstruction = errors.New("converter cannot be constructed")
	ErrNoDefaultConstructor  = errors.New("type has no usable constructor")
)

// MappingNotFoundError is returned when no TypeMapping is registered for
// the requested pair. It lists every registered mapping, partitioned by
// whether it shares the source or the destination of the failed pair.
type MappingNotFoundError struct {
	Pair       TypePair
	SameSource []TypePair
	SameDest   []TypePair
	Others     []TypePair
}

func newMappingNotFoundError(pair TypePair, registered []TypePair) *MappingNotFoundError {
	err := &MappingNotFoundError{Pair: pair}
	for _, p := range registered {
		switch {
		case p.Source == pair.Source:
			err.SameSource = append(err.SameSource, p)
		case p.Dest == pair.Dest:
			err.SameDest = append(err.SameDest, p)
		default:
			err.Others = append(err.Others, p)
		}
	}
	return err
}

// Error implements the error interface
func (e *MappingNotFoundError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: no mapping from %s to %s",
		ErrMappingNotFound, typeName(e.Pair.Source), typeName(e.Pair.Dest))
	writePartition(&sb, "mappings with source "+typeName(e.Pair.Source), e.SameSource)
	writePartition(&sb, "mappings with destination "+typeName(e.Pair.Dest), e.SameDest)
	writePartition(&sb, "other mappings", e.Others)
	return sb.String()
}

func (e *MappingNotFoundError) Is(target error) bool {
	return target == ErrMappingNotFound
}

func writePartition(sb *strings.Builder, title string, pairs []TypePair) {
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString(":")
	if len(pairs) == 0 {
		sb.WriteString("\n\tnone")
		return
	}
	for _, p := range pairs {
		sb.WriteString("\n\t")
		sb.WriteString(p.String())
	}
}

// MappingFailureError wraps an error raised by user supplied code (a
// transform, converter, direct mapping function or validation) while
// mapping one pair.
type MappingFailureError struct {
	Pair  TypePair
	Field string // empty when the failure is not tied to a single field
	Err   error
}

// Error implements the error interface
func (e *MappingFailureError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s: %v", ErrMappingFailure, e.Pair, e.Err)
	}
	return fmt.Sprintf("%s: %s: field %s: %v", ErrMappingFailure, e.Pair, e.Field, e.Err)
}

func (e *MappingFailureError) Unwrap() error { return e.Err }

func (e *MappingFailureError) Is(target error) bool {
	return target == ErrMappingFailure
}

// ConverterConstructionError reports a converter or factory whose
// constructor has neither the func() T nor the func(*Mapper) T shape.
type ConverterConstructionError struct {
	Name   string
	Reason string
}

// Error implements the error interface
func (e *ConverterConstructionError) Error() string {
	return fmt.Sprintf("%s: %q: %s", ErrConverterConstruction, e.Name, e.Reason)
}

func (e *ConverterConstructionError) Is(target error) bool {
	return target == ErrConverterConstruction
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
