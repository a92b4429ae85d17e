// Package remap provides a reflection driven engine for transforming values
// of one type into another.
//
// A Mapper holds one TypeMapping per (source type, destination type) pair.
// Registering a pair is all it takes for structs with matching field names:
// the mapping discovers a pipeline for every destination field that has a
// same-named (or aliased) source field, and runs them in order on every
// call to Map.
//
// The mapping variants are:
//   - FieldMapping: struct to struct, field by field. Custom pipelines are
//     added with the builder returned by From, FromFunc and Builder.
//   - EnumMapping: between two enum types defined with DefineEnum or
//     WithEnum, matching constants by name unless told otherwise.
//   - DirectMapping: a user function converting whole values, see
//     RegisterFunc.
//   - JSONMapping: a raw JSON document to a struct, reading fields with
//     gjson paths, see RegisterJSON.
//
// Every pipeline reads a value, applies an input default when it is empty,
// transforms it, applies an output default when the result is empty and
// writes it. Pipelines discovered automatically transform with, in order of
// preference:
//   - element wise mapping for slices and arrays
//   - key and value mapping for maps
//   - a converter declared on the destination or source field
//   - the mapping registered for the field types, looked up when the
//     pipeline runs
//   - a plain copy for assignable values
//
// Fields are configured with the `remap` struct tag (see WithTagName),
// a space separated list of subtags whose values are quoted with single
// quotes:
//
//	type PersonDTO struct {
//		FullName string    `remap:"name:'name' alias:'fullname,display'"`
//		Country  string    `remap:"default:'IT'"`
//		Joined   time.Time `remap:"supplier:'now'"`
//		Shout    string    `remap:"converter:'upper'"`
//		Password string    `remap:"-"`
//	}
//
// Supported subtags:
//   - `name`: the canonical name fields are matched by
//   - `alias`: further names, matched case-insensitively
//   - `ignore` or `-`: the field is never mapped
//   - `default`: a literal parsed into the field type; `charset` names the
//     encoding of the literal
//   - `supplier`: a default from a supplier registered with WithNamedSupplier
//   - `factory`: a default from a factory registered with WithFactory
//   - `converter`: converters registered with WithConverter, tried in order
//   - `collection`: the container type, registered with WithContainer, an
//     interface typed map field is built as
//
// When defaults apply at all is decided by the DefaultStrategy of the
// Mapper. Mapping setups may also be loaded from YAML with LoadMappingFile
// and applied with Mapper.Apply.
//
// A Mapper is meant to be configured once and then used from a single
// goroutine; it performs no locking.
package remap
