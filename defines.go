package remap

import (
	"reflect"
	"time"

	"github.com/google/uuid"
)

// constants for the directive tag and its subtags
const (
	DefaultTagName = "remap"

	NameSubTag       = "name"
	AliasSubTag      = "alias"
	IgnoreSubTag     = "ignore"
	DefaultSubTag    = "default"
	CharsetSubTag    = "charset"
	SupplierSubTag   = "supplier"
	FactorySubTag    = "factory"
	ConverterSubTag  = "converter"
	CollectionSubTag = "collection"

	IgnoreTagValue = "-"

	SubTagScopeDelimiter = byte('\'')
	SubTagKVDelimiter    = ":"
	SubTagListDelimiter  = ","
)

// JSONTagName is read by JSONMapping to find the document path of a field.
const JSONTagName = "json"

// reflect.TypeOf constants for type checks
var (
	TimeType      = reflect.TypeOf(time.Time{})
	DurationType  = reflect.TypeOf(time.Duration(0))
	UUIDType      = reflect.TypeOf(uuid.UUID{})
	ByteSliceType = reflect.TypeOf([]byte(nil))
	StringType    = reflect.TypeOf("")
	ReflectType   = reflect.TypeOf((*reflect.Type)(nil)).Elem()
	ErrorType     = reflect.TypeOf((*error)(nil)).Elem()
	MapperType    = reflect.TypeOf((*Mapper)(nil))
)
