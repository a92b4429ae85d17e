package remap

import (
	"reflect"
)

// TypeMapping converts values of one source type into one destination type.
// Exactly one TypeMapping is registered per TypePair.
//
// Variants: *FieldMapping, *EnumMapping, *DirectMapping and *JSONMapping.
type TypeMapping interface {
	Pair() TypePair

	// Dirty reports whether the mapping changed since it was last activated.
	Dirty() bool

	// Activate runs auto-discovery and recomputes derived state. Mapper.Build
	// calls it for dirty mappings only.
	Activate() error

	// MapValue maps src into a new destination value.
	MapValue(src reflect.Value) (reflect.Value, error)

	// MapInto maps src into dst, an addressable destination value, and
	// returns the result.
	MapInto(src, dst reflect.Value) (reflect.Value, error)
}

// mappingBase carries the state every TypeMapping variant shares.
type mappingBase struct {
	mapper *Mapper
	pair   TypePair
	dirty  bool
}

func newMappingBase(m *Mapper, pair TypePair) mappingBase {
	return mappingBase{mapper: m, pair: pair, dirty: true}
}

func (b *mappingBase) Pair() TypePair { return b.pair }

func (b *mappingBase) Dirty() bool { return b.dirty }

// markDirty flags the mapping and its Mapper for the next Build.
func (b *mappingBase) markDirty() {
	b.dirty = true
	b.mapper.dirty = true
}

// ensureActive activates a dirty mapping used outside of Mapper.Build.
func ensureActive(tm TypeMapping) error {
	if !tm.Dirty() {
		return nil
	}
	return tm.Activate()
}
