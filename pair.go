package remap

import (
	"iter"
	"reflect"
)

// Pair is a positional pair of keys. Two pairs are equal when both members
// are equal.
type Pair[K1, K2 comparable] struct {
	First  K1
	Second K2
}

// TypePair identifies exactly one TypeMapping.
type TypePair struct {
	Source reflect.Type
	Dest   reflect.Type
}

// NewTypePair builds a TypePair with pointer indirections removed from both
// sides, so *T and T address the same mapping.
func NewTypePair(source, dest reflect.Type) TypePair {
	return TypePair{Source: derefType(source), Dest: derefType(dest)}
}

func (p TypePair) String() string {
	return typeName(p.Source) + " -> " + typeName(p.Dest)
}

// PairMap is an insertion ordered map keyed by a Pair. Replacing the value
// of an existing key keeps that key's position.
//
// PairMap is not safe for concurrent use.
type PairMap[K1, K2 comparable, V any] struct {
	index map[Pair[K1, K2]]int
	keys  []Pair[K1, K2]
	vals  []V
}

func NewPairMap[K1, K2 comparable, V any]() *PairMap[K1, K2, V] {
	return &PairMap[K1, K2, V]{
		index: make(map[Pair[K1, K2]]int),
	}
}

// Put stores v under (k1, k2) and reports whether the key was new.
func (pm *PairMap[K1, K2, V]) Put(k1 K1, k2 K2, v V) bool {
	key := Pair[K1, K2]{k1, k2}
	if i, ok := pm.index[key]; ok {
		pm.vals[i] = v
		return false
	}
	pm.index[key] = len(pm.keys)
	pm.keys = append(pm.keys, key)
	pm.vals = append(pm.vals, v)
	return true
}

func (pm *PairMap[K1, K2, V]) Get(k1 K1, k2 K2) (V, bool) {
	if i, ok := pm.index[Pair[K1, K2]{k1, k2}]; ok {
		return pm.vals[i], true
	}
	var zero V
	return zero, false
}

func (pm *PairMap[K1, K2, V]) Has(k1 K1, k2 K2) bool {
	_, ok := pm.index[Pair[K1, K2]{k1, k2}]
	return ok
}

// Delete removes (k1, k2), preserving the order of the remaining keys.
func (pm *PairMap[K1, K2, V]) Delete(k1 K1, k2 K2) bool {
	key := Pair[K1, K2]{k1, k2}
	i, ok := pm.index[key]
	if !ok {
		return false
	}
	delete(pm.index, key)
	pm.keys = append(pm.keys[:i], pm.keys[i+1:]...)
	pm.vals = append(pm.vals[:i], pm.vals[i+1:]...)
	for j := i; j < len(pm.keys); j++ {
		pm.index[pm.keys[j]] = j
	}
	return true
}

func (pm *PairMap[K1, K2, V]) Len() int {
	return len(pm.keys)
}

// Clear removes every entry.
func (pm *PairMap[K1, K2, V]) Clear() {
	clear(pm.index)
	pm.keys = pm.keys[:0]
	pm.vals = pm.vals[:0]
}

// Keys returns a copy of the keys in insertion order.
func (pm *PairMap[K1, K2, V]) Keys() []Pair[K1, K2] {
	out := make([]Pair[K1, K2], len(pm.keys))
	copy(out, pm.keys)
	return out
}

// Values returns a copy of the values in insertion order.
func (pm *PairMap[K1, K2, V]) Values() []V {
	out := make([]V, len(pm.vals))
	copy(out, pm.vals)
	return out
}

// All iterates the entries in insertion order.
func (pm *PairMap[K1, K2, V]) All() iter.Seq2[Pair[K1, K2], V] {
	return func(yield func(Pair[K1, K2], V) bool) {
		for i, k := range pm.keys {
			if !yield(k, pm.vals[i]) {
				return
			}
		}
	}
}

func derefType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
