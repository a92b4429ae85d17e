package remap

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairMap(t *testing.T) {
	t.Run("PutAndGet", func(t *testing.T) {
		pm := NewPairMap[string, int, string]()
		assert.True(t, pm.Put("a", 1, "first"))
		assert.True(t, pm.Put("a", 2, "second"))

		v, ok := pm.Get("a", 1)
		require.True(t, ok)
		assert.Equal(t, "first", v)

		_, ok = pm.Get("b", 1)
		assert.False(t, ok)
		assert.True(t, pm.Has("a", 2))
		assert.Equal(t, 2, pm.Len())
	})

	t.Run("ReplaceKeepsPosition", func(t *testing.T) {
		pm := NewPairMap[string, string, int]()
		pm.Put("x", "1", 1)
		pm.Put("y", "2", 2)
		pm.Put("z", "3", 3)

		assert.False(t, pm.Put("x", "1", 10), "existing key is not new")
		assert.Equal(t, []int{10, 2, 3}, pm.Values())
		assert.Equal(t, Pair[string, string]{"x", "1"}, pm.Keys()[0])
	})

	t.Run("DeletePreservesOrder", func(t *testing.T) {
		pm := NewPairMap[int, int, string]()
		pm.Put(1, 1, "a")
		pm.Put(2, 2, "b")
		pm.Put(3, 3, "c")

		assert.True(t, pm.Delete(2, 2))
		assert.False(t, pm.Delete(2, 2))
		assert.Equal(t, []string{"a", "c"}, pm.Values())

		v, ok := pm.Get(3, 3)
		require.True(t, ok)
		assert.Equal(t, "c", v)

		pm.Put(2, 2, "b")
		assert.Equal(t, []string{"a", "c", "b"}, pm.Values())
	})

	t.Run("Clear", func(t *testing.T) {
		pm := NewPairMap[int, int, string]()
		pm.Put(1, 1, "a")
		pm.Clear()
		assert.Equal(t, 0, pm.Len())
		assert.False(t, pm.Has(1, 1))

		pm.Put(2, 2, "b")
		assert.Equal(t, []string{"b"}, pm.Values())
	})

	t.Run("AllStopsEarly", func(t *testing.T) {
		pm := NewPairMap[int, int, int]()
		for i := range 5 {
			pm.Put(i, i, i)
		}
		var seen []int
		for _, v := range pm.All() {
			seen = append(seen, v)
			if v == 2 {
				break
			}
		}
		assert.Equal(t, []int{0, 1, 2}, seen)
	})

	t.Run("KeysAreCopies", func(t *testing.T) {
		pm := NewPairMap[int, int, int]()
		pm.Put(1, 1, 1)
		keys := pm.Keys()
		keys[0] = Pair[int, int]{9, 9}
		assert.True(t, pm.Has(1, 1))
	})
}

func TestPairMapOrderProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("keys keep first insertion order and values the last put", prop.ForAll(
		func(keys []int) bool {
			pm := NewPairMap[int, int, int]()
			var order []int
			last := make(map[int]int)
			for i, k := range keys {
				if _, seen := last[k]; !seen {
					order = append(order, k)
				}
				last[k] = i
				pm.Put(k, k%3, i)
			}

			if pm.Len() != len(order) {
				return false
			}
			for i, key := range pm.Keys() {
				if key.First != order[i] || key.Second != order[i]%3 {
					return false
				}
				if v, _ := pm.Get(key.First, key.Second); v != last[key.First] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 20)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestTypePair(t *testing.T) {
	t.Run("PointersAreRemoved", func(t *testing.T) {
		type a struct{}
		type b struct{}
		p1 := NewTypePair(reflect.TypeFor[*a](), reflect.TypeFor[**b]())
		p2 := NewTypePair(reflect.TypeFor[a](), reflect.TypeFor[b]())
		assert.Equal(t, p1, p2)
	})

	t.Run("String", func(t *testing.T) {
		p := NewTypePair(reflect.TypeFor[int](), reflect.TypeFor[string]())
		assert.Equal(t, "int -> string", p.String())
	})
}
