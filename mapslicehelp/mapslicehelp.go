package mapslicehelp

import (
	"slices"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/exp/maps"
)

func OrderedMapKeys[K comparable, V any](m *orderedmap.OrderedMap[K, V]) []K {
	l := make([]K, m.Len())
	i := 0
	for p := m.Oldest(); p != nil; p = p.Next() {
		l[i] = p.Key
		i++
	}
	return l
}

func OrderedMapValues[K comparable, V any](m *orderedmap.OrderedMap[K, V]) []V {
	l := make([]V, m.Len())
	i := 0
	for p := m.Oldest(); p != nil; p = p.Next() {
		l[i] = p.Value
		i++
	}
	return l
}

// NumericKeys returns the keys of m sorted as integers where possible.
// Keys that are not integer-like sort after the numeric ones, alphabetically.
func NumericKeys[V any](m map[string]V) []string {
	keys := maps.Keys(m)
	slices.SortFunc(keys, func(a, b string) int {
		ai, aErr := strconv.Atoi(a)
		bi, bErr := strconv.Atoi(b)
		switch {
		case aErr == nil && bErr == nil:
			return ai - bi
		case aErr == nil:
			return -1
		case bErr == nil:
			return 1
		default:
			if a < b {
				return -1
			}
			if a > b {
				return 1
			}
			return 0
		}
	})
	return keys
}
