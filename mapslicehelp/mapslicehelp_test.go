package mapslicehelp

import (
	"testing"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/stretchr/testify/assert"
)

func TestOrderedMapKeysAndValues(t *testing.T) {
	m := orderedmap.New[string, int]()
	m.Set("b", 2)
	m.Set("a", 1)
	m.Set("c", 3)
	assert.Equal(t, []string{"b", "a", "c"}, OrderedMapKeys(m))
	assert.Equal(t, []int{2, 1, 3}, OrderedMapValues(m))
}

func TestNumericKeys(t *testing.T) {
	m := map[string]bool{"10": true, "2": true, "0": true, "x": true, "19": true, "a": true}
	assert.Equal(t, []string{"0", "2", "10", "19", "a", "x"}, NumericKeys(m))
	assert.Empty(t, NumericKeys(map[string]int{}))
}
