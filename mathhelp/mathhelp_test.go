package mathhelp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBetweenInc(t *testing.T) {
	assert.True(t, BetweenInc(3, 1, 5))
	assert.True(t, BetweenInc(3, 5, 1))
	assert.True(t, BetweenInc(5, 5, 1))
	assert.False(t, BetweenInc(6, 1, 5))
	assert.True(t, BetweenInc(-0.5, -1.0, 0.0))
}

func TestFloorDiv(t *testing.T) {
	tests := []struct {
		n, d float64
		want int
	}{
		{10, 5, 2},
		{9.999, 5, 1},
		{0, 5, 0},
		{-0.1, 5, -1}, // not truncated towards zero
		{-5, 5, -1},
		{-5.1, 5, -2},
		{10 - 1e-12, 5, 2}, // rounding noise
		{10 - 1e-3, 5, 1},
		{20037508.3427892 - 1, 20037508.3427892, 0}, // a meter before a level 1 edge
		{40075016.6855784 - 3, 40075016.6855784, 0}, // three meters before the level 0 edge
		{265674*76.4370282752 - 1e-9, 76.4370282752, 265674},
		{265674*76.4370282752 - 1e-3, 76.4370282752, 265673},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FloorDiv(tt.n, tt.d), "FloorDiv(%v, %v)", tt.n, tt.d)
	}
}
