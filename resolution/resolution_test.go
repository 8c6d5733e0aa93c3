package resolution

import (
	"fmt"
	"testing"

	"github.com/pdok/wmtsclient/wmtserr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetersPerPixel(t *testing.T) {
	tests := []struct {
		crs   string
		level int
		want  float64
	}{
		{"EPSG:3857", 0, 156543.0339280410},
		{"EPSG:3857", 19, 0.2985821417},
		{"EPSG:3857", 21, 0.0746455354},
		{"urn:ogc:def:crs:EPSG::3857", 10, 152.8740565704},
		{"EPSG:2154", 0, 104579.2245498940},
		{"EPSG:2154", 19, 0.1993716006},
		{"http://www.opengis.net/def/crs/EPSG/0/2154", 21, 0.0498429001},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%d", tt.crs, tt.level), func(t *testing.T) {
			got, err := MetersPerPixel(tt.crs, tt.level)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWebMercatorTableHalvesPerLevel(t *testing.T) {
	for i := 1; i < len(webMercator); i++ {
		assert.InDelta(t, webMercator[i-1]/2, webMercator[i], 1e-9, "level %d", i)
	}
}

func TestMetersPerPixel_Errors(t *testing.T) {
	_, err := MetersPerPixel("EPSG:4326", 3)
	var projErr *wmtserr.UnsupportedProjectionError
	require.ErrorAs(t, err, &projErr)
	assert.Equal(t, "EPSG:4326", projErr.CRS)

	_, err = MetersPerPixel("EPSG:3857", 22)
	var lvlErr *wmtserr.LevelNotFoundError
	require.ErrorAs(t, err, &lvlErr)
	assert.Equal(t, "22", lvlErr.Level)

	_, err = MetersPerPixel("EPSG:2154", -1)
	require.ErrorAs(t, err, &lvlErr)
}

func TestTileSizeMeters(t *testing.T) {
	got, err := TileSizeMeters("EPSG:3857", "19", 256)
	require.NoError(t, err)
	assert.InDelta(t, 76.4370282752, got, 1e-9)

	got, err = TileSizeMeters("EPSG:2154", "0", 256)
	require.NoError(t, err)
	assert.InDelta(t, 26772281.4847728640, got, 1e-6)

	_, err = TileSizeMeters("EPSG:27572", "5", 256)
	assert.Equal(t, wmtserr.KindUnsupportedProjection, wmtserr.KindOf(err))

	for _, level := range []string{"abc", "", "22", "-3"} {
		_, err = TileSizeMeters("EPSG:3857", level, 256)
		assert.Equal(t, wmtserr.KindLevelNotFound, wmtserr.KindOf(err), "level %q", level)
	}
}

func TestMaxLevel(t *testing.T) {
	got, err := MaxLevel("EPSG:3857")
	require.NoError(t, err)
	assert.Equal(t, 21, got)
	_, err = MaxLevel("EPSG:32631")
	assert.Error(t, err)
}
