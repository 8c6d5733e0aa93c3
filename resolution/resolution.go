// Package resolution holds the ground resolution (meters per pixel) of every zoom level
// of the two supported Géoplateforme tile matrix sets: PM (EPSG:3857) and LAMB93 (EPSG:2154).
// See https://geoservices.ign.fr/documentation/services/services-geoplateforme/diffusion#70062
package resolution

import (
	"strconv"

	"github.com/pdok/wmtsclient/projection"
	"github.com/pdok/wmtsclient/wmtserr"
)

// PM tile matrix set, EPSG:3857
var webMercator = [...]float64{
	156543.0339280410,
	78271.5169640205,
	39135.7584820102,
	19567.8792410051,
	9783.9396205026,
	4891.9698102513,
	2445.9849051256,
	1222.9924525628,
	611.4962262814,
	305.7481131407,
	152.8740565704,
	76.4370282852,
	38.2185141426,
	19.1092570713,
	9.5546285356,
	4.7773142678,
	2.3886571339,
	1.1943285670,
	0.5971642835,
	0.2985821417,
	0.1492910709,
	0.0746455354,
}

// LAMB93 tile matrix set, EPSG:2154
var lambert93 = [...]float64{
	104579.2245498940,
	52277.5323537905,
	26135.4870785954,
	13066.8913818000,
	6533.2286041135,
	3266.5595244627,
	1633.2660045974,
	816.6295549860,
	408.3139146768,
	204.1567415101,
	102.0783167543,
	51.0391448005,
	25.5195690014,
	12.7597836522,
	6.3798916291,
	3.1899456604,
	1.5949728047,
	0.7974864022,
	0.3987432011,
	0.1993716006,
	0.0996858003,
	0.0498429001,
}

func table(crs string) ([]float64, bool) {
	switch projection.NormalizeCRS(crs) {
	case projection.WebMercator:
		return webMercator[:], true
	case projection.Lambert93:
		return lambert93[:], true
	}
	return nil, false
}

// MetersPerPixel returns the ground resolution of level for crs.
func MetersPerPixel(crs string, level int) (float64, error) {
	t, ok := table(crs)
	if !ok {
		return 0, &wmtserr.UnsupportedProjectionError{CRS: crs}
	}
	if level < 0 || level >= len(t) {
		return 0, &wmtserr.LevelNotFoundError{Level: strconv.Itoa(level)}
	}
	return t[level], nil
}

// MaxLevel returns the deepest level the table of crs knows about.
func MaxLevel(crs string) (int, error) {
	t, ok := table(crs)
	if !ok {
		return 0, &wmtserr.UnsupportedProjectionError{CRS: crs}
	}
	return len(t) - 1, nil
}

// TileSizeMeters is the edge length in meters of a tile of tileSizePx pixels at level.
// level is a tile matrix identifier and must be integer-like.
func TileSizeMeters(crs string, level string, tileSizePx uint) (float64, error) {
	t, ok := table(crs)
	if !ok {
		return 0, &wmtserr.UnsupportedProjectionError{CRS: crs}
	}
	lvl, err := strconv.Atoi(level)
	if err != nil || lvl < 0 || lvl >= len(t) {
		return 0, &wmtserr.LevelNotFoundError{Level: level}
	}
	return float64(tileSizePx) * t[lvl], nil
}
