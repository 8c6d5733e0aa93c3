package projection

import "math"

const (
	// EarthRadius is the WGS84 semi-major axis used by the spherical Web Mercator.
	EarthRadius = 6378137.0
	// OriginShift is half the equatorial circumference.
	OriginShift = math.Pi * EarthRadius
	// MaxLatitude is where the projected y reaches OriginShift, the edge of the square world.
	MaxLatitude = 85.05112877980659
)

// webMercator implements EPSG:3857.
type webMercator struct{}

func (webMercator) CRS() string { return WebMercator }

func (webMercator) LatitudeBand() (south, north float64) { return -MaxLatitude, MaxLatitude }

func (webMercator) ToWGS84(x, y float64) (lon, lat float64) {
	lon = x / OriginShift * 180.0
	lat = 180.0 / math.Pi * (2.0*math.Atan(math.Exp(y/EarthRadius)) - math.Pi/2.0)
	return
}

func (webMercator) FromWGS84(lon, lat float64) (x, y float64) {
	x = lon * OriginShift / 180.0
	y = math.Log(math.Tan((90.0+lat)*math.Pi/360.0)) * EarthRadius
	return
}
