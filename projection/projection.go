// Package projection converts WGS84 latitude/longitude to and from the native
// coordinates of the tile matrix sets served by the WMTS.
package projection

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdok/wmtsclient/wmtserr"
)

const (
	WebMercator = "EPSG:3857"
	Lambert93   = "EPSG:2154"
	WGS84       = "EPSG:4326"
)

// Projection converts between WGS84 and a projected CRS.
type Projection interface {
	// ToWGS84 converts projected coordinates to WGS84 longitude/latitude (degrees).
	ToWGS84(x, y float64) (lon, lat float64)

	// FromWGS84 converts WGS84 longitude/latitude (degrees) to projected coordinates.
	FromWGS84(lon, lat float64) (x, y float64)

	// CRS returns the normalized code, e.g. EPSG:3857.
	CRS() string

	// LatitudeBand is the range of latitudes (degrees) the projection maps to finite coordinates
	// inside its tiling extent, bounds included.
	LatitudeBand() (south, north float64)
}

var (
	crsURIRegexURL = regexp.MustCompile("^https?://.+/def/crs/(?P<authority>[^/]+)/[^/]+/(?P<code>[^/]+)$")
	crsURIRegexURN = regexp.MustCompile("^urn:ogc:def:crs:(?P<authority>[^:]+):[^:]*:(?P<code>[^:]+)$")
)

// NormalizeCRS turns the URN and URL forms of a CRS reference into AUTHORITY:CODE.
// Anything it does not recognize is returned trimmed but otherwise untouched.
func NormalizeCRS(crs string) string {
	crs = strings.TrimSpace(crs)
	parts := crsURIRegexURL.FindStringSubmatch(crs)
	if parts == nil {
		parts = crsURIRegexURN.FindStringSubmatch(crs)
	}
	if parts != nil {
		return fmt.Sprintf("%s:%s", strings.ToUpper(parts[1]), parts[2])
	}
	if authority, code, ok := strings.Cut(crs, ":"); ok {
		return strings.ToUpper(authority) + ":" + code
	}
	return crs
}

// ForCRS returns the Projection for crs.
func ForCRS(crs string) (Projection, error) {
	switch NormalizeCRS(crs) {
	case WebMercator:
		return webMercator{}, nil
	case Lambert93:
		return lambert93, nil
	default:
		return nil, &wmtserr.UnsupportedProjectionError{CRS: crs}
	}
}

// Supported reports whether crs can be used for tile addressing.
func Supported(crs string) bool {
	_, err := ForCRS(crs)
	return err == nil
}

// LatitudeBand returns the latitudes crs can address, see Projection.LatitudeBand.
func LatitudeBand(crs string) (south, north float64, err error) {
	p, err := ForCRS(crs)
	if err != nil {
		return 0, 0, err
	}
	south, north = p.LatitudeBand()
	return south, north, nil
}

// ToProjected converts a WGS84 coordinate to the native coordinates of crs.
func ToProjected(lat, lon float64, crs string) (x, y float64, err error) {
	p, err := ForCRS(crs)
	if err != nil {
		return 0, 0, err
	}
	x, y = p.FromWGS84(lon, lat)
	return x, y, nil
}

// ToGeographic converts native coordinates of crs to WGS84.
func ToGeographic(x, y float64, crs string) (lat, lon float64, err error) {
	p, err := ForCRS(crs)
	if err != nil {
		return 0, 0, err
	}
	lon, lat = p.ToWGS84(x, y)
	return lat, lon, nil
}
