package projection

import "math"

// GRS80 ellipsoid
const (
	grs80A = 6378137.0
	grs80F = 1 / 298.257222101
)

// lambertConformalConic is a Lambert Conformal Conic projection with two standard parallels.
// Formulas from IOGP Guidance Note 7-2, EPSG method 9802.
type lambertConformalConic struct {
	crs    string
	e      float64 // first eccentricity
	lon0   float64 // radians
	x0, y0 float64 // false easting/northing
	n      float64
	aF     float64 // a * F
	rho0   float64
}

func newLambertConformalConic(crs string, a, f, lat1, lat2, lat0, lon0, x0, y0 float64) *lambertConformalConic {
	e := math.Sqrt(2*f - f*f)
	phi1, phi2, phi0 := radians(lat1), radians(lat2), radians(lat0)

	m := func(phi float64) float64 {
		s := e * math.Sin(phi)
		return math.Cos(phi) / math.Sqrt(1-s*s)
	}
	t := func(phi float64) float64 {
		s := e * math.Sin(phi)
		return math.Tan(math.Pi/4-phi/2) / math.Pow((1-s)/(1+s), e/2)
	}

	n := (math.Log(m(phi1)) - math.Log(m(phi2))) / (math.Log(t(phi1)) - math.Log(t(phi2)))
	aF := a * m(phi1) / (n * math.Pow(t(phi1), n))
	return &lambertConformalConic{
		crs:  crs,
		e:    e,
		lon0: radians(lon0),
		x0:   x0,
		y0:   y0,
		n:    n,
		aF:   aF,
		rho0: aF * math.Pow(t(phi0), n),
	}
}

// Lambert-93: RGF93 / GRS80, standard parallels 49° and 44°, origin 46°30'N 3°E
var lambert93 = newLambertConformalConic(Lambert93, grs80A, grs80F, 49, 44, 46.5, 3, 700000, 6600000)

func (l *lambertConformalConic) CRS() string { return l.crs }

// LatitudeBand excludes the pole the cone opens towards, it projects to infinity.
func (l *lambertConformalConic) LatitudeBand() (south, north float64) {
	if l.n > 0 {
		return math.Nextafter(-90, 0), 90
	}
	return -90, math.Nextafter(90, 0)
}

func (l *lambertConformalConic) FromWGS84(lon, lat float64) (x, y float64) {
	phi := radians(lat)
	s := l.e * math.Sin(phi)
	t := math.Tan(math.Pi/4-phi/2) / math.Pow((1-s)/(1+s), l.e/2)
	rho := l.aF * math.Pow(t, l.n)
	theta := l.n * (radians(lon) - l.lon0)
	x = l.x0 + rho*math.Sin(theta)
	y = l.y0 + l.rho0 - rho*math.Cos(theta)
	return
}

func (l *lambertConformalConic) ToWGS84(x, y float64) (lon, lat float64) {
	dx := x - l.x0
	dy := l.rho0 - (y - l.y0)
	rho := math.Copysign(math.Hypot(dx, dy), l.n)
	theta := math.Atan2(dx, dy)
	t := math.Pow(rho/l.aF, 1/l.n)

	// isometric latitude inversion, converges in a handful of steps
	phi := math.Pi/2 - 2*math.Atan(t)
	for i := 0; i < 30; i++ {
		s := l.e * math.Sin(phi)
		next := math.Pi/2 - 2*math.Atan(t*math.Pow((1-s)/(1+s), l.e/2))
		if math.Abs(next-phi) < 1e-15 {
			phi = next
			break
		}
		phi = next
	}
	lon = degrees(theta/l.n + l.lon0)
	lat = degrees(phi)
	return
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }
