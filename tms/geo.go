package tms

import (
	"fmt"
	"math"

	"github.com/pdok/wmtsclient/wmtserr"
)

// GeoPoint is a WGS84 coordinate in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("lat=%v lon=%v", p.Lat, p.Lon)
}

func (p GeoPoint) valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lon) &&
		p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// BoundingBox is a WGS84 box given by its north-east and south-west corners.
type BoundingBox struct {
	NELon float64 `json:"neLon"`
	NELat float64 `json:"neLat"`
	SWLon float64 `json:"swLon"`
	SWLat float64 `json:"swLat"`
}

func NewBoundingBox(neLon, neLat, swLon, swLat float64) BoundingBox {
	return BoundingBox{NELon: neLon, NELat: neLat, SWLon: swLon, SWLat: swLat}
}

// BoundingBoxFromExtent builds a box from min/max values in any order.
func BoundingBoxFromExtent(minLon, minLat, maxLon, maxLat float64) BoundingBox {
	return BoundingBox{
		NELon: math.Max(minLon, maxLon),
		NELat: math.Max(minLat, maxLat),
		SWLon: math.Min(minLon, maxLon),
		SWLat: math.Min(minLat, maxLat),
	}
}

func (b BoundingBox) NE() GeoPoint { return GeoPoint{Lat: b.NELat, Lon: b.NELon} }
func (b BoundingBox) SW() GeoPoint { return GeoPoint{Lat: b.SWLat, Lon: b.SWLon} }

// Validate fails when a corner is not a valid WGS84 coordinate or
// when the NE corner is not north-east of (or equal to) the SW corner.
func (b BoundingBox) Validate() error {
	reason := ""
	switch {
	case !b.NE().valid():
		reason = "north-east corner is not a valid WGS84 coordinate"
	case !b.SW().valid():
		reason = "south-west corner is not a valid WGS84 coordinate"
	case b.NELat < b.SWLat:
		reason = "north-east latitude is south of south-west latitude"
	case b.NELon < b.SWLon:
		reason = "north-east longitude is west of south-west longitude"
	}
	if reason == "" {
		return nil
	}
	return b.invalid(reason)
}

func (b BoundingBox) invalid(reason string) error {
	return &wmtserr.InvalidBoundingBoxError{
		NELon: b.NELon, NELat: b.NELat, SWLon: b.SWLon, SWLat: b.SWLat,
		Reason: reason,
	}
}
