package geomhelp

import (
	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/wkt"
	"github.com/muesli/reflow/truncate"
)

// ExtentPolygon is the extent as a closed counter-clockwise ring, starting at the lower left corner.
func ExtentPolygon(e geom.Extent) geom.Polygon {
	return geom.Polygon{{
		{e.MinX(), e.MinY()},
		{e.MaxX(), e.MinY()},
		{e.MaxX(), e.MaxY()},
		{e.MinX(), e.MaxY()},
		{e.MinX(), e.MinY()},
	}}
}

// WktMustEncode encodes g as WKT, cut to maxLen characters when maxLen > 0.
func WktMustEncode(g geom.Geometry, maxLen uint) string {
	if maxLen == 0 {
		return wkt.MustEncode(g)
	}
	return truncate.StringWithTail(wkt.MustEncode(g), maxLen, "...")
}
