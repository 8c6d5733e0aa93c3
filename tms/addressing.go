package tms

import (
	"fmt"
	"iter"

	"github.com/go-spatial/geom"

	"github.com/pdok/wmtsclient/mathhelp"
	"github.com/pdok/wmtsclient/projection"
)

// TileAddress is the column and row of one tile in a tile matrix.
type TileAddress struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

func (a TileAddress) String() string {
	return fmt.Sprintf("col=%d row=%d", a.Col, a.Row)
}

// FromNative returns the tile containing pt, given in the CRS of the tile matrix set.
// Rows grow downwards from the top-left corner. A point exactly on a tile edge belongs to the
// tile to the right of (below) that edge.
func (tms *TileMatrixSet) FromNative(level string, pt geom.Point) (TileAddress, error) {
	tm, err := tms.TileMatrix(level)
	if err != nil {
		return TileAddress{}, err
	}
	tileSize, err := tms.TileSizeMeters(level)
	if err != nil {
		return TileAddress{}, err
	}

	x := pt.X() - tm.TopLeftCorner.X0()
	y := tm.TopLeftCorner.Y0() - pt.Y()
	return TileAddress{
		Col: mathhelp.FloorDiv(x, tileSize),
		Row: mathhelp.FloorDiv(y, tileSize),
	}, nil
}

// ToNative returns the top-left corner of the tile in the CRS of the tile matrix set.
func (tms *TileMatrixSet) ToNative(level string, tile TileAddress) (geom.Point, error) {
	tm, err := tms.TileMatrix(level)
	if err != nil {
		return geom.Point{}, err
	}
	tileSize, err := tms.TileSizeMeters(level)
	if err != nil {
		return geom.Point{}, err
	}
	return geom.Point{
		tm.TopLeftCorner.X0() + float64(tile.Col)*tileSize,
		tm.TopLeftCorner.Y0() - float64(tile.Row)*tileSize,
	}, nil
}

// Extent returns the native extent covered by the tile.
func (tms *TileMatrixSet) Extent(level string, tile TileAddress) (geom.Extent, error) {
	topLeft, err := tms.ToNative(level, tile)
	if err != nil {
		return geom.Extent{}, err
	}
	tileSize, err := tms.TileSizeMeters(level)
	if err != nil {
		return geom.Extent{}, err
	}
	return geom.Extent{topLeft.X(), topLeft.Y() - tileSize, topLeft.X() + tileSize, topLeft.Y()}, nil
}

// FromGeographic returns the tile containing the WGS84 point at level.
func (tms *TileMatrixSet) FromGeographic(pt GeoPoint, level string) (TileAddress, error) {
	if _, err := tms.TileMatrix(level); err != nil {
		return TileAddress{}, err
	}
	x, y, err := projection.ToProjected(pt.Lat, pt.Lon, tms.CRS)
	if err != nil {
		return TileAddress{}, err
	}
	return tms.FromNative(level, geom.Point{x, y})
}

// ToGeographic returns the WGS84 position of the top-left corner of the tile, not its center.
// FromGeographic(ToGeographic(t)) == t, the other way round only recovers the tile origin.
func (tms *TileMatrixSet) ToGeographic(tile TileAddress, level string) (GeoPoint, error) {
	topLeft, err := tms.ToNative(level, tile)
	if err != nil {
		return GeoPoint{}, err
	}
	lat, lon, err := projection.ToGeographic(topLeft.X(), topLeft.Y(), tms.CRS)
	if err != nil {
		return GeoPoint{}, err
	}
	return GeoPoint{Lat: lat, Lon: lon}, nil
}

// Center returns the WGS84 position of the center of the tile.
func (tms *TileMatrixSet) Center(tile TileAddress, level string) (GeoPoint, error) {
	topLeft, err := tms.ToNative(level, tile)
	if err != nil {
		return GeoPoint{}, err
	}
	tileSize, err := tms.TileSizeMeters(level)
	if err != nil {
		return GeoPoint{}, err
	}
	lat, lon, err := projection.ToGeographic(topLeft.X()+tileSize/2, topLeft.Y()-tileSize/2, tms.CRS)
	if err != nil {
		return GeoPoint{}, err
	}
	return GeoPoint{Lat: lat, Lon: lon}, nil
}

// RangeFor addresses both corners of bbox at level. The box must lie within the latitude band
// of the CRS. The range is clipped to the tile matrix when its dimensions are known.
func (tms *TileMatrixSet) RangeFor(bbox BoundingBox, level string) (TileRange, error) {
	if err := bbox.Validate(); err != nil {
		return TileRange{}, err
	}
	tm, err := tms.TileMatrix(level)
	if err != nil {
		return TileRange{}, err
	}
	south, north, err := projection.LatitudeBand(tms.CRS)
	if err != nil {
		return TileRange{}, err
	}
	if bbox.SWLat < south || bbox.NELat > north {
		return TileRange{}, bbox.invalid(fmt.Sprintf("latitude outside %v..%v, the extent of %s", south, north, tms.CRS))
	}
	ne, err := tms.FromGeographic(bbox.NE(), level)
	if err != nil {
		return TileRange{}, err
	}
	sw, err := tms.FromGeographic(bbox.SW(), level)
	if err != nil {
		return TileRange{}, err
	}
	r, ok := tm.Clip(TileRange{NE: ne, SW: sw})
	if !ok {
		return TileRange{}, bbox.invalid(fmt.Sprintf("outside tile matrix %s of %s", level, tms.ID))
	}
	return r, nil
}

// Clip limits r to the tiles of the matrix, [0, MatrixWidth) x [0, MatrixHeight).
// An axis with an unknown (zero) size is left as is. ok is false when no tile of r is in the matrix.
func (tm TileMatrix) Clip(r TileRange) (clipped TileRange, ok bool) {
	minCol, maxCol, minRow, maxRow := r.MinCol(), r.MaxCol(), r.MinRow(), r.MaxRow()
	if tm.MatrixWidth > 0 {
		minCol, maxCol = max(minCol, 0), min(maxCol, int(tm.MatrixWidth)-1)
	}
	if tm.MatrixHeight > 0 {
		minRow, maxRow = max(minRow, 0), min(maxRow, int(tm.MatrixHeight)-1)
	}
	if minCol > maxCol || minRow > maxRow {
		return TileRange{}, false
	}
	return TileRange{
		NE: TileAddress{Col: maxCol, Row: minRow},
		SW: TileAddress{Col: minCol, Row: maxRow},
	}, true
}

// TileRange is the rectangle of tiles between the tiles of a NE and a SW corner.
// The NE tile normally has the larger column and the smaller row; iteration covers the
// rectangle regardless of which corner holds the extremes.
type TileRange struct {
	NE TileAddress `json:"ne"`
	SW TileAddress `json:"sw"`
}

func (r TileRange) MinCol() int { return min(r.NE.Col, r.SW.Col) }
func (r TileRange) MaxCol() int { return max(r.NE.Col, r.SW.Col) }
func (r TileRange) MinRow() int { return min(r.NE.Row, r.SW.Row) }
func (r TileRange) MaxRow() int { return max(r.NE.Row, r.SW.Row) }

func (r TileRange) Width() int  { return r.MaxCol() - r.MinCol() + 1 }
func (r TileRange) Height() int { return r.MaxRow() - r.MinRow() + 1 }
func (r TileRange) Count() int  { return r.Width() * r.Height() }

func (r TileRange) Contains(tile TileAddress) bool {
	return mathhelp.BetweenInc(tile.Col, r.NE.Col, r.SW.Col) &&
		mathhelp.BetweenInc(tile.Row, r.NE.Row, r.SW.Row)
}

// All yields every tile in the range: columns ascending, and within a column rows descending.
func (r TileRange) All() iter.Seq[TileAddress] {
	return func(yield func(TileAddress) bool) {
		for col := r.MinCol(); col <= r.MaxCol(); col++ {
			for row := r.MaxRow(); row >= r.MinRow(); row-- {
				if !yield(TileAddress{Col: col, Row: row}) {
					return
				}
			}
		}
	}
}

func (r TileRange) String() string {
	return fmt.Sprintf("cols %d..%d rows %d..%d (%d tiles)", r.MinCol(), r.MaxCol(), r.MinRow(), r.MaxRow(), r.Count())
}
