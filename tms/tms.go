// Package tms models the tile matrix sets and layers a WMTS advertises in its capabilities,
// and addresses tiles in them.
// See https://www.ogc.org/standard/wmts/
package tms

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/perimeterx/marshmallow"

	"github.com/pdok/wmtsclient/mapslicehelp"
	"github.com/pdok/wmtsclient/resolution"
	"github.com/pdok/wmtsclient/wmtserr"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// TileMatrixSet is a named tiling scheme: a CRS and one TileMatrix per zoom level.
type TileMatrixSet struct {
	// Tile matrix set identifier, e.g. PM or LAMB93
	ID string `validate:"required" json:"id"`
	// Coordinate Reference System code, e.g. EPSG:3857
	CRS string `validate:"required" json:"crs"`
	// Tile matrices keyed by their identifier (the level). No order is implied.
	TileMatrices map[string]TileMatrix `validate:"required,min=1,dive" json:"-"`
}

// TileMatrix is one zoom level of a TileMatrixSet.
type TileMatrix struct {
	// Identifier, usually the zoom level
	ID string `validate:"required" json:"id"`
	// Scale denominator of this tile matrix, informative
	ScaleDenominator float64 `validate:"gte=0" json:"scaleDenominator,omitempty"`
	// Position in CRS coordinates of the top-left corner of tile (0, 0)
	TopLeftCorner TwoDPoint `json:"topLeftCorner"`
	// Width of each tile in pixels
	TileWidth uint `validate:"required,min=1" json:"tileWidth"`
	// Height of each tile in pixels, defaults to TileWidth
	TileHeight uint `json:"tileHeight,omitempty"`
	// Number of tiles in width, 0 when unknown
	MatrixWidth uint `json:"matrixWidth,omitempty"`
	// Number of tiles in height, 0 when unknown
	MatrixHeight uint `json:"matrixHeight,omitempty"`
}

// A 2D Point in the CRS of the tile matrix set
type TwoDPoint [2]float64

func (p TwoDPoint) X0() float64 { return p[0] }
func (p TwoDPoint) Y0() float64 { return p[1] }

// Validate checks the struct tags and the tile matrix keys.
func (tms *TileMatrixSet) Validate() error {
	if err := validate.Struct(tms); err != nil {
		return fmt.Errorf("tile matrix set %q: %w", tms.ID, err)
	}
	for level, tm := range tms.TileMatrices {
		if level != tm.ID {
			return fmt.Errorf("tile matrix set %q: tile matrix %q stored under level %q", tms.ID, tm.ID, level)
		}
	}
	return nil
}

// Levels returns the tile matrix identifiers, numerically sorted.
func (tms *TileMatrixSet) Levels() []string {
	return mapslicehelp.NumericKeys(tms.TileMatrices)
}

// TileMatrix returns the tile matrix for level.
func (tms *TileMatrixSet) TileMatrix(level string) (TileMatrix, error) {
	tm, ok := tms.TileMatrices[level]
	if !ok {
		return TileMatrix{}, &wmtserr.LevelNotFoundError{TileMatrixSet: tms.ID, Level: level}
	}
	return tm, nil
}

// TileSizeMeters is the tile edge length in CRS units (meters) at level.
func (tms *TileMatrixSet) TileSizeMeters(level string) (float64, error) {
	tm, err := tms.TileMatrix(level)
	if err != nil {
		return 0, err
	}
	size, err := resolution.TileSizeMeters(tms.CRS, level, tm.TileWidth)
	var lvlErr *wmtserr.LevelNotFoundError
	if errors.As(err, &lvlErr) {
		lvlErr.TileMatrixSet = tms.ID
	}
	return size, err
}

func (tms *TileMatrixSet) MarshalJSON() ([]byte, error) {
	tileMatrices := make([]*TileMatrix, 0, len(tms.TileMatrices))
	for _, level := range tms.Levels() {
		tm := tms.TileMatrices[level]
		tileMatrices = append(tileMatrices, &tm)
	}
	type plain TileMatrixSet // no methods, so no recursion into this function
	return json.Marshal(struct {
		plain
		SpecialTileMatrices []*TileMatrix `json:"tileMatrices"`
	}{
		plain:               plain(*tms),
		SpecialTileMatrices: tileMatrices,
	})
}

func (tms *TileMatrixSet) UnmarshalJSON(data []byte) error {
	err := defaults.Set(tms)
	if err != nil {
		return err
	}

	specials, err := marshmallow.Unmarshal(data, tms, marshmallow.WithExcludeKnownFieldsFromMap(true))
	if err != nil {
		return err
	}

	rawTileMatrices, ok := specials["tileMatrices"]
	if !ok {
		return fmt.Errorf(`missing key "tileMatrices"`)
	}
	tms.TileMatrices, err = unmarshalTileMatrices(rawTileMatrices)
	if err != nil {
		return err
	}

	return tms.Validate()
}

func unmarshalTileMatrices(rawTileMatrices interface{}) (map[string]TileMatrix, error) {
	rawTileMatricesList, ok := rawTileMatrices.([]interface{})
	if !ok {
		return nil, fmt.Errorf(`"tileMatrices" should be an array`)
	}
	tileMatrices := make(map[string]TileMatrix, len(rawTileMatricesList))
	for _, rawTileMatrix := range rawTileMatricesList {
		var tileMatrix TileMatrix
		err := tileMatrix.UnmarshalJSONFromMap(rawTileMatrix)
		if err != nil {
			return nil, err
		}
		if _, dup := tileMatrices[tileMatrix.ID]; dup {
			return nil, fmt.Errorf("duplicate tile matrix id %q", tileMatrix.ID)
		}
		tileMatrices[tileMatrix.ID] = tileMatrix
	}
	return tileMatrices, nil
}

func (tm *TileMatrix) UnmarshalJSON(data []byte) error {
	return UnmarshalJSONMapUsingUnmarshalJSONFromMap(tm, data)
}

func (tm *TileMatrix) UnmarshalJSONFromMap(data interface{}) error {
	err := defaults.Set(tm)
	if err != nil {
		return err
	}

	dataMap, ok := data.(map[string]interface{})
	if !ok {
		return fmt.Errorf(`data is not a map but a %T`, data)
	}

	_, err = marshmallow.UnmarshalFromJSONMap(dataMap, tm, marshmallow.WithExcludeKnownFieldsFromMap(true))
	if err != nil {
		return err
	}
	if _, ok := dataMap["topLeftCorner"]; !ok {
		return fmt.Errorf(`tile matrix %q: missing key "topLeftCorner"`, tm.ID)
	}
	tm.fillDefaults()

	return validate.Struct(tm)
}

func (tm *TileMatrix) fillDefaults() {
	if tm.TileHeight == 0 {
		tm.TileHeight = tm.TileWidth
	}
}

func UnmarshalJSONMapUsingUnmarshalJSONFromMap(target marshmallow.UnmarshalerFromJSONMap, data []byte) error {
	var dataMap map[string]interface{}
	err := json.Unmarshal(data, &dataMap)
	if err != nil {
		return err
	}
	return target.UnmarshalJSONFromMap(dataMap)
}
