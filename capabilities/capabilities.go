// Package capabilities reads a WMTS GetCapabilities document and builds the layer catalog from it.
package capabilities

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdok/wmtsclient/httpclient"
	"github.com/pdok/wmtsclient/tms"
)

// Capabilities is the subset of a WMTS 1.0.0 capabilities document this client uses.
type Capabilities struct {
	XMLName               xml.Name              `xml:"http://www.opengis.net/wmts/1.0 Capabilities"`
	Version               string                `xml:"version,attr"`
	ServiceIdentification ServiceIdentification `xml:"http://www.opengis.net/ows/1.1 ServiceIdentification"`
	Contents              Contents              `xml:"http://www.opengis.net/wmts/1.0 Contents"`
}

type ServiceIdentification struct {
	Title    string `xml:"http://www.opengis.net/ows/1.1 Title"`
	Abstract string `xml:"http://www.opengis.net/ows/1.1 Abstract"`
}

type Contents struct {
	Layers         []Layer         `xml:"http://www.opengis.net/wmts/1.0 Layer"`
	TileMatrixSets []TileMatrixSet `xml:"http://www.opengis.net/wmts/1.0 TileMatrixSet"`
}

type Layer struct {
	Title              string              `xml:"http://www.opengis.net/ows/1.1 Title"`
	Abstract           string              `xml:"http://www.opengis.net/ows/1.1 Abstract"`
	Identifier         string              `xml:"http://www.opengis.net/ows/1.1 Identifier"`
	Styles             []Style             `xml:"http://www.opengis.net/wmts/1.0 Style"`
	Formats            []string            `xml:"http://www.opengis.net/wmts/1.0 Format"`
	TileMatrixSetLinks []TileMatrixSetLink `xml:"http://www.opengis.net/wmts/1.0 TileMatrixSetLink"`
}

type Style struct {
	IsDefault  bool   `xml:"isDefault,attr"`
	Identifier string `xml:"http://www.opengis.net/ows/1.1 Identifier"`
}

type TileMatrixSetLink struct {
	TileMatrixSet string `xml:"http://www.opengis.net/wmts/1.0 TileMatrixSet"`
}

type TileMatrixSet struct {
	Identifier   string       `xml:"http://www.opengis.net/ows/1.1 Identifier"`
	SupportedCRS string       `xml:"http://www.opengis.net/ows/1.1 SupportedCRS"`
	TileMatrices []TileMatrix `xml:"http://www.opengis.net/wmts/1.0 TileMatrix"`
}

type TileMatrix struct {
	Identifier       string  `xml:"http://www.opengis.net/ows/1.1 Identifier"`
	ScaleDenominator float64 `xml:"http://www.opengis.net/wmts/1.0 ScaleDenominator"`
	// "x y" in the CRS of the tile matrix set
	TopLeftCorner string `xml:"http://www.opengis.net/wmts/1.0 TopLeftCorner"`
	TileWidth     uint   `xml:"http://www.opengis.net/wmts/1.0 TileWidth"`
	TileHeight    uint   `xml:"http://www.opengis.net/wmts/1.0 TileHeight"`
	MatrixWidth   uint   `xml:"http://www.opengis.net/wmts/1.0 MatrixWidth"`
	MatrixHeight  uint   `xml:"http://www.opengis.net/wmts/1.0 MatrixHeight"`
}

// Parse decodes a capabilities document.
func Parse(r io.Reader) (*Capabilities, error) {
	var doc Capabilities
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("could not parse capabilities: %w", err)
	}
	return &doc, nil
}

// FetchDocument retrieves and parses the capabilities document at url.
func FetchDocument(ctx context.Context, client httpclient.Doer, url string) (*Capabilities, error) {
	body, err := httpclient.Get(ctx, client, url)
	if err != nil {
		return nil, err
	}
	return Parse(bytes.NewReader(body))
}

// Fetch retrieves the capabilities document at url and builds its catalog.
func Fetch(ctx context.Context, client httpclient.Doer, url string, log zerolog.Logger) (*tms.Catalog, error) {
	doc, err := FetchDocument(ctx, client, url)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("url", url).Int("layers", len(doc.Contents.Layers)).
		Int("tileMatrixSets", len(doc.Contents.TileMatrixSets)).Msg("capabilities received")
	return BuildCatalog(doc, log)
}

// BuildCatalog turns the document into a catalog, keeping document order.
// A layer is linked to the tile matrix set named by its first TileMatrixSetLink.
// Layers without a link, or whose linked set is not in the document, are skipped.
func BuildCatalog(doc *Capabilities, log zerolog.Logger) (*tms.Catalog, error) {
	sets := make(map[string]*TileMatrixSet, len(doc.Contents.TileMatrixSets))
	for i := range doc.Contents.TileMatrixSets {
		set := &doc.Contents.TileMatrixSets[i]
		sets[strings.TrimSpace(set.Identifier)] = set
	}
	// layers linking the same set share one *tms.TileMatrixSet
	built := make(map[string]*tms.TileMatrixSet)

	catalog := tms.NewCatalog()
	for _, layer := range doc.Contents.Layers {
		identifier := strings.TrimSpace(layer.Identifier)
		if len(layer.TileMatrixSetLinks) == 0 {
			log.Debug().Str("layer", identifier).Msg("skipping layer without tile matrix set link")
			continue
		}
		setID := strings.TrimSpace(layer.TileMatrixSetLinks[0].TileMatrixSet)
		set, ok := built[setID]
		if !ok {
			raw, ok := sets[setID]
			if !ok {
				log.Debug().Str("layer", identifier).Str("tileMatrixSet", setID).
					Msg("skipping layer, tile matrix set not in capabilities")
				continue
			}
			var err error
			if set, err = buildTileMatrixSet(raw); err != nil {
				return nil, err
			}
			built[setID] = set
		}
		err := catalog.Add(&tms.Layer{
			Title:           strings.TrimSpace(layer.Title),
			Abstract:        strings.TrimSpace(layer.Abstract),
			Identifier:      identifier,
			TileMatrixSetID: setID,
			Styles:          styleIdentifiers(layer.Styles),
			Formats:         trimAll(layer.Formats),
			TileMatrixSet:   set,
		})
		if err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

func buildTileMatrixSet(raw *TileMatrixSet) (*tms.TileMatrixSet, error) {
	set := &tms.TileMatrixSet{
		ID:           strings.TrimSpace(raw.Identifier),
		CRS:          strings.TrimSpace(raw.SupportedCRS),
		TileMatrices: make(map[string]tms.TileMatrix, len(raw.TileMatrices)),
	}
	for _, rawTM := range raw.TileMatrices {
		topLeft, err := parseCorner(rawTM.TopLeftCorner)
		if err != nil {
			return nil, fmt.Errorf("tile matrix set %q, tile matrix %q: %w", set.ID, rawTM.Identifier, err)
		}
		tm := tms.TileMatrix{
			ID:               strings.TrimSpace(rawTM.Identifier),
			ScaleDenominator: rawTM.ScaleDenominator,
			TopLeftCorner:    topLeft,
			TileWidth:        rawTM.TileWidth,
			TileHeight:       rawTM.TileHeight,
			MatrixWidth:      rawTM.MatrixWidth,
			MatrixHeight:     rawTM.MatrixHeight,
		}
		if tm.TileHeight == 0 {
			tm.TileHeight = tm.TileWidth
		}
		if _, dup := set.TileMatrices[tm.ID]; dup {
			return nil, fmt.Errorf("tile matrix set %q: duplicate tile matrix %q", set.ID, tm.ID)
		}
		set.TileMatrices[tm.ID] = tm
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

func parseCorner(s string) (tms.TwoDPoint, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return tms.TwoDPoint{}, fmt.Errorf("top left corner %q is not two coordinates", s)
	}
	var p tms.TwoDPoint
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return tms.TwoDPoint{}, fmt.Errorf("top left corner %q: %w", s, err)
		}
		p[i] = v
	}
	return p, nil
}

// default style first, then document order
func styleIdentifiers(styles []Style) []string {
	ids := make([]string, 0, len(styles))
	for _, style := range styles {
		id := strings.TrimSpace(style.Identifier)
		if style.IsDefault {
			ids = append([]string{id}, ids...)
		} else {
			ids = append(ids, id)
		}
	}
	return ids
}

func trimAll(values []string) []string {
	trimmed := make([]string, 0, len(values))
	for _, v := range values {
		trimmed = append(trimmed, strings.TrimSpace(v))
	}
	return trimmed
}
