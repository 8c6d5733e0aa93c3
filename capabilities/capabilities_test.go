package capabilities

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdok/wmtsclient/httpclient"
	"github.com/pdok/wmtsclient/tms"
	"github.com/pdok/wmtsclient/wmtserr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestdata(t *testing.T, name string) *os.File {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestParse(t *testing.T) {
	doc, err := Parse(openTestdata(t, "ortho.xml"))
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", doc.Version)
	assert.Equal(t, "Service de visualisation WMTS", doc.ServiceIdentification.Title)
	require.Len(t, doc.Contents.Layers, 4)
	require.Len(t, doc.Contents.TileMatrixSets, 2)

	layer := doc.Contents.Layers[0]
	assert.Equal(t, "ORTHOIMAGERY.ORTHOPHOTOS", layer.Identifier)
	assert.Equal(t, []string{"image/jpeg"}, layer.Formats)
	require.Len(t, layer.TileMatrixSetLinks, 1)
	assert.Equal(t, "PM", layer.TileMatrixSetLinks[0].TileMatrixSet)
	assert.Equal(t, []Style{{IsDefault: true, Identifier: "normal"}}, layer.Styles)

	pm := doc.Contents.TileMatrixSets[0]
	assert.Equal(t, "EPSG:3857", pm.SupportedCRS)
	require.Len(t, pm.TileMatrices, 3)
	assert.Equal(t, "19", pm.TileMatrices[2].Identifier)
	assert.Equal(t, uint(524288), pm.TileMatrices[2].MatrixWidth)
	assert.InDelta(t, 1066.3647919063, pm.TileMatrices[2].ScaleDenominator, 1e-9)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse(strings.NewReader("<html><body>Service Unavailable</body>"))
	assert.Error(t, err)
}

func TestBuildCatalog(t *testing.T) {
	doc, err := Parse(openTestdata(t, "ortho.xml"))
	require.NoError(t, err)
	catalog, err := BuildCatalog(doc, zerolog.Nop())
	require.NoError(t, err)

	// the 1950-1965 layer links PM_0_18, which the document does not define
	assert.Equal(t, []string{
		"ORTHOIMAGERY.ORTHOPHOTOS",
		"CADASTRALPARCELS.PARCELLAIRE_EXPRESS",
		"HR.ORTHOIMAGERY.ORTHOPHOTOS",
	}, catalog.Identifiers())
	_, err = catalog.Layer("ORTHOIMAGERY.ORTHOPHOTOS.1950-1965")
	assert.Equal(t, wmtserr.KindLayerNotFound, wmtserr.KindOf(err))

	ortho, err := catalog.Layer("ORTHOIMAGERY.ORTHOPHOTOS")
	require.NoError(t, err)
	assert.Equal(t, "Photographies aériennes", ortho.Title)
	assert.Equal(t, "PM", ortho.TileMatrixSetID)
	assert.Equal(t, []string{"0", "1", "19"}, ortho.TileMatrixSet.Levels())
	tm, err := ortho.TileMatrixSet.TileMatrix("19")
	require.NoError(t, err)
	assert.Equal(t, tms.TwoDPoint{-20037508.3427892476320267, 20037508.3427892476320267}, tm.TopLeftCorner)
	assert.Equal(t, uint(256), tm.TileWidth)

	tile, err := ortho.TileMatrixSet.FromGeographic(tms.GeoPoint{Lat: 48.845593, Lon: 2.424481}, "19")
	require.NoError(t, err)
	assert.Equal(t, tms.TileAddress{Col: 265674, Row: 180394}, tile)

	// trimmed title, first link wins, default style first
	parcels, err := catalog.Layer("CADASTRALPARCELS.PARCELLAIRE_EXPRESS")
	require.NoError(t, err)
	assert.Equal(t, "Parcellaire Express (PCI)", parcels.Title)
	assert.Equal(t, "LAMB93", parcels.TileMatrixSetID)
	assert.Equal(t, "EPSG:2154", parcels.TileMatrixSet.CRS)
	assert.Equal(t, []string{"normal", "PCI vecteur"}, parcels.Styles)
	assert.Equal(t, "normal", parcels.DefaultStyle())

	hr, err := catalog.Layer("HR.ORTHOIMAGERY.ORTHOPHOTOS")
	require.NoError(t, err)
	assert.Equal(t, "", hr.Abstract)
	assert.Same(t, ortho.TileMatrixSet, hr.TileMatrixSet)
}

func TestBuildCatalog_Errors(t *testing.T) {
	tests := []struct {
		name string
		tm   TileMatrix
	}{
		{"one coordinate", TileMatrix{Identifier: "0", TopLeftCorner: "0", TileWidth: 256}},
		{"not a number", TileMatrix{Identifier: "0", TopLeftCorner: "0 north", TileWidth: 256}},
		{"zero tile width", TileMatrix{Identifier: "0", TopLeftCorner: "0 12000000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &Capabilities{Contents: Contents{
				Layers: []Layer{{Identifier: "A", TileMatrixSetLinks: []TileMatrixSetLink{{TileMatrixSet: "LAMB93"}}}},
				TileMatrixSets: []TileMatrixSet{{
					Identifier:   "LAMB93",
					SupportedCRS: "EPSG:2154",
					TileMatrices: []TileMatrix{tt.tm},
				}},
			}}
			_, err := BuildCatalog(doc, zerolog.Nop())
			assert.Error(t, err)
		})
	}
}

func TestBuildCatalog_NoLink(t *testing.T) {
	doc := &Capabilities{Contents: Contents{Layers: []Layer{{Identifier: "A"}}}}
	catalog, err := BuildCatalog(doc, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 0, catalog.Len())
}

func TestFetch(t *testing.T) {
	xmlDoc, err := os.ReadFile(filepath.Join("testdata", "ortho.xml"))
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/annexes/ressources/wmts/ortho.xml" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write(xmlDoc)
	}))
	defer srv.Close()
	client := httpclient.NewOutbound(5 * time.Second)

	catalog, err := Fetch(context.Background(), client, srv.URL+"/annexes/ressources/wmts/ortho.xml", zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 3, catalog.Len())

	_, err = Fetch(context.Background(), client, srv.URL+"/wmts/missing.xml", zerolog.Nop())
	var transportErr *wmtserr.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusNotFound, transportErr.StatusCode)
	assert.Equal(t, "url does not exist (HTTP 404): "+srv.URL+"/wmts/missing.xml", err.Error())
}
