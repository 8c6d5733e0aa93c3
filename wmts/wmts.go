// Package wmts requests tiles from a WMTS with GetTile key-value-pair requests.
package wmts

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdok/wmtsclient/httpclient"
)

// DefaultEndpoint is the IGN Géoplateforme WMTS.
const DefaultEndpoint = "https://data.geopf.fr/wmts"

// TileRequest identifies one tile of one layer.
type TileRequest struct {
	Layer         string
	Style         string
	Format        string
	TileMatrixSet string
	TileMatrix    string
	Row           int
	Col           int
}

type Client struct {
	endpoint string
	http     httpclient.Doer
}

func NewClient(endpoint string, http httpclient.Doer) *Client {
	return &Client{endpoint: strings.TrimRight(endpoint, "?"), http: http}
}

func BuildGetTileParams(req TileRequest) url.Values {
	params := url.Values{}
	params.Set("SERVICE", "WMTS")
	params.Set("REQUEST", "GetTile")
	params.Set("VERSION", "1.0.0")
	params.Set("LAYER", req.Layer)
	params.Set("STYLE", req.Style)
	params.Set("FORMAT", req.Format)
	params.Set("TILEMATRIXSET", req.TileMatrixSet)
	params.Set("TILEMATRIX", req.TileMatrix)
	params.Set("TILEROW", strconv.Itoa(req.Row))
	params.Set("TILECOL", strconv.Itoa(req.Col))
	return params
}

// TileURL is the GetTile url for req.
func (c *Client) TileURL(req TileRequest) string {
	sep := "?"
	if strings.Contains(c.endpoint, "?") {
		sep = "&"
	}
	return c.endpoint + sep + BuildGetTileParams(req).Encode()
}

// GetTile returns the encoded image bytes of one tile.
func (c *Client) GetTile(ctx context.Context, req TileRequest) ([]byte, error) {
	return httpclient.Get(ctx, c.http, c.TileURL(req))
}
