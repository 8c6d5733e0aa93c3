package fetch

import (
	"context"
	"image"

	"github.com/pdok/wmtsclient/tms"
	"github.com/pdok/wmtsclient/wmts"
)

// Fetcher returns the encoded bytes of one tile. *wmts.Client is one.
type Fetcher interface {
	GetTile(ctx context.Context, req wmts.TileRequest) ([]byte, error)
}

// Tile is one fetched and decoded tile.
type Tile struct {
	Address tms.TileAddress
	// Encoded as received
	Data  []byte
	Image image.Image
}
