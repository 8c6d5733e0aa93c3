package tms

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/pdok/wmtsclient/mapslicehelp"
	"github.com/pdok/wmtsclient/wmtserr"
)

// Layer is one queryable raster dataset of the service.
type Layer struct {
	Title           string   `json:"title"`
	Abstract        string   `json:"abstract,omitempty"`
	Identifier      string   `validate:"required" json:"identifier"`
	TileMatrixSetID string   `validate:"required" json:"tileMatrixSet"`
	Styles          []string `json:"styles,omitempty"`
	Formats         []string `json:"formats,omitempty"`
	// Resolved TileMatrixSetID
	TileMatrixSet *TileMatrixSet `validate:"required" json:"-"`
}

// DefaultStyle is the first advertised style. The capabilities builder puts the style
// flagged isDefault first. Empty when the layer advertises none.
func (l *Layer) DefaultStyle() string {
	if len(l.Styles) == 0 {
		return ""
	}
	return l.Styles[0]
}

func (l *Layer) String() string {
	return "Title: " + l.Title +
		"\nAbstract: " + l.Abstract +
		"\nIdentifier: " + l.Identifier +
		"\nTileMatrixSetIdentifier: " + l.TileMatrixSetID
}

// Catalog holds the layers of one service, in the order of the capabilities document.
// It is filled once and only read afterwards.
type Catalog struct {
	layers *orderedmap.OrderedMap[string, *Layer]
}

func NewCatalog() *Catalog {
	return &Catalog{layers: orderedmap.New[string, *Layer]()}
}

// Add validates the layer and stores it, replacing a layer with the same identifier.
func (c *Catalog) Add(layer *Layer) error {
	if err := validate.Struct(layer); err != nil {
		return fmt.Errorf("layer %q: %w", layer.Identifier, err)
	}
	if layer.TileMatrixSet.ID != layer.TileMatrixSetID {
		return fmt.Errorf("layer %q: links tile matrix set %q but holds %q",
			layer.Identifier, layer.TileMatrixSetID, layer.TileMatrixSet.ID)
	}
	if err := layer.TileMatrixSet.Validate(); err != nil {
		return fmt.Errorf("layer %q: %w", layer.Identifier, err)
	}
	c.layers.Set(layer.Identifier, layer)
	return nil
}

func (c *Catalog) Layer(identifier string) (*Layer, error) {
	layer, ok := c.layers.Get(identifier)
	if !ok {
		return nil, &wmtserr.LayerNotFoundError{Identifier: identifier}
	}
	return layer, nil
}

func (c *Catalog) Len() int {
	return c.layers.Len()
}

func (c *Catalog) Identifiers() []string {
	return mapslicehelp.OrderedMapKeys(c.layers)
}

func (c *Catalog) Layers() []*Layer {
	return mapslicehelp.OrderedMapValues(c.layers)
}

// TileMatrixSets returns the distinct tile matrix sets used by the layers, sorted by identifier.
func (c *Catalog) TileMatrixSets() []*TileMatrixSet {
	seen := make(map[string]*TileMatrixSet)
	for p := c.layers.Oldest(); p != nil; p = p.Next() {
		seen[p.Value.TileMatrixSetID] = p.Value.TileMatrixSet
	}
	sets := make([]*TileMatrixSet, 0, len(seen))
	for _, set := range seen {
		sets = append(sets, set)
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].ID < sets[j].ID })
	return sets
}

type catalogJSON struct {
	Layers         []*Layer         `json:"layers"`
	TileMatrixSets []*TileMatrixSet `json:"tileMatrixSets"`
}

func (c *Catalog) MarshalJSON() ([]byte, error) {
	return json.Marshal(catalogJSON{
		Layers:         c.Layers(),
		TileMatrixSets: c.TileMatrixSets(),
	})
}

func (c *Catalog) UnmarshalJSON(data []byte) error {
	var raw catalogJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	sets := make(map[string]*TileMatrixSet, len(raw.TileMatrixSets))
	for i, set := range raw.TileMatrixSets {
		if set == nil {
			return fmt.Errorf("tile matrix set %d is null", i)
		}
		sets[set.ID] = set
	}
	c.layers = orderedmap.New[string, *Layer]()
	for i, layer := range raw.Layers {
		if layer == nil {
			return fmt.Errorf("layer %d is null", i)
		}
		set, ok := sets[layer.TileMatrixSetID]
		if !ok {
			return fmt.Errorf("layer %q: unknown tile matrix set %q", layer.Identifier, layer.TileMatrixSetID)
		}
		layer.TileMatrixSet = set
		if err := c.Add(layer); err != nil {
			return err
		}
	}
	return nil
}

// LoadCatalogJSON reads a catalog previously written with WriteCatalogJSON.
func LoadCatalogJSON(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	catalog := NewCatalog()
	if err = json.Unmarshal(data, catalog); err != nil {
		return nil, fmt.Errorf("could not read catalog %s: %w", path, err)
	}
	return catalog, nil
}

func WriteCatalogJSON(catalog *Catalog, path string) error {
	data, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
