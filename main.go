package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/carlmjohnson/versioninfo"
	"github.com/iancoleman/strcase"
	"github.com/muesli/reflow/wordwrap"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"github.com/pdok/wmtsclient/capabilities"
	"github.com/pdok/wmtsclient/config"
	"github.com/pdok/wmtsclient/fetch"
	"github.com/pdok/wmtsclient/geomhelp"
	"github.com/pdok/wmtsclient/httpclient"
	"github.com/pdok/wmtsclient/logging"
	"github.com/pdok/wmtsclient/metrics"
	"github.com/pdok/wmtsclient/store"
	"github.com/pdok/wmtsclient/tms"
	"github.com/pdok/wmtsclient/wmts"
)

const CAPABILITIESURL string = `capabilitiesUrl`
const ENDPOINT string = `endpoint`
const CATALOG string = `catalog`
const TIMEOUT string = `timeout`
const LOGLEVEL string = `logLevel`
const LOGCONSOLE string = `logConsole`
const METRICSFILE string = `metricsFile`

const LAYER string = `layer`
const LEVEL string = `level`
const LAT string = `lat`
const LON string = `lon`
const BBOX string = `bbox`
const STYLE string = `style`
const FORMAT string = `format`
const WORKERS string = `workers`
const DIR string = `dir`
const PREFIX string = `prefix`
const FILTER string = `filter`
const WIDTH string = `width`
const OUTPUT string = `output`

type app struct {
	opts    *config.Options
	log     zerolog.Logger
	metrics *metrics.Provider
}

func main() {
	err := newApp().Run(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envVars(name string) []string {
	return []string{strcase.ToScreamingSnake(name)}
}

//nolint:funlen
func newApp() *cli.App {
	defaults, err := config.New()
	if err != nil {
		panic(err)
	}
	a := &app{}

	cliApp := cli.NewApp()
	cliApp.Name = "wmtsclient"
	cliApp.Usage = "Address and download WMTS tiles of the IGN Géoplateforme"
	cliApp.Version = versioninfo.Short()

	cliApp.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    CAPABILITIESURL,
			Usage:   "GetCapabilities document of the service",
			Value:   defaults.CapabilitiesURL,
			EnvVars: envVars(CAPABILITIESURL),
		},
		&cli.StringFlag{
			Name:    ENDPOINT,
			Usage:   "GetTile endpoint of the service",
			Value:   defaults.Endpoint,
			EnvVars: envVars(ENDPOINT),
		},
		&cli.StringFlag{
			Name:    CATALOG,
			Usage:   "Read layers from this catalog JSON (see the catalog command) instead of the capabilities",
			EnvVars: envVars(CATALOG),
		},
		&cli.DurationFlag{
			Name:    TIMEOUT,
			Usage:   "Timeout of each http request, 0 for none",
			Value:   defaults.Timeout,
			EnvVars: envVars(TIMEOUT),
		},
		&cli.StringFlag{
			Name:    LOGLEVEL,
			Usage:   "debug, info, warn, error or disabled",
			Value:   defaults.LogLevel,
			EnvVars: envVars(LOGLEVEL),
		},
		&cli.BoolFlag{
			Name:    LOGCONSOLE,
			Usage:   "Human readable logging instead of JSON",
			Value:   defaults.LogConsole,
			EnvVars: envVars(LOGCONSOLE),
		},
		&cli.StringFlag{
			Name:    METRICSFILE,
			Usage:   "Write Prometheus metrics to this file on exit",
			EnvVars: envVars(METRICSFILE),
		},
	}

	cliApp.Before = func(c *cli.Context) error {
		opts := *defaults
		opts.CapabilitiesURL = c.String(CAPABILITIESURL)
		opts.Endpoint = c.String(ENDPOINT)
		opts.CatalogFile = c.String(CATALOG)
		opts.Timeout = c.Duration(TIMEOUT)
		opts.LogLevel = c.String(LOGLEVEL)
		opts.LogConsole = c.Bool(LOGCONSOLE)
		opts.MetricsFile = c.String(METRICSFILE)
		a.opts = &opts
		a.log = logging.Build(logging.Config{Level: opts.LogLevel, Console: opts.LogConsole}, c.App.ErrWriter)
		a.metrics = metrics.Init(metrics.BuildInfo{Version: versioninfo.Version, Revision: versioninfo.Revision})
		return nil
	}
	cliApp.After = func(_ *cli.Context) error {
		if a.opts == nil || a.opts.MetricsFile == "" {
			return nil
		}
		return a.metrics.WriteToTextfile(a.opts.MetricsFile)
	}

	layerFlag := &cli.StringFlag{
		Name:     LAYER,
		Aliases:  []string{"l"},
		Usage:    "Layer identifier, e.g. ORTHOIMAGERY.ORTHOPHOTOS",
		Required: true,
		EnvVars:  envVars(LAYER),
	}
	levelFlag := &cli.StringFlag{
		Name:     LEVEL,
		Aliases:  []string{"z"},
		Usage:    "Tile matrix identifier (zoom level), e.g. 19",
		Required: true,
		EnvVars:  envVars(LEVEL),
	}
	latFlag := &cli.Float64Flag{Name: LAT, Usage: "WGS84 latitude"}
	lonFlag := &cli.Float64Flag{Name: LON, Usage: "WGS84 longitude"}
	bboxFlag := &cli.StringFlag{
		Name:  BBOX,
		Usage: "WGS84 bounding box minLon,minLat,maxLon,maxLat",
	}

	cliApp.Commands = []*cli.Command{
		{
			Name:  "layers",
			Usage: "List the layers of the service",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: FILTER, Aliases: []string{"f"}, Usage: "Only layers whose identifier or title contains this"},
				&cli.UintFlag{Name: WIDTH, Value: 100, Usage: "Wrap abstracts at this width, 0 to not wrap"},
			},
			Action: a.layers,
		},
		{
			Name:  "catalog",
			Usage: "Write the layers and tile matrix sets of the service as JSON",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: OUTPUT, Aliases: []string{"o"}, Required: true, Usage: "Catalog JSON file"},
			},
			Action: a.catalog,
		},
		{
			Name:   "tile",
			Usage:  "Address the tile containing a WGS84 point",
			Flags:  []cli.Flag{layerFlag, levelFlag, latFlag, lonFlag},
			Action: a.tile,
		},
		{
			Name:   "range",
			Usage:  "Address the tiles covering a WGS84 bounding box",
			Flags:  []cli.Flag{layerFlag, levelFlag, bboxFlag},
			Action: a.tileRange,
		},
		{
			Name:  "fetch",
			Usage: "Download the tiles of a point or a bounding box",
			Flags: []cli.Flag{
				layerFlag, levelFlag, latFlag, lonFlag, bboxFlag,
				&cli.StringFlag{Name: DIR, Aliases: []string{"d"}, Required: true, Usage: "Existing directory to save tiles in", EnvVars: envVars(DIR)},
				&cli.StringFlag{Name: STYLE, Usage: "Style, defaults to the default style of the layer", EnvVars: envVars(STYLE)},
				&cli.StringFlag{Name: FORMAT, Usage: "Format, defaults to the first format of the layer", EnvVars: envVars(FORMAT)},
				&cli.IntFlag{Name: WORKERS, Aliases: []string{"w"}, Value: defaults.Workers, Usage: "Concurrent requests", EnvVars: envVars(WORKERS)},
				&cli.StringFlag{Name: PREFIX, Value: defaults.FilePrefix, Usage: "File name prefix", EnvVars: envVars(PREFIX)},
			},
			Action: a.fetch,
		},
	}
	return cliApp
}

func (a *app) loadCatalog(ctx context.Context) (*tms.Catalog, error) {
	if err := a.opts.Validate(); err != nil {
		return nil, err
	}
	if a.opts.CatalogFile != "" {
		a.log.Debug().Str("file", a.opts.CatalogFile).Msg("reading catalog")
		return tms.LoadCatalogJSON(a.opts.CatalogFile)
	}
	a.log.Debug().Str("url", a.opts.CapabilitiesURL).Msg("reading capabilities")
	return capabilities.Fetch(ctx, httpclient.NewOutbound(a.opts.Timeout), a.opts.CapabilitiesURL, a.log)
}

func (a *app) loadLayer(c *cli.Context) (*tms.Layer, error) {
	catalog, err := a.loadCatalog(c.Context)
	if err != nil {
		return nil, err
	}
	return catalog.Layer(c.String(LAYER))
}

func (a *app) layers(c *cli.Context) error {
	catalog, err := a.loadCatalog(c.Context)
	if err != nil {
		return err
	}
	filter := strings.ToLower(c.String(FILTER))
	layers := lo.Filter(catalog.Layers(), func(l *tms.Layer, _ int) bool {
		return filter == "" ||
			strings.Contains(strings.ToLower(l.Identifier), filter) ||
			strings.Contains(strings.ToLower(l.Title), filter)
	})
	width := c.Uint(WIDTH)
	for _, layer := range layers {
		text := layer.String()
		if width > 0 {
			text = wordwrap.String(text, int(width))
		}
		fmt.Fprintln(c.App.Writer, "===")
		fmt.Fprintln(c.App.Writer, text)
	}
	a.log.Info().Int("layers", len(layers)).Int("total", catalog.Len()).Msg("listed layers")
	return nil
}

func (a *app) catalog(c *cli.Context) error {
	catalog, err := a.loadCatalog(c.Context)
	if err != nil {
		return err
	}
	if err = tms.WriteCatalogJSON(catalog, c.String(OUTPUT)); err != nil {
		return err
	}
	a.log.Info().Str("file", c.String(OUTPUT)).Int("layers", catalog.Len()).Msg("catalog written")
	return nil
}

func requirePoint(c *cli.Context) (tms.GeoPoint, error) {
	if !c.IsSet(LAT) || !c.IsSet(LON) {
		return tms.GeoPoint{}, fmt.Errorf("both --%s and --%s are required", LAT, LON)
	}
	return tms.GeoPoint{Lat: c.Float64(LAT), Lon: c.Float64(LON)}, nil
}

func (a *app) tile(c *cli.Context) error {
	pt, err := requirePoint(c)
	if err != nil {
		return err
	}
	layer, err := a.loadLayer(c)
	if err != nil {
		return err
	}
	set, level := layer.TileMatrixSet, c.String(LEVEL)
	tile, err := set.FromGeographic(pt, level)
	if err != nil {
		return err
	}
	origin, err := set.ToGeographic(tile, level)
	if err != nil {
		return err
	}
	center, err := set.Center(tile, level)
	if err != nil {
		return err
	}
	extent, err := set.Extent(level, tile)
	if err != nil {
		return err
	}
	w := c.App.Writer
	fmt.Fprintf(w, "tile: %s\n", tile)
	fmt.Fprintf(w, "tile matrix set: %s (%s) level %s\n", set.ID, set.CRS, level)
	fmt.Fprintf(w, "top left: %s\n", origin)
	fmt.Fprintf(w, "center: %s\n", center)
	fmt.Fprintf(w, "extent: %s\n", geomhelp.WktMustEncode(geomhelp.ExtentPolygon(extent), 0))
	return nil
}

// parseBBox reads minLon,minLat,maxLon,maxLat.
func parseBBox(s string) (tms.BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return tms.BoundingBox{}, fmt.Errorf("bounding box %q should be minLon,minLat,maxLon,maxLat", s)
	}
	var errs []error
	values := lo.Map(parts, func(part string, _ int) float64 {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	})
	if err := errors.Join(errs...); err != nil {
		return tms.BoundingBox{}, fmt.Errorf("bounding box %q: %w", s, err)
	}
	bbox := tms.NewBoundingBox(values[2], values[3], values[0], values[1])
	return bbox, bbox.Validate()
}

func (a *app) tileRange(c *cli.Context) error {
	bbox, err := parseBBox(c.String(BBOX))
	if err != nil {
		return err
	}
	layer, err := a.loadLayer(c)
	if err != nil {
		return err
	}
	job, err := fetch.JobForBoundingBox(layer, bbox, c.String(LEVEL))
	if err != nil {
		return err
	}
	w := c.App.Writer
	fmt.Fprintf(w, "ne: %s\nsw: %s\n%s\n", job.Range.NE, job.Range.SW, job.Range)
	for tile := range job.Range.All() {
		fmt.Fprintln(w, tile)
	}
	return nil
}

func (a *app) fetch(c *cli.Context) error {
	// before the capabilities are requested
	if err := store.CheckDir(c.String(DIR)); err != nil {
		return err
	}
	layer, err := a.loadLayer(c)
	if err != nil {
		return err
	}
	var job fetch.Job
	switch {
	case c.IsSet(BBOX):
		bbox, err := parseBBox(c.String(BBOX))
		if err != nil {
			return err
		}
		job, err = fetch.JobForBoundingBox(layer, bbox, c.String(LEVEL))
		if err != nil {
			return err
		}
	default:
		pt, err := requirePoint(c)
		if err != nil {
			return fmt.Errorf("%w, or --%s", err, BBOX)
		}
		job, err = fetch.JobForPoint(layer, pt, c.String(LEVEL))
		if err != nil {
			return err
		}
	}

	if c.IsSet(STYLE) {
		a.opts.Style = c.String(STYLE)
	}
	switch {
	case c.IsSet(FORMAT):
		a.opts.Format = c.String(FORMAT)
	case len(layer.Formats) > 0:
		a.opts.Format = layer.Formats[0]
	}
	a.opts.Workers = c.Int(WORKERS)
	a.opts.FilePrefix = c.String(PREFIX)
	if err = a.opts.Validate(); err != nil {
		return err
	}

	client := wmts.NewClient(a.opts.Endpoint, httpclient.NewOutbound(a.opts.Timeout))
	orchestrator := fetch.New(client, fetch.Options{
		// an unset style falls back to the default style of the layer
		Style:      lo.Ternary(c.IsSet(STYLE), a.opts.Style, ""),
		Format:     a.opts.Format,
		Workers:    a.opts.Workers,
		FilePrefix: a.opts.FilePrefix,
	}, a.log, a.metrics)

	paths, err := orchestrator.SaveRange(c.Context, job, c.String(DIR))
	if err != nil {
		return err
	}
	printPaths(c.App.Writer, paths)
	a.log.Info().Int("tiles", len(paths)).Str("dir", c.String(DIR)).Msg("tiles saved")
	return nil
}

func printPaths(w io.Writer, paths []string) {
	for _, path := range paths {
		fmt.Fprintln(w, path)
	}
}
