// Package fetch requests the tiles of a tile range and collects them in memory or on disk.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"iter"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdok/wmtsclient/codec"
	"github.com/pdok/wmtsclient/metrics"
	"github.com/pdok/wmtsclient/store"
	"github.com/pdok/wmtsclient/tms"
	"github.com/pdok/wmtsclient/wmts"
)

const (
	fallbackStyle  = "normal"
	fallbackFormat = codec.FormatJPEG
)

type Options struct {
	// Empty means the default style of the layer
	Style string
	// Empty means the first format of the layer
	Format string
	// Concurrent requests, 1 or less fetches sequentially
	Workers int
	// File name prefix of saved tiles, empty means store.DefaultPrefix
	FilePrefix string
}

// Job is a tile range of one layer at one level.
type Job struct {
	Layer *tms.Layer
	Level string
	Range tms.TileRange
}

// JobForPoint is the single tile containing pt.
func JobForPoint(layer *tms.Layer, pt tms.GeoPoint, level string) (Job, error) {
	tile, err := layer.TileMatrixSet.FromGeographic(pt, level)
	if err != nil {
		return Job{}, err
	}
	return Job{Layer: layer, Level: level, Range: tms.TileRange{NE: tile, SW: tile}}, nil
}

// JobForBoundingBox covers bbox with tiles.
func JobForBoundingBox(layer *tms.Layer, bbox tms.BoundingBox, level string) (Job, error) {
	r, err := layer.TileMatrixSet.RangeFor(bbox, level)
	if err != nil {
		return Job{}, err
	}
	return Job{Layer: layer, Level: level, Range: r}, nil
}

func (j Job) validate() error {
	if j.Layer == nil || j.Layer.TileMatrixSet == nil {
		return errors.New("job has no layer")
	}
	_, err := j.Layer.TileMatrixSet.TileMatrix(j.Level)
	return err
}

// Orchestrator fetches tile ranges through a Fetcher. Any failing tile fails the whole range.
type Orchestrator struct {
	fetcher Fetcher
	opts    Options
	log     zerolog.Logger
	metrics *metrics.Provider
}

// New creates an Orchestrator. m may be nil.
func New(fetcher Fetcher, opts Options, log zerolog.Logger, m *metrics.Provider) *Orchestrator {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Orchestrator{fetcher: fetcher, opts: opts, log: log, metrics: m}
}

func (o *Orchestrator) style(layer *tms.Layer) string {
	if o.opts.Style != "" {
		return o.opts.Style
	}
	if s := layer.DefaultStyle(); s != "" {
		return s
	}
	return fallbackStyle
}

func (o *Orchestrator) format(layer *tms.Layer) string {
	if o.opts.Format != "" {
		return o.opts.Format
	}
	if len(layer.Formats) > 0 {
		return layer.Formats[0]
	}
	return fallbackFormat
}

func (o *Orchestrator) request(job Job, tile tms.TileAddress) wmts.TileRequest {
	return wmts.TileRequest{
		Layer:         job.Layer.Identifier,
		Style:         o.style(job.Layer),
		Format:        o.format(job.Layer),
		TileMatrixSet: job.Layer.TileMatrixSetID,
		TileMatrix:    job.Level,
		Row:           tile.Row,
		Col:           tile.Col,
	}
}

func (o *Orchestrator) fetchTile(ctx context.Context, job Job, addr tms.TileAddress) (Tile, error) {
	req := o.request(job, addr)
	start := time.Now()
	data, err := o.fetcher.GetTile(ctx, req)
	o.metrics.ObserveTile(req.Layer, time.Since(start), len(data), err)
	if err != nil {
		return Tile{}, err
	}
	img, err := codec.DecodeImage(data, req.Format)
	if err != nil {
		return Tile{}, fmt.Errorf("tile %s of %s: %w", addr, req.Layer, err)
	}
	o.log.Debug().Str("layer", req.Layer).Str("level", req.TileMatrix).
		Int("col", addr.Col).Int("row", addr.Row).Int("bytes", len(data)).Msg("tile received")
	return Tile{Address: addr, Data: data, Image: img}, nil
}

// FetchTile fetches and decodes a single tile.
func (o *Orchestrator) FetchTile(ctx context.Context, layer *tms.Layer, level string, addr tms.TileAddress) (Tile, error) {
	job := Job{Layer: layer, Level: level, Range: tms.TileRange{NE: addr, SW: addr}}
	if err := job.validate(); err != nil {
		return Tile{}, err
	}
	return o.fetchTile(ctx, job, addr)
}

// forEach fetches every tile of the job and hands it to handle, stopping at the first error.
// With more than one worker tiles arrive in no particular order and handle must be safe for concurrent use.
func (o *Orchestrator) forEach(ctx context.Context, job Job, handle func(Tile) error) error {
	if o.opts.Workers == 1 {
		for addr := range job.Range.All() {
			tile, err := o.fetchTile(ctx, job, addr)
			if err != nil {
				return err
			}
			if err = handle(tile); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Workers)
	for addr := range job.Range.All() {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			tile, err := o.fetchTile(gctx, job, addr)
			if err != nil {
				return err
			}
			return handle(tile)
		})
	}
	return g.Wait()
}

// FetchRange returns all tiles of the range decoded, keyed by column then row.
// Every tile is held in memory at once.
func (o *Orchestrator) FetchRange(ctx context.Context, job Job) (map[int]map[int]image.Image, error) {
	images, err := o.fetchRange(ctx, job)
	o.metrics.ObserveRange("memory", err)
	return images, err
}

func (o *Orchestrator) fetchRange(ctx context.Context, job Job) (map[int]map[int]image.Image, error) {
	if err := job.validate(); err != nil {
		return nil, err
	}
	o.log.Info().Str("layer", job.Layer.Identifier).Str("level", job.Level).
		Stringer("range", job.Range).Msg("fetching tiles")

	images := make(map[int]map[int]image.Image, job.Range.Width())
	for col := job.Range.MinCol(); col <= job.Range.MaxCol(); col++ {
		images[col] = make(map[int]image.Image, job.Range.Height())
	}
	var mu sync.Mutex
	err := o.forEach(ctx, job, func(tile Tile) error {
		mu.Lock()
		defer mu.Unlock()
		images[tile.Address.Col][tile.Address.Row] = tile.Image
		return nil
	})
	if err != nil {
		return nil, err
	}
	return images, nil
}

// SaveRange writes every tile of the range to dir and returns the paths in range order.
// dir must exist, it is checked before the first request. When a tile fails, the files
// this call created are removed again. Files that existed before are overwritten and left in place.
func (o *Orchestrator) SaveRange(ctx context.Context, job Job, dir string) ([]string, error) {
	paths, err := o.saveRange(ctx, job, dir)
	o.metrics.ObserveRange("disk", err)
	return paths, err
}

func (o *Orchestrator) saveRange(ctx context.Context, job Job, dir string) ([]string, error) {
	s, err := store.NewDirStore(dir, o.opts.FilePrefix)
	if err != nil {
		return nil, err
	}
	if err = job.validate(); err != nil {
		return nil, err
	}
	ext, err := codec.Extension(o.format(job.Layer))
	if err != nil {
		return nil, err
	}
	o.log.Info().Str("layer", job.Layer.Identifier).Str("level", job.Level).
		Stringer("range", job.Range).Str("dir", dir).Msg("saving tiles")

	written := make(map[tms.TileAddress]string, job.Range.Count())
	var created []string
	var mu sync.Mutex
	err = o.forEach(ctx, job, func(tile Tile) error {
		path, isNew, err := s.Save(tile.Address.Col, tile.Address.Row, ext, tile.Data)
		if err != nil {
			return err
		}
		mu.Lock()
		written[tile.Address] = path
		if isNew {
			created = append(created, path)
		}
		mu.Unlock()
		o.metrics.TileSaved()
		o.log.Debug().Str("path", path).Msg("tile saved")
		return nil
	})
	if err != nil {
		o.rollback(s, created)
		return nil, err
	}

	paths := make([]string, 0, len(written))
	for addr := range job.Range.All() {
		paths = append(paths, written[addr])
	}
	return paths, nil
}

// rollback removes the files a failed range created. Files it overwrote keep the new tile.
func (o *Orchestrator) rollback(s *store.DirStore, paths []string) {
	if len(paths) == 0 {
		return
	}
	if err := s.Remove(paths...); err != nil {
		o.log.Error().Err(err).Msg("could not remove tiles of failed range")
		return
	}
	o.metrics.TilesRemoved(len(paths))
	o.log.Warn().Int("removed", len(paths)).Msg("removed tiles of failed range")
}

// SaveTile writes a single tile to dir and returns its path.
func (o *Orchestrator) SaveTile(ctx context.Context, layer *tms.Layer, level string, addr tms.TileAddress, dir string) (string, error) {
	paths, err := o.SaveRange(ctx, Job{Layer: layer, Level: level, Range: tms.TileRange{NE: addr, SW: addr}}, dir)
	if err != nil {
		return "", err
	}
	return paths[0], nil
}

// Tiles fetches the range lazily and sequentially, in range order. Iteration ends after the first error.
func (o *Orchestrator) Tiles(ctx context.Context, job Job) iter.Seq2[Tile, error] {
	return func(yield func(Tile, error) bool) {
		if err := job.validate(); err != nil {
			yield(Tile{}, err)
			return
		}
		for addr := range job.Range.All() {
			tile, err := o.fetchTile(ctx, job, addr)
			if !yield(tile, err) || err != nil {
				return
			}
		}
	}
}
