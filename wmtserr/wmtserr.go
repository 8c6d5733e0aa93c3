// Package wmtserr holds the closed set of error kinds returned by the wmts client.
// Every error carries structured fields instead of a preformatted message,
// use errors.As or KindOf to inspect them.
package wmtserr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindTransport
	KindUnsupportedProjection
	KindLevelNotFound
	KindInvalidDestination
	KindInvalidBoundingBox
	KindLayerNotFound
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "Transport"
	case KindUnsupportedProjection:
		return "UnsupportedProjection"
	case KindLevelNotFound:
		return "LevelNotFound"
	case KindInvalidDestination:
		return "InvalidDestination"
	case KindInvalidBoundingBox:
		return "InvalidBoundingBox"
	case KindLayerNotFound:
		return "LayerNotFound"
	default:
		return "Unknown"
	}
}

type kinded interface {
	Kind() Kind
}

// KindOf returns the kind of the first error in err's chain that has one.
func KindOf(err error) Kind {
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindUnknown
}

// TransportError is a network failure or a non-2xx response from the service.
// StatusCode is 0 when no response was received.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode == 404:
		return fmt.Sprintf("url does not exist (HTTP 404): %s", e.URL)
	case e.StatusCode != 0:
		return fmt.Sprintf("url request error (HTTP %d): %s", e.StatusCode, e.URL)
	case e.Err != nil:
		return fmt.Sprintf("url request error: %s: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("url request error: %s", e.URL)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }
func (e *TransportError) Kind() Kind    { return KindTransport }

type UnsupportedProjectionError struct {
	CRS string
}

func (e *UnsupportedProjectionError) Error() string {
	return fmt.Sprintf("projection not supported: %q", e.CRS)
}

func (e *UnsupportedProjectionError) Kind() Kind { return KindUnsupportedProjection }

// LevelNotFoundError means the level is absent from a tile matrix set or resolution table.
type LevelNotFoundError struct {
	TileMatrixSet string
	Level         string
}

func (e *LevelNotFoundError) Error() string {
	if e.TileMatrixSet == "" {
		return fmt.Sprintf("level %q not found", e.Level)
	}
	return fmt.Sprintf("level %q not found in tile matrix set %q", e.Level, e.TileMatrixSet)
}

func (e *LevelNotFoundError) Kind() Kind { return KindLevelNotFound }

type InvalidDestinationError struct {
	Path string
	Err  error
}

func (e *InvalidDestinationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid destination %q: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("path does not exist: %q", e.Path)
}

func (e *InvalidDestinationError) Unwrap() error { return e.Err }
func (e *InvalidDestinationError) Kind() Kind    { return KindInvalidDestination }

type InvalidBoundingBoxError struct {
	NELon, NELat, SWLon, SWLat float64
	Reason                     string
}

func (e *InvalidBoundingBoxError) Error() string {
	return fmt.Sprintf("invalid bounding box (NE %v,%v SW %v,%v): %s",
		e.NELon, e.NELat, e.SWLon, e.SWLat, e.Reason)
}

func (e *InvalidBoundingBoxError) Kind() Kind { return KindInvalidBoundingBox }

type LayerNotFoundError struct {
	Identifier string
}

func (e *LayerNotFoundError) Error() string {
	return fmt.Sprintf("layer %q not found in catalog", e.Identifier)
}

func (e *LayerNotFoundError) Kind() Kind { return KindLayerNotFound }
