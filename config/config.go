// Package config holds the settings of the wmtsclient cli.
// Defaults come from struct tags, command line flags and environment variables override them.
package config

import (
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"github.com/pdok/wmtsclient/codec"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("tileformat", func(fl validator.FieldLevel) bool {
		return codec.Supported(fl.Field().String())
	})
	return v
}

type Options struct {
	// GetCapabilities document of the service
	CapabilitiesURL string `default:"https://data.geopf.fr/annexes/ressources/wmts/ortho.xml" validate:"required,url"`
	// GetTile endpoint
	Endpoint string `default:"https://data.geopf.fr/wmts" validate:"required,url"`
	// Read the catalog from this JSON file instead of the capabilities document
	CatalogFile string

	Style  string `default:"normal" validate:"required"`
	Format string `default:"image/jpeg" validate:"required,tileformat"`

	// Concurrent GetTile requests of a range
	Workers int           `default:"1" validate:"min=1,max=32"`
	Timeout time.Duration `default:"30s" validate:"gte=0"`

	// File name prefix of saved tiles
	FilePrefix string `default:"IGN_WMTS" validate:"required,excludesall=/\\"`

	LogLevel   string `default:"info" validate:"oneof=debug info warn error disabled"`
	LogConsole bool   `default:"true"`
	// Write Prometheus metrics to this file when done
	MetricsFile string
}

// New returns options with all defaults set.
func New() (*Options, error) {
	opts := &Options{}
	if err := defaults.Set(opts); err != nil {
		return nil, err
	}
	return opts, nil
}

func (o *Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
