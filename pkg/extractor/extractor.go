// Package extractor is the library entry point for cropping figure regions
// out of PDF and raster documents.
package extractor

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"time"

	"github.com/spherical/figure-extractor/internal/config"
	"github.com/spherical/figure-extractor/internal/crop"
	"github.com/spherical/figure-extractor/internal/domain"
	"github.com/spherical/figure-extractor/internal/geometry"
	"github.com/spherical/figure-extractor/internal/observability"
	"github.com/spherical/figure-extractor/internal/source"
)

// Re-export geometry and error types for public API
type (
	Polygon     = domain.Polygon
	BoundingBox = domain.BoundingBox
	Error       = domain.DomainError
	ErrorType   = domain.ErrorType
)

// Error kind constants
const (
	ErrorTypeValidation = domain.ErrorTypeValidation
	ErrorTypeNetwork    = domain.ErrorTypeNetwork
	ErrorTypeTimeout    = domain.ErrorTypeTimeout
	ErrorTypeRange      = domain.ErrorTypeRange
	ErrorTypeDecode     = domain.ErrorTypeDecode
	ErrorTypeConversion = domain.ErrorTypeConversion
	ErrorTypeIO         = domain.ErrorTypeIO
)

// Units accepted by CropPolygon.
const (
	UnitInch  = "inch"
	UnitPixel = "pixel"
	UnitPoint = "point"
)

// Config holds configuration options for the client
type Config struct {
	FetchTimeout  time.Duration // per remote download, default 60s
	MaxFetchBytes int64         // remote document size cap, default 200MB
	HTTPClient    *http.Client  // optional
	Logger        *observability.Logger
}

// Client crops regions out of local files and remote PDFs.
type Client struct {
	cropper domain.Cropper
}

// New creates a new extractor client
func New(cfg Config) *Client {
	defaults := config.DefaultConfig().Fetch
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaults.Timeout
	}
	if cfg.MaxFetchBytes <= 0 {
		cfg.MaxFetchBytes = defaults.MaxBytes
	}
	loader := source.NewLoader(source.LoaderConfig{
		Timeout:  cfg.FetchTimeout,
		MaxBytes: cfg.MaxFetchBytes,
	}, cfg.HTTPClient, cfg.Logger)

	return &Client{cropper: crop.NewCropper(loader, cfg.Logger)}
}

// NewFromConfigFile builds a client from the fetch section of a config file,
// .env and environment overrides. An empty path skips the file.
func NewFromConfigFile(path string) (*Client, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Observability.LogLevel,
		Format: cfg.Observability.LogFormat,
	})
	return New(Config{
		FetchTimeout:  cfg.Fetch.Timeout,
		MaxFetchBytes: cfg.Fetch.MaxBytes,
		Logger:        logger,
	}), nil
}

// CropPolygon crops the region described by an analysis polygon from the
// 1-indexed page (or TIFF frame) of source. unit is the polygon's unit:
// inch for PDF pages, pixel for images.
func (c *Client) CropPolygon(ctx context.Context, source string, pageNumber int, polygon Polygon, unit string) (image.Image, error) {
	if pageNumber < 1 {
		return nil, domain.RangeError(fmt.Sprintf("page number %d must be 1 or greater", pageNumber), nil)
	}
	box, err := geometry.PolygonToBBox(polygon)
	if err != nil {
		return nil, err
	}
	box, err = geometry.ToPoints(box, unit)
	if err != nil {
		return nil, err
	}
	return c.CropBox(ctx, source, pageNumber-1, box)
}

// CropBox crops box from the 0-indexed page of source. The box is in PDF
// points for PDF sources and pixels for raster sources.
func (c *Client) CropBox(ctx context.Context, source string, page int, box BoundingBox) (image.Image, error) {
	return c.cropper.Crop(ctx, source, page, box)
}

// CropPNG is CropPolygon followed by PNG encoding.
func (c *Client) CropPNG(ctx context.Context, source string, pageNumber int, polygon Polygon, unit string) ([]byte, error) {
	img, err := c.CropPolygon(ctx, source, pageNumber, polygon, unit)
	if err != nil {
		return nil, err
	}
	return crop.EncodePNG(img)
}

// IsType reports whether err is an extractor error of the given kind.
func IsType(err error, errType ErrorType) bool {
	return domain.IsType(err, errType)
}
