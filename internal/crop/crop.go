// Package crop dispatches region crops to the PDF or raster backend based on
// the kind of source document.
package crop

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"

	"github.com/spherical/figure-extractor/internal/domain"
	"github.com/spherical/figure-extractor/internal/observability"
	"github.com/spherical/figure-extractor/internal/pdf"
	"github.com/spherical/figure-extractor/internal/raster"
	"github.com/spherical/figure-extractor/internal/source"
)

// Cropper routes crops by source kind: remote URL, local PDF, then raster.
type Cropper struct {
	loader     *source.Loader
	rasterizer *pdf.Rasterizer
	images     *raster.Cropper
	logger     *observability.Logger
}

var _ domain.Cropper = (*Cropper)(nil)

// NewCropper creates a dispatcher that downloads remote sources with loader.
func NewCropper(loader *source.Loader, logger *observability.Logger) *Cropper {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Cropper{
		loader:     loader,
		rasterizer: pdf.NewRasterizer(),
		images:     raster.NewCropper(),
		logger:     logger.WithOperation("crop"),
	}
}

// Crop extracts box from the 0-indexed page (or TIFF frame) of src. Boxes are
// points for PDF sources and pixels for raster sources.
func (c *Cropper) Crop(ctx context.Context, src string, page int, box domain.BoundingBox) (image.Image, error) {
	if !box.Valid() {
		return nil, domain.ValidationError(
			fmt.Sprintf("invalid region (%g,%g)-(%g,%g)", box.X0, box.Y0, box.X1, box.Y1), nil)
	}

	d := source.Resolve(src)
	c.logger.Debug().Str("kind", d.Kind.String()).Bool("remote", d.Remote).Int("page", page).Msg("cropping region")

	switch {
	case d.Remote:
		doc, err := c.loader.OpenRemotePDF(ctx, src)
		if err != nil {
			return nil, err
		}
		defer doc.Close()
		return c.rasterizer.RenderRegion(doc, page, box)
	case d.Kind == source.KindPDF:
		return c.rasterizer.RenderFile(src, page, box)
	default:
		return c.images.CropFile(src, page, box)
	}
}

// Open loads src once for repeated crops. The returned Document must be
// closed and must not be shared between goroutines.
func (c *Cropper) Open(ctx context.Context, src string) (*Document, error) {
	d := source.Resolve(src)
	doc := &Document{desc: d, rasterizer: c.rasterizer, images: c.images}

	switch {
	case d.Remote:
		pdfDoc, err := c.loader.OpenRemotePDF(ctx, src)
		if err != nil {
			return nil, err
		}
		doc.pdf = pdfDoc
	case d.Kind == source.KindPDF:
		pdfDoc, err := c.rasterizer.OpenFile(src)
		if err != nil {
			return nil, err
		}
		doc.pdf = pdfDoc
	default:
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, domain.IOError(fmt.Sprintf("cannot read image: %s", src), err)
		}
		doc.image = data
	}
	return doc, nil
}

// Document is an open source document.
type Document struct {
	desc       source.Descriptor
	pdf        *fitz.Document
	image      []byte
	rasterizer *pdf.Rasterizer
	images     *raster.Cropper
}

// Kind returns the decoder family of the document.
func (d *Document) Kind() source.Kind { return d.desc.Kind }

// Crop extracts box from the 0-indexed page or frame.
func (d *Document) Crop(page int, box domain.BoundingBox) (image.Image, error) {
	if d.pdf != nil {
		return d.rasterizer.RenderRegion(d.pdf, page, box)
	}
	if d.image == nil {
		return nil, domain.IOError("document is closed", nil)
	}
	return d.images.CropBytes(d.image, page, box)
}

// Close releases the underlying handle. It is safe to call more than once.
func (d *Document) Close() error {
	d.image = nil
	if d.pdf == nil {
		return nil
	}
	err := d.pdf.Close()
	d.pdf = nil
	return err
}

// EncodePNG encodes img losslessly.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, domain.ConversionError("encode PNG", err)
	}
	return buf.Bytes(), nil
}
