// Package pdf renders regions of PDF pages to pixels using MuPDF.
package pdf

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"

	"github.com/spherical/figure-extractor/internal/domain"
)

// RenderDPI is the fixed output resolution of every PDF crop.
const RenderDPI = 300.0

const pointsPerInch = 72.0

// Pages is the subset of a MuPDF document the rasterizer needs.
type Pages interface {
	NumPage() int
	ImageDPI(pageNumber int, dpi float64) (*image.RGBA, error)
}

// Rasterizer renders page regions at RenderDPI.
type Rasterizer struct {
	validator *Validator
}

// NewRasterizer creates a new rasterizer instance
func NewRasterizer() *Rasterizer {
	return &Rasterizer{validator: NewValidator()}
}

// OpenFile opens a PDF on disk. The caller owns the returned handle.
func (r *Rasterizer) OpenFile(path string) (*fitz.Document, error) {
	if err := r.validator.ValidatePath(path); err != nil {
		return nil, err
	}
	doc, err := fitz.New(path)
	if err != nil {
		return nil, domain.DecodeError("failed to open PDF", err)
	}
	return doc, nil
}

// OpenMemory opens an in-memory PDF. The caller owns the returned handle.
func (r *Rasterizer) OpenMemory(data []byte) (*fitz.Document, error) {
	if err := r.validator.ValidateBytes(data); err != nil {
		return nil, err
	}
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, domain.DecodeError("failed to open PDF from memory", err)
	}
	return doc, nil
}

// RenderRegion renders box (in points, top-left origin) of the 0-indexed page
// of doc. doc is borrowed and left open.
func (r *Rasterizer) RenderRegion(doc Pages, page int, box domain.BoundingBox) (image.Image, error) {
	if !box.Valid() {
		return nil, domain.ValidationError(
			fmt.Sprintf("invalid region (%g,%g)-(%g,%g)", box.X0, box.Y0, box.X1, box.Y1), nil)
	}
	if n := doc.NumPage(); page < 0 || page >= n {
		return nil, domain.RangeError(fmt.Sprintf("page %d out of range, document has %d pages", page, n), nil)
	}

	full, err := doc.ImageDPI(page, RenderDPI)
	if err != nil {
		return nil, domain.ConversionError(fmt.Sprintf("failed to render page %d", page+1), err)
	}

	rect := pixelRect(box).Add(full.Bounds().Min)
	if rect.Intersect(full.Bounds()).Empty() {
		return nil, domain.RangeError(fmt.Sprintf("region lies outside page %d", page+1), nil)
	}

	return imaging.Crop(full, rect), nil
}

// RenderFile opens path, renders one region and closes the document on every
// path.
func (r *Rasterizer) RenderFile(path string, page int, box domain.BoundingBox) (image.Image, error) {
	doc, err := r.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	return r.RenderRegion(doc, page, box)
}

// pixelRect scales a point-space box to RenderDPI, rounding outward.
func pixelRect(box domain.BoundingBox) image.Rectangle {
	const eps = 1e-6
	scale := func(v float64) float64 { return v * RenderDPI / pointsPerInch }
	return image.Rect(
		int(math.Floor(scale(box.X0)+eps)),
		int(math.Floor(scale(box.Y0)+eps)),
		int(math.Ceil(scale(box.X1)-eps)),
		int(math.Ceil(scale(box.Y1)-eps)),
	)
}
