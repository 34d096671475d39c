// Package raster crops regions out of raster images, including individual
// frames of multi-page TIFFs.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"math"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/spherical/figure-extractor/internal/domain"
)

// Cropper crops pixel boxes out of image files.
type Cropper struct{}

// NewCropper creates a new raster cropper.
func NewCropper() *Cropper {
	return &Cropper{}
}

// CropFile opens path, selects frame for TIFF containers and crops box
// (pixels, top-left origin). frame is ignored for single-image formats.
func (c *Cropper) CropFile(path string, frame int, box domain.BoundingBox) (image.Image, error) {
	if !box.Valid() {
		return nil, invalidBox(box)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, domain.IOError(fmt.Sprintf("cannot open image: %s", path), err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, domain.IOError(fmt.Sprintf("cannot stat image: %s", path), err)
	}

	img, err := decode(f, info.Size(), frame)
	if err != nil {
		return nil, err
	}
	return Crop(img, box)
}

// CropBytes is CropFile for an in-memory image.
func (c *Cropper) CropBytes(data []byte, frame int, box domain.BoundingBox) (image.Image, error) {
	if !box.Valid() {
		return nil, invalidBox(box)
	}
	img, err := decode(bytes.NewReader(data), int64(len(data)), frame)
	if err != nil {
		return nil, err
	}
	return Crop(img, box)
}

// Crop copies box out of img into a new image anchored at the origin.
func Crop(img image.Image, box domain.BoundingBox) (image.Image, error) {
	if !box.Valid() {
		return nil, invalidBox(box)
	}
	rect := image.Rect(
		int(math.Floor(box.X0)),
		int(math.Floor(box.Y0)),
		int(math.Ceil(box.X1)),
		int(math.Ceil(box.Y1)),
	).Add(img.Bounds().Min)

	if rect.Intersect(img.Bounds()).Empty() {
		return nil, domain.RangeError(
			fmt.Sprintf("region (%g,%g)-(%g,%g) lies outside the %dx%d image",
				box.X0, box.Y0, box.X1, box.Y1, img.Bounds().Dx(), img.Bounds().Dy()), nil)
	}
	return imaging.Crop(img, rect), nil
}

type readerAtSeeker interface {
	io.ReaderAt
	io.ReadSeeker
}

func decode(r readerAtSeeker, size int64, frame int) (image.Image, error) {
	head := make([]byte, 4)
	if _, err := r.ReadAt(head, 0); err != nil {
		return nil, domain.DecodeError("image is too short", err)
	}

	if order := string(head[:2]); order == "II" || order == "MM" {
		return DecodeTIFFFrame(r, size, frame)
	}

	img, err := imaging.Decode(r)
	if err != nil {
		return nil, domain.DecodeError("unsupported or corrupt image", err)
	}
	return img, nil
}

func invalidBox(box domain.BoundingBox) error {
	return domain.ValidationError(
		fmt.Sprintf("invalid region (%g,%g)-(%g,%g)", box.X0, box.Y0, box.X1, box.Y1), nil)
}
