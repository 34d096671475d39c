package domain

import (
	"context"
	"image"
)

// Cropper produces the pixel image of one region of one page or frame
type Cropper interface {
	// Crop dispatches on the source kind. page is 0-indexed; box is in points
	// for PDF sources and in pixels for raster sources.
	Crop(ctx context.Context, source string, page int, box BoundingBox) (image.Image, error)
}

// ImageStore persists encoded figure images
type ImageStore interface {
	// Save writes data under dir/name with the given metadata and returns
	// the location of the stored object
	Save(ctx context.Context, dir, name string, data []byte, meta ImageMetadata) (string, error)
}
