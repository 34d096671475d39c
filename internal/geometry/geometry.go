// Package geometry converts analysis-service polygons into crop boxes.
package geometry

import (
	"fmt"
	"math"

	"github.com/spherical/figure-extractor/internal/domain"
)

// PointsPerInch converts inches to PDF points.
const PointsPerInch = 72.0

// PolygonToBBox reads the first and third vertices of p as the top-left and
// bottom-right corners of the box. The second and fourth vertices are not
// consulted; CheckAxisAligned reports when that approximation is lossy.
func PolygonToBBox(p domain.Polygon) (domain.BoundingBox, error) {
	if len(p) < 6 {
		return domain.BoundingBox{}, domain.ValidationError(
			fmt.Sprintf("polygon needs at least 6 coordinates, got %d", len(p)), nil)
	}
	for _, v := range p[:6] {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.BoundingBox{}, domain.ValidationError("polygon has non-finite coordinates", nil)
		}
		if math.Abs(v) > domain.MaxCoordinate {
			return domain.BoundingBox{}, domain.ValidationError(
				fmt.Sprintf("polygon coordinate %g exceeds %d", v, domain.MaxCoordinate), nil)
		}
	}
	return domain.BoundingBox{X0: p[0], Y0: p[1], X1: p[4], Y1: p[5]}, nil
}

// CheckAxisAligned verifies that a four-vertex polygon in TL, TR, BR, BL order
// is an axis-aligned rectangle. tolerance is relative to the larger box side.
func CheckAxisAligned(p domain.Polygon, tolerance float64) error {
	if len(p) < 8 {
		return domain.ValidationError(
			fmt.Sprintf("axis check needs 8 coordinates, got %d", len(p)), nil)
	}

	box := domain.BoundingBox{X0: p[0], Y0: p[1], X1: p[4], Y1: p[5]}
	slack := tolerance * math.Max(math.Abs(box.Width()), math.Abs(box.Height()))

	// TR shares y with TL and x with BR; BL shares x with TL and y with BR.
	checks := []struct {
		got, want float64
		what      string
	}{
		{p[2], box.X1, "top-right x"},
		{p[3], box.Y0, "top-right y"},
		{p[6], box.X0, "bottom-left x"},
		{p[7], box.Y1, "bottom-left y"},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > slack {
			return domain.ValidationError(
				fmt.Sprintf("polygon is not axis-aligned: %s is %g, expected %g", c.what, c.got, c.want), nil)
		}
	}
	return nil
}

// ToPoints converts a box expressed in an analysis-service page unit to the
// unit the cropper consumes: points for PDFs, pixels for images.
func ToPoints(box domain.BoundingBox, unit string) (domain.BoundingBox, error) {
	switch unit {
	case "inch":
		return box.Scale(PointsPerInch), nil
	case "pixel", "point", "":
		return box, nil
	default:
		return domain.BoundingBox{}, domain.ValidationError("unsupported length unit: "+unit, nil)
	}
}
