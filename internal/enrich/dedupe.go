package enrich

import (
	"fmt"
	"strings"

	"github.com/spherical/figure-extractor/internal/analysis"
	"github.com/spherical/figure-extractor/internal/domain"
)

// regionFilter drops figure regions that should not become images: the
// caption's own region and regions already emitted for the same page.
type regionFilter struct {
	seen map[string]bool
}

func newRegionFilter() *regionFilter {
	return &regionFilter{seen: make(map[string]bool)}
}

// captionPolygon returns the polygon of the caption's last bounding region,
// or nil when the figure has no positioned caption.
func captionPolygon(fig analysis.Figure) domain.Polygon {
	if fig.Caption == nil || len(fig.Caption.BoundingRegions) == 0 {
		return nil
	}
	return fig.Caption.BoundingRegions[len(fig.Caption.BoundingRegions)-1].Polygon
}

// keep reports whether region should be cropped and marks it as seen.
func (f *regionFilter) keep(region analysis.BoundingRegion, caption domain.Polygon) bool {
	if caption != nil && region.Polygon.Equal(caption) {
		return false
	}

	key := fmt.Sprintf("%d|%s", region.PageNumber, strings.Join(region.Polygon.Strings(), ","))
	if f.seen[key] {
		return false
	}
	f.seen[key] = true
	return true
}
