package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainErrorFormatting(t *testing.T) {
	err := IOError("open file", errors.New("no such file"))
	assert.Equal(t, "[io] open file: no such file", err.Error())

	bare := RangeError("page 3 out of range", nil)
	assert.Equal(t, "[range] page 3 out of range", bare.Error())
}

func TestTypeOfWrapped(t *testing.T) {
	inner := DecodeError("not a pdf", nil)
	wrapped := fmt.Errorf("crop figure 2: %w", inner)

	assert.Equal(t, ErrorTypeDecode, TypeOf(wrapped))
	assert.True(t, IsType(wrapped, ErrorTypeDecode))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(errors.New("plain")))
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transport failure", NetworkError("fetch", 0, errors.New("reset")), true},
		{"server error", NetworkError("fetch", http.StatusBadGateway, nil), true},
		{"throttled", APIError("analyze", http.StatusTooManyRequests, nil), true},
		{"not found", NetworkError("fetch", http.StatusNotFound, nil), false},
		{"timeout", TimeoutError("fetch", nil), true},
		{"malformed polygon", ValidationError("polygon", nil), false},
		{"page out of range", RangeError("page", nil), false},
		{"decode", DecodeError("tiff", nil), false},
		{"config", ConfigError("missing key", nil), false},
		{"storage", StorageError("upload", nil), true},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestImageMetadataMap(t *testing.T) {
	meta := ImageMetadata{
		Parent:     "https://host/docs/report.pdf",
		PageNumber: 2,
		Caption:    "Sales",
		Image:      "figure_1_sales.png",
		Polygon:    Polygon{1, 1.5, 3, 1.5, 3, 4, 1, 4},
		Elements:   []string{"/paragraphs/3"},
	}

	m := meta.Map()
	assert.Equal(t, "2", m["pageNumber"])
	assert.Equal(t, `["1","1.5","3","1.5","3","4","1","4"]`, m["polygon"])
	assert.Equal(t, `["/paragraphs/3"]`, m["elements"])

	meta.Elements = nil
	assert.Equal(t, "", meta.Map()["elements"])
}

func TestBoundingBoxScale(t *testing.T) {
	box := BoundingBox{X0: 1, Y0: 2, X1: 3, Y1: 4}.Scale(72)
	assert.Equal(t, BoundingBox{X0: 72, Y0: 144, X1: 216, Y1: 288}, box)
	assert.True(t, box.Valid())
	assert.False(t, BoundingBox{X0: 5, Y0: 0, X1: 5, Y1: 1}.Valid())
	assert.False(t, BoundingBox{X0: 0, Y0: 0, X1: 1e300, Y1: 1}.Valid())
	assert.False(t, BoundingBox{X0: -MaxCoordinate - 1, Y0: 0, X1: 1, Y1: 1}.Valid())
	assert.True(t, BoundingBox{X0: -MaxCoordinate, Y0: 0, X1: MaxCoordinate, Y1: 1}.Valid())
}
