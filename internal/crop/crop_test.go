package crop

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/figure-extractor/internal/domain"
	"github.com/spherical/figure-extractor/internal/source"
	"github.com/spherical/figure-extractor/internal/testutil"
)

var blue = color.RGBA{B: 255, A: 255}

func bluePDF() []byte {
	return testutil.BuildPDF(
		testutil.Page{Width: 144, Height: 144},
		testutil.Page{Width: 144, Height: 144, Fills: []testutil.Fill{{X: 72, Y: 72, W: 72, H: 72, Color: blue}}},
	)
}

func newTestCropper(client *http.Client) *Cropper {
	return NewCropper(source.NewLoader(source.LoaderConfig{Timeout: 5 * time.Second}, client, nil), nil)
}

func TestCropLocalPDF(t *testing.T) {
	path := testutil.WriteFile(t, "figures.pdf", bluePDF())
	c := newTestCropper(nil)

	img, err := c.Crop(context.Background(), path, 1, domain.BoundingBox{X0: 72, Y0: 72, X1: 144, Y1: 144})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 300, 300), img.Bounds())
	r, g, b := testutil.RGBAt(img, 150, 150)
	assert.Equal(t, []uint8{0, 0, 255}, []uint8{r, g, b})

	_, err = c.Crop(context.Background(), path, 2, domain.BoundingBox{X0: 0, Y0: 0, X1: 10, Y1: 10})
	assert.True(t, domain.IsType(err, domain.ErrorTypeRange))
}

func TestCropRemotePDF(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write(bluePDF())
	}))
	defer srv.Close()
	c := newTestCropper(srv.Client())

	img, err := c.Crop(context.Background(), srv.URL+"/figures.pdf?sig=abc", 1,
		domain.BoundingBox{X0: 72, Y0: 72, X1: 144, Y1: 144})
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())

	// Invalid boxes are rejected before any download.
	_, err = c.Crop(context.Background(), srv.URL+"/figures.pdf", 0, domain.BoundingBox{X0: 5, X1: 1, Y1: 1})
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestCropRemoteFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestCropper(srv.Client()).Crop(context.Background(), srv.URL+"/missing.pdf", 0,
		domain.BoundingBox{X1: 10, Y1: 10})
	require.Error(t, err)
	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.ErrorTypeNetwork, de.Type)
	assert.Equal(t, http.StatusNotFound, de.StatusCode)
}

func TestCropRasterSources(t *testing.T) {
	c := newTestCropper(nil)
	tiffPath := testutil.WriteFile(t, "scan.tif", testutil.BuildTIFF(
		testutil.GrayFrame(50, 50, 30), testutil.GrayFrame(50, 50, 220)))

	img, err := c.Crop(context.Background(), tiffPath, 1, domain.BoundingBox{X0: 10, Y0: 10, X1: 20, Y1: 30})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 10, 20), img.Bounds())
	r, _, _ := testutil.RGBAt(img, 5, 5)
	assert.Equal(t, uint8(220), r)

	pngPath := testutil.WriteFile(t, "page.png", testutil.EncodePNG(t, testutil.GrayFrame(40, 40, 77)))
	img, err = c.Crop(context.Background(), pngPath, 0, domain.BoundingBox{X0: 0, Y0: 0, X1: 40, Y1: 40})
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
}

func TestDocumentSession(t *testing.T) {
	path := testutil.WriteFile(t, "figures.pdf", bluePDF())
	c := newTestCropper(nil)

	doc, err := c.Open(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, source.KindPDF, doc.Kind())

	for _, page := range []int{0, 1, 1} {
		img, err := doc.Crop(page, domain.BoundingBox{X0: 0, Y0: 0, X1: 72, Y1: 72})
		require.NoError(t, err)
		assert.Equal(t, 300, img.Bounds().Dy())
	}

	require.NoError(t, doc.Close())
	require.NoError(t, doc.Close())
	_, err = doc.Crop(0, domain.BoundingBox{X1: 1, Y1: 1})
	assert.Error(t, err)
}

func TestDocumentSessionRaster(t *testing.T) {
	path := testutil.WriteFile(t, "scan.tiff", testutil.BuildTIFF(
		testutil.GrayFrame(8, 8, 1), testutil.GrayFrame(8, 8, 2)))

	doc, err := newTestCropper(nil).Open(context.Background(), path)
	require.NoError(t, err)
	defer doc.Close()

	_, err = doc.Crop(1, domain.BoundingBox{X1: 4, Y1: 4})
	require.NoError(t, err)
	_, err = doc.Crop(2, domain.BoundingBox{X1: 4, Y1: 4})
	assert.True(t, domain.IsType(err, domain.ErrorTypeRange))
}

func TestOpenMissingFile(t *testing.T) {
	_, err := newTestCropper(nil).Open(context.Background(), "/nonexistent/scan.png")
	assert.True(t, domain.IsType(err, domain.ErrorTypeIO))
}

func TestEncodePNGLossless(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 9)
	}
	for i := 3; i < len(src.Pix); i += 4 {
		src.Pix[i] = 255
	}

	data, err := EncodePNG(src)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))

	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			assert.Equal(t, color.RGBAModel.Convert(src.At(x, y)), color.RGBAModel.Convert(decoded.At(x, y)))
		}
	}
}
