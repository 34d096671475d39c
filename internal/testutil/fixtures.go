// Package testutil builds small PDF, TIFF and PNG fixtures for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Fill paints a solid rectangle on a PDF page. Coordinates are points with a
// top-left origin, matching the analysis-service convention.
type Fill struct {
	X, Y, W, H float64
	Color      color.RGBA
}

// Page describes one PDF page of Width x Height points.
type Page struct {
	Width, Height float64
	Fills         []Fill
}

// BuildPDF assembles an uncompressed PDF with one page per Page.
func BuildPDF(pages ...Page) []byte {
	var objects []string
	kids := ""
	for i := range pages {
		kids += fmt.Sprintf("%d 0 R ", 3+2*i)
	}

	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, len(pages)),
	)

	for i, p := range pages {
		var content bytes.Buffer
		for _, f := range p.Fills {
			fmt.Fprintf(&content, "%.4f %.4f %.4f rg %.2f %.2f %.2f %.2f re f\n",
				float64(f.Color.R)/255, float64(f.Color.G)/255, float64(f.Color.B)/255,
				f.X, p.Height-f.Y-f.H, f.W, f.H)
		}
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %.2f %.2f] /Contents %d 0 R /Resources << >> >>",
				p.Width, p.Height, 4+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

// BuildTIFF encodes gray frames as an uncompressed little-endian multi-page
// TIFF with one strip per frame.
func BuildTIFF(frames ...*image.Gray) []byte {
	const ifdSize = 2 + 9*12 + 4

	type layout struct{ data, ifd uint32 }
	places := make([]layout, len(frames))
	off := uint32(8)
	for i, f := range frames {
		places[i].data = off
		off += uint32(f.Rect.Dx() * f.Rect.Dy())
		off += off & 1
		places[i].ifd = off
		off += ifdSize
	}

	buf := make([]byte, off)
	le := binary.LittleEndian
	copy(buf, "II")
	le.PutUint16(buf[2:], 42)
	if len(frames) > 0 {
		le.PutUint32(buf[4:], places[0].ifd)
	}

	for i, f := range frames {
		w, h := f.Rect.Dx(), f.Rect.Dy()
		pos := places[i].data
		for y := 0; y < h; y++ {
			row := f.Pix[y*f.Stride : y*f.Stride+w]
			copy(buf[pos:], row)
			pos += uint32(w)
		}

		entries := []struct {
			tag, typ uint16
			val      uint32
		}{
			{256, 3, uint32(w)},
			{257, 3, uint32(h)},
			{258, 3, 8},
			{259, 3, 1},
			{262, 3, 1},
			{273, 4, places[i].data},
			{277, 3, 1},
			{278, 4, uint32(h)},
			{279, 4, uint32(w * h)},
		}

		p := places[i].ifd
		le.PutUint16(buf[p:], uint16(len(entries)))
		p += 2
		for _, e := range entries {
			le.PutUint16(buf[p:], e.tag)
			le.PutUint16(buf[p+2:], e.typ)
			le.PutUint32(buf[p+4:], 1)
			if e.typ == 3 {
				le.PutUint16(buf[p+8:], uint16(e.val))
			} else {
				le.PutUint32(buf[p+8:], e.val)
			}
			p += 12
		}
		next := uint32(0)
		if i+1 < len(frames) {
			next = places[i+1].ifd
		}
		le.PutUint32(buf[p:], next)
	}
	return buf
}

// GrayFrame returns a w x h frame filled with level.
func GrayFrame(w, h int, level uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = level
	}
	return img
}

// EncodePNG encodes img or fails the test.
func EncodePNG(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// WriteFile writes data to name inside a fresh temp dir and returns the path.
func WriteFile(t testing.TB, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// RGBAt returns the 8-bit RGB components of img at (x, y).
func RGBAt(img image.Image, x, y int) (r, g, b uint8) {
	cr, cg, cb, _ := img.At(x, y).RGBA()
	return uint8(cr >> 8), uint8(cg >> 8), uint8(cb >> 8)
}
