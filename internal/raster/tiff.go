package raster

import (
	"encoding/binary"
	"fmt"
	"image"
	"io"

	"golang.org/x/image/tiff"

	"github.com/spherical/figure-extractor/internal/domain"
)

const maxFrames = 1 << 16

// DecodeTIFFFrame decodes the 0-indexed frame of a multi-page TIFF. The
// decoder only reads the first IFD, so the header is patched to point at the
// requested one.
func DecodeTIFFFrame(r io.ReaderAt, size int64, frame int) (image.Image, error) {
	if frame < 0 {
		return nil, domain.RangeError(fmt.Sprintf("frame %d out of range", frame), nil)
	}

	offsets, order, err := ifdOffsets(r, size, frame+1)
	if err != nil {
		return nil, err
	}
	if frame >= len(offsets) {
		return nil, domain.RangeError(
			fmt.Sprintf("frame %d out of range, image has %d frames", frame, len(offsets)), nil)
	}

	header := make([]byte, 8)
	if _, err := r.ReadAt(header, 0); err != nil {
		return nil, domain.DecodeError("read TIFF header", err)
	}
	order.PutUint32(header[4:], offsets[frame])

	patched := io.NewSectionReader(&headerPatch{ReaderAt: r, header: header}, 0, size)
	img, err := tiff.Decode(patched)
	if err != nil {
		return nil, domain.DecodeError(fmt.Sprintf("decode TIFF frame %d", frame), err)
	}
	return img, nil
}

// CountTIFFFrames walks the whole IFD chain.
func CountTIFFFrames(r io.ReaderAt, size int64) (int, error) {
	offsets, _, err := ifdOffsets(r, size, maxFrames)
	if err != nil {
		return 0, err
	}
	return len(offsets), nil
}

// ifdOffsets returns up to limit IFD offsets in chain order.
func ifdOffsets(r io.ReaderAt, size int64, limit int) ([]uint32, binary.ByteOrder, error) {
	header := make([]byte, 8)
	if _, err := r.ReadAt(header, 0); err != nil {
		return nil, nil, domain.DecodeError("read TIFF header", err)
	}

	var order binary.ByteOrder
	switch string(header[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil, nil, domain.DecodeError("not a TIFF file", nil)
	}
	switch order.Uint16(header[2:4]) {
	case 42:
	case 43:
		return nil, nil, domain.DecodeError("BigTIFF is not supported", nil)
	default:
		return nil, nil, domain.DecodeError("bad TIFF magic number", nil)
	}

	var offsets []uint32
	seen := make(map[uint32]bool)
	next := order.Uint32(header[4:8])
	count := make([]byte, 2)
	link := make([]byte, 4)

	for next != 0 && len(offsets) < limit {
		if seen[next] {
			return nil, nil, domain.DecodeError("TIFF IFD chain loops", nil)
		}
		if int64(next)+2 > size {
			return nil, nil, domain.DecodeError(fmt.Sprintf("IFD offset %d beyond end of file", next), nil)
		}
		seen[next] = true
		offsets = append(offsets, next)

		if _, err := r.ReadAt(count, int64(next)); err != nil {
			return nil, nil, domain.DecodeError("read IFD entry count", err)
		}
		linkAt := int64(next) + 2 + int64(order.Uint16(count))*12
		if _, err := r.ReadAt(link, linkAt); err != nil {
			return nil, nil, domain.DecodeError("read next IFD offset", err)
		}
		next = order.Uint32(link)
	}
	return offsets, order, nil
}

// headerPatch overlays the first bytes of an io.ReaderAt.
type headerPatch struct {
	io.ReaderAt
	header []byte
}

func (h *headerPatch) ReadAt(p []byte, off int64) (int, error) {
	n, err := h.ReaderAt.ReadAt(p, off)
	if off < int64(len(h.header)) {
		copy(p[:n], h.header[off:])
	}
	return n, err
}
