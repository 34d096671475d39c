// Package source classifies document references and loads remote documents.
package source

import (
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spherical/figure-extractor/internal/domain"
)

// Kind is the decoder family of a document.
type Kind int

const (
	KindRaster Kind = iota
	KindPDF
	KindTIFF
)

func (k Kind) String() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindTIFF:
		return "tiff"
	default:
		return "raster"
	}
}

// Descriptor describes where a document lives and how to decode it.
type Descriptor struct {
	Raw    string
	Kind   Kind
	Remote bool
	MIME   string
}

// extensions covers types missing from the mime package's builtin table.
var extensions = map[string]string{
	".pdf":  "application/pdf",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".bmp":  "image/bmp",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// IsRemote reports whether raw is an http(s) URL.
func IsRemote(raw string) bool {
	return strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://")
}

// MIMEType guesses the content type of path from its extension, or returns
// "" when unknown.
func MIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := extensions[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if base, _, err := mime.ParseMediaType(t); err == nil {
			return base
		}
		return t
	}
	return ""
}

// Resolve classifies raw. Remote references are always treated as PDFs.
func Resolve(raw string) Descriptor {
	if IsRemote(raw) {
		return Descriptor{Raw: raw, Kind: KindPDF, Remote: true, MIME: "application/pdf"}
	}

	d := Descriptor{Raw: raw, MIME: MIMEType(raw)}
	switch d.MIME {
	case "application/pdf":
		d.Kind = KindPDF
	case "image/tiff":
		d.Kind = KindTIFF
	default:
		d.Kind = KindRaster
	}
	return d
}

// ToDataURL encodes a local file as a base64 data URL.
func ToDataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", domain.IOError(fmt.Sprintf("cannot read file: %s", path), err)
	}
	mimeType := MIMEType(path)
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
