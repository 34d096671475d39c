package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spherical/figure-extractor/internal/domain"
)

var pdfMagic = []byte("%PDF-")

// Validator checks PDF inputs before they reach MuPDF.
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidatePath checks that path names a readable regular file that starts
// with the PDF header.
func (v *Validator) ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return domain.ValidationError("file path cannot be empty", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		return domain.IOError(fmt.Sprintf("cannot access file: %s", path), err)
	}
	if info.IsDir() {
		return domain.ValidationError(fmt.Sprintf("path is a directory, not a file: %s", path), nil)
	}

	file, err := os.Open(path)
	if err != nil {
		return domain.IOError(fmt.Sprintf("cannot open file: %s", path), err)
	}
	defer file.Close()

	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(file, head); err != nil {
		return domain.DecodeError(fmt.Sprintf("file is too short to be a PDF: %s", path), err)
	}
	return v.ValidateBytes(head)
}

// ValidateBytes checks the PDF header of an in-memory document.
func (v *Validator) ValidateBytes(data []byte) error {
	if !bytes.HasPrefix(data, pdfMagic) {
		return domain.DecodeError("content is not a PDF document", nil)
	}
	return nil
}
