// Package analysis talks to Azure AI Document Intelligence.
package analysis

import "github.com/spherical/figure-extractor/internal/domain"

// LayoutModel is the only model whose results are turned into figures.
const LayoutModel = "prebuilt-layout"

// Operation statuses reported by the analyze operation.
const (
	StatusNotStarted = "notStarted"
	StatusRunning    = "running"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

// Result is the analyzeResult payload of a finished operation.
type Result struct {
	ModelID       string      `json:"modelId"`
	Content       string      `json:"content"`
	ContentFormat string      `json:"contentFormat,omitempty"`
	Pages         []Page      `json:"pages"`
	Paragraphs    []Paragraph `json:"paragraphs"`
	Sections      []Section   `json:"sections"`
	Tables        []Table     `json:"tables"`
	Figures       []Figure    `json:"figures"`
}

// PageUnit returns the length unit of the 1-indexed page, or "" when the
// page is unknown.
func (r *Result) PageUnit(pageNumber int) string {
	for _, p := range r.Pages {
		if p.PageNumber == pageNumber {
			return p.Unit
		}
	}
	return ""
}

// Page describes one analyzed page.
type Page struct {
	PageNumber int     `json:"pageNumber"`
	Angle      float64 `json:"angle"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Unit       string  `json:"unit"` // inch for PDFs, pixel for images
	Lines      []Line  `json:"lines"`
}

// Line is a line of text on a page.
type Line struct {
	Content string         `json:"content"`
	Polygon domain.Polygon `json:"polygon,omitempty"`
}

// BoundingRegion locates an element on a 1-indexed page.
type BoundingRegion struct {
	PageNumber int            `json:"pageNumber"`
	Polygon    domain.Polygon `json:"polygon"`
}

// Paragraph is a block of text with an optional semantic role.
type Paragraph struct {
	Role            string           `json:"role,omitempty"`
	Content         string           `json:"content"`
	BoundingRegions []BoundingRegion `json:"boundingRegions,omitempty"`
}

// Section groups element references such as "/paragraphs/3".
type Section struct {
	Elements []string `json:"elements"`
}

// Table is a detected table.
type Table struct {
	RowCount    int         `json:"rowCount"`
	ColumnCount int         `json:"columnCount"`
	Cells       []TableCell `json:"cells"`
}

// TableCell is one table cell.
type TableCell struct {
	RowIndex    int    `json:"rowIndex"`
	ColumnIndex int    `json:"columnIndex"`
	Content     string `json:"content"`
}

// Figure is a detected figure with its regions and optional caption.
type Figure struct {
	ID              string           `json:"id,omitempty"`
	BoundingRegions []BoundingRegion `json:"boundingRegions"`
	Elements        []string         `json:"elements,omitempty"`
	Caption         *Caption         `json:"caption,omitempty"`
}

// Caption is a figure caption.
type Caption struct {
	Content         string           `json:"content"`
	BoundingRegions []BoundingRegion `json:"boundingRegions,omitempty"`
	Elements        []string         `json:"elements,omitempty"`
}

// operation is the body returned when polling an analyze operation.
type operation struct {
	Status        string        `json:"status"`
	AnalyzeResult *Result       `json:"analyzeResult,omitempty"`
	Error         *serviceError `json:"error,omitempty"`
}

type serviceError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error *serviceError `json:"error"`
}
