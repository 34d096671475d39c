package domain

import (
	"encoding/json"
	"strconv"
)

// Polygon is an ordered list of x/y coordinates (x0, y0, x1, y1, ...) in
// page units: inches for PDFs, pixels for raster images.
type Polygon []float64

// Strings renders every coordinate in its shortest decimal form.
func (p Polygon) Strings() []string {
	out := make([]string, len(p))
	for i, v := range p {
		out[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return out
}

// Equal reports whether both polygons hold the same coordinates.
func (p Polygon) Equal(other Polygon) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// BoundingBox is an axis-aligned rectangle in the unit of its source polygon.
type BoundingBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Width returns X1 - X0.
func (b BoundingBox) Width() float64 { return b.X1 - b.X0 }

// Height returns Y1 - Y0.
func (b BoundingBox) Height() float64 { return b.Y1 - b.Y0 }

// Scale multiplies all four coordinates by factor.
func (b BoundingBox) Scale(factor float64) BoundingBox {
	return BoundingBox{
		X0: b.X0 * factor,
		Y0: b.Y0 * factor,
		X1: b.X1 * factor,
		Y1: b.Y1 * factor,
	}
}

// MaxCoordinate bounds box coordinates in points or pixels. Larger values
// cannot address a rendered page and would overflow pixel arithmetic.
const MaxCoordinate = 1 << 20

// Valid reports whether the box has a positive area and every coordinate
// lies within MaxCoordinate.
func (b BoundingBox) Valid() bool {
	for _, v := range []float64{b.X0, b.Y0, b.X1, b.Y1} {
		if !(v >= -MaxCoordinate && v <= MaxCoordinate) {
			return false
		}
	}
	return b.Width() > 0 && b.Height() > 0
}

// FigureRecord describes one cropped figure region in the response.
type FigureRecord struct {
	PageNumber int      `json:"pageNumber"` // 1-indexed
	Caption    string   `json:"caption"`
	Image      string   `json:"image"`
	Polygon    Polygon  `json:"polygon"`
	Elements   []string `json:"elements"`
	Location   string   `json:"location,omitempty"`
}

// ImageMetadata is attached to every stored figure image.
type ImageMetadata struct {
	Parent     string
	PageNumber int
	Caption    string
	Image      string
	Polygon    Polygon
	Elements   []string
}

// Map flattens the metadata into string pairs for object storage.
func (m ImageMetadata) Map() map[string]string {
	polygon, _ := json.Marshal(m.Polygon.Strings())
	elements := ""
	if len(m.Elements) > 0 {
		b, _ := json.Marshal(m.Elements)
		elements = string(b)
	}
	return map[string]string{
		"parent":     m.Parent,
		"pageNumber": strconv.Itoa(m.PageNumber),
		"caption":    m.Caption,
		"image":      m.Image,
		"polygon":    string(polygon),
		"elements":   elements,
	}
}

// BatchRequest is the custom-skill request body.
type BatchRequest struct {
	Values []InputRecord `json:"values"`
}

// InputRecord is one document reference in a batch.
type InputRecord struct {
	RecordID string    `json:"recordId"`
	Data     InputData `json:"data"`
}

// InputData locates the document and selects the analysis model.
type InputData struct {
	FormURL      string `json:"formUrl"`
	FormSASToken string `json:"formSasToken"`
	Model        string `json:"model"`
}

// SourceURL joins the document URL with its SAS token.
func (d InputData) SourceURL() string {
	return d.FormURL + d.FormSASToken
}

// BatchResponse is the custom-skill response body.
type BatchResponse struct {
	Values []OutputRecord `json:"values"`
}

// OutputRecord carries either data or errors for one input record.
type OutputRecord struct {
	RecordID string          `json:"recordId"`
	Data     *RecordData     `json:"data,omitempty"`
	Errors   []RecordMessage `json:"errors,omitempty"`
	Warnings []RecordMessage `json:"warnings,omitempty"`
}

// RecordMessage is an error or warning entry.
type RecordMessage struct {
	Message string `json:"message"`
}

// RecordData is the structured enrichment result.
type RecordData struct {
	Paragraphs []Paragraph    `json:"paragraphs,omitempty"`
	Sections   [][]string     `json:"sections,omitempty"`
	Content    string         `json:"content,omitempty"`
	Figures    []FigureRecord `json:"figures,omitempty"`
	Tables     []TableRecord  `json:"tables,omitempty"`
	Pages      [][]string     `json:"pages,omitempty"`
}

// Paragraph is a text paragraph returned to the caller.
type Paragraph struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Role    string `json:"role"`
}

// TableRecord is a flattened table.
type TableRecord struct {
	RowCount    int          `json:"row_count"`
	ColumnCount int          `json:"column_count"`
	Cells       []CellRecord `json:"cells"`
}

// CellRecord is one table cell.
type CellRecord struct {
	RowIndex    int    `json:"row_index"`
	ColumnIndex int    `json:"column_index"`
	Content     string `json:"content"`
}
