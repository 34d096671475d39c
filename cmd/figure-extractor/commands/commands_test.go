package commands

import (
	"bytes"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/figure-extractor/cmd/figure-extractor/ui"
	"github.com/spherical/figure-extractor/internal/domain"
	"github.com/spherical/figure-extractor/internal/testutil"
)

func TestParsePolygon(t *testing.T) {
	p, err := parsePolygon("1, 2,3.5,4")
	require.NoError(t, err)
	assert.Equal(t, domain.Polygon{1, 2, 3.5, 4}, p)

	p, err = parsePolygon("[0.5 1 2 1 2 3 0.5 3]")
	require.NoError(t, err)
	assert.Len(t, p, 8)

	_, err = parsePolygon("1,two,3")
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))
}

func TestDefaultUnit(t *testing.T) {
	assert.Equal(t, "inch", defaultUnit("report.pdf"))
	assert.Equal(t, "inch", defaultUnit("https://acct.blob.core.windows.net/docs/scan"))
	assert.Equal(t, "pixel", defaultUnit("scan.tiff"))
	assert.Equal(t, "pixel", defaultUnit("photo.png"))
}

func TestDefaultCropOutput(t *testing.T) {
	assert.Equal(t, "annual_report_page2.png", defaultCropOutput("/data/Annual Report.pdf", 2))
	assert.Equal(t, "scan_page1.png", defaultCropOutput("https://x/docs/scan.pdf?sv=1", 1))
	assert.Equal(t, "crop_page1.png", defaultCropOutput("https://x/", 1))
}

func TestReadBatch(t *testing.T) {
	path := testutil.WriteFile(t, "req.json", []byte(`{"values":[{"recordId":"a","data":{"formUrl":"https://x/a.pdf","model":"prebuilt-layout"}}]}`))
	req, err := readBatch(path)
	require.NoError(t, err)
	require.Len(t, req.Values, 1)
	assert.Equal(t, "a", req.Values[0].RecordID)

	_, err = readBatch(testutil.WriteFile(t, "bad.json", []byte(`{"records":[]}`)))
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))

	_, err = readBatch(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, domain.IsType(err, domain.ErrorTypeIO))
}

func TestSummarize(t *testing.T) {
	failed, figures := summarize(domain.BatchResponse{Values: []domain.OutputRecord{
		{RecordID: "1", Data: &domain.RecordData{Figures: make([]domain.FigureRecord, 3)}},
		{RecordID: "2", Errors: []domain.RecordMessage{{Message: "Error: boom"}}},
		{RecordID: "3", Data: &domain.RecordData{}},
	}})
	assert.Equal(t, 1, failed)
	assert.Equal(t, 3, figures)
}

func TestCropCommand(t *testing.T) {
	green := color.RGBA{G: 255, A: 255}
	pdfPath := testutil.WriteFile(t, "doc.pdf", testutil.BuildPDF(
		testutil.Page{Width: 144, Height: 144, Fills: []testutil.Fill{{X: 0, Y: 0, W: 72, H: 72, Color: green}}},
	))
	out := filepath.Join(t.TempDir(), "fig.png")

	var stdout, stderr bytes.Buffer
	ui.SetOutput(&stdout, &stderr)
	defer ui.SetOutput(os.Stdout, os.Stderr)

	rootCmd.SetArgs([]string{"crop", "--no-color", "--source", pdfPath, "--page", "1", "--polygon", "0,0,1,0,1,1,0,1", "--output", out})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, stdout.String(), "Wrote "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
	_, g, _ := testutil.RGBAt(img, 10, 10)
	assert.Equal(t, uint8(255), g)
}
