package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spherical/figure-extractor/cmd/figure-extractor/ui"
	"github.com/spherical/figure-extractor/internal/domain"
	"github.com/spherical/figure-extractor/internal/naming"
	"github.com/spherical/figure-extractor/internal/source"
	"github.com/spherical/figure-extractor/pkg/extractor"
)

var (
	cropSource  string
	cropPage    int
	cropPolygon string
	cropUnit    string
	cropOutput  string
)

var cropCmd = &cobra.Command{
	Use:   "crop",
	Short: "Crop one polygon region to a PNG file",
	Long: `Crop the region described by an analysis polygon from one page of a
local PDF, a remote PDF URL or an image. TIFF pages select the frame.

The unit defaults to inch for PDF sources and pixel for images.`,
	Example: `  figure-extractor crop --source report.pdf --page 2 --polygon 1,1,4,1,4,3,1,3
  figure-extractor crop --source scan.tiff --page 3 --polygon 10,10,200,10,200,90,10,90 -o fig.png`,
	RunE: runCrop,
}

func init() {
	cropCmd.Flags().StringVarP(&cropSource, "source", "s", "", "PDF or image path, or a PDF URL (required)")
	cropCmd.Flags().IntVarP(&cropPage, "page", "p", 1, "1-indexed page or frame number")
	cropCmd.Flags().StringVar(&cropPolygon, "polygon", "", "comma-separated polygon coordinates (required)")
	cropCmd.Flags().StringVarP(&cropUnit, "unit", "u", "", "polygon unit: inch, point or pixel")
	cropCmd.Flags().StringVarP(&cropOutput, "output", "o", "", "output PNG path (optional)")
	_ = cropCmd.MarkFlagRequired("source")
	_ = cropCmd.MarkFlagRequired("polygon")
	rootCmd.AddCommand(cropCmd)
}

func runCrop(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	polygon, err := parsePolygon(cropPolygon)
	if err != nil {
		return err
	}
	unit := cropUnit
	if unit == "" {
		unit = defaultUnit(cropSource)
	}
	output := cropOutput
	if output == "" {
		output = defaultCropOutput(cropSource, cropPage)
	}

	ui.Debug("source=%s page=%d unit=%s", cropSource, cropPage, unit)

	client := extractor.New(extractor.Config{
		FetchTimeout:  cfg.Fetch.Timeout,
		MaxFetchBytes: cfg.Fetch.MaxBytes,
		Logger:        newLogger(cfg),
	})

	spinner := ui.NewSpinner("Cropping region...")
	spinner.Start()
	data, err := client.CropPNG(context.Background(), cropSource, cropPage, polygon, unit)
	spinner.Stop()
	if err != nil {
		return fmt.Errorf("crop failed: %w", err)
	}

	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	ui.Success("Wrote %s (%d bytes)", output, len(data))
	return nil
}

// parsePolygon parses "x1,y1,x2,y2,..." with optional spaces or brackets.
func parsePolygon(s string) (domain.Polygon, error) {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	poly := make(domain.Polygon, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, domain.ValidationError(fmt.Sprintf("invalid polygon coordinate %q", f), err)
		}
		poly = append(poly, v)
	}
	return poly, nil
}

func defaultUnit(src string) string {
	d := source.Resolve(src)
	if d.Remote || d.Kind == source.KindPDF {
		return extractor.UnitInch
	}
	return extractor.UnitPixel
}

// defaultCropOutput names the crop after the source file and page, in the
// working directory.
func defaultCropOutput(src string, page int) string {
	base := naming.FilenameFromURL(src)
	if !source.IsRemote(src) {
		base = filepath.Base(src)
	}
	base = naming.Sanitize(strings.TrimSuffix(base, filepath.Ext(base)))
	if base == "" {
		base = "crop"
	}
	return fmt.Sprintf("%s_page%d.png", base, page)
}
