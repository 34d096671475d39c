// Package enrich turns a batch of document references into structured
// records with cropped, stored figures.
package enrich

import (
	"context"
	"fmt"
	"image"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spherical/figure-extractor/internal/analysis"
	"github.com/spherical/figure-extractor/internal/crop"
	"github.com/spherical/figure-extractor/internal/domain"
	"github.com/spherical/figure-extractor/internal/geometry"
	"github.com/spherical/figure-extractor/internal/naming"
	"github.com/spherical/figure-extractor/internal/observability"
	"github.com/spherical/figure-extractor/internal/source"
)

// Document is an open source document that can be cropped repeatedly.
type Document interface {
	Crop(page int, box domain.BoundingBox) (image.Image, error)
	Close() error
}

// DocumentOpener opens a source document for one record.
type DocumentOpener interface {
	Open(ctx context.Context, src string) (Document, error)
}

type cropperOpener struct {
	cropper *crop.Cropper
}

// FromCropper adapts a crop.Cropper to DocumentOpener.
func FromCropper(c *crop.Cropper) DocumentOpener {
	return cropperOpener{cropper: c}
}

func (o cropperOpener) Open(ctx context.Context, src string) (Document, error) {
	doc, err := o.cropper.Open(ctx, src)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Options tunes the orchestrator.
type Options struct {
	MaxConcurrentRecords int
	IncludeTables        bool
	IncludePages         bool
	// AxisTolerance is the relative slack of the axis-alignment check.
	AxisTolerance float64
	// OnRecord, when set, is called from worker goroutines after each record.
	OnRecord func(domain.OutputRecord)
}

// Service orchestrates analysis, cropping and storage per record.
type Service struct {
	analyzer analysis.Analyzer
	opener   DocumentOpener
	store    domain.ImageStore
	opts     Options
	logger   *observability.Logger
}

// NewService creates a new enrichment service
func NewService(analyzer analysis.Analyzer, opener DocumentOpener, store domain.ImageStore, opts Options, logger *observability.Logger) *Service {
	if opts.MaxConcurrentRecords < 1 {
		opts.MaxConcurrentRecords = 1
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Service{
		analyzer: analyzer,
		opener:   opener,
		store:    store,
		opts:     opts,
		logger:   logger.WithOperation("enrich"),
	}
}

// ProcessBatch processes every record and returns one output per input, in
// input order. A failing record never aborts the batch.
func (s *Service) ProcessBatch(ctx context.Context, req domain.BatchRequest) domain.BatchResponse {
	start := time.Now()
	out := make([]domain.OutputRecord, len(req.Values))

	var g errgroup.Group
	g.SetLimit(s.opts.MaxConcurrentRecords)
	for i, rec := range req.Values {
		g.Go(func() error {
			out[i] = s.ProcessRecord(ctx, rec)
			if s.opts.OnRecord != nil {
				s.opts.OnRecord(out[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, rec := range out {
		if len(rec.Errors) > 0 {
			failed++
		}
	}
	s.logger.WithContext(ctx).Info().
		Int("records", len(out)).
		Int("failed", failed).
		Dur("elapsed", time.Since(start)).
		Msg("batch complete")

	return domain.BatchResponse{Values: out}
}

// ProcessRecord analyzes one document and reports failures as record errors.
func (s *Service) ProcessRecord(ctx context.Context, rec domain.InputRecord) domain.OutputRecord {
	log := s.logger.WithContext(ctx).WithRecord(rec.RecordID)
	log.Info().Str("form_url", rec.Data.FormURL).Str("model", rec.Data.Model).Msg("processing record")

	data, warnings, err := s.enrich(ctx, rec.Data)
	if err != nil {
		log.Error().Err(err).Msg("record failed")
		return domain.OutputRecord{
			RecordID: rec.RecordID,
			Errors:   []domain.RecordMessage{{Message: "Error: " + err.Error()}},
		}
	}

	out := domain.OutputRecord{RecordID: rec.RecordID, Data: data}
	for _, w := range warnings {
		log.Warn().Msg(w)
		out.Warnings = append(out.Warnings, domain.RecordMessage{Message: w})
	}
	return out
}

func (s *Service) enrich(ctx context.Context, in domain.InputData) (*domain.RecordData, []string, error) {
	if in.FormURL == "" {
		return nil, nil, domain.ValidationError("formUrl is required", nil)
	}
	if in.Model == "" {
		return nil, nil, domain.ValidationError("model is required", nil)
	}

	src := in.SourceURL()
	res, err := s.analyzer.Analyze(ctx, in.Model, src)
	if err != nil {
		return nil, nil, err
	}

	if in.Model != analysis.LayoutModel {
		return &domain.RecordData{}, []string{
			fmt.Sprintf("model %s is not supported for enrichment, returning empty data", in.Model),
		}, nil
	}

	data := &domain.RecordData{
		Paragraphs: paragraphs(res),
		Sections:   sections(res),
		Content:    res.Content,
	}
	if s.opts.IncludeTables {
		data.Tables = tables(res)
	}
	if s.opts.IncludePages {
		data.Pages = pageLines(res)
	}

	figures, warnings, err := s.extractFigures(ctx, in, res)
	if err != nil {
		return nil, nil, err
	}
	data.Figures = figures
	return data, warnings, nil
}

// extractFigures crops, stores and describes every figure region of res.
// The source document is opened at most once per record.
func (s *Service) extractFigures(ctx context.Context, in domain.InputData, res *analysis.Result) ([]domain.FigureRecord, []string, error) {
	if len(res.Figures) == 0 {
		return nil, nil, nil
	}

	src := in.SourceURL()
	kind := source.Resolve(src).Kind
	dir := naming.StorageDir(in.FormURL)
	filter := newRegionFilter()

	var (
		doc      Document
		figures  []domain.FigureRecord
		warnings []string
	)
	defer func() {
		if doc != nil {
			_ = doc.Close()
		}
	}()

	for idx, fig := range res.Figures {
		caption := ""
		if fig.Caption != nil {
			caption = fig.Caption.Content
		}
		captionPoly := captionPolygon(fig)
		filename := naming.FigureFilename(idx, caption)
		elements := fig.Elements
		if elements == nil {
			elements = []string{}
		}

		for _, region := range fig.BoundingRegions {
			if !filter.keep(region, captionPoly) {
				continue
			}

			box, warn, err := s.regionBox(res, region, kind)
			if err != nil {
				return nil, nil, fmt.Errorf("figure %d: %w", idx+1, err)
			}
			if warn != "" {
				warnings = append(warnings, fmt.Sprintf("figure %d on page %d: %s", idx+1, region.PageNumber, warn))
			}

			if doc == nil {
				if doc, err = s.opener.Open(ctx, src); err != nil {
					return nil, nil, err
				}
			}

			img, err := doc.Crop(region.PageNumber-1, box)
			if err != nil {
				return nil, nil, fmt.Errorf("figure %d: %w", idx+1, err)
			}
			png, err := crop.EncodePNG(img)
			if err != nil {
				return nil, nil, fmt.Errorf("figure %d: %w", idx+1, err)
			}

			meta := domain.ImageMetadata{
				Parent:     in.FormURL,
				PageNumber: region.PageNumber,
				Caption:    caption,
				Image:      filename,
				Polygon:    region.Polygon,
				Elements:   fig.Elements,
			}
			location, err := s.store.Save(ctx, dir, filename, png, meta)
			if err != nil {
				return nil, nil, fmt.Errorf("figure %d: %w", idx+1, err)
			}

			figures = append(figures, domain.FigureRecord{
				PageNumber: region.PageNumber,
				Caption:    caption,
				Image:      filename,
				Polygon:    region.Polygon,
				Elements:   elements,
				Location:   location,
			})
		}
	}
	return figures, warnings, nil
}

// regionBox converts a region polygon to a crop box in cropper units and
// returns a warning when the polygon is not an axis-aligned rectangle.
// PDF regions need a known page unit since points and inches differ 72-fold.
func (s *Service) regionBox(res *analysis.Result, region analysis.BoundingRegion, kind source.Kind) (domain.BoundingBox, string, error) {
	box, err := geometry.PolygonToBBox(region.Polygon)
	if err != nil {
		return domain.BoundingBox{}, "", err
	}

	warn := ""
	if len(region.Polygon) >= 8 {
		if err := geometry.CheckAxisAligned(region.Polygon, s.opts.AxisTolerance); err != nil {
			warn = err.Error()
		}
	}
	for _, p := range res.Pages {
		if p.PageNumber == region.PageNumber && math.Abs(p.Angle) > 0.5 && warn == "" {
			warn = fmt.Sprintf("page is rotated by %.1f degrees, crop ignores rotation", p.Angle)
		}
	}

	unit := res.PageUnit(region.PageNumber)
	if unit == "" {
		if kind == source.KindPDF {
			return domain.BoundingBox{}, "", domain.ValidationError(
				fmt.Sprintf("analysis result has no unit for page %d", region.PageNumber), nil)
		}
		if warn == "" {
			warn = "page has no unit, polygon read as pixels"
		}
	}

	box, err = geometry.ToPoints(box, unit)
	if err != nil {
		return domain.BoundingBox{}, "", err
	}
	return box, warn, nil
}

func paragraphs(res *analysis.Result) []domain.Paragraph {
	out := make([]domain.Paragraph, 0, len(res.Paragraphs))
	for i, p := range res.Paragraphs {
		out = append(out, domain.Paragraph{
			ID:      fmt.Sprintf("paragraphs/%d", i),
			Content: p.Content,
			Role:    p.Role,
		})
	}
	return out
}

func sections(res *analysis.Result) [][]string {
	out := make([][]string, 0, len(res.Sections))
	for _, sec := range res.Sections {
		elements := sec.Elements
		if elements == nil {
			elements = []string{}
		}
		out = append(out, elements)
	}
	return out
}

func tables(res *analysis.Result) []domain.TableRecord {
	out := make([]domain.TableRecord, 0, len(res.Tables))
	for _, t := range res.Tables {
		cells := make([]domain.CellRecord, 0, len(t.Cells))
		for _, c := range t.Cells {
			cells = append(cells, domain.CellRecord{
				RowIndex:    c.RowIndex,
				ColumnIndex: c.ColumnIndex,
				Content:     c.Content,
			})
		}
		out = append(out, domain.TableRecord{
			RowCount:    t.RowCount,
			ColumnCount: t.ColumnCount,
			Cells:       cells,
		})
	}
	return out
}

func pageLines(res *analysis.Result) [][]string {
	out := make([][]string, 0, len(res.Pages))
	for _, p := range res.Pages {
		lines := make([]string, 0, len(p.Lines))
		for _, l := range p.Lines {
			lines = append(lines, l.Content)
		}
		out = append(out, lines)
	}
	return out
}
