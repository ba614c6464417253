// Package metrics compares two transcript versions of a document and
// computes character and word error rates, aggregated globally, per
// region type, per page and per region.
package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/inkwellhq/inkwell/internal/pagexml"
	"github.com/inkwellhq/inkwell/internal/selection"
	"github.com/inkwellhq/inkwell/internal/trp"
)

// Warning reasons recorded on invalid comparison rows.
const (
	WarnNoReference      = "no reference transcript version found"
	WarnNoPrediction     = "no prediction transcript version found"
	WarnSameVersion      = "reference and prediction transcript are the same"
	WarnEmptyReference   = "no non-empty text regions (of selected types) found for reference transcript"
	WarnEmptyPrediction  = "no non-empty text regions (of selected types) found for prediction transcript"
	WarnNoPredictionFound = "no prediction found"
	WarnLineCountMismatch = "prediction and reference do not have the same number of lines"
)

// ContentFetcher downloads transcript content by URL. *trp.Client
// satisfies it; tests substitute a local fetcher.
type ContentFetcher interface {
	DownloadTranscript(ctx context.Context, url string) (string, error)
}

// Options selects the transcript versions and regions to compare.
type Options struct {
	// Reference and Prediction are version keywords: "latest" for index
	// 0, otherwise a tool name fragment or an exact status.
	Reference  string
	Prediction string

	// FilterStatus, when non-empty, drops pages whose resolved reference
	// version does not carry one of these statuses.
	FilterStatus []string

	// RegionTypes, when non-empty, restricts the comparison to regions
	// with these type labels.
	RegionTypes []string
}

// Comparison is one row of the evaluation table: a region pair, or a
// page-level precondition failure recorded with its warning reason.
// Invalid rows are excluded from every numeric aggregate.
type Comparison struct {
	ColID          int
	DocID          int
	PageID         int
	PageNr         int
	TsIDReference  int
	TsIDPrediction int
	RegionID       string
	Type           string
	TextReference  []string
	TextPrediction []string
	Valid          bool
	Warning        string
	CER            float64
	WER            float64
}

// Score is an aggregated error rate over one or more valid regions.
type Score struct {
	CER float64
	WER float64
}

// Report is the full evaluation result for one document.
type Report struct {
	Regions []Comparison
	Global  Score
	ByType  map[string]Score
	ByPage  map[int]Score // keyed by page ID
}

// Evaluate compares the reference and prediction transcript versions of
// every page of a document. Precondition failures (missing versions,
// empty region sets, unmatched regions, line count mismatches) become
// invalid rows with a warning; request failures abort the evaluation.
func Evaluate(ctx context.Context, fetcher ContentFetcher, logger *slog.Logger, colID int, doc *trp.Document, opts Options) (*Report, error) {
	filterStatus := make(map[string]bool, len(opts.FilterStatus))
	for _, s := range opts.FilterStatus {
		filterStatus[s] = true
	}

	var rows []Comparison
	for _, page := range doc.PageList.Pages {
		base := Comparison{
			ColID:  colID,
			DocID:  doc.Md.DocID,
			PageID: page.PageID,
			PageNr: page.PageNr,
		}
		transcripts := page.Transcripts()

		refIdx, ok := selection.VersionIndex(transcripts, opts.Reference)
		if !ok {
			logger.Warn("no reference transcript version found, page excluded",
				"page_nr", page.PageNr, "keyword", opts.Reference)
			rows = append(rows, invalid(base, WarnNoReference))
			continue
		}
		reference := transcripts[refIdx]
		if len(filterStatus) > 0 && !filterStatus[reference.Status] {
			continue
		}
		base.TsIDReference = reference.TsID

		predIdx, ok := selection.VersionIndex(transcripts, opts.Prediction)
		if !ok {
			logger.Warn("no prediction transcript version found, page excluded",
				"page_nr", page.PageNr, "keyword", opts.Prediction)
			rows = append(rows, invalid(base, WarnNoPrediction))
			continue
		}
		prediction := transcripts[predIdx]
		base.TsIDPrediction = prediction.TsID

		if refIdx == predIdx {
			logger.Warn("reference and prediction resolve to the same version, page excluded",
				"page_nr", page.PageNr, "ts_id", reference.TsID)
			rows = append(rows, invalid(base, WarnSameVersion))
			continue
		}

		refRegions, err := fetchRegions(ctx, fetcher, reference.URL, opts.RegionTypes)
		if err != nil {
			return nil, fmt.Errorf("page %d reference transcript: %w", page.PageNr, err)
		}
		if len(refRegions) == 0 {
			logger.Warn("no non-empty reference text regions, page excluded",
				"page_nr", page.PageNr, "ts_id", reference.TsID)
			rows = append(rows, invalid(base, WarnEmptyReference))
			continue
		}

		predRegions, err := fetchRegions(ctx, fetcher, prediction.URL, opts.RegionTypes)
		if err != nil {
			return nil, fmt.Errorf("page %d prediction transcript: %w", page.PageNr, err)
		}
		if len(predRegions) == 0 {
			logger.Warn("no non-empty prediction text regions, page excluded",
				"page_nr", page.PageNr, "ts_id", prediction.TsID)
			rows = append(rows, invalid(base, WarnEmptyPrediction))
			continue
		}

		predByID := make(map[string]pagexml.TextRegion, len(predRegions))
		for _, r := range predRegions {
			predByID[r.ID] = r
		}

		for _, ref := range refRegions {
			row := base
			row.RegionID = ref.ID
			row.Type = ref.Type
			row.TextReference = ref.Lines

			pred, ok := predByID[ref.ID]
			if !ok {
				logger.Warn("region has no prediction counterpart, region excluded",
					"page_nr", page.PageNr, "region_id", ref.ID)
				rows = append(rows, invalid(row, WarnNoPredictionFound))
				continue
			}
			row.TextPrediction = pred.Lines

			if len(ref.Lines) != len(pred.Lines) {
				logger.Warn("region line counts differ, region excluded",
					"page_nr", page.PageNr, "region_id", ref.ID,
					"reference_lines", len(ref.Lines), "prediction_lines", len(pred.Lines))
				rows = append(rows, invalid(row, WarnLineCountMismatch))
				continue
			}

			row.Valid = true
			row.CER, _ = CharErrorRate(row.TextPrediction, row.TextReference)
			row.WER, _ = WordErrorRate(row.TextPrediction, row.TextReference)
			rows = append(rows, row)
		}
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("no text regions processed, no metric can be calculated")
	}

	report := &Report{
		Regions: rows,
		ByType:  make(map[string]Score),
		ByPage:  make(map[int]Score),
	}
	report.aggregate()
	return report, nil
}

func invalid(row Comparison, warning string) Comparison {
	row.Warning = warning
	row.CER = math.NaN()
	row.WER = math.NaN()
	return row
}

func fetchRegions(ctx context.Context, fetcher ContentFetcher, url string, types []string) ([]pagexml.TextRegion, error) {
	content, err := fetcher.DownloadTranscript(ctx, url)
	if err != nil {
		return nil, err
	}
	page, err := pagexml.Parse([]byte(content))
	if err != nil {
		return nil, err
	}
	return page.Regions(types...), nil
}

// aggregate computes the global, per-type and per-page scores from the
// valid rows. Pages and types with no valid rows are absent from their
// maps rather than reported as zero.
func (r *Report) aggregate() {
	type bucket struct {
		predictions []string
		references  []string
	}
	global := &bucket{}
	byType := make(map[string]*bucket)
	byPage := make(map[int]*bucket)

	for _, row := range r.Regions {
		if !row.Valid {
			continue
		}
		global.references = append(global.references, row.TextReference...)
		global.predictions = append(global.predictions, row.TextPrediction...)

		tb, ok := byType[row.Type]
		if !ok {
			tb = &bucket{}
			byType[row.Type] = tb
		}
		tb.references = append(tb.references, row.TextReference...)
		tb.predictions = append(tb.predictions, row.TextPrediction...)

		pb, ok := byPage[row.PageID]
		if !ok {
			pb = &bucket{}
			byPage[row.PageID] = pb
		}
		pb.references = append(pb.references, row.TextReference...)
		pb.predictions = append(pb.predictions, row.TextPrediction...)
	}

	score := func(b *bucket) (Score, bool) {
		cer, ok := CharErrorRate(b.predictions, b.references)
		if !ok {
			return Score{}, false
		}
		wer, _ := WordErrorRate(b.predictions, b.references)
		return Score{CER: cer, WER: wer}, true
	}

	if s, ok := score(global); ok {
		r.Global = s
	}
	for t, b := range byType {
		if s, ok := score(b); ok {
			r.ByType[t] = s
		}
	}
	for id, b := range byPage {
		if s, ok := score(b); ok {
			r.ByPage[id] = s
		}
	}
}
