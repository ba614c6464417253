package batch

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/inkwellhq/inkwell/internal/config"
	"github.com/inkwellhq/inkwell/internal/runctx"
	"github.com/inkwellhq/inkwell/internal/selection"
	"github.com/inkwellhq/inkwell/internal/trp"
)

// TranscribeOptions selects which processing steps a transcription run
// performs.
type TranscribeOptions struct {
	DoRegions bool // text region recognition (P2PaLA)
	DoLines   bool // text line recognition (line finder)
	DoText    bool // text recognition (HTR)

	// FailFast aborts the whole run on the first failed document
	// instead of capturing the failure and moving on.
	FailFast bool
}

// docFailure records one document whose jobs did not complete.
type docFailure struct {
	Collection string
	Document   string
	Err        error
}

// Transcribe iterates collections, documents and pages, applies the
// configured selection policy and runs the requested model steps per
// document, waiting for each job to finish before the next one starts.
// Per-document failures are collected and summarized; the run carries
// on unless FailFast is set.
func Transcribe(ctx context.Context, opts TranscribeOptions) error {
	svc := runctx.ServicesFrom(ctx)
	client := svc.Client
	logger := svc.Logger

	if !opts.DoRegions && !opts.DoLines && !opts.DoText {
		return fmt.Errorf("no processing step selected")
	}
	logger.Info("processing steps selected",
		"regions", opts.DoRegions, "lines", opts.DoLines, "text", opts.DoText)

	cfg := svc.Config.Get()
	dropCol := make(map[int]bool, len(cfg.Selection.DropCollections))
	for _, id := range cfg.Selection.DropCollections {
		dropCol[id] = true
	}

	var docFilter map[int]bool
	if cfg.Selection.DocFilterFile != "" {
		var err error
		docFilter, err = ReadDocFilter(cfg.Selection.DocFilterFile)
		if err != nil {
			return err
		}
		logger.Info("document filter loaded", "file", cfg.Selection.DocFilterFile, "documents", len(docFilter))
	}

	collections, err := client.ListCollections(ctx)
	if err != nil {
		return err
	}

	var failures []docFailure
	for _, col := range collections {
		if dropCol[col.ColID] {
			continue
		}
		logger.Info("processing collection", "collection", col.ColName, "col_id", col.ColID)

		docs, err := client.ListDocuments(ctx, col.ColID)
		if err != nil {
			return err
		}
		for _, doc := range docs {
			if docFilter != nil && !docFilter[doc.DocID] {
				continue
			}
			start := time.Now()

			// Re-read config per document so a watched config file can
			// adjust the selection policy during a long run.
			cfg = svc.Config.Get()
			processed, err := transcribeDocument(ctx, client, cfg, opts, col.ColID, doc.DocID)
			if err != nil {
				if opts.FailFast {
					return fmt.Errorf("document %s: %w", doc.Title, err)
				}
				logger.Error("document failed, continuing",
					"collection", col.ColName, "document", doc.Title, "error", err)
				failures = append(failures, docFailure{Collection: col.ColName, Document: doc.Title, Err: err})
				continue
			}
			if processed == 0 {
				continue
			}
			logger.Info("document processed",
				"document", doc.Title,
				"pages", processed,
				"duration", time.Since(start).Round(time.Second).String())
		}
	}

	if len(failures) > 0 {
		for _, f := range failures {
			logger.Warn("failed document", "collection", f.Collection, "document", f.Document, "error", f.Err)
		}
		return fmt.Errorf("%d document(s) failed", len(failures))
	}
	return nil
}

// transcribeDocument runs the selected steps for one document and
// returns the number of pages submitted, zero when the selection policy
// admits none.
func transcribeDocument(ctx context.Context, client *trp.Client, cfg *config.Config, opts TranscribeOptions, colID, docID int) (int, error) {
	doc, err := client.GetDocument(ctx, colID, docID)
	if err != nil {
		return 0, err
	}

	policy := selection.Policy{
		DropPageNumbers: cfg.Selection.DropPageNumbers,
		DropStatuses:    cfg.Selection.DropStatuses,
		DropFollowing:   cfg.Selection.DropFollowing,
	}
	pages := policy.Select(doc.PageList.Pages)
	if len(pages) == 0 {
		return 0, nil
	}

	pageIDs := make([]int, len(pages))
	pageNrs := make([]string, len(pages))
	for i, page := range pages {
		pageIDs[i] = page.PageID
		pageNrs[i] = strconv.Itoa(page.PageNr)
	}

	if opts.DoRegions {
		params := trp.LayoutAnalysisParams{
			ModelID:                      cfg.RegionModel.ModelID,
			ModelName:                    cfg.RegionModel.ModelName,
			MinArea:                      cfg.RegionModel.MinArea,
			RectifyRegions:               cfg.RegionModel.RectifyRegions,
			EnrichExistingTranscriptions: cfg.RegionModel.EnrichExisting,
			LabelRegions:                 cfg.RegionModel.LabelRegions,
			LabelLines:                   cfg.RegionModel.LabelLines,
			LabelWords:                   cfg.RegionModel.LabelWords,
			KeepExistingRegions:          cfg.RegionModel.KeepExisting,
			JobImpl:                      "P2PaLAJob",
			DoBlockSeg:                   true,
			DoLineSeg:                    true,
		}
		if err := runLayoutJob(ctx, client, params, colID, docID, pageIDs); err != nil {
			return 0, fmt.Errorf("region recognition: %w", err)
		}
	}

	if opts.DoLines {
		params := trp.DefaultLayoutAnalysisParams()
		params.ModelID = cfg.LineModel.ModelID
		params.ModelName = cfg.LineModel.ModelName
		params.OmitRegionParams = true
		params.Extra = lineModelEntries(cfg.LineModel.Params)
		if err := runLayoutJob(ctx, client, params, colID, docID, pageIDs); err != nil {
			return 0, fmt.Errorf("line recognition: %w", err)
		}
	}

	if opts.DoText {
		params := trp.RecognitionParams{
			ModelID:       cfg.Recognition.ModelID,
			LanguageModel: cfg.Recognition.LanguageModel,
			BatchSize:     cfg.Recognition.BatchSize,
			DoWordSeg:     &cfg.Recognition.DoWordSeg,
		}
		jobID, err := client.SubmitTextRecognition(ctx, params, colID, docID, strings.Join(pageNrs, ","))
		if err != nil {
			return 0, fmt.Errorf("text recognition: %w", err)
		}
		if err := client.WaitForJob(ctx, jobID); err != nil {
			return 0, fmt.Errorf("text recognition job %d: %w", jobID, err)
		}
	}

	return len(pages), nil
}

func runLayoutJob(ctx context.Context, client *trp.Client, params trp.LayoutAnalysisParams, colID, docID int, pageIDs []int) error {
	jobID, err := client.SubmitLayoutAnalysis(ctx, params, colID, docID, pageIDs)
	if err != nil {
		return err
	}
	return client.WaitForJob(ctx, jobID)
}

// lineModelEntries flattens the configured pars.* map in key order so
// the request body is deterministic.
func lineModelEntries(params map[string]string) []trp.ParamEntry {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]trp.ParamEntry, len(keys))
	for i, k := range keys {
		entries[i] = trp.ParamEntry{Key: k, Value: params[k]}
	}
	return entries
}
