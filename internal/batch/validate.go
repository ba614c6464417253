package batch

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/inkwellhq/inkwell/internal/metrics"
	"github.com/inkwellhq/inkwell/internal/runctx"
	"github.com/inkwellhq/inkwell/internal/trp"
)

// ValidateOptions names the document whose transcript versions are
// compared.
type ValidateOptions struct {
	Collection string
	Document   string
	OutputDir  string
}

// ValidateModel compares the configured reference and prediction
// transcript versions of one document, logs the aggregated error rates
// and writes the region table, the per-page score CSVs and the two
// score histograms into the output directory.
func ValidateModel(ctx context.Context, opts ValidateOptions) error {
	svc := runctx.ServicesFrom(ctx)
	client := svc.Client
	logger := svc.Logger
	cfg := svc.Config.Get()

	colID, err := client.ResolveCollectionID(ctx, opts.Collection)
	if err != nil {
		return err
	}
	docs, err := client.ListDocuments(ctx, colID)
	if err != nil {
		return err
	}
	docID, err := trp.ResolveDocumentID(docs, opts.Document)
	if err != nil {
		return err
	}
	doc, err := client.GetDocument(ctx, colID, docID)
	if err != nil {
		return err
	}
	logger.Info("validating document",
		"collection", opts.Collection, "document", opts.Document,
		"reference", cfg.Validation.Reference, "prediction", cfg.Validation.Prediction)

	report, err := metrics.Evaluate(ctx, client, logger, colID, doc, metrics.Options{
		Reference:    cfg.Validation.Reference,
		Prediction:   cfg.Validation.Prediction,
		FilterStatus: cfg.Validation.FilterStatus,
		RegionTypes:  cfg.Validation.RegionTypes,
	})
	if err != nil {
		return err
	}

	logger.Info("global scores", "cer", report.Global.CER, "wer", report.Global.WER)
	for regionType, score := range report.ByType {
		logger.Info("scores by region type",
			"type", regionType, "cer", score.CER, "wer", score.WER)
	}

	regionsPath := filepath.Join(opts.OutputDir, "textregions.csv")
	if err := report.WriteRegionsCSV(regionsPath); err != nil {
		return err
	}
	if err := metrics.WritePageScoresCSV(filepath.Join(opts.OutputDir, "cer_pages.csv"), "cer", report.PageCERs()); err != nil {
		return err
	}
	if err := metrics.WritePageScoresCSV(filepath.Join(opts.OutputDir, "wer_pages.csv"), "wer", report.PageWERs()); err != nil {
		return err
	}

	binWidth := cfg.Validation.HistBinWidth
	err = metrics.WriteHistogram(pageValues(report.PageCERs()), binWidth,
		"CER per page", filepath.Join(opts.OutputDir, "cer_per_page.png"))
	if err != nil {
		return fmt.Errorf("failed to write CER histogram: %w", err)
	}
	err = metrics.WriteHistogram(pageValues(report.PageWERs()), binWidth,
		"WER per page", filepath.Join(opts.OutputDir, "wer_per_page.png"))
	if err != nil {
		return fmt.Errorf("failed to write WER histogram: %w", err)
	}

	logger.Info("validation artifacts written", "dir", opts.OutputDir)
	return nil
}

func pageValues(scores map[int]float64) []float64 {
	values := make([]float64, 0, len(scores))
	for _, v := range scores {
		values = append(values, v)
	}
	return values
}
