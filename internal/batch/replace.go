package batch

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/inkwellhq/inkwell/internal/pagexml"
	"github.com/inkwellhq/inkwell/internal/runctx"
	"github.com/inkwellhq/inkwell/internal/selection"
)

// ReplaceCharacters walks every document of the configured collection,
// downloads the latest transcript of each page, applies the configured
// text replacements and uploads the changed pages as new transcript
// versions with the page status left unchanged. The run refuses to
// start without a collection so a rewrite never touches more than the
// one collection it was pointed at. Upload failures abort the run so a
// partial rewrite is noticed immediately.
func ReplaceCharacters(ctx context.Context) error {
	svc := runctx.ServicesFrom(ctx)
	client := svc.Client
	logger := svc.Logger
	cfg := svc.Config.Get()

	if len(cfg.Replace.Replacements) == 0 {
		return fmt.Errorf("no replacements configured")
	}
	if cfg.Replace.Collection == "" {
		return fmt.Errorf("no collection configured for replacement")
	}
	// Deterministic application order.
	olds := make([]string, 0, len(cfg.Replace.Replacements))
	for old := range cfg.Replace.Replacements {
		olds = append(olds, old)
	}
	sort.Strings(olds)

	colID, err := client.ResolveCollectionID(ctx, cfg.Replace.Collection)
	if err != nil {
		return err
	}

	docs, err := client.ListDocuments(ctx, colID)
	if err != nil {
		return err
	}

	changedPages := 0
	for _, meta := range docs {
		if cfg.Replace.SkipTitlePrefix != "" && strings.HasPrefix(meta.Title, cfg.Replace.SkipTitlePrefix) {
			logger.Info("document skipped by title prefix",
				"collection", cfg.Replace.Collection, "document", meta.Title)
			continue
		}

		doc, err := client.GetDocument(ctx, colID, meta.DocID)
		if err != nil {
			return err
		}
		for _, page := range doc.PageList.Pages {
			latest, ok := selection.Latest(page)
			if !ok {
				logger.Warn("page has no transcripts",
					"document", meta.Title, "page_nr", page.PageNr)
				continue
			}

			content, err := client.DownloadTranscript(ctx, latest.URL)
			if err != nil {
				return err
			}

			total := 0
			for _, old := range olds {
				var n int
				content, n = pagexml.ReplaceInText(content, old, cfg.Replace.Replacements[old])
				total += n
			}
			if total == 0 {
				continue
			}

			logger.Info("uploading replaced transcript",
				"collection", cfg.Replace.Collection, "document", meta.Title,
				"page_nr", page.PageNr, "replacements", total)
			err = client.UploadTranscript(ctx, content, colID, meta.DocID, page.PageNr,
				cfg.Replace.Comment, "")
			if err != nil {
				logger.Error("upload failed, aborting",
					"document", meta.Title, "page_nr", page.PageNr, "error", err)
				return err
			}
			changedPages++
		}
	}

	logger.Info("replacement finished", "changed_pages", changedPages)
	return nil
}
