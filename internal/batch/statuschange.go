package batch

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/inkwellhq/inkwell/internal/runctx"
	"github.com/inkwellhq/inkwell/internal/trp"
)

// StatusChangeOptions configures a CSV-driven status change run.
type StatusChangeOptions struct {
	// PageListFile addresses the pages to change by collection name,
	// document title and page number.
	PageListFile string
	// OutputDir receives the resolved page table export.
	OutputDir string
}

// ChangeStatus sets the configured status on the latest transcript
// version of every page listed in the input CSV. Collection lookups are
// fatal; per-document and per-page resolution failures are recorded as
// warnings and those rows are skipped.
func ChangeStatus(ctx context.Context, opts StatusChangeOptions) error {
	svc := runctx.ServicesFrom(ctx)
	client := svc.Client
	logger := svc.Logger
	cfg := svc.Config.Get()

	refs, err := ReadPageList(opts.PageListFile)
	if err != nil {
		return err
	}
	logger.Info("page list loaded", "file", opts.PageListFile, "pages", len(refs))

	// Resolve collection names once each; a missing collection name is
	// a lookup failure that aborts the run.
	colIDs := make(map[string]int)
	for i := range refs {
		name := refs[i].Collection
		if _, ok := colIDs[name]; ok {
			continue
		}
		id, err := client.ResolveCollectionID(ctx, name)
		if err != nil {
			logger.Error("collection lookup failed", "collection", name, "error", err)
			return err
		}
		colIDs[name] = id
	}
	for i := range refs {
		refs[i].ColID = colIDs[refs[i].Collection]
	}

	// Resolve document titles and the latest transcript per page. The
	// full document is fetched once per distinct title.
	type docKey struct {
		colID int
		title string
	}
	docIDs := make(map[docKey]int)
	docContent := make(map[docKey]*trp.Document)
	docsByCol := make(map[int][]trp.DocumentMeta)

	for i := range refs {
		ref := &refs[i]
		key := docKey{colID: ref.ColID, title: ref.Document}

		if _, ok := docIDs[key]; !ok {
			docs, ok := docsByCol[ref.ColID]
			if !ok {
				var err error
				docs, err = client.ListDocuments(ctx, ref.ColID)
				if err != nil {
					return err
				}
				docsByCol[ref.ColID] = docs
			}
			id, err := trp.ResolveDocumentID(docs, ref.Document)
			if err != nil {
				logger.Warn("document not found, pages skipped",
					"collection", ref.Collection, "document", ref.Document)
				docIDs[key] = 0
			} else {
				docIDs[key] = id
				doc, err := client.GetDocument(ctx, ref.ColID, id)
				if err != nil {
					return err
				}
				docContent[key] = doc
			}
		}

		ref.DocID = docIDs[key]
		if ref.DocID == 0 {
			ref.Warning = "document not found"
			continue
		}

		doc := docContent[key]
		if ref.PageNr < 1 || ref.PageNr > len(doc.PageList.Pages) {
			logger.Warn("page not found",
				"document", ref.Document, "page_nr", ref.PageNr)
			ref.Warning = "page not found"
			continue
		}
		transcripts := doc.PageList.Pages[ref.PageNr-1].Transcripts()
		if len(transcripts) == 0 {
			logger.Warn("page has no transcripts",
				"document", ref.Document, "page_nr", ref.PageNr)
			ref.Warning = "page has no transcripts"
			continue
		}
		ref.TsID = transcripts[0].TsID
	}

	exportPath := filepath.Join(opts.OutputDir, "status_change.csv")
	if err := WritePageList(exportPath, refs); err != nil {
		return err
	}
	logger.Info("resolved page table written", "file", exportPath)

	// Apply the status change; per-page failures are warnings.
	changed := 0
	for _, ref := range refs {
		if ref.Warning != "" {
			continue
		}
		logger.Info("updating status",
			"document", ref.Document, "page_nr", ref.PageNr, "status", cfg.StatusChange.Status)
		err := client.UpdatePageStatus(ctx, ref.ColID, ref.DocID, ref.PageNr, ref.TsID,
			cfg.StatusChange.Status, cfg.StatusChange.Comment)
		if err != nil {
			logger.Warn("status not updated",
				"document", ref.Document, "page_nr", ref.PageNr, "error", err)
			continue
		}
		changed++
	}
	logger.Info("status change finished", "changed", changed, "total", len(refs))

	if changed == 0 && len(refs) > 0 {
		return fmt.Errorf("no page status changed")
	}
	return nil
}
