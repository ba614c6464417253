package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/inkwellhq/inkwell/internal/runctx"
	"github.com/inkwellhq/inkwell/internal/selection"
	"github.com/inkwellhq/inkwell/internal/trp"
)

// DownloadOptions configures a page XML export run.
type DownloadOptions struct {
	// DestDir is the root of the export tree.
	DestDir string
}

// DownloadLatest exports the newest transcript of every page of the
// matching collections into a dest/<collection>/<document>/ tree.
// Training collections get a <title>_NNN subfolder per page and prefer
// the newest ground-truth version over the plain latest one. Pages
// without a usable transcript are logged and skipped.
func DownloadLatest(ctx context.Context, opts DownloadOptions) error {
	svc := runctx.ServicesFrom(ctx)
	client := svc.Client
	logger := svc.Logger
	cfg := svc.Config.Get()

	if opts.DestDir == "" {
		return fmt.Errorf("no destination directory given")
	}

	training := make(map[string]bool, len(cfg.Download.TrainingCollections))
	for _, name := range cfg.Download.TrainingCollections {
		training[name] = true
	}

	collections, err := client.ListCollections(ctx)
	if err != nil {
		return err
	}

	exported := 0
	for _, col := range collections {
		if !training[col.ColName] &&
			(cfg.Download.CollectionPrefix == "" || !strings.HasPrefix(col.ColName, cfg.Download.CollectionPrefix)) {
			continue
		}
		logger.Info("exporting collection",
			"collection", col.ColName, "col_id", col.ColID, "training", training[col.ColName])

		docs, err := client.ListDocuments(ctx, col.ColID)
		if err != nil {
			return err
		}
		for _, meta := range docs {
			if cfg.Download.SkipTitlePrefix != "" && strings.HasPrefix(meta.Title, cfg.Download.SkipTitlePrefix) {
				logger.Info("document skipped by title prefix",
					"collection", col.ColName, "document", meta.Title)
				continue
			}

			doc, err := client.GetDocument(ctx, col.ColID, meta.DocID)
			if err != nil {
				return err
			}
			n, err := exportDocument(ctx, client, doc, exportSpec{
				dir:      filepath.Join(opts.DestDir, col.ColName, meta.Title),
				title:    meta.Title,
				training: training[col.ColName],
				gtStatus: cfg.Download.GroundTruthStatus,
				logger:   logger.With("collection", col.ColName, "document", meta.Title),
			})
			if err != nil {
				return err
			}
			exported += n
		}
	}

	logger.Info("export finished", "pages", exported)
	return nil
}

type exportSpec struct {
	dir      string
	title    string
	training bool
	gtStatus string
	logger   *slog.Logger
}

// exportDocument writes one transcript file per page, keeping the
// transcript's own file name. The training layout puts each page in a
// <title>_NNN subfolder so downstream training tooling can pair the
// transcript with the page image later.
func exportDocument(ctx context.Context, client *trp.Client, doc *trp.Document, spec exportSpec) (int, error) {
	if err := os.MkdirAll(spec.dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create export dir: %w", err)
	}

	written := 0
	for _, page := range doc.PageList.Pages {
		transcript, ok := pickExport(page, spec.training, spec.gtStatus)
		if !ok {
			spec.logger.Warn("page has no exportable transcript", "page_nr", page.PageNr)
			continue
		}

		name := transcript.FileName
		if name == "" {
			name = fmt.Sprintf("%04d.xml", page.PageNr)
		}
		var path string
		if spec.training {
			pageDir := filepath.Join(spec.dir, fmt.Sprintf("%s_%03d", spec.title, page.PageNr))
			if err := os.MkdirAll(pageDir, 0o755); err != nil {
				return written, fmt.Errorf("failed to create page dir: %w", err)
			}
			path = filepath.Join(pageDir, name)
		} else {
			path = filepath.Join(spec.dir, name)
		}

		if err := client.DownloadTranscriptToFile(ctx, transcript.URL, path); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// pickExport chooses the transcript to export: the newest ground-truth
// version for training collections when one exists, otherwise the
// newest version overall.
func pickExport(page trp.Page, training bool, gtStatus string) (trp.Transcript, bool) {
	if training && gtStatus != "" {
		if t, ok := selection.LatestWithStatus(page, gtStatus); ok {
			return t, true
		}
	}
	return selection.Latest(page)
}
