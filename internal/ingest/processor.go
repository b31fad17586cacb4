package ingest

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dkitanovski/contract-extractor/constants"
	"github.com/dkitanovski/contract-extractor/internal/common"
	"github.com/dkitanovski/contract-extractor/internal/extract"
	"github.com/dkitanovski/contract-extractor/internal/ocr"
	"github.com/dkitanovski/contract-extractor/internal/schema"
)

// Processor turns one PDF on disk into an ExtractionResult: it decides the
// digital-vs-scanned path, produces the page text and raster, and hands
// both to the orchestrator.
type Processor struct {
	ocr      *ocr.Extractor
	orch     *extract.Orchestrator
	registry *schema.Registry
	logger   *slog.Logger
}

func NewProcessor(extractor *ocr.Extractor, orch *extract.Orchestrator, registry *schema.Registry, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{ocr: extractor, orch: orch, registry: registry, logger: logger}
}

// Process extracts from the first page of the PDF at path. Errors here are
// structural (unreadable file, failed render); missing fields come back as
// an incomplete result, not an error.
func (p *Processor) Process(ctx context.Context, path string, docType constants.DocType) (extract.ExtractionResult, error) {
	native, pages, err := p.ocr.NativeText(ctx, path)
	if err != nil {
		return extract.ExtractionResult{}, common.NewAppError("DOC_UNREADABLE", "reading "+path,
			errors.Join(common.ErrUnreadable, err))
	}

	doc := extract.Document{Type: docType, Scanned: ocr.IsScanned(native)}
	if doc.Scanned {
		img, err := p.ocr.RenderPage(ctx, path, 1)
		if err != nil {
			return extract.ExtractionResult{}, common.NewAppError("DOC_RENDER", "rendering "+path, err)
		}
		text, err := p.ocr.ImageOCR(ctx, img)
		if err != nil {
			return extract.ExtractionResult{}, common.NewAppError("DOC_OCR", "recognizing "+path, err)
		}
		doc.PageText = ocr.Normalize(text)
		doc.PageImage = img
	} else {
		doc.PageText = ocr.Normalize(native)
		// The checkbox pair exists only as pixels, so checkbox-bearing types
		// need the raster even when the text layer is native. A failed render
		// just loses the checkbox fallback, not the document.
		if p.registry.Capabilities(docType).HasCheckbox {
			img, err := p.ocr.RenderPage(ctx, path, 1)
			if err != nil {
				p.logger.Warn("page render failed, checkbox pass skipped", "path", path, "error", err)
			} else {
				doc.PageImage = img
			}
		}
	}

	p.logger.Debug("document prepared",
		"path", path,
		"pages", pages,
		"scanned", doc.Scanned,
		"text_len", len(doc.PageText),
	)
	return p.orch.Extract(ctx, doc)
}
