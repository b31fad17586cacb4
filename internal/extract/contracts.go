package extract

import (
	"context"
	"image"

	"github.com/dkitanovski/contract-extractor/constants"
)

// OCREngine is the external text-recognition collaborator. The orchestrator
// only needs the image pass; page rendering and native text happen upstream.
type OCREngine interface {
	ImageOCR(ctx context.Context, img image.Image) (string, error)
}

// Document is one page ready for extraction. PageText must already be
// normalized to single-space form. PageImage is the rendered page raster
// and is only consulted for scanned documents whose type has a table or
// checkbox region.
type Document struct {
	Type      constants.DocType
	PageText  string
	Scanned   bool
	PageImage image.Image
}
