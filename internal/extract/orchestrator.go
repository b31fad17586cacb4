// Package extract drives one document through the extraction pipeline and
// assembles the result record. Missing fields never surface as errors; only
// structural problems (unknown type, undecodable inputs) do.
package extract

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/dkitanovski/contract-extractor/constants"
	"github.com/dkitanovski/contract-extractor/internal/common"
	"github.com/dkitanovski/contract-extractor/internal/customer"
	"github.com/dkitanovski/contract-extractor/internal/fields"
	"github.com/dkitanovski/contract-extractor/internal/imaging"
	"github.com/dkitanovski/contract-extractor/internal/schema"
)

// contractDigits is the free digit-run shape of a contract number, used on
// the scan path when the anchored patterns come up empty.
var contractDigits = schema.DigitRange{Min: 9, Max: 9}

type Orchestrator struct {
	registry  *schema.Registry
	fields    *fields.Resolver
	customers *customer.Resolver
	table     *imaging.TableCorrector
	ocr       OCREngine
	logger    *slog.Logger
}

func NewOrchestrator(
	registry *schema.Registry,
	fieldResolver *fields.Resolver,
	customerResolver *customer.Resolver,
	table *imaging.TableCorrector,
	ocr OCREngine,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		registry:  registry,
		fields:    fieldResolver,
		customers: customerResolver,
		table:     table,
		ocr:       ocr,
		logger:    logger,
	}
}

// Extract runs the full pipeline for one document. Customer-type resolution
// and the table pass are independent of the text fields and run
// concurrently; the tax-id resolution waits for the table pass since the
// corrected crop is its preferred search space.
func (o *Orchestrator) Extract(ctx context.Context, doc Document) (ExtractionResult, error) {
	if !doc.Type.Valid() {
		return ExtractionResult{}, common.NewAppError("EXTRACT_BAD_TYPE",
			"document type "+doc.Type.String()+" has no schema", common.ErrInvalidInput)
	}
	caps := o.registry.Capabilities(doc.Type)
	o.logger.Debug("extract.start",
		"doc_type", doc.Type.String(),
		"scanned", doc.Scanned,
		"has_table", caps.HasTable,
		"has_checkbox", caps.HasCheckbox,
	)

	var res ExtractionResult
	res.ContractNumber = o.contractNumber(doc)
	res.ContractDate = o.fields.Extract(constants.FieldContractDate, doc.PageText,
		o.registry.SchemaFor(doc.Type, constants.FieldContractDate), doc.Scanned)

	var taxText string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d := o.resolveCustomer(gctx, doc, caps)
		res.Resident, res.Business = d.Resident, d.Business
		return nil
	})
	g.Go(func() error {
		var err error
		taxText, err = o.taxSearchSpace(gctx, doc, caps)
		return err
	})
	if err := g.Wait(); err != nil {
		return ExtractionResult{}, err
	}

	res.TaxID = o.taxID(doc, caps, taxText)

	o.logger.Info("extract.ok",
		"doc_type", doc.Type.String(),
		"complete", res.Complete(),
		"has_contract_number", res.ContractNumber != "",
		"has_tax_id", res.TaxID != "",
		"customer_determined", res.Resident != nil,
	)
	return res, nil
}

func (o *Orchestrator) contractNumber(doc Document) string {
	fs := o.registry.SchemaFor(doc.Type, constants.FieldContractNumber)
	if v := o.fields.Extract(constants.FieldContractNumber, doc.PageText, fs, doc.Scanned); v != "" {
		return v
	}
	// OCR tends to mangle the anchor phrases; a bare digit run of contract
	// shape is the last resort on that path.
	if doc.Scanned {
		return fields.FirstDigitRun(doc.PageText, contractDigits)
	}
	return ""
}

// taxSearchSpace decides which text the tax-id patterns run against. For
// table types on the scan path that is a second OCR pass over the corrected
// table crop; geometry failure or a missing page image falls back to the
// page text.
func (o *Orchestrator) taxSearchSpace(ctx context.Context, doc Document, caps schema.Capabilities) (string, error) {
	if !caps.HasTable || !doc.Scanned {
		return doc.PageText, nil
	}
	region, ok := o.registry.Layout(doc.Type, constants.RegionTable)
	if !ok || doc.PageImage == nil {
		return doc.PageText, nil
	}
	crop := imaging.CropRegion(doc.PageImage, region.X0, region.Y0, region.X1, region.Y1)
	corrected, ok := o.table.Correct(crop)
	if !ok {
		o.logger.Debug("extract.table_fallback", "doc_type", doc.Type.String())
		return doc.PageText, nil
	}
	txt, err := o.ocr.ImageOCR(ctx, corrected)
	if err != nil {
		// The second pass is best-effort; a failed OCR call degrades to the
		// page text rather than failing the document.
		o.logger.Warn("extract.table_ocr_failed", "doc_type", doc.Type.String(), "error", err)
		return doc.PageText, nil
	}
	return txt, nil
}

func (o *Orchestrator) taxID(doc Document, caps schema.Capabilities, searchText string) string {
	fs := o.registry.SchemaFor(doc.Type, constants.FieldTaxID)
	if v := o.fields.Extract(constants.FieldTaxID, searchText, fs, doc.Scanned); v != "" {
		return v
	}
	// Ambiguous types carry several different 13-digit numbers on the page,
	// so only an anchored match is trustworthy there.
	if caps.AmbiguousID {
		return ""
	}
	// The digital text layer is exact; if the pattern misses there, a free
	// digit run would pick up an unrelated number. The scan is OCR-only.
	if !doc.Scanned {
		return ""
	}
	if v := fields.FirstDigitRun(searchText, o.registry.TaxIDDigits(doc.Type)); v != "" {
		return v
	}
	if searchText != doc.PageText {
		return fields.FirstDigitRun(doc.PageText, o.registry.TaxIDDigits(doc.Type))
	}
	return ""
}

func (o *Orchestrator) resolveCustomer(_ context.Context, doc Document, caps schema.Capabilities) customer.Decision {
	span := o.fields.Extract(constants.FieldCustomerType, doc.PageText,
		o.registry.SchemaFor(doc.Type, constants.FieldCustomerType), doc.Scanned)

	in := customer.Input{
		Span:          span,
		Spec:          o.registry.CheckboxSpec(doc.Type),
		SkipGlyphScan: doc.Scanned && caps.HasCheckbox,
	}
	if caps.HasCheckbox && doc.PageImage != nil {
		if region, ok := o.registry.Layout(doc.Type, constants.RegionCheckbox); ok {
			in.RegionImage = imaging.CropRegion(doc.PageImage, region.X0, region.Y0, region.X1, region.Y1)
		}
	}
	if !caps.HasCheckbox {
		in.ResidentKeyword, in.BusinessKeyword = o.registry.Keywords(doc.Type)
	}
	return o.customers.Resolve(in)
}
