package extract

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkitanovski/contract-extractor/constants"
	"github.com/dkitanovski/contract-extractor/internal/checkbox"
	"github.com/dkitanovski/contract-extractor/internal/customer"
	"github.com/dkitanovski/contract-extractor/internal/fields"
	"github.com/dkitanovski/contract-extractor/internal/imaging"
	"github.com/dkitanovski/contract-extractor/internal/schema"
)

// fakeOCR returns canned text for the second-pass table crop.
type fakeOCR struct {
	text  string
	err   error
	calls int
}

func (f *fakeOCR) ImageOCR(_ context.Context, _ image.Image) (string, error) {
	f.calls++
	return f.text, f.err
}

func newTestOrchestrator(engine OCREngine) *Orchestrator {
	return NewOrchestrator(
		schema.Builtin(),
		fields.New(0),
		customer.NewResolver(customer.Config{}, checkbox.NewDetector(nil), nil),
		imaging.NewTableCorrector(imaging.TableConfig{}, nil),
		engine,
		nil,
	)
}

func TestExtractRejectsUnknownType(t *testing.T) {
	o := newTestOrchestrator(&fakeOCR{})
	_, err := o.Extract(context.Background(), Document{Type: constants.DocTypeUndefined})
	require.Error(t, err)
	assert.ErrorContains(t, err, "no schema")
}

func TestExtractDigitalDocument(t *testing.T) {
	o := newTestOrchestrator(&fakeOCR{})
	doc := Document{
		Type: constants.DocType3,
		PageText: "Договор за користење на јавни комуникациски услуги бр. 123456789 " +
			"склучен на 01.02.2023 ПРЕТПЛАТНИК физичко лице ✓ правно лице Име и презиме " +
			"Марко Марковски ЕМБГ: 1234567890123 адреса",
	}

	res, err := o.Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "123456789", res.ContractNumber)
	assert.Equal(t, "01.02.2023", res.ContractDate)
	assert.Equal(t, "1234567890123", res.TaxID)
	require.NotNil(t, res.Resident)
	assert.True(t, *res.Resident)
	require.NotNil(t, res.Business)
	assert.False(t, *res.Business)
	assert.True(t, res.Complete())
}

func TestExtractMissingFieldsAreNotErrors(t *testing.T) {
	o := newTestOrchestrator(&fakeOCR{})
	res, err := o.Extract(context.Background(), Document{
		Type:     constants.DocType3,
		PageText: "страница без ниту еден препознатлив елемент",
	})
	require.NoError(t, err)
	assert.Empty(t, res.ContractNumber)
	assert.Empty(t, res.TaxID)
	assert.Nil(t, res.Resident)
	assert.False(t, res.Complete())
}

// Table types on the scan path read the tax id out of the corrected table
// crop's second OCR pass.
func TestExtractScannedTableSecondPass(t *testing.T) {
	engine := &fakeOCR{text: "ЕДБ: 9876543210987 останато од табелата"}
	o := newTestOrchestrator(engine)

	doc := Document{
		Type:      constants.DocType1,
		Scanned:   true,
		PageText:  "комуникациски услуги бр. 123456789 на ден 01.02.2023",
		PageImage: pageWithTable(),
	}
	res, err := o.Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 1, engine.calls)
	assert.Equal(t, "9876543210987", res.TaxID)
	assert.Equal(t, "123456789", res.ContractNumber)
}

// Scenario: the table region has no detectable quadrilateral, so the tax id
// falls back to the free 13-digit scan over the raw page text.
func TestExtractGeometryFailureFallsBackToPageText(t *testing.T) {
	engine := &fakeOCR{text: "никогаш не повикано"}
	o := newTestOrchestrator(engine)

	doc := Document{
		Type:      constants.DocType1,
		Scanned:   true,
		PageText:  "комуникациски услуги бр. 123456789 на 01.02.2023 матичен 1234567890123 крај",
		PageImage: blankPage(),
	}
	res, err := o.Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Zero(t, engine.calls)
	assert.Equal(t, "1234567890123", res.TaxID)
}

// A failed second-pass OCR call degrades to page text instead of failing
// the document.
func TestExtractTableOCRErrorDegrades(t *testing.T) {
	engine := &fakeOCR{err: errors.New("tesseract crashed")}
	o := newTestOrchestrator(engine)

	doc := Document{
		Type:      constants.DocType1,
		Scanned:   true,
		PageText:  "текст со слободен број 1234567890123 внатре",
		PageImage: pageWithTable(),
	}
	res, err := o.Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "1234567890123", res.TaxID)
}

// A digital page whose customer-type span carries no inline checkmark must
// still resolve through the checkbox pair on the raster.
func TestExtractDigitalCheckboxFallback(t *testing.T) {
	engine := &fakeOCR{}
	o := newTestOrchestrator(engine)

	doc := Document{
		Type: constants.DocType1,
		PageText: "комуникациски услуги бр. 123456789 на ден 01.02.2023 " +
			"ПРЕТПЛАТНИК физичко лице правно лице Име и презиме Марко Марковски",
		PageImage: pageWithCheckboxPair(),
	}
	res, err := o.Extract(context.Background(), doc)
	require.NoError(t, err)
	// digital docs never take the table second pass
	assert.Zero(t, engine.calls)
	require.NotNil(t, res.Resident)
	assert.True(t, *res.Resident)
	require.NotNil(t, res.Business)
	assert.False(t, *res.Business)
}

// Without a raster the same digital document stays undetermined; the glyph
// scan alone cannot decide a span with no checkmark.
func TestExtractDigitalGlyphFreeSpanWithoutRaster(t *testing.T) {
	o := newTestOrchestrator(&fakeOCR{})
	res, err := o.Extract(context.Background(), Document{
		Type: constants.DocType1,
		PageText: "ПРЕТПЛАТНИК физичко лице правно лице Име и презиме " +
			"Марко Марковски",
	})
	require.NoError(t, err)
	assert.Nil(t, res.Resident)
	assert.Nil(t, res.Business)
}

// The free digit-run scan belongs to the OCR path only. A digital page
// whose tax-id label is missing must not report an unrelated number.
func TestExtractDigitalTaxIDNeedsPattern(t *testing.T) {
	o := newTestOrchestrator(&fakeOCR{})

	res, err := o.Extract(context.Background(), Document{
		Type:     constants.DocType1,
		PageText: "матичен број 1234567890123 без ознака пред него",
	})
	require.NoError(t, err)
	assert.Empty(t, res.TaxID)

	// the same text on the scan path does take the run
	res, err = o.Extract(context.Background(), Document{
		Type:     constants.DocType1,
		Scanned:  true,
		PageText: "матичен број 1234567890123 без ознака пред него",
	})
	require.NoError(t, err)
	assert.Equal(t, "1234567890123", res.TaxID)
}

// Ambiguous-id types must never take the digit-run fallback; several
// unrelated 13-digit numbers appear on those pages.
func TestExtractAmbiguousTypeSkipsDigitRun(t *testing.T) {
	o := newTestOrchestrator(&fakeOCR{})
	res, err := o.Extract(context.Background(), Document{
		Type:     constants.DocType2,
		PageText: "случаен број 1111111111111 без ознака",
	})
	require.NoError(t, err)
	assert.Empty(t, res.TaxID)
}

func TestExtractScannedContractNumberDigitRunFallback(t *testing.T) {
	o := newTestOrchestrator(&fakeOCR{})
	res, err := o.Extract(context.Background(), Document{
		Type:     constants.DocType3,
		Scanned:  true,
		PageText: "целосно искривен наслов 123456789 на 01.02.2023",
	})
	require.NoError(t, err)
	assert.Equal(t, "123456789", res.ContractNumber)
}

func TestCompleteGate(t *testing.T) {
	yes := true
	full := ExtractionResult{
		ContractNumber: "123456789",
		ContractDate:   "01.02.2023",
		TaxID:          "1234567890123",
		Resident:       &yes,
	}
	assert.True(t, full.Complete())

	for _, mutate := range []func(*ExtractionResult){
		func(r *ExtractionResult) { r.ContractNumber = "" },
		func(r *ExtractionResult) { r.ContractDate = "" },
		func(r *ExtractionResult) { r.TaxID = "" },
		func(r *ExtractionResult) { r.Resident = nil },
	} {
		r := full
		mutate(&r)
		assert.False(t, r.Complete())
	}
}

func blankPage() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, 1000, 1400))
	for i := range g.Pix {
		g.Pix[i] = 255
	}
	return g
}

// pageWithCheckboxPair paints a ticked left box and an empty right box
// inside the type-1 checkbox layout region.
func pageWithCheckboxPair() *image.Gray {
	g := blankPage()
	fill := func(r image.Rectangle) {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				g.Pix[y*g.Stride+x] = 0
			}
		}
	}
	// left box, solid
	fill(image.Rect(250, 260, 280, 290))
	// right box, 2px outline
	outline := image.Rect(400, 260, 430, 290)
	border := 2
	fill(image.Rect(outline.Min.X, outline.Min.Y, outline.Max.X, outline.Min.Y+border))
	fill(image.Rect(outline.Min.X, outline.Max.Y-border, outline.Max.X, outline.Max.Y))
	fill(image.Rect(outline.Min.X, outline.Min.Y, outline.Min.X+border, outline.Max.Y))
	fill(image.Rect(outline.Max.X-border, outline.Min.Y, outline.Max.X, outline.Max.Y))
	return g
}

// pageWithTable paints a table border inside the type-1 table layout region.
func pageWithTable() *image.Gray {
	g := blankPage()
	border := image.Rect(100, 270, 900, 360)
	thickness := 3
	fill := func(r image.Rectangle) {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				g.Pix[y*g.Stride+x] = 0
			}
		}
	}
	fill(image.Rect(border.Min.X, border.Min.Y, border.Max.X, border.Min.Y+thickness))
	fill(image.Rect(border.Min.X, border.Max.Y-thickness, border.Max.X, border.Max.Y))
	fill(image.Rect(border.Min.X, border.Min.Y, border.Min.X+thickness, border.Max.Y))
	fill(image.Rect(border.Max.X-thickness, border.Min.Y, border.Max.X, border.Max.Y))
	return g
}
